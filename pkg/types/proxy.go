package types

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ProxyType is the protocol spoken by a proxy server
type ProxyType string

const (
	ProxyHTTP   ProxyType = "http"
	ProxyHTTPS  ProxyType = "https"
	ProxySOCKS4 ProxyType = "socks4"
	ProxySOCKS5 ProxyType = "socks5"
)

// DefaultProxyPort is used when a profile does not specify a port
const DefaultProxyPort = 8080

// ProxyTypes lists the supported proxy protocols in display order
var ProxyTypes = []ProxyType{ProxyHTTP, ProxyHTTPS, ProxySOCKS4, ProxySOCKS5}

// ParseProxyType converts a user supplied string into a ProxyType
func ParseProxyType(s string) (ProxyType, error) {
	candidate := ProxyType(strings.ToLower(strings.TrimSpace(s)))
	if candidate == "" {
		return ProxyHTTP, nil
	}
	for _, t := range ProxyTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported proxy type '%s'", s)
}

// ProxyProfile is a saved proxy server configuration
type ProxyProfile struct {
	Name              string    `json:"name" yaml:"name" toml:"name"`
	UseProxy          bool      `json:"useProxy" yaml:"useProxy" toml:"useProxy"`
	ProxyType         ProxyType `json:"proxyType" yaml:"proxyType" toml:"proxyType"`
	ProxyServer       string    `json:"proxyServer" yaml:"proxyServer" toml:"proxyServer"`
	ProxyPort         int       `json:"proxyPort" yaml:"proxyPort" toml:"proxyPort"`
	ProxyRequiresAuth bool      `json:"proxyRequiresAuth" yaml:"proxyRequiresAuth" toml:"proxyRequiresAuth"`
	ProxyUsername     string    `json:"proxyUsername" yaml:"proxyUsername" toml:"proxyUsername"`
	ProxyPassword     string    `json:"proxyPassword" yaml:"proxyPassword" toml:"proxyPassword"`
	ProxyBypassList   string    `json:"proxyBypassList" yaml:"proxyBypassList" toml:"proxyBypassList"`
	ProxyBypassLocal  bool      `json:"proxyBypassLocal" yaml:"proxyBypassLocal" toml:"proxyBypassLocal"`
	CreatedTime       time.Time `json:"createdTime" yaml:"createdTime" toml:"createdTime"`
	Description       string    `json:"description" yaml:"description" toml:"description"`
}

var _ Record[ProxyProfile] = ProxyProfile{}

// NewProxyProfile returns a profile populated with the usual defaults
func NewProxyProfile(name string) ProxyProfile {
	return ProxyProfile{
		Name:             name,
		ProxyType:        ProxyHTTP,
		ProxyPort:        DefaultProxyPort,
		ProxyBypassLocal: true,
	}
}

func (p ProxyProfile) GetName() string           { return p.Name }
func (p ProxyProfile) GetDescription() string    { return p.Description }
func (p ProxyProfile) GetCreatedTime() time.Time { return p.CreatedTime }

// WithCreatedTime returns a copy of the profile stamped with t
func (p ProxyProfile) WithCreatedTime(t time.Time) ProxyProfile {
	p.CreatedTime = t
	return p
}

// BypassEntries splits the semicolon separated bypass list. "<local>" is
// appended when ProxyBypassLocal is set.
func (p ProxyProfile) BypassEntries() []string {
	var entries []string
	for _, part := range strings.FieldsFunc(p.ProxyBypassList, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		if part = strings.TrimSpace(part); part != "" {
			entries = append(entries, part)
		}
	}
	if p.ProxyBypassLocal {
		entries = append(entries, "<local>")
	}
	return entries
}

// URL renders the proxy endpoint. Credentials are included only when the
// profile requires authentication.
func (p ProxyProfile) URL() *url.URL {
	scheme := p.ProxyType
	if scheme == "" {
		scheme = ProxyHTTP
	}
	port := p.ProxyPort
	if port == 0 {
		port = DefaultProxyPort
	}

	u := &url.URL{
		Scheme: string(scheme),
		Host:   net.JoinHostPort(p.ProxyServer, strconv.Itoa(port)),
	}
	if p.ProxyRequiresAuth && p.ProxyUsername != "" {
		u.User = url.UserPassword(p.ProxyUsername, p.ProxyPassword)
	}
	return u
}

// NoProxy renders the bypass list in the comma separated form understood by
// most command line tools.
func (p ProxyProfile) NoProxy() string {
	var out []string
	for _, entry := range p.BypassEntries() {
		if entry == "<local>" {
			out = append(out, "localhost", "127.0.0.1", "::1")
			continue
		}
		out = append(out, entry)
	}
	return strings.Join(out, ",")
}

func (p ProxyProfile) String() string {
	if !p.UseProxy {
		return fmt.Sprintf("%s [proxy disabled]", p.Name)
	}
	return fmt.Sprintf("%s [%s: %s:%d]", p.Name, strings.ToUpper(string(p.ProxyType)), p.ProxyServer, p.ProxyPort)
}
