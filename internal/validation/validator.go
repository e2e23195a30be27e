package validation

import (
	"fmt"
	"net"
	"net/netip"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/ipconfiger/ipconfiger/pkg/types"
)

const (
	maxProfileNameLength = 64
	maxAdapterNameLength = 256
	maxDescriptionLength = 1024
	maxHostLength        = 253
)

// Validator checks user supplied profile fields before they are stored or
// handed to operating system commands
type Validator struct {
	profileNamePattern *regexp.Regexp
	hostnamePattern    *regexp.Regexp

	// Security patterns to detect injection attempts
	commandInjectionPatterns []*regexp.Regexp
	pathTraversalPatterns    []*regexp.Regexp
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		// Letters and digits in any script, plus space, dot, underscore, hyphen
		profileNamePattern: regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ._-]*$`),

		// RFC 1123 host name, optionally with a leading wildcard label
		hostnamePattern: regexp.MustCompile(`^(\*\.)?([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`),

		commandInjectionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`[;&|]`),     // Command separators
			regexp.MustCompile("`"),         // Backticks
			regexp.MustCompile(`\$\(`),      // Command substitution
			regexp.MustCompile(`\$\{`),      // Variable expansion
			regexp.MustCompile(`<<|>>`),     // Redirections
			regexp.MustCompile(`\|\||\&\&`), // Logical operators
			regexp.MustCompile(`\n|\r`),     // Newlines
			regexp.MustCompile(`[<>]`),      // IO redirection
			regexp.MustCompile(`\x00`),      // Null bytes
		},

		pathTraversalPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\.\.[\\/]`),         // ../ or ..\
			regexp.MustCompile(`%2e%2e|%252e%252e`), // URL encoded traversal
			regexp.MustCompile(`\x00`),              // Null bytes
		},
	}
}

// ValidateProfileName validates a profile name
func (v *Validator) ValidateProfileName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	if len([]rune(name)) > maxProfileNameLength {
		return fmt.Errorf("profile name too long: maximum %d characters", maxProfileNameLength)
	}

	if v.containsDangerousUnicode(name) {
		return fmt.Errorf("profile name contains invalid Unicode characters")
	}

	if !v.profileNamePattern.MatchString(name) {
		return fmt.Errorf("invalid profile name: must start with a letter or digit and contain only letters, digits, spaces, dots, underscores, and hyphens")
	}

	return nil
}

// ValidateAdapterName validates an adapter name. Adapter names are passed
// to netsh and ip as a single argument, so quotes are rejected too.
func (v *Validator) ValidateAdapterName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("adapter name cannot be empty")
	}

	if len(name) > maxAdapterNameLength {
		return fmt.Errorf("adapter name too long: maximum %d characters", maxAdapterNameLength)
	}

	if v.containsCommandInjection(name) || strings.ContainsAny(name, `"'`) {
		return fmt.Errorf("adapter name contains invalid characters")
	}

	if v.containsDangerousUnicode(name) {
		return fmt.Errorf("adapter name contains invalid Unicode characters")
	}

	return nil
}

// ValidateIPv4 checks that addr is a dotted-quad IPv4 address. field names
// the value in the error message.
func (v *Validator) ValidateIPv4(field, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if _, ok := parseIPv4(addr); !ok {
		return fmt.Errorf("%s '%s' is not a valid IPv4 address", field, addr)
	}
	return nil
}

// ValidateSubnetMask checks that mask is an IPv4 netmask with contiguous
// leading one bits
func (v *Validator) ValidateSubnetMask(mask string) error {
	if err := v.ValidateIPv4("subnet mask", mask); err != nil {
		return err
	}
	if _, ok := MaskBits(mask); !ok {
		return fmt.Errorf("subnet mask '%s' is not a contiguous netmask", mask)
	}
	return nil
}

// MaskBits returns the prefix length of a dotted-quad netmask
func MaskBits(mask string) (int, bool) {
	addr, ok := parseIPv4(mask)
	if !ok {
		return 0, false
	}
	b := addr.As4()
	ones, bits := net.IPv4Mask(b[0], b[1], b[2], b[3]).Size()
	if bits == 0 || ones == 0 {
		return 0, false
	}
	return ones, true
}

// MaskFromBits renders a prefix length as a dotted-quad netmask
func MaskFromBits(ones int) string {
	if ones < 0 || ones > 32 {
		return ""
	}
	return net.IP(net.CIDRMask(ones, 32)).String()
}

// SameSubnet reports whether a and b fall in the same network under mask.
// Unparseable input is never in the same subnet.
func SameSubnet(a, b, mask string) bool {
	addrA, okA := parseIPv4(a)
	addrB, okB := parseIPv4(b)
	m, okM := parseIPv4(mask)
	if !okA || !okB || !okM {
		return false
	}

	x, y, mb := addrA.As4(), addrB.As4(), m.As4()
	for i := 0; i < 4; i++ {
		if x[i]&mb[i] != y[i]&mb[i] {
			return false
		}
	}
	return true
}

// ValidateNetworkProfile checks a network profile before it is saved. DHCP
// profiles only need a valid name; static ones need an address and mask,
// and a gateway, when given, must share the address's subnet.
func (v *Validator) ValidateNetworkProfile(p types.NetworkProfile) error {
	if err := v.ValidateProfileName(p.Name); err != nil {
		return err
	}

	if p.AdapterName != "" {
		if err := v.ValidateAdapterName(p.AdapterName); err != nil {
			return err
		}
	}

	if err := v.ValidateDescription(p.Description); err != nil {
		return err
	}

	if p.IsDHCP {
		return nil
	}

	if err := v.ValidateIPv4("IP address", p.IPAddress); err != nil {
		return err
	}
	if err := v.ValidateSubnetMask(p.SubnetMask); err != nil {
		return err
	}

	optional := []struct {
		field, value string
	}{
		{"gateway", p.Gateway},
		{"primary DNS", p.PrimaryDNS},
		{"secondary DNS", p.SecondaryDNS},
	}
	for _, o := range optional {
		if strings.TrimSpace(o.value) == "" {
			continue
		}
		if err := v.ValidateIPv4(o.field, o.value); err != nil {
			return err
		}
	}

	if p.Gateway != "" && !SameSubnet(p.IPAddress, p.Gateway, p.SubnetMask) {
		return fmt.Errorf("IP address %s and gateway %s are not in the same subnet", p.IPAddress, p.Gateway)
	}

	return nil
}

// ValidateHost validates a proxy host name or IP address
func (v *Validator) ValidateHost(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if len(host) > maxHostLength {
		return fmt.Errorf("host too long: maximum %d characters", maxHostLength)
	}

	if v.containsCommandInjection(host) {
		return fmt.Errorf("host contains invalid characters")
	}

	if _, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		return nil
	}

	if !v.hostnamePattern.MatchString(host) {
		return fmt.Errorf("invalid host '%s'", host)
	}

	return nil
}

// ValidatePort validates a TCP port number
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}

// ValidateProxyProfile checks a proxy profile before it is saved. Server
// settings are only required when the proxy is enabled.
func (v *Validator) ValidateProxyProfile(p types.ProxyProfile) error {
	if err := v.ValidateProfileName(p.Name); err != nil {
		return err
	}

	if err := v.ValidateDescription(p.Description); err != nil {
		return err
	}

	if p.ProxyType != "" {
		if _, err := types.ParseProxyType(string(p.ProxyType)); err != nil {
			return err
		}
	}

	if p.UseProxy {
		if err := v.ValidateHost(p.ProxyServer); err != nil {
			return fmt.Errorf("proxy server: %w", err)
		}
		if err := v.ValidatePort(p.ProxyPort); err != nil {
			return fmt.Errorf("proxy port: %w", err)
		}
	}

	if p.ProxyRequiresAuth {
		if strings.TrimSpace(p.ProxyUsername) == "" {
			return fmt.Errorf("proxy username is required when authentication is enabled")
		}
		if err := v.ValidateUsername(p.ProxyUsername); err != nil {
			return err
		}
	}

	return v.ValidateBypassList(p.ProxyBypassList)
}

// ValidateBypassList checks each entry of a semicolon separated bypass list
func (v *Validator) ValidateBypassList(list string) error {
	for _, entry := range strings.FieldsFunc(list, func(r rune) bool { return r == ';' || r == ',' }) {
		entry = strings.TrimSpace(entry)
		if entry == "" || entry == "<local>" {
			continue
		}
		if strings.ContainsFunc(entry, unicode.IsSpace) {
			return fmt.Errorf("bypass entry '%s' cannot contain spaces", entry)
		}
		if v.containsCommandInjection(entry) {
			return fmt.Errorf("bypass entry '%s' contains invalid characters", entry)
		}
	}
	return nil
}

// ValidateUsername validates a proxy username
func (v *Validator) ValidateUsername(username string) error {
	if username == "" {
		return nil
	}

	if len(username) > 255 {
		return fmt.Errorf("username cannot exceed 255 characters")
	}

	if v.containsCommandInjection(username) {
		return fmt.Errorf("username contains invalid characters")
	}

	// ':' and '@' would corrupt the proxy URL userinfo
	if strings.ContainsAny(username, ":@/") {
		return fmt.Errorf("username contains invalid characters")
	}

	return nil
}

// ValidateDescription validates a free-form description
func (v *Validator) ValidateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return fmt.Errorf("description cannot exceed %d characters", maxDescriptionLength)
	}

	if v.containsDangerousUnicode(description) {
		return fmt.Errorf("description contains invalid Unicode characters")
	}

	return nil
}

// ValidateFilePath validates an import or export file path
func (v *Validator) ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	if v.containsPathTraversal(path) {
		return fmt.Errorf("file path contains invalid characters or patterns")
	}

	if v.containsFilePathCommandInjection(path) {
		return fmt.Errorf("file path contains invalid characters")
	}

	if strings.HasPrefix(filepath.Clean(path), "..") {
		return fmt.Errorf("file path cannot traverse to parent directories")
	}

	return nil
}

// SanitizeString removes control characters other than tab and newline
func (v *Validator) SanitizeString(input string) string {
	var sanitized strings.Builder
	for _, r := range input {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}

// TruncateString safely truncates a string to a maximum length
func (v *Validator) TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// containsCommandInjection checks if input contains command injection patterns
func (v *Validator) containsCommandInjection(input string) bool {
	for _, pattern := range v.commandInjectionPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

// containsDangerousUnicode checks for bidi overrides and other format characters
func (v *Validator) containsDangerousUnicode(input string) bool {
	for _, r := range input {
		if unicode.Is(unicode.Cf, r) {
			return true
		}
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return true
		}
	}
	return false
}

// containsFilePathCommandInjection is more permissive than
// containsCommandInjection since paths need slashes and parentheses
func (v *Validator) containsFilePathCommandInjection(path string) bool {
	dangerousPatterns := []string{
		";", "|", "&", "$", "`", "<", ">", "\n", "\r", "\x00", "%00",
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// containsPathTraversal checks if input contains path traversal patterns
func (v *Validator) containsPathTraversal(input string) bool {
	for _, pattern := range v.pathTraversalPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

func parseIPv4(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}
