package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ContainerSecretsPath is where Docker and Kubernetes mount secrets
	ContainerSecretsPath = "/run/secrets"
	// ProxyPasswordSecretName is the default secret holding a proxy password
	ProxyPasswordSecretName = "proxy_password" // #nosec G101 - not a credential, just a filename
)

// Overridden in tests.
var (
	secretsDir    = ContainerSecretsPath
	dockerEnvFile = "/.dockerenv"
	cgroupFile    = "/proc/1/cgroup"
)

// IsRunningInContainer checks if the application is running inside a container
func IsRunningInContainer() bool {
	if _, err := os.Stat(dockerEnvFile); err == nil {
		return true
	}

	if cgroup, err := os.ReadFile(cgroupFile); err == nil { // #nosec G304 - well-known proc path
		content := string(cgroup)
		if strings.Contains(content, "docker") || strings.Contains(content, "kubepods") || strings.Contains(content, "containerd") {
			return true
		}
	}

	if _, err := os.Stat(secretsDir); err == nil {
		return true
	}

	return false
}

// ApplyContainerDefaults disables interactive prompts and colors when
// running in a container, where there is no terminal to answer them.
// It reports whether anything was changed.
func ApplyContainerDefaults(cfg *Config) bool {
	if !IsRunningInContainer() {
		return false
	}
	cfg.UI.BatchMode = true
	if cfg.UI.Color == "" || strings.EqualFold(cfg.UI.Color, "auto") {
		cfg.UI.Color = "never"
	}
	return true
}

// LoadSecret reads a mounted secret by name, trimming surrounding whitespace
func LoadSecret(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("invalid secret name '%s'", name)
	}

	path := filepath.Join(secretsDir, name)
	data, err := os.ReadFile(path) // #nosec G304 - name is restricted to the secrets directory
	if err != nil {
		return "", fmt.Errorf("secret '%s' not found: %w", name, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("secret '%s' is empty", name)
	}
	return secret, nil
}
