package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ipconfiger/ipconfiger/internal/storage"
)

// ErrConfigNotFound is returned when the config file is not found by Load.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config represents the application configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Events  EventsConfig  `mapstructure:"events"`
	UI      UIConfig      `mapstructure:"ui"`
	Network NetworkConfig `mapstructure:"network"`
}

// StorageConfig selects where and how profile collections are persisted
type StorageConfig struct {
	Format      string `mapstructure:"format"`
	NetworkFile string `mapstructure:"network_file"`
	ProxyFile   string `mapstructure:"proxy_file"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// AuditConfig controls the audit trail
type AuditConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int64         `mapstructure:"max_size"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// EventsConfig controls change event publishing. An empty URL disables it.
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
}

// UIConfig represents interactive terminal settings
type UIConfig struct {
	BatchMode           bool          `mapstructure:"batch_mode"`
	AutoApprove         bool          `mapstructure:"auto_approve"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`
	Color               string        `mapstructure:"color"`
}

// NetworkConfig holds defaults for network commands
type NetworkConfig struct {
	DefaultAdapter string `mapstructure:"default_adapter"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Format: string(storage.FormatJSON),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Audit: AuditConfig{
			Enabled: true,
			MaxSize: 10 * 1024 * 1024,
			MaxAge:  30 * 24 * time.Hour,
		},
		UI: UIConfig{
			BatchMode:           false,
			AutoApprove:         false,
			ConfirmationTimeout: 30 * time.Second,
			Color:               "auto",
		},
	}
}

// Load loads configuration from file
func Load(configFile string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configDir := getConfigDir()
	resolvedConfigFile := configFile

	if configFile == "" || configFile == filepath.Join(configDir, "config.yaml") {
		v.AddConfigPath(configDir)
		if configFile == "" {
			resolvedConfigFile = filepath.Join(configDir, "config.yaml")
		}
	} else {
		v.SetConfigFile(configFile)
	}

	// Stat first: viper's own not-found error is unreliable with SetConfigFile.
	if _, err := os.Stat(resolvedConfigFile); os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}

	// Environment variable overrides, e.g. IPCONFIGER_STORAGE_FORMAT
	v.SetEnvPrefix("IPCONFIGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("ui.batch_mode", "IPCONFIGER_BATCH_MODE")
	_ = v.BindEnv("ui.auto_approve", "IPCONFIGER_AUTO_APPROVE")
	_ = v.BindEnv("logging.level", "IPCONFIGER_LOG_LEVEL")
	_ = v.BindEnv("events.nats_url", "IPCONFIGER_NATS_URL")

	if err := v.ReadInConfig(); err != nil {
		var vfnfError viper.ConfigFileNotFoundError
		if errors.As(err, &vfnfError) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file content: %w", err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Logging.File == "" {
		config.Logging.File = filepath.Join(configDir, "audit.log")
	}

	return config, nil
}

// Validate checks values that cannot be defaulted away
func (c *Config) Validate() error {
	if _, err := storage.ParseFormat(c.Storage.Format); err != nil {
		return fmt.Errorf("invalid storage.format: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level '%s'", c.Logging.Level)
	}
	switch strings.ToLower(c.UI.Color) {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid ui.color '%s'", c.UI.Color)
	}
	return nil
}

// StoragePaths returns the files holding network and proxy profiles.
// Explicit paths win; otherwise they live in the config directory with an
// extension matching the storage format.
func (c *Config) StoragePaths() (networkFile, proxyFile string, format storage.Format, err error) {
	format, err = storage.ParseFormat(c.Storage.Format)
	if err != nil {
		return "", "", "", err
	}

	configDir := getConfigDir()
	networkFile = c.Storage.NetworkFile
	if networkFile == "" {
		networkFile = filepath.Join(configDir, "configs."+format.Extension())
	}
	proxyFile = c.Storage.ProxyFile
	if proxyFile == "" {
		proxyFile = filepath.Join(configDir, "proxy_configs."+format.Extension())
	}
	return networkFile, proxyFile, format, nil
}

// Save saves configuration to file
func (c *Config) Save(configFile string) error {
	if configFile == "" {
		configFile = filepath.Join(getConfigDir(), "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	v.Set("storage.format", c.Storage.Format)
	v.Set("storage.network_file", c.Storage.NetworkFile)
	v.Set("storage.proxy_file", c.Storage.ProxyFile)
	v.Set("logging.level", c.Logging.Level)
	v.Set("logging.file", c.Logging.File)
	v.Set("audit.enabled", c.Audit.Enabled)
	v.Set("audit.max_size", c.Audit.MaxSize)
	v.Set("audit.max_age", c.Audit.MaxAge.String())
	v.Set("events.nats_url", c.Events.NATSURL)
	v.Set("ui.batch_mode", c.UI.BatchMode)
	v.Set("ui.auto_approve", c.UI.AutoApprove)
	v.Set("ui.confirmation_timeout", c.UI.ConfirmationTimeout.String())
	v.Set("ui.color", c.UI.Color)
	v.Set("network.default_adapter", c.Network.DefaultAdapter)

	return v.WriteConfig()
}

// getConfigDir returns the configuration directory
func getConfigDir() string {
	if configDir := os.Getenv("IPCONFIGER_CONFIG_DIR"); configDir != "" {
		return configDir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".ipconfiger")
	}

	return filepath.Join(base, "ipconfiger")
}

// GetConfigDir returns the configuration directory (exported)
func GetConfigDir() string {
	return getConfigDir()
}

// EnsureConfigDir ensures the configuration directory exists
func EnsureConfigDir() error {
	return os.MkdirAll(getConfigDir(), 0700)
}

// LoadOrCreate loads existing config or creates a new one
func LoadOrCreate(configFile string) (*Config, error) {
	cfg, err := Load(configFile)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}

	finalConfigFile := configFile
	if finalConfigFile == "" {
		finalConfigFile = filepath.Join(getConfigDir(), "config.yaml")
	}

	if errSave := DefaultConfig().Save(finalConfigFile); errSave != nil {
		return nil, fmt.Errorf("failed to save default config to %s: %w", finalConfigFile, errSave)
	}

	// Read the new file back so environment overrides apply on the first run too.
	return Load(finalConfigFile)
}
