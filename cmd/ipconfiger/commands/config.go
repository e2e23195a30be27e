package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ipconfiger/ipconfiger/internal/config"
	"github.com/ipconfiger/ipconfiger/internal/storage"
)

var (
	configInitFormat string
	configInitForce  bool
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ipconfiger settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringVar(&configInitFormat, "format", string(storage.FormatJSON), "profile storage format: json, yaml, toml")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(config.GetConfigDir(), "config.yaml")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	format, err := storage.ParseFormat(configInitFormat)
	if err != nil {
		return err
	}

	path := configPath()
	if !configInitForce {
		_, err := config.Load(path)
		if err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
		if !errors.Is(err, config.ErrConfigNotFound) {
			return err
		}
	}

	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.Storage.Format = string(format)
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Config written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	networkFile, proxyFile, format, err := cfg.StoragePaths()
	if err != nil {
		return err
	}

	p := newPrinter(cmd, cfg.UI.Color)
	p.Header("Configuration")
	p.Field("Config file", configPath())
	p.Field("Config dir", config.GetConfigDir())
	p.Field("Format", string(format))
	p.Field("Network file", networkFile)
	p.Field("Proxy file", proxyFile)
	p.Field("Log level", cfg.Logging.Level)
	p.Field("Audit log", cfg.Logging.File)
	p.Field("Audit", strconv.FormatBool(cfg.Audit.Enabled))
	p.Field("Events", cfg.Events.NATSURL)
	p.Field("Batch mode", strconv.FormatBool(cfg.UI.BatchMode))
	p.Field("Auto approve", strconv.FormatBool(cfg.UI.AutoApprove))
	p.Field("Prompt timeout", cfg.UI.ConfirmationTimeout.String())
	p.Field("Color", cfg.UI.Color)
	p.Field("Default adapter", cfg.Network.DefaultAdapter)
	if config.IsRunningInContainer() {
		p.Info("Running in a container")
	}
	return nil
}
