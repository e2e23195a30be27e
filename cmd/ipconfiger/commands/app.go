package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ipconfiger/ipconfiger/internal/audit"
	"github.com/ipconfiger/ipconfiger/internal/config"
	"github.com/ipconfiger/ipconfiger/internal/events"
	"github.com/ipconfiger/ipconfiger/internal/storage"
	"github.com/ipconfiger/ipconfiger/internal/ui"
	"github.com/ipconfiger/ipconfiger/internal/validation"
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// app holds everything a command needs. It is built per invocation and
// closed when the command returns.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	networks  *storage.ConfigStore[types.NetworkProfile]
	proxies   *storage.ConfigStore[types.ProxyProfile]
	audit     audit.Recorder
	publisher events.Publisher
	printer   *ui.Printer
	confirmer *ui.Confirmer
	validator *validation.Validator
}

// loadConfig reads the config file, creating a default one on first run,
// then layers container defaults and command line flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrCreate(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.ApplyContainerDefaults(cfg) {
		verboseLog("Container detected, running in batch mode")
	}

	flags := cmd.Flags()
	if flags.Changed("batch") {
		cfg.UI.BatchMode = batchMode
	}
	if flags.Changed("yes") {
		cfg.UI.AutoApprove = autoApprove
	}
	if flags.Changed("color") {
		cfg.UI.Color = colorMode
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	atomic, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = atomic
	logConfig.DisableStacktrace = true
	return logConfig.Build()
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		audit:     audit.NopRecorder{},
		publisher: &events.NoopPublisher{},
		validator: validation.NewValidator(),
	}

	if cfg.Events.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(cfg.Events.NATSURL)
		if err != nil {
			logger.Warn("Change events disabled", zap.String("url", cfg.Events.NATSURL), zap.Error(err))
		} else {
			a.publisher = publisher
		}
	}

	networkFile, proxyFile, format, err := cfg.StoragePaths()
	if err != nil {
		a.Close()
		return nil, err
	}
	opts := []storage.Option{
		storage.WithLogger(logger),
		storage.WithPublisher(a.publisher),
	}
	if a.networks, err = storage.OpenNetworkStore(networkFile, format, opts...); err != nil {
		a.Close()
		return nil, err
	}
	if a.proxies, err = storage.OpenProxyStore(proxyFile, format, opts...); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("Opened profile stores",
		zap.String("network", networkFile),
		zap.String("proxy", proxyFile),
		zap.String("format", string(format)))

	if cfg.Audit.Enabled {
		recorder, err := audit.NewLogger(audit.Config{
			FilePath: cfg.Logging.File,
			MaxSize:  cfg.Audit.MaxSize,
			MaxAge:   cfg.Audit.MaxAge,
		})
		if err != nil {
			logger.Warn("Audit log disabled", zap.String("path", cfg.Logging.File), zap.Error(err))
		} else {
			a.audit = recorder
		}
	}

	a.printer = newPrinter(cmd, cfg.UI.Color)
	a.confirmer = ui.NewConfirmerWithIO(types.Confirmation{
		BatchMode:   cfg.UI.BatchMode,
		AutoApprove: cfg.UI.AutoApprove,
		Timeout:     cfg.UI.ConfirmationTimeout,
	}, cmd.InOrStdin(), cmd.OutOrStdout())

	return a, nil
}

// newPrinter colors output only when it goes to a terminal that wants it
func newPrinter(cmd *cobra.Command, colorMode string) *ui.Printer {
	out := cmd.OutOrStdout()
	outFile, _ := out.(*os.File)
	return ui.NewPrinter(out, ui.ShouldUseColor(colorMode, outFile))
}

// printMetadata prints the fields every profile kind shares
func printMetadata(p *ui.Printer, meta types.ProfileMetadata) {
	p.Field("Description", meta.Description)
	if !meta.CreatedTime.IsZero() {
		p.Field("Created", meta.CreatedTime.Local().Format(time.RFC3339))
	}
}

// Close flushes the audit trail and releases connections
func (a *app) Close() {
	if err := a.audit.Close(); err != nil {
		a.logger.Warn("Failed to close audit log", zap.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("Failed to close event publisher", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// storeFor returns a kind-erased view of the store for a profile kind, for
// commands that treat both kinds alike.
func (a *app) storeFor(kind types.Kind) transferStore {
	if kind == types.KindProxy {
		return a.proxies
	}
	return a.networks
}

// transferStore is the part of a store used by export and import
type transferStore interface {
	Kind() types.Kind
	Location() string
	Format() storage.Format
	Len() int
	Names() []string
	Exists(name string) bool
	Export() ([]byte, error)
	Preview(data []byte) ([]string, error)
	Import(data []byte) (storage.ImportResult, error)
}

func parseKindArg(arg string) (types.Kind, error) {
	kind, ok := types.ParseKind(arg)
	if !ok {
		return "", fmt.Errorf("unknown profile kind '%s' (expected network or proxy)", arg)
	}
	return kind, nil
}
