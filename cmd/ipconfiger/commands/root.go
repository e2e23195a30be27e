package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version     = "dev"
	configFile  string
	verbose     bool
	batchMode   bool
	autoApprove bool
	colorMode   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ipconfiger",
	Short: "Network and proxy profile manager",
	Long: `Save named IPv4 adapter settings and proxy server settings, switch
between them, and move them between machines.

Profiles are kept in the configuration directory, one file per kind, in
JSON, YAML, or TOML (see 'ipconfiger config show').`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is <config dir>/ipconfiger/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&batchMode, "batch", false, "never prompt; use default answers")
	rootCmd.PersistentFlags().BoolVarP(&autoApprove, "yes", "y", false, "approve every confirmation")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "color output: auto, always, never")
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// verboseLog prints a message only if verbose mode is enabled
func verboseLog(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}
