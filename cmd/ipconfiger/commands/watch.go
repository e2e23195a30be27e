package commands

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipconfiger/ipconfiger/internal/events"
)

var watchKind string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print profile changes as they happen",
	Long: `Subscribe to profile change events and print them until interrupted.

Requires events.nats_url (or IPCONFIGER_NATS_URL) to point at a NATS server
that every ipconfiger instance publishes to.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchKind, "kind", "", "only show changes to network or proxy profiles")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Events.NATSURL == "" {
		return fmt.Errorf("events are disabled; set events.nats_url in the config")
	}

	topic := events.AllTopics
	if watchKind != "" {
		kind, err := parseKindArg(watchKind)
		if err != nil {
			return err
		}
		topic = events.TopicPrefix + "." + string(kind) + ".*"
	}

	sub, err := events.NewNATSSubscriber(cfg.Events.NATSURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return err
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := newPrinter(cmd, cfg.UI.Color)
	p.Info("Watching %s (Ctrl+C to stop)", topic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			p.Printf("%s  %-7s %-8s %s\n",
				evt.Timestamp.Local().Format(time.TimeOnly), evt.Kind, evt.Action, strings.Join(evt.Names, ", "))
		}
	}
}
