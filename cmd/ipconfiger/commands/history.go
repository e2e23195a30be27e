package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipconfiger/ipconfiger/internal/audit"
)

var (
	historyKind    string
	historyProfile string
	historySince   time.Duration
	historyLimit   int
	historyErrors  bool
)

// profileEvents are the audit events history shows
var profileEvents = []audit.EventType{
	audit.EventProfileCreate,
	audit.EventProfileUpdate,
	audit.EventProfileDelete,
	audit.EventProfileImport,
	audit.EventProfileExport,
	audit.EventProfileApply,
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent profile changes from the audit log",
	Long: `Show profile changes recorded in the audit log, newest last.

Examples:
  ipconfiger history --kind network --limit 10
  ipconfiger history --profile Office --since 24h
  ipconfiger history --errors`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only show network or proxy events")
	historyCmd.Flags().StringVar(&historyProfile, "profile", "", "only show events for this profile")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only show events newer than this, e.g. 24h")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "show at most this many events (0 for all)")
	historyCmd.Flags().BoolVar(&historyErrors, "errors", false, "only show failed operations")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	trail, ok := a.audit.(*audit.Logger)
	if !ok {
		return errors.New("audit log is disabled; set audit.enabled in the config file")
	}

	query := audit.Query{
		EventTypes: profileEvents,
		Profile:    historyProfile,
	}
	if historyKind != "" {
		if query.Kind, err = parseKindArg(historyKind); err != nil {
			return err
		}
	}
	if historySince > 0 {
		query.StartTime = time.Now().Add(-historySince)
	}
	if historyErrors {
		query.Severities = []audit.Severity{audit.SeverityError}
	}

	trail.Flush()
	found, err := trail.Search(query)
	if err != nil {
		return err
	}
	if historyLimit > 0 && len(found) > historyLimit {
		found = found[len(found)-historyLimit:]
	}

	if len(found) == 0 {
		a.printer.Println("No matching audit events.")
		return nil
	}

	w := tabwriter.NewWriter(a.printer.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tKIND\tPROFILE\tRESULT\tDETAIL")
	fmt.Fprintln(w, "----\t------\t----\t-------\t------\t------")
	for _, e := range found {
		detail := e.Error
		if detail == "" && e.Adapter != "" {
			detail = "adapter " + e.Adapter
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Action,
			orDash(string(e.Kind)),
			orDash(e.Profile),
			e.Result,
			orDash(a.validator.TruncateString(detail, 60)))
	}
	return w.Flush()
}
