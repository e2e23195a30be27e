package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ipconfiger/ipconfiger/internal/netcfg"
)

// listAdapters is replaced in tests
var listAdapters = netcfg.ListAdapters

// adaptersCmd represents the adapters command
var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List physical network adapters",
	Long: `List the physical network adapters on this machine with their current
IPv4 address. Virtual, VPN, tunnel, and capture adapters are hidden.`,
	Args: cobra.NoArgs,
	RunE: runAdapters,
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}

func runAdapters(cmd *cobra.Command, args []string) error {
	adapters, err := listAdapters()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(adapters) == 0 {
		fmt.Fprintln(out, "No physical network adapters found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADAPTER\tSTATUS\tMAC\tADDRESS")
	fmt.Fprintln(w, "-------\t------\t---\t-------")
	for _, adapter := range adapters {
		status := "down"
		if adapter.Up {
			status = "up"
		}
		address := "-"
		if adapter.CurrentIP != "" {
			address = adapter.CurrentIP + "/" + adapter.SubnetMask
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", adapter.Name, status, adapter.MAC, address)
	}
	return w.Flush()
}
