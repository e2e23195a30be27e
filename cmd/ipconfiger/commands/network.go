package commands

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ipconfiger/ipconfiger/internal/audit"
	"github.com/ipconfiger/ipconfiger/internal/netcfg"
	"github.com/ipconfiger/ipconfiger/internal/storage"
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

var (
	networkListAdapter  string
	networkApplyAdapter string
	networkCaptureName  string
	networkCaptureSave  bool

	networkForm networkFlags
)

// networkFlags are shared by add and update
type networkFlags struct {
	adapter     string
	dhcp        bool
	ip          string
	mask        string
	gateway     string
	dns1        string
	dns2        string
	description string
}

// newApplier is replaced in tests
var newApplier = func() (netcfg.Applier, error) {
	return netcfg.NewApplier(runtime.GOOS, netcfg.ExecRunner{})
}

// networkCmd represents the network command
var networkCmd = &cobra.Command{
	Use:     "network",
	Aliases: []string{"net"},
	Short:   "Manage network adapter profiles",
	Long: `Create, list, and apply saved IPv4 settings for network adapters.

A profile is either DHCP or static. Static profiles hold an address, subnet
mask, and optional gateway and DNS servers.`,
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List network profiles",
	Args:  cobra.NoArgs,
	RunE:  runNetworkList,
}

var networkShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a network profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkShow,
}

var networkAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Save a new network profile",
	Long: `Save a new network profile.

Examples:
  ipconfiger network add Office --adapter Ethernet --ip 192.168.1.50 --mask 255.255.255.0 --gateway 192.168.1.1 --dns1 8.8.8.8
  ipconfiger network add Home --adapter Wi-Fi --dhcp`,
	Args: cobra.ExactArgs(1),
	RunE: runNetworkAdd,
}

var networkUpdateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Change a saved network profile",
	Long:  `Change a saved network profile. Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkUpdate,
}

var networkDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a network profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkDelete,
}

var networkApplyCmd = &cobra.Command{
	Use:   "apply [name]",
	Short: "Apply a network profile to its adapter",
	Long: `Apply a saved network profile to a network adapter.

This changes the live configuration of the adapter and usually requires
administrator privileges. The adapter stored in the profile is used unless
--adapter is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runNetworkApply,
}

var networkCaptureCmd = &cobra.Command{
	Use:   "capture [adapter]",
	Short: "Show or save the current settings of an adapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkCapture,
}

func init() {
	rootCmd.AddCommand(networkCmd)
	networkCmd.AddCommand(networkListCmd)
	networkCmd.AddCommand(networkShowCmd)
	networkCmd.AddCommand(networkAddCmd)
	networkCmd.AddCommand(networkUpdateCmd)
	networkCmd.AddCommand(networkDeleteCmd)
	networkCmd.AddCommand(networkApplyCmd)
	networkCmd.AddCommand(networkCaptureCmd)

	networkListCmd.Flags().StringVar(&networkListAdapter, "adapter", "", "only show profiles for this adapter")

	for _, c := range []*cobra.Command{networkAddCmd, networkUpdateCmd} {
		c.Flags().StringVar(&networkForm.adapter, "adapter", "", "adapter the profile applies to")
		c.Flags().BoolVar(&networkForm.dhcp, "dhcp", false, "obtain address and DNS automatically")
		c.Flags().StringVar(&networkForm.ip, "ip", "", "static IPv4 address")
		c.Flags().StringVar(&networkForm.mask, "mask", "255.255.255.0", "subnet mask")
		c.Flags().StringVar(&networkForm.gateway, "gateway", "", "default gateway")
		c.Flags().StringVar(&networkForm.dns1, "dns1", "", "primary DNS server")
		c.Flags().StringVar(&networkForm.dns2, "dns2", "", "secondary DNS server")
		c.Flags().StringVar(&networkForm.description, "description", "", "free-form description")
	}

	networkApplyCmd.Flags().StringVar(&networkApplyAdapter, "adapter", "", "apply to this adapter instead of the stored one")

	networkCaptureCmd.Flags().StringVar(&networkCaptureName, "name", "", "save the settings as a profile with this name")
	networkCaptureCmd.Flags().BoolVar(&networkCaptureSave, "save", false, "save the settings as a profile")
}

func runNetworkList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	profiles := a.networks.List()
	if networkListAdapter != "" {
		profiles = a.networks.Find(func(p types.NetworkProfile) bool {
			return strings.EqualFold(p.AdapterName, networkListAdapter)
		})
	}

	if len(profiles) == 0 {
		a.printer.Println("No network profiles saved.")
		a.printer.Println("\nTo save one, run:")
		a.printer.Println("  ipconfiger network add <name> --adapter <adapter> --dhcp")
		return nil
	}

	w := tabwriter.NewWriter(a.printer.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADAPTER\tMODE\tADDRESS\tGATEWAY\tCREATED")
	fmt.Fprintln(w, "----\t-------\t----\t-------\t-------\t-------")
	for _, p := range profiles {
		address := "-"
		if !p.IsDHCP {
			address = p.IPAddress + "/" + p.SubnetMask
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name, orDash(p.AdapterName), p.Mode(), address, orDash(p.Gateway), p.CreatedTime.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runNetworkShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.networks.Get(args[0])
	if !ok {
		return fmt.Errorf("network profile '%s' not found", args[0])
	}
	printNetworkProfile(a, p)
	return nil
}

func printNetworkProfile(a *app, p types.NetworkProfile) {
	a.printer.Header("Network profile: %s", p.Name)
	a.printer.Field("Adapter", p.AdapterName)
	a.printer.Field("Mode", p.Mode())
	if !p.IsDHCP {
		a.printer.Field("IP address", p.IPAddress)
		a.printer.Field("Subnet mask", p.SubnetMask)
		a.printer.Field("Gateway", p.Gateway)
		a.printer.Field("Primary DNS", p.PrimaryDNS)
		a.printer.Field("Secondary DNS", p.SecondaryDNS)
	}
	printMetadata(a.printer, types.MetadataOf(types.KindNetwork, p))
}

// apply copies the flags the user set onto p. Switching to DHCP clears the
// static fields.
func (f networkFlags) apply(cmd *cobra.Command, p *types.NetworkProfile) {
	flags := cmd.Flags()
	if flags.Changed("adapter") {
		p.AdapterName = strings.TrimSpace(f.adapter)
	}
	if flags.Changed("description") {
		p.Description = f.description
	}
	if flags.Changed("dhcp") {
		p.IsDHCP = f.dhcp
	}
	for _, field := range []struct {
		flag  string
		value string
		dst   *string
	}{
		{"ip", f.ip, &p.IPAddress},
		{"mask", f.mask, &p.SubnetMask},
		{"gateway", f.gateway, &p.Gateway},
		{"dns1", f.dns1, &p.PrimaryDNS},
		{"dns2", f.dns2, &p.SecondaryDNS},
	} {
		if flags.Changed(field.flag) {
			*field.dst = strings.TrimSpace(field.value)
			if !flags.Changed("dhcp") {
				p.IsDHCP = false
			}
		}
	}
	if p.IsDHCP {
		p.IPAddress, p.SubnetMask, p.Gateway = "", "", ""
		p.PrimaryDNS, p.SecondaryDNS = "", ""
	} else if p.SubnetMask == "" {
		p.SubnetMask = f.mask
	}
}

func runNetworkAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p := types.NetworkProfile{
		Name:        strings.TrimSpace(args[0]),
		AdapterName: a.cfg.Network.DefaultAdapter,
	}
	networkForm.apply(cmd, &p)
	p.Description = a.validator.SanitizeString(p.Description)

	if err := a.validator.ValidateNetworkProfile(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	err = a.networks.Add(p)
	a.audit.LogProfileOperation(audit.EventProfileCreate, types.KindNetwork, p.Name, err, map[string]any{
		"adapter": p.AdapterName,
		"mode":    p.Mode(),
	})
	if err != nil {
		return err
	}

	a.printer.Success("Network profile '%s' saved", p.Name)
	return nil
}

func runNetworkUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.networks.Get(args[0])
	if !ok {
		return fmt.Errorf("network profile '%s' not found", args[0])
	}
	networkForm.apply(cmd, &p)
	p.Description = a.validator.SanitizeString(p.Description)

	if err := a.validator.ValidateNetworkProfile(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	err = a.networks.Update(p)
	a.audit.LogProfileOperation(audit.EventProfileUpdate, types.KindNetwork, p.Name, err, map[string]any{
		"adapter": p.AdapterName,
		"mode":    p.Mode(),
	})
	if err != nil {
		return err
	}

	a.printer.Success("Network profile '%s' updated", p.Name)
	return nil
}

func runNetworkDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	if !a.networks.Exists(name) {
		return fmt.Errorf("network profile '%s' not found", name)
	}

	if result := a.confirmer.ConfirmDelete(cmd.Context(), types.KindNetwork, name); !result.Approved {
		if result.Error != nil {
			return result.Error
		}
		a.printer.Warning("Deletion cancelled")
		return nil
	}

	err = a.networks.Delete(name)
	a.audit.LogProfileOperation(audit.EventProfileDelete, types.KindNetwork, name, err, nil)
	if err != nil {
		return err
	}

	a.printer.Success("Network profile '%s' deleted", name)
	return nil
}

func runNetworkApply(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.networks.Get(args[0])
	if !ok {
		return fmt.Errorf("network profile '%s' not found", args[0])
	}

	adapter := networkApplyAdapter
	if adapter == "" {
		adapter = p.AdapterName
	}
	if adapter == "" {
		adapter = a.cfg.Network.DefaultAdapter
	}
	if adapter == "" {
		return fmt.Errorf("profile '%s' has no adapter; pass --adapter", p.Name)
	}
	if err := a.validator.ValidateAdapterName(adapter); err != nil {
		return err
	}

	ctx := cmd.Context()
	if result := a.confirmer.ConfirmApply(ctx, p, adapter); !result.Approved {
		if result.Error != nil {
			return result.Error
		}
		a.printer.Warning("Apply cancelled")
		return nil
	}

	applier, err := newApplier()
	if err != nil {
		return err
	}

	a.logger.Debug("Applying network profile", zap.String("profile", p.Name), zap.String("adapter", adapter))
	adapter, err = netcfg.ApplyProfile(ctx, applier, p, adapter)
	a.audit.LogApply(p.Name, adapter, err, map[string]any{"mode": p.Mode()})
	if err != nil {
		var cmdErr *netcfg.CommandError
		if errors.As(err, &cmdErr) {
			a.printer.Error("%s", cmdErr.Output)
		}
		return fmt.Errorf("failed to apply '%s' to %s: %w", p.Name, adapter, err)
	}

	a.printer.Success("Applied '%s' to %s", p.Name, adapter)
	return nil
}

func runNetworkCapture(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := netcfg.CurrentProfile(args[0])
	if err != nil {
		return err
	}
	if networkCaptureName != "" {
		p.Name = networkCaptureName
	}

	if !networkCaptureSave && networkCaptureName == "" {
		printNetworkProfile(a, p)
		return nil
	}

	if err := a.validator.ValidateNetworkProfile(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	p.Description = "Captured from " + p.AdapterName

	err = a.networks.Add(p)
	a.audit.LogProfileOperation(audit.EventProfileCreate, types.KindNetwork, p.Name, err, map[string]any{
		"adapter":  p.AdapterName,
		"captured": true,
	})
	if errors.Is(err, storage.ErrValidation) {
		return fmt.Errorf("%w (choose another --name)", err)
	}
	if err != nil {
		return err
	}

	a.printer.Success("Saved current settings of %s as '%s'", p.AdapterName, p.Name)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
