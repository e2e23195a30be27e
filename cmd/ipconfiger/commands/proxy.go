package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ipconfiger/ipconfiger/internal/audit"
	"github.com/ipconfiger/ipconfiger/internal/config"
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

var (
	proxyForm     proxyFlags
	proxyEnvShell string
)

// proxyFlags are shared by add and update
type proxyFlags struct {
	enabled        bool
	proxyType      string
	server         string
	port           int
	username       string
	password       string
	passwordSecret string
	bypass         string
	bypassLocal    bool
	description    string
}

// proxyCmd represents the proxy command
var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manage proxy profiles",
	Long: `Create and list saved proxy server settings.

Use 'ipconfiger proxy env <name>' to print shell commands that point
command line tools at a saved proxy.`,
}

var proxyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List proxy profiles",
	Args:  cobra.NoArgs,
	RunE:  runProxyList,
}

var proxyShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a proxy profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProxyShow,
}

var proxyAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Save a new proxy profile",
	Long: `Save a new proxy profile.

Examples:
  ipconfiger proxy add Corp --server proxy.corp.example --port 3128 --bypass "*.corp.example;10.*"
  ipconfiger proxy add Tor --type socks5 --server 127.0.0.1 --port 9050
  ipconfiger proxy add Direct --enabled=false

In a container, --password-secret reads the password from /run/secrets.`,
	Args: cobra.ExactArgs(1),
	RunE: runProxyAdd,
}

var proxyUpdateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Change a saved proxy profile",
	Long:  `Change a saved proxy profile. Only the flags given are changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runProxyUpdate,
}

var proxyDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a proxy profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProxyDelete,
}

var proxyEnvCmd = &cobra.Command{
	Use:   "env [name]",
	Short: "Print shell commands that set proxy environment variables",
	Long: `Print shell commands that set http_proxy, https_proxy, all_proxy, and
no_proxy for a saved proxy profile.

Example:
  eval "$(ipconfiger proxy env Corp)"`,
	Args: cobra.ExactArgs(1),
	RunE: runProxyEnv,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
	proxyCmd.AddCommand(proxyListCmd)
	proxyCmd.AddCommand(proxyShowCmd)
	proxyCmd.AddCommand(proxyAddCmd)
	proxyCmd.AddCommand(proxyUpdateCmd)
	proxyCmd.AddCommand(proxyDeleteCmd)
	proxyCmd.AddCommand(proxyEnvCmd)

	for _, c := range []*cobra.Command{proxyAddCmd, proxyUpdateCmd} {
		c.Flags().BoolVar(&proxyForm.enabled, "enabled", true, "use the proxy when this profile is active")
		c.Flags().StringVar(&proxyForm.proxyType, "type", string(types.ProxyHTTP), "proxy protocol: http, https, socks4, socks5")
		c.Flags().StringVar(&proxyForm.server, "server", "", "proxy host name or address")
		c.Flags().IntVar(&proxyForm.port, "port", types.DefaultProxyPort, "proxy port")
		c.Flags().StringVar(&proxyForm.username, "username", "", "proxy user name; enables authentication")
		c.Flags().StringVar(&proxyForm.password, "password", "", "proxy password")
		c.Flags().StringVar(&proxyForm.passwordSecret, "password-secret", "", "read the proxy password from this container secret")
		c.Flags().StringVar(&proxyForm.bypass, "bypass", "", "semicolon separated hosts that skip the proxy")
		c.Flags().BoolVar(&proxyForm.bypassLocal, "bypass-local", true, "skip the proxy for local addresses")
		c.Flags().StringVar(&proxyForm.description, "description", "", "free-form description")
		c.MarkFlagsMutuallyExclusive("password", "password-secret")
	}

	proxyEnvCmd.Flags().StringVar(&proxyEnvShell, "shell", "sh", "output syntax: sh or powershell")
}

func runProxyList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	profiles := a.proxies.List()
	if len(profiles) == 0 {
		a.printer.Println("No proxy profiles saved.")
		a.printer.Println("\nTo save one, run:")
		a.printer.Println("  ipconfiger proxy add <name> --server <host> --port <port>")
		return nil
	}

	w := tabwriter.NewWriter(a.printer.Writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENABLED\tTYPE\tSERVER\tAUTH\tCREATED")
	fmt.Fprintln(w, "----\t-------\t----\t------\t----\t-------")
	for _, p := range profiles {
		server := "-"
		if p.ProxyServer != "" {
			server = p.ProxyServer + ":" + strconv.Itoa(p.ProxyPort)
		}
		enabled := ""
		if p.UseProxy {
			enabled = "✓"
		}
		auth := ""
		if p.ProxyRequiresAuth {
			auth = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name, enabled, p.ProxyType, server, auth, p.CreatedTime.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runProxyShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.proxies.Get(args[0])
	if !ok {
		return fmt.Errorf("proxy profile '%s' not found", args[0])
	}

	a.printer.Header("Proxy profile: %s", p.Name)
	a.printer.Field("Enabled", strconv.FormatBool(p.UseProxy))
	a.printer.Field("Type", string(p.ProxyType))
	a.printer.Field("Server", p.ProxyServer)
	a.printer.Field("Port", strconv.Itoa(p.ProxyPort))
	if p.ProxyRequiresAuth {
		a.printer.Field("Username", p.ProxyUsername)
		a.printer.Field("Password", maskSensitive(p.ProxyPassword))
	}
	a.printer.Field("Bypass", strings.Join(p.BypassEntries(), "; "))
	printMetadata(a.printer, types.MetadataOf(types.KindProxy, p))
	return nil
}

// apply copies the flags the user set onto p
func (f proxyFlags) apply(cmd *cobra.Command, p *types.ProxyProfile) error {
	flags := cmd.Flags()
	if flags.Changed("enabled") {
		p.UseProxy = f.enabled
	}
	if flags.Changed("type") {
		t, err := types.ParseProxyType(f.proxyType)
		if err != nil {
			return err
		}
		p.ProxyType = t
	}
	if flags.Changed("server") {
		p.ProxyServer = strings.TrimSpace(f.server)
	}
	if flags.Changed("port") {
		p.ProxyPort = f.port
	}
	if flags.Changed("username") {
		p.ProxyUsername = strings.TrimSpace(f.username)
		p.ProxyRequiresAuth = p.ProxyUsername != ""
		if !p.ProxyRequiresAuth {
			p.ProxyPassword = ""
		}
	}
	if flags.Changed("password") {
		p.ProxyPassword = f.password
	}
	if flags.Changed("password-secret") {
		secret, err := config.LoadSecret(f.passwordSecret)
		if err != nil {
			return err
		}
		p.ProxyPassword = secret
	}
	if flags.Changed("bypass") {
		p.ProxyBypassList = strings.TrimSpace(f.bypass)
	}
	if flags.Changed("bypass-local") {
		p.ProxyBypassLocal = f.bypassLocal
	}
	if flags.Changed("description") {
		p.Description = f.description
	}
	return nil
}

func runProxyAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p := types.NewProxyProfile(strings.TrimSpace(args[0]))
	p.UseProxy = true
	if err := proxyForm.apply(cmd, &p); err != nil {
		return err
	}
	p.Description = a.validator.SanitizeString(p.Description)

	if err := a.validator.ValidateProxyProfile(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	err = a.proxies.Add(p)
	a.audit.LogProfileOperation(audit.EventProfileCreate, types.KindProxy, p.Name, err, map[string]any{
		"server":  p.ProxyServer,
		"enabled": p.UseProxy,
	})
	if err != nil {
		return err
	}

	a.printer.Success("Proxy profile '%s' saved", p.Name)
	return nil
}

func runProxyUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.proxies.Get(args[0])
	if !ok {
		return fmt.Errorf("proxy profile '%s' not found", args[0])
	}
	if err := proxyForm.apply(cmd, &p); err != nil {
		return err
	}
	p.Description = a.validator.SanitizeString(p.Description)

	if err := a.validator.ValidateProxyProfile(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	err = a.proxies.Update(p)
	a.audit.LogProfileOperation(audit.EventProfileUpdate, types.KindProxy, p.Name, err, map[string]any{
		"server":  p.ProxyServer,
		"enabled": p.UseProxy,
	})
	if err != nil {
		return err
	}

	a.printer.Success("Proxy profile '%s' updated", p.Name)
	return nil
}

func runProxyDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	if !a.proxies.Exists(name) {
		return fmt.Errorf("proxy profile '%s' not found", name)
	}

	if result := a.confirmer.ConfirmDelete(cmd.Context(), types.KindProxy, name); !result.Approved {
		if result.Error != nil {
			return result.Error
		}
		a.printer.Warning("Deletion cancelled")
		return nil
	}

	err = a.proxies.Delete(name)
	a.audit.LogProfileOperation(audit.EventProfileDelete, types.KindProxy, name, err, nil)
	if err != nil {
		return err
	}

	a.printer.Success("Proxy profile '%s' deleted", name)
	return nil
}

func runProxyEnv(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, ok := a.proxies.Get(args[0])
	if !ok {
		return fmt.Errorf("proxy profile '%s' not found", args[0])
	}
	return writeProxyEnv(cmd.OutOrStdout(), p, proxyEnvShell)
}

var proxyEnvVars = []string{"http_proxy", "https_proxy", "all_proxy", "no_proxy"}

// writeProxyEnv prints the commands that select p in a shell. A disabled
// profile clears the variables.
func writeProxyEnv(w io.Writer, p types.ProxyProfile, shell string) error {
	var set func(name, value string) string
	var unset func(name string) string

	switch strings.ToLower(shell) {
	case "sh", "bash", "zsh", "":
		set = func(name, value string) string { return fmt.Sprintf("export %s=%s", name, shellQuote(value)) }
		unset = func(name string) string { return "unset " + name }
	case "powershell", "pwsh":
		set = func(name, value string) string {
			return fmt.Sprintf("$env:%s = '%s'", name, strings.ReplaceAll(value, "'", "''"))
		}
		unset = func(name string) string { return fmt.Sprintf("Remove-Item Env:%s -ErrorAction SilentlyContinue", name) }
	default:
		return fmt.Errorf("unsupported shell '%s' (expected sh or powershell)", shell)
	}

	if !p.UseProxy {
		for _, name := range proxyEnvVars {
			fmt.Fprintln(w, unset(name))
		}
		return nil
	}

	proxyURL := p.URL().String()
	fmt.Fprintln(w, set("http_proxy", proxyURL))
	fmt.Fprintln(w, set("https_proxy", proxyURL))
	fmt.Fprintln(w, set("all_proxy", proxyURL))
	if noProxy := p.NoProxy(); noProxy != "" {
		fmt.Fprintln(w, set("no_proxy", noProxy))
	} else {
		fmt.Fprintln(w, unset("no_proxy"))
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func maskSensitive(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "********"
	}
	return value[:2] + "..." + value[len(value)-2:]
}
