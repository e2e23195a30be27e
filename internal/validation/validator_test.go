package validation

import (
	"strings"
	"testing"

	"github.com/ipconfiger/ipconfiger/pkg/types"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}

	if v.profileNamePattern == nil {
		t.Error("Profile name pattern not initialized")
	}
	if v.hostnamePattern == nil {
		t.Error("Hostname pattern not initialized")
	}
	if len(v.commandInjectionPatterns) == 0 {
		t.Error("Command injection patterns not initialized")
	}
	if len(v.pathTraversalPatterns) == 0 {
		t.Error("Path traversal patterns not initialized")
	}
}

func TestValidateProfileName(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name        string
		profileName string
		wantErr     bool
	}{
		{"simple", "Office", false},
		{"with space", "Home Wi-Fi", false},
		{"with dots and underscores", "lab_2.floor-3", false},
		{"non-latin", "办公室", false},
		{"surrounding whitespace", "  Home  ", false},
		{"max length", strings.Repeat("a", 64), false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 65), true},
		{"leading hyphen", "-office", true},
		{"semicolon", "office;rm", true},
		{"slash", "a/b", true},
		{"quote", `say "hi"`, true},
		{"rtl override", "office\u202Etxt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateProfileName(tt.profileName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProfileName(%q) error = %v, wantErr %v", tt.profileName, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAdapterName(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		adapter string
		wantErr bool
	}{
		{"Ethernet", false},
		{"Wi-Fi 2", false},
		{"eth0", false},
		{"Intel(R) Ethernet Connection", false},
		{"", true},
		{"eth0; reboot", true},
		{`Ethernet" static 1.2.3.4`, true},
		{"eth0\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.adapter, func(t *testing.T) {
			err := v.ValidateAdapterName(tt.adapter)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdapterName(%q) error = %v, wantErr %v", tt.adapter, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIPv4(t *testing.T) {
	v := NewValidator()

	valid := []string{"192.168.1.1", "10.0.0.0", "255.255.255.255", " 8.8.8.8 "}
	for _, addr := range valid {
		if err := v.ValidateIPv4("address", addr); err != nil {
			t.Errorf("ValidateIPv4(%q) unexpected error: %v", addr, err)
		}
	}

	invalid := []string{"", "256.1.1.1", "1.2.3", "::1", "fe80::1", "host.example", "1.2.3.4/24"}
	for _, addr := range invalid {
		if err := v.ValidateIPv4("address", addr); err == nil {
			t.Errorf("ValidateIPv4(%q) expected error", addr)
		}
	}
}

func TestValidateSubnetMask(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		mask    string
		bits    int
		wantErr bool
	}{
		{"255.255.255.0", 24, false},
		{"255.255.0.0", 16, false},
		{"255.255.255.252", 30, false},
		{"255.255.255.255", 32, false},
		{"255.0.255.0", 0, true},
		{"0.0.0.0", 0, true},
		{"255.255.255.1", 0, true},
		{"not-a-mask", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			err := v.ValidateSubnetMask(tt.mask)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSubnetMask(%q) error = %v, wantErr %v", tt.mask, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			bits, ok := MaskBits(tt.mask)
			if !ok || bits != tt.bits {
				t.Errorf("MaskBits(%q) = %d, %v; want %d", tt.mask, bits, ok, tt.bits)
			}
			if got := MaskFromBits(bits); got != tt.mask {
				t.Errorf("MaskFromBits(%d) = %q, want %q", bits, got, tt.mask)
			}
		})
	}

	if MaskFromBits(33) != "" {
		t.Error("MaskFromBits should reject prefix lengths over 32")
	}
}

func TestSameSubnet(t *testing.T) {
	tests := []struct {
		a, b, mask string
		want       bool
	}{
		{"192.168.1.50", "192.168.1.1", "255.255.255.0", true},
		{"192.168.1.50", "192.168.2.1", "255.255.255.0", false},
		{"192.168.1.50", "192.168.2.1", "255.255.0.0", true},
		{"10.0.0.5", "10.0.0.9", "255.255.255.252", false},
		{"10.0.0.5", "10.0.0.6", "255.255.255.252", true},
		{"bad", "10.0.0.1", "255.0.0.0", false},
	}

	for _, tt := range tests {
		if got := SameSubnet(tt.a, tt.b, tt.mask); got != tt.want {
			t.Errorf("SameSubnet(%s, %s, %s) = %v, want %v", tt.a, tt.b, tt.mask, got, tt.want)
		}
	}
}

func TestValidateNetworkProfile(t *testing.T) {
	v := NewValidator()

	static := types.NetworkProfile{
		Name:        "Office",
		AdapterName: "Ethernet",
		IPAddress:   "192.168.1.50",
		SubnetMask:  "255.255.255.0",
		Gateway:     "192.168.1.1",
		PrimaryDNS:  "1.1.1.1",
	}

	tests := []struct {
		name    string
		mutate  func(p *types.NetworkProfile)
		wantErr string
	}{
		{"valid static", func(p *types.NetworkProfile) {}, ""},
		{"dhcp ignores addresses", func(p *types.NetworkProfile) {
			p.IsDHCP = true
			p.IPAddress = "garbage"
		}, ""},
		{"no gateway", func(p *types.NetworkProfile) { p.Gateway = "" }, ""},
		{"no adapter", func(p *types.NetworkProfile) { p.AdapterName = "" }, ""},
		{"missing name", func(p *types.NetworkProfile) { p.Name = " " }, "profile name"},
		{"missing address", func(p *types.NetworkProfile) { p.IPAddress = "" }, "IP address"},
		{"bad mask", func(p *types.NetworkProfile) { p.SubnetMask = "255.0.255.0" }, "subnet mask"},
		{"bad dns", func(p *types.NetworkProfile) { p.SecondaryDNS = "dns.example" }, "secondary DNS"},
		{"gateway elsewhere", func(p *types.NetworkProfile) { p.Gateway = "10.0.0.1" }, "same subnet"},
		{"injected adapter", func(p *types.NetworkProfile) { p.AdapterName = "eth0 && reboot" }, "adapter name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := static
			tt.mutate(&p)
			err := v.ValidateNetworkProfile(p)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateHostAndPort(t *testing.T) {
	v := NewValidator()

	for _, host := range []string{"proxy.corp.example", "localhost", "10.0.0.8", "[::1]", "*.corp.example"} {
		if err := v.ValidateHost(host); err != nil {
			t.Errorf("ValidateHost(%q) unexpected error: %v", host, err)
		}
	}
	for _, host := range []string{"", "bad host", "-proxy.example", "proxy.example;id", strings.Repeat("a", 254)} {
		if err := v.ValidateHost(host); err == nil {
			t.Errorf("ValidateHost(%q) expected error", host)
		}
	}

	for _, port := range []int{1, 8080, 65535} {
		if err := v.ValidatePort(port); err != nil {
			t.Errorf("ValidatePort(%d) unexpected error: %v", port, err)
		}
	}
	for _, port := range []int{0, -1, 65536} {
		if err := v.ValidatePort(port); err == nil {
			t.Errorf("ValidatePort(%d) expected error", port)
		}
	}
}

func TestValidateProxyProfile(t *testing.T) {
	v := NewValidator()

	base := types.NewProxyProfile("Corp")
	base.UseProxy = true
	base.ProxyServer = "proxy.corp.example"
	base.ProxyBypassList = "*.corp.example;10.*;<local>"

	tests := []struct {
		name    string
		mutate  func(p *types.ProxyProfile)
		wantErr bool
	}{
		{"valid", func(p *types.ProxyProfile) {}, false},
		{"disabled needs no server", func(p *types.ProxyProfile) {
			p.UseProxy = false
			p.ProxyServer = ""
		}, false},
		{"auth with username", func(p *types.ProxyProfile) {
			p.ProxyRequiresAuth = true
			p.ProxyUsername = "alice"
			p.ProxyPassword = "p@ss;word"
		}, false},
		{"missing server", func(p *types.ProxyProfile) { p.ProxyServer = "" }, true},
		{"bad port", func(p *types.ProxyProfile) { p.ProxyPort = 70000 }, true},
		{"unknown type", func(p *types.ProxyProfile) { p.ProxyType = "gopher" }, true},
		{"auth without username", func(p *types.ProxyProfile) { p.ProxyRequiresAuth = true }, true},
		{"username with colon", func(p *types.ProxyProfile) {
			p.ProxyRequiresAuth = true
			p.ProxyUsername = "a:b"
		}, true},
		{"bypass with space", func(p *types.ProxyProfile) { p.ProxyBypassList = "a b;c" }, true},
		{"bypass injection", func(p *types.ProxyProfile) { p.ProxyBypassList = "a.example;`id`" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := v.ValidateProxyProfile(p)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProxyProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"absolute", "/home/user/configs.json", false},
		{"relative", "exports/proxy.yaml", false},
		{"windows", `C:\Users\me\configs (1).json`, false},
		{"empty", "", true},
		{"traversal", "../../etc/passwd", true},
		{"encoded traversal", "%2e%2e/etc/passwd", true},
		{"command", "out.json; rm -rf /", true},
		{"substitution", "$(whoami).json", true},
		{"null byte", "out\x00.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	v := NewValidator()

	got := v.SanitizeString("desk\x00 port\x07\tA\n")
	if got != "desk port\tA\n" {
		t.Errorf("SanitizeString() = %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"办公室网络配置", 5, "办公..."},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		if got := v.TruncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestCommandInjectionPatterns(t *testing.T) {
	v := NewValidator()

	dangerousInputs := []string{
		"test;rm -rf /",
		"test && cat /etc/passwd",
		"test || whoami",
		"test`whoami`",
		"test$(whoami)",
		"test${USER}",
		"test > /tmp/out",
		"test < /etc/passwd",
		"test >> log",
		"test\nwhoami",
		"test\rwhoami",
		"test|grep password",
		"test\x00",
	}

	for _, input := range dangerousInputs {
		t.Run(input, func(t *testing.T) {
			if !v.containsCommandInjection(input) {
				t.Errorf("Failed to detect command injection in: %q", input)
			}
		})
	}
}

func TestPathTraversalPatterns(t *testing.T) {
	v := NewValidator()

	traversalInputs := []string{
		"../etc/passwd",
		"..\\windows\\system32",
		"%2e%2e/etc/passwd",
		"%252e%252e/etc/passwd",
		"file\x00.txt",
	}

	for _, input := range traversalInputs {
		t.Run(input, func(t *testing.T) {
			if !v.containsPathTraversal(input) {
				t.Errorf("Failed to detect path traversal in: %q", input)
			}
		})
	}

	for _, input := range []string{"/etc/passwd", "C:\\Windows\\System32", "\\\\server\\share"} {
		t.Run(input, func(t *testing.T) {
			if v.containsPathTraversal(input) {
				t.Errorf("Incorrectly detected absolute path as traversal: %q", input)
			}
		})
	}
}
