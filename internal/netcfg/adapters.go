package netcfg

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/ipconfiger/ipconfiger/internal/validation"
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// Adapter is a physical network interface on this machine
type Adapter struct {
	Name       string
	MAC        string
	CurrentIP  string
	SubnetMask string
	Up         bool
}

// virtualKeywords mark adapters created by hypervisors, VPNs, tunnels and
// capture drivers. Localized Windows names are included.
var virtualKeywords = []string{
	"virtual", "虚拟", "vmware", "virtualbox", "vbox", "hyper-v", "hyperv",
	"tap", "tun", "loopback", "回环", "teredo", "isatap", "6to4",
	"microsoft", "软件", "software", "tunnel", "隧道", "vpn",
	"wan miniport", "ras", "pptp", "l2tp", "sstp", "ikev2",
	"bluetooth", "蓝牙", "npcap", "winpcap", "packet", "capture",
	"docker", "veth", "br-", "virbr",
}

// virtualMACPrefixes are vendor prefixes of virtual NICs. 02 covers locally
// administered addresses.
var virtualMACPrefixes = []string{
	"00155D", // Hyper-V
	"000C29", // VMware
	"001C14", // VMware
	"005056", // VMware
	"080027", // VirtualBox
	"0A0027", // VirtualBox
	"00505A", // Cisco VPN
	"001DD8", // Microsoft
	"00FF",
	"02",
}

// listInterfaces is replaced in tests
var listInterfaces = psnet.Interfaces

// ListAdapters returns the physical adapters sorted by name
func ListAdapters() ([]Adapter, error) {
	ifaces, err := listInterfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate network interfaces: %w", err)
	}

	adapters := make([]Adapter, 0, len(ifaces))
	for _, iface := range ifaces {
		if !IsPhysical(iface.Name, iface.HardwareAddr) {
			continue
		}
		adapters = append(adapters, toAdapter(iface))
	}

	sort.Slice(adapters, func(i, j int) bool {
		return adapters[i].Name < adapters[j].Name
	})
	return adapters, nil
}

// FindAdapter looks up a physical adapter by name, ignoring case
func FindAdapter(name string) (Adapter, error) {
	adapters, err := ListAdapters()
	if err != nil {
		return Adapter{}, err
	}
	for _, a := range adapters {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return a, nil
		}
	}
	return Adapter{}, fmt.Errorf("adapter '%s' not found", name)
}

// CurrentProfile captures the live IPv4 settings of an adapter as an unsaved
// static profile. Gateway and DNS are not discoverable portably and are left
// blank.
func CurrentProfile(adapterName string) (types.NetworkProfile, error) {
	adapter, err := FindAdapter(adapterName)
	if err != nil {
		return types.NetworkProfile{}, err
	}
	if adapter.CurrentIP == "" {
		return types.NetworkProfile{}, fmt.Errorf("adapter '%s' has no IPv4 address", adapter.Name)
	}

	return types.NetworkProfile{
		Name:        "Current - " + adapter.Name,
		AdapterName: adapter.Name,
		IPAddress:   adapter.CurrentIP,
		SubnetMask:  adapter.SubnetMask,
	}, nil
}

// IsPhysical applies the name and MAC heuristics used to hide virtual
// adapters.
func IsPhysical(name, mac string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range virtualKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}

	normalized := strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(mac))
	if normalized == "" || strings.Trim(normalized, "0") == "" {
		return false
	}
	for _, prefix := range virtualMACPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return false
		}
	}
	return true
}

func toAdapter(iface psnet.InterfaceStat) Adapter {
	adapter := Adapter{
		Name: iface.Name,
		MAC:  strings.ToUpper(iface.HardwareAddr),
	}
	for _, flag := range iface.Flags {
		if flag == "up" {
			adapter.Up = true
			break
		}
	}

	for _, addr := range iface.Addrs {
		prefix, err := netip.ParsePrefix(addr.Addr)
		if err != nil || !prefix.Addr().Is4() {
			continue
		}
		adapter.CurrentIP = prefix.Addr().String()
		adapter.SubnetMask = validation.MaskFromBits(prefix.Bits())
		break
	}
	return adapter
}
