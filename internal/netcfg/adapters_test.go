package netcfg

import (
	"errors"
	"testing"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPhysical(t *testing.T) {
	tests := []struct {
		name    string
		adapter string
		mac     string
		want    bool
	}{
		{"plain ethernet", "Ethernet", "3c:52:82:11:22:33", true},
		{"linux nic", "enp3s0", "3C-52-82-11-22-33", true},
		{"wifi", "Wi-Fi", "a4:83:e7:01:02:03", true},
		{"virtual keyword", "vEthernet (Default Switch)", "3c:52:82:11:22:33", false},
		{"vmware name", "VMware Network Adapter VMnet8", "3c:52:82:11:22:33", false},
		{"localized virtual", "虚拟网卡", "3c:52:82:11:22:33", false},
		{"vpn", "OpenVPN TAP-Windows6", "3c:52:82:11:22:33", false},
		{"bluetooth", "Bluetooth Network Connection", "3c:52:82:11:22:33", false},
		{"docker bridge", "docker0", "3c:52:82:11:22:33", false},
		{"veth", "veth12ab", "3c:52:82:11:22:33", false},
		{"loopback", "Loopback Pseudo-Interface 1", "3c:52:82:11:22:33", false},
		{"empty mac", "Ethernet", "", false},
		{"zero mac", "Ethernet", "00:00:00:00:00:00", false},
		{"hyper-v mac", "Ethernet", "00:15:5d:01:02:03", false},
		{"virtualbox mac", "Ethernet", "08:00:27:aa:bb:cc", false},
		{"vmware mac", "Ethernet", "00-50-56-aa-bb-cc", false},
		{"locally administered", "Ethernet", "02:42:ac:11:00:02", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPhysical(tt.adapter, tt.mac))
		})
	}
}

func stubInterfaces(t *testing.T, ifaces psnet.InterfaceStatList, err error) {
	t.Helper()
	orig := listInterfaces
	listInterfaces = func() (psnet.InterfaceStatList, error) { return ifaces, err }
	t.Cleanup(func() { listInterfaces = orig })
}

func sampleInterfaces() psnet.InterfaceStatList {
	return psnet.InterfaceStatList{
		{
			Name:         "wlan0",
			HardwareAddr: "a4:83:e7:01:02:03",
			Flags:        []string{"broadcast", "multicast"},
		},
		{
			Name:         "eth0",
			HardwareAddr: "3c:52:82:11:22:33",
			Flags:        []string{"up", "broadcast", "multicast"},
			Addrs: psnet.InterfaceAddrList{
				{Addr: "fe80::3e52:82ff:fe11:2233/64"},
				{Addr: "192.168.1.50/24"},
			},
		},
		{
			Name:         "docker0",
			HardwareAddr: "02:42:ac:11:00:01",
			Flags:        []string{"up"},
			Addrs:        psnet.InterfaceAddrList{{Addr: "172.17.0.1/16"}},
		},
		{
			Name:  "lo",
			Flags: []string{"up", "loopback"},
			Addrs: psnet.InterfaceAddrList{{Addr: "127.0.0.1/8"}},
		},
	}
}

func TestListAdapters(t *testing.T) {
	stubInterfaces(t, sampleInterfaces(), nil)

	adapters, err := ListAdapters()
	require.NoError(t, err)
	require.Len(t, adapters, 2)

	assert.Equal(t, Adapter{
		Name:       "eth0",
		MAC:        "3C:52:82:11:22:33",
		CurrentIP:  "192.168.1.50",
		SubnetMask: "255.255.255.0",
		Up:         true,
	}, adapters[0])
	assert.Equal(t, "wlan0", adapters[1].Name)
	assert.False(t, adapters[1].Up)
	assert.Empty(t, adapters[1].CurrentIP)
}

func TestListAdaptersError(t *testing.T) {
	stubInterfaces(t, nil, errors.New("permission denied"))

	_, err := ListAdapters()
	assert.ErrorContains(t, err, "permission denied")
}

func TestCurrentProfile(t *testing.T) {
	stubInterfaces(t, sampleInterfaces(), nil)

	profile, err := CurrentProfile("ETH0")
	require.NoError(t, err)
	assert.Equal(t, "Current - eth0", profile.Name)
	assert.Equal(t, "eth0", profile.AdapterName)
	assert.False(t, profile.IsDHCP)
	assert.Equal(t, "192.168.1.50", profile.IPAddress)
	assert.Equal(t, "255.255.255.0", profile.SubnetMask)

	_, err = CurrentProfile("wlan0")
	assert.ErrorContains(t, err, "no IPv4 address")

	_, err = CurrentProfile("docker0")
	assert.ErrorContains(t, err, "not found")
}
