package types

import (
	"fmt"
	"time"
)

// NetworkProfile is a saved IPv4 configuration for one adapter
type NetworkProfile struct {
	Name         string    `json:"name" yaml:"name" toml:"name"`
	AdapterName  string    `json:"adapterName" yaml:"adapterName" toml:"adapterName"`
	IsDHCP       bool      `json:"isDHCP" yaml:"isDHCP" toml:"isDHCP"`
	IPAddress    string    `json:"ipAddress" yaml:"ipAddress" toml:"ipAddress"`
	SubnetMask   string    `json:"subnetMask" yaml:"subnetMask" toml:"subnetMask"`
	Gateway      string    `json:"gateway" yaml:"gateway" toml:"gateway"`
	PrimaryDNS   string    `json:"primaryDNS" yaml:"primaryDNS" toml:"primaryDNS"`
	SecondaryDNS string    `json:"secondaryDNS" yaml:"secondaryDNS" toml:"secondaryDNS"`
	CreatedTime  time.Time `json:"createdTime" yaml:"createdTime" toml:"createdTime"`
	Description  string    `json:"description" yaml:"description" toml:"description"`
}

var _ Record[NetworkProfile] = NetworkProfile{}

func (p NetworkProfile) GetName() string           { return p.Name }
func (p NetworkProfile) GetDescription() string    { return p.Description }
func (p NetworkProfile) GetCreatedTime() time.Time { return p.CreatedTime }

// WithCreatedTime returns a copy of the profile stamped with t
func (p NetworkProfile) WithCreatedTime(t time.Time) NetworkProfile {
	p.CreatedTime = t
	return p
}

// Mode returns a short human readable addressing mode
func (p NetworkProfile) Mode() string {
	if p.IsDHCP {
		return "dhcp"
	}
	return "static"
}

func (p NetworkProfile) String() string {
	if p.AdapterName == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.AdapterName)
}
