package netcfg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ipconfiger/ipconfiger/internal/validation"
	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// ErrNoAdapter is returned when a profile is applied without naming an adapter
var ErrNoAdapter = errors.New("no adapter specified")

// StaticSettings is the addressing pushed to an adapter in static mode
type StaticSettings struct {
	IPAddress    string
	SubnetMask   string
	Gateway      string
	PrimaryDNS   string
	SecondaryDNS string
}

// Applier changes the live configuration of a network adapter
type Applier interface {
	ApplyDHCP(ctx context.Context, adapter string) error
	ApplyStatic(ctx context.Context, adapter string, settings StaticSettings) error
}

// CommandRunner executes an external program and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewApplier picks the applier for an operating system
func NewApplier(goos string, runner CommandRunner) (Applier, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch goos {
	case "windows":
		return &NetshApplier{runner: runner}, nil
	case "linux":
		return &IPRouteApplier{runner: runner}, nil
	default:
		return nil, fmt.Errorf("applying network settings is not supported on %s", goos)
	}
}

// ApplyProfile pushes a stored profile to an adapter. adapterOverride wins
// over the adapter recorded in the profile.
func ApplyProfile(ctx context.Context, applier Applier, profile types.NetworkProfile, adapterOverride string) (string, error) {
	adapter := strings.TrimSpace(adapterOverride)
	if adapter == "" {
		adapter = strings.TrimSpace(profile.AdapterName)
	}
	if adapter == "" {
		return "", ErrNoAdapter
	}

	if profile.IsDHCP {
		return adapter, applier.ApplyDHCP(ctx, adapter)
	}
	return adapter, applier.ApplyStatic(ctx, adapter, StaticSettings{
		IPAddress:    profile.IPAddress,
		SubnetMask:   profile.SubnetMask,
		Gateway:      profile.Gateway,
		PrimaryDNS:   profile.PrimaryDNS,
		SecondaryDNS: profile.SecondaryDNS,
	})
}

// CommandError carries the output of a failed configuration command
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func run(ctx context.Context, runner CommandRunner, name string, args ...string) error {
	out, err := runner.Run(ctx, name, args...)
	if err != nil {
		return &CommandError{
			Command: name + " " + strings.Join(args, " "),
			Output:  strings.TrimSpace(string(out)),
			Err:     err,
		}
	}
	return nil
}

// NetshApplier configures Windows adapters through netsh
type NetshApplier struct {
	runner CommandRunner
}

func (a *NetshApplier) ApplyDHCP(ctx context.Context, adapter string) error {
	if err := run(ctx, a.runner, "netsh", "interface", "ip", "set", "address", adapter, "dhcp"); err != nil {
		return err
	}
	return run(ctx, a.runner, "netsh", "interface", "ip", "set", "dns", adapter, "dhcp")
}

func (a *NetshApplier) ApplyStatic(ctx context.Context, adapter string, s StaticSettings) error {
	args := []string{"interface", "ip", "set", "address", adapter, "static", s.IPAddress, s.SubnetMask}
	if s.Gateway != "" {
		args = append(args, s.Gateway)
	}
	if err := run(ctx, a.runner, "netsh", args...); err != nil {
		return err
	}

	if s.PrimaryDNS != "" {
		if err := run(ctx, a.runner, "netsh", "interface", "ip", "set", "dns", adapter, "static", s.PrimaryDNS); err != nil {
			return err
		}
	}
	if s.SecondaryDNS != "" {
		if err := run(ctx, a.runner, "netsh", "interface", "ip", "add", "dns", adapter, s.SecondaryDNS, "index=2"); err != nil {
			return err
		}
	}
	return nil
}

// IPRouteApplier configures Linux adapters with iproute2 and systemd-resolved
type IPRouteApplier struct {
	runner CommandRunner
}

func (a *IPRouteApplier) ApplyDHCP(ctx context.Context, adapter string) error {
	if err := run(ctx, a.runner, "ip", "addr", "flush", "dev", adapter); err != nil {
		return err
	}
	if err := run(ctx, a.runner, "dhclient", adapter); err != nil {
		return err
	}
	return run(ctx, a.runner, "resolvectl", "revert", adapter)
}

func (a *IPRouteApplier) ApplyStatic(ctx context.Context, adapter string, s StaticSettings) error {
	bits, ok := validation.MaskBits(s.SubnetMask)
	if !ok {
		return fmt.Errorf("invalid subnet mask '%s'", s.SubnetMask)
	}

	if err := run(ctx, a.runner, "ip", "addr", "flush", "dev", adapter); err != nil {
		return err
	}
	if err := run(ctx, a.runner, "ip", "addr", "add", fmt.Sprintf("%s/%d", s.IPAddress, bits), "dev", adapter); err != nil {
		return err
	}
	if s.Gateway != "" {
		if err := run(ctx, a.runner, "ip", "route", "replace", "default", "via", s.Gateway, "dev", adapter); err != nil {
			return err
		}
	}

	var servers []string
	for _, dns := range []string{s.PrimaryDNS, s.SecondaryDNS} {
		if dns != "" {
			servers = append(servers, dns)
		}
	}
	if len(servers) == 0 {
		return nil
	}
	return run(ctx, a.runner, "resolvectl", append([]string{"dns", adapter}, servers...)...)
}
