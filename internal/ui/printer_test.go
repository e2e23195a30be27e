package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestPrinterWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Success("saved %s", "Office")
	p.Warning("adapter %s not found", "eth9")
	p.Error("failed")
	p.Info("3 profiles")
	p.Field("Gateway", "")
	p.Field("IP Address", "10.0.0.5")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Unexpected escape codes: %q", out)
	}
	for _, want := range []string{
		"✓ saved Office\n",
		"! adapter eth9 not found\n",
		"✗ failed\n",
		"• 3 profiles\n",
		"  Gateway:         -\n",
		"  IP Address:      10.0.0.5\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinterWithColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Success("done")
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Expected escape codes, got %q", buf.String())
	}
}

func TestShouldUseColor(t *testing.T) {
	// A regular file is never a terminal.
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "")
	t.Setenv("CLICOLOR", "")

	if !ShouldUseColor("always", f) {
		t.Error("always should force color")
	}
	if ShouldUseColor("never", f) {
		t.Error("never should disable color")
	}
	if ShouldUseColor("auto", f) {
		t.Error("auto should not color a regular file")
	}

	t.Setenv("CLICOLOR_FORCE", "1")
	if !ShouldUseColor("auto", f) {
		t.Error("CLICOLOR_FORCE should enable color")
	}

	t.Setenv("NO_COLOR", "1")
	if ShouldUseColor("", f) {
		t.Error("NO_COLOR should win over CLICOLOR_FORCE")
	}

	if IsInteractive(f) {
		t.Error("A regular file is not interactive")
	}
}
