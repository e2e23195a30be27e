package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ipconfiger/ipconfiger/pkg/types"
)

// ConfirmationResult represents the result of a confirmation prompt
type ConfirmationResult struct {
	Approved bool
	TimedOut bool
	Error    error
}

// Confirmer handles user confirmation prompts
type Confirmer struct {
	config types.Confirmation
	in     io.Reader
	out    io.Writer
}

// NewConfirmer creates a confirmer reading answers from stdin
func NewConfirmer(config types.Confirmation) *Confirmer {
	return NewConfirmerWithIO(config, os.Stdin, os.Stdout)
}

// NewConfirmerWithIO creates a confirmer over explicit streams
func NewConfirmerWithIO(config types.Confirmation, in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{
		config: config,
		in:     in,
		out:    out,
	}
}

// Confirm prompts the user for confirmation with the given message
func (c *Confirmer) Confirm(ctx context.Context, message string) *ConfirmationResult {
	if c.config.BatchMode || c.config.AutoApprove {
		return &ConfirmationResult{
			Approved: !c.config.DefaultDeny,
		}
	}

	return c.promptUser(ctx, message)
}

// ConfirmOperation prompts for confirmation of an operation on one profile
func (c *Confirmer) ConfirmOperation(ctx context.Context, operation, resource string, details map[string]any) *ConfirmationResult {
	return c.Confirm(ctx, c.buildOperationMessage(operation, resource, details))
}

// ConfirmDelete asks before a profile is removed. Deletion defaults to no.
func (c *Confirmer) ConfirmDelete(ctx context.Context, kind types.Kind, name string) *ConfirmationResult {
	return c.confirmDefaultNo(ctx, fmt.Sprintf("Delete %s profile '%s'?", kind, name))
}

// ConfirmApply asks before network settings are pushed to an adapter. The
// machine may lose connectivity, so the default is no.
func (c *Confirmer) ConfirmApply(ctx context.Context, profile types.NetworkProfile, adapter string) *ConfirmationResult {
	details := map[string]any{"mode": profile.Mode()}
	if !profile.IsDHCP {
		details["address"] = profile.IPAddress + "/" + profile.SubnetMask
		if profile.Gateway != "" {
			details["gateway"] = profile.Gateway
		}
	}

	return c.confirmDefaultNo(ctx, c.buildOperationMessage("apply "+profile.Name+" to", adapter, details))
}

// confirmDefaultNo prompts with "no" as the default answer. Batch and
// auto-approve modes keep their configured behavior.
func (c *Confirmer) confirmDefaultNo(ctx context.Context, message string) *ConfirmationResult {
	if !c.IsInteractive() {
		return c.Confirm(ctx, message)
	}
	cfg := c.config
	cfg.DefaultDeny = true
	strict := &Confirmer{config: cfg, in: c.in, out: c.out}
	return strict.promptUser(ctx, message)
}

// promptUser handles the interactive confirmation prompt
func (c *Confirmer) promptUser(ctx context.Context, message string) *ConfirmationResult {
	var promptCtx context.Context
	var cancel context.CancelFunc
	if c.config.Timeout > 0 {
		promptCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
	} else {
		promptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	timeoutMsg := ""
	if c.config.Timeout > 0 {
		timeoutMsg = fmt.Sprintf(" (%v)", c.config.Timeout)
	}
	defaultHint := "[Y/n]"
	if c.config.DefaultDeny {
		defaultHint = "[y/N]"
	}
	fmt.Fprintf(c.out, "%s %s%s ", message, defaultHint, timeoutMsg)

	responseChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(c.in)
		response, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || response == "") {
			errorChan <- fmt.Errorf("failed to read user input: %w", err)
			return
		}
		responseChan <- strings.TrimSpace(response)
	}()

	select {
	case <-promptCtx.Done():
		fmt.Fprintln(c.out, "\nTimeout - using default response")
		return &ConfirmationResult{
			Approved: !c.config.DefaultDeny,
			TimedOut: true,
		}

	case err := <-errorChan:
		return &ConfirmationResult{
			Approved: false,
			Error:    err,
		}

	case response := <-responseChan:
		return &ConfirmationResult{
			Approved: c.parseResponse(response),
		}
	}
}

// parseResponse parses the user's response to determine approval
func (c *Confirmer) parseResponse(response string) bool {
	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return !c.config.DefaultDeny
	}

	switch response {
	case "y", "yes", "true", "1":
		return true
	case "n", "no", "false", "0":
		return false
	default:
		fmt.Fprintf(c.out, "Invalid response '%s', using default\n", response)
		return !c.config.DefaultDeny
	}
}

// buildOperationMessage builds a formatted message for operation
// confirmation. Detail keys are sorted so the prompt is stable.
func (c *Confirmer) buildOperationMessage(operation, resource string, details map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confirm: %s '%s'", operation, resource)

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" with:")
		for _, key := range keys {
			if isSensitiveKey(key) {
				fmt.Fprintf(&b, "\n  %s: [MASKED]", key)
			} else {
				fmt.Fprintf(&b, "\n  %s: %v", key, details[key])
			}
		}
	}

	b.WriteString("?")
	return b.String()
}

// isSensitiveKey checks if a key contains sensitive information
func isSensitiveKey(key string) bool {
	sensitiveKeys := []string{"password", "secret", "token", "credential", "passphrase"}

	keyLower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	return false
}

// ConfirmBatchOperation handles confirmations covering several profiles
func (c *Confirmer) ConfirmBatchOperation(ctx context.Context, operation string, items []string) *ConfirmationResult {
	if len(items) == 0 {
		return &ConfirmationResult{
			Error: fmt.Errorf("no items to process"),
		}
	}

	if c.config.BatchMode || c.config.AutoApprove {
		return &ConfirmationResult{
			Approved: !c.config.DefaultDeny,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Confirm %s for %d profiles:", operation, len(items))

	const showCount = 5
	for i, item := range items {
		if i >= showCount {
			fmt.Fprintf(&b, "\n  ... and %d more", len(items)-showCount)
			break
		}
		fmt.Fprintf(&b, "\n  - %s", item)
	}
	b.WriteString("\nProceed?")

	return c.Confirm(ctx, b.String())
}

// IsInteractive returns true if the confirmer will prompt
func (c *Confirmer) IsInteractive() bool {
	return !c.config.BatchMode && !c.config.AutoApprove
}
