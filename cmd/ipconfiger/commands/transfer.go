package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ipconfiger/ipconfiger/internal/audit"
)

var exportOutput string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [network|proxy]",
	Short: "Export all profiles of a kind",
	Long: `Write every profile of a kind in the configured storage format.

The output can be loaded on another machine with 'ipconfiger import'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [network|proxy] [file]",
	Short: "Import profiles from an exported file",
	Long: `Merge profiles from an exported file into the saved profiles.

A profile whose name matches a saved one replaces it but keeps the original
creation time. The file must use the configured storage format.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	store := a.storeFor(kind)
	data, err := store.Export()
	details := map[string]any{"count": store.Len(), "format": string(store.Format())}
	if err != nil {
		a.audit.LogProfileOperation(audit.EventProfileExport, kind, "", err, details)
		return err
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		a.audit.LogProfileOperation(audit.EventProfileExport, kind, "", err, details)
		return err
	}

	if err := a.validator.ValidateFilePath(exportOutput); err != nil {
		return err
	}
	if dir := filepath.Dir(exportOutput); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	err = os.WriteFile(exportOutput, data, 0600)
	details["file"] = exportOutput
	a.audit.LogProfileOperation(audit.EventProfileExport, kind, "", err, details)
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	a.printer.Success("Exported %d %s profiles to %s", store.Len(), kind, exportOutput)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0])
	if err != nil {
		return err
	}
	path := args[1]

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.validator.ValidateFilePath(path); err != nil {
		return err
	}

	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path) // #nosec G304 - path validated above
	}
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	store := a.storeFor(kind)
	names, err := store.Preview(data)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	if store.Len() > 0 && len(names) > 0 {
		items := make([]string, len(names))
		for i, name := range names {
			items[i] = name
			if store.Exists(name) {
				items[i] += " (replaces saved profile)"
			}
		}
		result := a.confirmer.ConfirmBatchOperation(cmd.Context(), "import into "+store.Location(), items)
		if !result.Approved {
			if result.Error != nil {
				return result.Error
			}
			a.printer.Warning("Import cancelled")
			return nil
		}
	}

	res, err := store.Import(data)
	a.audit.LogProfileOperation(audit.EventProfileImport, kind, "", err, map[string]any{
		"file":    path,
		"added":   res.Added,
		"updated": res.Updated,
		"skipped": res.Skipped,
	})
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}

	a.printer.Success("Imported %s profiles: %d added, %d updated", kind, res.Added, res.Updated)
	if res.Skipped > 0 {
		a.printer.Warning("%d entries without a name were skipped", res.Skipped)
	}
	return nil
}
