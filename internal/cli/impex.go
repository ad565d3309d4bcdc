package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventcat/internal/config"
	"eventcat/internal/store"
)

// withStore opens the configured store, runs fn, then persists and
// closes. Used by the headless subcommands.
func withStore(fn func(cfg *config.Config, st store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := fn(cfg, st); err != nil {
		return err
	}
	return st.Persist()
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import catalogues from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(cfg *config.Config, st store.Store) error {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
				desc, err := st.CanonicalizeImport(raw)
				if err != nil {
					return fmt.Errorf("invalid import file: %w", err)
				}
				result, err := st.ApplyImport(desc)
				if err != nil {
					return fmt.Errorf("applying import: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d catalogues, %d events\n",
					len(result.CatalogueUUIDs), len(result.EventUUIDs))
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export [catalogue-uuid...]",
		Short: "Export catalogues as JSON (all of them when no UUIDs given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(cfg *config.Config, st store.Store) error {
				uuids := args
				if len(uuids) == 0 {
					cats, err := st.Catalogues(false)
					if err != nil {
						return fmt.Errorf("listing catalogues: %w", err)
					}
					for _, cat := range cats {
						uuids = append(uuids, cat.UUID)
					}
				}
				data, err := st.ExportJSON(uuids)
				if err != nil {
					return fmt.Errorf("exporting: %w", err)
				}
				if outFile == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outFile, err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
