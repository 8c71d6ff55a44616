package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/storage"
)

func (a *app) newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <resource> <file>",
		Short: "Write a resource to a JSONL file",
		Long:  "Export reads storage directly; the API server need not be running.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			n, err := storage.Export(cmd.Context(), backend, resource, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d %s to %s\n", n, resource, args[1])
			return nil
		},
	}
}

func (a *app) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <resource> <file>",
		Short: "Upsert records from a JSONL file",
		Long:  "Import writes storage directly. Malformed or invalid lines are skipped.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := resourceArg(args)
			if err != nil {
				return err
			}
			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			res, err := storage.Import(cmd.Context(), backend, resource, args[1])
			if err != nil {
				return err
			}
			a.log.Info("import finished", "resource", resource, "imported", res.Imported, "skipped", res.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s (%d skipped)\n", res.Imported, resource, res.Skipped)
			return nil
		},
	}
}
