package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/storage"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tally storage",
		Long:  "Create the configuration and data directories, then apply storage migrations.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			version, err := backend.SchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tally initialized (backend %s, schema v%d)\n", a.settings.Backend, version)
			return nil
		},
	}
}

// openBackend attaches the configured storage backend. The caller must
// Detach it.
func (a *app) openBackend() (storage.Backend, error) {
	cfg, err := a.storageConfig()
	if err != nil {
		return nil, err
	}
	backend := storage.NewBackend(a.log)
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
	}
	if err := backend.Ping(context.Background()); err != nil {
		backend.Detach()
		return nil, fmt.Errorf("ping %s backend: %w", cfg.Backend, err)
	}
	return backend, nil
}
