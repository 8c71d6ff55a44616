package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/server"
)

func (a *app) newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long:  "Serve /api/<resource> for every resource until interrupted.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.settings.Listen
			}
			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(backend,
				server.WithLogger(a.log),
				server.WithRateLimit(a.settings.RateLimit, a.settings.RateBurst),
			)
			return srv.ListenAndServe(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config listen)")
	return cmd
}
