package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesmith/pkg/server"
)

// serveCommand creates the serve command for the HTTP session API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		Long: `Serve runs the HTTP session API. Sessions are persisted to the configured
store (memory, file or mongo) and artifacts are cached in the configured
cache (file, redis or none).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)

	b, err := c.openBackend(ctx, false)
	if err != nil {
		return err
	}
	defer b.Close()

	store, err := b.cfg.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if addr == "" {
		addr = b.cfg.Server.Addr
	}
	srv := server.New(b.svc, store,
		server.WithLogger(logger),
		server.WithRunner(b.runner),
		server.WithTTL(b.cfg.Store.TTL.Duration),
	)
	logger.Info("serving session API",
		"addr", addr,
		"store", b.cfg.Store.Backend,
		"cache", b.cfg.Cache.Backend,
		"planner", b.cfg.Service.URL)
	return srv.ListenAndServe(ctx, addr)
}
