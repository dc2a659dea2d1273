package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"playtime/internal/logging"
	"playtime/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local lookup API",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := ctx.openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := *a.cfg
			if bind != "" {
				cfg.Server.Bind = bind
			}

			opts := []server.Option{
				server.WithLogger(logging.NewComponentLogger(a.logger, "server")),
				server.WithSessionStatus(a.client),
				server.WithGatherer(a.registry),
			}
			if a.store != nil {
				opts = append(opts, server.WithCacheStats(a.store))
			}
			srv, err := server.New(&cfg, a.lookup, opts...)
			if err != nil {
				return err
			}
			return srv.Run(signalCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	return cmd
}
