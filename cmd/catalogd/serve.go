package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var noDB bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, cleanup, err := root.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			srv, err := c.Server(ctx, !noDB)
			if err != nil {
				return err
			}
			addr := c.Config().Server.Addr()
			c.Logger().Info("starting catalogd",
				zap.String("version", version),
				zap.String("addr", addr),
				zap.Bool("database", !noDB),
			)
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().BoolVar(&noDB, "no-db", false, "serve only the sheet-backed routes")
	return cmd
}
