package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-sheet-catalog/internal/config"
	"github.com/goliatone/go-sheet-catalog/internal/logger"
	"github.com/goliatone/go-sheet-catalog/pkg/di"
)

type rootOptions struct {
	configPath string

	// extra container options, used by tests to inject a backend
	containerOpts []di.Option
}

func newRootCmd(containerOpts ...di.Option) *cobra.Command {
	opts := &rootOptions{containerOpts: containerOpts}
	cmd := &cobra.Command{
		Use:   "catalogd",
		Short: "Spreadsheet-backed product catalog API",
		Long: `catalogd serves the public product catalog and the sales API backed by
a Google Sheets spreadsheet (or a local xlsx workbook), with an optional
relational database mirror.

Configuration is read from --config, a .env file and CATALOG_* variables.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (yaml, json or toml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// bootstrap loads the configuration and builds the container. The caller
// must call the returned cleanup.
func (o *rootOptions) bootstrap(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, err
	}

	opts := append([]di.Option{di.WithLogger(log), di.WithVersion(version)}, o.containerOpts...)
	c, err := di.NewContainer(ctx, *cfg, opts...)
	if err != nil {
		logger.Sync(log)
		return nil, nil, err
	}

	cleanup := func() {
		if err := c.Close(); err != nil {
			log.Warn("close failed", zap.Error(err))
		}
		logger.Sync(log)
	}
	return c, cleanup, nil
}
