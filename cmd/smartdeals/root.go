package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smartdeals/internal/config"
	applog "smartdeals/internal/log"
)

var configFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "smartdeals",
		Short: "Marketplace API for listing products and settling bids",
		Long: `smartdeals serves the marketplace HTTP API: sellers list products,
buyers place bids, and a seller confirming a bid sells the product.

Configuration comes from defaults, an optional --config file and the
environment (PORT, DB_DRIVER, DB_DSN, LOG_LEVEL, TOKEN_TTL, ...).`,
		SilenceUsage: true,
		RunE:         runServe, // serve is the default
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, json or toml)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newUserCommand())
	return root
}

// setup loads configuration and installs the process-wide logger. The
// returned func flushes and restores the previous logger.
func setup() (config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, err := applog.New(cfg.ServiceName, cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	undo := zap.ReplaceGlobals(logger)
	return cfg, logger, func() {
		_ = logger.Sync()
		undo()
	}, nil
}
