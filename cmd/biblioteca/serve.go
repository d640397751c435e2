package main

import (
	"context"
	"time"

	"github.com/emzola/biblioteca/clients"
	"github.com/emzola/biblioteca/config"
	"github.com/emzola/biblioteca/handler"
	"github.com/emzola/biblioteca/internal/jsonlog"
	"github.com/emzola/biblioteca/internal/telemetry"
	"github.com/emzola/biblioteca/service"
	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// app defines the application's layers and shared resources.
type app struct {
	config  config.Config
	logger  *jsonlog.Logger
	handler *handler.Handler
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	db, repo, err := c.openRepository(ctx, c.config.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	shutdownTelemetry, err := telemetry.Setup(ctx, c.config)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			c.logger.PrintError(err, nil)
		}
	}()

	var covers service.CoverStore
	if c.config.CoverStorageEnabled() {
		store, err := clients.NewS3CoverStore(ctx, c.config)
		if err != nil {
			return err
		}
		covers = store
	} else {
		c.logger.PrintInfo("cover uploads disabled: no s3 bucket configured", nil)
	}

	svc, err := service.New(c.config, c.logger, repo, covers)
	if err != nil {
		return err
	}

	// Per-client rate limiters, dropped after three idle minutes
	limiters := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](3 * time.Minute))
	go limiters.Start()
	defer limiters.Stop()

	app := &app{
		config:  c.config,
		logger:  c.logger,
		handler: handler.New(c.config, c.logger, limiters, svc),
	}
	return app.serve()
}
