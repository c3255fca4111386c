package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/logging"
	"github.com/pankaj-dahiya-devops/aicost/internal/server"
	"github.com/pankaj-dahiya-devops/aicost/internal/session"
)

const (
	shutdownTimeout = 10 * time.Second
	expiryInterval  = time.Minute
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for browser-driven SSO and attribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), cmd)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default: 127.0.0.1:8080)")
	_ = a.v.BindPFlag(config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	catalog, err := a.catalog()
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), a.settings.LogLevel, logging.FormatJSON)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Store:           session.NewMemoryStore(),
		Brokers:         server.SSOBrokers(logger),
		Engine:          a.newEngine(catalog, logger),
		Sessions:        a.provider,
		Catalog:         catalog,
		Region:          a.settings.Region,
		DefaultRole:     a.settings.Role,
		DefaultStartURL: a.settings.SSOStartURL,
		Logger:          logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(a.settings.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		return srv.ExpireSessions(gctx, expiryInterval)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("http server stopped")
	return nil
}
