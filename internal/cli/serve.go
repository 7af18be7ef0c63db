package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/dyike/PortfolioGo/config"
	"github.com/dyike/PortfolioGo/internal/api"
	"github.com/dyike/PortfolioGo/internal/debug"
	"github.com/dyike/PortfolioGo/internal/logger"
	"github.com/dyike/PortfolioGo/internal/service"
	"github.com/dyike/PortfolioGo/models"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		jsonLogs bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve the analysis API. When --config is given the file is watched and
the service is rebuilt whenever it changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.ServerAddr
			}
			if jsonLogs {
				a.log = logger.NewJSON(a.cfg.LogLevel, os.Stderr)
			}

			if err := debug.NewEinoDebugger(a.cfg, a.log).Initialize(ctx); err != nil {
				a.log.Warn().Err(err).Msg("eino debugger unavailable")
			}

			backend, err := newReloadingBackend(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			if a.configPath != "" {
				if err := watchConfig(ctx, a, backend); err != nil {
					a.log.Warn().Err(err).Str("path", a.configPath).Msg("config watch disabled")
				}
			}

			srv := &http.Server{
				Addr: addr,
				Handler: api.NewRouter(backend, api.Options{
					AllowedOrigins: a.cfg.AllowedOrigins,
					MaxUploadBytes: int64(a.cfg.MaxUploadMB) << 20,
					Logger:         a.log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(ctx, srv, a.log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server_addr from config)")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON lines")
	return cmd
}

func serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info().Str("addr", srv.Addr).Msg("api server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func watchConfig(ctx context.Context, a *app, backend *reloadingBackend) error {
	mgr, err := config.NewManager(a.configPath, a.cfg)
	if err != nil {
		return err
	}
	return mgr.Watch(ctx, func(cfg config.Config) {
		if err := backend.reload(ctx, &cfg); err != nil {
			a.log.Warn().Err(err).Msg("config changed but the service could not be rebuilt")
			return
		}
		a.log.Info().Str("path", mgr.Path()).Msg("configuration reloaded")
	})
}

// reloadingBackend serves requests from the latest successfully built service.
type reloadingBackend struct {
	current atomic.Pointer[service.Service]
	log     *log.Logger
}

func newReloadingBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*reloadingBackend, error) {
	b := &reloadingBackend{log: logger}
	if err := b.reload(ctx, cfg); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *reloadingBackend) reload(ctx context.Context, cfg *config.Config) error {
	svc, err := service.New(ctx, cfg, b.log)
	if err != nil {
		return err
	}
	b.current.Store(svc)
	return nil
}

func (b *reloadingBackend) svc() *service.Service { return b.current.Load() }

func (b *reloadingBackend) Analyze(ctx context.Context, file *models.UploadedFile) (*models.WorkflowState, error) {
	return b.svc().Analyze(ctx, file)
}

func (b *reloadingBackend) Stream(ctx context.Context, file *models.UploadedFile) <-chan models.StageEvent {
	return b.svc().Stream(ctx, file)
}

func (b *reloadingBackend) Screen(ctx context.Context, req models.ScreenRequest) ([]models.ScreenResult, error) {
	return b.svc().Screen(ctx, req)
}

func (b *reloadingBackend) Detail(ctx context.Context, ticker string) (*models.DetailedAnalysis, error) {
	return b.svc().Detail(ctx, ticker)
}

func (b *reloadingBackend) WhatIf(ctx context.Context, holdings []models.Holding, ticker string, quantity, price float64) (*models.ScenarioComparison, error) {
	return b.svc().WhatIf(ctx, holdings, ticker, quantity, price)
}

func (b *reloadingBackend) Universe(ctx context.Context) ([]string, error) {
	return b.svc().Universe(ctx)
}

func (b *reloadingBackend) SupportedExtensions() []string {
	return b.svc().SupportedExtensions()
}
