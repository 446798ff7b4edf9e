package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/internal/config"
	"github.com/fastygo/taskflow/internal/infrastructure/journal"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/internal/router"
	"github.com/fastygo/taskflow/internal/services"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
	authUC "github.com/fastygo/taskflow/usecase/auth"
	"github.com/fastygo/taskflow/usecase/taskstore"
	"github.com/fastygo/taskflow/usecase/workspace"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return fmt.Errorf("invalid --addr: %w", err)
				}
				if host != "" {
					cfg.HTTP.Host = host
				}
				cfg.HTTP.Port = port
			}
			return runServer(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides SERVER_HOST and SERVER_PORT")
	return cmd
}

func runServer(cfg *config.Config) error {
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	shutdown := func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			zapLogger.Error("graceful shutdown error", zap.Error(err))
		}
	}

	store, err := openBackend(appCtx, cfg, manager, zapLogger)
	if err != nil {
		shutdown()
		return err
	}

	awardJournal, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		shutdown()
		return fmt.Errorf("award journal: %w", err)
	}
	manager.RegisterCloser("journal", awardJournal)

	registry := workspace.NewRegistry(workspace.Dependencies{
		Tasks:    store.tasks,
		Profiles: store.profiles,
		Feed:     store.feed,
		Journal:  awardJournal,
	}, workspace.Settings{
		Rewards: taskstore.Rewards{
			Completion: cfg.Rewards.CompletionPoints,
			Session:    cfg.Rewards.SessionPoints,
		},
		FocusDuration:    cfg.Focus.Duration,
		FocusTick:        cfg.Focus.Tick,
		PersistTimeout:   cfg.Workspace.PersistTimeout,
		ReconcileTimeout: cfg.Workspace.ReconcileTimeout,
	}, zapLogger)
	manager.Register("workspaces", registry.Close)

	mon := monitor.New(monitor.Options{
		Driver:     cfg.Storage.Driver,
		Database:   store.database,
		Redis:      store.redis,
		Journal:    awardJournal,
		Workspaces: registry,
		Interval:   10 * time.Second,
	}, zapLogger)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	janitor, err := services.NewJanitor(registry, awardJournal, services.JanitorConfig{
		Schedule:         cfg.Workspace.JanitorSchedule,
		IdleTTL:          cfg.Workspace.IdleTTL,
		JournalRetention: cfg.JournalRetention(),
	}, zapLogger)
	if err != nil {
		shutdown()
		return fmt.Errorf("janitor: %w", err)
	}
	janitor.Start()
	manager.Register("janitor", janitor.Stop)

	authUseCase := authUC.New(store.users, store.sessions, store.profiles, registry, authUC.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	}, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:      apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:   apiHandler.NewProfileHandler(registry, ctxAdapter, zapLogger),
		Task:      apiHandler.NewTaskHandler(registry, ctxAdapter, zapLogger),
		Focus:     apiHandler.NewFocusHandler(registry, ctxAdapter, zapLogger),
		Dashboard: apiHandler.NewDashboardHandler(registry, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Strings("components", manager.Components()))
		serverErr <- server.ListenAndServe(cfg.Address())
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	select {
	case <-appCtx.Done():
	case err = <-serverErr:
		zapLogger.Error("server stopped unexpectedly", zap.Error(err))
	}

	shutdown()
	return err
}
