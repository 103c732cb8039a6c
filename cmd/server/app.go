package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"kioskpanel/internal/api"
	"kioskpanel/internal/config"
	"kioskpanel/internal/handlers"
	"kioskpanel/internal/log"
	"kioskpanel/internal/remote"
	"kioskpanel/internal/service"
	"kioskpanel/web"
)

const minShutdownGrace = 30 * time.Second

// shutdownGrace lets in-flight requests, status polls included, run up to
// the server write timeout before shutdown gives up on them.
func shutdownGrace(writeTimeout time.Duration) time.Duration {
	grace := writeTimeout + 5*time.Second
	if grace < minShutdownGrace {
		return minShutdownGrace
	}
	return grace
}

// app holds the wiring shared by every subcommand.
type app struct {
	viper      *viper.Viper
	configFile string

	cfg     *config.Config
	logger  log.Logger
	catalog *config.CatalogStore
	control *service.ControlService
	status  *service.StatusService
}

func newApp() *app {
	return &app{viper: viper.New()}
}

func (a *app) init(cmd *cobra.Command) error {
	if a.configFile != "" {
		a.viper.SetConfigFile(a.configFile)
	}

	cfg, err := config.Load(a.viper, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	a.cfg = cfg
	a.logger = log.Std()

	catalog := config.DefaultCatalog()
	if cfg.ActionsFile != "" {
		if catalog, err = config.LoadCatalog(cfg.ActionsFile); err != nil {
			return fmt.Errorf("failed to load action catalog: %w", err)
		}
	}
	a.catalog = config.NewCatalogStore(catalog)

	transport, err := remote.NewTransport(remote.TransportOptions{
		Kind:           cfg.Remote.Transport,
		Host:           cfg.Remote.Host,
		User:           cfg.Remote.User,
		KeyPath:        cfg.Remote.KeyPath,
		ConnectTimeout: cfg.Remote.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}
	runner := remote.NewExecutor(transport, a.logger)

	journal := service.NewJournal(service.DefaultHistorySize)
	a.control = service.NewControlService(runner, a.catalog, journal, cfg.Dashboard.URL, a.logger)
	a.status = service.NewStatusService(runner, a.catalog, cfg.Dashboard.URL, cfg.Remote.WifiInterface, a.logger)
	return nil
}

// serve runs the HTTP server and, when an actions file is set, the catalog
// watcher until ctx is cancelled or one of them fails.
func (a *app) serve(ctx context.Context) error {
	defer a.logger.Sync() //nolint:errcheck

	router, err := api.NewRouter(api.Options{
		Control:   a.control,
		Status:    a.status,
		Templates: web.Templates(),
		Static:    web.Assets(),
		Page: handlers.PageSettings{
			RemoteHost:   a.cfg.Remote.Host,
			DashboardURL: a.cfg.Dashboard.URL,
			AuthEnabled:  a.cfg.Auth.Enabled,
		},
		Auth:   a.cfg.Auth,
		Logger: a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting kiosk control panel",
			"addr", srv.Addr,
			"remote", a.cfg.Remote.Host,
			"transport", a.cfg.Remote.Transport,
			"auth", a.cfg.Auth.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace(srv.WriteTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.ActionsFile != "" {
		g.Go(func() error {
			return a.catalog.Watch(ctx, a.cfg.ActionsFile, a.logger.WithName("catalog"))
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("server exited gracefully")
	return nil
}
