package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireboard-server/internal/activity"
	"github.com/vovakirdan/wireboard-server/internal/config"
	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/discovery"
	"github.com/vovakirdan/wireboard-server/internal/metrics"
	"github.com/vovakirdan/wireboard-server/internal/store"
	"github.com/vovakirdan/wireboard-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wireboard-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *transporthttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store        // nil without database_path
	recorder        *activity.Recorder // nil without database_path
	mdns            config.MDNSConfig
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	collector := metrics.NewWithRuntime(metrics.DefaultNamespace)
	observers := core.Observers{collector}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		mdns:            cfg.MDNS,
		log:             logger,
	}

	// The journal is optional; a nil interface keeps the activity endpoint disabled.
	var activityStore store.ActivityStore
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("activity journal enabled")

		a.store = st
		a.recorder = activity.NewRecorder(st, cfg.ActivityBuffer, logger)
		activityStore = st
		observers = append(observers, a.recorder)
	}

	a.hub = core.NewHub(core.Options{
		Observer:     observers,
		Logger:       logger,
		RoomIdleTTL:  cfg.RoomIdleTTL,
		ReapInterval: cfg.ReapInterval,
	})
	a.server = transporthttp.NewServer(a.hub, activityStore, collector, cfg, logger)

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
// Shutdown order: HTTP server and WebSockets, activity recorder flush, store.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	recorderDone := make(chan struct{})
	if a.recorder != nil {
		go func() {
			defer close(recorderDone)
			_ = a.recorder.Run(recorderCtx)
		}()
	} else {
		close(recorderDone)
	}
	defer func() {
		stopRecorder()
		<-recorderDone
		a.cleanup()
	}()

	if a.mdns.Enabled {
		if adv := a.advertise(); adv != nil {
			defer adv.Shutdown()
		}
	}

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-serverErr
	}
}

// advertise failures are logged, never fatal.
func (a *App) advertise() *discovery.Advertiser {
	port, err := discovery.PortFromAddr(a.server.Addr)
	if err != nil {
		a.log.Warn().Err(err).Msg("mdns disabled")
		return nil
	}
	adv, err := discovery.Advertise(a.mdns.Instance, port, []string{"path=/ws"})
	if err != nil {
		a.log.Warn().Err(err).Msg("mdns disabled")
		return nil
	}
	a.log.Info().Str("service", discovery.ServiceType).Int("port", port).Msg("mdns advertisement started")
	return adv
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.recorder != nil {
		if dropped := a.recorder.Dropped(); dropped > 0 {
			a.log.Warn().Int64("dropped", dropped).Msg("activity records dropped")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
