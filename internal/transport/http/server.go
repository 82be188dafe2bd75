package http

import (
	"context"
	"errors"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireboard-server/internal/config"
	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/metrics"
	"github.com/vovakirdan/wireboard-server/internal/store"
)

// Server is an HTTP server whose Shutdown also closes hijacked WebSocket
// connections, which net/http does not track.
type Server struct {
	*stdhttp.Server
	ws *WSHandler
}

// NewServer builds an HTTP server with the WebSocket endpoint, the room API and
// metrics. st may be nil when the activity journal is disabled; collector may
// be nil in tests.
func NewServer(hub *core.Hub, st store.ActivityStore, collector *metrics.Collector, cfg *config.Config, logger *zerolog.Logger) *Server {
	if collector == nil {
		collector = metrics.New(prometheus.NewRegistry(), metrics.DefaultNamespace)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(collector.Handler()))

	rooms := NewRoomHandlers(hub, st, logger)
	api := router.Group("/api")
	{
		api.GET("/rooms", rooms.ListRooms)
		api.GET("/rooms/:id", rooms.GetRoom)
		api.GET("/rooms/:id/activity", rooms.ListActivity)
		api.GET("/rooms/:id/export.pdf", rooms.ExportPDF)
	}

	// The WebSocket handler sits beside gin, not behind it: gin's writer
	// refuses to hijack once the upgrade headers are flushed.
	ws := NewWSHandler(hub, collector, cfg, logger)
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &Server{
		Server: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		ws: ws,
	}
}

// Shutdown stops the listener, waits for HTTP requests, then closes every
// WebSocket and waits for it to leave its room.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	return errors.Join(err, s.ws.Close(ctx))
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
