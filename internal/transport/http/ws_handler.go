package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wireboard-server/internal/config"
	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/metrics"
	"github.com/vovakirdan/wireboard-server/internal/proto"
	"github.com/vovakirdan/wireboard-server/internal/utils"
)

const (
	tracerName   = "github.com/vovakirdan/wireboard-server/internal/transport/http"
	writeTimeout = 10 * time.Second
)

var (
	errSlowConsumer = errors.New("slow consumer")
	errShuttingDown = errors.New("server shutting down")
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub     *core.Hub
	metrics *metrics.Collector
	log     *zerolog.Logger
	tracer  trace.Tracer

	maxMessageBytes int64
	sendBuffer      int
	ratePerSecond   float64
	rateBurst       int
	maxStrokeWidth  float64
	originPatterns  []string
	skipOriginCheck bool

	// ctx is cancelled by Close; write loops then close their connections.
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	conns  sync.WaitGroup
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, collector *metrics.Collector, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	patterns, skip := originPatterns(cfg.AllowedOrigins)
	ctx, cancel := context.WithCancel(context.Background())
	return &WSHandler{
		hub:             hub,
		metrics:         collector,
		log:             logger,
		tracer:          otel.Tracer(tracerName),
		maxMessageBytes: cfg.MaxMessageBytes,
		sendBuffer:      cfg.SendBuffer,
		ratePerSecond:   cfg.RateLimitPerSecond,
		rateBurst:       cfg.RateLimitBurst,
		maxStrokeWidth:  cfg.MaxStrokeWidth,
		originPatterns:  patterns,
		skipOriginCheck: skip,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Close stops accepting connections, closes the open ones and waits until
// every connection has left its room or ctx expires.
func (h *WSHandler) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers a connection unless the handler is closed.
func (h *WSHandler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns.Add(1)
	return true
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if !h.track() {
		stdhttp.Error(w, "server shutting down", stdhttp.StatusServiceUnavailable)
		return
	}
	defer h.conns.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.skipOriginCheck,
		OriginPatterns:     h.originPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), h.sendBuffer)
	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()
	defer h.hub.Disconnect(client)

	h.log.Debug().Str("conn_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.readLoop(ctx, conn, client) })
	g.Go(func() error { return h.writeLoop(ctx, conn, client) })
	err = g.Wait()

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errShuttingDown):
		return
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
	case errors.Is(err, errSlowConsumer):
		h.log.Warn().Str("conn_id", client.ID).Msg("ws client evicted as slow consumer")
		return
	default:
		s := websocket.CloseStatus(err)
		if s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway {
			break
		}
		status = websocket.StatusInternalError
		if s != -1 {
			status = s
		}
		reason = "connection error"
		h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.ratePerSecond, h.rateBurst)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			h.reject(client, badRequest("expected a text frame"))
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.reject(client, badRequest("malformed envelope"))
			continue
		}
		// Only pointer updates are shed: they are superseded by the next one.
		// Dropping a mutation would leave its author diverged.
		if inbound.Type == proto.InboundTypeCursorMove && !limiter.allow() {
			h.metrics.RateLimited()
			continue
		}
		h.handle(ctx, client, inbound)
	}
}

func (h *WSHandler) handle(ctx context.Context, client *core.Client, inbound proto.Inbound) {
	_, span := h.tracer.Start(ctx, "ws."+inbound.Type, trace.WithAttributes(
		attribute.String("wireboard.conn_id", client.ID),
		attribute.String("wireboard.message_type", inbound.Type),
	))
	defer span.End()

	cmd, protoErr := inboundToCommand(inbound, h.maxStrokeWidth)
	if protoErr != nil {
		span.SetStatus(codes.Error, protoErr.Code)
		h.reject(client, protoErr)
		return
	}

	err := h.hub.Handle(client, cmd)
	if roomID, lookupErr := h.hub.RoomOf(client.ID); lookupErr == nil {
		span.SetAttributes(attribute.String("wireboard.room", roomID))
	}
	switch {
	case err == nil:
	case core.Ignorable(err):
		h.log.Debug().Err(err).Str("conn_id", client.ID).Str("kind", cmd.Kind.String()).Msg("command ignored")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, core.ErrAlreadyBound) {
			h.metrics.Rejected(core.ErrCodeAlreadyJoined)
		} else {
			h.metrics.Rejected(core.ErrCodeBadRequest)
		}
		h.log.Debug().Err(err).Str("conn_id", client.ID).Str("kind", cmd.Kind.String()).Msg("command rejected")
	}
}

// reject answers the sender only, through its queue so it stays ordered with room events.
func (h *WSHandler) reject(client *core.Client, protoErr *proto.Error) {
	h.metrics.Rejected(protoErr.Code)
	client.Send(&core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: protoErr.Code, Message: protoErr.Msg},
	})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-client.Evicted():
			conn.Close(websocket.StatusPolicyViolation, "slow consumer")
			return errSlowConsumer
		case <-h.ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return errShuttingDown
		case event := <-client.Events:
			if err := h.write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, out proto.Outbound) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, out)
}
