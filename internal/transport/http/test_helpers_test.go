package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireboard-server/internal/config"
	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/proto"
	"github.com/vovakirdan/wireboard-server/internal/store"
	"github.com/vovakirdan/wireboard-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

// startTestServer runs a hub behind an httptest server. st may be nil.
func startTestServer(t *testing.T, cfg config.Config, st store.ActivityStore) (*httptest.Server, *core.Hub, *Server) {
	t.Helper()

	disabledLogger := zerolog.New(nil)
	hub := core.NewHub(core.Options{Logger: &disabledLogger})

	server := NewServer(hub, st, nil, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub, server
}

// wireOutbound mirrors proto.Outbound with undecoded data.
type wireOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dial(ctx context.Context, t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	inbound := proto.Inbound{Type: typ}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s: %v", typ, err)
		}
		inbound.Data = payload
	}
	if err := wsjson.Write(ctx, conn, inbound); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// expectEvent reads the next frame and requires it to be the named event.
// When into is non-nil the data is decoded into it.
func expectEvent(ctx context.Context, t *testing.T, conn *websocket.Conn, event string, into any) {
	t.Helper()

	var out wireOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read %s: %v", event, err)
	}
	if out.Type != proto.OutboundTypeEvent || out.Event != event {
		t.Fatalf("expected event %s, got %s/%s (error %+v)", event, out.Type, out.Event, out.Error)
	}
	if into != nil {
		if err := json.Unmarshal(out.Data, into); err != nil {
			t.Fatalf("unmarshal %s data: %v", event, err)
		}
	}
}

// expectError reads the next frame and requires an error with code.
func expectError(ctx context.Context, t *testing.T, conn *websocket.Conn, code string) {
	t.Helper()

	var out wireOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read error %s: %v", code, err)
	}
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != code {
		t.Fatalf("expected %s error, got %+v", code, out)
	}
}

// joinRoom joins and consumes the joiner's own load_history and update_users.
func joinRoom(ctx context.Context, t *testing.T, conn *websocket.Conn, room, user, color string) proto.EventLoadHistoryData {
	t.Helper()

	send(ctx, t, conn, proto.InboundTypeJoin, proto.JoinRoomData{RoomID: room, UserName: user, Color: color})

	var snapshot proto.EventLoadHistoryData
	expectEvent(ctx, t, conn, proto.EventLoadHistory, &snapshot)
	expectEvent(ctx, t, conn, proto.EventUpdateUsers, nil)
	return snapshot
}
