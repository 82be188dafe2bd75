package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireboard-server/internal/utils"
)

// DefaultReapInterval is used when room reaping is enabled without an interval.
const DefaultReapInterval = time.Minute

// Options configures a Hub.
type Options struct {
	Observer Observer
	Logger   *zerolog.Logger
	// RoomIdleTTL enables reaping of rooms that stayed empty this long. Zero keeps rooms forever.
	RoomIdleTTL  time.Duration
	ReapInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Hub routes client commands to rooms. Commands for different rooms run in
// parallel; commands for one room are serialised by that room.
type Hub struct {
	registry *Registry
	sessions *SessionTable
	observer Observer
	log      *zerolog.Logger

	roomIdleTTL  time.Duration
	reapInterval time.Duration
	now          func() time.Time
}

// NewHub creates a new hub instance.
func NewHub(opts Options) *Hub {
	observer := opts.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.ReapInterval
	if interval <= 0 {
		interval = DefaultReapInterval
	}

	return &Hub{
		registry:     newRegistry(observer, now),
		sessions:     NewSessionTable(),
		observer:     observer,
		log:          logger,
		roomIdleTTL:  opts.RoomIdleTTL,
		reapInterval: interval,
		now:          now,
	}
}

// Run reaps idle rooms until ctx is cancelled. Without a room TTL it only waits.
func (h *Hub) Run(ctx context.Context) {
	if h.roomIdleTTL <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(h.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Reap()
		}
	}
}

// Reap drops rooms that stayed empty longer than the configured TTL.
func (h *Hub) Reap() []string {
	reaped := h.registry.Reap(h.roomIdleTTL)
	for _, id := range reaped {
		h.log.Info().Str("room", id).Msg("room reaped")
	}
	return reaped
}

// Handle applies cmd on behalf of c. Errors satisfying Ignorable are expected
// races and must not be surfaced; the rest were already reported to c.
func (h *Hub) Handle(c *Client, cmd *Command) error {
	switch cmd.Kind {
	case CommandJoinRoom:
		return h.join(c, cmd)
	case CommandLeaveRoom:
		return h.leave(c.ID)
	}

	room, err := h.roomOf(c.ID)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case CommandDraw:
		stroke := cmd.Stroke
		stroke.AuthorID = c.ID
		if stroke.Timestamp == 0 {
			stroke.Timestamp = h.now().UnixMilli()
		}
		err = room.Draw(stroke)
	case CommandCursorMove:
		err = room.CursorMove(c.ID, cmd.Cursor)
	case CommandUndo:
		err = room.Undo(c.ID)
	case CommandRedo:
		err = room.Redo(c.ID)
	case CommandClear:
		err = room.Clear(c.ID)
	default:
		c.Send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
		return ErrBadRequest
	}
	if err != nil {
		return err
	}

	h.observer.CommandApplied(room.ID, cmd.Kind)
	return nil
}

// Disconnect removes c from its room. It is safe to call any number of times,
// including for a client that never joined.
func (h *Hub) Disconnect(c *Client) {
	if err := h.leave(c.ID); err != nil && !errors.Is(err, ErrNotBound) {
		h.log.Warn().Err(err).Str("conn_id", c.ID).Msg("disconnect cleanup")
	}
}

// Rooms summarises every live room.
func (h *Hub) Rooms() []RoomSummary {
	rooms := h.registry.Rooms()
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	return summaries
}

// Snapshot returns a copy of the state of room id.
func (h *Hub) Snapshot(id string) (Snapshot, bool) {
	room, ok := h.registry.Lookup(id)
	if !ok {
		return Snapshot{}, false
	}
	return room.Snapshot(), true
}

// RoomOf returns the room id bound to connID.
func (h *Hub) RoomOf(connID string) (string, error) {
	return h.sessions.Lookup(connID)
}

func (h *Hub) join(c *Client, cmd *Command) error {
	if cmd.Room == "" {
		c.Send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "room is required")})
		return ErrBadRequest
	}
	if err := h.sessions.Bind(c.ID, cmd.Room); err != nil {
		c.Send(&Event{Kind: EventError, Room: cmd.Room, Error: coreError(ErrCodeAlreadyJoined, "already joined a room")})
		return err
	}

	name := cmd.DisplayName
	if name == "" {
		name = c.ID
	}
	color := cmd.Color
	if color == "" {
		color = utils.RandomColor()
	}

	for {
		room := h.registry.Resolve(cmd.Room)
		member, err := room.Join(c, name, color)
		if errors.Is(err, errRoomClosed) {
			// Reaped between resolve and join; the next resolve creates a fresh room.
			continue
		}
		if err != nil {
			h.sessions.Unbind(c.ID)
			return err
		}

		h.observer.MemberJoined(room.ID, member)
		h.observer.CommandApplied(room.ID, CommandJoinRoom)
		return nil
	}
}

func (h *Hub) leave(connID string) error {
	roomID, ok := h.sessions.Take(connID)
	if !ok {
		return ErrNotBound
	}
	room, ok := h.registry.Lookup(roomID)
	if !ok {
		return ErrNotBound
	}
	if _, left := room.Leave(connID); !left {
		return ErrNotBound
	}

	h.observer.MemberLeft(room.ID, connID)
	h.observer.CommandApplied(room.ID, CommandLeaveRoom)
	return nil
}

func (h *Hub) roomOf(connID string) (*Room, error) {
	roomID, err := h.sessions.Lookup(connID)
	if err != nil {
		return nil, err
	}
	room, ok := h.registry.Lookup(roomID)
	if !ok {
		return nil, ErrNotBound
	}
	return room, nil
}
