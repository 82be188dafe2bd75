// Package activity journals room lifecycle events to a store without blocking rooms.
package activity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/store"
)

// DefaultBuffer is the queue size used when none is configured.
const DefaultBuffer = 1024

// flushTimeout bounds the final drain on shutdown.
const flushTimeout = 5 * time.Second

// Recorder implements core.Observer. Callbacks only enqueue; Run writes to the store.
// A full queue drops records.
type Recorder struct {
	store   store.ActivityStore
	queue   chan *store.Activity
	log     *zerolog.Logger
	now     func() time.Time
	dropped atomic.Int64
}

var _ core.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder writing to s.
func NewRecorder(s store.ActivityStore, buffer int, logger *zerolog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Recorder{
		store: s,
		queue: make(chan *store.Activity, buffer),
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run writes queued records until ctx is cancelled, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return nil
		case a := <-r.queue:
			r.save(ctx, a)
		}
	}
}

// Dropped reports how many records were lost to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case a := <-r.queue:
			r.save(ctx, a)
		default:
			return
		}
	}
}

func (r *Recorder) save(ctx context.Context, a *store.Activity) {
	if err := r.store.SaveActivity(ctx, a); err != nil {
		r.log.Error().Err(err).Str("room", a.RoomID).Str("kind", string(a.Kind)).Msg("failed to save activity")
	}
}

func (r *Recorder) enqueue(a *store.Activity) {
	a.CreatedAt = r.now()
	select {
	case r.queue <- a:
	default:
		if r.dropped.Add(1) == 1 {
			r.log.Warn().Str("room", a.RoomID).Msg("activity queue full, dropping records")
		}
	}
}

func (r *Recorder) RoomOpened(room string) {
	r.enqueue(&store.Activity{RoomID: room, Kind: store.ActivityRoomOpened})
}

func (r *Recorder) RoomReaped(room string) {
	r.enqueue(&store.Activity{RoomID: room, Kind: store.ActivityRoomReaped})
}

func (r *Recorder) MemberJoined(room string, m core.Member) {
	r.enqueue(&store.Activity{RoomID: room, ConnID: m.ConnID, UserName: m.DisplayName, Kind: store.ActivityJoined})
}

func (r *Recorder) MemberLeft(room, connID string) {
	r.enqueue(&store.Activity{RoomID: room, ConnID: connID, Kind: store.ActivityLeft})
}

func (r *Recorder) CommandApplied(room string, kind core.CommandKind) {
	if kind == core.CommandClear {
		r.enqueue(&store.Activity{RoomID: room, Kind: store.ActivityCleared})
	}
}

func (r *Recorder) DeliveryDropped(string, string) {}
