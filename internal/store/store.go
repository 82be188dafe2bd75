package store

import (
	"context"
	"time"
)

// ActivityKind names a journaled room event.
type ActivityKind string

const (
	ActivityRoomOpened ActivityKind = "room_opened"
	ActivityJoined     ActivityKind = "joined"
	ActivityLeft       ActivityKind = "left"
	ActivityCleared    ActivityKind = "cleared"
	ActivityRoomReaped ActivityKind = "room_reaped"
)

// Activity is one audit record. It is never used to rebuild room state.
type Activity struct {
	ID        int64
	RoomID    string
	ConnID    string // empty for room-level events
	UserName  string
	Kind      ActivityKind
	CreatedAt time.Time
}

// ActivityStore handles activity persistence.
type ActivityStore interface {
	// SaveActivity appends a record. ID and CreatedAt are filled in when zero.
	SaveActivity(ctx context.Context, a *Activity) error

	// ListActivity returns up to limit most recent records of a room, newest first.
	ListActivity(ctx context.Context, roomID string, limit int) ([]*Activity, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	ActivityStore

	// Close closes the underlying database connection.
	Close() error
}
