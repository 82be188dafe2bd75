package core

import (
	"sync"
	"sync/atomic"
	"time"
)

type roomMember struct {
	Member
	client *Client
}

// Room owns one stroke history, one undo stack and one membership table.
// Every mutation happens under mu, and so does the enqueue of the resulting
// events: each member observes events in exactly the order they were applied.
type Room struct {
	ID string

	mu         sync.Mutex
	members    map[string]*roomMember
	order      []string // join order, keeps member lists stable
	history    []Stroke
	undo       []Stroke
	lastActive time.Time

	closed     atomic.Bool
	dispatcher *Dispatcher
	now        func() time.Time
}

// Snapshot is a copy of a room's state, safe to hand to callers.
type Snapshot struct {
	ID         string
	History    []Stroke
	Members    []Member
	CanUndo    bool
	CanRedo    bool
	UndoDepth  int
	LastActive time.Time
}

// RoomSummary is a cheap view of a room used for listings.
type RoomSummary struct {
	ID         string
	Members    int
	Strokes    int
	CanUndo    bool
	CanRedo    bool
	LastActive time.Time
}

// NewRoom constructs an empty room that delivers events through d.
func NewRoom(id string, d *Dispatcher) *Room {
	return newRoom(id, d, time.Now)
}

func newRoom(id string, d *Dispatcher, now func() time.Time) *Room {
	if d == nil {
		d = NewDispatcher(nil)
	}
	return &Room{
		ID:         id,
		members:    make(map[string]*roomMember),
		dispatcher: d,
		now:        now,
		lastActive: now(),
	}
}

// Join adds c as a member. The joiner receives the snapshot first, then
// existing members learn about it, then everyone gets the new member list.
func (r *Room) Join(c *Client, displayName, color string) (Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return Member{}, errRoomClosed
	}
	if _, exists := r.members[c.ID]; exists {
		return Member{}, ErrAlreadyBound
	}

	history := r.historyLocked()

	m := &roomMember{
		Member: Member{ConnID: c.ID, DisplayName: displayName, Color: color},
		client: c,
	}
	r.members[c.ID] = m
	r.order = append(r.order, c.ID)
	r.lastActive = r.now()

	members := r.membersLocked()
	clients := r.clientsLocked()
	joined := m.Member

	r.dispatcher.Deliver(r.ID, c, &Event{
		Kind:    EventLoadHistory,
		Room:    r.ID,
		History: history,
		Members: members,
		CanUndo: len(history) > 0,
		CanRedo: len(r.undo) > 0,
	})
	r.dispatcher.Broadcast(r.ID, clients, &Event{
		Kind:   EventUserJoined,
		Room:   r.ID,
		ConnID: c.ID,
		Member: &joined,
	}, c.ID)
	r.dispatcher.Broadcast(r.ID, clients, &Event{
		Kind:    EventUpdateUsers,
		Room:    r.ID,
		Members: members,
	}, "")

	return joined, nil
}

// Draw appends s to the history and discards the undo stack.
func (r *Room) Draw(s Stroke) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[s.AuthorID]; !ok {
		return ErrNotBound
	}

	r.history = append(r.history, s)
	r.undo = nil
	r.lastActive = r.now()

	stroke := s
	r.dispatcher.Broadcast(r.ID, r.clientsLocked(), &Event{
		Kind:   EventDraw,
		Room:   r.ID,
		ConnID: s.AuthorID,
		Stroke: &stroke,
	}, s.AuthorID)
	return nil
}

// CursorMove records the pointer position of connID and relays it.
func (r *Room) CursorMove(connID string, p Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return ErrNotBound
	}
	m.Cursor = p
	r.lastActive = r.now()

	member := m.Member
	r.dispatcher.Broadcast(r.ID, r.clientsLocked(), &Event{
		Kind:   EventCursorMove,
		Room:   r.ID,
		ConnID: connID,
		Member: &member,
	}, connID)
	return nil
}

// Undo removes the most recent stroke authored by connID, leaving every other
// stroke in place, and moves it onto the undo stack.
func (r *Room) Undo(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; !ok {
		return ErrNotBound
	}

	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].AuthorID != connID {
			continue
		}
		removed := r.history[i]
		r.history = append(r.history[:i], r.history[i+1:]...)
		r.undo = append(r.undo, removed)
		r.lastActive = r.now()
		r.broadcastHistoryLocked(EventUndo)
		return nil
	}
	return ErrEmptyHistory
}

// Redo pops the most recently undone stroke, whoever undid it, and appends it
// at the end of the history.
func (r *Room) Redo(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; !ok {
		return ErrNotBound
	}
	if len(r.undo) == 0 {
		return ErrEmptyUndoStack
	}

	last := len(r.undo) - 1
	restored := r.undo[last]
	r.undo = r.undo[:last]
	r.history = append(r.history, restored)
	r.lastActive = r.now()
	r.broadcastHistoryLocked(EventRedo)
	return nil
}

// Clear drops the history and the undo stack.
func (r *Room) Clear(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[connID]; !ok {
		return ErrNotBound
	}

	r.history = nil
	r.undo = nil
	r.lastActive = r.now()

	r.dispatcher.Broadcast(r.ID, r.clientsLocked(), &Event{
		Kind:   EventClear,
		Room:   r.ID,
		ConnID: connID,
	}, "")
	return nil
}

// Leave removes connID. It returns false if connID was not a member.
func (r *Room) Leave(connID string) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return Member{}, false
	}
	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.lastActive = r.now()

	if len(r.members) > 0 {
		clients := r.clientsLocked()
		r.dispatcher.Broadcast(r.ID, clients, &Event{
			Kind:   EventUserLeft,
			Room:   r.ID,
			ConnID: connID,
		}, "")
		r.dispatcher.Broadcast(r.ID, clients, &Event{
			Kind:    EventUpdateUsers,
			Room:    r.ID,
			Members: r.membersLocked(),
		}, "")
	}
	return m.Member, true
}

// Snapshot returns a copy of the room state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		ID:         r.ID,
		History:    r.historyLocked(),
		Members:    r.membersLocked(),
		CanUndo:    len(r.history) > 0,
		CanRedo:    len(r.undo) > 0,
		UndoDepth:  len(r.undo),
		LastActive: r.lastActive,
	}
}

// Summary returns counters describing the room.
func (r *Room) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RoomSummary{
		ID:         r.ID,
		Members:    len(r.members),
		Strokes:    len(r.history),
		CanUndo:    len(r.history) > 0,
		CanRedo:    len(r.undo) > 0,
		LastActive: r.lastActive,
	}
}

// Closed reports whether the room was reaped.
func (r *Room) Closed() bool {
	return r.closed.Load()
}

// closeIfIdle marks the room closed when it has no members and saw no
// activity for at least ttl. A closed room rejects joins.
func (r *Room) closeIfIdle(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return false
	}
	if len(r.members) > 0 || now.Sub(r.lastActive) < ttl {
		return false
	}
	r.closed.Store(true)
	return true
}

func (r *Room) broadcastHistoryLocked(kind EventKind) {
	r.dispatcher.Broadcast(r.ID, r.clientsLocked(), &Event{
		Kind:    kind,
		Room:    r.ID,
		History: r.historyLocked(),
		CanUndo: len(r.history) > 0,
		CanRedo: len(r.undo) > 0,
	}, "")
}

func (r *Room) historyLocked() []Stroke {
	history := make([]Stroke, len(r.history))
	copy(history, r.history)
	return history
}

func (r *Room) membersLocked() []Member {
	members := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		members = append(members, r.members[id].Member)
	}
	return members
}

func (r *Room) clientsLocked() []*Client {
	clients := make([]*Client, 0, len(r.order))
	for _, id := range r.order {
		clients = append(clients, r.members[id].client)
	}
	return clients
}
