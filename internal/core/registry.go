package core

import (
	"sort"
	"sync"
	"time"
)

// Registry finds or creates rooms by identifier. The same identifier always
// resolves to the same live room.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	dispatcher *Dispatcher
	observer   Observer
	now        func() time.Time
}

// NewRegistry builds an empty registry whose rooms report to observer.
func NewRegistry(observer Observer) *Registry {
	return newRegistry(observer, time.Now)
}

func newRegistry(observer Observer, now func() time.Time) *Registry {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		dispatcher: NewDispatcher(observer),
		observer:   observer,
		now:        now,
	}
}

// Resolve returns the room for id, creating it on first use. A reaped room is
// replaced by a fresh one.
func (r *Registry) Resolve(id string) *Room {
	r.mu.Lock()
	if room, ok := r.rooms[id]; ok && !room.Closed() {
		r.mu.Unlock()
		return room
	}
	room := newRoom(id, r.dispatcher, r.now)
	r.rooms[id] = room
	r.mu.Unlock()

	r.observer.RoomOpened(id)
	return room
}

// Lookup returns the live room for id without creating it.
func (r *Registry) Lookup(id string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok || room.Closed() {
		return nil, false
	}
	return room, true
}

// Rooms lists live rooms ordered by identifier.
func (r *Registry) Rooms() []*Room {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if !room.Closed() {
			rooms = append(rooms, room)
		}
	}
	r.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// Len returns the number of rooms held by the registry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Reap closes and forgets rooms that stayed empty for at least ttl and returns
// their identifiers. The registry lock is never held while a room lock is.
func (r *Registry) Reap(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}

	r.mu.Lock()
	candidates := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		candidates = append(candidates, room)
	}
	r.mu.Unlock()

	now := r.now()
	var reaped []string
	for _, room := range candidates {
		if !room.closeIfIdle(now, ttl) {
			continue
		}

		r.mu.Lock()
		if r.rooms[room.ID] == room {
			delete(r.rooms, room.ID)
		}
		r.mu.Unlock()

		reaped = append(reaped, room.ID)
		r.observer.RoomReaped(room.ID)
	}
	sort.Strings(reaped)
	return reaped
}
