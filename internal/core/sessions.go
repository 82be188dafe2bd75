package core

import "sync"

// SessionTable maps a connection to the room it joined.
type SessionTable struct {
	mu       sync.RWMutex
	bindings map[string]string
}

// NewSessionTable returns an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{bindings: make(map[string]string)}
}

// Bind records that connID joined roomID. A connection holds at most one binding.
func (t *SessionTable) Bind(connID, roomID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.bindings[connID]; exists {
		return ErrAlreadyBound
	}
	t.bindings[connID] = roomID
	return nil
}

// Lookup returns the room bound to connID.
func (t *SessionTable) Lookup(connID string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roomID, ok := t.bindings[connID]
	if !ok {
		return "", ErrNotBound
	}
	return roomID, nil
}

// Unbind drops the binding of connID if there is one.
func (t *SessionTable) Unbind(connID string) {
	t.mu.Lock()
	delete(t.bindings, connID)
	t.mu.Unlock()
}

// Take removes and returns the binding of connID. Only one of several
// concurrent callers gets ok == true.
func (t *SessionTable) Take(connID string) (roomID string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	roomID, ok = t.bindings[connID]
	if ok {
		delete(t.bindings, connID)
	}
	return roomID, ok
}

// Len returns the number of bound connections.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bindings)
}
