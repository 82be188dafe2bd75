package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventLoadHistory delivers the room snapshot to a joining client.
	EventLoadHistory EventKind = iota
	// EventDraw relays a stroke to everyone but its author.
	EventDraw
	// EventCursorMove relays a pointer position to everyone but its owner.
	EventCursorMove
	// EventUndo carries the full history after an undo.
	EventUndo
	// EventRedo carries the full history after a redo.
	EventRedo
	// EventClear tells every member the canvas is empty.
	EventClear
	// EventUserJoined notifies existing members about a newcomer.
	EventUserJoined
	// EventUserLeft notifies remaining members that someone left.
	EventUserLeft
	// EventUpdateUsers carries the full member list.
	EventUpdateUsers
	// EventError notifies a single client about a rejected request.
	EventError
)

var eventNames = [...]string{
	EventLoadHistory: "load_history",
	EventDraw:        "draw",
	EventCursorMove:  "cursor_move",
	EventUndo:        "undo",
	EventRedo:        "redo",
	EventClear:       "clear_canvas",
	EventUserJoined:  "user_joined",
	EventUserLeft:    "user_left",
	EventUpdateUsers: "update_users",
	EventError:       "error",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to clients to describe what happened in a room.
// Slices are shared between recipients and must be treated as read-only.
type Event struct {
	Kind    EventKind
	Room    string
	ConnID  string  // subject of presence events
	Member  *Member // EventUserJoined, EventCursorMove
	Members []Member
	History []Stroke
	Stroke  *Stroke
	CanUndo bool
	CanRedo bool
	Error   *CoreError
}
