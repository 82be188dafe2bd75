package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin       = "join_room"
	InboundTypeLeave      = "leave_room"
	InboundTypeDraw       = "draw"
	InboundTypeCursorMove = "cursor_move"
	InboundTypeUndo       = "undo"
	InboundTypeRedo       = "redo"
	InboundTypeClear      = "clear_canvas"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventLoadHistory = "load_history"
	EventDraw        = "draw"
	EventCursorMove  = "cursor_move"
	EventUndo        = "undo"
	EventRedo        = "redo"
	EventClear       = "clear_canvas"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventUpdateUsers = "update_users"
)

// JoinRoomData requests to join a room.
type JoinRoomData struct {
	RoomID   string `json:"roomId" validate:"required,max=128"`
	UserName string `json:"userName" validate:"max=64"`
	Color    string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Protocol int    `json:"protocol,omitempty"`
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style describes stroke paint.
type Style struct {
	Color string  `json:"color" validate:"required,max=32"`
	Width float64 `json:"width" validate:"gt=0"`
}

// Stroke is a drawn segment. AuthorID is ignored on input and set by the server.
type Stroke struct {
	Start     Point  `json:"start"`
	End       Point  `json:"end"`
	Style     Style  `json:"style"`
	AuthorID  string `json:"authorId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty" validate:"gte=0"`
}

// CursorData is a pointer position update.
type CursorData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// User is a room member as shown to clients.
type User struct {
	ConnectionID string  `json:"connectionId"`
	DisplayName  string  `json:"displayName"`
	Color        string  `json:"color"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

// EventLoadHistoryData is sent once to a joining client.
type EventLoadHistoryData struct {
	History []Stroke `json:"history"`
	Users   []User   `json:"users"`
}

// EventHistoryData carries the full history after undo or redo.
type EventHistoryData struct {
	History []Stroke `json:"history"`
	CanUndo bool     `json:"canUndo"`
	CanRedo bool     `json:"canRedo"`
}

// EventCursorData relays another member's pointer.
type EventCursorData struct {
	ConnectionID string  `json:"connectionId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	DisplayName  string  `json:"displayName"`
}

// EventUserJoinedData notifies that a user joined the room.
type EventUserJoinedData struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	Color        string `json:"color"`
}

// EventUserLeftData notifies that a user left the room.
type EventUserLeftData struct {
	ConnectionID string `json:"connectionId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
