package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the connection to a room.
	CommandJoinRoom CommandKind = iota
	// CommandDraw appends a stroke to the room history.
	CommandDraw
	// CommandCursorMove updates the sender's pointer position.
	CommandCursorMove
	// CommandUndo removes the sender's most recent stroke.
	CommandUndo
	// CommandRedo restores the most recently undone stroke.
	CommandRedo
	// CommandClear empties history and undo stack.
	CommandClear
	// CommandLeaveRoom unbinds the connection without disconnecting.
	CommandLeaveRoom
)

var commandNames = [...]string{
	CommandJoinRoom:   "join_room",
	CommandDraw:       "draw",
	CommandCursorMove: "cursor_move",
	CommandUndo:       "undo",
	CommandRedo:       "redo",
	CommandClear:      "clear_canvas",
	CommandLeaveRoom:  "leave_room",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[k]
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	// Room, DisplayName and Color are used by CommandJoinRoom.
	Room        string
	DisplayName string
	Color       string
	// Stroke is used by CommandDraw; AuthorID is overwritten with the sender.
	Stroke Stroke
	// Cursor is used by CommandCursorMove.
	Cursor Point
}
