package http

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/export"
	"github.com/vovakirdan/wireboard-server/internal/proto"
	"github.com/vovakirdan/wireboard-server/internal/store"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// RoomHandlers provides read-only HTTP handlers for live rooms.
type RoomHandlers struct {
	hub   *core.Hub
	store store.ActivityStore // nil when the journal is disabled
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, st store.ActivityStore, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:   hub,
		store: st,
		log:   logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomSummaryResponse represents a room in listings.
type RoomSummaryResponse struct {
	ID         string `json:"id"`
	Members    int    `json:"members"`
	Strokes    int    `json:"strokes"`
	CanUndo    bool   `json:"canUndo"`
	CanRedo    bool   `json:"canRedo"`
	LastActive string `json:"lastActive"`
}

// ListRoomsResponse represents the room list response.
type ListRoomsResponse struct {
	Rooms []RoomSummaryResponse `json:"rooms"`
}

// RoomResponse is a snapshot of one room.
type RoomResponse struct {
	ID         string         `json:"id"`
	History    []proto.Stroke `json:"history"`
	Users      []proto.User   `json:"users"`
	CanUndo    bool           `json:"canUndo"`
	CanRedo    bool           `json:"canRedo"`
	LastActive string         `json:"lastActive"`
}

// ActivityResponse represents one journal record.
type ActivityResponse struct {
	ID           int64  `json:"id"`
	ConnectionID string `json:"connectionId,omitempty"`
	UserName     string `json:"userName,omitempty"`
	Kind         string `json:"kind"`
	CreatedAt    string `json:"createdAt"`
}

// ListActivityResponse represents the activity list response.
type ListActivityResponse struct {
	Activity []ActivityResponse `json:"activity"`
}

// ListRooms lists live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	summaries := h.hub.Rooms()
	resp := ListRoomsResponse{Rooms: make([]RoomSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Rooms = append(resp.Rooms, RoomSummaryResponse{
			ID:         s.ID,
			Members:    s.Members,
			Strokes:    s.Strokes,
			CanUndo:    s.CanUndo,
			CanRedo:    s.CanRedo,
			LastActive: s.LastActive.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// GetRoom returns the history and members of a room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	snap, ok := h.hub.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{
		ID:         snap.ID,
		History:    strokesToProto(snap.History),
		Users:      usersToProto(snap.Members),
		CanUndo:    snap.CanUndo,
		CanRedo:    snap.CanRedo,
		LastActive: snap.LastActive.UTC().Format(time.RFC3339),
	})
}

// ListActivity returns the journal of a room, newest first.
// GET /api/rooms/:id/activity?limit=50
func (h *RoomHandlers) ListActivity(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "activity journal is disabled"})
		return
	}

	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxActivityLimit)
	}

	roomID := c.Param("id")
	records, err := h.store.ListActivity(c.Request.Context(), roomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to list activity")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := ListActivityResponse{Activity: make([]ActivityResponse, 0, len(records))}
	for _, a := range records {
		resp.Activity = append(resp.Activity, ActivityResponse{
			ID:           a.ID,
			ConnectionID: a.ConnID,
			UserName:     a.UserName,
			Kind:         string(a.Kind),
			CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// ExportPDF renders the current canvas of a room.
// GET /api/rooms/:id/export.pdf
func (h *RoomHandlers) ExportPDF(c *gin.Context) {
	snap, ok := h.hub.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	var buf bytes.Buffer
	if err := export.PDF(&buf, snap.ID, snap.History); err != nil {
		h.log.Error().Err(err).Str("room", snap.ID).Msg("failed to export room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": snap.ID + ".pdf"}))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
