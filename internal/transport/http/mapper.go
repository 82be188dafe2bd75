package http

import (
	"fmt"

	"github.com/vovakirdan/wireboard-server/internal/core"
	"github.com/vovakirdan/wireboard-server/internal/proto"
)

const errCodeUnsupportedVersion = "unsupported_version"

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand decodes and validates an envelope. A non-nil *proto.Error is
// answered to the sender only and the connection stays open.
func inboundToCommand(inbound proto.Inbound, maxStrokeWidth float64) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinRoomData
		if err := proto.Decode(inbound.Data, &join); err != nil {
			return nil, badRequest(fmt.Sprintf("invalid join_room: %v", err))
		}
		if join.Protocol != 0 && join.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{
				Code: errCodeUnsupportedVersion,
				Msg:  fmt.Sprintf("protocol %d is not supported, server speaks %d", join.Protocol, proto.ProtocolVersion),
			}
		}
		return &core.Command{
			Kind:        core.CommandJoinRoom,
			Room:        join.RoomID,
			DisplayName: join.UserName,
			Color:       join.Color,
		}, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeaveRoom}, nil
	case proto.InboundTypeDraw:
		var stroke proto.Stroke
		if err := proto.Decode(inbound.Data, &stroke); err != nil {
			return nil, badRequest(fmt.Sprintf("invalid draw: %v", err))
		}
		if maxStrokeWidth > 0 && stroke.Style.Width > maxStrokeWidth {
			return nil, badRequest(fmt.Sprintf("stroke width exceeds %g", maxStrokeWidth))
		}
		return &core.Command{Kind: core.CommandDraw, Stroke: strokeToCore(stroke)}, nil
	case proto.InboundTypeCursorMove:
		var cursor proto.CursorData
		if err := proto.Decode(inbound.Data, &cursor); err != nil {
			return nil, badRequest(fmt.Sprintf("invalid cursor_move: %v", err))
		}
		return &core.Command{Kind: core.CommandCursorMove, Cursor: core.Point{X: cursor.X, Y: cursor.Y}}, nil
	case proto.InboundTypeUndo:
		return &core.Command{Kind: core.CommandUndo}, nil
	case proto.InboundTypeRedo:
		return &core.Command{Kind: core.CommandRedo}, nil
	case proto.InboundTypeClear:
		return &core.Command{Kind: core.CommandClear}, nil
	default:
		return nil, badRequest("unknown message type")
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLoadHistory:
		return eventOutbound(proto.EventLoadHistory, proto.EventLoadHistoryData{
			History: strokesToProto(event.History),
			Users:   usersToProto(event.Members),
		})
	case core.EventDraw:
		if event.Stroke == nil {
			break
		}
		return eventOutbound(proto.EventDraw, strokeToProto(*event.Stroke))
	case core.EventCursorMove:
		if event.Member == nil {
			break
		}
		return eventOutbound(proto.EventCursorMove, proto.EventCursorData{
			ConnectionID: event.Member.ConnID,
			X:            event.Member.Cursor.X,
			Y:            event.Member.Cursor.Y,
			DisplayName:  event.Member.DisplayName,
		})
	case core.EventUndo, core.EventRedo:
		return eventOutbound(event.Kind.String(), proto.EventHistoryData{
			History: strokesToProto(event.History),
			CanUndo: event.CanUndo,
			CanRedo: event.CanRedo,
		})
	case core.EventClear:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventClear}
	case core.EventUserJoined:
		if event.Member == nil {
			break
		}
		return eventOutbound(proto.EventUserJoined, proto.EventUserJoinedData{
			ConnectionID: event.Member.ConnID,
			DisplayName:  event.Member.DisplayName,
			Color:        event.Member.Color,
		})
	case core.EventUserLeft:
		return eventOutbound(proto.EventUserLeft, proto.EventUserLeftData{ConnectionID: event.ConnID})
	case core.EventUpdateUsers:
		return eventOutbound(proto.EventUpdateUsers, usersToProto(event.Members))
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	}
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func strokeToCore(s proto.Stroke) core.Stroke {
	return core.Stroke{
		Start:     core.Point{X: s.Start.X, Y: s.Start.Y},
		End:       core.Point{X: s.End.X, Y: s.End.Y},
		Style:     core.Style{Color: s.Style.Color, Width: s.Style.Width},
		Timestamp: s.Timestamp,
	}
}

func strokeToProto(s core.Stroke) proto.Stroke {
	return proto.Stroke{
		Start:     proto.Point{X: s.Start.X, Y: s.Start.Y},
		End:       proto.Point{X: s.End.X, Y: s.End.Y},
		Style:     proto.Style{Color: s.Style.Color, Width: s.Style.Width},
		AuthorID:  s.AuthorID,
		Timestamp: s.Timestamp,
	}
}

// strokesToProto never returns nil so an empty history encodes as [].
func strokesToProto(history []core.Stroke) []proto.Stroke {
	out := make([]proto.Stroke, 0, len(history))
	for _, s := range history {
		out = append(out, strokeToProto(s))
	}
	return out
}

func usersToProto(members []core.Member) []proto.User {
	out := make([]proto.User, 0, len(members))
	for _, m := range members {
		out = append(out, proto.User{
			ConnectionID: m.ConnID,
			DisplayName:  m.DisplayName,
			Color:        m.Color,
			X:            m.Cursor.X,
			Y:            m.Cursor.Y,
		})
	}
	return out
}
