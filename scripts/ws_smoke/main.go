package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wireboard-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name to join with")
	room := flag.String("room", "smoke", "room id")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		inbound := proto.Inbound{Type: typ}
		if data != nil {
			payload, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", typ, err)
			}
			inbound.Data = payload
		}
		if err := wsjson.Write(ctx, conn, inbound); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	// await reads until the named event arrives, printing everything on the way.
	await := func(event string) (json.RawMessage, error) {
		for {
			var outbound proto.Outbound
			if err := wsjson.Read(ctx, conn, &outbound); err != nil {
				return nil, fmt.Errorf("read: %w", err)
			}

			fmt.Printf("Received outbound: type=%s", outbound.Type)
			if outbound.Event != "" {
				fmt.Printf(" event=%s", outbound.Event)
			}
			fmt.Println()

			if outbound.Error != nil {
				return nil, fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
			}

			raw, err := json.Marshal(outbound.Data)
			if err != nil {
				return nil, fmt.Errorf("marshal outbound data: %w", err)
			}
			if outbound.Event == event {
				return raw, nil
			}
		}
	}

	if err := send(proto.InboundTypeJoin, proto.JoinRoomData{RoomID: *room, UserName: *user, Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}
	raw, err := await(proto.EventLoadHistory)
	if err != nil {
		return err
	}
	var snapshot proto.EventLoadHistoryData
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("unmarshal load_history: %w", err)
	}
	fmt.Printf("Joined %s: strokes=%d users=%d\n", *room, len(snapshot.History), len(snapshot.Users))

	stroke := proto.Stroke{
		Start: proto.Point{X: 10, Y: 10},
		End:   proto.Point{X: 120, Y: 80},
		Style: proto.Style{Color: "#1e90ff", Width: 4},
	}
	if err := send(proto.InboundTypeDraw, stroke); err != nil {
		return err
	}

	for _, step := range []string{proto.InboundTypeUndo, proto.InboundTypeRedo} {
		if err := send(step, nil); err != nil {
			return err
		}
		raw, err := await(step)
		if err != nil {
			return err
		}
		var state proto.EventHistoryData
		if err := json.Unmarshal(raw, &state); err != nil {
			return fmt.Errorf("unmarshal %s: %w", step, err)
		}
		fmt.Printf("%s: strokes=%d canUndo=%t canRedo=%t\n", step, len(state.History), state.CanUndo, state.CanRedo)
	}

	return send(proto.InboundTypeLeave, nil)
}
