package core

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func join(t *testing.T, hub *Hub, c *Client, room, name, color string) {
	t.Helper()
	if err := hub.Handle(c, &Command{Kind: CommandJoinRoom, Room: room, DisplayName: name, Color: color}); err != nil {
		t.Fatalf("%s join %s: %v", c.ID, room, err)
	}
}

func TestHubScenario(t *testing.T) {
	hub := NewHub(Options{})
	a := NewClient("A", 32)
	b := NewClient("B", 32)

	join(t, hub, a, "r1", "alice", "#FF0000")
	load := nextEvent(t, a, EventLoadHistory)
	if len(load.History) != 0 || len(load.Members) != 1 || load.Members[0].ConnID != "A" || load.Members[0].Color != "#FF0000" {
		t.Fatalf("unexpected load_history: %+v", load)
	}
	nextEvent(t, a, EventUpdateUsers)

	join(t, hub, b, "r1", "bob", "#0000FF")
	nextEvent(t, b, EventLoadHistory)
	joined := nextEvent(t, a, EventUserJoined)
	if joined.ConnID != "B" || joined.Member.DisplayName != "bob" {
		t.Fatalf("unexpected user_joined: %+v", joined)
	}
	for _, c := range []*Client{a, b} {
		users := nextEvent(t, c, EventUpdateUsers)
		if len(users.Members) != 2 || users.Members[0].ConnID != "A" || users.Members[1].ConnID != "B" {
			t.Fatalf("%s update_users = %+v", c.ID, users.Members)
		}
	}

	s1 := Stroke{
		Start:     Point{X: 1, Y: 1},
		End:       Point{X: 5, Y: 5},
		Style:     Style{Color: "#FF0000", Width: 3},
		Timestamp: 1000,
	}
	if err := hub.Handle(a, &Command{Kind: CommandDraw, Stroke: s1}); err != nil {
		t.Fatalf("draw: %v", err)
	}
	draw := nextEvent(t, b, EventDraw)
	if draw.Stroke.AuthorID != "A" || draw.Stroke.End != s1.End || draw.Stroke.Timestamp != 1000 {
		t.Fatalf("unexpected draw: %+v", draw.Stroke)
	}
	expectQuiet(t, a)

	if err := hub.Handle(a, &Command{Kind: CommandUndo}); err != nil {
		t.Fatalf("undo: %v", err)
	}
	for _, c := range []*Client{a, b} {
		ev := nextEvent(t, c, EventUndo)
		if len(ev.History) != 0 || ev.CanUndo || !ev.CanRedo {
			t.Fatalf("%s undo = %+v", c.ID, ev)
		}
	}

	if err := hub.Handle(a, &Command{Kind: CommandRedo}); err != nil {
		t.Fatalf("redo: %v", err)
	}
	for _, c := range []*Client{a, b} {
		ev := nextEvent(t, c, EventRedo)
		if len(ev.History) != 1 || ev.History[0].AuthorID != "A" || !ev.CanUndo || ev.CanRedo {
			t.Fatalf("%s redo = %+v", c.ID, ev)
		}
	}
	expectQuiet(t, a)
	expectQuiet(t, b)
}

func TestHubDoubleJoinProducesError(t *testing.T) {
	hub := NewHub(Options{})
	alice := NewClient("a", 16)

	join(t, hub, alice, "general", "alice", "")
	err := hub.Handle(alice, &Command{Kind: CommandJoinRoom, Room: "other"})
	if !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined error, got %+v", ev)
	}
	if _, ok := hub.Snapshot("other"); ok {
		t.Fatal("rejected join created a room")
	}
	if room, _ := hub.RoomOf("a"); room != "general" {
		t.Fatalf("binding changed to %q", room)
	}
}

func TestHubJoinAssignsColorAndName(t *testing.T) {
	hub := NewHub(Options{})
	c := NewClient("conn-1", 16)

	join(t, hub, c, "r", "", "")
	load := nextEvent(t, c, EventLoadHistory)
	m := load.Members[0]
	if m.DisplayName != "conn-1" {
		t.Fatalf("display name = %q", m.DisplayName)
	}
	if len(m.Color) != 7 || m.Color[0] != '#' {
		t.Fatalf("color = %q", m.Color)
	}
}

func TestHubIgnoresUnboundCommands(t *testing.T) {
	hub := NewHub(Options{})
	ghost := NewClient("ghost", 16)

	for _, kind := range []CommandKind{CommandDraw, CommandCursorMove, CommandUndo, CommandRedo, CommandClear, CommandLeaveRoom} {
		err := hub.Handle(ghost, &Command{Kind: kind, Stroke: stroke("", 1)})
		if !errors.Is(err, ErrNotBound) || !Ignorable(err) {
			t.Fatalf("%v: expected ignorable ErrNotBound, got %v", kind, err)
		}
	}
	expectQuiet(t, ghost)
}

func TestHubEmptyUndoRedoAreSilent(t *testing.T) {
	hub := NewHub(Options{})
	a := NewClient("a", 16)
	b := NewClient("b", 16)
	join(t, hub, a, "r", "a", "#111111")
	join(t, hub, b, "r", "b", "#222222")
	drain(a)
	drain(b)

	_ = hub.Handle(b, &Command{Kind: CommandDraw, Stroke: stroke("", 1)})
	drain(a)

	if err := hub.Handle(a, &Command{Kind: CommandUndo}); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
	if err := hub.Handle(a, &Command{Kind: CommandRedo}); !errors.Is(err, ErrEmptyUndoStack) {
		t.Fatalf("expected ErrEmptyUndoStack, got %v", err)
	}
	expectQuiet(t, a)
	expectQuiet(t, b)
}

func TestHubDisconnectIsIdempotent(t *testing.T) {
	obs := newCountingObserver()
	hub := NewHub(Options{Observer: obs})
	a := NewClient("a", 16)
	b := NewClient("b", 16)
	never := NewClient("never", 16)

	join(t, hub, a, "r", "a", "#111111")
	join(t, hub, b, "r", "b", "#222222")
	drain(a)

	hub.Disconnect(b)
	hub.Disconnect(b)
	hub.Disconnect(never)

	left := nextEvent(t, a, EventUserLeft)
	if left.ConnID != "b" {
		t.Fatalf("unexpected user_left: %+v", left)
	}
	nextEvent(t, a, EventUpdateUsers)
	expectQuiet(t, a)

	if obs.left != 1 {
		t.Fatalf("observer saw %d leaves", obs.left)
	}

	// The room outlives its members.
	hub.Disconnect(a)
	snap, ok := hub.Snapshot("r")
	if !ok || len(snap.Members) != 0 {
		t.Fatalf("room after everyone left: %+v, %v", snap, ok)
	}
}

func TestHubLeaveRoomAllowsRejoin(t *testing.T) {
	hub := NewHub(Options{})
	a := NewClient("a", 16)

	join(t, hub, a, "first", "a", "#111111")
	if err := hub.Handle(a, &Command{Kind: CommandLeaveRoom}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	join(t, hub, a, "second", "a", "#111111")

	if room, _ := hub.RoomOf("a"); room != "second" {
		t.Fatalf("bound to %q", room)
	}
}

func TestHubJoinSnapshotIsolation(t *testing.T) {
	const strokes = 500

	hub := NewHub(Options{})
	drawer := NewClient("drawer", 16)
	joiner := NewClient("joiner", 2*strokes)
	join(t, hub, drawer, "iso", "drawer", "#111111")

	// The drawer never reads; keep its queue from filling up.
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-drawer.Events:
			case <-stop:
				return
			}
		}
	}()
	defer close(stop)

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		for i := int64(1); i <= strokes; i++ {
			if err := hub.Handle(drawer, &Command{Kind: CommandDraw, Stroke: stroke("", i)}); err != nil {
				t.Errorf("draw %d: %v", i, err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		<-start
		time.Sleep(time.Millisecond)
		if err := hub.Handle(joiner, &Command{Kind: CommandJoinRoom, Room: "iso", DisplayName: "joiner"}); err != nil {
			t.Errorf("join: %v", err)
		}
	}()
	close(start)
	wg.Wait()

	events := drain(joiner)
	if len(events) == 0 || events[0].Kind != EventLoadHistory {
		t.Fatal("joiner did not receive load_history first")
	}

	seen := make(map[int64]int, strokes)
	for _, s := range events[0].History {
		seen[s.Timestamp]++
	}
	for _, ev := range events[1:] {
		if ev.Kind == EventLoadHistory {
			t.Fatal("load_history delivered twice")
		}
		if ev.Kind == EventDraw {
			seen[ev.Stroke.Timestamp]++
		}
	}
	for i := int64(1); i <= strokes; i++ {
		if seen[i] != 1 {
			t.Fatalf("stroke %d seen %d times", i, seen[i])
		}
	}
}

// replica rebuilds history the way a client does: from broadcasts plus its own draws.
type replica struct {
	client  *Client
	joined  bool
	history []Stroke
}

func (r *replica) apply(events []*Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventLoadHistory, EventUndo, EventRedo:
			r.history = append([]Stroke(nil), ev.History...)
		case EventDraw:
			r.history = append(r.history, *ev.Stroke)
		case EventClear:
			r.history = nil
		}
	}
}

func TestHubConvergence(t *testing.T) {
	hub := NewHub(Options{})
	rng := rand.New(rand.NewSource(42))

	replicas := []*replica{
		{client: NewClient("c0", 64)},
		{client: NewClient("c1", 64)},
		{client: NewClient("c2", 64)},
	}
	for _, r := range replicas {
		join(t, hub, r.client, "conv", r.client.ID, "#000000")
		r.joined = true
	}

	for step := int64(1); step <= 2000; step++ {
		r := replicas[rng.Intn(len(replicas))]

		if !r.joined {
			join(t, hub, r.client, "conv", r.client.ID, "#000000")
			r.joined = true
		} else {
			switch op := rng.Intn(100); {
			case op < 50:
				s := stroke("", step)
				if err := hub.Handle(r.client, &Command{Kind: CommandDraw, Stroke: s}); err != nil {
					t.Fatalf("draw: %v", err)
				}
				s.AuthorID = r.client.ID
				r.history = append(r.history, s)
			case op < 70:
				_ = hub.Handle(r.client, &Command{Kind: CommandUndo})
			case op < 85:
				_ = hub.Handle(r.client, &Command{Kind: CommandRedo})
			case op < 90:
				_ = hub.Handle(r.client, &Command{Kind: CommandClear})
			case op < 97:
				_ = hub.Handle(r.client, &Command{Kind: CommandCursorMove, Cursor: Point{X: float64(step)}})
			default:
				_ = hub.Handle(r.client, &Command{Kind: CommandLeaveRoom})
				r.joined = false
				r.history = nil
			}
		}

		for _, other := range replicas {
			other.apply(drain(other.client))
		}
	}

	snap, _ := hub.Snapshot("conv")
	want := timestamps(snap.History)
	for _, r := range replicas {
		if !r.joined {
			continue
		}
		if got := timestamps(r.history); !equalInts(got, want) {
			t.Fatalf("%s diverged:\n got  %v\n want %v", r.client.ID, got, want)
		}
	}
}

func TestHubReapsIdleRooms(t *testing.T) {
	clock := newFakeClock()
	obs := newCountingObserver()
	hub := NewHub(Options{Observer: obs, RoomIdleTTL: time.Minute, Now: clock.Now})

	a := NewClient("a", 16)
	join(t, hub, a, "r", "a", "#111111")
	_ = hub.Handle(a, &Command{Kind: CommandDraw, Stroke: stroke("", 1)})
	hub.Disconnect(a)

	clock.Advance(30 * time.Second)
	if got := hub.Reap(); len(got) != 0 {
		t.Fatalf("reaped too early: %v", got)
	}

	clock.Advance(time.Minute)
	if got := hub.Reap(); len(got) != 1 || got[0] != "r" {
		t.Fatalf("reaped %v", got)
	}
	if _, ok := hub.Snapshot("r"); ok {
		t.Fatal("reaped room still visible")
	}

	b := NewClient("b", 16)
	join(t, hub, b, "r", "b", "#222222")
	load := nextEvent(t, b, EventLoadHistory)
	if len(load.History) != 0 {
		t.Fatalf("fresh room carried history: %+v", load.History)
	}
	if obs.opened["r"] != 2 {
		t.Fatalf("room opened %d times", obs.opened["r"])
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub(Options{RoomIdleTTL: time.Minute, ReapInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
