package core

import (
	"sync"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// nextEvent returns the very next event and fails if it is not of the given kind.
func nextEvent(t *testing.T, c *Client, kind EventKind) *Event {
	t.Helper()

	select {
	case ev := <-c.Events:
		if ev.Kind != kind {
			t.Fatalf("client %s: expected %v, got %v", c.ID, kind, ev.Kind)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s: expected %v, got nothing", c.ID, kind)
	}
	return nil
}

func expectQuiet(t *testing.T, c *Client) {
	t.Helper()

	select {
	case ev := <-c.Events:
		t.Fatalf("client %s: unexpected event %v", c.ID, ev.Kind)
	default:
	}
}

func drain(c *Client) []*Event {
	var events []*Event
	for {
		select {
		case ev := <-c.Events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func stroke(author string, ts int64) Stroke {
	return Stroke{
		Start:     Point{X: float64(ts), Y: 0},
		End:       Point{X: float64(ts), Y: 10},
		Style:     Style{Color: "#000000", Width: 2},
		AuthorID:  author,
		Timestamp: ts,
	}
}

func timestamps(strokes []Stroke) []int64 {
	out := make([]int64, 0, len(strokes))
	for _, s := range strokes {
		out = append(out, s.Timestamp)
	}
	return out
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingObserver struct {
	NopObserver

	mu      sync.Mutex
	opened  map[string]int
	reaped  []string
	dropped int
	joined  int
	left    int
	applied map[CommandKind]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		opened:  make(map[string]int),
		applied: make(map[CommandKind]int),
	}
}

func (o *countingObserver) RoomOpened(room string) {
	o.mu.Lock()
	o.opened[room]++
	o.mu.Unlock()
}

func (o *countingObserver) RoomReaped(room string) {
	o.mu.Lock()
	o.reaped = append(o.reaped, room)
	o.mu.Unlock()
}

func (o *countingObserver) MemberJoined(string, Member) {
	o.mu.Lock()
	o.joined++
	o.mu.Unlock()
}

func (o *countingObserver) MemberLeft(string, string) {
	o.mu.Lock()
	o.left++
	o.mu.Unlock()
}

func (o *countingObserver) CommandApplied(_ string, kind CommandKind) {
	o.mu.Lock()
	o.applied[kind]++
	o.mu.Unlock()
}

func (o *countingObserver) DeliveryDropped(string, string) {
	o.mu.Lock()
	o.dropped++
	o.mu.Unlock()
}
