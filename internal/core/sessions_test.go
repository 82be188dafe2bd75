package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSessionTableBinding(t *testing.T) {
	tbl := NewSessionTable()

	if _, err := tbl.Lookup("c1"); !errors.Is(err, ErrNotBound) {
		t.Fatalf("expected ErrNotBound, got %v", err)
	}
	if err := tbl.Bind("c1", "r1"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := tbl.Bind("c1", "r2"); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}
	room, err := tbl.Lookup("c1")
	if err != nil || room != "r1" {
		t.Fatalf("lookup = %q, %v", room, err)
	}

	tbl.Unbind("c1")
	tbl.Unbind("c1")
	tbl.Unbind("never")
	if tbl.Len() != 0 {
		t.Fatalf("len = %d", tbl.Len())
	}
	if err := tbl.Bind("c1", "r2"); err != nil {
		t.Fatalf("rebind after unbind: %v", err)
	}
}

func TestSessionTableTakeOnce(t *testing.T) {
	tbl := NewSessionTable()
	_ = tbl.Bind("c1", "r1")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if room, ok := tbl.Take("c1"); ok && room == "r1" {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("take succeeded %d times", wins.Load())
	}
}
