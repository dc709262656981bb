package app

import (
	"sync"
	"testing"
	"time"

	"daybook/api/internal/planner"
)

type persistRecorder struct {
	mu    sync.Mutex
	count int
	last  planner.Document
}

func (r *persistRecorder) persist(_, _ string, doc planner.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	r.last = doc
	return nil
}

func (r *persistRecorder) snapshot() (int, planner.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, r.last
}

func TestPutCoalescesBurstsIntoOneWrite(t *testing.T) {
	recorder := &persistRecorder{}
	pending := newPendingWrites(time.Hour, recorder.persist)

	for _, mood := range []string{"a", "ab", "abc"} {
		doc := planner.Blank("2026-03-10")
		doc.Mood = mood
		if err := pending.Put("owner", "2026-03-10", doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if count, _ := recorder.snapshot(); count != 0 {
		t.Fatalf("nothing should persist before the flush, got %d writes", count)
	}

	if err := pending.Flush("owner", "2026-03-10"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	count, last := recorder.snapshot()
	if count != 1 {
		t.Fatalf("burst should coalesce into one write, got %d", count)
	}
	if last.Mood != "abc" {
		t.Fatalf("last write should win, got %q", last.Mood)
	}

	// Flushing an already-flushed key is a no-op.
	if err := pending.Flush("owner", "2026-03-10"); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if count, _ := recorder.snapshot(); count != 1 {
		t.Fatalf("expected no extra writes, got %d", count)
	}
}

func TestTimerFlushesAfterDelay(t *testing.T) {
	recorder := &persistRecorder{}
	pending := newPendingWrites(10*time.Millisecond, recorder.persist)

	if err := pending.Put("owner", "2026-03-10", planner.Blank("2026-03-10")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if count, _ := recorder.snapshot(); count == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timer flush never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFlushOwnerCoversAllDates(t *testing.T) {
	recorder := &persistRecorder{}
	pending := newPendingWrites(time.Hour, recorder.persist)

	_ = pending.Put("owner", "2026-03-09", planner.Blank("2026-03-09"))
	_ = pending.Put("owner", "2026-03-10", planner.Blank("2026-03-10"))
	_ = pending.Put("other", "2026-03-10", planner.Blank("2026-03-10"))

	if err := pending.FlushOwner("owner"); err != nil {
		t.Fatalf("FlushOwner: %v", err)
	}
	if count, _ := recorder.snapshot(); count != 2 {
		t.Fatalf("expected 2 writes for the owner, got %d", count)
	}

	pending.FlushAll()
	if count, _ := recorder.snapshot(); count != 3 {
		t.Fatalf("expected the remaining write on FlushAll, got %d", count)
	}
}

func TestZeroDelayPersistsSynchronously(t *testing.T) {
	recorder := &persistRecorder{}
	pending := newPendingWrites(0, recorder.persist)

	if err := pending.Put("owner", "2026-03-10", planner.Blank("2026-03-10")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if count, _ := recorder.snapshot(); count != 1 {
		t.Fatalf("zero delay should persist immediately, got %d writes", count)
	}
}
