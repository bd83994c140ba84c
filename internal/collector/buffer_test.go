package collector

import (
	"testing"
	"time"

	"QuoteBoard/internal/model"
)

func TestBuffer_MergeAndEvict(t *testing.T) {
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	q := bars(start, 1, 2, 3, 4)

	b := NewBuffer(3)
	if n := b.Merge(q[:2]); n != 2 {
		t.Fatalf("expected 2 added, got %d", n)
	}
	if n := b.Merge(q[1:]); n != 2 {
		t.Fatalf("expected 2 added (one replaced), got %d", n)
	}
	if b.Len() != 3 || b.Cap() != 3 {
		t.Fatalf("expected len=3 cap=3, got len=%d cap=%d", b.Len(), b.Cap())
	}
	snap := b.Snapshot()
	if snap[0].Close != 2 || snap[2].Close != 4 {
		t.Errorf("unexpected contents: %+v", snap)
	}
	last, ok := b.Last()
	if !ok || !last.Equal(q[3].Time) {
		t.Errorf("expected last=%v, got %v", q[3].Time, last)
	}
}

func TestBuffer_OutOfOrderInsert(t *testing.T) {
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	q := bars(start, 1, 2, 3)

	b := NewBuffer(10)
	b.Merge([]model.Quote{q[0], q[2]})
	b.Merge([]model.Quote{q[1]})
	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3, got %d", len(snap))
	}
	for i, want := range []float64{1, 2, 3} {
		if snap[i].Close != want {
			t.Errorf("pos %d: expected %.0f, got %.0f", i, want, snap[i].Close)
		}
	}

	snap[0].Close = 99
	if b.Snapshot()[0].Close == 99 {
		t.Error("snapshot must be a copy")
	}
}

func TestBuffer_Empty(t *testing.T) {
	b := NewBuffer(0)
	if b.Cap() != 1 {
		t.Errorf("expected minimum capacity 1, got %d", b.Cap())
	}
	if _, ok := b.Last(); ok {
		t.Error("expected no last sample")
	}
}
