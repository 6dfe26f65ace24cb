package reader

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/OwenXu27/ereader/internal/render"
)

type progressWrite struct {
	location string
	fraction float64
}

type fakeSink struct {
	mu     sync.Mutex
	writes []progressWrite
}

func (f *fakeSink) UpdateProgress(ctx context.Context, bookID, location string, progress float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, progressWrite{location: location, fraction: progress})
	return nil
}

func (f *fakeSink) snapshot() []progressWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]progressWrite, len(f.writes))
	copy(out, f.writes)
	return out
}

func loc(token string, fraction float64) render.Location {
	return render.Location{Token: token, Fraction: fraction}
}

func TestTracker_FirstObserveFlushesImmediately(t *testing.T) {
	sink := &fakeSink{}
	tr := NewTracker(sink, "b", time.Hour, nil)

	tr.Observe(loc("spine:0", 0))

	writes := sink.snapshot()
	if len(writes) != 1 || writes[0].location != "spine:0" {
		t.Errorf("writes = %+v", writes)
	}
}

func TestTracker_CoalescesWithinWindow(t *testing.T) {
	sink := &fakeSink{}
	tr := NewTracker(sink, "b", 50*time.Millisecond, nil)

	tr.Observe(loc("spine:0", 0))
	tr.Observe(loc("spine:1", 0.3))
	tr.Observe(loc("spine:2", 0.6))

	// Only the immediate first flush has happened so far.
	if got := len(sink.snapshot()); got != 1 {
		t.Fatalf("writes before window = %d, want 1", got)
	}

	time.Sleep(150 * time.Millisecond)
	writes := sink.snapshot()
	if len(writes) != 2 {
		t.Fatalf("writes = %+v, want 2", writes)
	}
	// The deferred flush carries the newest pending data, not the event
	// that scheduled the timer.
	if writes[1].location != "spine:2" || writes[1].fraction != 0.6 {
		t.Errorf("deferred write = %+v", writes[1])
	}
}

func TestTracker_FlushWritesPendingSynchronously(t *testing.T) {
	sink := &fakeSink{}
	tr := NewTracker(sink, "b", time.Hour, nil)

	tr.Observe(loc("spine:0", 0))
	tr.Observe(loc("spine:3", 0.9))
	tr.Flush(context.Background())

	writes := sink.snapshot()
	if len(writes) != 2 || writes[1].location != "spine:3" {
		t.Errorf("writes = %+v", writes)
	}

	// Nothing pending: a second flush writes nothing.
	tr.Flush(context.Background())
	if got := len(sink.snapshot()); got != 2 {
		t.Errorf("writes after empty flush = %d", got)
	}
}

func TestTracker_Estimate(t *testing.T) {
	sink := &fakeSink{}
	tr := NewTracker(sink, "b", time.Millisecond, nil)

	now := time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	tr.Observe(loc("spine:0", 0.1))
	if _, ok := tr.TimeLeft(); ok {
		t.Fatal("estimate before any progress")
	}

	t.Run("too little time", func(t *testing.T) {
		now = now.Add(2 * time.Second)
		tr.Observe(loc("spine:1", 0.2))
		if _, ok := tr.TimeLeft(); ok {
			t.Error("estimate after sub-threshold elapsed")
		}
	})

	t.Run("too little progress", func(t *testing.T) {
		now = now.Add(3 * time.Second)
		tr.Observe(loc("spine:0", 0.105))
		if _, ok := tr.TimeLeft(); ok {
			t.Error("estimate after sub-threshold delta")
		}
	})

	t.Run("projected linearly", func(t *testing.T) {
		// 0.1 -> 0.2 over the 62 seconds since the baseline.
		now = now.Add(57 * time.Second)
		tr.Observe(loc("spine:1", 0.2))
		got, ok := tr.TimeLeft()
		if !ok {
			t.Fatal("no estimate")
		}
		// Remaining 0.8 at 0.1 per 62s is ~496s.
		if got != "8 min left" {
			t.Errorf("TimeLeft = %q", got)
		}
	})
}

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{20 * time.Second, "< 1 min left"},
		{30 * time.Minute, "30 min left"},
		{11 * time.Hour, "> 10 hrs left"},
	}
	for _, tt := range tests {
		if got := FormatTimeLeft(tt.d); got != tt.want {
			t.Errorf("FormatTimeLeft(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
