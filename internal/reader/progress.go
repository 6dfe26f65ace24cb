package reader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OwenXu27/ereader/internal/render"
)

// DefaultThrottleWindow is the minimum interval between durable progress
// writes.
const DefaultThrottleWindow = 1500 * time.Millisecond

// Estimator gates: the time-remaining projection only updates once the
// reader has made real progress, to suppress noise from rapid back-and-forth
// navigation.
const (
	estimateMinDelta   = 0.01
	estimateMinElapsed = 6 * time.Second
)

// ProgressSink receives flushed progress writes. The in-memory book list and
// durable storage are updated behind one call so the two never diverge.
type ProgressSink interface {
	UpdateProgress(ctx context.Context, bookID, location string, progress float64) error
}

// pendingWrite is the single outstanding progress write. Newer events
// overwrite it; it is never queued.
type pendingWrite struct {
	location string
	fraction float64
}

// Tracker throttles persistence of reading progress and keeps the
// time-remaining estimate.
type Tracker struct {
	sink   ProgressSink
	bookID string
	window time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	pending   *pendingWrite
	lastFlush time.Time
	timer     *time.Timer

	baselineAt   time.Time
	baselineFrac float64
	hasBaseline  bool
	remaining    time.Duration
	hasEstimate  bool
}

// NewTracker creates a Tracker for one book.
func NewTracker(sink ProgressSink, bookID string, window time.Duration, logger *slog.Logger) *Tracker {
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sink:   sink,
		bookID: bookID,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Observe records a settled location. The pending slot is overwritten; a
// flush happens immediately when the throttle window has elapsed, otherwise
// one timer is scheduled for the remainder of the window.
func (t *Tracker) Observe(loc render.Location) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = &pendingWrite{location: loc.Token, fraction: loc.Fraction}
	t.updateEstimateLocked(loc.Fraction)

	now := t.now()
	elapsed := now.Sub(t.lastFlush)
	if elapsed >= t.window && t.timer == nil {
		t.flushLocked()
		return
	}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.window-elapsed, t.timerFired)
	}
}

// timerFired flushes whatever is pending, which may differ from the event
// that scheduled the timer.
func (t *Tracker) timerFired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = nil
	t.flushLocked()
}

// Flush synchronously writes any pending progress. Called at session
// teardown so the last few seconds of reading position are never lost.
func (t *Tracker) Flush(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.flushLocked()
}

// flushLocked writes and clears the pending slot. Storage failures are the
// sink's concern; an error here is logged and the session carries on.
func (t *Tracker) flushLocked() {
	if t.pending == nil {
		return
	}
	w := *t.pending
	t.pending = nil
	t.lastFlush = t.now()

	if err := t.sink.UpdateProgress(context.Background(), t.bookID, w.location, w.fraction); err != nil {
		t.logger.Warn("progress flush failed", "book", t.bookID, "error", err)
	}
}

// updateEstimateLocked projects total remaining time linearly from the
// observed reading rate. The first event only records the baseline.
func (t *Tracker) updateEstimateLocked(fraction float64) {
	now := t.now()
	if !t.hasBaseline {
		t.baselineAt = now
		t.baselineFrac = fraction
		t.hasBaseline = true
		return
	}

	delta := fraction - t.baselineFrac
	elapsed := now.Sub(t.baselineAt)
	if delta <= estimateMinDelta || elapsed <= estimateMinElapsed {
		return
	}

	rate := delta / elapsed.Seconds()
	if rate > 0 {
		t.remaining = time.Duration((1 - fraction) / rate * float64(time.Second))
		t.hasEstimate = true
	}
	t.baselineAt = now
	t.baselineFrac = fraction
}

// TimeLeft returns the bucketed display string for the current estimate.
func (t *Tracker) TimeLeft() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasEstimate {
		return "", false
	}
	return FormatTimeLeft(t.remaining), true
}

// FormatTimeLeft buckets a remaining-time estimate for display.
func FormatTimeLeft(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "< 1 min left"
	case d > 10*time.Hour:
		return "> 10 hrs left"
	default:
		return fmt.Sprintf("%d min left", int(d.Round(time.Minute)/time.Minute))
	}
}
