package cursor

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is one animation frame at 60Hz.
const DefaultInterval = 16 * time.Millisecond

// Clock is the playback position of an audio resource.
type Clock interface {
	Position() time.Duration
	Paused() bool
}

// Highlight is the "now playing" mora. Index is -1 when nothing is
// highlighted.
type Highlight struct {
	Index  int  `json:"index"`
	Active bool `json:"active"`
}

// None is the cleared highlight.
var None = Highlight{Index: -1}

// Tracker turns clock positions into highlight changes. A position with no
// matching interval keeps the previous highlight.
type Tracker struct {
	table   *Table
	current Highlight
}

// NewTracker returns a tracker with nothing highlighted.
func NewTracker(table *Table) *Tracker {
	return &Tracker{table: table, current: None}
}

// Current returns the highlighted mora.
func (t *Tracker) Current() Highlight { return t.current }

// Observe looks up ms and reports whether the highlight moved.
func (t *Tracker) Observe(ms float64) (Highlight, bool) {
	m, ok := t.table.Find(ms)
	if !ok || (t.current.Active && m.Index == t.current.Index) {
		return t.current, false
	}
	t.current = Highlight{Index: m.Index, Active: true}
	return t.current, true
}

// Clear drops the highlight and reports whether anything was highlighted.
func (t *Tracker) Clear() bool {
	had := t.current.Active
	t.current = None
	return had
}

// Task is a running polling loop. At most one callback runs at a time and
// none run after Cancel returns.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start polls clock every interval and calls onChange whenever the
// highlighted mora changes. The loop ends on its own once the clock reports
// paused, clearing the highlight; it also ends when ctx is cancelled or
// Cancel is called, without a final callback.
func Start(ctx context.Context, clock Clock, table *Table, interval time.Duration, onChange func(Highlight)) *Task {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()

		tracker := NewTracker(table)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if ctx.Err() != nil {
				return
			}
			if clock.Paused() {
				if tracker.Clear() {
					onChange(None)
				}
				return
			}
			ms := float64(clock.Position()) / float64(time.Millisecond)
			if h, changed := tracker.Observe(ms); changed {
				onChange(h)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return t
}

// Cancel stops the loop and waits for it to exit. Safe to call repeatedly
// and from any goroutine other than the onChange callback.
func (t *Task) Cancel() {
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed once the loop has exited.
func (t *Task) Done() <-chan struct{} { return t.done }
