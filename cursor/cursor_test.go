package cursor

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/timing"
)

func intervals(bounds ...float64) []timing.MoraTiming {
	out := make([]timing.MoraTiming, 0, len(bounds)/2)
	for i := 0; i+1 < len(bounds); i += 2 {
		out = append(out, timing.MoraTiming{Index: i / 2, StartMS: bounds[i], EndMS: bounds[i+1]})
	}
	return out
}

func TestTableFind(t *testing.T) {
	table := NewTable(intervals(1000, 1100, 1100, 1200, 1200, 1300, 1500, 1600))

	tests := []struct {
		ms    float64
		index int
		ok    bool
	}{
		{999, 0, false},
		{1000, 0, true},
		{1050, 0, true},
		{1100, 1, true},
		{1299.5, 2, true},
		{1300, 0, false}, // gap
		{1400, 0, false},
		{1500, 3, true},
		{1600, 0, false}, // past the end
		{5000, 0, false},
	}
	for _, tt := range tests {
		m, ok := table.Find(tt.ms)
		assert.Equal(t, tt.ok, ok, "ms=%v", tt.ms)
		if tt.ok {
			assert.Equal(t, tt.index, m.Index, "ms=%v", tt.ms)
		}
	}
}

func TestTableSortsInput(t *testing.T) {
	table := NewTable([]timing.MoraTiming{
		{Index: 1, StartMS: 150, EndMS: 300},
		{Index: 0, StartMS: 0, EndMS: 150},
	})
	m, ok := table.Find(10)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, 2, table.Len())
}

func TestTableEmpty(t *testing.T) {
	_, ok := NewTable(nil).Find(0)
	assert.False(t, ok)
}

func linearFind(ts []timing.MoraTiming, ms float64) (timing.MoraTiming, bool) {
	for _, m := range ts {
		if m.Contains(ms) {
			return m, true
		}
	}
	return timing.MoraTiming{}, false
}

func TestTableMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		var ts []timing.MoraTiming
		at := rng.Float64() * 100
		n := 1 + rng.Intn(60)
		for i := 0; i < n; i++ {
			if rng.Intn(3) == 0 {
				at += rng.Float64() * 200 // gap
			}
			d := 1 + rng.Float64()*300
			ts = append(ts, timing.MoraTiming{Index: i, StartMS: at, EndMS: at + d})
			at += d
		}
		table := NewTable(ts)
		for k := 0; k < 1000; k++ {
			ms := rng.Float64() * (at + 500)
			want, wantOK := linearFind(ts, ms)
			got, gotOK := table.Find(ms)
			require.Equal(t, wantOK, gotOK, "ms=%v", ms)
			require.Equal(t, want, got, "ms=%v", ms)
		}
	}
}

func TestTableOverlapFirstListedWins(t *testing.T) {
	// The unanchored particle falls back to 3×150ms and lands inside the
	// anchored word's first mora.
	words := []pitch.Word{
		{Surface: "桜", Morae: []string{"さ", "く", "ら"}},
		{Surface: "が", Morae: []string{"が"}, PartOfSpeech: pitch.POSParticle},
	}
	ts := timing.Estimate(words, []timing.Anchor{{Text: "桜", OffsetMS: 0, DurationMS: 3000}})
	require.Equal(t, []timing.MoraTiming{
		{Index: 0, StartMS: 0, EndMS: 1000},
		{Index: 1, StartMS: 1000, EndMS: 2000},
		{Index: 2, StartMS: 2000, EndMS: 3000},
		{Index: 3, StartMS: 450, EndMS: 600},
	}, ts)

	table := NewTable(ts)
	for _, ms := range []float64{0, 449, 450, 500, 599, 600, 700, 999, 1000, 2500, 2999, 3000} {
		want, wantOK := linearFind(ts, ms)
		got, gotOK := table.Find(ms)
		assert.Equal(t, wantOK, gotOK, "ms=%v", ms)
		assert.Equal(t, want, got, "ms=%v", ms)
	}
	m, ok := table.Find(500)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
	m, ok = table.Find(700)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestTableOverlapMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(40)
		ts := make([]timing.MoraTiming, n)
		for i := range ts {
			start := float64(rng.Intn(2000))
			ts[i] = timing.MoraTiming{Index: i, StartMS: start, EndMS: start + float64(rng.Intn(400))}
		}
		table := NewTable(ts)
		for k := 0; k < 1000; k++ {
			ms := rng.Float64() * 2600
			if k%4 == 0 {
				ms = float64(rng.Intn(2600)) // land on boundaries too
			}
			want, wantOK := linearFind(ts, ms)
			got, gotOK := table.Find(ms)
			require.Equal(t, wantOK, gotOK, "round=%d ms=%v", round, ms)
			require.Equal(t, want, got, "round=%d ms=%v", round, ms)
		}
	}
}

func TestTrackerKeepsHighlightInGaps(t *testing.T) {
	tr := NewTracker(NewTable(intervals(0, 100, 200, 300)))
	assert.Equal(t, None, tr.Current())

	h, changed := tr.Observe(50)
	assert.True(t, changed)
	assert.Equal(t, Highlight{Index: 0, Active: true}, h)

	_, changed = tr.Observe(60)
	assert.False(t, changed)

	h, changed = tr.Observe(150) // gap
	assert.False(t, changed)
	assert.Equal(t, 0, h.Index)

	h, changed = tr.Observe(250)
	assert.True(t, changed)
	assert.Equal(t, 1, h.Index)

	assert.True(t, tr.Clear())
	assert.False(t, tr.Clear())
	assert.Equal(t, None, tr.Current())
}

type fakeClock struct {
	mu     sync.Mutex
	pos    time.Duration
	paused bool
}

func (c *fakeClock) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *fakeClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *fakeClock) set(pos time.Duration, paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos, c.paused = pos, paused
}

type recorder struct {
	mu   sync.Mutex
	seen []Highlight
}

func (r *recorder) record(h Highlight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, h)
}

func (r *recorder) snapshot() []Highlight {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Highlight(nil), r.seen...)
}

func TestTaskFollowsClockAndClearsOnPause(t *testing.T) {
	clock := &fakeClock{pos: 50 * time.Millisecond}
	rec := &recorder{}
	task := Start(context.Background(), clock, NewTable(intervals(0, 100, 100, 200)), time.Millisecond, rec.record)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)

	clock.set(150*time.Millisecond, false)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, time.Millisecond)

	clock.set(150*time.Millisecond, true)
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop after pause")
	}

	assert.Equal(t, []Highlight{{Index: 0, Active: true}, {Index: 1, Active: true}, None}, rec.snapshot())
	task.Cancel()
}

func TestTaskCancelStopsCallbacks(t *testing.T) {
	clock := &fakeClock{}
	var calls atomic.Int32
	task := Start(context.Background(), clock, NewTable(intervals(0, 100, 100, 200)), time.Millisecond, func(Highlight) {
		calls.Add(1)
	})
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	task.Cancel()
	task.Cancel()
	clock.set(150*time.Millisecond, false)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTaskStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Start(ctx, &fakeClock{}, NewTable(nil), time.Millisecond, func(Highlight) {})
	cancel()
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not observe context cancellation")
	}
}
