// Package cursor tracks which mora is sounding while phrase audio plays.
package cursor

import (
	"container/heap"
	"sort"

	"github.com/ieee0824/pitchflow/timing"
)

// Table is an immutable lookup over mora intervals. Where intervals overlap,
// the one listed first wins.
type Table struct {
	entries  []timing.MoraTiming
	segments []segment
}

// segment is a disjoint slice of the timeline owned by one entry.
type segment struct {
	start, end float64
	entry      int
}

// NewTable copies the intervals and splits the timeline into disjoint
// segments, each owned by the earliest listed interval that covers it.
func NewTable(timings []timing.MoraTiming) *Table {
	entries := make([]timing.MoraTiming, len(timings))
	copy(entries, timings)

	var order []int
	bounds := make([]float64, 0, 2*len(entries))
	for i, e := range entries {
		if !(e.StartMS < e.EndMS) {
			continue
		}
		order = append(order, i)
		bounds = append(bounds, e.StartMS, e.EndMS)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].StartMS < entries[order[b]].StartMS
	})
	sort.Float64s(bounds)
	bounds = dedupe(bounds)

	active := &owners{}
	var segments []segment
	next := 0
	for k := 0; k+1 < len(bounds); k++ {
		lo, hi := bounds[k], bounds[k+1]
		for next < len(order) && entries[order[next]].StartMS <= lo {
			heap.Push(active, order[next])
			next++
		}
		for active.Len() > 0 && entries[(*active)[0]].EndMS <= lo {
			heap.Pop(active)
		}
		if active.Len() == 0 {
			continue
		}
		owner := (*active)[0]
		if n := len(segments); n > 0 && segments[n-1].entry == owner && segments[n-1].end == lo {
			segments[n-1].end = hi
			continue
		}
		segments = append(segments, segment{start: lo, end: hi, entry: owner})
	}
	return &Table{entries: entries, segments: segments}
}

func dedupe(sorted []float64) []float64 {
	out := sorted[:0]
	for _, v := range sorted {
		if len(out) == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// owners is a min-heap of entry positions.
type owners []int

func (o owners) Len() int           { return len(o) }
func (o owners) Less(i, j int) bool { return o[i] < o[j] }
func (o owners) Swap(i, j int)      { o[i], o[j] = o[j], o[i] }
func (o *owners) Push(x any)        { *o = append(*o, x.(int)) }
func (o *owners) Pop() any {
	old := *o
	x := old[len(old)-1]
	*o = old[:len(old)-1]
	return x
}

// Len returns the number of intervals.
func (t *Table) Len() int { return len(t.entries) }

// Find returns the first listed interval with StartMS <= ms < EndMS. It
// reports false when ms falls in a gap, before the first interval or at/after
// the last end. O(log n).
func (t *Table) Find(ms float64) (timing.MoraTiming, bool) {
	// first segment starting strictly after ms
	i := sort.Search(len(t.segments), func(i int) bool {
		return t.segments[i].start > ms
	})
	if i == 0 {
		return timing.MoraTiming{}, false
	}
	s := t.segments[i-1]
	if ms < s.end {
		return t.entries[s.entry], true
	}
	return timing.MoraTiming{}, false
}
