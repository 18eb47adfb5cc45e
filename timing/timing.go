// Package timing maps word-level audio timing anchors onto the flat mora
// sequence of a phrase.
package timing

import "github.com/ieee0824/pitchflow/pitch"

const (
	// FallbackMoraMS is the estimated duration of a mora in a word that has
	// no anchor.
	FallbackMoraMS = 150.0
	// DegenerateMoraMS is used when an anchor's per-mora share comes out as
	// zero.
	DegenerateMoraMS = 100.0
)

// Anchor is the timing of one word as reported by the synthesis service.
// Anchors are matched to words by surface text.
type Anchor struct {
	Text       string  `json:"text"`
	OffsetMS   float64 `json:"offset_ms"`
	DurationMS float64 `json:"duration_ms"`
}

// MoraTiming is the half-open interval [StartMS, EndMS) during which the
// mora at Index is sounding.
type MoraTiming struct {
	Index   int     `json:"mora_index"`
	StartMS float64 `json:"start_ms"`
	EndMS   float64 `json:"end_ms"`
}

// Contains reports whether ms falls inside the interval.
func (m MoraTiming) Contains(ms float64) bool {
	return ms >= m.StartMS && ms < m.EndMS
}

// Estimate produces one interval per mora, index-aligned with
// pitch.Resolve over the same words.
//
// An anchored word spreads its duration evenly over its morae starting at
// its offset. An unanchored word is estimated at FallbackMoraMS per mora,
// starting at (absolute mora index × FallbackMoraMS); the estimate does not
// follow the anchored words' real elapsed time.
func Estimate(words []pitch.Word, anchors []Anchor) []MoraTiming {
	out := make([]MoraTiming, 0, pitch.TotalMorae(words))
	moraIndex := 0

	for wi := range words {
		n := len(words[wi].Morae)
		anchor, ok := find(anchors, words[wi].Surface)

		if ok && n > 0 {
			moraDur := anchor.DurationMS / float64(n)
			if moraDur == 0 {
				moraDur = DegenerateMoraMS
			}
			for i := 0; i < n; i++ {
				out = append(out, MoraTiming{
					Index:   moraIndex + i,
					StartMS: anchor.OffsetMS + float64(i)*moraDur,
					EndMS:   anchor.OffsetMS + float64(i+1)*moraDur,
				})
			}
		} else {
			estimatedStart := float64(moraIndex) * FallbackMoraMS
			for i := 0; i < n; i++ {
				out = append(out, MoraTiming{
					Index:   moraIndex + i,
					StartMS: estimatedStart + float64(i)*FallbackMoraMS,
					EndMS:   estimatedStart + float64(i+1)*FallbackMoraMS,
				})
			}
		}

		moraIndex += n
	}
	return out
}

// find returns the first anchor whose text equals surface.
func find(anchors []Anchor, surface string) (Anchor, bool) {
	for _, a := range anchors {
		if a.Text == surface {
			return a, true
		}
	}
	return Anchor{}, false
}

// Unanchored counts the morae Estimate times with the fallback rate.
func Unanchored(words []pitch.Word, anchors []Anchor) int {
	n := 0
	for wi := range words {
		if _, ok := find(anchors, words[wi].Surface); !ok {
			n += len(words[wi].Morae)
		}
	}
	return n
}

// Span returns the earliest start and latest end over all intervals.
func Span(timings []MoraTiming) (startMS, endMS float64) {
	for i, t := range timings {
		if i == 0 || t.StartMS < startMS {
			startMS = t.StartMS
		}
		if t.EndMS > endMS {
			endMS = t.EndMS
		}
	}
	return startMS, endMS
}
