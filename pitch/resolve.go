package pitch

import (
	"fmt"
	"strings"

	"github.com/ieee0824/pitchflow/accent"
)

// Value is the resolved pitch of one mora.
type Value int

const (
	Low Value = iota
	High
	Uncertain
)

// String returns "L", "H" or "?".
func (v Value) String() string {
	switch v {
	case High:
		return "H"
	case Uncertain:
		return "?"
	default:
		return "L"
	}
}

// MarshalText encodes the value as "L", "H" or "?".
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes "L", "H" or "?".
func (v *Value) UnmarshalText(b []byte) error {
	switch string(b) {
	case "L":
		*v = Low
	case "H":
		*v = High
	case "?":
		*v = Uncertain
	default:
		return fmt.Errorf("invalid pitch value %q", b)
	}
	return nil
}

// MoraPoint is one mora of the phrase with its resolved pitch.
type MoraPoint struct {
	Mora       string `json:"mora"`
	Pitch      Value  `json:"pitch"`
	WordIndex  int    `json:"word_index"`
	Surface    string `json:"surface"`
	Particle   bool   `json:"is_particle"`
	Uncertain  bool   `json:"is_uncertain"`
	DictProper bool   `json:"is_dict_proper"`
}

// Resolve walks the words once and emits one point per mora.
//
// Content words use their own pitch array (padded with Low when it is
// shorter than the mora list). Particles inherit from the nearest preceding
// content word, skipping over other particles, so both halves of には
// resolve from the same noun. Resolve has no side effects and returns equal
// output for equal input.
func Resolve(words []Word) []MoraPoint {
	points := make([]MoraPoint, 0, TotalMorae(words))

	for wi := range words {
		w := &words[wi]
		if len(w.Morae) == 0 {
			continue
		}

		if w.IsParticle() {
			v := particleValue(words, wi)
			for _, m := range w.Morae {
				points = append(points, MoraPoint{
					Mora:      m,
					Pitch:     v,
					WordIndex: wi,
					Surface:   w.Surface,
					Particle:  true,
					Uncertain: v == Uncertain,
				})
			}
			continue
		}

		uncertain := w.IsUncertain()
		dictProper := w.IsDictionaryProper()
		for i, m := range w.Morae {
			v := Uncertain
			if !uncertain {
				v = levelAt(w.Pitch, i)
			}
			points = append(points, MoraPoint{
				Mora:       m,
				Pitch:      v,
				WordIndex:  wi,
				Surface:    w.Surface,
				Uncertain:  uncertain,
				DictProper: dictProper,
			})
		}
	}
	return points
}

func levelAt(pattern []accent.Level, i int) Value {
	if i < len(pattern) && pattern[i] == accent.High {
		return High
	}
	return Low
}

// governingWord returns the nearest content word before index i, or nil if
// the particle is phrase-initial.
func governingWord(words []Word, i int) *Word {
	for j := i - 1; j >= 0; j-- {
		if !words[j].IsParticle() {
			return &words[j]
		}
	}
	return nil
}

func particleValue(words []Word, i int) Value {
	content := governingWord(words, i)
	if content == nil {
		return Low
	}
	if content.IsUncertain() {
		return Uncertain
	}
	if accent.ParticleLevel(content.Accent()) == accent.High {
		return High
	}
	return Low
}

// Contour renders the pitch values as a compact string such as "LHHH".
func Contour(points []MoraPoint) string {
	var b strings.Builder
	for _, p := range points {
		b.WriteString(p.Pitch.String())
	}
	return b.String()
}
