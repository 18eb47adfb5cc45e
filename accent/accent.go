// Package accent classifies Japanese pitch-accent positions and generates
// the per-mora High/Low pattern a dictionary accent position implies.
package accent

// Type is the canonical accent-pattern category of a word.
type Type int

const (
	Unknown   Type = iota // accent position not known
	Heiban                // 平板: no drop, a following particle stays high
	Atamadaka             // 頭高: drop after the first mora
	Nakadaka              // 中高: drop inside the word
	Odaka                 // 尾高: drop only appears on a following particle
)

// String returns the romanized category name.
func (t Type) String() string {
	switch t {
	case Heiban:
		return "heiban"
	case Atamadaka:
		return "atamadaka"
	case Nakadaka:
		return "nakadaka"
	case Odaka:
		return "odaka"
	default:
		return "unknown"
	}
}

// Level is the pitch of a single mora in a dictionary pattern.
type Level string

const (
	High Level = "H"
	Low  Level = "L"
)

// Classify maps an accent position and mora count to a category.
// A nil position means the accent is unknown. Negative mora counts are a
// caller error and are not checked.
func Classify(position *int, moraCount int) Type {
	if position == nil {
		return Unknown
	}
	switch p := *position; {
	case p == 0:
		return Heiban
	case p == 1:
		return Atamadaka
	case p == moraCount:
		return Odaka
	default:
		return Nakadaka
	}
}

// ParticleLevel is the pitch a particle or auxiliary takes when it attaches
// to a content word of category t. Only heiban keeps the particle high.
func ParticleLevel(t Type) Level {
	if t == Heiban {
		return High
	}
	return Low
}

// Pattern generates the H/L sequence for a word of moraCount morae whose
// accent falls after mora position. A nil or negative position is treated
// as heiban.
//
//	0 → L H H …   1 → H L L …   k → L H … H(k) L …
func Pattern(position *int, moraCount int) []Level {
	if moraCount <= 0 {
		return nil
	}
	p := 0
	if position != nil && *position > 0 {
		p = *position
	}
	if moraCount == 1 {
		if p == 1 {
			return []Level{High}
		}
		return []Level{Low}
	}

	out := make([]Level, moraCount)
	switch p {
	case 0:
		out[0] = Low
		for i := 1; i < moraCount; i++ {
			out[i] = High
		}
	case 1:
		out[0] = High
		for i := 1; i < moraCount; i++ {
			out[i] = Low
		}
	default:
		out[0] = Low
		for i := 1; i < moraCount; i++ {
			// i is zero-based, mora number is i+1
			if i+1 <= p {
				out[i] = High
			} else {
				out[i] = Low
			}
		}
	}
	return out
}

// Label returns the display label for an accent position. Null accents on
// particles and auxiliaries are labelled by part of speech instead of
// "Unknown".
func Label(position *int, moraCount int, partOfSpeech string) string {
	if position == nil {
		switch partOfSpeech {
		case "助詞":
			return "Particle (助詞)"
		case "助動詞":
			return "Auxiliary (助動詞)"
		}
		return "Unknown"
	}
	switch Classify(position, moraCount) {
	case Heiban:
		return "平板 (Heiban)"
	case Atamadaka:
		return "頭高 (Atamadaka)"
	case Odaka:
		return "尾高 (Odaka)"
	default:
		return "中高 (Nakadaka)"
	}
}

// Pos is a convenience for building accent positions in literals.
func Pos(p int) *int { return &p }
