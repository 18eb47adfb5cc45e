// Package pitch derives a per-mora pitch contour for a whole phrase from
// already-analyzed words, propagating pitch onto particles and auxiliaries
// that carry none of their own.
package pitch

import (
	"github.com/ieee0824/pitchflow/accent"
	"github.com/ieee0824/pitchflow/mora"
)

// Source records where a word's accent came from.
type Source string

const (
	SourceDictionary        Source = "dictionary"
	SourceDictionaryLemma   Source = "dictionary_lemma"
	SourceDictionaryReading Source = "dictionary_reading"
	SourceDictionaryUniDic  Source = "dictionary_unidic"
	SourceDictionaryProper  Source = "dictionary_proper"
	SourceUniDicProper      Source = "unidic_proper"
	SourceRule              Source = "rule"
	SourceParticle          Source = "particle"
	SourceProperNoun        Source = "proper_noun" // proper noun with no dictionary entry
	SourceCompoundRule      Source = "compound_rule"
	SourceUnknown           Source = "unknown"
)

// Label returns a human readable name for the source.
func (s Source) Label() string {
	switch s {
	case SourceDictionary:
		return "Dictionary"
	case SourceDictionaryLemma:
		return "Dictionary (via lemma)"
	case SourceDictionaryReading:
		return "Dictionary (reading only)"
	case SourceDictionaryUniDic:
		return "UniDic only"
	case SourceDictionaryProper:
		return "Proper Noun (Kanjium)"
	case SourceUniDicProper:
		return "Proper Noun (UniDic)"
	case SourceRule:
		return "Rule-based"
	case SourceParticle:
		return "Particle (助詞)"
	case SourceProperNoun:
		return "Proper Noun (固有名詞)"
	case SourceCompoundRule:
		return "Compound (predicted)"
	default:
		return "Unknown"
	}
}

// Confidence is the analyzer's confidence in the accent.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Part-of-speech tags that mark grammatical words without their own pitch.
const (
	POSParticle  = "助詞"
	POSAuxiliary = "助動詞"
)

// Word is one analyzed word from the upstream morphological analyzer.
// Pitch is aligned to Morae and may be empty when the pitch is unknown.
type Word struct {
	Surface      string         `json:"surface"`
	Reading      string         `json:"reading,omitempty"`
	Morae        []string       `json:"morae"`
	Pitch        []accent.Level `json:"pitch_pattern"`
	AccentType   *int           `json:"accent_type"`
	MoraCount    int            `json:"mora_count"`
	PartOfSpeech string         `json:"part_of_speech"`
	Particle     bool           `json:"is_particle,omitempty"`
	Uncertain    bool           `json:"is_uncertain,omitempty"`
	Source       Source         `json:"source,omitempty"`
	Confidence   Confidence     `json:"confidence,omitempty"`
	Lemma        string         `json:"lemma,omitempty"`
	Warning      string         `json:"warning,omitempty"`
}

// IsParticle reports whether the word is a particle or auxiliary, either by
// the explicit flag or by its part of speech.
func (w *Word) IsParticle() bool {
	return w.Particle || w.PartOfSpeech == POSParticle || w.PartOfSpeech == POSAuxiliary
}

// IsUncertain reports whether the word's pitch is not known: a proper noun
// with no dictionary entry.
func (w *Word) IsUncertain() bool {
	return w.Uncertain || (w.Source == SourceProperNoun && len(w.Pitch) == 0)
}

// IsDictionaryProper reports whether the word is a proper noun whose pitch
// came from a dictionary. Informational only.
func (w *Word) IsDictionaryProper() bool {
	return (w.Source == SourceDictionaryProper || w.Source == SourceUniDicProper) && !w.IsUncertain()
}

// Count returns the declared mora count, falling back to the mora list and
// then the reading.
func (w *Word) Count() int {
	if w.MoraCount > 0 {
		return w.MoraCount
	}
	if len(w.Morae) > 0 {
		return len(w.Morae)
	}
	return mora.Count(w.Reading)
}

// Accent classifies the word's accent position.
func (w *Word) Accent() accent.Type {
	return accent.Classify(w.AccentType, w.Count())
}

// TotalMorae returns the number of morae across all words.
func TotalMorae(words []Word) int {
	n := 0
	for i := range words {
		n += len(words[i].Morae)
	}
	return n
}

// FillMorae returns a copy of words where any word with an empty mora list
// but a reading has its morae split from the reading. Resolve never does
// this itself.
func FillMorae(words []Word) []Word {
	out := make([]Word, len(words))
	copy(out, words)
	for i := range out {
		w := &out[i]
		if len(w.Morae) > 0 || w.Reading == "" {
			continue
		}
		w.Morae = mora.Split(w.Reading)
		if w.MoraCount == 0 {
			w.MoraCount = len(w.Morae)
		}
	}
	return out
}
