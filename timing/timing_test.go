package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/pitchflow/pitch"
)

func word(surface string, morae ...string) pitch.Word {
	return pitch.Word{Surface: surface, Morae: morae, MoraCount: len(morae)}
}

func TestEstimateAnchored(t *testing.T) {
	words := []pitch.Word{word("桜", "さ", "く", "ら")}
	got := Estimate(words, []Anchor{{Text: "桜", OffsetMS: 1000, DurationMS: 300}})
	assert.Equal(t, []MoraTiming{
		{Index: 0, StartMS: 1000, EndMS: 1100},
		{Index: 1, StartMS: 1100, EndMS: 1200},
		{Index: 2, StartMS: 1200, EndMS: 1300},
	}, got)
}

func TestEstimateZeroDuration(t *testing.T) {
	words := []pitch.Word{word("が", "が"), word("桜", "さ", "く")}
	got := Estimate(words, []Anchor{{Text: "桜", OffsetMS: 500, DurationMS: 0}})
	require.Len(t, got, 3)
	assert.Equal(t, MoraTiming{Index: 1, StartMS: 500, EndMS: 600}, got[1])
	assert.Equal(t, MoraTiming{Index: 2, StartMS: 600, EndMS: 700}, got[2])
}

func TestEstimateFallback(t *testing.T) {
	words := []pitch.Word{word("桜", "さ", "く", "ら"), word("が", "が")}
	got := Estimate(words, nil)
	assert.Equal(t, []MoraTiming{
		{Index: 0, StartMS: 0, EndMS: 150},
		{Index: 1, StartMS: 150, EndMS: 300},
		{Index: 2, StartMS: 300, EndMS: 450},
		{Index: 3, StartMS: 450, EndMS: 600},
	}, got)
}

func TestEstimateFallbackIgnoresAnchoredTime(t *testing.T) {
	// The unanchored particle is placed by absolute mora index, not after
	// the anchored word's real end at 2000ms.
	words := []pitch.Word{word("桜", "さ", "く", "ら"), word("が", "が")}
	got := Estimate(words, []Anchor{{Text: "桜", OffsetMS: 1400, DurationMS: 600}})
	require.Len(t, got, 4)
	assert.Equal(t, MoraTiming{Index: 2, StartMS: 1800, EndMS: 2000}, got[2])
	assert.Equal(t, MoraTiming{Index: 3, StartMS: 450, EndMS: 600}, got[3])
}

func TestEstimateFirstAnchorWins(t *testing.T) {
	words := []pitch.Word{word("が", "が")}
	got := Estimate(words, []Anchor{
		{Text: "が", OffsetMS: 10, DurationMS: 20},
		{Text: "が", OffsetMS: 90, DurationMS: 20},
	})
	assert.Equal(t, []MoraTiming{{Index: 0, StartMS: 10, EndMS: 30}}, got)
}

func TestEstimateSkipsEmptyWords(t *testing.T) {
	words := []pitch.Word{word("、"), word("桜", "さ", "く", "ら")}
	got := Estimate(words, []Anchor{{Text: "、", OffsetMS: 0, DurationMS: 100}})
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index)
}

func TestEstimateAlignsWithResolve(t *testing.T) {
	words := []pitch.Word{
		{Surface: "田中", Morae: []string{"た", "な", "か"}, Source: pitch.SourceProperNoun},
		{Surface: "さん", Morae: []string{"さ", "ん"}, PartOfSpeech: pitch.POSParticle},
		{Surface: "、"},
		{Surface: "橋", Morae: []string{"は", "し"}},
		{Surface: "に", Morae: []string{"に"}, PartOfSpeech: pitch.POSParticle},
		{Surface: "は", Morae: []string{"は"}, PartOfSpeech: pitch.POSParticle},
	}
	anchorSets := [][]Anchor{
		nil,
		{{Text: "田中", OffsetMS: 0, DurationMS: 450}},
		{{Text: "橋", OffsetMS: 900, DurationMS: 200}, {Text: "に", OffsetMS: 1100, DurationMS: 80}},
		{{Text: "unmatched", OffsetMS: 5, DurationMS: 5}},
	}
	points := pitch.Resolve(words)
	for _, anchors := range anchorSets {
		timings := Estimate(words, anchors)
		require.Len(t, timings, len(points))
		for i, tm := range timings {
			assert.Equal(t, i, tm.Index)
			assert.Less(t, tm.StartMS, tm.EndMS)
		}
	}
}

func TestContains(t *testing.T) {
	m := MoraTiming{StartMS: 100, EndMS: 200}
	assert.True(t, m.Contains(100))
	assert.True(t, m.Contains(199.9))
	assert.False(t, m.Contains(200))
	assert.False(t, m.Contains(99))
}

func TestSpan(t *testing.T) {
	start, end := Span([]MoraTiming{{StartMS: 300, EndMS: 450}, {StartMS: 0, EndMS: 150}, {StartMS: 1800, EndMS: 2000}})
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 2000.0, end)

	start, end = Span(nil)
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestUnanchored(t *testing.T) {
	words := []pitch.Word{word("桜", "さ", "く", "ら"), word("が", "が"), word("、")}
	assert.Equal(t, 4, Unanchored(words, nil))
	assert.Equal(t, 1, Unanchored(words, []Anchor{{Text: "桜", OffsetMS: 0, DurationMS: 300}}))
}
