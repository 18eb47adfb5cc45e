package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/pitchflow/audio"
	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/timing"
)

const sakuraGa = `[
  {"surface": "桜", "morae": ["さ", "く", "ら"], "pitch_pattern": ["L", "H", "H"], "accent_type": 0, "mora_count": 3},
  {"surface": "が", "morae": ["が"], "part_of_speech": "助詞", "is_particle": true, "mora_count": 1}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args, "--env-file", "", "--log-level", "disabled"))
	err := root.Execute()
	return out.String(), err
}

func TestParseWords(t *testing.T) {
	words, err := parseWords([]byte(sakuraGa))
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.True(t, words[1].IsParticle())

	words, err = parseWords([]byte(`{"words": ` + sakuraGa + `}`))
	require.NoError(t, err)
	assert.Len(t, words, 2)

	_, err = parseWords([]byte("  "))
	assert.Error(t, err)
	_, err = parseWords([]byte("{"))
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	path := writeFile(t, "words.json", sakuraGa)

	out, err := run(t, "resolve", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "LHHH", lines[0])
	require.Len(t, lines, 8)
	assert.Contains(t, lines[4], "particle")
	assert.Empty(t, strings.TrimSpace(lines[5]))
	assert.Regexp(t, `^桜\s+-\s+3\s+平板 \(Heiban\)\s+LHH`, lines[6])
	assert.Regexp(t, `^が\s+-\s+1\s+Particle \(助詞\)`, lines[7])

	out, err = run(t, "resolve", path, "--format", "json")
	require.NoError(t, err)
	var points []pitch.MoraPoint
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	assert.Equal(t, "LHHH", pitch.Contour(points))
}

func TestResolveCommandWordSummary(t *testing.T) {
	path := writeFile(t, "words.json", `[
  {"surface": "東京", "reading": "とうきょう", "morae": ["と", "う", "きょ", "う"], "pitch_pattern": ["L", "H", "H", "H"], "accent_type": 0, "source": "dictionary_proper"},
  {"surface": "です", "reading": "デス", "morae": ["で", "す"], "part_of_speech": "助動詞"}
]`)
	out, err := run(t, "resolve", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "LHHHHH", lines[0])
	assert.Regexp(t, `^東京\s+トウキョウ\s+4\s+平板 \(Heiban\)\s+LHHH\s+Proper Noun \(Kanjium\)$`, lines[8])
	assert.Regexp(t, `^です\s+デス\s+2\s+Auxiliary \(助動詞\)\s*$`, lines[9])
}

func TestTimingsCommandWithAnchors(t *testing.T) {
	words := writeFile(t, "words.json", sakuraGa)
	anchors := writeFile(t, "anchors.json", `[{"text": "桜", "offset_ms": 1000, "duration_ms": 300}]`)

	out, err := run(t, "timings", words, "--anchors", anchors)
	require.NoError(t, err)
	var ts []timing.MoraTiming
	require.NoError(t, json.Unmarshal([]byte(out), &ts))
	require.Len(t, ts, 4)
	assert.Equal(t, 1000.0, ts[0].StartMS)
	assert.Equal(t, 450.0, ts[3].StartMS)
}

func TestPlayCommandWithLocalAudio(t *testing.T) {
	var wav bytes.Buffer
	require.NoError(t, audio.EncodeWAV(&wav, 8000, make([]float64, 8000*300/1000)))
	audioPath := writeFile(t, "phrase.wav", wav.String())
	words := writeFile(t, "words.json", sakuraGa)
	anchors := writeFile(t, "anchors.json", `[{"text": "桜", "offset_ms": 0, "duration_ms": 300}]`)

	out, err := run(t, "play", words, "--audio", audioPath, "--anchors", anchors)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "LHHH", lines[0])
	assert.Equal(t, "[loading]", lines[1])
	assert.Equal(t, "[playing]", lines[2])
	assert.Equal(t, "[ended]", lines[len(lines)-1])
	assert.Regexp(t, `^\s+0\s+L\s+さ$`, lines[3])
}

func TestPlayCommandAudioErrors(t *testing.T) {
	words := writeFile(t, "words.json", sakuraGa)

	_, err := run(t, "play", words, "--audio", filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	_, err = run(t, "play", words, "--audio", writeFile(t, "bad.wav", "not a wav"))
	assert.ErrorIs(t, err, audio.ErrNotRIFF)

	_, err = run(t, "play", words, "--anchors", writeFile(t, "anchors.json", "[]"))
	assert.ErrorContains(t, err, "--anchors requires --audio")
}

func TestUnknownVoice(t *testing.T) {
	t.Setenv("PITCHFLOW_SYNTH_VOICE", "robot")
	_, err := run(t, "resolve", writeFile(t, "words.json", sakuraGa))
	assert.ErrorContains(t, err, "unknown voice")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pitchflow "))
}

func TestPhraseWatcherReplaysOnWrite(t *testing.T) {
	path := writeFile(t, "words.json", sakuraGa)
	played := make(chan int, 8)
	w := &phraseWatcher{
		path:   path,
		logger: zerolog.Nop(),
		play: func(words []pitch.Word) error {
			played <- len(words)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	select {
	case n := <-played:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("initial play did not happen")
	}

	require.NoError(t, os.WriteFile(path, []byte(`{"words": [{"surface": "橋", "morae": ["は", "し"]}]}`), 0644))
	require.Eventually(t, func() bool {
		select {
		case n := <-played:
			return n == 1
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
