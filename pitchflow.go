// Package pitchflow derives the pitch contour of a Japanese phrase and keeps
// a "now playing" mora cursor in sync with its synthesized audio.
package pitchflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ieee0824/pitchflow/cursor"
	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/playback"
	"github.com/ieee0824/pitchflow/synth"
	"github.com/ieee0824/pitchflow/timing"
)

// Version is the release version reported by the CLI.
const Version = "0.3.0"

// Engine is the top-level entry point.
type Engine struct {
	Synth        synth.Synthesizer
	PollInterval time.Duration
	FillMorae    bool // split readings into morae for words that arrive without them

	logger    zerolog.Logger
	listener  playback.Listener
	newPlayer playback.PlayerFactory
	conductor *playback.Conductor
}

// Option configures an Engine.
type Option func(*Engine)

// WithSynthesizer sets the audio and anchor source.
func WithSynthesizer(s synth.Synthesizer) Option {
	return func(e *Engine) {
		e.Synth = s
	}
}

// WithPollInterval sets how often the cursor samples the audio position.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.PollInterval = d
	}
}

// WithFillMorae enables splitting readings for words with no morae.
func WithFillMorae(enabled bool) Option {
	return func(e *Engine) {
		e.FillMorae = enabled
	}
}

// WithListener subscribes to playback events.
func WithListener(l playback.Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithPlayerFactory replaces the audio player.
func WithPlayerFactory(f playback.PlayerFactory) Option {
	return func(e *Engine) {
		e.newPlayer = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		PollInterval: cursor.DefaultInterval,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Synth == nil {
		e.Synth = synth.NewClient(nil, synth.WithLogger(e.logger))
	}

	copts := []playback.Option{
		playback.WithSynthesizer(e.Synth),
		playback.WithPollInterval(e.PollInterval),
		playback.WithLogger(e.logger),
	}
	if e.listener != nil {
		copts = append(copts, playback.WithListener(e.listener))
	}
	if e.newPlayer != nil {
		copts = append(copts, playback.WithPlayerFactory(e.newPlayer))
	}
	e.conductor = playback.NewConductor(copts...)
	return e
}

// Fork returns an engine with e's settings but its own session owner, so
// each caller gets independent supersession and events.
func (e *Engine) Fork(l playback.Listener) *Engine {
	opts := []Option{
		WithSynthesizer(e.Synth),
		WithPollInterval(e.PollInterval),
		WithFillMorae(e.FillMorae),
		WithLogger(e.logger),
		WithListener(l),
	}
	if e.newPlayer != nil {
		opts = append(opts, WithPlayerFactory(e.newPlayer))
	}
	return NewEngine(opts...)
}

func (e *Engine) prepare(words []pitch.Word) []pitch.Word {
	if e.FillMorae {
		return pitch.FillMorae(words)
	}
	return words
}

// Analyze returns the per-mora pitch contour of the phrase.
func (e *Engine) Analyze(words []pitch.Word) []pitch.MoraPoint {
	return pitch.Resolve(e.prepare(words))
}

// Timings maps anchors onto the phrase's morae.
func (e *Engine) Timings(words []pitch.Word, anchors []timing.Anchor) []timing.MoraTiming {
	return timing.Estimate(e.prepare(words), anchors)
}

// Anchors synthesizes the phrase and returns only its word anchors.
func (e *Engine) Anchors(ctx context.Context, words []pitch.Word) ([]timing.Anchor, error) {
	res, err := e.Synth.SynthesizeWithTimings(ctx, playback.Text(words))
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return res.Anchors, nil
}

// Play starts playback of the phrase, superseding any phrase in progress.
func (e *Engine) Play(ctx context.Context, words []pitch.Word) (*playback.Session, error) {
	return e.conductor.Play(ctx, e.prepare(words))
}

// Current returns the most recent session, or nil.
func (e *Engine) Current() *playback.Session {
	return e.conductor.Current()
}

// Stop stops the phrase in progress.
func (e *Engine) Stop() {
	e.conductor.Stop()
}

// Close stops playback and rejects further phrases.
func (e *Engine) Close() error {
	return e.conductor.Close()
}
