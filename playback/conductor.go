package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ieee0824/pitchflow/cursor"
	"github.com/ieee0824/pitchflow/internal/logging"
	"github.com/ieee0824/pitchflow/internal/metrics"
	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/synth"
)

// Conductor owns the current session. Starting a new phrase fully stops the
// previous one first, so at most one session is ever loading or playing.
type Conductor struct {
	synth     synth.Synthesizer
	newPlayer PlayerFactory
	interval  time.Duration
	listener  Listener
	logger    zerolog.Logger

	mu      sync.Mutex
	current *Session
	closed  bool
}

// Option configures a Conductor.
type Option func(*Conductor)

// WithSynthesizer sets the audio source.
func WithSynthesizer(s synth.Synthesizer) Option {
	return func(c *Conductor) {
		c.synth = s
	}
}

// WithPlayerFactory replaces how decoded audio is played.
func WithPlayerFactory(f PlayerFactory) Option {
	return func(c *Conductor) {
		c.newPlayer = f
	}
}

// WithPollInterval sets the cursor polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Conductor) {
		c.interval = d
	}
}

// WithListener subscribes to events of every session.
func WithListener(l Listener) Option {
	return func(c *Conductor) {
		c.listener = l
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Conductor) {
		c.logger = logging.Component(logger, "playback")
	}
}

// NewConductor creates a Conductor. Without WithSynthesizer it talks to the
// synthesis service at its default address.
func NewConductor(opts ...Option) *Conductor {
	c := &Conductor{
		newPlayer: newAudioPlayer,
		interval:  cursor.DefaultInterval,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.synth == nil {
		c.synth = synth.NewClient(nil, synth.WithLogger(c.logger))
	}
	return c
}

// Play starts a session for words, superseding any session in progress.
// The previous session has reached a terminal state, with its poll
// cancelled and highlight cleared, before the new one starts loading.
func (c *Conductor) Play(ctx context.Context, words []pitch.Word) (*Session, error) {
	sctx, cancel := context.WithCancelCause(ctx)
	id := uuid.NewString()
	s := &Session{
		id:        id,
		words:     words,
		points:    pitch.Resolve(words),
		synth:     c.synth,
		newPlayer: c.newPlayer,
		interval:  c.interval,
		listener:  c.listener,
		logger:    c.logger.With().Str("session", id).Logger(),
		ctx:       sctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		highlight: cursor.None,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel(ErrClosed)
		return nil, ErrClosed
	}
	prev := c.current
	c.current = s
	c.mu.Unlock()

	if prev != nil {
		select {
		case <-prev.Done():
		default:
			c.logger.Info().
				Str("previous", prev.ID()).
				Str("session", id).
				Msg("superseding session")
			metrics.Superseded.Inc()
		}
		prev.stop(ErrSuperseded)
	}

	go s.run()
	return s, nil
}

// Current returns the most recent session, or nil.
func (c *Conductor) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop stops the current session, if any.
func (c *Conductor) Stop() {
	if s := c.Current(); s != nil {
		s.Stop()
	}
}

// Close stops the current session and rejects further Play calls.
func (c *Conductor) Close() error {
	c.mu.Lock()
	c.closed = true
	s := c.current
	c.mu.Unlock()

	if s != nil {
		s.stop(ErrClosed)
	}
	return nil
}
