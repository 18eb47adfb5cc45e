package playback

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ieee0824/pitchflow/audio"
	"github.com/ieee0824/pitchflow/cursor"
	"github.com/ieee0824/pitchflow/internal/metrics"
	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/synth"
	"github.com/ieee0824/pitchflow/timing"
)

// Player is an audio resource whose position drives the cursor.
type Player interface {
	cursor.Clock
	Play(ctx context.Context) error
	Stop()
	Done() <-chan struct{}
	Err() error
}

// PlayerFactory wraps decoded phrase audio in a Player.
type PlayerFactory func(clip *audio.Clip) Player

func newAudioPlayer(clip *audio.Clip) Player { return audio.NewPlayer(clip) }

// EventKind distinguishes session notifications.
type EventKind string

const (
	EventState     EventKind = "state"
	EventHighlight EventKind = "highlight"
)

// Event is a state transition or a highlight change of one session.
type Event struct {
	Kind      EventKind
	SessionID string
	State     State
	Highlight cursor.Highlight
	Err       error
}

// Listener receives session events in order. It runs on the session's
// goroutines and must not start or stop sessions.
type Listener func(Event)

// Text is the phrase sent for synthesis: the word surfaces joined as is.
func Text(words []pitch.Word) string {
	var b strings.Builder
	for i := range words {
		b.WriteString(words[i].Surface)
	}
	return b.String()
}

// Session is one phrase's playback. It owns the timing table, the audio
// player and the polling task, and is the only writer of its highlight.
type Session struct {
	id     string
	words  []pitch.Word
	points []pitch.MoraPoint

	synth     synth.Synthesizer
	newPlayer PlayerFactory
	interval  time.Duration
	listener  Listener
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	highlight cursor.Highlight
	timings   []timing.MoraTiming
	err       error
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Words returns the phrase being played.
func (s *Session) Words() []pitch.Word { return s.words }

// Points returns the resolved pitch contour of the phrase.
func (s *Session) Points() []pitch.MoraPoint { return s.points }

// Timings returns the mora timing table, or nil while loading.
func (s *Session) Timings() []timing.MoraTiming {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timings
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Highlight returns the highlighted mora.
func (s *Session) Highlight() cursor.Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// Err returns why the session left the Playing path: the load or playback
// failure for Error, the stop cause (ErrStopped, ErrSuperseded, ErrClosed or
// a context error) for Stopped, and nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session finishes and returns its terminal state.
func (s *Session) Wait() State {
	<-s.done
	return s.State()
}

// Stop cancels the session and waits for it to finish. Stopping a finished
// session is a no-op.
func (s *Session) Stop() { s.stop(ErrStopped) }

func (s *Session) stop(cause error) {
	s.cancel(cause)
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	defer s.cancel(nil)

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	s.setState(Loading, nil)

	start := time.Now()
	res, err := s.synth.SynthesizeWithTimings(s.ctx, Text(s.words))
	if s.ctx.Err() != nil {
		s.finish(Stopped, context.Cause(s.ctx))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("load phrase audio")
		s.finish(Error, fmt.Errorf("load audio: %w", err))
		return
	}
	metrics.SynthLatency.Observe(time.Since(start).Seconds())

	timings := timing.Estimate(s.words, res.Anchors)
	unanchored := timing.Unanchored(s.words, res.Anchors)
	metrics.EstimatedMorae.Add(float64(unanchored))
	startMS, endMS := timing.Span(timings)
	s.logger.Debug().
		Int("morae", len(timings)).
		Int("unanchored", unanchored).
		Float64("start_ms", startMS).
		Float64("end_ms", endMS).
		Msg("estimated timings")
	s.mu.Lock()
	s.timings = timings
	s.mu.Unlock()

	player := s.newPlayer(res.Audio)
	// Stopped or superseded while the timings were being built.
	if s.ctx.Err() != nil {
		player.Stop()
		s.finish(Stopped, context.Cause(s.ctx))
		return
	}
	if err := player.Play(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("start playback")
		s.finish(Error, fmt.Errorf("start playback: %w", err))
		return
	}
	s.setState(Playing, nil)

	task := cursor.Start(s.ctx, player, cursor.NewTable(timings), s.interval, s.setHighlight)

	select {
	case <-s.ctx.Done():
	case <-player.Done():
	}
	// The poll must be gone before the player is released.
	task.Cancel()
	player.Stop()

	switch {
	case player.Err() != nil:
		s.logger.Error().Err(player.Err()).Msg("playback failed")
		s.finish(Error, fmt.Errorf("playback: %w", player.Err()))
	case s.ctx.Err() != nil:
		s.finish(Stopped, context.Cause(s.ctx))
	default:
		s.finish(Ended, nil)
	}
}

func (s *Session) setHighlight(h cursor.Highlight) {
	s.mu.Lock()
	s.highlight = h
	state := s.state
	s.mu.Unlock()

	metrics.HighlightChanges.Inc()
	s.emit(Event{Kind: EventHighlight, State: state, Highlight: h})
}

func (s *Session) setState(state State, err error) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.err = err
	h := s.highlight
	s.mu.Unlock()

	s.logger.Debug().
		Stringer("from", prev).
		Stringer("to", state).
		Msg("state change")
	s.emit(Event{Kind: EventState, State: state, Highlight: h, Err: err})
}

// finish clears the highlight and enters a terminal state.
func (s *Session) finish(state State, err error) {
	s.mu.Lock()
	had := s.highlight.Active
	s.highlight = cursor.None
	s.mu.Unlock()

	if had {
		s.emit(Event{Kind: EventHighlight, State: s.State(), Highlight: cursor.None})
	}
	s.setState(state, err)
	metrics.Sessions.WithLabelValues(state.String()).Inc()
}

func (s *Session) emit(ev Event) {
	if s.listener == nil {
		return
	}
	ev.SessionID = s.id
	s.listener(ev)
}
