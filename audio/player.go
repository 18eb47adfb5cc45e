package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAlreadyStarted is returned when Play is called twice.
var ErrAlreadyStarted = errors.New("player already started")

// Player models an audio element playing a clip in real time. It exposes
// the current position the way a media element does; no samples are sent
// to a device.
type Player struct {
	clip *Clip
	now  func() time.Time

	mu      sync.Mutex
	started time.Time
	playing bool
	ended   bool
	stopped bool
	err     error
	done    chan struct{}
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithNow replaces the wall clock used to compute the position.
func WithNow(now func() time.Time) PlayerOption {
	return func(p *Player) {
		p.now = now
	}
}

// NewPlayer creates a paused player positioned at zero.
func NewPlayer(clip *Clip, opts ...PlayerOption) *Player {
	p := &Player{
		clip: clip,
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration returns the clip length.
func (p *Player) Duration() time.Duration { return p.clip.Duration() }

// Play starts playback. The player finishes on its own at the end of the
// clip, or stops when ctx is cancelled.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.playing || p.ended || p.stopped {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.playing = true
	p.started = p.now()
	p.mu.Unlock()

	go func() {
		timer := time.NewTimer(p.clip.Duration())
		defer timer.Stop()
		select {
		case <-timer.C:
			p.finish(false, nil)
		case <-ctx.Done():
			p.finish(true, nil)
		case <-p.done:
		}
	}()
	return nil
}

// Position returns the current playback position. A stopped player is
// rewound to zero; an ended one rests at the clip end.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.ended:
		return p.clip.Duration()
	case !p.playing:
		return 0
	}
	pos := p.now().Sub(p.started)
	if d := p.clip.Duration(); pos > d {
		pos = d
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Paused reports whether the player is not currently playing.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.playing
}

// Stop pauses and rewinds. Stopping a finished player is a no-op.
func (p *Player) Stop() { p.finish(true, nil) }

// Fail ends playback with a runtime error, as a codec or device failure
// would.
func (p *Player) Fail(err error) { p.finish(true, err) }

// Done is closed when playback has ended, been stopped or failed.
func (p *Player) Done() <-chan struct{} { return p.done }

// Err returns the runtime error that ended playback, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stopped reports whether playback was cut short rather than reaching the
// clip end.
func (p *Player) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *Player) finish(stopped bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended || p.stopped {
		return
	}
	p.playing = false
	if stopped {
		p.stopped = true
	} else {
		p.ended = true
	}
	p.err = err
	close(p.done)
}
