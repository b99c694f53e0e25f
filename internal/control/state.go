package control

import (
	"sync"

	"github.com/samber/lo"

	"github.com/ferrith/pressplay/internal/engine"
)

// State is the observable playback state shared between the control core
// and the presentation layer: the normalized position, the media duration,
// and the seeking flag that marks the user as the current owner of the
// position value.
//
// All three fields are guarded by a single mutex because they are updated
// jointly; a torn read of position and seeking would break the
// feedback-suppression invariant while the user is scrubbing.
type State struct {
	mu            sync.Mutex
	position      float64
	duration      float64
	durationKnown bool
	seeking       bool

	onPosition func(float64)
	onDuration func(float64)
}

// NewState returns a State with position 0 and unknown duration.
func NewState() *State {
	return &State{}
}

// OnPositionChange sets the callback invoked whenever the normalized
// position is published, from either the sampler or a user edit. Set it
// before wiring the sampler to avoid missing updates.
func (s *State) OnPositionChange(fn func(position float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPosition = fn
}

// OnDurationChange sets the callback invoked whenever the media duration
// becomes known or changes.
func (s *State) OnDurationChange(fn func(seconds float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDuration = fn
}

// Position returns the current normalized position in [0,1].
func (s *State) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration returns the media duration in seconds and whether it is known.
func (s *State) Duration() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration, s.durationKnown
}

// Seeking reports whether the user currently owns the position value.
func (s *State) Seeking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeking
}

// SetSeeking is written by the presentation layer: true when a scrub
// interaction begins, false when it ends. While true the sampler skips
// position writes entirely.
func (s *State) SetSeeking(seeking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeking = seeking
}

// SetPosition writes a user-edited normalized position, clamped to [0,1].
// The presentation layer calls this while the user drags a seek control;
// the engine is only told about the final value via Bridge.CommitSeek.
func (s *State) SetPosition(position float64) {
	s.mu.Lock()
	s.position = lo.Clamp(position, 0, 1)
	notify := s.onPosition
	p := s.position
	s.mu.Unlock()

	if notify != nil {
		notify(p)
	}
}

// publishClock feeds a sampled engine clock into the state. The write is
// skipped entirely while the user is seeking (no buffering, no queued
// write) and while the duration is unknown or zero, so the position is
// never computed from an undefined denominator.
func (s *State) publishClock(c engine.Clock) {
	s.mu.Lock()

	var notifyDuration func(float64)
	if c.DurationKnown && c.Duration > 0 && (!s.durationKnown || s.duration != c.Duration) {
		// Duration changes publish immediately, not gated by seeking.
		s.duration = c.Duration
		s.durationKnown = true
		notifyDuration = s.onDuration
	}
	d := s.duration

	var notifyPosition func(float64)
	var p float64
	if !s.seeking && s.durationKnown && d > 0 {
		s.position = lo.Clamp(c.CurrentTime/d, 0, 1)
		p = s.position
		notifyPosition = s.onPosition
	}
	s.mu.Unlock()

	if notifyDuration != nil {
		notifyDuration(d)
	}
	if notifyPosition != nil {
		notifyPosition(p)
	}
}

// publishDuration records a duration reported by the engine's duration
// observer. Like the sampled path, it is never gated by the seeking flag.
func (s *State) publishDuration(seconds float64) {
	if seconds <= 0 {
		return
	}

	s.mu.Lock()
	changed := !s.durationKnown || s.duration != seconds
	s.duration = seconds
	s.durationKnown = true
	notify := s.onDuration
	s.mu.Unlock()

	if changed && notify != nil {
		notify(seconds)
	}
}
