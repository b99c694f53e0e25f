package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ferrith/pressplay/internal/engine"
)

// GestureStyle selects which recognizer variant a session uses.
const (
	GestureStyleHold = "hold"
	GestureStyleTap  = "tap"
)

// Options configures a Session.
type Options struct {
	// SampleInterval is the clock sampling cadence. Zero means
	// DefaultSampleInterval.
	SampleInterval time.Duration

	// GestureStyle is GestureStyleHold or GestureStyleTap. Empty means
	// hold.
	GestureStyle string

	// HoldThreshold is the confirmation hold duration for the hold
	// style. Zero means DefaultHoldThreshold.
	HoldThreshold time.Duration
}

// Session wires the control core around one engine instance: shared
// state, clock sampler, position bridge, gesture recognizer, and the
// playback controller that owns the engine's transport API.
type Session struct {
	State      *State
	Bridge     *Bridge
	Controller *Controller
	Recognizer Recognizer

	sub       *Subscription
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSession starts a control session for eng. The caller must Close the
// session on teardown; Close synchronously stops the sampler and the
// recognizer so no callbacks fire afterwards.
func NewSession(eng engine.Engine, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st := NewState()
	ctrl := NewController(eng, logger)
	bridge := NewBridge(st, ctrl, logger)

	emit := func(intent Intent) {
		ctrl.Handle(context.Background(), intent)
	}

	var rec Recognizer
	switch opts.GestureStyle {
	case GestureStyleTap:
		rec = NewTapRecognizer(emit)
	case GestureStyleHold, "":
		rec = NewHoldRecognizer(opts.HoldThreshold, emit)
	default:
		return nil, fmt.Errorf("unknown gesture style %q", opts.GestureStyle)
	}

	sub, err := StartSampler(eng, st, opts.SampleInterval, logger)
	if err != nil {
		rec.Close()
		return nil, err
	}

	logger.Info("control session started",
		"gesture_style", opts.GestureStyle,
		"sample_interval", opts.SampleInterval,
	)

	return &Session{
		State:      st,
		Bridge:     bridge,
		Controller: ctrl,
		Recognizer: rec,
		sub:        sub,
		logger:     logger,
	}, nil
}

// SetHoldThreshold applies a new confirmation threshold to a hold-style
// session. Sessions using the tap style ignore it.
func (s *Session) SetHoldThreshold(threshold time.Duration) {
	if hold, ok := s.Recognizer.(*HoldRecognizer); ok {
		hold.SetThreshold(threshold)
		s.logger.Debug("hold threshold updated", "threshold", threshold)
	}
}

// Close tears the session down: the sampler's engine observers are
// removed and the recognizer's in-flight gesture is discarded. Close is
// idempotent and safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.sub.Close()
		s.Recognizer.Close()
		s.logger.Info("control session closed")
	})
}
