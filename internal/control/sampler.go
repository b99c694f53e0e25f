package control

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ferrith/pressplay/internal/engine"
)

// DefaultSampleInterval is the cadence on which the engine clock is read
// when no interval is configured.
const DefaultSampleInterval = 500 * time.Millisecond

// Subscription is a scoped handle to the sampler's engine observers.
// Closing it is the only way to unregister them; after Close returns no
// further callbacks fire. Close is idempotent.
type Subscription struct {
	once sync.Once
	stop func()
}

// Close unregisters the sampler's observers. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.stop)
}

// StartSampler registers a periodic time observer and a duration observer
// on the engine and feeds their updates into st. The sampler never issues
// transport commands; it only publishes observations.
//
// The caller owns the returned Subscription and must Close it on
// teardown. A leaked subscription keeps the engine observers alive.
func StartSampler(eng engine.Engine, st *State, interval time.Duration, logger *slog.Logger) (*Subscription, error) {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	durationToken, err := eng.ObserveDuration(st.publishDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to observe duration: %w", err)
	}

	timeToken, err := eng.AddPeriodicTimeObserver(interval, st.publishClock)
	if err != nil {
		eng.RemoveObserver(durationToken)
		return nil, fmt.Errorf("failed to add periodic time observer: %w", err)
	}

	logger.Debug("clock sampler started", "interval", interval)

	return &Subscription{
		stop: func() {
			eng.RemoveObserver(timeToken)
			eng.RemoveObserver(durationToken)
			logger.Debug("clock sampler stopped")
		},
	}, nil
}
