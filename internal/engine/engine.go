package engine

import (
	"context"
	"time"
)

// Clock is a snapshot of the engine's playback clock, delivered to
// periodic time observers.
type Clock struct {
	// CurrentTime is the playback position in seconds.
	CurrentTime float64

	// Duration is the total media duration in seconds. Only meaningful
	// when DurationKnown is true; streamed media may report it late.
	Duration      float64
	DurationKnown bool

	// Paused reflects the engine's transport state at sample time.
	Paused bool
}

// ObserverToken identifies a registered observer so it can be removed.
type ObserverToken string

// Engine is the capability surface the control core consumes from a
// media engine. Implementations own decode and render; the core only
// observes the clock and issues transport commands through it.
//
// Transport commands are not required to be safe for concurrent use;
// callers must serialize them per engine instance.
type Engine interface {
	// CurrentTime returns the playback position in seconds.
	CurrentTime(ctx context.Context) (float64, error)

	// Duration returns the media duration in seconds and whether it is
	// known yet. An unknown duration is not an error.
	Duration(ctx context.Context) (float64, bool, error)

	// Transport commands. No retries are performed by implementations;
	// a rejected command is returned as an error and the engine is left
	// in whatever state it reports.
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error

	// AddPeriodicTimeObserver registers fn to receive clock snapshots on
	// the given cadence. The returned token must eventually be passed to
	// RemoveObserver; after removal fn is never called again.
	AddPeriodicTimeObserver(interval time.Duration, fn func(Clock)) (ObserverToken, error)

	// ObserveDuration registers fn to be called whenever the media
	// duration becomes known or changes (e.g. a new item loads).
	ObserveDuration(fn func(seconds float64)) (ObserverToken, error)

	// RemoveObserver unregisters a periodic time or duration observer.
	// Removing an unknown token is a no-op.
	RemoveObserver(token ObserverToken)
}
