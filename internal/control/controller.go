package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ferrith/pressplay/internal/engine"
)

// IntentKind enumerates the discrete playback commands produced by
// interpreting continuous input.
type IntentKind int

const (
	IntentPlay IntentKind = iota
	IntentPause
	IntentSeek
)

// String returns a human-readable label for the intent kind.
func (k IntentKind) String() string {
	switch k {
	case IntentPlay:
		return "play"
	case IntentPause:
		return "pause"
	case IntentSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// Intent is a single playback command. It is emitted once per state
// transition and consumed immediately by the Controller.
type Intent struct {
	Kind IntentKind

	// Target is the seek target in seconds. Only meaningful for IntentSeek.
	Target float64
}

// Controller is the single point of contact with the engine's imperative
// transport API. Intents are serialized per instance; the engine API is
// assumed not safe for concurrent imperative calls.
type Controller struct {
	mu      sync.Mutex
	engine  engine.Engine
	logger  *slog.Logger
	onError func(error)
}

// NewController returns a Controller driving eng.
func NewController(eng engine.Engine, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{engine: eng, logger: logger}
}

// OnError sets the callback invoked when the engine rejects a command.
// Failures are surfaced, never retried, and never panic across the
// sampling or gesture callbacks that triggered them.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Handle executes one intent against the engine. Calls are serialized;
// a rejected command is logged and reported via the OnError callback,
// with no retry and no state correction beyond what the engine reports.
func (c *Controller) Handle(ctx context.Context, intent Intent) {
	c.mu.Lock()

	var err error
	switch intent.Kind {
	case IntentPlay:
		err = c.engine.Play(ctx)
	case IntentPause:
		err = c.engine.Pause(ctx)
	case IntentSeek:
		err = c.engine.Seek(ctx, intent.Target)
	default:
		err = fmt.Errorf("unknown intent kind %d", intent.Kind)
	}
	onError := c.onError
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("engine command rejected", "intent", intent.Kind.String(), "error", err)
		if onError != nil {
			onError(fmt.Errorf("%s rejected: %w", intent.Kind, err))
		}
	}
}
