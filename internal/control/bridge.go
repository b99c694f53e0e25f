package control

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
)

// Bridge mediates between user-driven position edits and the engine.
// Scrubbing issues exactly one authoritative seek on release; no
// throttled seeks are sent while the drag is in progress.
type Bridge struct {
	state      *State
	controller *Controller
	logger     *slog.Logger
}

// NewBridge returns a Bridge committing user edits of st through ctrl.
func NewBridge(st *State, ctrl *Controller, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{state: st, controller: ctrl, logger: logger}
}

// CommitSeek converts a normalized position into an absolute seek and
// hands it to the controller. While the duration is unknown the commit is
// a defined no-op, not an error; duration may legitimately not be
// available yet at startup. The seeking flag is owned by the presentation
// layer and is not touched here.
func (b *Bridge) CommitSeek(ctx context.Context, position float64) {
	duration, known := b.state.Duration()
	if !known || duration <= 0 {
		b.logger.Debug("seek commit ignored: duration unknown", "position", position)
		return
	}

	target := lo.Clamp(position, 0, 1) * duration
	b.controller.Handle(ctx, Intent{Kind: IntentSeek, Target: target})
}
