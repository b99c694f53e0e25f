package control

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerDispatchesIntents(t *testing.T) {
	eng := newFakeEngine()
	ctrl := NewController(eng, nil)
	ctx := context.Background()

	ctrl.Handle(ctx, Intent{Kind: IntentPlay})
	ctrl.Handle(ctx, Intent{Kind: IntentSeek, Target: 42.5})
	ctrl.Handle(ctx, Intent{Kind: IntentPause})

	assert.Equal(t, 1, eng.playCalls)
	assert.Equal(t, 1, eng.pauseCalls)
	assert.Equal(t, []float64{42.5}, eng.seekCalls)
}

func TestControllerSurfacesRejectionWithoutRetry(t *testing.T) {
	eng := newFakeEngine()
	eng.commandErr = errors.New("invalid state")
	ctrl := NewController(eng, nil)

	var reported []error
	ctrl.OnError(func(err error) { reported = append(reported, err) })

	ctrl.Handle(context.Background(), Intent{Kind: IntentPlay})

	// Exactly one attempt, exactly one report.
	assert.Equal(t, 1, eng.playCalls)
	require.Len(t, reported, 1)
	assert.ErrorContains(t, reported[0], "play rejected")
}

func TestControllerSerializesCommands(t *testing.T) {
	eng := newFakeEngine()
	ctrl := NewController(eng, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				ctrl.Handle(context.Background(), Intent{Kind: IntentPlay})
			case 1:
				ctrl.Handle(context.Background(), Intent{Kind: IntentPause})
			default:
				ctrl.Handle(context.Background(), Intent{Kind: IntentSeek, Target: float64(i)})
			}
		}(i)
	}
	wg.Wait()

	assert.False(t, eng.overlap, "transport commands must not run concurrently")
}

func TestRecognizerRejectionLeavesGestureTerminal(t *testing.T) {
	eng := newFakeEngine()
	eng.commandErr = errors.New("engine busy")
	ctrl := NewController(eng, nil)

	var reported int
	ctrl.OnError(func(error) { reported++ })

	tap := NewTapRecognizer(func(intent Intent) {
		ctrl.Handle(context.Background(), intent)
	})
	defer tap.Close()

	tap.Handle(Event{Kind: EventPress})
	tap.Handle(Event{Kind: EventRelease})

	// Engine failures never wedge the recognizer mid-gesture.
	assert.Equal(t, PhaseInactive, tap.Phase())
	assert.Equal(t, 2, reported)
}
