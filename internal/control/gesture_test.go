package control

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intentRecorder collects emitted intents for assertions.
type intentRecorder struct {
	mu      sync.Mutex
	intents []Intent
}

func (r *intentRecorder) sink(intent Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

func (r *intentRecorder) kinds() []IntentKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]IntentKind, len(r.intents))
	for i, intent := range r.intents {
		kinds[i] = intent.Kind
	}
	return kinds
}

func press(t time.Time) Event   { return Event{Kind: EventPress, At: t} }
func release(t time.Time) Event { return Event{Kind: EventRelease, At: t} }
func cancel(t time.Time) Event  { return Event{Kind: EventCancel, At: t} }

func TestTapRecognizerPairsPlayPause(t *testing.T) {
	rec := &intentRecorder{}
	tap := NewTapRecognizer(rec.sink)
	defer tap.Close()

	now := time.Now()
	tap.Handle(press(now))
	assert.True(t, tap.Phase().IsActive())
	tap.Handle(release(now.Add(300 * time.Millisecond)))
	assert.Equal(t, PhaseInactive, tap.Phase())

	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
}

func TestTapRecognizerTreatsCancelAsRelease(t *testing.T) {
	rec := &intentRecorder{}
	tap := NewTapRecognizer(rec.sink)
	defer tap.Close()

	now := time.Now()
	tap.Handle(press(now))
	tap.Handle(cancel(now.Add(time.Second)))

	// Cancellation must not leave playback stuck with an unmatched Play.
	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
	assert.Equal(t, PhaseInactive, tap.Phase())
}

func TestTapRecognizerIgnoresSpuriousEvents(t *testing.T) {
	rec := &intentRecorder{}
	tap := NewTapRecognizer(rec.sink)
	defer tap.Close()

	now := time.Now()
	tap.Handle(release(now)) // release with no press
	tap.Handle(press(now))
	tap.Handle(press(now)) // double press
	tap.Handle(release(now))
	tap.Handle(release(now)) // double release

	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
}

func TestHoldRecognizerShortPressEmitsNothing(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(80*time.Millisecond, rec.sink)
	defer hold.Close()

	now := time.Now()
	hold.Handle(press(now))
	assert.Equal(t, PhasePressing, hold.Phase())
	hold.Handle(release(now.Add(20 * time.Millisecond)))
	assert.Equal(t, PhaseInactive, hold.Phase())

	// Wait past the threshold: the cancelled timer must not fire Play.
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.kinds())
}

func TestHoldRecognizerConfirmsAfterThreshold(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(50*time.Millisecond, rec.sink)
	defer hold.Close()

	hold.Handle(press(time.Now()))
	assert.Eventually(t, func() bool {
		return hold.Phase().IsDragging()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []IntentKind{IntentPlay}, rec.kinds())

	hold.Handle(release(time.Now()))
	assert.Equal(t, PhaseInactive, hold.Phase())
	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
}

func TestHoldRecognizerCancelWhileDraggingEmitsPause(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(30*time.Millisecond, rec.sink)
	defer hold.Close()

	hold.Handle(press(time.Now()))
	require.Eventually(t, func() bool {
		return hold.Phase().IsDragging()
	}, time.Second, 5*time.Millisecond)

	hold.Handle(cancel(time.Now()))
	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
	assert.Equal(t, PhaseInactive, hold.Phase())
}

func TestHoldRecognizerReentrantAcrossGestures(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(30*time.Millisecond, rec.sink)
	defer hold.Close()

	// First gesture: abandoned before confirmation.
	hold.Handle(press(time.Now()))
	hold.Handle(release(time.Now()))

	// Second gesture: held to confirmation and released.
	hold.Handle(press(time.Now()))
	require.Eventually(t, func() bool {
		return hold.Phase().IsDragging()
	}, time.Second, 5*time.Millisecond)
	hold.Handle(release(time.Now()))

	// Third gesture again abandoned; the confirmed pair stays matched.
	hold.Handle(press(time.Now()))
	hold.Handle(cancel(time.Now()))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
}

func TestHoldRecognizerMoveDoesNotAffectState(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(30*time.Millisecond, rec.sink)
	defer hold.Close()

	hold.Handle(press(time.Now()))
	hold.Handle(Event{Kind: EventMove, At: time.Now()})
	assert.Equal(t, PhasePressing, hold.Phase())

	require.Eventually(t, func() bool {
		return hold.Phase().IsDragging()
	}, time.Second, 5*time.Millisecond)
	hold.Handle(Event{Kind: EventMove, At: time.Now()})
	assert.Equal(t, PhaseDragging, hold.Phase())

	hold.Handle(release(time.Now()))
	assert.Equal(t, []IntentKind{IntentPlay, IntentPause}, rec.kinds())
}

func TestHoldRecognizerCloseCancelsPendingTimer(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(30*time.Millisecond, rec.sink)

	hold.Handle(press(time.Now()))
	hold.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.kinds())
	assert.Equal(t, PhaseInactive, hold.Phase())

	// Events after Close are ignored.
	hold.Handle(press(time.Now()))
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, rec.kinds())
}

func TestHoldRecognizerSetThresholdAppliesToNextGesture(t *testing.T) {
	rec := &intentRecorder{}
	hold := NewHoldRecognizer(time.Hour, rec.sink)
	defer hold.Close()

	hold.SetThreshold(30 * time.Millisecond)
	hold.Handle(press(time.Now()))
	assert.Eventually(t, func() bool {
		return hold.Phase().IsDragging()
	}, time.Second, 5*time.Millisecond)
}

func TestPhasePredicates(t *testing.T) {
	assert.False(t, PhaseInactive.IsActive())
	assert.False(t, PhaseInactive.IsDragging())
	assert.True(t, PhasePressing.IsActive())
	assert.False(t, PhasePressing.IsDragging())
	assert.True(t, PhaseDragging.IsActive())
	assert.True(t, PhaseDragging.IsDragging())

	assert.Equal(t, "inactive", PhaseInactive.String())
	assert.Equal(t, "pressing", PhasePressing.String())
	assert.Equal(t, "dragging", PhaseDragging.String())
}
