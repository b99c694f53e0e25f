package control

import (
	"sync"
	"time"
)

// EventKind enumerates the raw pointer events delivered by the
// presentation layer.
type EventKind int

const (
	EventPress EventKind = iota
	EventMove
	EventRelease
	EventCancel
)

// Event is one raw pointer event. At is the delivery time; recognizers
// that need hold timing measure from it.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Phase is the recognizer's interaction state. It exists for
// presentation (highlighting an active or dragging control); it never
// drives engine commands itself.
type Phase int

const (
	PhaseInactive Phase = iota
	PhasePressing
	PhaseDragging
)

// IsActive reports whether a gesture is in progress.
func (p Phase) IsActive() bool {
	return p != PhaseInactive
}

// IsDragging reports whether the gesture has been confirmed and is in
// its dragging stage.
func (p Phase) IsDragging() bool {
	return p == PhaseDragging
}

// String returns a human-readable label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInactive:
		return "inactive"
	case PhasePressing:
		return "pressing"
	case PhaseDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Recognizer converts raw pointer events into playback intents. Two
// interchangeable implementations exist: TapRecognizer starts playback
// on press, HoldRecognizer requires a sustained hold before confirming.
// The active one is a configuration choice, never both at once.
//
// Intents are delivered to the sink passed at construction. Recognizers
// are re-entrant across gesture instances: every completed or cancelled
// gesture fully resets state before the next one begins.
type Recognizer interface {
	// Handle feeds one pointer event into the state machine.
	Handle(Event)

	// Phase returns the current interaction state, for presentation only.
	Phase() Phase

	// Close discards any in-flight gesture and cancels pending timers.
	// No intents are emitted after Close returns.
	Close()
}

// TapRecognizer is the immediate press/release variant: Play on press,
// Pause on release. Cancellation is treated identically to release so a
// press can never be left unmatched.
type TapRecognizer struct {
	mu      sync.Mutex
	pressed bool
	closed  bool
	emit    func(Intent)
}

// NewTapRecognizer returns a TapRecognizer delivering intents to emit.
func NewTapRecognizer(emit func(Intent)) *TapRecognizer {
	return &TapRecognizer{emit: emit}
}

// Handle implements Recognizer. The intent is emitted while the lock is
// held so emissions reach the sink in transition order; the sink must
// not call back into the recognizer.
func (r *TapRecognizer) Handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case EventPress:
		if !r.closed && !r.pressed {
			r.pressed = true
			r.emitLocked(Intent{Kind: IntentPlay})
		}
	case EventRelease, EventCancel:
		if r.pressed {
			r.pressed = false
			r.emitLocked(Intent{Kind: IntentPause})
		}
	}
}

func (r *TapRecognizer) emitLocked(intent Intent) {
	if r.emit != nil {
		r.emit(intent)
	}
}

// Phase implements Recognizer.
func (r *TapRecognizer) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pressed {
		return PhasePressing
	}
	return PhaseInactive
}

// Close implements Recognizer. An in-flight press is discarded without a
// Pause; teardown is expected to stop the engine through other means.
func (r *TapRecognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pressed = false
	r.closed = true
}

// HoldRecognizer is the confirm-by-hold variant. A press enters the
// pre-confirmation phase; only once it has been held continuously for
// the configured threshold does the gesture confirm, emitting Play and
// entering the dragging phase. Release or cancel before the threshold
// discards the interaction silently. Release or cancel while dragging
// emits Pause.
//
// Pause is emitted iff Play was emitted for the same gesture instance,
// and never twice: the confirmation timer is generation-checked so a
// stale timer from a finished gesture can never fire into the next one.
type HoldRecognizer struct {
	mu        sync.Mutex
	phase     Phase
	threshold time.Duration
	gen       uint64
	timer     *time.Timer
	closed    bool
	emit      func(Intent)
}

// DefaultHoldThreshold is the minimum hold duration before a press is
// confirmed, when none is configured.
const DefaultHoldThreshold = 2 * time.Second

// NewHoldRecognizer returns a HoldRecognizer with the given confirmation
// threshold, delivering intents to emit.
func NewHoldRecognizer(threshold time.Duration, emit func(Intent)) *HoldRecognizer {
	if threshold <= 0 {
		threshold = DefaultHoldThreshold
	}
	return &HoldRecognizer{threshold: threshold, emit: emit}
}

// SetThreshold updates the confirmation threshold. It applies to the
// next gesture; an in-flight press keeps the threshold it started with.
func (r *HoldRecognizer) SetThreshold(threshold time.Duration) {
	if threshold <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threshold = threshold
}

// Handle implements Recognizer. As with TapRecognizer, intents are
// emitted under the lock so the confirmed Play and its Pause can never
// reach the sink out of order.
func (r *HoldRecognizer) Handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case EventPress:
		if !r.closed && r.phase == PhaseInactive {
			r.phase = PhasePressing
			r.gen++
			gen := r.gen
			r.timer = time.AfterFunc(r.threshold, func() { r.confirm(gen) })
		}
	case EventRelease, EventCancel:
		switch r.phase {
		case PhasePressing:
			// Unconfirmed press: discard, no intent either way.
			r.stopTimerLocked()
			r.phase = PhaseInactive
			r.gen++
		case PhaseDragging:
			r.phase = PhaseInactive
			r.gen++
			r.emitLocked(Intent{Kind: IntentPause})
		}
	case EventMove:
		// Movement does not affect the state machine; scrubbing position
		// is the presentation layer's concern.
	}
}

// confirm fires when the hold threshold elapses. The generation check
// makes it a no-op if the gesture ended or a new one began meanwhile.
func (r *HoldRecognizer) confirm(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.gen != gen || r.phase != PhasePressing {
		return
	}
	r.phase = PhaseDragging
	r.emitLocked(Intent{Kind: IntentPlay})
}

func (r *HoldRecognizer) emitLocked(intent Intent) {
	if r.emit != nil {
		r.emit(intent)
	}
}

// Phase implements Recognizer.
func (r *HoldRecognizer) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Close implements Recognizer.
func (r *HoldRecognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.phase = PhaseInactive
	r.gen++
	r.closed = true
}

func (r *HoldRecognizer) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
