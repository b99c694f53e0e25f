package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ferrith/pressplay/internal/engine"
)

// fakeEngine is a manually driven engine for tests: observers fire only
// when the test calls tick or setDuration, and every transport command is
// recorded.
type fakeEngine struct {
	mu sync.Mutex

	currentTime   float64
	duration      float64
	durationKnown bool
	paused        bool

	timeObservers     map[engine.ObserverToken]func(engine.Clock)
	durationObservers map[engine.ObserverToken]func(float64)

	playCalls  int
	pauseCalls int
	seekCalls  []float64

	commandErr error

	// inFlight flags an overlapping transport command; the controller is
	// supposed to serialize them.
	inFlight bool
	overlap  bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		timeObservers:     make(map[engine.ObserverToken]func(engine.Clock)),
		durationObservers: make(map[engine.ObserverToken]func(float64)),
	}
}

func (f *fakeEngine) enter() error {
	f.mu.Lock()
	if f.inFlight {
		f.overlap = true
	}
	f.inFlight = true
	err := f.commandErr
	f.mu.Unlock()

	// Widen the race window so overlapping Handle calls would be caught.
	time.Sleep(time.Millisecond)
	return err
}

func (f *fakeEngine) exit() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}

func (f *fakeEngine) CurrentTime(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTime, nil
}

func (f *fakeEngine) Duration(ctx context.Context) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, f.durationKnown, nil
}

func (f *fakeEngine) Play(ctx context.Context) error {
	err := f.enter()
	f.mu.Lock()
	f.playCalls++
	f.paused = false
	f.mu.Unlock()
	f.exit()
	return err
}

func (f *fakeEngine) Pause(ctx context.Context) error {
	err := f.enter()
	f.mu.Lock()
	f.pauseCalls++
	f.paused = true
	f.mu.Unlock()
	f.exit()
	return err
}

func (f *fakeEngine) Seek(ctx context.Context, seconds float64) error {
	err := f.enter()
	f.mu.Lock()
	f.seekCalls = append(f.seekCalls, seconds)
	if err == nil {
		f.currentTime = seconds
	}
	f.mu.Unlock()
	f.exit()
	return err
}

func (f *fakeEngine) AddPeriodicTimeObserver(interval time.Duration, fn func(engine.Clock)) (engine.ObserverToken, error) {
	if interval <= 0 {
		return "", fmt.Errorf("invalid interval %v", interval)
	}
	token := engine.ObserverToken(uuid.NewString())
	f.mu.Lock()
	f.timeObservers[token] = fn
	f.mu.Unlock()
	return token, nil
}

func (f *fakeEngine) ObserveDuration(fn func(float64)) (engine.ObserverToken, error) {
	token := engine.ObserverToken(uuid.NewString())
	f.mu.Lock()
	f.durationObservers[token] = fn
	f.mu.Unlock()
	return token, nil
}

func (f *fakeEngine) RemoveObserver(token engine.ObserverToken) {
	f.mu.Lock()
	delete(f.timeObservers, token)
	delete(f.durationObservers, token)
	f.mu.Unlock()
}

// tick advances the clock to t seconds and delivers a snapshot to every
// periodic time observer.
func (f *fakeEngine) tick(t float64) {
	f.mu.Lock()
	f.currentTime = t
	clock := engine.Clock{
		CurrentTime:   f.currentTime,
		Duration:      f.duration,
		DurationKnown: f.durationKnown,
		Paused:        f.paused,
	}
	observers := make([]func(engine.Clock), 0, len(f.timeObservers))
	for _, fn := range f.timeObservers {
		observers = append(observers, fn)
	}
	f.mu.Unlock()

	for _, fn := range observers {
		fn(clock)
	}
}

// setDuration makes the duration known and notifies duration observers,
// the way a real engine reports it once the media item is loaded.
func (f *fakeEngine) setDuration(seconds float64) {
	f.mu.Lock()
	f.duration = seconds
	f.durationKnown = true
	observers := make([]func(float64), 0, len(f.durationObservers))
	for _, fn := range f.durationObservers {
		observers = append(observers, fn)
	}
	f.mu.Unlock()

	for _, fn := range observers {
		fn(seconds)
	}
}

func (f *fakeEngine) observerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timeObservers) + len(f.durationObservers)
}
