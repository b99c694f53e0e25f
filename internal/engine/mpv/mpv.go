// Package mpv implements the engine capability surface over an mpv
// process controlled through its JSON IPC protocol.
package mpv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/diniamo/gopv"
	"github.com/google/uuid"

	eng "github.com/ferrith/pressplay/internal/engine"
)

// durationWatchInterval is the cadence on which the engine polls mpv for
// duration changes to feed duration observers.
const durationWatchInterval = 500 * time.Millisecond

// LaunchOptions configures the mpv process started by Launch.
type LaunchOptions struct {
	// StartPaused loads the media without starting playback, so the
	// first Play command is what sets it in motion.
	StartPaused bool

	StartTime  time.Duration
	Volume     int // 0-100, 0 means mpv default
	Fullscreen bool
	Title      string

	// LoadUserConfig lets mpv read the user's own mpv.conf, which may
	// interfere with IPC-driven control. Off by default.
	LoadUserConfig bool

	// ExtraArgs are appended verbatim to the mpv command line.
	ExtraArgs []string
}

type timeObserver struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine drives a single mpv process. It implements engine.Engine.
//
// Transport commands are not serialized here; the playback controller in
// the control core is the single caller and owns that discipline.
type Engine struct {
	mu sync.RWMutex

	// deliverMu serializes duration fanout against observer removal, so
	// RemoveObserver and Stop do not return while a notification for an
	// already-removed observer is in flight.
	deliverMu sync.Mutex

	logger   *slog.Logger
	debug    bool
	platform Platform

	client *gopv.Client
	cmd    *exec.Cmd
	ipc    *IPCConfig

	observers     map[eng.ObserverToken]*timeObserver
	durationFns   map[eng.ObserverToken]func(float64)
	lastDuration  float64
	durationKnown bool

	onError func(error)

	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

var _ eng.Engine = (*Engine)(nil)

// New creates an Engine. It fails if no mpv executable can be found for
// the current platform.
func New(logger *slog.Logger, debug bool) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	platform := DetectPlatform()
	if _, err := FindExecutable(platform); err != nil {
		return nil, fmt.Errorf("mpv not found: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		logger:      logger,
		debug:       debug,
		platform:    platform,
		observers:   make(map[eng.ObserverToken]*timeObserver),
		durationFns: make(map[eng.ObserverToken]func(float64)),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// OnError sets the callback invoked when the mpv process dies
// unexpectedly or its IPC connection fails. Errors are reported, never
// retried.
func (e *Engine) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

// Launch starts mpv with the given media URL and connects to its IPC
// endpoint. It blocks until the connection is established or ctx runs
// out. Media source handling (network, formats) is entirely mpv's.
func (e *Engine) Launch(ctx context.Context, url string, opts LaunchOptions) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return fmt.Errorf("engine is stopped")
	}
	if e.cmd != nil {
		e.mu.Unlock()
		return fmt.Errorf("engine already launched")
	}

	e.ipc = NewIPCConfig(e.platform)
	args := buildArgs(e.ipc, url, opts, e.debug)

	cmd := exec.Command(Executable(e.platform), args...)
	// Fully detached from the terminal so mpv cannot steal input from or
	// write over the control surface.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setupProcessAttributes(cmd)

	if err := cmd.Start(); err != nil {
		e.cleanupIPCLocked()
		e.mu.Unlock()
		return fmt.Errorf("failed to start mpv: %w", err)
	}
	e.cmd = cmd
	ipc := e.ipc
	e.mu.Unlock()

	e.logger.Debug("mpv started", "ipc", ipc.Address, "url", url)

	if err := e.waitForIPC(ctx, ipc); err != nil {
		e.abortLaunch(cmd)
		return fmt.Errorf("mpv IPC not ready at %s: %w", ipc.Address, err)
	}

	client, err := gopv.Connect(ipc.Address, func(err error) {
		e.reportError(fmt.Errorf("mpv IPC connection failed: %w", err))
	})
	if err != nil {
		e.abortLaunch(cmd)
		return fmt.Errorf("failed to connect to mpv IPC at %s: %w", ipc.Address, err)
	}

	e.mu.Lock()
	e.client = client
	e.mu.Unlock()

	go e.monitorProcess(cmd)
	go e.watchDuration()

	return nil
}

// abortLaunch kills and reaps an mpv process whose IPC never came up,
// leaving the engine ready for another Launch attempt.
func (e *Engine) abortLaunch(cmd *exec.Cmd) {
	_ = cmd.Process.Kill()
	_ = cmd.Wait()

	e.mu.Lock()
	e.cmd = nil
	e.cleanupIPCLocked()
	e.mu.Unlock()
}

// CurrentTime implements engine.Engine.
func (e *Engine) CurrentTime(ctx context.Context) (float64, error) {
	client, err := e.clientRef()
	if err != nil {
		return 0, err
	}

	result, err := client.Request("get_property", "time-pos")
	if err != nil {
		return 0, fmt.Errorf("failed to get time-pos: %w", err)
	}
	seconds, ok := result.(float64)
	if !ok {
		return 0, nil
	}
	return seconds, nil
}

// Duration implements engine.Engine. mpv reports the duration property
// as unavailable until the media item is demuxed; that case is returned
// as not-yet-known, not as an error.
func (e *Engine) Duration(ctx context.Context) (float64, bool, error) {
	client, err := e.clientRef()
	if err != nil {
		return 0, false, err
	}

	result, err := client.Request("get_property", "duration")
	if err != nil {
		return 0, false, nil
	}
	seconds, ok := result.(float64)
	if !ok || seconds <= 0 {
		return 0, false, nil
	}
	return seconds, true, nil
}

// Play implements engine.Engine.
func (e *Engine) Play(ctx context.Context) error {
	return e.setProperty("pause", false)
}

// Pause implements engine.Engine.
func (e *Engine) Pause(ctx context.Context) error {
	return e.setProperty("pause", true)
}

// Seek implements engine.Engine.
func (e *Engine) Seek(ctx context.Context, seconds float64) error {
	return e.setProperty("time-pos", seconds)
}

func (e *Engine) setProperty(name string, value any) error {
	client, err := e.clientRef()
	if err != nil {
		return err
	}
	if _, err := client.Request("set_property", name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// AddPeriodicTimeObserver implements engine.Engine. Each observer runs
// its own ticker goroutine, stopped by RemoveObserver or Stop.
func (e *Engine) AddPeriodicTimeObserver(interval time.Duration, fn func(eng.Clock)) (eng.ObserverToken, error) {
	if interval <= 0 {
		return "", fmt.Errorf("invalid observer interval %v", interval)
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return "", fmt.Errorf("engine is stopped")
	}
	token := eng.ObserverToken(uuid.NewString())
	obsCtx, cancel := context.WithCancel(e.ctx)
	obs := &timeObserver{cancel: cancel, done: make(chan struct{})}
	e.observers[token] = obs
	e.mu.Unlock()

	go e.runTimeObserver(obsCtx, obs, interval, fn)
	return token, nil
}

// ObserveDuration implements engine.Engine.
func (e *Engine) ObserveDuration(fn func(float64)) (eng.ObserverToken, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return "", fmt.Errorf("engine is stopped")
	}

	token := eng.ObserverToken(uuid.NewString())
	e.durationFns[token] = fn
	if e.durationKnown {
		// Late subscribers still learn the current duration. Delivery
		// runs under deliverMu and re-checks registration so removal
		// can drain it like any other fanout.
		seconds := e.lastDuration
		go func() {
			e.deliverMu.Lock()
			defer e.deliverMu.Unlock()
			e.mu.RLock()
			_, live := e.durationFns[token]
			e.mu.RUnlock()
			if live {
				fn(seconds)
			}
		}()
	}
	return token, nil
}

// RemoveObserver implements engine.Engine. It does not return until the
// observer's goroutine has exited and any in-flight duration fanout has
// drained, so the callback is never invoked after removal.
func (e *Engine) RemoveObserver(token eng.ObserverToken) {
	e.mu.Lock()
	obs, ok := e.observers[token]
	if ok {
		obs.cancel()
		delete(e.observers, token)
	}
	delete(e.durationFns, token)
	e.mu.Unlock()

	if ok {
		<-obs.done
	}
	e.drainDurationFanout()
}

// drainDurationFanout waits out a duration notification that may have
// snapshotted its callback list before an observer was removed.
func (e *Engine) drainDurationFanout() {
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()
}

// Stop tears the engine down: observers stop, mpv is asked to quit and
// then killed, the IPC endpoint is cleaned up. Stop is idempotent.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true

	e.cancel()
	dones := make([]chan struct{}, 0, len(e.observers))
	for token, obs := range e.observers {
		obs.cancel()
		dones = append(dones, obs.done)
		delete(e.observers, token)
	}
	e.durationFns = make(map[eng.ObserverToken]func(float64))

	client := e.client
	e.client = nil
	cmd := e.cmd
	e.cmd = nil
	e.cleanupIPCLocked()
	e.mu.Unlock()

	if client != nil {
		// Best-effort quit; gopv closes itself on EOF from the dead
		// process, so no explicit Close here.
		done := make(chan struct{})
		go func() {
			_, _ = client.Request("quit")
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
	}

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}

	// With the process dead the observer goroutines cannot block on IPC;
	// wait for them so no clock callback outlives Stop.
	for _, done := range dones {
		<-done
	}
	e.drainDurationFanout()

	e.logger.Debug("mpv engine stopped")
	return nil
}

func (e *Engine) clientRef() (*gopv.Client, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.client == nil {
		return nil, fmt.Errorf("engine not launched")
	}
	return e.client, nil
}

func (e *Engine) reportError(err error) {
	e.mu.RLock()
	fn := e.onError
	stopped := e.stopped
	e.mu.RUnlock()

	if stopped {
		return
	}
	e.logger.Warn("mpv engine error", "error", err)
	if fn != nil {
		fn(err)
	}
}

// runTimeObserver delivers clock snapshots to one observer on its cadence.
func (e *Engine) runTimeObserver(ctx context.Context, obs *timeObserver, interval time.Duration, fn func(eng.Clock)) {
	defer close(obs.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clock, err := e.snapshot()
			if err != nil {
				continue
			}
			// The snapshot is an IPC round trip; the observer may have
			// been removed while it was in flight.
			if ctx.Err() != nil {
				return
			}
			fn(clock)
		}
	}
}

// watchDuration polls the duration property and notifies duration
// observers whenever it becomes known or changes.
func (e *Engine) watchDuration() {
	ticker := time.NewTicker(durationWatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			seconds, known, err := e.Duration(context.Background())
			if err != nil || !known {
				continue
			}
			e.notifyDuration(seconds)
		}
	}
}

// notifyDuration records a duration reading and fans it out to duration
// observers when it becomes known or changes. The fanout runs under
// deliverMu so RemoveObserver and Stop can drain it.
func (e *Engine) notifyDuration(seconds float64) {
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()

	e.mu.Lock()
	if e.durationKnown && e.lastDuration == seconds {
		e.mu.Unlock()
		return
	}
	e.lastDuration = seconds
	e.durationKnown = true
	fns := make([]func(float64), 0, len(e.durationFns))
	for _, fn := range e.durationFns {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	e.logger.Debug("media duration known", "seconds", seconds)
	for _, fn := range fns {
		fn(seconds)
	}
}

// snapshot reads one clock sample over IPC. Individual property misses
// are tolerated (duration is simply unknown); a run of failures means
// the IPC connection is dead.
func (e *Engine) snapshot() (eng.Clock, error) {
	client, err := e.clientRef()
	if err != nil {
		return eng.Clock{}, err
	}

	var clock eng.Clock
	var misses int

	if result, err := client.Request("get_property", "time-pos"); err == nil {
		if v, ok := result.(float64); ok {
			clock.CurrentTime = v
		}
	} else {
		misses++
	}

	if result, err := client.Request("get_property", "duration"); err == nil {
		if v, ok := result.(float64); ok && v > 0 {
			clock.Duration = v
			clock.DurationKnown = true
		}
	} else {
		misses++
	}

	if result, err := client.Request("get_property", "pause"); err == nil {
		if v, ok := result.(bool); ok {
			clock.Paused = v
		}
	} else {
		misses++
	}

	if misses >= 3 {
		return eng.Clock{}, fmt.Errorf("mpv IPC returned no properties")
	}
	return clock, nil
}

// monitorProcess reaps mpv and reports an unexpected exit.
func (e *Engine) monitorProcess(cmd *exec.Cmd) {
	err := cmd.Wait()

	e.mu.RLock()
	stopped := e.stopped
	e.mu.RUnlock()

	if err != nil && !stopped {
		e.reportError(fmt.Errorf("mpv exited unexpectedly: %w", err))
	}

	_ = e.Stop()
}

// waitForIPC waits for the mpv IPC endpoint to come up.
func (e *Engine) waitForIPC(ctx context.Context, ipc *IPCConfig) error {
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return waitCtx.Err()
		case <-ticker.C:
			if ipc.IsSocket() {
				if _, err := os.Stat(ipc.Address); err == nil {
					// Socket file exists; give mpv a beat to serve it.
					time.Sleep(200 * time.Millisecond)
					return nil
				}
			} else if isPipeReady(ipc.Address) {
				time.Sleep(200 * time.Millisecond)
				return nil
			}
		}
	}
}

func (e *Engine) cleanupIPCLocked() {
	if e.ipc != nil && e.ipc.IsSocket() {
		_ = os.Remove(e.ipc.Address)
	}
	e.ipc = nil
}

// buildArgs assembles the mpv command line.
func buildArgs(ipc *IPCConfig, url string, opts LaunchOptions, debug bool) []string {
	args := []string{
		IPCArgument(ipc),
		"--idle=yes",
		"--no-ytdl",
	}

	if !opts.LoadUserConfig {
		args = append(args, "--no-config")
	}
	if !debug {
		args = append(args, "--msg-level=all=warn")
	}
	if opts.StartPaused {
		args = append(args, "--pause")
	}
	if opts.StartTime > 0 {
		args = append(args, fmt.Sprintf("--start=%f", opts.StartTime.Seconds()))
	}
	if opts.Volume > 0 {
		args = append(args, fmt.Sprintf("--volume=%d", opts.Volume))
	}
	if opts.Fullscreen {
		args = append(args, "--fullscreen")
	}
	if opts.Title != "" {
		args = append(args, fmt.Sprintf("--force-media-title=%s", opts.Title))
	}

	args = append(args, opts.ExtraArgs...)

	// URL must be last.
	return append(args, url)
}
