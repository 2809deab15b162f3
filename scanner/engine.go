// Package scanner runs the continuous decode loop and its lifecycle.
//
// An Engine watches two inputs, whether scanning is enabled and which frame
// source is attached, and keeps exactly one decode loop running while both
// are present. Each running period is a session with its own decode backend,
// acquired on start and released on stop.
//
// Control calls are serialized. Stop is synchronous: when it returns, the
// session's backend is closed, its pending debounce clear is cancelled, and
// no further ScanEvent or fault is delivered for it.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pithecene-io/scanwatch/debounce"
	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/log"
	"github.com/pithecene-io/scanwatch/metrics"
	"github.com/pithecene-io/scanwatch/source"
	"github.com/pithecene-io/scanwatch/types"
)

// Engine is the scanning lifecycle controller.
type Engine struct {
	hints     decode.Hints
	cfg       Config
	factory   decode.Factory
	cb        Callbacks
	clock     Clock
	logger    *log.Logger
	collector *metrics.Collector

	// ctlMu serializes control calls. Never held by the loop goroutine.
	ctlMu sync.Mutex

	// mu guards everything below.
	mu         sync.Mutex
	state      types.LifecycleState
	enabled    bool
	src        source.FrameSource
	run        *session
	closed     bool
	tracker    *debounce.Tracker
	clearTimer Timer
	clearSeq   uint64
	last       *SessionInfo
}

// SessionInfo describes a finished session.
type SessionInfo struct {
	ID        string
	SourceID  string
	StartedAt time.Time
	StoppedAt time.Time
	Reason    string
}

// session is one Running period.
type session struct {
	id      string
	src     source.FrameSource
	backend decode.Backend
	logger  *log.Logger
	limiter *rate.Limiter
	started time.Time

	ctx    context.Context
	cancel context.CancelFunc
	// done closes when the loop goroutine returns.
	done chan struct{}
	// torndown closes once the engine is back to Idle.
	torndown chan struct{}

	// Guarded by Engine.mu.
	stopping   bool
	inCallback bool
}

type transition struct {
	from, to types.LifecycleState
}

// New creates an idle, disabled engine.
func New(cfg Config, factory decode.Factory, cb Callbacks, opts ...Option) (*Engine, error) {
	if factory == nil {
		return nil, errors.New("decode backend factory is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}

	hints := cfg.Hints
	if hints.IsZero() {
		hints = decode.DefaultHints()
	}

	e := &Engine{
		hints:   hints,
		cfg:     cfg,
		factory: factory,
		cb:      cb,
		clock:   RealClock{},
		logger:  log.Nop(),
		state:   types.StateIdle,
		tracker: debounce.New(cfg.DebounceWindow),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.collector == nil {
		e.collector = metrics.NewCollector(cfg.Backend)
	}
	return e, nil
}

// SetEnabled updates the enabled input and starts or stops accordingly.
// The returned error is a backend acquisition failure; the engine stays Idle.
func (e *Engine) SetEnabled(enabled bool) error {
	e.ctlMu.Lock()
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()

	var trans []transition
	var err error
	if enabled {
		trans, err = e.startLocked()
	} else {
		trans = e.stopLocked("disabled")
	}
	e.ctlMu.Unlock()

	e.notify(trans)
	return err
}

// SetSource attaches src, or detaches the current source when src is nil.
//
// Replacing a running source with one of a different ID tears the session
// down and starts a new one. A source with the same ID is the same surface
// and leaves the session running.
func (e *Engine) SetSource(src source.FrameSource) error {
	e.ctlMu.Lock()
	e.mu.Lock()
	e.src = src
	var runningID string
	running := e.run != nil && !e.run.stopping
	if running {
		runningID = e.run.src.ID()
	}
	e.mu.Unlock()

	var trans []transition
	var err error
	switch {
	case src == nil:
		trans = e.stopLocked("source detached")
	case running && runningID == src.ID():
		// same surface
	case running:
		trans = e.stopLocked("source changed")
		e.collector.IncSourceRestart()
		var started []transition
		started, err = e.startLocked()
		trans = append(trans, started...)
	default:
		trans, err = e.startLocked()
	}
	e.ctlMu.Unlock()

	e.notify(trans)
	return err
}

// Start begins a session if enabled and a source is attached.
// No-op while Running or when preconditions are unmet.
func (e *Engine) Start() error {
	e.ctlMu.Lock()
	trans, err := e.startLocked()
	e.ctlMu.Unlock()

	e.notify(trans)
	return err
}

// Stop ends the current session, if any. Inputs are left unchanged, so a
// later Start or input change starts a new session. Safe to call from
// inside callbacks.
func (e *Engine) Stop() {
	e.ctlMu.Lock()
	trans := e.stopLocked("stop requested")
	e.ctlMu.Unlock()

	e.notify(trans)
}

// Close stops the engine permanently. Idempotent.
func (e *Engine) Close() error {
	e.ctlMu.Lock()
	trans := e.stopLocked("engine closed")
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.ctlMu.Unlock()

	e.notify(trans)
	return nil
}

// IsScanning reports whether a decode loop is Running.
func (e *Engine) IsScanning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == types.StateRunning
}

// State returns the current lifecycle state.
func (e *Engine) State() types.LifecycleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SessionID returns the current session ID, or "" when Idle.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return ""
	}
	return e.run.id
}

// LastSession returns the most recently finished session.
func (e *Engine) LastSession() (SessionInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return SessionInfo{}, false
	}
	return *e.last, true
}

// Metrics returns a snapshot of the engine's counters.
func (e *Engine) Metrics() metrics.Snapshot {
	return e.collector.Snapshot()
}

// startLocked requires ctlMu.
func (e *Engine) startLocked() ([]transition, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if r := e.run; r != nil {
		if !r.stopping {
			e.mu.Unlock()
			return nil, nil
		}
		// The loop is tearing itself down after losing its source.
		e.mu.Unlock()
		<-r.torndown
		e.mu.Lock()
	}
	if !e.enabled || e.src == nil {
		e.mu.Unlock()
		return nil, nil
	}
	src := e.src
	e.mu.Unlock()

	backend, err := e.factory(e.hints)
	if err != nil {
		e.logger.Error("decode backend acquisition failed", map[string]any{
			"source_id": src.ID(),
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("acquire decode backend: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	r := &session{
		id:       id,
		src:      src,
		backend:  backend,
		logger:   e.logger.WithSession(id, src.ID()),
		limiter:  e.newLimiter(),
		started:  e.clock.Now(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		torndown: make(chan struct{}),
	}

	e.mu.Lock()
	e.run = r
	e.state = types.StateRunning
	e.mu.Unlock()

	e.collector.SessionStarted(id, src.ID())
	r.logger.Info("session started", map[string]any{
		"symbologies": e.hints.Symbologies(),
		"try_harder":  e.hints.TryHarder(),
		"window_ms":   e.tracker.Window().Milliseconds(),
	})

	go e.loop(r)
	return []transition{{types.StateIdle, types.StateRunning}}, nil
}

// stopLocked requires ctlMu.
func (e *Engine) stopLocked(reason string) []transition {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r == nil {
		return nil
	}
	return e.teardown(r, false, reason)
}

// teardown takes r from Running to Idle. fromLoop is true when the loop
// goroutine itself is the caller.
func (e *Engine) teardown(r *session, fromLoop bool, reason string) []transition {
	e.mu.Lock()
	if e.run != r {
		e.mu.Unlock()
		return nil
	}
	if r.stopping {
		e.mu.Unlock()
		if !fromLoop {
			<-r.torndown
		}
		return nil
	}
	r.stopping = true
	r.cancel()
	e.cancelClearLocked()
	e.tracker.Clear()
	e.state = types.StateStopping
	// A callback in progress is running on the loop goroutine; it cannot
	// enter the backend again, so waiting for it would only deadlock.
	wait := !fromLoop && !r.inCallback
	e.mu.Unlock()

	if wait {
		<-r.done
	}
	if err := r.backend.Close(); err != nil {
		r.logger.Warn("decode backend close failed", map[string]any{"error": err.Error()})
	}

	e.mu.Lock()
	e.run = nil
	e.state = types.StateIdle
	e.last = &SessionInfo{
		ID:        r.id,
		SourceID:  r.src.ID(),
		StartedAt: r.started,
		StoppedAt: e.clock.Now(),
		Reason:    reason,
	}
	e.mu.Unlock()
	close(r.torndown)

	e.collector.IncSessionStopped()
	r.logger.Info("session stopped", map[string]any{"reason": reason})

	return []transition{
		{types.StateRunning, types.StateStopping},
		{types.StateStopping, types.StateIdle},
	}
}

func (e *Engine) notify(trans []transition) {
	if e.cb.OnStateChange == nil {
		return
	}
	for _, t := range trans {
		e.cb.OnStateChange(t.from, t.to)
	}
}

func (e *Engine) newLimiter() *rate.Limiter {
	if e.cfg.MaxAttemptsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(e.cfg.MaxAttemptsPerSecond), 1)
}

// current reports whether r may still produce output. Requires mu.
func (e *Engine) current(r *session) bool {
	return e.run == r && !r.stopping
}

// scheduleClearLocked replaces any pending debounce clear. Requires mu.
func (e *Engine) scheduleClearLocked(r *session) {
	e.cancelClearLocked()
	seq := e.clearSeq
	e.clearTimer = e.clock.AfterFunc(e.tracker.Window(), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.clearSeq != seq || !e.current(r) {
			return
		}
		e.tracker.Clear()
		e.clearTimer = nil
		e.collector.IncDebounceClears()
	})
}

// cancelClearLocked requires mu.
func (e *Engine) cancelClearLocked() {
	e.clearSeq++
	if e.clearTimer != nil {
		e.clearTimer.Stop()
		e.clearTimer = nil
	}
}
