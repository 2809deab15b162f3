package scanner

import (
	"errors"
	"time"

	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/log"
	"github.com/pithecene-io/scanwatch/metrics"
	"github.com/pithecene-io/scanwatch/types"
)

// Config holds engine settings fixed at construction.
type Config struct {
	// Hints is passed to the backend factory on every session start.
	// Zero value means decode.DefaultHints().
	Hints decode.Hints
	// DebounceWindow suppresses repeats of the same payload.
	// Zero means debounce.DefaultWindow.
	DebounceWindow time.Duration
	// MaxAttemptsPerSecond caps decode attempts. Zero means unlimited.
	MaxAttemptsPerSecond float64
	// Backend labels the metrics collector.
	Backend string
}

// Validate checks Config for values the engine cannot run with.
func (c Config) Validate() error {
	if c.DebounceWindow < 0 {
		return errors.New("debounce window must not be negative")
	}
	if c.MaxAttemptsPerSecond < 0 {
		return errors.New("max attempts per second must not be negative")
	}
	return nil
}

// Callbacks receive engine output. All fields are optional.
//
// Callbacks run without engine locks held and may call back into the
// engine, including Stop.
type Callbacks struct {
	// OnScan receives each non-suppressed decode.
	OnScan func(types.ScanEvent)
	// OnError receives transient faults, always as *FaultError.
	OnError func(error)
	// OnStateChange observes lifecycle transitions.
	OnStateChange func(from, to types.LifecycleState)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger. Default is log.Nop().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCollector shares a metrics collector with the caller.
func WithCollector(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}
