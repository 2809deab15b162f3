// Package metrics provides scan-session metrics collection.
//
// The Collector accumulates counters for one engine across its sessions.
// It is a leaf package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Lifecycle
	SessionsStarted int64 `json:"sessions_started"`
	SessionsStopped int64 `json:"sessions_stopped"`
	SourceRestarts  int64 `json:"source_restarts"`
	SourceLosses    int64 `json:"source_losses"`

	// Decode loop
	FramesRead     int64 `json:"frames_read"`
	Attempts       int64 `json:"attempts"`
	Decoded        int64 `json:"decoded"`
	Emitted        int64 `json:"emitted"`
	Suppressed     int64 `json:"suppressed"`
	Misses         int64 `json:"misses"`
	DecodeFaults   int64 `json:"decode_faults"`
	FrameFaults    int64 `json:"frame_faults"`
	DiscardedLate  int64 `json:"discarded_late"`
	DebounceClears int64 `json:"debounce_clears"`

	// EmittedBySymbology counts emitted events per symbology.
	EmittedBySymbology map[string]int64 `json:"emitted_by_symbology"`

	// Dimensions (informational, set at construction)
	Backend   string `json:"backend"`
	Source    string `json:"source"`
	SessionID string `json:"session_id"`
}

// Collector accumulates scan metrics.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted int64
	sessionsStopped int64
	sourceRestarts  int64
	sourceLosses    int64

	framesRead     int64
	attempts       int64
	decoded        int64
	emitted        int64
	suppressed     int64
	misses         int64
	decodeFaults   int64
	frameFaults    int64
	discardedLate  int64
	debounceClears int64

	emittedBySymbology map[string]int64

	backend   string
	source    string
	sessionID string
}

// NewCollector creates a Collector labeled with the backend name.
func NewCollector(backend string) *Collector {
	return &Collector{
		emittedBySymbology: make(map[string]int64),
		backend:            backend,
	}
}

// --- Lifecycle ---

// SessionStarted records a session start and relabels the source and session dimensions.
func (c *Collector) SessionStarted(sessionID, sourceID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStarted++
	c.sessionID = sessionID
	c.source = sourceID
	c.mu.Unlock()
}

// IncSessionStopped records a session teardown.
func (c *Collector) IncSessionStopped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sessionsStopped++
	c.mu.Unlock()
}

// IncSourceRestart records a stop/start cycle forced by a source swap.
func (c *Collector) IncSourceRestart() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sourceRestarts++
	c.mu.Unlock()
}

// IncSourceLoss records a session ended by frame-source loss.
func (c *Collector) IncSourceLoss() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sourceLosses++
	c.mu.Unlock()
}

// --- Decode loop ---

// IncFramesRead records a frame pulled from the source.
func (c *Collector) IncFramesRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesRead++
	c.mu.Unlock()
}

// IncAttempts records a decode attempt issued to the backend.
func (c *Collector) IncAttempts() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.attempts++
	c.mu.Unlock()
}

// IncDecoded records a successful decode, emitted or not.
func (c *Collector) IncDecoded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decoded++
	c.mu.Unlock()
}

// IncEmitted records a ScanEvent delivered to the consumer.
func (c *Collector) IncEmitted(symbology string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.emitted++
	c.emittedBySymbology[symbology]++
	c.mu.Unlock()
}

// IncSuppressed records a decode discarded by the debounce window.
func (c *Collector) IncSuppressed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.suppressed++
	c.mu.Unlock()
}

// IncMisses records a NotFound outcome.
func (c *Collector) IncMisses() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

// IncDecodeFaults records a backend fault.
func (c *Collector) IncDecodeFaults() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeFaults++
	c.mu.Unlock()
}

// IncFrameFaults records a non-fatal frame read error.
func (c *Collector) IncFrameFaults() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.frameFaults++
	c.mu.Unlock()
}

// IncDiscardedLate records an attempt whose result arrived after stop.
func (c *Collector) IncDiscardedLate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.discardedLate++
	c.mu.Unlock()
}

// IncDebounceClears records a deferred debounce clear that fired.
func (c *Collector) IncDebounceClears() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.debounceClears++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	bySym := make(map[string]int64, len(c.emittedBySymbology))
	for k, v := range c.emittedBySymbology {
		bySym[k] = v
	}

	return Snapshot{
		SessionsStarted: c.sessionsStarted,
		SessionsStopped: c.sessionsStopped,
		SourceRestarts:  c.sourceRestarts,
		SourceLosses:    c.sourceLosses,

		FramesRead:     c.framesRead,
		Attempts:       c.attempts,
		Decoded:        c.decoded,
		Emitted:        c.emitted,
		Suppressed:     c.suppressed,
		Misses:         c.misses,
		DecodeFaults:   c.decodeFaults,
		FrameFaults:    c.frameFaults,
		DiscardedLate:  c.discardedLate,
		DebounceClears: c.debounceClears,

		EmittedBySymbology: bySym,

		Backend:   c.backend,
		Source:    c.source,
		SessionID: c.sessionID,
	}
}
