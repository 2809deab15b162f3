package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/source"
	"github.com/pithecene-io/scanwatch/types"
)

const waitTimeout = 5 * time.Second

// --- manual clock ---

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs due timers on the calling goroutine.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	kept := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			t.fired = true
			due = append(due, t.f)
		default:
			kept = append(kept, t)
		}
	}
	c.timers = kept
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// --- channel-driven backend ---

type attempt struct {
	res decode.Result
	err error
}

func decoded(payload string, sym types.Symbology) attempt {
	return attempt{res: decode.Result{Payload: payload, Symbology: sym}}
}

func notFound() attempt {
	return attempt{err: decode.ErrNotFound}
}

func faulted(err error) attempt {
	return attempt{err: err}
}

// chanBackend returns whatever the test feeds it. A send completes only
// once the loop has fully handled the previous attempt.
type chanBackend struct {
	attempts chan attempt

	mu     sync.Mutex
	closed int
	calls  int
}

func newChanBackend() *chanBackend {
	return &chanBackend{attempts: make(chan attempt)}
}

func (b *chanBackend) Decode(ctx context.Context, _ image.Image) (decode.Result, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case a := <-b.attempts:
		return a.res, a.err
	case <-ctx.Done():
		return decode.Result{}, ctx.Err()
	}
}

func (b *chanBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

func (b *chanBackend) Closed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// feed sends attempts in order and fails the test if the loop stalls.
func (b *chanBackend) feed(t *testing.T, attempts ...attempt) {
	t.Helper()
	for i, a := range attempts {
		select {
		case b.attempts <- a:
		case <-time.After(waitTimeout):
			t.Fatalf("attempt %d not consumed by decode loop", i)
		}
	}
}

// sync waits until every previously fed attempt has been handled.
func (b *chanBackend) sync(t *testing.T) {
	t.Helper()
	b.feed(t, notFound())
}

// factoryOf hands out backends in order and records each acquisition.
type factoryOf struct {
	mu       sync.Mutex
	backends []*chanBackend
	next     int
	err      error
}

func (f *factoryOf) New(decode.Hints) (decode.Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.next >= len(f.backends) {
		return nil, errors.New("no backend left")
	}
	b := f.backends[f.next]
	f.next++
	return b, nil
}

func (f *factoryOf) Acquired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

// --- frame source ---

type fakeSource struct {
	id string

	mu    sync.Mutex
	seq   uint64
	errs  []error // returned in order before frames; a nil entry yields a frame
	reads int
}

func newFakeSource(id string) *fakeSource {
	return &fakeSource{id: id}
}

func (s *fakeSource) ID() string { return s.id }

func (s *fakeSource) Next(ctx context.Context) (*source.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	s.seq++
	return &source.Frame{Seq: s.seq, Image: image.NewGray(image.Rect(0, 0, 4, 4))}, nil
}

func (s *fakeSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// --- callback recorder ---

type recorder struct {
	mu     sync.Mutex
	events []types.ScanEvent
	errs   []error
	states []transition

	eventCh chan types.ScanEvent
	stateCh chan transition
}

func newRecorder() *recorder {
	return &recorder{
		eventCh: make(chan types.ScanEvent, 64),
		stateCh: make(chan transition, 64),
	}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnScan: func(ev types.ScanEvent) {
			r.mu.Lock()
			r.events = append(r.events, ev)
			r.mu.Unlock()
			r.eventCh <- ev
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnStateChange: func(from, to types.LifecycleState) {
			r.mu.Lock()
			r.states = append(r.states, transition{from, to})
			r.mu.Unlock()
			r.stateCh <- transition{from, to}
		},
	}
}

func (r *recorder) Events() []types.ScanEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.ScanEvent(nil), r.events...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) States() []transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transition(nil), r.states...)
}

func (r *recorder) waitState(t *testing.T, to types.LifecycleState) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case tr := <-r.stateCh:
			if tr.to == to {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", to)
		}
	}
}

// newTestEngine builds an engine with a manual clock over the given backends.
func newTestEngine(t *testing.T, cfg Config, rec *recorder, backends ...*chanBackend) (*Engine, *manualClock, *factoryOf) {
	t.Helper()
	clock := newManualClock()
	factory := &factoryOf{backends: backends}
	e, err := New(cfg, factory.New, rec.callbacks(), WithClock(clock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, clock, factory
}

func startEngine(t *testing.T, e *Engine, src source.FrameSource) {
	t.Helper()
	if err := e.SetSource(src); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	if err := e.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if !e.IsScanning() {
		t.Fatal("engine should be scanning")
	}
}
