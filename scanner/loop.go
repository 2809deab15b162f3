package scanner

import (
	"errors"
	"io"
	"runtime"

	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/source"
	"github.com/pithecene-io/scanwatch/types"
)

// loop is the decode loop for one session. Each iteration runs to
// completion before the next, so at most one attempt is in flight.
func (e *Engine) loop(r *session) {
	defer close(r.done)

	for {
		if r.ctx.Err() != nil {
			return
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(r.ctx); err != nil {
				return
			}
		}

		frame, err := r.src.Next(r.ctx)
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			if source.IsClosed(err) || errors.Is(err, io.EOF) {
				e.collector.IncSourceLoss()
				r.logger.Info("frame source lost", map[string]any{"error": err.Error()})
				e.notify(e.teardown(r, true, "source lost"))
				return
			}
			e.collector.IncFrameFaults()
			e.fault(r, &FaultError{Op: OpFrame, Err: err})
			runtime.Gosched()
			continue
		}
		if frame == nil {
			runtime.Gosched()
			continue
		}
		e.collector.IncFramesRead()

		e.collector.IncAttempts()
		res, err := r.backend.Decode(r.ctx, frame.Image)
		e.handle(r, frame, decode.Classify(res, err))

		runtime.Gosched()
	}
}

// handle applies one attempt's outcome.
func (e *Engine) handle(r *session, frame *source.Frame, outcome types.ScanOutcome) {
	switch outcome.Kind {
	case types.OutcomeNotFound:
		e.collector.IncMisses()

	case types.OutcomeFault:
		e.fault(r, &FaultError{Op: OpDecode, Err: outcome.Err})

	case types.OutcomeDecoded:
		e.collector.IncDecoded()
		e.emit(r, frame, outcome)
	}
}

func (e *Engine) emit(r *session, frame *source.Frame, outcome types.ScanOutcome) {
	e.mu.Lock()
	if !e.current(r) {
		e.mu.Unlock()
		e.collector.IncDiscardedLate()
		return
	}
	now := e.clock.Now()
	nowMillis := now.UnixMilli()
	if e.tracker.ShouldSuppress(outcome.Payload, nowMillis) {
		e.mu.Unlock()
		e.collector.IncSuppressed()
		r.logger.Debug("duplicate suppressed", map[string]any{
			"symbology": outcome.Symbology.String(),
			"frame_seq": frame.Seq,
		})
		return
	}
	e.tracker.Record(outcome.Payload, nowMillis)
	e.scheduleClearLocked(r)
	r.inCallback = true
	e.mu.Unlock()

	e.collector.IncEmitted(outcome.Symbology.String())
	if e.cb.OnScan != nil {
		e.cb.OnScan(types.ScanEvent{
			Payload:   outcome.Payload,
			Symbology: outcome.Symbology,
			FrameSeq:  frame.Seq,
			DecodedAt: now,
		})
	}

	e.mu.Lock()
	r.inCallback = false
	e.mu.Unlock()
}

func (e *Engine) fault(r *session, fe *FaultError) {
	e.mu.Lock()
	if !e.current(r) {
		e.mu.Unlock()
		e.collector.IncDiscardedLate()
		return
	}
	r.inCallback = true
	e.mu.Unlock()

	if fe.Op == OpDecode {
		e.collector.IncDecodeFaults()
	}
	r.logger.Warn("scan fault", map[string]any{
		"op":    fe.Op,
		"error": fe.Err.Error(),
	})
	if e.cb.OnError != nil {
		e.cb.OnError(fe)
	}

	e.mu.Lock()
	r.inCallback = false
	e.mu.Unlock()
}
