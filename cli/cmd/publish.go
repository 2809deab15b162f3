package cmd

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pithecene-io/scanwatch/adapter"
	"github.com/pithecene-io/scanwatch/log"
)

// publishBuffer bounds notifications waiting on a slow adapter.
const publishBuffer = 64

// publisher moves notifications off the engine's callback path so adapter
// retries never stall the decode loop.
type publisher struct {
	adapter adapter.Adapter
	logger  *log.Logger
	ch      chan *adapter.ScanNotification
	done    chan struct{}
	cancel  context.CancelFunc

	published atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func newPublisher(a adapter.Adapter, logger *log.Logger) *publisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &publisher{
		adapter: a,
		logger:  logger,
		ch:      make(chan *adapter.ScanNotification, publishBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go p.run(ctx)
	return p
}

func (p *publisher) run(ctx context.Context) {
	defer close(p.done)
	for n := range p.ch {
		if err := p.adapter.Publish(ctx, n); err != nil {
			p.failed.Add(1)
			p.logger.Warn("scan notification publish failed", map[string]any{
				"session_id": n.SessionID,
				"frame_seq":  n.FrameSeq,
				"error":      err.Error(),
			})
			continue
		}
		p.published.Add(1)
	}
}

// enqueue hands n to the worker without blocking. A full buffer drops n.
func (p *publisher) enqueue(n *adapter.ScanNotification) {
	select {
	case p.ch <- n:
	default:
		p.dropped.Add(1)
		p.logger.Warn("scan notification dropped, adapter backlog full", map[string]any{
			"session_id": n.SessionID,
			"frame_seq":  n.FrameSeq,
		})
	}
}

// drain stops intake and waits up to timeout for queued notifications.
// Whatever is still pending at the deadline is abandoned. Must be called
// once, after the engine has stopped delivering events.
func (p *publisher) drain(timeout time.Duration) {
	close(p.ch)
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.done:
	case <-t.C:
		p.logger.Warn("adapter drain timed out", map[string]any{"pending": len(p.ch)})
		p.cancel()
		<-p.done
	}
	p.cancel()
	if err := p.adapter.Close(); err != nil {
		p.logger.Warn("adapter close failed", map[string]any{"error": err.Error()})
	}
}
