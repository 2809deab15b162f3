package source

import (
	"context"
	"image"
	"sync"
	"time"
)

// StillSource yields the same image repeatedly, as a fixed surface would.
type StillSource struct {
	id       string
	img      image.Image
	interval time.Duration

	mu     sync.Mutex
	seq    uint64
	closed bool
}

// NewStillSource creates a still source. A positive interval paces Next;
// zero yields frames as fast as they are requested.
func NewStillSource(id string, img image.Image, interval time.Duration) *StillSource {
	return &StillSource{id: id, img: img, interval: interval}
}

// ID implements FrameSource.
func (s *StillSource) ID() string {
	return s.id
}

// Next implements FrameSource.
func (s *StillSource) Next(ctx context.Context) (*Frame, error) {
	if s.interval > 0 {
		t := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.seq++
	return &Frame{Seq: s.seq, CapturedAt: time.Now(), Image: s.img}, nil
}

// Close makes every later Next return ErrClosed.
func (s *StillSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Verify StillSource implements FrameSource.
var _ FrameSource = (*StillSource)(nil)
