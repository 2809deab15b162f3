package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"github.com/pithecene-io/scanwatch/ipc"
)

// StreamOptions configures a StreamSource.
type StreamOptions struct {
	// DropOld keeps only the latest undelivered frame. Use for live capture
	// where latency matters more than completeness. When false the reader
	// applies backpressure and every frame is delivered.
	DropOld bool
}

type streamItem struct {
	frame *Frame
	err   error
}

// StreamSource reads ipc video frames from an io.Reader.
// A single reader goroutine decodes frames so that Next honors ctx even
// while the underlying reader is blocked.
type StreamSource struct {
	id     string
	reader io.Reader
	opts   StreamOptions

	startOnce sync.Once
	items     chan streamItem
	done      chan struct{}
	closeOnce sync.Once
}

// NewStreamSource creates a stream source identified by id. The source
// owns r: Close closes it when r implements io.Closer.
func NewStreamSource(id string, r io.Reader, opts StreamOptions) *StreamSource {
	return &StreamSource{
		id:     id,
		reader: r,
		opts:   opts,
		items:  make(chan streamItem, 1),
		done:   make(chan struct{}),
	}
}

// ID implements FrameSource.
func (s *StreamSource) ID() string {
	return s.id
}

// Next implements FrameSource.
func (s *StreamSource) Next(ctx context.Context) (*Frame, error) {
	s.startOnce.Do(func() { go s.readLoop() })

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		// Drain anything already decoded before reporting closure.
		select {
		case item := <-s.items:
			return item.frame, item.err
		default:
			return nil, ErrClosed
		}
	case item := <-s.items:
		return item.frame, item.err
	}
}

// Close stops the reader goroutine. If the reader is an io.Closer it is
// closed to unblock a pending read.
func (s *StreamSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if c, ok := s.reader.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (s *StreamSource) readLoop() {
	dec := ipc.NewFrameDecoder(s.reader)
	for {
		payload, err := dec.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.finish(nil)
				return
			}
			// Framing is lost; nothing after this can be trusted.
			s.finish(fmt.Errorf("%w: %w", ErrClosed, err))
			return
		}

		decoded, err := ipc.DecodeFrame(payload)
		if err != nil {
			if !s.deliver(streamItem{err: fmt.Errorf("decode frame: %w", err)}) {
				return
			}
			continue
		}

		switch f := decoded.(type) {
		case *ipc.EndOfStream:
			s.finish(nil)
			return
		case *ipc.VideoFrame:
			img, err := decodeImage(f.Format, f.Data)
			if err != nil {
				if !s.deliver(streamItem{err: fmt.Errorf("frame %d: %w", f.Seq, err)}) {
					return
				}
				continue
			}
			frame := &Frame{Seq: f.Seq, CapturedAt: f.CapturedAt, Image: img}
			if !s.deliver(streamItem{frame: frame}) {
				return
			}
		}
	}
}

// deliver hands an item to Next. Returns false once the source is closed.
func (s *StreamSource) deliver(item streamItem) bool {
	if s.opts.DropOld {
		for {
			select {
			case <-s.done:
				return false
			case s.items <- item:
				return true
			default:
			}
			// Buffer full: discard the stale item and retry.
			select {
			case <-s.items:
			default:
			}
		}
	}

	select {
	case <-s.done:
		return false
	case s.items <- item:
		return true
	}
}

// finish delivers a terminal error (if any) and marks the source closed.
func (s *StreamSource) finish(err error) {
	if err != nil {
		s.deliver(streamItem{err: err})
	}
	s.closeOnce.Do(func() { close(s.done) })
}

func decodeImage(format string, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case ipc.FormatPNG:
		return png.Decode(r)
	case ipc.FormatJPEG, "jpg":
		return jpeg.Decode(r)
	case ipc.FormatGIF:
		return gif.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
}

// Verify StreamSource implements FrameSource.
var _ FrameSource = (*StreamSource)(nil)
