// Package source defines the frame source boundary and the concrete sources
// a host can hand to a scanner.
//
// Sources do not capture video. They deliver frames that an external capture
// process has already produced.
package source

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrClosed means the source is gone and will never yield another frame.
// The scanner treats it as frame-source loss.
var ErrClosed = errors.New("source: closed")

// Frame is one already-captured video frame.
// Image must not be modified after it is returned from Next.
type Frame struct {
	// Seq is monotonically increasing per source.
	Seq uint64
	// CapturedAt is the capture time reported by the source.
	CapturedAt time.Time
	Image      image.Image
}

// FrameSource yields successive frames of one video surface.
type FrameSource interface {
	// ID identifies the underlying surface. Two sources with the same ID
	// are the same surface.
	ID() string

	// Next blocks until the next frame is available or ctx is done.
	// Returns ErrClosed (possibly wrapped) once the surface is gone.
	Next(ctx context.Context) (*Frame, error)
}

// IsClosed reports whether err signals frame-source loss.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
