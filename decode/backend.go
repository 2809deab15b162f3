// Package decode defines the decode backend boundary.
//
// The engine never decodes pixels itself. It acquires a Backend from a
// Factory when a session starts, issues one Decode per frame, and releases
// the backend when the session stops.
package decode

import (
	"context"
	"errors"
	"image"

	"github.com/pithecene-io/scanwatch/types"
)

// ErrNotFound is the expected-miss signal: no code in this frame.
// Backends return it (or wrap it) instead of a Result.
var ErrNotFound = errors.New("decode: no code found")

// Result is a successful decode.
type Result struct {
	Payload   string
	Symbology types.Symbology
}

// Backend decodes single frames. A backend instance is owned by exactly one
// engine session and is never called concurrently.
type Backend interface {
	// Decode attempts to locate and decode one code in img.
	// Returns ErrNotFound when nothing is found; any other error is a fault.
	Decode(ctx context.Context, img image.Image) (Result, error)

	// Close releases backend state. The engine calls it on every stop so
	// the next session starts from a clean backend.
	Close() error
}

// Factory acquires a fresh backend configured with hints.
type Factory func(hints Hints) (Backend, error)

// Classify maps a Decode return into a ScanOutcome.
// A decode with an empty payload is treated as a miss.
func Classify(res Result, err error) types.ScanOutcome {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.NotFound()
		}
		return types.Fault(err)
	}
	if res.Payload == "" {
		return types.NotFound()
	}
	return types.Decoded(res.Payload, res.Symbology)
}
