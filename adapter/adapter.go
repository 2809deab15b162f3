// Package adapter defines the downstream notification boundary.
//
// Adapters publish decoded scan events to systems outside the process.
// The CLI owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/scanwatch/types"
)

// EventTypeScanDecoded is the event_type of every ScanNotification.
const EventTypeScanDecoded = "scan_decoded"

// ScanNotification is the payload published for each emitted ScanEvent.
type ScanNotification struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "scan_decoded"
	SessionID       string `json:"session_id"`
	SourceID        string `json:"source_id"`
	Payload         string `json:"payload"`
	Symbology       string `json:"symbology"`
	FrameSeq        uint64 `json:"frame_seq"`
	Timestamp       string `json:"timestamp"` // RFC 3339, UTC
}

// NewScanNotification wraps ev with session identity.
func NewScanNotification(sessionID, sourceID string, ev types.ScanEvent) *ScanNotification {
	return &ScanNotification{
		ContractVersion: types.Version,
		EventType:       EventTypeScanDecoded,
		SessionID:       sessionID,
		SourceID:        sourceID,
		Payload:         ev.Payload,
		Symbology:       ev.Symbology.String(),
		FrameSeq:        ev.FrameSeq,
		Timestamp:       ev.DecodedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Adapter publishes scan notifications to a downstream system.
type Adapter interface {
	// Publish sends one notification downstream.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, n *ScanNotification) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the wait before retry attempt i (i >= 1).
func Backoff(i int) time.Duration {
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Retry gives up on it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// Retry calls send up to 1+retries times, sleeping Backoff(i) between
// attempts. It stops early on success, on a Permanent error, or when ctx
// is done.
func Retry(ctx context.Context, retries int, send func(context.Context) error) error {
	var lastErr error
	for i := range 1 + retries {
		if i > 0 {
			t := time.NewTimer(Backoff(i))
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("canceled during backoff after %d attempts: %w (last: %w)", i, ctx.Err(), lastErr)
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("canceled: %w", err)
		}

		lastErr = send(ctx)
		if lastErr == nil {
			return nil
		}
		var perm permanentError
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("non-retriable: %w", perm.err)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", 1+retries, lastErr)
}
