// Package lode persists scan-session reports to a Lode dataset.
//
// One record is written per stopped session: session identity, timing, and
// the engine counters at stop. Decoded payloads are never stored.
// Records are Hive-partitioned by source, day, and session_id.
package lode

import (
	"time"

	"github.com/pithecene-io/scanwatch/metrics"
)

// RecordKindSessionReport is the record_kind discriminator for session reports.
const RecordKindSessionReport = "session_report"

// DefaultDataset is the dataset ID used when Config.Dataset is empty.
const DefaultDataset = "scanwatch"

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"source", "day", "session_id"}

// SessionReport describes one finished session.
type SessionReport struct {
	SessionID string
	SourceID  string
	Backend   string
	StartedAt time.Time
	StoppedAt time.Time
	// Reason is why the session ended (disabled, source lost, ...).
	Reason  string
	Metrics metrics.Snapshot
}

// Day returns the partition day (UTC, YYYY-MM-DD) of the session start.
func (r SessionReport) Day() string {
	return r.StartedAt.UTC().Format(time.DateOnly)
}

// toRecord flattens r into the stored map form.
func (r SessionReport) toRecord(contractVersion string) map[string]any {
	m := r.Metrics
	bySym := make(map[string]any, len(m.EmittedBySymbology))
	for k, v := range m.EmittedBySymbology {
		bySym[k] = v
	}

	return map[string]any{
		"record_kind":      RecordKindSessionReport,
		"contract_version": contractVersion,

		"session_id": r.SessionID,
		"source":     r.SourceID,
		"day":        r.Day(),
		"backend":    r.Backend,
		"reason":     r.Reason,

		"started_at":  r.StartedAt.UTC().Format(time.RFC3339Nano),
		"stopped_at":  r.StoppedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms": r.StoppedAt.Sub(r.StartedAt).Milliseconds(),

		"frames_read":          m.FramesRead,
		"attempts":             m.Attempts,
		"decoded":              m.Decoded,
		"emitted":              m.Emitted,
		"suppressed":           m.Suppressed,
		"misses":               m.Misses,
		"decode_faults":        m.DecodeFaults,
		"frame_faults":         m.FrameFaults,
		"discarded_late":       m.DiscardedLate,
		"source_losses":        m.SourceLosses,
		"source_restarts":      m.SourceRestarts,
		"emitted_by_symbology": bySym,
	}
}
