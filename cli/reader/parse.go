package reader

import "errors"

// ParseSessionReport converts a Lode record (map[string]any) to SessionStats.
// Handles both int64 (direct writes) and float64 (JSON round-trips) for numeric fields.
func ParseSessionReport(record map[string]any) (*SessionStats, error) {
	if record == nil {
		return nil, errors.New("nil record")
	}

	s := &SessionStats{
		SessionID: toString(record["session_id"]),
		Source:    toString(record["source"]),
		Day:       toString(record["day"]),
		Backend:   toString(record["backend"]),
		Reason:    toString(record["reason"]),

		StartedAt:  toString(record["started_at"]),
		StoppedAt:  toString(record["stopped_at"]),
		DurationMS: toInt64(record["duration_ms"]),

		FramesRead:     toInt64(record["frames_read"]),
		Attempts:       toInt64(record["attempts"]),
		Decoded:        toInt64(record["decoded"]),
		Emitted:        toInt64(record["emitted"]),
		Suppressed:     toInt64(record["suppressed"]),
		Misses:         toInt64(record["misses"]),
		DecodeFaults:   toInt64(record["decode_faults"]),
		FrameFaults:    toInt64(record["frame_faults"]),
		DiscardedLate:  toInt64(record["discarded_late"]),
		SourceLosses:   toInt64(record["source_losses"]),
		SourceRestarts: toInt64(record["source_restarts"]),
	}

	if v, ok := record["emitted_by_symbology"]; ok && v != nil {
		s.EmittedBySymbology = parseCounts(v)
	}

	// The write path always populates these.
	if s.SessionID == "" {
		return nil, errors.New("session report missing required field: session_id")
	}
	if s.Source == "" {
		return nil, errors.New("session report missing required field: source")
	}
	if s.StartedAt == "" {
		return nil, errors.New("session report missing required field: started_at")
	}

	return s, nil
}

// toInt64 converts a value to int64, handling float64 from JSON and int64 from direct writes.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// parseCounts handles both map[string]int64 (direct) and map[string]any
// (JSON round-trip).
func parseCounts(v any) map[string]int64 {
	switch m := v.(type) {
	case map[string]int64:
		return m
	case map[string]any:
		result := make(map[string]int64, len(m))
		for k, val := range m {
			result[k] = toInt64(val)
		}
		return result
	default:
		return nil
	}
}
