// Package reader turns stored session report records into typed views
// for the stats command.
package reader

// SessionStats is one session report as read back from storage.
// Field names mirror the stored record keys.
type SessionStats struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Day       string `json:"day"`
	Backend   string `json:"backend"`
	Reason    string `json:"reason"`

	StartedAt  string `json:"started_at"`
	StoppedAt  string `json:"stopped_at"`
	DurationMS int64  `json:"duration_ms"`

	FramesRead     int64 `json:"frames_read"`
	Attempts       int64 `json:"attempts"`
	Decoded        int64 `json:"decoded"`
	Emitted        int64 `json:"emitted"`
	Suppressed     int64 `json:"suppressed"`
	Misses         int64 `json:"misses"`
	DecodeFaults   int64 `json:"decode_faults"`
	FrameFaults    int64 `json:"frame_faults"`
	DiscardedLate  int64 `json:"discarded_late"`
	SourceLosses   int64 `json:"source_losses"`
	SourceRestarts int64 `json:"source_restarts"`

	EmittedBySymbology map[string]int64 `json:"emitted_by_symbology,omitempty"`
}

// Faults is the sum of decode and frame faults.
func (s *SessionStats) Faults() int64 {
	return s.DecodeFaults + s.FrameFaults
}

// HitRate is the share of attempts that produced a decode, in [0,1].
func (s *SessionStats) HitRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Decoded) / float64(s.Attempts)
}
