package reader

import (
	"strings"
	"testing"
)

func validRecord() map[string]any {
	// JSON-round-tripped shape: numbers arrive as float64.
	return map[string]any{
		"record_kind":          "session_report",
		"session_id":           "sess-1",
		"source":               "cam-0",
		"day":                  "2026-03-01",
		"backend":              "zxing",
		"reason":               "disabled",
		"started_at":           "2026-03-01T12:00:00Z",
		"stopped_at":           "2026-03-01T12:00:05Z",
		"duration_ms":          float64(5000),
		"frames_read":          float64(150),
		"attempts":             float64(150),
		"decoded":              float64(30),
		"emitted":              float64(3),
		"suppressed":           float64(27),
		"misses":               float64(118),
		"decode_faults":        float64(1),
		"frame_faults":         float64(1),
		"discarded_late":       float64(0),
		"source_losses":        float64(0),
		"source_restarts":      float64(0),
		"emitted_by_symbology": map[string]any{"qr": float64(2), "ean_13": float64(1)},
	}
}

func TestParseSessionReport(t *testing.T) {
	s, err := ParseSessionReport(validRecord())
	if err != nil {
		t.Fatalf("ParseSessionReport failed: %v", err)
	}

	tests := []struct {
		name string
		got  int64
		want int64
	}{
		{"DurationMS", s.DurationMS, 5000},
		{"FramesRead", s.FramesRead, 150},
		{"Decoded", s.Decoded, 30},
		{"Emitted", s.Emitted, 3},
		{"Suppressed", s.Suppressed, 27},
		{"Misses", s.Misses, 118},
		{"Faults", s.Faults(), 2},
		{"EmittedBySymbology[qr]", s.EmittedBySymbology["qr"], 2},
		{"EmittedBySymbology[ean_13]", s.EmittedBySymbology["ean_13"], 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	if s.SessionID != "sess-1" || s.Source != "cam-0" || s.Backend != "zxing" {
		t.Errorf("dimensions = %q/%q/%q", s.SessionID, s.Source, s.Backend)
	}
	if got := s.HitRate(); got != 0.2 {
		t.Errorf("HitRate() = %v, want 0.2", got)
	}
}

func TestParseSessionReport_DirectInt64(t *testing.T) {
	record := validRecord()
	record["attempts"] = int64(7)
	record["emitted_by_symbology"] = map[string]int64{"qr": 4}

	s, err := ParseSessionReport(record)
	if err != nil {
		t.Fatalf("ParseSessionReport failed: %v", err)
	}
	if s.Attempts != 7 {
		t.Errorf("Attempts = %d, want 7", s.Attempts)
	}
	if s.EmittedBySymbology["qr"] != 4 {
		t.Errorf("EmittedBySymbology[qr] = %d, want 4", s.EmittedBySymbology["qr"])
	}
}

func TestParseSessionReport_MissingRequired(t *testing.T) {
	for _, field := range []string{"session_id", "source", "started_at"} {
		t.Run(field, func(t *testing.T) {
			record := validRecord()
			delete(record, field)
			_, err := ParseSessionReport(record)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error %q should name %q", err, field)
			}
		})
	}
}

func TestParseSessionReport_Nil(t *testing.T) {
	if _, err := ParseSessionReport(nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}

func TestHitRate_NoAttempts(t *testing.T) {
	var s SessionStats
	if got := s.HitRate(); got != 0 {
		t.Errorf("HitRate() = %v, want 0", got)
	}
}
