package lode

import (
	"errors"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/scanwatch/metrics"
)

// toInt64 converts a decoded JSON number for assertions.
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

// sharedFactory lets write and read datasets share one in-memory store.
func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func testReport(sessionID, source string, startedAt time.Time) SessionReport {
	return SessionReport{
		SessionID: sessionID,
		SourceID:  source,
		Backend:   "zxing",
		StartedAt: startedAt,
		StoppedAt: startedAt.Add(90 * time.Second),
		Reason:    "disabled",
		Metrics: metrics.Snapshot{
			FramesRead:         300,
			Attempts:           300,
			Decoded:            12,
			Emitted:            3,
			Suppressed:         9,
			Misses:             287,
			DecodeFaults:       1,
			EmittedBySymbology: map[string]int64{"qr": 2, "ean_13": 1},
		},
	}
}

func TestReporter_WriteAndQuery(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())

	r, err := NewReporter(Config{}, factory)
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	startedAt := time.Date(2026, 3, 1, 23, 59, 0, 0, time.FixedZone("EST", -5*3600))
	if err := r.WriteSession(t.Context(), testReport("sess-1", "cam-0", startedAt)); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}

	ds, err := NewDataset(DefaultDataset, factory)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	record, err := QueryLatestReport(t.Context(), ds, "", "")
	if err != nil {
		t.Fatalf("QueryLatestReport: %v", err)
	}

	if record["record_kind"] != RecordKindSessionReport {
		t.Errorf("record_kind = %v, want %s", record["record_kind"], RecordKindSessionReport)
	}
	if record["session_id"] != "sess-1" || record["source"] != "cam-0" {
		t.Errorf("identity = %v/%v", record["session_id"], record["source"])
	}
	if record["day"] != "2026-03-02" {
		t.Errorf("day = %v, want UTC day 2026-03-02", record["day"])
	}
	if record["reason"] != "disabled" {
		t.Errorf("reason = %v, want disabled", record["reason"])
	}
	if got := toInt64(record["duration_ms"]); got != 90000 {
		t.Errorf("duration_ms = %d, want 90000", got)
	}
	if got := toInt64(record["emitted"]); got != 3 {
		t.Errorf("emitted = %d, want 3", got)
	}
	if got := toInt64(record["misses"]); got != 287 {
		t.Errorf("misses = %d, want 287", got)
	}
	bySym, ok := record["emitted_by_symbology"].(map[string]any)
	if !ok {
		t.Fatalf("emitted_by_symbology = %T", record["emitted_by_symbology"])
	}
	if got := toInt64(bySym["qr"]); got != 2 {
		t.Errorf("emitted_by_symbology[qr] = %d, want 2", got)
	}
	if _, leaked := record["payload"]; leaked {
		t.Error("session reports must not carry decoded payloads")
	}
}

func TestQueryLatestReport_Filters(t *testing.T) {
	factory := sharedFactory(lode.NewMemory())
	r, err := NewReporter(Config{Dataset: "kiosk"}, factory)
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reports := []SessionReport{
		testReport("sess-1", "cam-0", base),
		testReport("sess-10", "cam-1", base.Add(time.Hour)),
		testReport("sess-2", "cam-0", base.Add(2*time.Hour)),
	}
	for _, rep := range reports {
		if err := r.WriteSession(t.Context(), rep); err != nil {
			t.Fatalf("WriteSession(%s): %v", rep.SessionID, err)
		}
	}

	ds := r.Dataset()
	tests := []struct {
		name      string
		sessionID string
		source    string
		want      string
	}{
		{"latest overall", "", "", "sess-2"},
		{"by source", "", "cam-1", "sess-10"},
		{"exact session id", "sess-1", "", "sess-1"},
		{"session and source", "sess-1", "cam-0", "sess-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := QueryLatestReport(t.Context(), ds, tt.sessionID, tt.source)
			if err != nil {
				t.Fatalf("QueryLatestReport: %v", err)
			}
			if got := record["session_id"]; got != tt.want {
				t.Errorf("session_id = %v, want %s", got, tt.want)
			}
		})
	}

	_, err = QueryLatestReport(t.Context(), ds, "sess-1", "cam-1")
	if !errors.Is(err, ErrNoReportFound) {
		t.Errorf("mismatched filters: err = %v, want ErrNoReportFound", err)
	}
}

func TestQueryLatestReport_Empty(t *testing.T) {
	ds, err := NewDataset(DefaultDataset, lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	_, err = QueryLatestReport(t.Context(), ds, "", "")
	if err == nil {
		t.Fatal("expected error on empty dataset")
	}
}

func TestReporter_WriteSessionValidation(t *testing.T) {
	r, err := NewReporter(Config{}, lode.NewMemoryFactory())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	noSession := testReport("", "cam-0", base)
	if err := r.WriteSession(t.Context(), noSession); err == nil {
		t.Error("expected error for missing session ID")
	}
	noSource := testReport("sess-1", "", base)
	if err := r.WriteSession(t.Context(), noSource); err == nil {
		t.Error("expected error for missing source ID")
	}
}

func TestAnyPartition(t *testing.T) {
	const path = "source=cam-0/day=2026-03-01/session_id=sess-1/data.jsonl"
	tests := []struct {
		name  string
		paths []string
		key   string
		value string
		want  bool
	}{
		{"exact session", []string{path}, "session_id", "sess-1", true},
		{"prefix session", []string{"source=cam-0/day=2026-03-01/session_id=sess-10/data.jsonl"}, "session_id", "sess-1", false},
		{"exact source", []string{path}, "source", "cam-0", true},
		{"prefix source", []string{"source=cam-01/day=2026-03-01/session_id=sess-1/data.jsonl"}, "source", "cam-0", false},
		{"empty value", nil, "source", "", true},
		{"no paths", nil, "source", "cam-0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := anyPartition(tt.paths, tt.key, tt.value); got != tt.want {
				t.Errorf("anyPartition(%q, %q) = %v, want %v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestSplitBucket(t *testing.T) {
	tests := []struct {
		path       string
		wantBucket string
		wantPrefix string
	}{
		{"my-bucket", "my-bucket", ""},
		{"my-bucket/reports", "my-bucket", "reports"},
		{"my-bucket/a/b", "my-bucket", "a/b"},
		{"/my-bucket/reports/", "my-bucket", "reports"},
		{"", "", ""},
	}
	for _, tt := range tests {
		bucket, prefix := splitBucket(tt.path)
		if bucket != tt.wantBucket || prefix != tt.wantPrefix {
			t.Errorf("splitBucket(%q) = (%q, %q), want (%q, %q)", tt.path, bucket, prefix, tt.wantBucket, tt.wantPrefix)
		}
	}
}

func TestStorage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       Storage
		wantErr bool
	}{
		{"fs", Storage{Backend: BackendFS, Path: "/var/lib/scanwatch"}, false},
		{"fs no path", Storage{Backend: BackendFS}, true},
		{"s3 bucket", Storage{Backend: BackendS3, Path: "reports"}, false},
		{"s3 bucket prefix", Storage{Backend: BackendS3, Path: "reports/kiosk"}, false},
		{"s3 no bucket", Storage{Backend: BackendS3}, true},
		{"unknown", Storage{Backend: "gcs", Path: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorage_FSFactoryRoundTrip(t *testing.T) {
	factory, err := Storage{Backend: BackendFS, Path: t.TempDir()}.Factory(t.Context())
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	r, err := NewReporter(Config{}, factory)
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}
	if err := r.WriteSession(t.Context(), testReport("sess-fs", "cam-0", time.Now())); err != nil {
		t.Fatalf("WriteSession: %v", err)
	}
	rec, err := QueryLatestReport(t.Context(), r.Dataset(), "sess-fs", "")
	if err != nil {
		t.Fatalf("QueryLatestReport: %v", err)
	}
	if rec["session_id"] != "sess-fs" {
		t.Errorf("session_id = %v", rec["session_id"])
	}
}
