package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pithecene-io/scanwatch/types"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `scanner:
  symbologies: [qr, EAN-13, code128]
  try_harder: false
  debounce_window: 750ms
  max_attempts_per_second: 15

source:
  type: stream
  id: lane-3
  path: /run/capture.sock
  drop_old: true

adapter:
  type: webhook
  url: https://hooks.example.com/scans
  headers:
    Authorization: Bearer token123
  secret: hunter2
  timeout: 10s
  retries: 3

report:
  dataset: kiosk
  backend: s3
  path: my-bucket/reports
  region: us-east-1
  endpoint: https://minio.local
  s3_path_style: true

log:
  level: warn
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	hints, err := cfg.Scanner.Hints()
	if err != nil {
		t.Fatalf("Hints failed: %v", err)
	}
	wantSyms := []types.Symbology{types.SymbologyQR, types.SymbologyEAN13, types.SymbologyCode128}
	gotSyms := hints.Symbologies()
	if len(gotSyms) != len(wantSyms) {
		t.Fatalf("symbologies = %v, want %v", gotSyms, wantSyms)
	}
	for i := range wantSyms {
		if gotSyms[i] != wantSyms[i] {
			t.Errorf("symbologies[%d] = %s, want %s", i, gotSyms[i], wantSyms[i])
		}
	}
	if hints.TryHarder() {
		t.Error("expected try_harder=false")
	}
	if cfg.Scanner.DebounceWindow.Duration != 750*time.Millisecond {
		t.Errorf("debounce_window = %v, want 750ms", cfg.Scanner.DebounceWindow.Duration)
	}
	if cfg.Scanner.MaxAttemptsPerSecond != 15 {
		t.Errorf("max_attempts_per_second = %v, want 15", cfg.Scanner.MaxAttemptsPerSecond)
	}

	assertEqual(t, "source.type", cfg.Source.Type, "stream")
	assertEqual(t, "source.id", cfg.Source.ID, "lane-3")
	assertEqual(t, "source.path", cfg.Source.Path, "/run/capture.sock")
	if !cfg.Source.DropOld {
		t.Error("expected source.drop_old=true")
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/scans")
	assertEqual(t, "adapter.secret", cfg.Adapter.Secret, "hunter2")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("expected adapter.timeout=10s, got %v", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Errorf("expected adapter.retries=3")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}

	assertEqual(t, "report.dataset", cfg.Report.Dataset, "kiosk")
	assertEqual(t, "report.backend", cfg.Report.Backend, "s3")
	assertEqual(t, "report.path", cfg.Report.Path, "my-bucket/reports")
	assertEqual(t, "report.region", cfg.Report.Region, "us-east-1")
	assertEqual(t, "report.endpoint", cfg.Report.Endpoint, "https://minio.local")
	if !cfg.Report.S3PathStyle {
		t.Error("expected report.s3_path_style=true")
	}

	assertEqual(t, "log.level", cfg.Log.Level, "warn")
}

func TestLoad_EmptyConfig(t *testing.T) {
	cfg, err := Load(writeTemp(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty config should be valid: %v", err)
	}

	hints, err := cfg.Scanner.Hints()
	if err != nil {
		t.Fatalf("Hints failed: %v", err)
	}
	if got := len(hints.Symbologies()); got != len(types.AllSymbologies()) {
		t.Errorf("default symbologies = %d, want all %d", got, len(types.AllSymbologies()))
	}
	if !hints.TryHarder() {
		t.Error("try_harder should default to true")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/scanwatch.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error %q should mention not found", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "{{invalid yaml")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(writeTemp(t, "scanner:\n  debounce: 1s\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeTemp(t, "scanner:\n  debounce_window: soon\n"))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SW_REDIS_URL", "redis://cache:6379/2")

	yaml := `adapter:
  type: redis
  url: ${SW_REDIS_URL}
  channel: ${SW_CHANNEL_UNSET:-scans}
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "redis://cache:6379/2")
	assertEqual(t, "adapter.channel", cfg.Adapter.Channel, "scans")
}

func TestLoad_RequiredEnvMissing(t *testing.T) {
	yaml := "adapter:\n  secret: ${SW_SECRET_UNSET:?set the webhook secret}\n"
	_, err := Load(writeTemp(t, yaml))
	if err == nil {
		t.Fatal("expected error for missing required variable")
	}
	if !strings.Contains(err.Error(), "SW_SECRET_UNSET") {
		t.Errorf("error %q should name the variable", err)
	}
}

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"unknown symbology", Config{Scanner: ScannerConfig{Symbologies: []string{"maxicode"}}}, "scanner.symbologies"},
		{"negative window", Config{Scanner: ScannerConfig{DebounceWindow: Duration{-time.Second}}}, "debounce_window"},
		{"negative rate", Config{Scanner: ScannerConfig{MaxAttemptsPerSecond: -2}}, "max_attempts_per_second"},
		{"unknown source", Config{Source: SourceConfig{Type: "webcam"}}, "source.type"},
		{"adapter without url", Config{Adapter: AdapterConfig{Type: "redis"}}, "adapter.url"},
		{"unknown adapter", Config{Adapter: AdapterConfig{Type: "kafka", URL: "x"}}, "adapter.type"},
		{"negative retries", Config{Adapter: AdapterConfig{Type: "webhook", URL: "http://x", Retries: &negative}}, "adapter.retries"},
		{"unknown report backend", Config{Report: ReportConfig{Backend: "gcs", Path: "x"}}, "report.backend"},
		{"report without path", Config{Report: ReportConfig{Backend: "fs"}}, "report.path"},
		{"unknown log level", Config{Log: LogConfig{Level: "loud"}}, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Config{
		Source:  SourceConfig{Type: "webcam"},
		Adapter: AdapterConfig{Type: "kafka"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"source.type", "adapter.type"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

// --- helpers ---

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scanwatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
