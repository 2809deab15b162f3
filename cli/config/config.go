package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/types"
)

// Config represents a scanwatch.yaml configuration file.
// All values are optional and act as defaults for scanwatch scan flags.
// CLI flags always override config values.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	Source  SourceConfig  `yaml:"source"`
	Adapter AdapterConfig `yaml:"adapter"`
	Report  ReportConfig  `yaml:"report"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig holds engine settings.
type ScannerConfig struct {
	Symbologies          []string `yaml:"symbologies"`
	TryHarder            *bool    `yaml:"try_harder,omitempty"`
	DebounceWindow       Duration `yaml:"debounce_window"`
	MaxAttemptsPerSecond float64  `yaml:"max_attempts_per_second"`
}

// SourceConfig selects the frame source.
type SourceConfig struct {
	// Type is "stream" (ipc frames) or "still" (one image file).
	Type string `yaml:"type"`
	// ID names the video surface. Defaults to the path.
	ID string `yaml:"id"`
	// Path is the stream file, "-" for stdin, or the image path.
	Path string `yaml:"path"`
	// Interval paces still sources.
	Interval Duration `yaml:"interval"`
	// DropOld keeps only the newest pending stream frame.
	DropOld bool `yaml:"drop_old"`
}

// AdapterConfig holds notification adapter defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Mode    string            `yaml:"mode,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Secret  string            `yaml:"secret,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// ReportConfig holds session report storage defaults.
type ReportConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "500ms" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Hints builds decode hints from the scanner section.
// An empty symbology list means every supported symbology.
func (c *ScannerConfig) Hints() (decode.Hints, error) {
	tryHarder := true
	if c.TryHarder != nil {
		tryHarder = *c.TryHarder
	}

	if len(c.Symbologies) == 0 {
		return decode.NewHints(types.AllSymbologies(), tryHarder)
	}

	syms := make([]types.Symbology, 0, len(c.Symbologies))
	for _, name := range c.Symbologies {
		s, err := types.ParseSymbology(name)
		if err != nil {
			return decode.Hints{}, err
		}
		syms = append(syms, s)
	}
	return decode.NewHints(syms, tryHarder)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Scanner.Hints(); err != nil {
		errs = append(errs, fmt.Errorf("scanner.symbologies: %w", err))
	}
	if c.Scanner.DebounceWindow.Duration < 0 {
		errs = append(errs, errors.New("scanner.debounce_window must not be negative"))
	}
	if c.Scanner.MaxAttemptsPerSecond < 0 {
		errs = append(errs, errors.New("scanner.max_attempts_per_second must not be negative"))
	}

	switch c.Source.Type {
	case "", "stream", "still":
	default:
		errs = append(errs, fmt.Errorf("source.type: unknown %q (want stream or still)", c.Source.Type))
	}
	if c.Source.Interval.Duration < 0 {
		errs = append(errs, errors.New("source.interval must not be negative"))
	}

	switch c.Adapter.Type {
	case "":
	case "redis", "webhook":
		if c.Adapter.URL == "" {
			errs = append(errs, fmt.Errorf("adapter.url is required for %s adapter", c.Adapter.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("adapter.type: unknown %q (want redis or webhook)", c.Adapter.Type))
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		errs = append(errs, errors.New("adapter.retries must be >= 0"))
	}

	switch c.Report.Backend {
	case "", "fs", "s3":
	default:
		errs = append(errs, fmt.Errorf("report.backend: unknown %q (want fs or s3)", c.Report.Backend))
	}
	if c.Report.Backend != "" && c.Report.Path == "" {
		errs = append(errs, errors.New("report.path is required when report.backend is set"))
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
