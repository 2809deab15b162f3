package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	lodelibrary "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/scanwatch/adapter"
	redisadapter "github.com/pithecene-io/scanwatch/adapter/redis"
	"github.com/pithecene-io/scanwatch/adapter/webhook"
	"github.com/pithecene-io/scanwatch/cli/config"
	"github.com/pithecene-io/scanwatch/lode"
	"github.com/pithecene-io/scanwatch/scanner"
)

// scanOptions is the fully resolved scan configuration.
type scanOptions struct {
	sourceType string
	sourceID   string
	input      string
	interval   time.Duration
	dropOld    bool
	duration   time.Duration

	scanner  config.ScannerConfig
	logLevel zapcore.Level
	quiet    bool

	adapter adapterChoice
	report  reportChoice
}

// adapterChoice holds parsed adapter configuration.
type adapterChoice struct {
	adapterType string
	url         string
	channel     string
	mode        string
	secret      string
	headers     map[string]string
	timeout     time.Duration
	retries     int
}

// reportChoice holds parsed report storage configuration.
type reportChoice struct {
	backend   string // "fs", "s3", or "" for none
	path      string // fs: directory, s3: bucket/prefix
	dataset   string
	region    string
	endpoint  string
	pathStyle bool
}

// loadConfigFile loads --config when given.
func loadConfigFile(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}

// resolveScanOptions merges flags over cfg and validates the result.
// cfg may be nil.
func resolveScanOptions(c *cli.Context, cfg *config.Config) (*scanOptions, error) {
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config file: %w", err)
		}
	}

	opts := &scanOptions{
		sourceType: resolveString(c, "source", configVal(cfg, func(c *config.Config) string { return c.Source.Type })),
		sourceID:   resolveString(c, "source-id", configVal(cfg, func(c *config.Config) string { return c.Source.ID })),
		input:      resolveString(c, "input", configVal(cfg, func(c *config.Config) string { return c.Source.Path })),
		interval:   resolveDuration(c, "interval", configVal(cfg, func(c *config.Config) time.Duration { return c.Source.Interval.Duration })),
		dropOld:    resolveBool(c, "drop-old", configVal(cfg, func(c *config.Config) bool { return c.Source.DropOld })),
		duration:   c.Duration("duration"),
		quiet:      c.Bool("quiet"),
	}

	if opts.input == "" {
		return nil, errors.New("--input is required (file path, or - for stdin)")
	}
	switch opts.sourceType {
	case "stream", "still":
	default:
		return nil, fmt.Errorf("invalid --source %q (must be stream or still)", opts.sourceType)
	}
	if opts.sourceType == "still" && opts.input == "-" {
		return nil, errors.New("--source=still reads an image file; stdin is only supported for streams")
	}
	if opts.sourceID == "" {
		opts.sourceID = defaultSourceID(opts.input)
	}
	if opts.interval < 0 || opts.duration < 0 {
		return nil, errors.New("--interval and --duration must not be negative")
	}

	tryHarder := resolveBoolPtr(c, "try-harder", configVal(cfg, func(c *config.Config) *bool { return c.Scanner.TryHarder }))
	opts.scanner = config.ScannerConfig{
		Symbologies:          resolveStrings(c, "symbology", configVal(cfg, func(c *config.Config) []string { return c.Scanner.Symbologies })),
		TryHarder:            &tryHarder,
		DebounceWindow:       config.Duration{Duration: resolveDuration(c, "debounce", configVal(cfg, func(c *config.Config) time.Duration { return c.Scanner.DebounceWindow.Duration }))},
		MaxAttemptsPerSecond: resolveFloat(c, "max-rate", configVal(cfg, func(c *config.Config) float64 { return c.Scanner.MaxAttemptsPerSecond })),
	}
	if _, err := opts.scanner.Hints(); err != nil {
		return nil, fmt.Errorf("invalid --symbology: %w", err)
	}
	if opts.scanner.DebounceWindow.Duration < 0 || opts.scanner.MaxAttemptsPerSecond < 0 {
		return nil, errors.New("--debounce and --max-rate must not be negative")
	}

	level, err := zapcore.ParseLevel(resolveString(c, "log-level", configVal(cfg, func(c *config.Config) string { return c.Log.Level })))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	opts.logLevel = level

	ac, err := parseAdapterConfig(c, cfg)
	if err != nil {
		return nil, err
	}
	opts.adapter = ac

	rc, err := parseReportConfig(c, cfg)
	if err != nil {
		return nil, err
	}
	opts.report = rc

	return opts, nil
}

func defaultSourceID(input string) string {
	if input == "-" {
		return "stdin"
	}
	return input
}

// engineConfig builds the scanner configuration.
func (o *scanOptions) engineConfig(backend string) (scanner.Config, error) {
	hints, err := o.scanner.Hints()
	if err != nil {
		return scanner.Config{}, err
	}
	return scanner.Config{
		Hints:                hints,
		DebounceWindow:       o.scanner.DebounceWindow.Duration,
		MaxAttemptsPerSecond: o.scanner.MaxAttemptsPerSecond,
		Backend:              backend,
	}, nil
}

func parseAdapterConfig(c *cli.Context, cfg *config.Config) (adapterChoice, error) {
	ac := adapterChoice{
		adapterType: resolveString(c, "adapter", configVal(cfg, func(c *config.Config) string { return c.Adapter.Type })),
		url:         resolveString(c, "adapter-url", configVal(cfg, func(c *config.Config) string { return c.Adapter.URL })),
		channel:     resolveString(c, "adapter-channel", configVal(cfg, func(c *config.Config) string { return c.Adapter.Channel })),
		mode:        resolveString(c, "adapter-mode", configVal(cfg, func(c *config.Config) string { return c.Adapter.Mode })),
		secret:      resolveString(c, "adapter-secret", configVal(cfg, func(c *config.Config) string { return c.Adapter.Secret })),
		timeout:     resolveDuration(c, "adapter-timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.Adapter.Timeout.Duration })),
		retries:     resolveInt(c, "adapter-retries", configVal(cfg, func(c *config.Config) *int { return c.Adapter.Retries })),
	}

	headers, err := parseHeaders(c.StringSlice("adapter-header"))
	if err != nil {
		return adapterChoice{}, err
	}
	ac.headers = mergeHeaders(configVal(cfg, func(c *config.Config) map[string]string { return c.Adapter.Headers }), headers)

	switch ac.adapterType {
	case "":
		return ac, nil
	case "webhook", "redis":
		if ac.url == "" {
			return adapterChoice{}, fmt.Errorf("--adapter-url is required when --adapter=%s", ac.adapterType)
		}
	default:
		return adapterChoice{}, fmt.Errorf("invalid --adapter %q (must be webhook or redis)", ac.adapterType)
	}
	if ac.retries < 0 {
		return adapterChoice{}, errors.New("--adapter-retries must be >= 0")
	}
	return ac, nil
}

// parseHeaders parses repeated Key=Value flags.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --adapter-header %q (want Key=Value)", h)
		}
		out[k] = v
	}
	return out, nil
}

// mergeHeaders layers flag headers over config headers.
func mergeHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// build creates the configured adapter, or nil when none is configured.
func (ac adapterChoice) build() (adapter.Adapter, error) {
	switch ac.adapterType {
	case "":
		return nil, nil
	case "webhook":
		a, err := webhook.New(webhook.Config{
			URL:     ac.url,
			Headers: ac.headers,
			Secret:  ac.secret,
			Timeout: ac.timeout,
			Retries: ac.retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "redis":
		a, err := redisadapter.New(redisadapter.Config{
			URL:     ac.url,
			Channel: ac.channel,
			Mode:    ac.mode,
			Timeout: ac.timeout,
			Retries: ac.retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", ac.adapterType)
	}
}

func parseReportConfig(c *cli.Context, cfg *config.Config) (reportChoice, error) {
	rc := reportChoice{
		backend:   resolveString(c, "report-backend", configVal(cfg, func(c *config.Config) string { return c.Report.Backend })),
		path:      resolveString(c, "report-path", configVal(cfg, func(c *config.Config) string { return c.Report.Path })),
		dataset:   resolveString(c, "report-dataset", configVal(cfg, func(c *config.Config) string { return c.Report.Dataset })),
		region:    resolveString(c, "report-region", configVal(cfg, func(c *config.Config) string { return c.Report.Region })),
		endpoint:  resolveString(c, "report-endpoint", configVal(cfg, func(c *config.Config) string { return c.Report.Endpoint })),
		pathStyle: resolveBool(c, "report-s3-path-style", configVal(cfg, func(c *config.Config) bool { return c.Report.S3PathStyle })),
	}
	if err := validateReportConfig(rc); err != nil {
		return reportChoice{}, err
	}
	return rc, nil
}

// validateReportConfig checks report storage flags. Error messages name the
// flag to fix.
func validateReportConfig(rc reportChoice) error {
	switch rc.backend {
	case "":
		if rc.path != "" {
			return errors.New("--report-path requires --report-backend (fs or s3)")
		}
		return nil
	case "fs":
		if rc.path == "" {
			return errors.New("--report-path required for fs backend")
		}
		info, err := os.Stat(rc.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("--report-path %q does not exist", rc.path)
			}
			return fmt.Errorf("--report-path %q: %w", rc.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("--report-path %q is not a directory", rc.path)
		}
		return nil
	case "s3":
		if rc.path == "" {
			return errors.New("--report-path required for s3 backend (format: bucket/prefix)")
		}
		return nil
	default:
		return fmt.Errorf("invalid --report-backend %q (must be fs or s3)", rc.backend)
	}
}

func (rc reportChoice) enabled() bool {
	return rc.backend != ""
}

func (rc reportChoice) datasetID() string {
	if rc.dataset == "" {
		return lode.DefaultDataset
	}
	return rc.dataset
}

// storeFactory builds the Lode store factory for rc.
func (rc reportChoice) storeFactory(ctx context.Context) (lodelibrary.StoreFactory, error) {
	return lode.Storage{
		Backend:      rc.backend,
		Path:         rc.path,
		Region:       rc.region,
		Endpoint:     rc.endpoint,
		UsePathStyle: rc.pathStyle,
	}.Factory(ctx)
}

// buildReporter creates the session reporter, or nil when reports are off.
func (rc reportChoice) buildReporter(ctx context.Context) (*lode.Reporter, error) {
	if !rc.enabled() {
		return nil, nil
	}
	factory, err := rc.storeFactory(ctx)
	if err != nil {
		return nil, err
	}
	return lode.NewReporter(lode.Config{Dataset: rc.datasetID()}, factory)
}
