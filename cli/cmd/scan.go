package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/scanwatch/adapter"
	"github.com/pithecene-io/scanwatch/cli/render"
	"github.com/pithecene-io/scanwatch/decode/zxing"
	"github.com/pithecene-io/scanwatch/iox"
	"github.com/pithecene-io/scanwatch/lode"
	"github.com/pithecene-io/scanwatch/log"
	"github.com/pithecene-io/scanwatch/metrics"
	"github.com/pithecene-io/scanwatch/scanner"
	"github.com/pithecene-io/scanwatch/source"
	"github.com/pithecene-io/scanwatch/types"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitError       = 1
	exitConfigError = 2
)

const (
	drainTimeout  = 10 * time.Second
	reportTimeout = 30 * time.Second
)

// ScanCommand returns the scan command.
// Scan runs an engine against one frame source until the source ends,
// --duration elapses, or the process is interrupted.
func ScanCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "Path to scanwatch.yaml (flags override file values)"},
		// Source flags
		&cli.StringFlag{Name: "source", Usage: "Frame source: stream (ipc frames) or still (one image)", Value: "stream"},
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Stream file, - for stdin, or image path"},
		&cli.StringFlag{Name: "source-id", Usage: "Video surface identifier (default: input path)"},
		&cli.DurationFlag{Name: "interval", Usage: "Frame interval for still sources", Value: 100 * time.Millisecond},
		&cli.BoolFlag{Name: "drop-old", Usage: "Keep only the newest pending stream frame"},
		&cli.DurationFlag{Name: "duration", Usage: "Stop after this long (0: until the source ends or interrupt)"},
		// Engine flags
		&cli.StringSliceFlag{Name: "symbology", Aliases: []string{"s"}, Usage: "Symbology to decode (repeatable, default: all)"},
		&cli.BoolFlag{Name: "try-harder", Usage: "Spend more time per frame for higher accuracy", Value: true},
		&cli.DurationFlag{Name: "debounce", Usage: "Suppress repeats of the same payload within this window", Value: 500 * time.Millisecond},
		&cli.Float64Flag{Name: "max-rate", Usage: "Max decode attempts per second (0: unlimited)"},
		// Adapter flags
		&cli.StringFlag{Name: "adapter", Usage: "Notification adapter: webhook or redis"},
		&cli.StringFlag{Name: "adapter-url", Usage: "Adapter endpoint URL"},
		&cli.StringFlag{Name: "adapter-channel", Usage: "Redis channel or stream key"},
		&cli.StringFlag{Name: "adapter-mode", Usage: "Redis delivery: pubsub or stream"},
		&cli.StringFlag{Name: "adapter-secret", Usage: "Webhook HMAC signing secret"},
		&cli.StringSliceFlag{Name: "adapter-header", Usage: "Webhook header Key=Value (repeatable)"},
		&cli.DurationFlag{Name: "adapter-timeout", Usage: "Per-request adapter timeout", Value: 10 * time.Second},
		&cli.IntFlag{Name: "adapter-retries", Usage: "Adapter retry attempts", Value: 3},
		// Output flags
		FormatFlag,
		NoColorFlag,
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Suppress event and summary output"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error", Value: "info"},
	}
	flags = append(flags, reportFlags()...)

	return &cli.Command{
		Name:   "scan",
		Usage:  "Scan a frame source continuously and print decoded codes",
		Flags:  flags,
		Action: scanAction,
	}
}

// closableSource is a FrameSource the command owns.
type closableSource interface {
	source.FrameSource
	io.Closer
}

// sessionLog collects finished sessions from state callbacks.
type sessionLog struct {
	mu       sync.Mutex
	sessions []scanner.SessionInfo
}

func (l *sessionLog) add(info scanner.SessionInfo) {
	l.mu.Lock()
	l.sessions = append(l.sessions, info)
	l.mu.Unlock()
}

func (l *sessionLog) all() []scanner.SessionInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]scanner.SessionInfo(nil), l.sessions...)
}

func scanAction(c *cli.Context) error {
	cfg, err := loadConfigFile(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	opts, err := resolveScanOptions(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	engineCfg, err := opts.engineConfig(zxing.Name)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	logger := log.New(c.App.ErrWriter, opts.logLevel)
	defer iox.DiscardErr(logger.Sync)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reporter, err := opts.report.buildReporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create session reporter: %w", err)
	}

	notifier, err := opts.adapter.build()
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}
	var pub *publisher
	if notifier != nil {
		pub = newPublisher(notifier, logger)
	}

	src, err := openSource(opts)
	if err != nil {
		if pub != nil {
			pub.drain(0)
		}
		return fmt.Errorf("failed to open frame source: %w", err)
	}
	defer iox.DiscardClose(src)

	var (
		engine *scanner.Engine
		ended  sessionLog
		idle   = make(chan struct{}, 1)
	)
	callbacks := scanner.Callbacks{
		OnScan: func(ev types.ScanEvent) {
			if !opts.quiet {
				if err := r.RenderEvent(ev); err != nil {
					logger.Warn("render event failed", map[string]any{"error": err.Error()})
				}
			}
			if pub != nil {
				pub.enqueue(adapter.NewScanNotification(engine.SessionID(), src.ID(), ev))
			}
		},
		OnStateChange: func(from, to types.LifecycleState) {
			sugar.Debugf("scanner state %s -> %s", from, to)
			if to != types.StateIdle {
				return
			}
			if info, ok := engine.LastSession(); ok {
				ended.add(info)
			}
			select {
			case idle <- struct{}{}:
			default:
			}
		},
	}

	engine, err = scanner.New(engineCfg, zxing.Factory, callbacks, scanner.WithLogger(logger))
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	runErr := runEngine(ctx, engine, src, opts.duration, idle)
	_ = engine.Close()

	if pub != nil {
		pub.drain(drainTimeout)
	}

	snapshot := engine.Metrics()
	sessions := ended.all()
	reportErr := writeReports(reporter, sessions, snapshot, logger)

	if !opts.quiet {
		printScanSummary(c.App.ErrWriter, sessions, snapshot, pub)
	}

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("scan failed: %v", runErr), exitError)
	}
	if reportErr != nil {
		return cli.Exit(fmt.Sprintf("session report failed: %v", reportErr), exitError)
	}
	return nil
}

// runEngine starts engine on src and blocks until ctx is done, the
// duration elapses, or the engine returns to Idle on its own.
func runEngine(ctx context.Context, engine *scanner.Engine, src source.FrameSource, duration time.Duration, idle <-chan struct{}) error {
	if err := engine.SetSource(src); err != nil {
		return err
	}
	if err := engine.SetEnabled(true); err != nil {
		return err
	}

	var deadline <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(duration)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case <-ctx.Done():
	case <-deadline:
	case <-idle:
	}
	return nil
}

// openSource opens the frame source described by opts.
func openSource(opts *scanOptions) (closableSource, error) {
	switch opts.sourceType {
	case "stream":
		// The stream source closes its reader; stdin stays open.
		var rd io.Reader = io.NopCloser(os.Stdin)
		if opts.input != "-" {
			f, err := os.Open(opts.input)
			if err != nil {
				return nil, err
			}
			rd = f
		}
		return source.NewStreamSource(opts.sourceID, rd, source.StreamOptions{DropOld: opts.dropOld}), nil

	case "still":
		img, err := decodeImageFile(opts.input)
		if err != nil {
			return nil, err
		}
		return source.NewStillSource(opts.sourceID, img, opts.interval), nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", opts.sourceType)
	}
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(f)

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// writeReports persists one report per finished session. Counters are the
// engine totals at shutdown.
func writeReports(reporter *lode.Reporter, sessions []scanner.SessionInfo, snapshot metrics.Snapshot, logger *log.Logger) error {
	if reporter == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	var firstErr error
	for _, s := range sessions {
		err := reporter.WriteSession(ctx, lode.SessionReport{
			SessionID: s.ID,
			SourceID:  s.SourceID,
			Backend:   zxing.Name,
			StartedAt: s.StartedAt,
			StoppedAt: s.StoppedAt,
			Reason:    s.Reason,
			Metrics:   snapshot,
		})
		if err != nil {
			logger.Error("session report write failed", map[string]any{
				"session_id": s.ID,
				"error":      err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info("session report written", map[string]any{"session_id": s.ID})
	}
	return firstErr
}

func printScanSummary(w io.Writer, sessions []scanner.SessionInfo, m metrics.Snapshot, pub *publisher) {
	for _, s := range sessions {
		fmt.Fprintf(w, "\nsession=%s, source=%s, stopped=%q, duration=%s\n",
			s.ID, s.SourceID, s.Reason, s.StoppedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "frames=%d, attempts=%d, emitted=%d, suppressed=%d, misses=%d, faults=%d\n",
		m.FramesRead, m.Attempts, m.Emitted, m.Suppressed, m.Misses, m.DecodeFaults+m.FrameFaults)
	if pub != nil {
		fmt.Fprintf(w, "published=%d, publish_failed=%d, publish_dropped=%d\n",
			pub.published.Load(), pub.failed.Load(), pub.dropped.Load())
	}
}
