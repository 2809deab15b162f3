// Package main provides the scanwatch CLI entrypoint.
//
// Usage:
//
//	scanwatch <command> [subcommand] [options]
//
// Exit codes:
//   - 0: success
//   - 1: runtime error (source, adapter, or report storage failure)
//   - 2: invalid configuration or flags
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/scanwatch/cli/cmd"
	"github.com/pithecene-io/scanwatch/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// Only reached for errors the handler did not exit on.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "scanwatch",
		Usage:          "Continuous barcode and QR scanning over captured video frames",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ScanCommand(),
			cmd.StatsCommand(),
			cmd.SymbologiesCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		var w io.Writer = os.Stderr
		if c != nil && c.App != nil && c.App.ErrWriter != nil {
			w = c.App.ErrWriter
		}
		fmt.Fprintln(w, msg)
	}
	os.Exit(code)
}

// exitStatus maps err to a process exit code and the message to print.
// cli.Exit codes pass through; cli.Exit("", N) prints nothing. Any other
// error exits 1.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if !errors.As(err, &exitCoder) {
		return 1, "Error: " + err.Error()
	}
	code := exitCoder.ExitCode()
	msg := exitCoder.Error()
	if msg == fmt.Sprintf("exit status %d", code) {
		msg = ""
	}
	return code, msg
}
