// Package cmd provides CLI commands for the scanwatch binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for stats commands.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// reportFlags locate the session report dataset. Shared by scan (write)
// and stats (read); each also reads a SCANWATCH_REPORT_* variable.
func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "report-backend", Usage: "Session report storage: fs or s3", EnvVars: reportEnv("BACKEND")},
		&cli.StringFlag{Name: "report-path", Usage: "Report storage path (fs: directory, s3: bucket/prefix)", EnvVars: reportEnv("PATH")},
		&cli.StringFlag{Name: "report-dataset", Usage: "Lode dataset ID", Value: "scanwatch", EnvVars: reportEnv("DATASET")},
		&cli.StringFlag{Name: "report-region", Usage: "AWS region for S3 backend (optional, uses default chain)", EnvVars: reportEnv("REGION")},
		&cli.StringFlag{Name: "report-endpoint", Usage: "Custom S3 endpoint (MinIO, R2)", EnvVars: reportEnv("ENDPOINT")},
		&cli.BoolFlag{Name: "report-s3-path-style", Usage: "Force S3 path-style addressing", EnvVars: reportEnv("S3_PATH_STYLE")},
	}
}

func reportEnv(name string) []string {
	return []string{"SCANWATCH_REPORT_" + name}
}
