package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/scanwatch/cli/render"
	"github.com/pithecene-io/scanwatch/decode/zxing"
	"github.com/pithecene-io/scanwatch/types"
)

// VersionResponse is the payload of the version command.
type VersionResponse struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Backend     string `json:"backend"`
	Symbologies int    `json:"symbologies"`
	GoVersion   string `json:"go_version"`
}

// VersionCommand returns the version command. commit comes from ldflags;
// when it is empty or "unknown" the VCS revision stamped by the Go
// toolchain is used instead.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version, build and decoder information",
		Flags: ReadOnlyFlags(),
		Action: func(c *cli.Context) error {
			if c.Bool("tui") {
				return cli.Exit("--tui is not supported for version command", exitError)
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitConfigError)
			}
			return r.Render(VersionResponse{
				Version:     types.Version,
				Commit:      resolveCommit(commit),
				Backend:     zxing.Name,
				Symbologies: len(types.AllSymbologies()),
				GoVersion:   runtime.Version(),
			})
		},
	}
}

func resolveCommit(commit string) string {
	if commit != "" && commit != "unknown" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return "unknown"
}
