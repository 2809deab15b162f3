package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/scanwatch/cli/render"
	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/types"
)

// SymbologyInfo is one row of the symbologies command.
type SymbologyInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Default bool   `json:"default"`
}

// SymbologiesCommand lists the symbologies the decode backend supports.
func SymbologiesCommand() *cli.Command {
	return &cli.Command{
		Name:   "symbologies",
		Usage:  "List supported symbologies",
		Flags:  ReadOnlyFlags(),
		Action: symbologiesAction,
	}
}

func symbologiesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for symbologies command", exitError)
	}
	return r.Render(listSymbologies())
}

func listSymbologies() []SymbologyInfo {
	defaults := decode.DefaultHints()
	all := types.AllSymbologies()
	out := make([]SymbologyInfo, 0, len(all))
	for _, s := range all {
		kind := "linear"
		if s.IsMatrix() {
			kind = "matrix"
		}
		out = append(out, SymbologyInfo{
			Name:    s.String(),
			Kind:    kind,
			Default: defaults.Includes(s),
		})
	}
	return out
}
