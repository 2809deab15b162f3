// Package render provides centralized output rendering for the scanwatch CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// Color handling:
//   - --no-color affects table output only
//   - TUI mode is unaffected by --no-color (uses its own styling)
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/scanwatch/cli/tui"
	"github.com/pithecene-io/scanwatch/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer

	// eventMu serializes RenderEvent, which is called from engine callbacks.
	eventMu     sync.Mutex
	eventHeader bool
}

// NewRenderer creates a renderer from CLI context.
// Applies the TTY-based format defaults.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	formatStr := c.String("format")
	format, err := ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}

	// Apply default format based on TTY detection
	if format == "" {
		if f, ok := out.(*os.File); ok && isTTY(f) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	return &Renderer{
		format:  format,
		noColor: c.Bool("no-color"),
		out:     out,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI initiates TUI mode for the given view type.
// TUI is opt-in only and read-only only.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s (supported: %s)",
			viewType, strings.Join(tui.SupportedTUIViews(), ", "))
	}
	if f, ok := r.out.(*os.File); !ok || !isTTY(f) {
		_, err := fmt.Fprintln(r.out, tui.RenderStatic(data))
		return err
	}
	return tui.Run(viewType, data)
}

// Format returns the selected output format.
func (r *Renderer) Format() Format {
	return r.format
}

// RenderEvent writes one scan event as it arrives.
// json emits one compact object per line, yaml one document per event,
// and table one aligned row under a header printed once.
func (r *Renderer) RenderEvent(ev types.ScanEvent) error {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()

	switch r.format {
	case FormatJSON:
		return json.NewEncoder(r.out).Encode(ev)
	case FormatYAML:
		if _, err := fmt.Fprintln(r.out, "---"); err != nil {
			return err
		}
		return r.renderYAML(ev)
	case FormatTable:
		if !r.eventHeader {
			r.eventHeader = true
			if _, err := fmt.Fprintf(r.out, eventRowFormat, "DECODED_AT", "SEQ", "SYMBOLOGY", "PAYLOAD"); err != nil {
				return err
			}
		}
		sym := fmt.Sprintf("%-10s", ev.Symbology)
		if !r.noColor {
			sym = symbologyStyle.Render(sym)
		}
		_, err := fmt.Fprintf(r.out, eventRowFormat,
			ev.DecodedAt.Format(time.TimeOnly+".000"), fmt.Sprintf("%d", ev.FrameSeq), sym, ev.Payload)
		return err
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

const eventRowFormat = "%-12s  %6s  %-10s  %s\n"

var symbologyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// renderTable prints a slice as one row per element under a header line,
// and anything else as aligned "key: value" pairs.
func (r *Renderer) renderTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)

	v := indirect(reflect.ValueOf(data))
	if v.Kind() == reflect.Slice {
		if v.Len() == 0 {
			_, err := fmt.Fprintln(r.out, "(no results)")
			return err
		}
		cols := columns(indirect(v.Index(0)))
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = strings.ToUpper(c.name)
		}
		fmt.Fprintln(w, strings.Join(names, "\t"))
		for i := range v.Len() {
			row := indirect(v.Index(i))
			if !row.IsValid() {
				continue
			}
			cells := make([]string, len(cols))
			for j, c := range cols {
				cells[j] = c.get(row)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		return w.Flush()
	}

	for _, c := range columns(v) {
		fmt.Fprintf(w, "%s:\t%s\n", c.name, c.get(v))
	}
	if len(columns(v)) == 0 {
		fmt.Fprintf(w, "%v\n", data)
	}
	return w.Flush()
}

// column is one named cell extractor for a struct or map value.
type column struct {
	name string
	get  func(reflect.Value) string
}

// columns lists the exported, json-visible fields of a struct in
// declaration order, or the keys of a map in sorted order.
func columns(v reflect.Value) []column {
	var cols []column
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			name, ok := fieldName(f)
			if !ok {
				continue
			}
			cols = append(cols, column{name: name, get: func(row reflect.Value) string {
				return formatCell(row.Field(i))
			}})
		}
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, fmt.Sprint(k.Interface()))
		}
		slices.Sort(keys)
		for _, k := range keys {
			cols = append(cols, column{name: k, get: func(row reflect.Value) string {
				return formatCell(row.MapIndex(reflect.ValueOf(k)))
			}})
		}
	}
	return cols
}

// fieldName returns the json name of f, false for unexported or skipped fields.
func fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return "", false
	case "":
		return strings.ToLower(f.Name), true
	default:
		return name, true
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// formatCell flattens a value into one table cell. Small string-keyed maps,
// such as per-symbology counts, are inlined as sorted k=v pairs.
func formatCell(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return ""
	}
	switch x := v.Interface().(type) {
	case time.Time:
		return x.Format(time.RFC3339)
	case time.Duration:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range v.Len() {
			parts[i] = formatCell(v.Index(i))
		}
		return strings.Join(parts, ",")
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		parts := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			parts = append(parts, fmt.Sprintf("%v=%s", iter.Key().Interface(), formatCell(iter.Value())))
		}
		slices.Sort(parts)
		return strings.Join(parts, " ")
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// isTTY reports whether f is an interactive terminal.
func isTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
