// Package render writes command results as a table, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	kflag "github.com/opst/mlstudio/pkg/commandline/flag"
	"gopkg.in/yaml.v3"
)

const (
	Table = "table"
	Json  = "json"
	Yaml  = "yaml"
)

// FormatFlag is a value for --format. The default is table.
func FormatFlag() *kflag.OneOf {
	return kflag.NewOneOf(Table, Json, Yaml)
}

// Output writes v in the format.
//
// For table (or empty) format, table is called with a writer aligning tab-separated cells.
func Output(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch format {
	case "", Table:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		if err := table(tw); err != nil {
			return err
		}
		return tw.Flush()
	case Json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(v)
	case Yaml:
		// through JSON, to keep field names and order of the wire format.
		buf, err := json.Marshal(v)
		if err != nil {
			return err
		}
		node := new(yaml.Node)
		if err := yaml.Unmarshal(buf, node); err != nil {
			return err
		}
		blockStyle(node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Row writes cells as a tab-separated line.
func Row(w io.Writer, cells ...any) error {
	strs := make([]string, len(cells))
	for n, c := range cells {
		strs[n] = orDash(fmt.Sprint(c))
	}
	_, err := fmt.Fprintln(w, strings.Join(strs, "\t"))
	return err
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Ellipsis shortens s to at most n runes, marking the cut with "...".
func Ellipsis(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
