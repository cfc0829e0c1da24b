package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	pollbase "github.com/pollbase/pollbase-go"
	"github.com/pollbase/pollbase-go/pkg/filter"
)

// outputFormat resolves the effective format: -o flag, then config, then
// table.
func (a *app) outputFormat() string {
	if outputFlag != "" {
		return outputFlag
	}
	if a.cfg.Output.Format != "" {
		return a.cfg.Output.Format
	}
	return "table"
}

// printResult renders a single object in the selected format. Table output
// for a single object is a key/value listing.
func (a *app) printResult(v any) error {
	switch a.outputFormat() {
	case "json":
		return writeJSON(v)
	case "yaml":
		return writeYAML(v)
	case "table":
		row, err := toRow(v)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(k), formatCell(row[k]))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", a.outputFormat())
	}
}

// printList renders a slice of objects, applying --filter, with the given
// columns in table mode. meta, when present, is summarized on stderr so it
// never pollutes parseable output.
func (a *app) printList(v any, columns []string, meta *pollbase.PageMeta) error {
	rows, err := toRows(v)
	if err != nil {
		return err
	}

	if filterFlag != "" {
		f, err := filter.Compile(filterFlag)
		if err != nil {
			return err
		}
		rows, err = f.Apply(rows)
		if err != nil {
			return err
		}
	}

	switch a.outputFormat() {
	case "json":
		return writeJSON(rows)
	case "yaml":
		return writeYAML(rows)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))
		for _, row := range rows {
			cells := make([]string, len(columns))
			for i, col := range columns {
				cells[i] = formatCell(row[col])
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if meta != nil && meta.Total > 0 {
			fmt.Fprintf(os.Stderr, "page %d (%d per page, %d total)\n",
				meta.Page, meta.PerPage, meta.Total)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", a.outputFormat())
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// toRows converts any slice of structs to generic rows via JSON, the same
// shape --filter expressions see.
func toRows(v any) ([]map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

// toRow converts a single struct to a generic row.
func toRow(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return row, nil
}

// formatCell renders one table cell. Nested values collapse to compact
// JSON; the full structure is available with -o json.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case bool:
		return fmt.Sprintf("%t", x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(data)
	}
}
