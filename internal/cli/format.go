package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v2"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

var ErrUnknownFormat = errors.New("unknown output format")

// view is what a command prints. Data feeds the json and yaml formats, the
// tables feed human and table.
type view struct {
	Title  string
	Tables []tableView
	Notes  []string
	Data   any
}

type tableView struct {
	Title   string
	Headers []string
	Rows    [][]string
}

type formatter interface {
	Format(w io.Writer, v view) error
}

func newFormatter(format string) (formatter, error) {
	switch format {
	case FormatHuman, "":
		return humanFormatter{color: !termenv.EnvNoColor()}, nil
	case FormatTable:
		return humanFormatter{plain: true}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatYAML:
		return yamlFormatter{}, nil
	default:
		return nil, fmt.Errorf("%w %q (human, json, yaml or table)", ErrUnknownFormat, format)
	}
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, v view) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v.Data); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

type yamlFormatter struct{}

// Format goes through JSON first so the output keeps the json field names
// and their order.
func (yamlFormatter) Format(w io.Writer, v view) error {
	data, err := json.Marshal(v.Data)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	var doc any
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var ms yaml.MapSlice
		if err := yaml.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		doc = ms
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = w.Write(out)
	return err
}

type humanFormatter struct {
	color bool
	plain bool
}

func (f humanFormatter) Format(w io.Writer, v view) error {
	r := lipgloss.NewRenderer(w)
	if !f.color || f.plain {
		r.SetColorProfile(termenv.Ascii)
	}
	titleStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	noteStyle := r.NewStyle().Foreground(lipgloss.Color("243"))

	var b strings.Builder
	if v.Title != "" && !f.plain {
		b.WriteString(titleStyle.Render(v.Title) + "\n\n")
	}
	for _, t := range v.Tables {
		if t.Title != "" {
			b.WriteString(titleStyle.Render(t.Title) + "\n")
		}
		if len(t.Rows) == 0 {
			b.WriteString(noteStyle.Render("(none)") + "\n\n")
			continue
		}
		b.WriteString(f.table(r, t).Render() + "\n\n")
	}
	if !f.plain {
		for _, n := range v.Notes {
			b.WriteString(noteStyle.Render(n) + "\n")
		}
	}
	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

func (f humanFormatter) table(r *lipgloss.Renderer, t tableView) *table.Table {
	headerStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)
	statusCol := -1
	for i, h := range t.Headers {
		if h == "Status" {
			statusCol = i
		}
	}

	border := lipgloss.RoundedBorder()
	if f.plain {
		border = lipgloss.NormalBorder()
	}
	return table.New().
		Border(border).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(t.Rows) {
				return cellStyle.Foreground(statusColor(t.Rows[row][col]))
			}
			return cellStyle
		})
}

func statusColor(status string) lipgloss.TerminalColor {
	switch strings.ToUpper(status) {
	case "COMPLETED", "COMPLETE", "SUCCEEDED":
		return lipgloss.Color("42")
	case "FAILED", "KILLED":
		return lipgloss.Color("196")
	case "RUNNING", "ACTIVE", "PENDING":
		return lipgloss.Color("226")
	default:
		return lipgloss.NoColor{}
	}
}

// kvTable flattens v through its JSON form into Field/Value rows. Nested
// objects are joined with dots and arrays are indexed.
func kvTable(title string, v any) tableView {
	t := tableView{Title: title, Headers: []string{"Field", "Value"}}
	data, err := json.Marshal(v)
	if err != nil {
		return t
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return t
	}
	flatten("", doc, &t.Rows)
	return t
}

func flatten(prefix string, v any, rows *[][]string) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(join(prefix, k), x[k], rows)
		}
	case []any:
		if scalars(x) {
			parts := make([]string, 0, len(x))
			for _, item := range x {
				parts = append(parts, scalar(item))
			}
			*rows = append(*rows, []string{prefix, strings.Join(parts, ", ")})
			return
		}
		for i, item := range x {
			flatten(prefix+"["+strconv.Itoa(i)+"]", item, rows)
		}
	default:
		*rows = append(*rows, []string{prefix, scalar(x)})
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
