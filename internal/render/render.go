// Package render formats command results as JSON, plain text or a table.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatPretty Format = "pretty"
)

var ValidFormats = []Format{FormatJSON, FormatText, FormatPretty}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "pretty":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("invalid format: %s (valid: json, text, pretty)", s)
	}
}

// Renderer renders Data in one of the formats. JSON marshals Value when it is
// set and Data otherwise.
type Renderer[T any] struct {
	Data         []T
	Value        any
	TextFormat   func(T) string
	PrettyFormat func([]T) string
}

func (r Renderer[T]) Render(format Format) (string, error) {
	switch format {
	case FormatJSON:
		return r.renderJSON()
	case FormatPretty:
		return r.renderPretty()
	case FormatText:
		return r.renderText()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (r Renderer[T]) renderPretty() (string, error) {
	if r.PrettyFormat == nil {
		return "", fmt.Errorf("pretty format not defined for this type")
	}
	return r.PrettyFormat(r.Data), nil
}

func (r Renderer[T]) renderJSON() (string, error) {
	var v any = r.Data
	if r.Value != nil {
		v = r.Value
	}
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (r Renderer[T]) renderText() (string, error) {
	if r.TextFormat == nil {
		return "", fmt.Errorf("text format not defined for this type")
	}

	var lines []string
	for _, item := range r.Data {
		lines = append(lines, r.TextFormat(item))
	}
	return strings.Join(lines, "\n"), nil
}

// Field is one key of a result map.
type Field struct {
	Key   string
	Value any
}

// Fields returns the entries of m sorted by key.
func Fields(m map[string]any) []Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: m[k]})
	}
	return fields
}

// Result renders a migas result map.
func Result(m map[string]any, format Format) (string, error) {
	return Renderer[Field]{
		Data:  Fields(m),
		Value: m,
		TextFormat: func(f Field) string {
			return f.Key + ": " + Value(f.Value)
		},
		PrettyFormat: func(fields []Field) string {
			t := makeTable().Headers("FIELD", "VALUE")
			for _, f := range fields {
				t.Row(f.Key, Value(f.Value))
			}
			return t.String()
		},
	}.Render(format)
}

// Value formats a single result value for text and table output: strings
// as-is, nil as null, composites as compact JSON.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool, float64, float32, int, int64:
		return fmt.Sprint(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}

var tableStyle = lipgloss.NewStyle().PaddingRight(1)

func makeTable() *table.Table {
	return table.New().
		Width(120).
		Wrap(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			return tableStyle
		})
}
