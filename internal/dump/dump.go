// Package dump renders walked syntax nodes to a persisted destination.
//
// The text format writes one node per line:
//
//	<2*depth spaces><kind> [start,end) row:col-row:col[ field=<name>][ error][ missing][ <text>]
//
// Named kinds are written bare and anonymous kinds are Go-quoted, following
// tree-sitter's S-expression convention. Leaves always end with their
// Go-quoted source text, so every node occupies exactly one line. Rows and
// columns are 0-based; byte ranges are half-open.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/cstdump/internal/walk"
)

// Format names an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// validFormats lists accepted format names.
var validFormats = []Format{Text, JSON, YAML}

// ParseFormat checks that s names a known format.
func ParseFormat(s string) (Format, error) {
	for _, f := range validFormats {
		if Format(s) == f {
			return f, nil
		}
	}
	names := make([]string, len(validFormats))
	for i, f := range validFormats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("dump: invalid format %q: must be one of %s", s, strings.Join(names, ", "))
}

// record is the structured form of a Line used by the json and yaml formats.
type record struct {
	Depth     int     `json:"depth" yaml:"depth"`
	Kind      string  `json:"kind" yaml:"kind"`
	Named     bool    `json:"named" yaml:"named"`
	Field     string  `json:"field,omitempty" yaml:"field,omitempty"`
	StartByte int     `json:"start_byte" yaml:"start_byte"`
	EndByte   int     `json:"end_byte" yaml:"end_byte"`
	StartRow  int     `json:"start_row" yaml:"start_row"`
	StartCol  int     `json:"start_col" yaml:"start_col"`
	EndRow    int     `json:"end_row" yaml:"end_row"`
	EndCol    int     `json:"end_col" yaml:"end_col"`
	HasError  bool    `json:"has_error,omitempty" yaml:"has_error,omitempty"`
	Missing   bool    `json:"missing,omitempty" yaml:"missing,omitempty"`
	Text      *string `json:"text,omitempty" yaml:"text,omitempty"`
}

func toRecord(l walk.Line) record {
	r := record{
		Depth:     l.Depth,
		Kind:      l.Kind,
		Named:     l.Named,
		Field:     l.Field,
		StartByte: l.StartByte,
		EndByte:   l.EndByte,
		StartRow:  l.Start.Row,
		StartCol:  l.Start.Column,
		EndRow:    l.End.Row,
		EndCol:    l.End.Column,
		HasError:  l.HasError,
		Missing:   l.Missing,
	}
	if l.Leaf {
		text := l.Text
		r.Text = &text
	}
	return r
}

// Encode writes lines to w in the given format.
func Encode(w io.Writer, lines []walk.Line, f Format) error {
	switch f {
	case Text:
		return encodeText(w, lines)
	case JSON:
		// One object per line keeps the output streamable top to bottom.
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, l := range lines {
			if err := enc.Encode(toRecord(l)); err != nil {
				return err
			}
		}
		return nil
	case YAML:
		records := make([]record, len(lines))
		for i, l := range lines {
			records[i] = toRecord(l)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := ParseFormat(string(f))
		return err
	}
}

// WriteFile creates or truncates path and writes lines to it. The file is
// closed on every path, and a failed close is reported like a failed write.
func WriteFile(path string, lines []walk.Line, f Format) (err error) {
	if _, err := ParseFormat(string(f)); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dump: create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("dump: close %s: %w", path, cerr)
		}
	}()

	if err := Encode(out, lines, f); err != nil {
		return fmt.Errorf("dump: write %s: %w", path, err)
	}
	return nil
}
