package cstdump

import (
	"github.com/jward/cstdump/internal/dump"
	"github.com/jward/cstdump/internal/store"
	"github.com/jward/cstdump/internal/syntax"
	"github.com/jward/cstdump/internal/walk"
)

// Public type aliases for internal types used in the Engine API.
// These are Go type aliases (=) and need no conversion.

type Line = walk.Line
type Window = walk.Window
type Point = syntax.Point
type Format = dump.Format
type Store = store.Store
type File = store.File
type Dump = store.Dump
type DumpNode = store.DumpNode

const (
	FormatText = dump.Text
	FormatJSON = dump.JSON
	FormatYAML = dump.YAML
)

// AllLines selects the whole source.
func AllLines() Window { return walk.All() }

// LineRange selects 1-based lines start through end inclusive. A bound <= 0
// is open, so LineRange(-1, -1) selects the whole source.
func LineRange(start, end int) Window { return walk.Lines(start, end) }

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) { return dump.ParseFormat(s) }

// OpenStore opens and migrates a dump history database.
func OpenStore(dbPath string) (*Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Languages lists the supported grammar ids.
func Languages() []string { return syntax.Languages() }

// ExtensionsFor lists the file extensions mapped to a grammar id.
func ExtensionsFor(lang string) []string { return syntax.ExtensionsFor(lang) }

// NodesFromLines converts walked lines to their stored form.
func NodesFromLines(lines []Line) []DumpNode {
	nodes := make([]DumpNode, len(lines))
	for i, l := range lines {
		nodes[i] = DumpNode{
			Ordinal:   i,
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
			Leaf:      l.Leaf,
			Text:      l.Text,
			HasError:  l.HasError,
			Missing:   l.Missing,
		}
	}
	return nodes
}

// LinesFromNodes converts stored nodes back to lines.
func LinesFromNodes(nodes []DumpNode) []Line {
	lines := make([]Line, len(nodes))
	for i, n := range nodes {
		lines[i] = Line{
			Depth:     n.Depth,
			Kind:      n.Kind,
			Named:     n.Named,
			Field:     n.Field,
			StartByte: n.StartByte,
			EndByte:   n.EndByte,
			Start:     Point{Row: n.StartRow, Column: n.StartCol},
			End:       Point{Row: n.EndRow, Column: n.EndCol},
			Leaf:      n.Leaf,
			Text:      n.Text,
			HasError:  n.HasError,
			Missing:   n.Missing,
		}
	}
	return lines
}
