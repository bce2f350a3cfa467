// Package walk turns a syntax tree into the ordered sequence of per-node
// records that make up a dump.
package walk

import (
	"iter"
	"slices"

	"github.com/jward/cstdump/internal/syntax"
)

// Line describes one visited node.
type Line struct {
	Depth     int
	Kind      string
	Named     bool
	Field     string
	StartByte int
	EndByte   int
	Start     syntax.Point
	End       syntax.Point
	// Leaf is set for nodes without children; only leaves carry Text.
	Leaf     bool
	Text     string
	HasError bool
	Missing  bool
}

// LineSpan returns the 1-based inclusive source lines the node covers.
func (l Line) LineSpan() (first, last int) {
	return syntax.LineSpan(l.Start, l.End)
}

// Option configures a walk.
type Option func(*config)

type config struct {
	namedOnly bool
}

// NamedOnly suppresses anonymous nodes. Depth still counts every level of
// the tree.
func NamedOnly() Option {
	return func(c *config) {
		c.namedOnly = true
	}
}

// Walk returns the pre-order sequence of nodes in t whose line span
// intersects w. The root has depth 0. Nodes outside the window are still
// descended into, so the depth of every emitted node matches its depth in
// the full tree. The sequence is finite and may be ranged over repeatedly
// with the same result.
func Walk(t *syntax.Tree, w Window, opts ...Option) iter.Seq[Line] {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(yield func(Line) bool) {
		if t == nil || t.Root == nil || w.Empty() {
			return
		}
		if start, ok := w.Start(); ok && start > t.LineCount() {
			return
		}

		type frame struct {
			node  *syntax.Node
			depth int
		}
		stack := []frame{{t.Root, 0}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := f.node

			if w.Overlaps(n.LineSpan()) && (!cfg.namedOnly || n.Named) {
				if !yield(newLine(t, n, f.depth)) {
					return
				}
			}
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n.Children[i], f.depth + 1})
			}
		}
	}
}

// Collect materializes a walk.
func Collect(t *syntax.Tree, w Window, opts ...Option) []Line {
	return slices.Collect(Walk(t, w, opts...))
}

func newLine(t *syntax.Tree, n *syntax.Node, depth int) Line {
	l := Line{
		Depth:     depth,
		Kind:      n.Kind,
		Named:     n.Named,
		Field:     n.Field,
		StartByte: n.StartByte,
		EndByte:   n.EndByte,
		Start:     n.StartPoint,
		End:       n.EndPoint,
		Leaf:      n.Leaf(),
		HasError:  n.HasError || n.IsError || n.Missing,
		Missing:   n.Missing,
	}
	if l.Leaf {
		l.Text = t.Text(n)
	}
	return l
}
