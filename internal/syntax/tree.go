package syntax

import (
	"bytes"
	"fmt"
)

// Point is a 0-based (row, column) position. Columns count bytes.
type Point struct {
	Row    int
	Column int
}

// Node is one node of a concrete syntax tree. Children are owned by their
// parent and stored in source order.
type Node struct {
	Kind  string
	Named bool
	// Field is the grammar field name the parent assigns to this node, if any.
	Field string

	StartByte  int
	EndByte    int
	StartPoint Point
	EndPoint   Point

	Children []*Node

	// HasError is set when this node or any descendant could not be matched.
	HasError bool
	// IsError is set on ERROR nodes produced by error recovery.
	IsError bool
	// Missing is set on zero-width nodes inserted by error recovery.
	Missing bool
}

// Leaf reports whether the node has no children.
func (n *Node) Leaf() bool { return len(n.Children) == 0 }

// LineSpan returns the 1-based inclusive lines the node covers.
func (n *Node) LineSpan() (first, last int) {
	return LineSpan(n.StartPoint, n.EndPoint)
}

// LineSpan returns the 1-based inclusive lines covered by a [start, end)
// point range. An end at column 0 of a later row does not cover that row.
func LineSpan(start, end Point) (first, last int) {
	first = start.Row + 1
	last = end.Row + 1
	if end.Column == 0 && end.Row > start.Row {
		last = end.Row
	}
	return first, last
}

// Tree is an immutable syntax tree together with the source it was parsed
// from. Leaf text is recovered by slicing Source.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Text returns the source bytes covered by n.
func (t *Tree) Text(n *Node) string {
	return string(t.Source[n.StartByte:n.EndByte])
}

// LineCount returns the number of lines in the source. A trailing newline
// does not start a new line; empty source has zero lines.
func (t *Tree) LineCount() int {
	if len(t.Source) == 0 {
		return 0
	}
	n := bytes.Count(t.Source, []byte{'\n'})
	if t.Source[len(t.Source)-1] != '\n' {
		n++
	}
	return n
}

// Each visits every node in pre-order with its depth. Returning false from
// fn stops the traversal.
func (t *Tree) Each(fn func(n *Node, depth int) bool) {
	if t == nil || t.Root == nil {
		return
	}
	type frame struct {
		node  *Node
		depth int
	}
	stack := []frame{{t.Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			return
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Count returns the total number of nodes in the tree.
func (t *Tree) Count() int {
	count := 0
	t.Each(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// ErrorCount returns the number of ERROR and missing nodes in the tree.
func (t *Tree) ErrorCount() int {
	count := 0
	t.Each(func(n *Node, _ int) bool {
		if n.IsError || n.Missing {
			count++
		}
		return true
	})
	return count
}

// Validate checks the structural invariants of the tree: every range lies
// inside the source, every child lies inside its parent, and siblings appear
// in increasing, non-overlapping order.
func (t *Tree) Validate() error {
	var err error
	t.Each(func(n *Node, _ int) bool {
		if n.StartByte < 0 || n.StartByte > n.EndByte || n.EndByte > len(t.Source) {
			err = fmt.Errorf("syntax: %s [%d,%d) outside source of %d bytes", n.Kind, n.StartByte, n.EndByte, len(t.Source))
			return false
		}
		for i, child := range n.Children {
			if child.StartByte < n.StartByte || child.EndByte > n.EndByte {
				err = fmt.Errorf("syntax: child %s [%d,%d) escapes parent %s [%d,%d)",
					child.Kind, child.StartByte, child.EndByte, n.Kind, n.StartByte, n.EndByte)
				return false
			}
			if i > 0 && child.StartByte < n.Children[i-1].EndByte {
				prev := n.Children[i-1]
				err = fmt.Errorf("syntax: sibling %s [%d,%d) overlaps %s [%d,%d)",
					child.Kind, child.StartByte, child.EndByte, prev.Kind, prev.StartByte, prev.EndByte)
				return false
			}
		}
		return true
	})
	return err
}
