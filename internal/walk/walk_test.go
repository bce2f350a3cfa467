package walk

import (
	"context"
	"slices"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cstdump/internal/syntax"
)

// handTree builds a small tree over "ab\ncd\n":
//
//	root [0,6)
//	  x [0,2)    "ab"  (anonymous)
//	  y [3,5)
//	    z [3,5)  "cd"
func handTree() *syntax.Tree {
	return &syntax.Tree{
		Source: []byte("ab\ncd\n"),
		Root: &syntax.Node{
			Kind: "root", Named: true, StartByte: 0, EndByte: 6,
			StartPoint: syntax.Point{Row: 0, Column: 0}, EndPoint: syntax.Point{Row: 2, Column: 0},
			Children: []*syntax.Node{
				{
					Kind: "x", StartByte: 0, EndByte: 2,
					StartPoint: syntax.Point{Row: 0, Column: 0}, EndPoint: syntax.Point{Row: 0, Column: 2},
				},
				{
					Kind: "y", Named: true, Field: "body", StartByte: 3, EndByte: 5,
					StartPoint: syntax.Point{Row: 1, Column: 0}, EndPoint: syntax.Point{Row: 1, Column: 2},
					Children: []*syntax.Node{
						{
							Kind: "z", Named: true, StartByte: 3, EndByte: 5,
							StartPoint: syntax.Point{Row: 1, Column: 0}, EndPoint: syntax.Point{Row: 1, Column: 2},
						},
					},
				},
			},
		},
	}
}

type shape struct {
	Kind  string
	Depth int
}

func shapes(lines []Line) []shape {
	out := make([]shape, len(lines))
	for i, l := range lines {
		out[i] = shape{l.Kind, l.Depth}
	}
	return out
}

func parseRust(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	p, err := syntax.NewParser("rust")
	require.NoError(t, err)
	defer p.Close()
	tree, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	return tree
}

func TestWalk_PreOrderWithDepth(t *testing.T) {
	t.Parallel()
	lines := Collect(handTree(), All())

	assert.Equal(t, []shape{{"root", 0}, {"x", 1}, {"y", 1}, {"z", 2}}, shapes(lines))

	assert.True(t, lines[1].Leaf)
	assert.Equal(t, "ab", lines[1].Text)
	assert.False(t, lines[2].Leaf)
	assert.Empty(t, lines[2].Text)
	assert.Equal(t, "body", lines[2].Field)
	assert.Equal(t, "cd", lines[3].Text)
}

func TestWalk_WindowKeepsDepth(t *testing.T) {
	t.Parallel()
	tree := handTree()

	assert.Equal(t, []shape{{"root", 0}, {"y", 1}, {"z", 2}}, shapes(Collect(tree, Lines(2, 2))))
	assert.Equal(t, []shape{{"root", 0}, {"x", 1}}, shapes(Collect(tree, Lines(1, 1))))
	assert.Equal(t, []shape{{"root", 0}, {"y", 1}, {"z", 2}}, shapes(Collect(tree, From(2))))
}

func TestWalk_SentinelBoundsMeanWholeTree(t *testing.T) {
	t.Parallel()
	tree := handTree()
	assert.Equal(t, Collect(tree, All()), Collect(tree, Lines(-1, -1)))
	assert.Equal(t, Collect(tree, All()), Collect(tree, Lines(-1, 0)))
}

func TestWalk_StartPastEndOfFile(t *testing.T) {
	t.Parallel()
	tree := handTree()
	assert.Empty(t, Collect(tree, From(3)))
	assert.Empty(t, Collect(tree, Lines(100, 200)))
}

func TestWalk_InvertedWindowIsEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Collect(handTree(), Lines(2, 1)))
}

func TestWalk_NamedOnly(t *testing.T) {
	t.Parallel()
	lines := Collect(handTree(), All(), NamedOnly())
	assert.Equal(t, []shape{{"root", 0}, {"y", 1}, {"z", 2}}, shapes(lines))
}

func TestWalk_NilTree(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Collect(nil, All()))
	assert.Empty(t, Collect(&syntax.Tree{}, All()))
}

func TestWalk_Restartable(t *testing.T) {
	t.Parallel()
	seq := Walk(parseRust(t, "fn main() {\n    let x = 1;\n}\n"), Lines(2, 2))
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestWalk_EarlyStop(t *testing.T) {
	t.Parallel()
	count := 0
	for range Walk(handTree(), All()) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestWalk_FullWindowEmitsEveryNodeOnce(t *testing.T) {
	t.Parallel()
	tree := parseRust(t, "struct P { x: i32 }\n\nfn main() {\n    let p = P { x: 1 };\n}\n")

	lines := Collect(tree, All())
	assert.Len(t, lines, tree.Count())

	var want []shape
	tree.Each(func(n *syntax.Node, depth int) bool {
		want = append(want, shape{n.Kind, depth})
		return true
	})
	assert.Equal(t, want, shapes(lines))
}

func TestWalk_Deterministic(t *testing.T) {
	t.Parallel()
	src := "fn main() {\n    println!(\"hi\");\n}\n"
	a := Collect(parseRust(t, src), Lines(1, 2))
	b := Collect(parseRust(t, src), Lines(1, 2))
	assert.Equal(t, a, b)
}

func TestWalk_WellFormedRoundTrip(t *testing.T) {
	t.Parallel()
	src := "fn main() {}"
	lines := Collect(parseRust(t, src), All())
	require.NotEmpty(t, lines)

	root := lines[0]
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, 0, root.StartByte)
	assert.Equal(t, len(src), root.EndByte)
	for _, l := range lines {
		assert.False(t, l.HasError, "%s", l.Kind)
	}
}

func TestWalk_MalformedMarksErrors(t *testing.T) {
	t.Parallel()
	lines := Collect(parseRust(t, "fn main() {"), All())
	require.NotEmpty(t, lines)
	assert.True(t, slices.ContainsFunc(lines, func(l Line) bool { return l.HasError }))
}

func TestWalk_LeafTextMatchesSource(t *testing.T) {
	t.Parallel()
	src := "fn main() {\n    let s = \"größe ✓\";\n}\n"
	tree := parseRust(t, src)
	for _, l := range Collect(tree, All()) {
		if !l.Leaf {
			continue
		}
		assert.True(t, utf8.ValidString(l.Text), "leaf %s", l.Kind)
		assert.Equal(t, src[l.StartByte:l.EndByte], l.Text)
	}
}

func TestWalk_EmittedNodesIntersectWindow(t *testing.T) {
	t.Parallel()
	src := "fn a() {}\n\nfn b() {\n    let x = 1;\n}\n\nfn c() {}\n"
	tree := parseRust(t, src)
	w := Lines(3, 4)
	lines := Collect(tree, w)
	require.NotEmpty(t, lines)
	for _, l := range lines {
		first, last := l.LineSpan()
		assert.True(t, first <= 4 && last >= 3, "%s spans %d-%d", l.Kind, first, last)
	}
	assert.False(t, slices.ContainsFunc(lines, func(l Line) bool { return l.Kind == "identifier" && l.Text == "a" }))
	assert.True(t, slices.ContainsFunc(lines, func(l Line) bool { return l.Kind == "identifier" && l.Text == "b" }))
}
