package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cstdump/internal/syntax"
	"github.com/jward/cstdump/internal/walk"
)

func sampleLines() []walk.Line {
	return []walk.Line{
		{Depth: 0, Kind: "source_file", Named: true, EndByte: 12, End: syntax.Point{Row: 0, Column: 12}},
		{Depth: 1, Kind: "function_item", Named: true, EndByte: 12, End: syntax.Point{Row: 0, Column: 12}},
		{Depth: 2, Kind: "fn", EndByte: 2, End: syntax.Point{Row: 0, Column: 2}, Leaf: true, Text: "fn"},
		{Depth: 2, Kind: "identifier", Named: true, Field: "name", StartByte: 3, EndByte: 7,
			Start: syntax.Point{Row: 0, Column: 3}, End: syntax.Point{Row: 0, Column: 7}, Leaf: true, Text: "main"},
		{Depth: 3, Kind: "}", StartByte: 11, EndByte: 11, HasError: true, Missing: true,
			Start: syntax.Point{Row: 2, Column: 0}, End: syntax.Point{Row: 2, Column: 0}, Leaf: true},
	}
}

func kinds(lines []walk.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Kind
	}
	return out
}

func TestNewFilter_SyntaxError(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime().NewFilter(context.Background(), `(((`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<filter>")
}

func TestNewFilter_UndefinedNameFailsAtCompile(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime().NewFilter(context.Background(), `undefined_name`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined_name")
}

func TestFilter_CompiledOnceRunsPerLine(t *testing.T) {
	t.Parallel()
	f, err := NewRuntime().NewFilter(context.Background(), `depth == 2`)
	require.NoError(t, err)
	code := f.code

	for range 3 {
		kept, err := f.Apply(context.Background(), sampleLines())
		require.NoError(t, err)
		assert.Equal(t, []string{"fn", "identifier"}, kinds(kept))
	}
	assert.Same(t, code, f.code)
}

func TestFilter_ScriptLog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	f, err := NewRuntime(WithLogger(logger)).NewFilter(context.Background(), "if missing { log.Warn(\"missing \" + kind) }\nnamed")
	require.NoError(t, err)

	_, err = f.Apply(context.Background(), sampleLines())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `msg="missing }"`)
}

func TestFilter_NamedOnly(t *testing.T) {
	t.Parallel()
	f, err := NewRuntime().NewFilter(context.Background(), `named`)
	require.NoError(t, err)

	kept, err := f.Apply(context.Background(), sampleLines())
	require.NoError(t, err)
	assert.Equal(t, []string{"source_file", "function_item", "identifier"}, kinds(kept))
}

func TestFilter_KeepsDepth(t *testing.T) {
	t.Parallel()
	f, err := NewRuntime().NewFilter(context.Background(), `leaf && text != ""`)
	require.NoError(t, err)

	kept, err := f.Apply(context.Background(), sampleLines())
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, 2, kept[0].Depth)
	assert.Equal(t, "main", kept[1].Text)
}

func TestFilter_Globals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime()
	tests := []struct {
		expr string
		want []string
	}{
		{`kind == "identifier"`, []string{"identifier"}},
		{`field == "name"`, []string{"identifier"}},
		{`depth >= 2`, []string{"fn", "identifier", "}"}},
		{`has_error`, []string{"}"}},
		{`missing`, []string{"}"}},
		{`start_byte >= 3 && end_byte <= 7`, []string{"identifier"}},
		{`start_line == 3 && end_line == 3`, []string{"}"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			f, err := rt.NewFilter(context.Background(), tt.expr)
			require.NoError(t, err)
			kept, err := f.Apply(context.Background(), sampleLines())
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(kept))
		})
	}
}

func TestFilter_ErrorNamesNode(t *testing.T) {
	t.Parallel()
	f, err := NewRuntime().NewFilter(context.Background(), `kind + 1`)
	require.NoError(t, err)

	_, err = f.Apply(context.Background(), sampleLines())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_file")
}

func TestNewFilter_Empty(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime().NewFilter(context.Background(), "   ")
	assert.Error(t, err)
}

func TestLoadFilter_FromDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := "wanted := \"identifier\"\nkind == \"fn\" || kind == wanted\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.risor"), []byte(script), 0o644))

	f, err := NewRuntime().LoadFilter(context.Background(), filepath.Join(dir, "keep.risor"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "keep.risor"), f.Label())

	kept, err := f.Apply(context.Background(), sampleLines())
	require.NoError(t, err)
	assert.Equal(t, []string{"fn", "identifier"}, kinds(kept))
}

func TestLoadFilter_FromFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"filters/leaves.risor": &fstest.MapFile{Data: []byte("leaf\n")},
	}
	f, err := NewRuntime(WithRuntimeFS(fsys)).LoadFilter(context.Background(), "/filters/leaves.risor")
	require.NoError(t, err)

	kept, err := f.Apply(context.Background(), sampleLines())
	require.NoError(t, err)
	assert.Equal(t, []string{"fn", "identifier", "}"}, kinds(kept))
}

func TestLoadFilter_Missing(t *testing.T) {
	t.Parallel()
	_, err := NewRuntime().LoadFilter(context.Background(), filepath.Join(t.TempDir(), "nope.risor"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.risor")
}

func TestLoadFilter_EmptyScript(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.risor"), []byte("\n"), 0o644))
	_, err := NewRuntime().LoadFilter(context.Background(), filepath.Join(dir, "empty.risor"))
	assert.ErrorContains(t, err, "empty")
}
