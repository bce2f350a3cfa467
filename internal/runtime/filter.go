package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/risor-io/risor/compiler"

	"github.com/jward/cstdump/internal/walk"
)

// Filter decides which dump lines are kept. The expression sees one line at
// a time through these globals:
//
//	kind, named, field, depth, leaf, text, has_error, missing,
//	start_byte, end_byte, start_line, end_line
//
// Lines are 1-based. A truthy result keeps the line. The source is compiled
// once; each line only runs the compiled code.
type Filter struct {
	rt    *Runtime
	code  *compiler.Code
	label string
}

// NewFilter compiles an inline expression.
func (r *Runtime) NewFilter(ctx context.Context, expr string) (*Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("runtime: empty filter expression")
	}
	return r.newFilter(ctx, expr, "<filter>")
}

// LoadFilter compiles a filter script read through LoadScript.
func (r *Runtime) LoadFilter(ctx context.Context, path string) (*Filter, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("runtime: filter script %s is empty", path)
	}
	return r.newFilter(ctx, src, path)
}

func (r *Runtime) newFilter(ctx context.Context, source, label string) (*Filter, error) {
	code, err := r.compile(ctx, source, label, lineGlobals(walk.Line{}))
	if err != nil {
		return nil, err
	}
	return &Filter{rt: r, code: code, label: label}, nil
}

// Label names the filter's source in error messages.
func (f *Filter) Label() string { return f.label }

// Keep evaluates the filter against l.
func (f *Filter) Keep(ctx context.Context, l walk.Line) (bool, error) {
	result, err := f.rt.run(ctx, f.code, f.label, lineGlobals(l))
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil
	}
	return result.IsTruthy(), nil
}

// Apply returns the lines the filter keeps, in order. Depth values are left
// untouched.
func (f *Filter) Apply(ctx context.Context, lines []walk.Line) ([]walk.Line, error) {
	kept := make([]walk.Line, 0, len(lines))
	for _, l := range lines {
		ok, err := f.Keep(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("%s at [%d,%d): %w", l.Kind, l.StartByte, l.EndByte, err)
		}
		if ok {
			kept = append(kept, l)
		}
	}
	return kept, nil
}

func lineGlobals(l walk.Line) map[string]any {
	first, last := l.LineSpan()
	return map[string]any{
		"kind":       l.Kind,
		"named":      l.Named,
		"field":      l.Field,
		"depth":      l.Depth,
		"leaf":       l.Leaf,
		"text":       l.Text,
		"has_error":  l.HasError,
		"missing":    l.Missing,
		"start_byte": l.StartByte,
		"end_byte":   l.EndByte,
		"start_line": first,
		"end_line":   last,
	}
}
