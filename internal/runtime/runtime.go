// Package runtime embeds a Risor VM used to filter dump lines with
// user-supplied expressions and scripts.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
)

// Runtime compiles and runs Risor source with a fixed set of host globals.
type Runtime struct {
	fsys   fs.FS
	logger *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the scripts' log global to logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// compile parses and compiles source once. The names of the globals passed
// to run must match extraGlobals here; only their values may differ.
func (r *Runtime) compile(ctx context.Context, source, label string, extraGlobals map[string]any) (*compiler.Code, error) {
	cfg := risor.NewConfig(r.options(extraGlobals)...)
	program, err := parser.Parse(ctx, source, parser.WithFile(label))
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	code, err := compiler.Compile(program, cfg.CompilerOpts()...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return code, nil
}

// run executes compiled code and returns the value of the last expression.
func (r *Runtime) run(ctx context.Context, code *compiler.Code, label string, extraGlobals map[string]any) (object.Object, error) {
	result, err := risor.EvalCode(ctx, code, r.options(extraGlobals)...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

func (r *Runtime) options(extraGlobals map[string]any) []risor.Option {
	globals := r.buildGlobals(extraGlobals)
	opts := make([]risor.Option, 0, len(globals))
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	return opts
}

// LoadScript reads a script and returns its source code. When an fs.FS is
// configured the path is resolved inside it; otherwise it is read from disk.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", path, err)
	}
	return string(data), nil
}

// buildGlobals constructs the globals exposed to every script.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "script")
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "script")
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "script")
}
