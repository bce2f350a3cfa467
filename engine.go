package cstdump

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/cstdump/internal/dump"
	"github.com/jward/cstdump/internal/runtime"
	"github.com/jward/cstdump/internal/store"
	"github.com/jward/cstdump/internal/syntax"
	"github.com/jward/cstdump/internal/walk"
)

// Engine runs the dump pipeline: read, parse, walk, filter, write, and
// optionally record. An Engine holds configuration only; every call parses
// its input afresh.
type Engine struct {
	language     string // empty means infer from the file extension
	window       walk.Window
	format       dump.Format
	namedOnly    bool
	filterExpr   string
	filterScript string
	filterFS     fs.FS
	parseTimeout time.Duration
	store        *store.Store
	storePath    string
	logger       *slog.Logger
	runtime      *runtime.Runtime
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguage forces a grammar instead of inferring it from the file
// extension.
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.language = lang
	}
}

// WithWindow restricts emitted nodes to those intersecting a line window.
func WithWindow(w Window) Option {
	return func(e *Engine) {
		e.window = w
	}
}

// WithFormat selects the output encoding. The default is FormatText.
func WithFormat(f Format) Option {
	return func(e *Engine) {
		e.format = f
	}
}

// WithNamedOnly suppresses anonymous tokens in the output.
func WithNamedOnly(namedOnly bool) Option {
	return func(e *Engine) {
		e.namedOnly = namedOnly
	}
}

// WithFilter keeps only lines for which the Risor expression is truthy.
func WithFilter(expr string) Option {
	return func(e *Engine) {
		e.filterExpr = expr
	}
}

// WithFilterScript is like WithFilter but reads the Risor source from path.
func WithFilterScript(path string) Option {
	return func(e *Engine) {
		e.filterScript = path
	}
}

// WithFilterFS resolves WithFilterScript paths inside fsys instead of on
// disk.
func WithFilterFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.filterFS = fsys
	}
}

// WithParseTimeout bounds each parse. Zero means no bound.
func WithParseTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.parseTimeout = d
	}
}

// WithStore records every successful dump in s. The caller owns s.
func WithStore(s *Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithStorePath records every successful dump in the database at path. The
// database and its directory are created on the first successful dump and
// closed again after recording, so failed runs leave nothing behind.
func WithStorePath(path string) Option {
	return func(e *Engine) {
		e.storePath = path
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		window: walk.All(),
		format: dump.Text,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := dump.ParseFormat(string(e.format)); err != nil {
		return nil, fmt.Errorf("cstdump: %w", err)
	}
	e.language = strings.ToLower(e.language)
	if e.language != "" && !syntax.Supported(e.language) {
		return nil, stageError(StageInit, e.language, syntax.ErrUnsupportedGrammar)
	}
	if e.filterExpr != "" && e.filterScript != "" {
		return nil, fmt.Errorf("cstdump: filter expression and filter script are mutually exclusive")
	}
	if e.store != nil && e.storePath != "" {
		return nil, fmt.Errorf("cstdump: store and store path are mutually exclusive")
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithLogger(e.logger)}
	if e.filterFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.filterFS))
	}
	e.runtime = runtime.NewRuntime(rtOpts...)
	return e, nil
}

// Result summarizes one dump.
type Result struct {
	Language string
	// Nodes counts every node in the tree; Emitted counts the written lines.
	Nodes   int
	Emitted int
	// Errors counts ERROR and missing nodes in the tree.
	Errors int
	// DumpID is set when the dump was recorded.
	DumpID string
	// Unchanged is set when a previous recording of the same file and
	// window emitted identical lines.
	Unchanged bool
}

// DumpFile dumps the tree of srcPath into dstPath. Every line is produced
// and filtered before dstPath is opened, so a failure in an earlier stage
// never touches the destination.
func (e *Engine) DumpFile(ctx context.Context, srcPath, dstPath string) (*Result, error) {
	start := time.Now()

	src, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, stageError(StageRead, srcPath, err)
	}

	lang, err := e.languageFor(srcPath)
	if err != nil {
		return nil, err
	}

	tree, lines, res, err := e.run(ctx, src, lang, srcPath)
	if err != nil {
		return nil, err
	}

	if err := dump.WriteFile(dstPath, lines, e.format); err != nil {
		return nil, stageError(StageWrite, dstPath, err)
	}

	if e.store != nil || e.storePath != "" {
		e.record(srcPath, tree, lines, res)
	}

	e.logger.Debug("dump written",
		"source", srcPath,
		"output", dstPath,
		"language", lang,
		"nodes", res.Nodes,
		"emitted", res.Emitted,
		"errors", res.Errors,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}

// Dump parses src with the given grammar and writes the dump to w. label
// names the source in errors. Dumps made this way are never recorded.
func (e *Engine) Dump(ctx context.Context, src []byte, lang, label string, w io.Writer) (*Result, error) {
	lang = strings.ToLower(lang)
	if lang == "" {
		lang = e.language
	}
	if lang == "" {
		return nil, stageError(StageInit, label, syntax.ErrUnknownLanguage)
	}

	_, lines, res, err := e.run(ctx, src, lang, label)
	if err != nil {
		return nil, err
	}

	// Buffer so a failed encode leaves w untouched.
	var buf bytes.Buffer
	if err := dump.Encode(&buf, lines, e.format); err != nil {
		return nil, stageError(StageWrite, label, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return nil, stageError(StageWrite, label, err)
	}
	return res, nil
}

func (e *Engine) languageFor(path string) (string, error) {
	if e.language != "" {
		return e.language, nil
	}
	lang, ok := syntax.LanguageForFile(path)
	if !ok {
		return "", stageError(StageInit, path, fmt.Errorf("%w %q", syntax.ErrUnknownLanguage, filepath.Ext(path)))
	}
	return lang, nil
}

// run parses, walks and filters src.
func (e *Engine) run(ctx context.Context, src []byte, lang, label string) (*syntax.Tree, []walk.Line, *Result, error) {
	parser, err := syntax.NewParser(lang, syntax.WithTimeout(e.parseTimeout))
	if err != nil {
		return nil, nil, nil, stageError(StageInit, lang, err)
	}
	defer parser.Close()

	tree, err := parser.Parse(ctx, src)
	if err != nil {
		return nil, nil, nil, stageError(StageParse, label, err)
	}
	e.logger.Debug("parsed", "source", label, "language", lang, "bytes", len(src))

	var walkOpts []walk.Option
	if e.namedOnly {
		walkOpts = append(walkOpts, walk.NamedOnly())
	}
	lines := walk.Collect(tree, e.window, walkOpts...)

	lines, err = e.filter(ctx, lines)
	if err != nil {
		return nil, nil, nil, err
	}

	res := &Result{
		Language: lang,
		Nodes:    tree.Count(),
		Emitted:  len(lines),
		Errors:   tree.ErrorCount(),
	}
	if res.Errors > 0 {
		e.logger.Warn("source has syntax errors", "source", label, "errors", res.Errors)
	}
	return tree, lines, res, nil
}

func (e *Engine) filter(ctx context.Context, lines []walk.Line) ([]walk.Line, error) {
	var (
		f   *runtime.Filter
		err error
	)
	switch {
	case e.filterExpr != "":
		f, err = e.runtime.NewFilter(ctx, e.filterExpr)
		if err != nil {
			return nil, stageError(StageFilter, "<filter>", err)
		}
	case e.filterScript != "":
		f, err = e.runtime.LoadFilter(ctx, e.filterScript)
		if err != nil {
			return nil, stageError(StageFilter, e.filterScript, err)
		}
	default:
		return lines, nil
	}

	kept, err := f.Apply(ctx, lines)
	if err != nil {
		return nil, stageError(StageFilter, f.Label(), err)
	}
	return kept, nil
}

// record stores the dump. Failures are logged; the dump on disk stands.
func (e *Engine) record(srcPath string, tree *syntax.Tree, lines []walk.Line, res *Result) {
	path := srcPath
	if abs, err := filepath.Abs(srcPath); err == nil {
		path = abs
	}

	startLine, _ := e.window.Start()
	endLine, _ := e.window.End()
	nodes := NodesFromLines(lines)

	s, done, err := e.openStore()
	if err != nil {
		e.logger.Warn("opening history", "path", e.storePath, "error", err)
		return
	}
	defer done()

	prev, err := s.LatestDump(path, startLine, endLine)
	if err != nil {
		e.logger.Warn("looking up previous dump", "source", path, "error", err)
	}

	f := &store.File{
		Path:      path,
		Language:  res.Language,
		Hash:      store.ComputeSourceHash(tree.Source),
		LineCount: tree.LineCount(),
	}
	d := &store.Dump{
		Format:     string(e.format),
		StartLine:  startLine,
		EndLine:    endLine,
		NodeCount:  len(nodes),
		ErrorCount: res.Errors,
	}
	id, err := s.RecordDump(f, d, nodes)
	if err != nil {
		e.logger.Warn("recording dump", "source", path, "error", err)
		return
	}
	res.DumpID = id
	res.Unchanged = prev != nil && prev.DumpHash == d.DumpHash
	e.logger.Debug("dump recorded", "source", path, "id", id, "unchanged", res.Unchanged)
}

// openStore returns the configured store, opening the one at storePath if
// needed. done releases whatever openStore opened.
func (e *Engine) openStore() (*store.Store, func(), error) {
	if e.store != nil {
		return e.store, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(e.storePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", filepath.Dir(e.storePath), err)
	}
	s, err := OpenStore(e.storePath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}
