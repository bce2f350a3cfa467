package cstdump

import (
	"fmt"
	"strings"
)

// Stage identifies the pipeline step that failed.
type Stage string

const (
	// StageRead: the source file could not be read.
	StageRead Stage = "read source"
	// StageInit: no grammar could be configured. Path is the grammar id, or
	// the source path when the grammar was inferred from its extension.
	StageInit Stage = "initialize parser"
	// StageParse: the parser produced no tree at all.
	StageParse Stage = "parse"
	// StageFilter: the filter expression or script failed.
	StageFilter Stage = "filter"
	// StageWrite: the destination could not be opened or written.
	StageWrite Stage = "write dump"
)

// Error is returned by Engine for every fatal condition. Use errors.As to
// recover the stage and errors.Is to test the underlying cause.
type Error struct {
	Stage Stage
	Path  string
	Err   error
}

// Error renders on a single line; multi-line causes such as script
// diagnostics are joined with "; ".
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Path, oneLine(e.Err.Error()))
}

func (e *Error) Unwrap() error { return e.Err }

func stageError(stage Stage, path string, err error) error {
	return &Error{Stage: stage, Path: path, Err: err}
}

func oneLine(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var parts []string
	for line := range strings.Lines(s) {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}
