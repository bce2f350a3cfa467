package walk

import "fmt"

// Window is an optional, inclusive range of 1-based source lines. Either
// bound may be open. The zero Window selects the whole source.
type Window struct {
	start int // 0 means no lower bound
	end   int // 0 means no upper bound
}

// All selects every line.
func All() Window { return Window{} }

// Lines selects lines start through end inclusive. A bound <= 0 leaves that
// side open, so the command line's -1 default selects the whole source.
func Lines(start, end int) Window {
	return Window{start: max(start, 0), end: max(end, 0)}
}

// From selects every line from start to the end of the source.
func From(start int) Window { return Lines(start, 0) }

// Start returns the lower bound, if any.
func (w Window) Start() (int, bool) { return w.start, w.start > 0 }

// End returns the upper bound, if any.
func (w Window) End() (int, bool) { return w.end, w.end > 0 }

// IsAll reports whether both bounds are open.
func (w Window) IsAll() bool { return w.start == 0 && w.end == 0 }

// Empty reports whether no line can satisfy the window.
func (w Window) Empty() bool { return w.start > 0 && w.end > 0 && w.start > w.end }

// Overlaps reports whether the inclusive line span [first, last] intersects
// the window.
func (w Window) Overlaps(first, last int) bool {
	if w.start > 0 && last < w.start {
		return false
	}
	if w.end > 0 && first > w.end {
		return false
	}
	return true
}

func (w Window) String() string {
	switch {
	case w.IsAll():
		return "all"
	case w.end == 0:
		return fmt.Sprintf("%d-", w.start)
	case w.start == 0:
		return fmt.Sprintf("-%d", w.end)
	default:
		return fmt.Sprintf("%d-%d", w.start, w.end)
	}
}
