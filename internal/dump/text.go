package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jward/cstdump/internal/walk"
)

const indent = "  "

// FormatLine renders a single Line in the text format, without a newline.
func FormatLine(l walk.Line) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(indent, l.Depth))
	if l.Named {
		b.WriteString(l.Kind)
	} else {
		b.WriteString(strconv.Quote(l.Kind))
	}
	fmt.Fprintf(&b, " [%d,%d) %d:%d-%d:%d",
		l.StartByte, l.EndByte, l.Start.Row, l.Start.Column, l.End.Row, l.End.Column)
	if l.Field != "" {
		b.WriteString(" field=")
		b.WriteString(l.Field)
	}
	if l.HasError {
		b.WriteString(" error")
	}
	if l.Missing {
		b.WriteString(" missing")
	}
	if l.Leaf {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(l.Text))
	}
	return b.String()
}

func encodeText(w io.Writer, lines []walk.Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(FormatLine(l)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ParseLine decodes one line of the text format.
func ParseLine(s string) (walk.Line, error) {
	var l walk.Line

	rest := strings.TrimLeft(s, " ")
	pad := len(s) - len(rest)
	if pad%len(indent) != 0 {
		return l, fmt.Errorf("dump: odd indentation %d", pad)
	}
	l.Depth = pad / len(indent)

	if strings.HasPrefix(rest, `"`) {
		q, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return l, fmt.Errorf("dump: bad anonymous kind: %w", err)
		}
		l.Kind, _ = strconv.Unquote(q)
		rest = rest[len(q):]
	} else {
		kind, tail, _ := strings.Cut(rest, " ")
		if kind == "" {
			return l, fmt.Errorf("dump: missing kind")
		}
		l.Kind, l.Named = kind, true
		rest = " " + tail
	}

	var tok string
	tok, rest = nextToken(rest)
	if _, err := fmt.Sscanf(tok, "[%d,%d)", &l.StartByte, &l.EndByte); err != nil {
		return l, fmt.Errorf("dump: bad byte range %q: %w", tok, err)
	}
	tok, rest = nextToken(rest)
	if _, err := fmt.Sscanf(tok, "%d:%d-%d:%d", &l.Start.Row, &l.Start.Column, &l.End.Row, &l.End.Column); err != nil {
		return l, fmt.Errorf("dump: bad position %q: %w", tok, err)
	}

	for rest != "" {
		rest = strings.TrimPrefix(rest, " ")
		if strings.HasPrefix(rest, `"`) {
			q, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return l, fmt.Errorf("dump: bad leaf text: %w", err)
			}
			l.Text, _ = strconv.Unquote(q)
			l.Leaf = true
			rest = rest[len(q):]
			if rest != "" {
				return l, fmt.Errorf("dump: trailing data %q", rest)
			}
			break
		}
		tok, rest = nextToken(" " + rest)
		switch {
		case strings.HasPrefix(tok, "field="):
			l.Field = strings.TrimPrefix(tok, "field=")
		case tok == "error":
			l.HasError = true
		case tok == "missing":
			l.Missing = true
		default:
			return l, fmt.Errorf("dump: unknown attribute %q", tok)
		}
	}
	return l, nil
}

// nextToken splits " tok rest" into tok and " rest".
func nextToken(s string) (string, string) {
	s = strings.TrimPrefix(s, " ")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// Read decodes a text-format dump.
func Read(r io.Reader) ([]walk.Line, error) {
	var lines []walk.Line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		l, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dump: read: %w", err)
	}
	return lines, nil
}
