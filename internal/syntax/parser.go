// Package syntax adapts tree-sitter grammars into owned, immutable syntax
// trees. The tree-sitter tree is released as soon as the copy is built, so a
// Tree is plain Go data that can outlive its Parser.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrUnsupportedGrammar is returned by NewParser for an unknown grammar id.
	ErrUnsupportedGrammar = errors.New("unsupported grammar")
	// ErrUnknownLanguage is returned when no grammar matches a file extension.
	ErrUnknownLanguage = errors.New("no grammar for file extension")
	// ErrNoTree is returned when the engine produced no tree at all.
	ErrNoTree = errors.New("parser produced no tree")
)

// Parser owns a tree-sitter parser configured for one grammar.
type Parser struct {
	lang    string
	parser  *sitter.Parser
	timeout time.Duration
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithTimeout bounds a single Parse call. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) ParserOption {
	return func(p *Parser) {
		p.timeout = d
	}
}

// NewParser creates a Parser for the given grammar id. Ids are
// case-insensitive and stored in lower case.
func NewParser(lang string, opts ...ParserOption) (*Parser, error) {
	lang = strings.ToLower(lang)
	grammar, ok := grammarFor(lang)
	if !ok {
		return nil, fmt.Errorf("syntax: %w %q", ErrUnsupportedGrammar, lang)
	}
	p := &Parser{
		lang:   lang,
		parser: sitter.NewParser(),
	}
	p.parser.SetLanguage(grammar)
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Language returns the grammar id the parser was created for.
func (p *Parser) Language() string { return p.lang }

// Close releases the tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse parses src into a Tree. Malformed input still yields a tree whose
// bad regions are marked with error and missing nodes; ErrNoTree is returned
// only when the engine gives up, e.g. on cancellation or timeout.
func (p *Parser) Parse(ctx context.Context, src []byte) (*Tree, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: %w: %v", ErrNoTree, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("syntax: %w", ErrNoTree)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("syntax: %w: empty root", ErrNoTree)
	}
	return &Tree{
		Root:     copyTree(root),
		Source:   src,
		Language: p.lang,
	}, nil
}

// copyTree walks the tree-sitter tree with a cursor and builds the owned
// Node tree. The cursor never leaves the subtree rooted at root.
func copyTree(root *sitter.Node) *Node {
	c := sitter.NewTreeCursor(root)
	defer c.Close()

	top := newNode(c.CurrentNode(), "")
	stack := []*Node{top}
	for {
		if c.GoToFirstChild() {
			child := newNode(c.CurrentNode(), c.CurrentFieldName())
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, child)
			stack = append(stack, child)
			continue
		}
		// The current node has no more children to visit; climb until a
		// sibling is found or the cursor returns to root.
		for {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 && c.GoToNextSibling() {
				child := newNode(c.CurrentNode(), c.CurrentFieldName())
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, child)
				stack = append(stack, child)
				break
			}
			if !c.GoToParent() {
				return top
			}
		}
	}
}

func newNode(n *sitter.Node, field string) *Node {
	start, end := n.StartPoint(), n.EndPoint()
	return &Node{
		Kind:       n.Type(),
		Named:      n.IsNamed(),
		Field:      field,
		StartByte:  int(n.StartByte()),
		EndByte:    int(n.EndByte()),
		StartPoint: Point{Row: int(start.Row), Column: int(start.Column)},
		EndPoint:   Point{Row: int(end.Row), Column: int(end.Column)},
		HasError:   n.HasError(),
		IsError:    n.Type() == "ERROR",
		Missing:    n.IsMissing(),
	}
}
