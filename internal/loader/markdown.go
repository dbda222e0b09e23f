package loader

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// loadMarkdown emits one segment per heading section. Text before the first
// heading becomes a section without a title.
func loadMarkdown(source string, content []byte) ([]Segment, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: %w", source, ErrDecode)
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var segments []Segment
	var current strings.Builder
	var section string

	flush := func() {
		body := strings.TrimSpace(current.String())
		current.Reset()
		if body == "" {
			return
		}
		segments = append(segments, Segment{
			Text:     body,
			Source:   source,
			Kind:     KindMarkdown,
			Unit:     UnitSection,
			Position: len(segments) + 1,
			Section:  section,
		})
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				flush()
				section = nodeText(node, content)
				current.WriteString(section)
				current.WriteString("\n\n")
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				current.Write(node.Segment.Value(content))
				if node.SoftLineBreak() || node.HardLineBreak() {
					current.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				current.Write(node.Value)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					current.Write(seg.Value(content))
				}
			} else {
				current.WriteString("\n")
			}
		case *ast.Paragraph, *ast.TextBlock:
			if !entering {
				current.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to walk markdown: %w", source, err)
	}
	flush()

	return segments, nil
}

// nodeText collects the text of all descendants of node.
func nodeText(node ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
