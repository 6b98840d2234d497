// Package markdown normalizes model output: it flattens markdown into plain
// text and pulls code out of fenced blocks.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func parse(src []byte) gmast.Node {
	return goldmark.New().Parser().Parse(text.NewReader(src))
}

// PlainText renders md without markup: emphasis, headings, links and inline
// code keep only their text, list items become lines and blocks are
// separated by a blank line.
func PlainText(md string) string {
	src := []byte(md)
	root := parse(src)

	var buf bytes.Buffer
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case gmast.KindParagraph, gmast.KindHeading, gmast.KindList,
				gmast.KindFencedCodeBlock, gmast.KindCodeBlock, gmast.KindHTMLBlock:
				endBlock(&buf, 2)
			case gmast.KindTextBlock, gmast.KindListItem:
				endBlock(&buf, 1)
			}
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Text:
			buf.Write(node.Segment.Value(src))
			switch {
			case node.HardLineBreak():
				buf.WriteByte('\n')
			case node.SoftLineBreak():
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(node.Value)
		case *gmast.AutoLink:
			buf.Write(node.URL(src))
			return gmast.WalkSkipChildren, nil
		case *gmast.FencedCodeBlock:
			writeLines(&buf, node.Lines(), src)
		case *gmast.CodeBlock:
			writeLines(&buf, node.Lines(), src)
		case *gmast.RawHTML:
			// Type arguments such as List<String> parse as inline HTML.
			writeLines(&buf, node.Segments, src)
			return gmast.WalkSkipChildren, nil
		case *gmast.HTMLBlock:
			writeLines(&buf, node.Lines(), src)
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(src))
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

// ExtractCode returns the body of the first fenced code block in md. When md
// has no fenced block it is assumed to be bare code and returned trimmed.
func ExtractCode(md string) string {
	src := []byte(md)
	root := parse(src)

	var code *gmast.FencedCodeBlock
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if fenced, ok := n.(*gmast.FencedCodeBlock); ok && entering {
			code = fenced
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	if code == nil {
		return strings.TrimSpace(md)
	}

	var buf bytes.Buffer
	writeLines(&buf, code.Lines(), src)
	return strings.TrimRight(buf.String(), "\n")
}

func writeLines(buf *bytes.Buffer, lines *text.Segments, src []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
}

// endBlock makes the buffer end with at least n newlines, unless it is empty.
func endBlock(buf *bytes.Buffer, n int) {
	b := buf.Bytes()
	if len(b) == 0 {
		return
	}
	have := 0
	for i := len(b) - 1; i >= 0 && b[i] == '\n' && have < n; i-- {
		have++
	}
	for ; have < n; have++ {
		buf.WriteByte('\n')
	}
}
