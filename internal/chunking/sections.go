package chunking

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxHeaderLevel is the deepest heading level that opens a new parent chunk.
const maxHeaderLevel = 3

var markdown = goldmark.New()

type heading struct {
	level int
	title string
	start int // offset of the heading line
	end   int // offset just past the heading line
}

type section struct {
	headers map[string]string
	content string
}

// splitSections cuts src at ATX headings of level 1..3. Heading lines are not
// part of the content; the titles of the enclosing headings are kept as
// "Header N" metadata. Sections with blank content are dropped.
func splitSections(src []byte) []section {
	headings := findHeadings(src)

	var sections []section
	active := map[int]string{}
	appendSection := func(from, to int) {
		content := strings.TrimSpace(string(src[from:to]))
		if content == "" {
			return
		}
		headers := make(map[string]string, len(active))
		for level, title := range active {
			headers[fmt.Sprintf("Header %d", level)] = title
		}
		sections = append(sections, section{headers: headers, content: content})
	}

	cursor := 0
	for _, h := range headings {
		appendSection(cursor, h.start)
		for level := range active {
			if level >= h.level {
				delete(active, level)
			}
		}
		active[h.level] = h.title
		cursor = h.end
	}
	appendSection(cursor, len(src))
	return sections
}

func findHeadings(src []byte) []heading {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var headings []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level > maxHeaderLevel || h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		seg := h.Lines().At(0)
		start := lineStart(src, seg.Start)
		// Setext headings and headings nested in quotes or lists do not split.
		if !bytes.HasPrefix(bytes.TrimLeft(src[start:seg.Start], " "), []byte("#")) {
			return ast.WalkSkipChildren, nil
		}
		headings = append(headings, heading{
			level: h.Level,
			title: strings.TrimSpace(string(seg.Value(src))),
			start: start,
			end:   lineEnd(src, seg.Stop),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func lineStart(src []byte, pos int) int {
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func lineEnd(src []byte, pos int) int {
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}
