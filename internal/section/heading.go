package section

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// SplitHeadings segments Markdown on heading lines using the goldmark
// AST, keeping each heading line in its section body and recording the
// active heading hierarchy as "Header N" metadata. Titles come from the
// outermost recorded heading (Header 1, then 2, then 3); sections with
// none fall back to "Section N". Documents without any headings are
// chunked by size instead.
func SplitHeadings(text string) []Section {
	src := []byte(text)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	type mark struct {
		offset int
		level  int
		title  string
	}
	var marks []mark
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		marks = append(marks, mark{
			offset: lineStart(src, seg.Start),
			level:  h.Level,
			title:  string(h.Text(src)),
		})
	}

	if len(marks) == 0 {
		return chunkText(text, defaultChunkSize, defaultChunkOverlap)
	}

	var sections []Section

	// Content before the first heading has no heading context.
	if pre := strings.TrimSpace(text[:marks[0].offset]); pre != "" {
		sections = append(sections, Section{Type: TypeMarkdown, Content: pre})
	}

	active := map[string]string{}
	for i, m := range marks {
		// Entering a heading invalidates everything deeper.
		for lvl := m.level + 1; lvl <= 6; lvl++ {
			delete(active, headerKey(lvl))
		}
		active[headerKey(m.level)] = m.title

		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].offset
		}

		meta := make(map[string]string, len(active))
		for k, v := range active {
			meta[k] = v
		}
		sections = append(sections, Section{
			Type:     TypeMarkdown,
			Title:    titleFromHeaders(meta),
			Content:  strings.TrimSpace(text[m.offset:end]),
			Metadata: meta,
		})
	}

	for i := range sections {
		sections[i].Index = i + 1
		if sections[i].Title == "" {
			sections[i].Title = fmt.Sprintf("Section %d", i+1)
		}
	}
	return sections
}

func headerKey(level int) string {
	return fmt.Sprintf("Header %d", level)
}

// titleFromHeaders picks the section title from the recorded heading
// hierarchy, outermost first.
func titleFromHeaders(meta map[string]string) string {
	for _, key := range []string{"Header 1", "Header 2", "Header 3"} {
		if v := meta[key]; v != "" {
			return v
		}
	}
	return ""
}

// lineStart walks back from off to the start of the line it sits on.
// Heading segments begin after the '#' markers; the section boundary
// is the full heading line.
func lineStart(src []byte, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return bytes.LastIndexByte(src[:off], '\n') + 1
}
