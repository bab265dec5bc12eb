package section

import "strings"

// SplitByHeaders partitions Markdown into flat sections, one per run of
// body lines, each titled by the nearest preceding header line. Header
// depth is ignored: any line starting with '#' renames the current
// section regardless of level.
//
// A header followed immediately by another header contributes no
// section: the flush only happens when body lines have accumulated, so
// empty-bodied headers are silently dropped. This is long-standing
// behavior that downstream consumers rely on; do not "fix" it.
func SplitByHeaders(text string) []Section {
	var (
		sections  []Section
		header    = DefaultTitle
		buf       []string
		sawHeader bool
	)

	// Trailing newlines would otherwise leak a final empty line into
	// the last section's body.
	trimmed := strings.TrimRight(text, "\n")
	if trimmed != "" {
		for _, line := range strings.Split(trimmed, "\n") {
			if strings.HasPrefix(line, "#") {
				sawHeader = true
				if len(buf) > 0 {
					sections = append(sections, Section{
						Type:    TypeMarkdown,
						Title:   header,
						Content: strings.Join(buf, "\n"),
					})
					buf = buf[:0]
				}
				header = strings.TrimSpace(strings.TrimLeft(line, "#"))
				continue
			}
			buf = append(buf, line)
		}
		if len(buf) > 0 {
			sections = append(sections, Section{
				Type:    TypeMarkdown,
				Title:   header,
				Content: strings.Join(buf, "\n"),
			})
		}
	}

	// No headers at all: the whole document is one section, content
	// verbatim. The trim above only applies once a header has split
	// the document.
	if !sawHeader {
		sections = nil
	}
	if len(sections) == 0 && text != "" {
		sections = append(sections, Section{
			Type:    TypeMarkdown,
			Title:   DefaultTitle,
			Content: text,
		})
	}

	for i := range sections {
		sections[i].Index = i + 1
	}
	return sections
}
