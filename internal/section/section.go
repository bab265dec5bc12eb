package section

import "fmt"

// TypeMarkdown is the content type tag carried by every section.
const TypeMarkdown = "markdown"

// DefaultTitle is assigned to content that no header line precedes.
const DefaultTitle = "Document"

// Section is a titled, ordered chunk of document content.
type Section struct {
	Type     string            `json:"type"`
	Index    int               `json:"section,omitempty"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Mode selects how a Markdown document is segmented.
type Mode string

const (
	// ModeSingle returns the whole document as one section.
	ModeSingle Mode = "single"
	// ModeByHeaders partitions the document on header lines.
	ModeByHeaders Mode = "by_headers"
)

// ParseMode validates a splitting mode string. An empty string
// defaults to ModeSingle.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeByHeaders:
		return Mode(s), nil
	case "":
		return ModeSingle, nil
	default:
		return "", fmt.Errorf("unknown parsing option: %q", s)
	}
}

// Single wraps the whole document into one untitled-index section.
func Single(text, title string) []Section {
	return []Section{{
		Type:    TypeMarkdown,
		Title:   title,
		Content: text,
	}}
}

// Split segments text according to mode. The title is used only in
// single mode; by-header splitting derives titles from header lines.
func Split(mode Mode, text, title string) []Section {
	if mode == ModeByHeaders {
		return SplitByHeaders(text)
	}
	return Single(text, title)
}
