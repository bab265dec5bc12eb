package convert

import (
	"fmt"
	"strings"
	"unicode"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFConverter extracts PDF text into Markdown. In OCR mode, lines
// that look like headings are promoted to '#' markers so by-header
// splitting has boundaries to work with; otherwise pages are emitted
// under plain page headings.
type PDFConverter struct{}

func (c *PDFConverter) Convert(srcPath string, opts Options) (string, error) {
	f, reader, err := pdflib.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		// Image-only or empty PDF: nothing the library can extract.
		return "", fmt.Errorf("%w: no extractable text in %s", ErrUnavailable, opts.Filename)
	}

	var buf strings.Builder
	for i, page := range pages {
		if opts.OCRMode {
			buf.WriteString(promoteHeadings(page))
		} else {
			fmt.Fprintf(&buf, "## Page %d\n\n", i+1)
			buf.WriteString(strings.TrimSpace(page))
		}
		buf.WriteString("\n\n")
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// promoteHeadings rewrites probable heading lines with '#' markers.
func promoteHeadings(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if level := headingLevelFor(trimmed); level > 0 {
			out = append(out, strings.Repeat("#", level)+" "+trimmed)
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// headingLevelFor guesses a heading level for a line, or 0 for body
// text. Numbered headings ("2.1 Results") map dots to depth; short
// all-caps lines are treated as second-level headings.
func headingLevelFor(line string) int {
	if line == "" || len(line) > 64 {
		return 0
	}
	switch line[len(line)-1] {
	case '.', ',', ';', ':':
		return 0
	}

	if depth, ok := numberedDepth(line); ok {
		return depth
	}

	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return 0
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	if hasLetter {
		return 2
	}
	return 0
}

// numberedDepth matches section numbers like "3" or "3.1.2" followed
// by a title, returning the nesting depth.
func numberedDepth(line string) (int, bool) {
	i := 0
	dots := 0
	sawDigit := false
	for i < len(line) {
		c := line[i]
		if c >= '0' && c <= '9' {
			sawDigit = true
			i++
			continue
		}
		if c == '.' && sawDigit && i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
			dots++
			i++
			continue
		}
		break
	}
	if !sawDigit || i >= len(line) || line[i] != ' ' {
		return 0, false
	}
	rest := strings.TrimSpace(line[i:])
	if rest == "" || !unicode.IsLetter(rune(rest[0])) {
		return 0, false
	}
	depth := dots + 1
	if depth > 6 {
		depth = 6
	}
	return depth, true
}
