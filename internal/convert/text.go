package convert

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TextConverter passes plain text through as Markdown, normalizing
// paragraph separation to single blank lines.
type TextConverter struct{}

func (c *TextConverter) Convert(srcPath string, opts Options) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open text: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	if len(paragraphs) == 0 {
		return "", nil
	}
	return strings.Join(paragraphs, "\n\n") + "\n", nil
}

// MarkdownConverter passes Markdown through untouched aside from line
// ending normalization.
type MarkdownConverter struct{}

func (c *MarkdownConverter) Convert(srcPath string, opts Options) (string, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}
	md := strings.ReplaceAll(string(data), "\r\n", "\n")
	return md, nil
}
