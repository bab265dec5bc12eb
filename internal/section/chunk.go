package section

import (
	"fmt"
	"strings"
)

const (
	defaultChunkSize    = 2000 // target chunk size in characters
	defaultChunkOverlap = 200  // overlap carried into the next chunk
)

// chunkText breaks headingless Markdown into size-bounded "Section N"
// sections, splitting on paragraph boundaries first and sentences for
// oversized paragraphs. Consecutive chunks share an overlap so context
// is not lost at the seam.
func chunkText(text string, size, overlap int) []Section {
	parts := splitText(text, size, overlap)

	sections := make([]Section, 0, len(parts))
	for i, part := range parts {
		sections = append(sections, Section{
			Type:    TypeMarkdown,
			Index:   i + 1,
			Title:   fmt.Sprintf("Section %d", i+1),
			Content: part,
		})
	}
	return sections
}

func splitText(text string, size, overlap int) []string {
	paragraphs := splitParagraphs(text)

	var result []string
	var current strings.Builder

	for _, para := range paragraphs {
		// A single paragraph larger than the target gets split by
		// sentences on its own.
		if len(para) > size {
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			result = append(result, splitBySentences(para, size, overlap)...)
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(para) > size {
			result = append(result, current.String())
			tail := overlapTail(current.String(), overlap)
			current.Reset()
			if tail != "" {
				current.WriteString(tail)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitParagraphs splits on double-newlines, dropping blanks.
func splitParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func splitBySentences(text string, size, overlap int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder

	for _, sent := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sent) > size {
			result = append(result, current.String())
			tail := overlapTail(current.String(), overlap)
			current.Reset()
			if tail != "" {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}
	return sentences
}

// overlapTail extracts roughly the last n characters of text at a word
// boundary for carry-over into the next chunk.
func overlapTail(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return ""
	}
	words := strings.Fields(text)
	var tail []string
	total := 0
	for i := len(words) - 1; i >= 0; i-- {
		total += len(words[i]) + 1
		if total > n {
			break
		}
		tail = append([]string{words[i]}, tail...)
	}
	return strings.Join(tail, " ")
}
