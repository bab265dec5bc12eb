package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Converter turns a staged source document into Markdown text.
type Converter interface {
	Convert(srcPath string, opts Options) (string, error)
}

// Options controls a single conversion.
type Options struct {
	// Filename is the display name of the source document.
	Filename string
	// OCRMode applies heading-detection heuristics during extraction.
	// It is enabled for by-header splitting, where recovered headings
	// determine section boundaries.
	OCRMode bool
}

var (
	// ErrUnavailable signals the primary converter cannot serve this
	// document at all; conversion should fall through to the
	// command-line fallback.
	ErrUnavailable = errors.New("primary converter unavailable")

	// ErrConversionFailed signals the primary converter attempted the
	// document and failed partway through.
	ErrConversionFailed = errors.New("primary conversion failed")

	// ErrFallbackFailed signals the fallback tool produced no output
	// file.
	ErrFallbackFailed = errors.New("fallback converter produced no output")
)

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".html":     true,
	".htm":      true,
	".csv":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// ForFile returns the appropriate converter for a filename.
func ForFile(filename string) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFConverter{}, nil
	case ".docx":
		return &DOCXConverter{}, nil
	case ".html", ".htm":
		return &HTMLConverter{}, nil
	case ".csv":
		return &CSVConverter{}, nil
	case ".txt":
		return &TextConverter{}, nil
	case ".md", ".markdown":
		return &MarkdownConverter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
