package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdfmd/internal/config"
	"pdfmd/internal/convert"
	"pdfmd/internal/section"
)

// ErrSourceNotFound means the staged source document is missing. It is
// the only error Convert surfaces to the caller; every
// conversion-stage failure degrades into the envelope instead.
var ErrSourceNotFound = errors.New("source document not found")

// imagesSubdir is the output subdirectory for extracted images.
const imagesSubdir = "images"

// Request identifies one conversion.
type Request struct {
	// SourcePath is the staged document on disk.
	SourcePath string
	// Filename is the display name of the uploaded document.
	Filename string
	// Mode selects the splitting strategy.
	Mode section.Mode
}

// Metadata describes how a Result was produced.
type Metadata struct {
	Filename      string `json:"filename"`
	ParsingMethod string `json:"parsing_method"`
	Timestamp     string `json:"timestamp"`
	MarkdownPath  string `json:"md_file_path"`
	Error         string `json:"error,omitempty"`
}

// Result is the response envelope for one conversion. It is always
// well-formed: on total conversion failure Content holds a single
// section describing the errors.
type Result struct {
	Metadata Metadata          `json:"metadata"`
	Content  []section.Section `json:"content"`
}

// Service converts staged documents to Markdown and splits the result
// into sections. Conversions are synchronous and request-scoped.
type Service struct {
	cfg      config.Config
	log      *slog.Logger
	fallback *convert.Pandoc
	stats    *ConversionStats

	// forFile resolves the primary converter; replaced in tests.
	forFile func(filename string) (convert.Converter, error)
}

func New(cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		log:      log,
		fallback: &convert.Pandoc{Path: cfg.PandocPath},
		stats:    NewConversionStats(cfg.StatsWindow),
		forFile:  convert.ForFile,
	}
}

// Stats returns the service's conversion counters.
func (s *Service) Stats() *ConversionStats {
	return s.stats
}

// Convert runs the full conversion chain for one document: primary
// converter, then the pandoc fallback, then a degraded error envelope.
// Only a missing source document is returned as an error; it is
// checked before any output is written.
func (s *Service) Convert(ctx context.Context, req Request) (*Result, error) {
	log := s.log.With("filename", req.Filename, "mode", string(req.Mode))
	started := time.Now()

	if req.SourcePath == "" {
		return nil, fmt.Errorf("%w: no staged path", ErrSourceNotFound)
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, req.SourcePath)
	}

	if err := os.MkdirAll(filepath.Join(s.cfg.OutputDir, imagesSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create output dirs: %w", err)
	}

	basename := baseName(req.Filename)
	format := strings.ToLower(filepath.Ext(req.Filename))
	outPath := filepath.Join(s.cfg.OutputDir,
		fmt.Sprintf("%s_%s.md", basename, started.Format("20060102150405")))

	opts := convert.Options{
		Filename: req.Filename,
		OCRMode:  req.Mode == section.ModeByHeaders,
	}

	var (
		md      string
		method  = string(req.Mode)
		outcome = OutcomePrimary
	)

	primary, err := s.forFile(req.Filename)
	if err == nil {
		md, err = primary.Convert(req.SourcePath, opts)
		if err != nil && !errors.Is(err, convert.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", convert.ErrConversionFailed, err)
		}
	}

	if err == nil {
		if werr := os.WriteFile(outPath, []byte(md), 0o644); werr != nil {
			return nil, fmt.Errorf("write markdown: %w", werr)
		}
	} else {
		primaryErr := err
		log.Warn("primary conversion failed, falling back", "error", primaryErr)

		md, err = s.runFallback(ctx, req, basename, outPath)
		if err != nil {
			log.Error("fallback conversion failed", "error", err)
			s.stats.Record(OutcomeDegraded, format, time.Since(started))
			return s.degraded(req, basename, outPath, primaryErr, err), nil
		}
		method = string(req.Mode) + " (fallback)"
		outcome = OutcomeFallback
	}

	sections := s.split(req.Mode, md, basename)
	if sections == nil {
		sections = []section.Section{}
	}
	s.stats.Record(outcome, format, time.Since(started))
	log.Info("converted document",
		"method", method,
		"sections", len(sections),
		"output", outPath,
	)

	return &Result{
		Metadata: Metadata{
			Filename:      req.Filename,
			ParsingMethod: method,
			Timestamp:     time.Now().Format(time.RFC3339),
			MarkdownPath:  outPath,
		},
		Content: sections,
	}, nil
}

// runFallback invokes pandoc into a temp name and moves the output
// into place, returning the generated Markdown.
func (s *Service) runFallback(ctx context.Context, req Request, basename, outPath string) (string, error) {
	if !s.cfg.PandocFallback {
		return "", fmt.Errorf("%w: fallback disabled", convert.ErrFallbackFailed)
	}

	tmpPath := filepath.Join(s.cfg.OutputDir, "temp_"+basename+".md")
	defer os.Remove(tmpPath)

	if err := s.fallback.Convert(ctx, req.SourcePath, tmpPath); err != nil {
		return "", err
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("read fallback output: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return "", fmt.Errorf("move fallback output: %w", err)
	}
	return string(data), nil
}

func (s *Service) split(mode section.Mode, md, basename string) []section.Section {
	if mode == section.ModeByHeaders && s.cfg.SplitWithAST {
		return section.SplitHeadings(md)
	}
	return section.Split(mode, md, basename)
}

// degraded builds the never-fail envelope for a conversion that both
// the primary and fallback paths lost. The error text is also written
// to the output path so the file layout stays consistent.
func (s *Service) degraded(req Request, basename, outPath string, primaryErr, fallbackErr error) *Result {
	errMD := fmt.Sprintf(
		"# Conversion Error\n\nFailed to convert %s to markdown.\n\nError: %s\n\nFallback error: %s\n",
		req.Filename, primaryErr, fallbackErr,
	)

	if werr := os.WriteFile(outPath, []byte(errMD), 0o644); werr != nil {
		s.log.Error("write error markdown", "path", outPath, "error", werr)
	}

	return &Result{
		Metadata: Metadata{
			Filename:      req.Filename,
			ParsingMethod: "error",
			Timestamp:     time.Now().Format(time.RFC3339),
			MarkdownPath:  outPath,
			Error:         primaryErr.Error(),
		},
		Content: []section.Section{{
			Type:    section.TypeMarkdown,
			Title:   "Error converting " + basename,
			Content: errMD,
		}},
	}
}

// baseName strips directories and everything from the first dot, so
// "report.final.pdf" becomes "report".
func baseName(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		base = "document"
	}
	return base
}
