package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdfmd/internal/config"
	"pdfmd/internal/convert"
	"pdfmd/internal/section"
)

type stubConverter struct {
	md       string
	err      error
	lastOpts convert.Options
}

func (c *stubConverter) Convert(srcPath string, opts convert.Options) (string, error) {
	c.lastOpts = opts
	return c.md, c.err
}

func newTestService(t *testing.T, stub convert.Converter) (*Service, config.Config) {
	t.Helper()
	cfg := config.Config{
		OutputDir:      t.TempDir(),
		PandocPath:     filepath.Join(t.TempDir(), "no-such-pandoc"),
		PandocFallback: true,
	}
	svc := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if stub != nil {
		svc.forFile = func(string) (convert.Converter, error) { return stub, nil }
	}
	return svc, cfg
}

func stageSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("staged bytes"), 0o644); err != nil {
		t.Fatalf("stage source: %v", err)
	}
	return path
}

func TestConvert_MissingSourceIsFatal(t *testing.T) {
	svc, cfg := newTestService(t, &stubConverter{md: "# x\ny\n"})

	_, err := svc.Convert(context.Background(), Request{
		SourcePath: filepath.Join(t.TempDir(), "gone.pdf"),
		Filename:   "gone.pdf",
		Mode:       section.ModeSingle,
	})
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}

	// Fatal before any output: nothing may be written.
	entries, _ := os.ReadDir(cfg.OutputDir)
	if len(entries) != 0 {
		t.Errorf("expected no output files, found %d", len(entries))
	}
}

func TestConvert_SingleMode(t *testing.T) {
	md := "# Title\n\nbody text\n"
	stub := &stubConverter{md: md}
	svc, cfg := newTestService(t, stub)

	res, err := svc.Convert(context.Background(), Request{
		SourcePath: stageSource(t, "report.pdf"),
		Filename:   "report.pdf",
		Mode:       section.ModeSingle,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Metadata.ParsingMethod != "single" {
		t.Errorf("expected parsing_method single, got %q", res.Metadata.ParsingMethod)
	}
	if res.Metadata.Filename != "report.pdf" {
		t.Errorf("expected filename report.pdf, got %q", res.Metadata.Filename)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 section, got %d", len(res.Content))
	}
	if res.Content[0].Title != "report" || res.Content[0].Content != md {
		t.Errorf("unexpected section %+v", res.Content[0])
	}
	if stub.lastOpts.OCRMode {
		t.Error("single mode must not enable OCR mode")
	}

	// Output file written under the configured root with the
	// basename_timestamp pattern.
	if !strings.HasPrefix(res.Metadata.MarkdownPath, cfg.OutputDir) {
		t.Errorf("output path %q outside output dir", res.Metadata.MarkdownPath)
	}
	if !strings.HasPrefix(filepath.Base(res.Metadata.MarkdownPath), "report_") {
		t.Errorf("expected report_<ts>.md, got %q", filepath.Base(res.Metadata.MarkdownPath))
	}
	data, err := os.ReadFile(res.Metadata.MarkdownPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != md {
		t.Errorf("output file mismatch: %q", data)
	}

	// Images subdirectory is part of the layout.
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "images")); err != nil {
		t.Errorf("expected images subdir: %v", err)
	}
}

func TestConvert_ByHeadersMode(t *testing.T) {
	stub := &stubConverter{md: "# A\nfoo\n# B\nbar\n"}
	svc, _ := newTestService(t, stub)

	res, err := svc.Convert(context.Background(), Request{
		SourcePath: stageSource(t, "doc.pdf"),
		Filename:   "doc.pdf",
		Mode:       section.ModeByHeaders,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Metadata.ParsingMethod != "by_headers" {
		t.Errorf("expected parsing_method by_headers, got %q", res.Metadata.ParsingMethod)
	}
	if len(res.Content) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(res.Content))
	}
	if res.Content[0].Title != "A" || res.Content[1].Title != "B" {
		t.Errorf("unexpected titles %q, %q", res.Content[0].Title, res.Content[1].Title)
	}
	if !stub.lastOpts.OCRMode {
		t.Error("by_headers mode must enable OCR mode")
	}
}

func TestConvert_ASTSplitter(t *testing.T) {
	stub := &stubConverter{md: "# A\nfoo\n"}
	svc, _ := newTestService(t, stub)
	svc.cfg.SplitWithAST = true

	res, err := svc.Convert(context.Background(), Request{
		SourcePath: stageSource(t, "doc.pdf"),
		Filename:   "doc.pdf",
		Mode:       section.ModeByHeaders,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 section, got %d", len(res.Content))
	}
	// The AST splitter keeps the heading line in the body.
	if !strings.HasPrefix(res.Content[0].Content, "# A") {
		t.Errorf("expected heading kept in body, got %q", res.Content[0].Content)
	}
}

func TestConvert_DegradedEnvelope(t *testing.T) {
	primaryErr := convert.ErrUnavailable
	stub := &stubConverter{err: primaryErr}
	svc, cfg := newTestService(t, stub) // pandoc path points nowhere

	res, err := svc.Convert(context.Background(), Request{
		SourcePath: stageSource(t, "scan.pdf"),
		Filename:   "scan.pdf",
		Mode:       section.ModeByHeaders,
	})
	if err != nil {
		t.Fatalf("degraded conversion must not error, got %v", err)
	}

	if res.Metadata.ParsingMethod != "error" {
		t.Errorf("expected parsing_method error, got %q", res.Metadata.ParsingMethod)
	}
	if res.Metadata.Error == "" {
		t.Error("expected error recorded in metadata")
	}
	if strings.Contains(res.Metadata.Error, convert.ErrConversionFailed.Error()) {
		t.Errorf("unavailability must not be reclassified, got %q", res.Metadata.Error)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected exactly 1 error section, got %d", len(res.Content))
	}
	sec := res.Content[0]
	if sec.Title != "Error converting scan" {
		t.Errorf("unexpected error section title %q", sec.Title)
	}
	if !strings.Contains(sec.Content, primaryErr.Error()) {
		t.Errorf("expected primary error in content, got %q", sec.Content)
	}
	if !strings.Contains(sec.Content, "Fallback error:") {
		t.Errorf("expected fallback error in content, got %q", sec.Content)
	}

	// The error Markdown is still written to the output path.
	data, err := os.ReadFile(res.Metadata.MarkdownPath)
	if err != nil {
		t.Fatalf("read error output: %v", err)
	}
	if !strings.Contains(string(data), "# Conversion Error") {
		t.Errorf("unexpected error file content %q", data)
	}

	// No leftover temp file.
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "temp_scan.md")); !os.IsNotExist(err) {
		t.Errorf("expected temp file removed, stat err %v", err)
	}

	snap := svc.Stats().Snapshot()
	if snap.Degraded != 1 {
		t.Errorf("expected 1 degraded conversion recorded, got %d", snap.Degraded)
	}
}

func TestConvert_FallbackSuccess(t *testing.T) {
	stub := &stubConverter{err: errors.New("primary exploded")}
	svc, cfg := newTestService(t, stub)

	// Fake pandoc that produces Markdown regardless of input.
	stubBin := filepath.Join(t.TempDir(), "pandoc-stub")
	script := "#!/bin/sh\nprintf '# From Fallback\\nrestored text\\n' > \"$3\"\n"
	if err := os.WriteFile(stubBin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	svc.cfg.PandocPath = stubBin
	svc.fallback = &convert.Pandoc{Path: stubBin}

	res, err := svc.Convert(context.Background(), Request{
		SourcePath: stageSource(t, "doc.pdf"),
		Filename:   "doc.pdf",
		Mode:       section.ModeByHeaders,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Metadata.ParsingMethod != "by_headers (fallback)" {
		t.Errorf("expected fallback method label, got %q", res.Metadata.ParsingMethod)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 section, got %d", len(res.Content))
	}
	if res.Content[0].Title != "From Fallback" {
		t.Errorf("unexpected title %q", res.Content[0].Title)
	}

	// Temp output moved into its final name.
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "temp_doc.md")); !os.IsNotExist(err) {
		t.Errorf("expected temp file renamed away, stat err %v", err)
	}
	if _, err := os.Stat(res.Metadata.MarkdownPath); err != nil {
		t.Errorf("expected final output file: %v", err)
	}

	snap := svc.Stats().Snapshot()
	if snap.Fallback != 1 {
		t.Errorf("expected 1 fallback conversion recorded, got %d", snap.Fallback)
	}
	if snap.Formats[".pdf"] != 1 {
		t.Errorf("expected .pdf counted once, got %v", snap.Formats)
	}
}

func TestConvert_FallbackDisabled(t *testing.T) {
	stub := &stubConverter{err: errors.New("primary exploded")}
	svc, _ := newTestService(t, stub)
	svc.cfg.PandocFallback = false

	res, err := svc.Convert(context.Background(), Request{
		SourcePath: stageSource(t, "doc.pdf"),
		Filename:   "doc.pdf",
		Mode:       section.ModeSingle,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Metadata.ParsingMethod != "error" {
		t.Errorf("expected degraded envelope, got %q", res.Metadata.ParsingMethod)
	}
	// A primary failure that is not an unavailability gets classified
	// as a conversion failure before falling through.
	if !strings.Contains(res.Metadata.Error, convert.ErrConversionFailed.Error()) {
		t.Errorf("expected conversion failure classification, got %q", res.Metadata.Error)
	}
	if !strings.Contains(res.Metadata.Error, "primary exploded") {
		t.Errorf("expected original cause preserved, got %q", res.Metadata.Error)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report"},
		{"report.final.pdf", "report"},
		{"dir/report.pdf", "report"},
		{"noext", "noext"},
		{"", "document"},
		{".hidden", "document"},
	}
	for _, tt := range tests {
		if got := baseName(tt.in); got != tt.want {
			t.Errorf("baseName(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
