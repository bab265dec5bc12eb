package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Pandoc is the command-line fallback converter. Pandoc sometimes
// writes usable output while exiting non-zero, so success is judged
// by the destination file existing afterward, not by the exit status
// alone.
type Pandoc struct {
	// Path is the pandoc binary, "pandoc" if empty.
	Path string
}

// Convert runs pandoc on srcPath, writing Markdown to dstPath.
func (p *Pandoc) Convert(ctx context.Context, srcPath, dstPath string) error {
	bin := p.Path
	if bin == "" {
		bin = "pandoc"
	}

	cmd := exec.CommandContext(ctx, bin, srcPath, "-o", dstPath)
	runErr := cmd.Run()

	if _, err := os.Stat(dstPath); err != nil {
		if runErr != nil {
			return fmt.Errorf("%w: %s", ErrFallbackFailed, runErr)
		}
		return fmt.Errorf("%w: %s missing", ErrFallbackFailed, dstPath)
	}
	return nil
}
