package pdfconv

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

const popplerBinary = "pdftotext"

// Poppler shells out to pdftotext. It tolerates damaged files better than
// the native reader at the cost of an external dependency. Safe for
// concurrent use; each call runs its own process.
type Poppler struct {
	bin string
}

// NewPoppler locates pdftotext on PATH.
func NewPoppler() (*Poppler, error) {
	bin, err := exec.LookPath(popplerBinary)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", popplerBinary, err)
	}
	return &Poppler{bin: bin}, nil
}

// Convert runs pdftotext with layout preservation and captures stdout,
// where pages arrive separated by form feeds.
func (p *Poppler) Convert(ctx context.Context, req distill.ConvertRequest) (*distill.ConvertResult, error) {
	cmd := exec.CommandContext(ctx, p.bin, "-layout", "-enc", "UTF-8", req.SourcePath, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s: %s", distill.ErrConversion, popplerBinary, msg)
	}

	out := stdout.String()
	pages := strings.Count(out, "\f")
	if pages == 0 && strings.TrimSpace(out) != "" {
		pages = 1
	}

	var parts []string
	pagesWithText := 0
	for _, pg := range strings.Split(out, "\f") {
		if t := strings.TrimSpace(pg); t != "" {
			pagesWithText++
			parts = append(parts, t)
		}
	}
	content := strings.Join(parts, "\n\n")

	return &distill.ConvertResult{
		Content:       content,
		Pages:         pages,
		PagesWithText: pagesWithText,
		Characters:    utf8.RuneCountInString(content),
	}, nil
}
