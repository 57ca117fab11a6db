// Package pdfconv provides the Converter and Prober implementations wired
// into the CLI: a pure-Go reader and a poppler (pdftotext) adapter.
package pdfconv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

// Backend identifiers accepted by Resolve.
const (
	BackendAuto    = "auto"
	BackendNative  = "native"
	BackendPoppler = "poppler"
)

// Native extracts text with a pure-Go PDF reader. It needs no external
// tools and doubles as the gate's metadata prober. Safe for concurrent use.
type Native struct{}

func NewNative() *Native { return &Native{} }

// Convert extracts the text layer page by page. The underlying reader
// panics on some malformed documents; panics are recovered and surfaced as
// conversion errors.
func (n *Native) Convert(ctx context.Context, req distill.ConvertRequest) (res *distill.ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %s: %v", distill.ErrConversion, req.SourcePath, r)
		}
	}()

	f, reader, err := pdf.Open(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", distill.ErrConversion, req.SourcePath, err)
	}
	defer f.Close()

	total := reader.NumPage()
	var sb strings.Builder
	pagesWithText := 0
	for i := 1; i <= total; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			// A single unreadable page does not sink the document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pagesWithText++
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	content := sb.String()
	return &distill.ConvertResult{
		Content:       content,
		Pages:         total,
		PagesWithText: pagesWithText,
		Characters:    utf8.RuneCountInString(content),
	}, nil
}

// Probe answers the gate's questions: total pages and whether any page
// carries extractable text. The scan stops at the first text hit, so
// ordinary documents probe in a page or two.
func (n *Native) Probe(ctx context.Context, path string) (info *distill.ProbeInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("%w: malformed document %s: %v", distill.ErrInvalidInput, path, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", distill.ErrValidation, path, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", distill.ErrValidation, path, err)
	}

	reader, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", distill.ErrInvalidInput, path, err)
	}

	total := reader.NumPage()
	hasText := false
	for i := 1; i <= total && !hasText; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			hasText = true
		}
	}
	return &distill.ProbeInfo{Pages: total, HasText: hasText}, nil
}
