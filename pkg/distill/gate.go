package distill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var pdfMagic = []byte("%PDF-")

// Decision is a gate verdict. A nil *Decision means the job proceeds to
// conversion; otherwise Status is StatusSkipped or StatusFailed with the
// matching Reason. Err carries failure detail and is nil for skips.
type Decision struct {
	Status Status
	Reason Reason
	Err    error
}

// Gate applies the pre-flight policy for one file, in order, short-circuiting
// on the first match:
//
//  1. output already exists and is non-empty  → skipped: already_done
//  2. source exceeds the size ceiling         → skipped: limit_exceeded
//  3. source unreadable or not a PDF          → failed: invalid_input
//  4. page count exceeds the page ceiling     → skipped: limit_exceeded
//  5. no extractable text layer               → skipped: image_only_pdf
//
// Checks 1-2 are stat-only (PreScreen, run by the dispatch loop); checks 3-5
// open the document (Inspect, run worker-side before conversion). An I/O
// failure inside a check is failed: validation_error, never a silent skip.
// The gate is a pure function of one file's state and safe to run
// concurrently across files.
type Gate struct {
	maxSizeBytes int64
	maxPages     int
	prober       Prober
}

// NewGate builds a gate. Zero limits disable the corresponding check.
func NewGate(maxSizeBytes int64, maxPages int, prober Prober) *Gate {
	return &Gate{maxSizeBytes: maxSizeBytes, maxPages: maxPages, prober: prober}
}

// PreScreen runs the stat-only checks. An empty or zero-byte existing output
// counts as absent, so interrupted prior runs reconvert instead of skipping.
func (g *Gate) PreScreen(job Job) *Decision {
	if fi, err := os.Stat(job.OutputPath); err == nil && fi.Mode().IsRegular() && fi.Size() > 0 {
		return &Decision{Status: StatusSkipped, Reason: ReasonAlreadyDone}
	}
	if g.maxSizeBytes > 0 && job.SizeBytes > g.maxSizeBytes {
		return &Decision{Status: StatusSkipped, Reason: ReasonLimitExceeded}
	}
	return nil
}

// Inspect runs the checks that open the document.
func (g *Gate) Inspect(ctx context.Context, job Job) *Decision {
	if dec := g.checkReadable(job); dec != nil {
		return dec
	}

	info, err := g.prober.Probe(ctx, job.SourcePath)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			return &Decision{Status: StatusFailed, Reason: ReasonInvalidInput, Err: err}
		case errors.Is(err, ErrValidation):
			return &Decision{Status: StatusFailed, Reason: ReasonValidationError, Err: err}
		default:
			return &Decision{
				Status: StatusFailed,
				Reason: ReasonValidationError,
				Err:    fmt.Errorf("%w: probe %s: %v", ErrValidation, job.SourcePath, err),
			}
		}
	}

	if g.maxPages > 0 && info.Pages > g.maxPages {
		return &Decision{Status: StatusSkipped, Reason: ReasonLimitExceeded}
	}
	if !info.HasText {
		return &Decision{Status: StatusSkipped, Reason: ReasonImageOnlyPDF}
	}
	return nil
}

// checkReadable verifies the source opens and carries the PDF magic within
// its first kilobyte.
func (g *Gate) checkReadable(job Job) *Decision {
	if job.SizeBytes == 0 {
		return &Decision{
			Status: StatusFailed,
			Reason: ReasonInvalidInput,
			Err:    fmt.Errorf("%w: empty file: %s", ErrInvalidInput, job.SourcePath),
		}
	}

	f, err := os.Open(job.SourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return &Decision{
				Status: StatusFailed,
				Reason: ReasonInvalidInput,
				Err:    fmt.Errorf("%w: %v", ErrInvalidInput, err),
			}
		}
		return &Decision{
			Status: StatusFailed,
			Reason: ReasonValidationError,
			Err:    fmt.Errorf("%w: open %s: %v", ErrValidation, job.SourcePath, err),
		}
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return &Decision{
			Status: StatusFailed,
			Reason: ReasonValidationError,
			Err:    fmt.Errorf("%w: read %s: %v", ErrValidation, job.SourcePath, err),
		}
	}
	if !bytes.Contains(buf[:n], pdfMagic) {
		return &Decision{
			Status: StatusFailed,
			Reason: ReasonInvalidInput,
			Err:    fmt.Errorf("%w: not a PDF document: %s", ErrInvalidInput, job.SourcePath),
		}
	}
	return nil
}
