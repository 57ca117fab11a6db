package distill

import (
	"context"

	"github.com/docshelf/pdfdistill/pkg/distill/language"
)

// Status is the terminal classification of a processed file.
type Status string

// Job statuses. Transitions are monotonic: pending → running → converted or
// failed, or pending → skipped. A status never regresses.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Reason is the enumerated explanation attached to skipped and failed
// results. Free-text detail travels in JobResult.Err, never here.
type Reason string

const (
	// ReasonNone marks results that need no explanation (converted).
	ReasonNone Reason = ""
	// ReasonAlreadyDone marks files whose non-empty output already exists.
	ReasonAlreadyDone Reason = "already_done"
	// ReasonLimitExceeded marks files over the size or page ceiling.
	ReasonLimitExceeded Reason = "limit_exceeded"
	// ReasonImageOnlyPDF marks documents with no extractable text layer.
	ReasonImageOnlyPDF Reason = "image_only_pdf"
	// ReasonInvalidInput marks unreadable or structurally invalid sources.
	ReasonInvalidInput Reason = "invalid_input"
	// ReasonValidationError marks pre-flight checks that failed on I/O.
	ReasonValidationError Reason = "validation_error"
	// ReasonTimeout marks conversions abandoned at the per-file deadline.
	ReasonTimeout Reason = "timeout"
	// ReasonConversionError marks converter failures.
	ReasonConversionError Reason = "conversion_error"
	// ReasonWriteError marks outputs that could not be written atomically.
	ReasonWriteError Reason = "write_error"
	// ReasonNotAttempted marks jobs never dispatched because fail-fast or
	// cancellation stopped the run first.
	ReasonNotAttempted Reason = "not_attempted"
)

// OutputExt selects the serialization of converted content.
type OutputExt string

const (
	OutputText     OutputExt = "txt"
	OutputMarkdown OutputExt = "md"
)

// IsValid reports whether e is a supported output extension.
func (e OutputExt) IsValid() bool {
	return e == OutputText || e == OutputMarkdown
}

// ConvertRequest describes one document handed to a Converter.
type ConvertRequest struct {
	SourcePath string
	Language   language.Language
	// Backend is an opaque identifier forwarded to the converter.
	Backend string
}

// ConvertResult is the converter's view of one extracted document. Content
// is markdown-flavoured text; the orchestrator owns serialization and
// output writing.
type ConvertResult struct {
	Content       string
	Pages         int
	PagesWithText int
	Characters    int
}

// Converter turns one source document into extracted text. Implementations
// must be safe for concurrent use and must not write any output themselves.
// Errors should wrap ErrConversion; context cancellation must be honored
// promptly so abandoned calls do not pin resources.
type Converter interface {
	Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, req ConvertRequest) (*ConvertResult, error)

func (f ConverterFunc) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	return f(ctx, req)
}

// ProbeInfo is the cheap metadata view of a document used by the gate.
type ProbeInfo struct {
	Pages   int
	HasText bool
}

// Prober answers the gate's pre-flight questions without running a full
// extraction. Probe errors wrap ErrInvalidInput for malformed documents and
// ErrValidation for I/O failures.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeInfo, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, path string) (*ProbeInfo, error)

func (f ProberFunc) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	return f(ctx, path)
}
