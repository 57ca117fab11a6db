package distill

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docshelf/pdfdistill/pkg/distill/language"
)

// MarkdownOptions tunes .md serialization.
type MarkdownOptions struct {
	// AddYAMLHeader prepends a fenced YAML front-matter block describing
	// the source document.
	AddYAMLHeader bool
}

// TextOptions tunes .txt serialization.
type TextOptions struct {
	// TableDelimiter joins flattened markdown table cells. Defaults to a
	// tab character.
	TableDelimiter string
}

// Options configures one run. NewEngine copies the struct; the copy is the
// immutable RunConfig of that run and is never mutated after Run starts.
type Options struct {
	// InputPath is the file or directory to process. Required.
	InputPath string
	// Pattern filters directory candidates by base name. Ignored for
	// single-file input. Defaults to DefaultPattern.
	Pattern string
	// Recursive walks the whole tree instead of only the top level.
	Recursive bool

	// OutputRoot is the directory converted output is placed under,
	// namespaced by language. Defaults to DefaultOutputRoot.
	OutputRoot string
	// OutputExt selects txt or md output.
	OutputExt OutputExt
	// Language overrides folder-convention detection when non-empty.
	Language language.Language
	// Backend is an opaque identifier forwarded to the converter.
	Backend string

	// Workers is the pool size, bounded MinWorkers..MaxWorkers.
	Workers int
	// FailFast stops dispatching new jobs after the first failed result.
	FailFast bool

	// Per-file limits enforced by the gate and the timeout supervisor.
	MaxFileSizeMB  int
	MaxPages       int
	TimeoutPerFile time.Duration

	// Serialization options for converted content.
	Markdown MarkdownOptions
	Text     TextOptions

	// Converter performs the actual extraction. Required.
	Converter Converter
	// Prober answers the gate's metadata questions. Required.
	Prober Prober

	// Hooks receives lifecycle callbacks. Defaults to NoOpHooks.
	Hooks Hooks

	// Logger receives diagnostic records. Defaults to a discard handler.
	Logger slog.Handler
	// EventLog receives one structured record per JobResult plus the
	// final summary record. Defaults to a discard handler.
	EventLog slog.Handler
}

func (o *Options) setDefaults() {
	if o.Pattern == "" {
		o.Pattern = DefaultPattern
	}
	if o.OutputRoot == "" {
		o.OutputRoot = DefaultOutputRoot
	}
	if o.OutputExt == "" {
		o.OutputExt = OutputText
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxFileSizeMB == 0 {
		o.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if o.MaxPages == 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.TimeoutPerFile == 0 {
		o.TimeoutPerFile = DefaultTimeoutPerFileSec * time.Second
	}
	if o.Text.TableDelimiter == "" {
		o.Text.TableDelimiter = DefaultTableDelimiter
	}
	if o.Hooks == nil {
		o.Hooks = NoOpHooks{}
	}
	if o.Logger == nil {
		o.Logger = slog.NewTextHandler(io.Discard, nil)
	}
	if o.EventLog == nil {
		o.EventLog = slog.NewJSONHandler(io.Discard, nil)
	}
}

func (o *Options) validate() error {
	if o.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidOptions)
	}
	if o.Workers < MinWorkers || o.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between %d and %d, got %d",
			ErrInvalidOptions, MinWorkers, MaxWorkers, o.Workers)
	}
	if !o.OutputExt.IsValid() {
		return fmt.Errorf("%w: unsupported output extension %q", ErrInvalidOptions, o.OutputExt)
	}
	if o.Language != "" && !o.Language.IsValid() {
		return fmt.Errorf("%w: unsupported language override %q", ErrInvalidOptions, o.Language)
	}
	if o.MaxFileSizeMB < 0 {
		return fmt.Errorf("%w: max file size must be positive, got %d", ErrInvalidOptions, o.MaxFileSizeMB)
	}
	if o.MaxPages < 0 {
		return fmt.Errorf("%w: max pages must be positive, got %d", ErrInvalidOptions, o.MaxPages)
	}
	if o.TimeoutPerFile < 0 {
		return fmt.Errorf("%w: per-file timeout must be positive, got %s", ErrInvalidOptions, o.TimeoutPerFile)
	}
	if o.Converter == nil {
		return fmt.Errorf("%w: a Converter is required", ErrInvalidOptions)
	}
	if o.Prober == nil {
		return fmt.Errorf("%w: a Prober is required", ErrInvalidOptions)
	}
	return nil
}

// maxFileSizeBytes converts the configured megabyte limit.
func (o *Options) maxFileSizeBytes() int64 {
	return int64(o.MaxFileSizeMB) * 1024 * 1024
}
