// Package distill orchestrates batch PDF-to-text conversion runs: it
// discovers candidate files, applies skip/validation policy, dispatches
// conversion across a bounded worker pool under per-file limits, collects
// every outcome exactly once, and finalizes a run summary whose accounting
// is exact even under concurrent, partially-failing execution.
package distill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/docshelf/pdfdistill/pkg/distill/language"
	"github.com/docshelf/pdfdistill/pkg/distill/serialize"
)

// Engine runs one batch conversion. Engines are single-use: create with
// NewEngine, call Run once.
type Engine struct {
	opts   Options
	log    *slog.Logger
	events *slog.Logger
	gate   *Gate

	runID string
	agg   *aggregator

	// failFast is armed by whichever goroutine creates the first failed
	// result, before that result is even collected, so no queued job can
	// slip into running behind it.
	failFast     atomic.Bool
	stopDispatch chan struct{}
	stopOnce     sync.Once
}

// NewEngine validates opts and builds an engine. The options struct is
// copied; it is the immutable RunConfig of the run.
func NewEngine(opts Options) (*Engine, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		opts:         opts,
		log:          slog.New(opts.Logger),
		events:       slog.New(opts.EventLog),
		gate:         NewGate(opts.maxFileSizeBytes(), opts.MaxPages, opts.Prober),
		stopDispatch: make(chan struct{}),
	}, nil
}

// Run executes the pipeline: discover, gate, convert, collect, summarize.
// The returned error is non-nil only for discovery failures, which abort
// before any job runs. Everything else is per-file and lands in the summary.
// Cancelling ctx stops dispatch like fail-fast; in-flight conversions are
// left to settle.
func (e *Engine) Run(ctx context.Context) (*RunSummary, error) {
	e.runID = uuid.NewString()
	start := time.Now()

	paths, err := Discover(e.opts.InputPath, e.opts.Pattern, e.opts.Recursive)
	if err != nil {
		e.log.Error("discovery failed", "input", e.opts.InputPath, "error", err)
		return nil, err
	}
	e.log.Info("discovery complete",
		"run_id", e.runID,
		"input", e.opts.InputPath,
		"files", len(paths),
		"workers", e.opts.Workers,
		"fail_fast", e.opts.FailFast,
	)

	e.agg = newAggregator(e.runID, e.opts.InputPath, len(paths), start)
	e.fireRunStart(len(paths))
	for _, p := range paths {
		e.fireDiscovered(p)
	}

	jobs := make(chan Job, e.opts.Workers*jobQueueFactor)
	results := make(chan JobResult, e.opts.Workers*resultQueueFactor)

	collectorDone := make(chan struct{})
	go e.collect(results, collectorDone)

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, jobs, results)
		}()
	}

	e.dispatch(ctx, paths, jobs, results)
	close(jobs)
	wg.Wait()
	close(results)
	<-collectorDone

	if ctx.Err() != nil {
		e.agg.markAborted()
	}
	summary := e.agg.finalize(time.Now())
	if !summary.Complete() {
		e.log.Error("accounting mismatch",
			"total_discovered", summary.TotalDiscovered,
			"converted", summary.Converted,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
	}
	e.logSummary(summary)
	e.fireRunComplete(summary)
	e.log.Info("run complete",
		"run_id", e.runID,
		"converted", summary.Converted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration_ms", summary.DurationMS,
	)
	return &summary, nil
}

// dispatch feeds jobs in discovery order. Stat-only gate checks run here so
// oversize and already-done files never reach the pool; everything dropped
// on the floor by fail-fast or cancellation is still accounted, as
// skipped: not_attempted.
func (e *Engine) dispatch(ctx context.Context, paths []string, jobs chan<- Job, results chan<- JobResult) {
	for i, path := range paths {
		if e.failFast.Load() || ctx.Err() != nil {
			e.emit(results, JobResult{
				Job:    Job{SourcePath: path, OutputExt: e.opts.OutputExt, Index: i},
				Status: StatusSkipped,
				Reason: ReasonNotAttempted,
			})
			continue
		}

		job, dec := e.buildJob(path, i)
		if dec == nil {
			dec = e.gate.PreScreen(job)
		}
		if dec != nil {
			e.emit(results, JobResult{Job: job, Status: dec.Status, Reason: dec.Reason, Err: dec.Err})
			continue
		}

		select {
		case jobs <- job:
		case <-e.stopDispatch:
			e.emit(results, JobResult{Job: job, Status: StatusSkipped, Reason: ReasonNotAttempted})
		case <-ctx.Done():
			e.emit(results, JobResult{Job: job, Status: StatusSkipped, Reason: ReasonNotAttempted})
		}
	}
}

// buildJob resolves the per-file options a descriptor needs. A nil Decision
// means the job is viable.
func (e *Engine) buildJob(path string, index int) (Job, *Decision) {
	job := Job{SourcePath: path, OutputExt: e.opts.OutputExt, Index: index}

	lang, ok := language.Resolve(e.opts.Language, path)
	if !ok {
		return job, &Decision{
			Status: StatusFailed,
			Reason: ReasonInvalidInput,
			Err:    fmt.Errorf("%w: cannot resolve language from %s, pass an explicit override", ErrInvalidInput, path),
		}
	}
	job.Language = lang
	job.OutputPath = OutputPathFor(e.opts.OutputRoot, path, lang, e.opts.OutputExt)

	fi, err := os.Stat(path)
	if err != nil {
		return job, &Decision{
			Status: StatusFailed,
			Reason: ReasonValidationError,
			Err:    fmt.Errorf("%w: stat %s: %v", ErrValidation, path, err),
		}
	}
	job.SizeBytes = fi.Size()
	return job, nil
}

func (e *Engine) worker(ctx context.Context, jobs <-chan Job, results chan<- JobResult) {
	for job := range jobs {
		if e.failFast.Load() || ctx.Err() != nil {
			e.emit(results, JobResult{Job: job, Status: StatusSkipped, Reason: ReasonNotAttempted})
			continue
		}
		e.emit(results, e.process(ctx, job))
	}
}

// process runs the open-file gate checks and the conversion for one job.
func (e *Engine) process(ctx context.Context, job Job) (res JobResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("worker panic recovered", "file", job.SourcePath, "panic", r)
			res = JobResult{
				Job:      job,
				Status:   StatusFailed,
				Reason:   ReasonConversionError,
				Err:      fmt.Errorf("%w: panic: %v", ErrConversion, r),
				Duration: time.Since(start),
			}
		}
	}()

	e.log.Debug("converting", "file", job.SourcePath, "language", job.Language)

	if dec := e.gate.Inspect(ctx, job); dec != nil {
		return JobResult{Job: job, Status: dec.Status, Reason: dec.Reason, Err: dec.Err, Duration: time.Since(start)}
	}

	cctx, cancel := context.WithTimeout(ctx, e.opts.TimeoutPerFile)
	defer cancel()

	type outcome struct {
		res *ConvertResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: converter panic: %v", ErrConversion, r)}
			}
		}()
		cr, cerr := e.opts.Converter.Convert(cctx, ConvertRequest{
			SourcePath: job.SourcePath,
			Language:   job.Language,
			Backend:    e.opts.Backend,
		})
		done <- outcome{res: cr, err: cerr}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-cctx.Done():
		// Abandon the courier; the buffered channel keeps it from leaking
		// and its late result is discarded, never promoted to output.
		return e.deadlineResult(ctx, job, start)
	}

	if out.err != nil {
		return e.convertErrorResult(ctx, job, out.err, start)
	}

	// Late-discovered image-only document: the probe saw a text layer but
	// extraction produced nothing.
	if strings.TrimSpace(out.res.Content) == "" {
		return JobResult{Job: job, Status: StatusSkipped, Reason: ReasonImageOnlyPDF, Pages: out.res.Pages, Duration: time.Since(start)}
	}

	body, err := e.render(job, out.res)
	if err != nil {
		return JobResult{
			Job:      job,
			Status:   StatusFailed,
			Reason:   ReasonConversionError,
			Err:      fmt.Errorf("%w: render: %v", ErrConversion, err),
			Duration: time.Since(start),
		}
	}
	if err := WriteFileAtomic(job.OutputPath, []byte(body), 0o644); err != nil {
		return JobResult{Job: job, Status: StatusFailed, Reason: ReasonWriteError, Err: err, Duration: time.Since(start)}
	}

	return JobResult{
		Job:           job,
		Status:        StatusConverted,
		Pages:         out.res.Pages,
		PagesWithText: out.res.PagesWithText,
		Characters:    out.res.Characters,
		Duration:      time.Since(start),
	}
}

func (e *Engine) deadlineResult(ctx context.Context, job Job, start time.Time) JobResult {
	if ctx.Err() != nil {
		return JobResult{
			Job:      job,
			Status:   StatusFailed,
			Reason:   ReasonConversionError,
			Err:      fmt.Errorf("%w: run canceled", ErrConversion),
			Duration: time.Since(start),
		}
	}
	return JobResult{
		Job:      job,
		Status:   StatusFailed,
		Reason:   ReasonTimeout,
		Err:      fmt.Errorf("%w: after %s", ErrTimeout, e.opts.TimeoutPerFile),
		Duration: time.Since(start),
	}
}

func (e *Engine) convertErrorResult(ctx context.Context, job Job, cerr error, start time.Time) JobResult {
	switch {
	case errors.Is(cerr, context.DeadlineExceeded):
		return e.deadlineResult(ctx, job, start)
	case errors.Is(cerr, context.Canceled):
		return JobResult{
			Job:      job,
			Status:   StatusFailed,
			Reason:   ReasonConversionError,
			Err:      fmt.Errorf("%w: run canceled", ErrConversion),
			Duration: time.Since(start),
		}
	}
	if !errors.Is(cerr, ErrConversion) {
		cerr = fmt.Errorf("%w: %v", ErrConversion, cerr)
	}
	return JobResult{Job: job, Status: StatusFailed, Reason: ReasonConversionError, Err: cerr, Duration: time.Since(start)}
}

func (e *Engine) render(job Job, res *ConvertResult) (string, error) {
	switch job.OutputExt {
	case OutputMarkdown:
		var fm *serialize.FrontMatter
		if e.opts.Markdown.AddYAMLHeader {
			fm = &serialize.FrontMatter{
				Source:      job.SourcePath,
				Language:    job.Language.String(),
				Pages:       res.Pages,
				Characters:  res.Characters,
				ConvertedAt: time.Now().UTC(),
			}
		}
		return serialize.RenderMarkdown(res.Content, fm)
	default:
		return serialize.RenderText(res.Content, e.opts.Text.TableDelimiter), nil
	}
}

// emit forwards a result to the collector, arming fail-fast first when the
// result is a failure.
func (e *Engine) emit(results chan<- JobResult, res JobResult) {
	if res.Status == StatusFailed && e.opts.FailFast {
		e.triggerStop()
	}
	results <- res
}

func (e *Engine) triggerStop() {
	e.failFast.Store(true)
	e.stopOnce.Do(func() { close(e.stopDispatch) })
}

// collect is the single consumer of results: it owns all counter updates,
// emits one event-log record per result, and relays status to the hooks.
func (e *Engine) collect(results <-chan JobResult, done chan<- struct{}) {
	defer close(done)
	for res := range results {
		e.agg.add(res)
		if res.Status == StatusFailed && e.opts.FailFast {
			e.agg.markAborted()
		}
		e.logResult(res)
		e.fireStatusUpdate(res)
	}
}

func (e *Engine) logResult(res JobResult) {
	attrs := []any{
		"run_id", e.runID,
		"source_path", res.Job.SourcePath,
		"language", res.Job.Language.String(),
		"status", string(res.Status),
		"duration_ms", res.Duration.Milliseconds(),
		"file_size_bytes", res.Job.SizeBytes,
	}
	if res.Reason != ReasonNone {
		attrs = append(attrs, "reason", string(res.Reason))
	}

	switch res.Status {
	case StatusConverted:
		attrs = append(attrs,
			"output_path", res.Job.OutputPath,
			"pages_total", res.Pages,
			"pages_with_text", res.PagesWithText,
			"char_count", res.Characters,
		)
		e.events.Info("converted", attrs...)
		e.log.Debug("file converted", "file", res.Job.SourcePath, "output", res.Job.OutputPath)
	case StatusSkipped:
		e.events.Info("skipped", attrs...)
		e.log.Debug("file skipped", "file", res.Job.SourcePath, "reason", string(res.Reason))
	case StatusFailed:
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		attrs = append(attrs, "error", errMsg)
		e.events.Error("failed", attrs...)
		e.log.Warn("file failed", "file", res.Job.SourcePath, "reason", string(res.Reason), "error", errMsg)
	}
}

func (e *Engine) logSummary(s RunSummary) {
	e.events.Info("run summary",
		"run_id", s.RunID,
		"input_path", s.InputPath,
		"total_discovered", s.TotalDiscovered,
		"converted", s.Converted,
		"skipped", s.Skipped,
		"failed", s.Failed,
		"skipped_by_reason", s.SkippedByReason,
		"failed_by_reason", s.FailedByReason,
		"bytes_processed", s.BytesProcessed,
		"pages_total", s.PagesTotal,
		"characters_extracted", s.Characters,
		"duration_ms", s.DurationMS,
		"aborted", s.Aborted,
	)
}

func (e *Engine) fireRunStart(total int) {
	if err := e.opts.Hooks.OnRunStart(e.runID, total); err != nil {
		e.log.Debug("hook error", "hook", "OnRunStart", "error", err)
	}
}

func (e *Engine) fireDiscovered(path string) {
	if err := e.opts.Hooks.OnFileDiscovered(path); err != nil {
		e.log.Debug("hook error", "hook", "OnFileDiscovered", "error", err)
	}
}

func (e *Engine) fireStatusUpdate(res JobResult) {
	if err := e.opts.Hooks.OnFileStatusUpdate(res.Job.SourcePath, res.Status, res.Reason, res.Duration); err != nil {
		e.log.Debug("hook error", "hook", "OnFileStatusUpdate", "error", err)
	}
}

func (e *Engine) fireRunComplete(summary RunSummary) {
	if err := e.opts.Hooks.OnRunComplete(summary); err != nil {
		e.log.Debug("hook error", "hook", "OnRunComplete", "error", err)
	}
}
