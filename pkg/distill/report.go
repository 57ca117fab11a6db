package distill

import (
	"sync"
	"time"
)

// JobResult is the terminal outcome of one job. Produced by the dispatch
// loop (gate skips) or a worker, consumed exactly once by the collector.
type JobResult struct {
	Job      Job
	Status   Status
	Reason   Reason
	Duration time.Duration

	// Extraction metrics, populated for converted files.
	Pages         int
	PagesWithText int
	Characters    int

	// Err carries failure detail. It never aborts the run; only discovery
	// and option validation are fatal.
	Err error
}

// FailureDetail is one failed file as recorded in the summary.
type FailureDetail struct {
	SourcePath string `json:"source_path"`
	Reason     Reason `json:"reason"`
	Error      string `json:"error,omitempty"`
}

// RunSummary aggregates every JobResult of one run. Counts are commutative
// sums, so arrival order never changes the outcome. Invariant:
// Converted + Skipped + Failed == TotalDiscovered, including aborted runs,
// where undispatched jobs are recorded as skipped: not_attempted.
type RunSummary struct {
	RunID           string          `json:"run_id"`
	InputPath       string          `json:"input_path"`
	TotalDiscovered int             `json:"total_discovered"`
	Converted       int             `json:"converted"`
	Skipped         int             `json:"skipped"`
	Failed          int             `json:"failed"`
	SkippedByReason map[Reason]int  `json:"skipped_by_reason,omitempty"`
	FailedByReason  map[Reason]int  `json:"failed_by_reason,omitempty"`
	BytesProcessed  int64           `json:"bytes_processed"`
	PagesTotal      int64           `json:"pages_total"`
	Characters      int64           `json:"characters_extracted"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	DurationMS      int64           `json:"duration_ms"`
	Aborted         bool            `json:"aborted"`
	Failures        []FailureDetail `json:"failures,omitempty"`
}

// Complete reports whether every discovered file reached a terminal state.
func (s *RunSummary) Complete() bool {
	return s.Converted+s.Skipped+s.Failed == s.TotalDiscovered
}

// NotAttempted counts jobs never dispatched because the run stopped first.
func (s *RunSummary) NotAttempted() int {
	return s.SkippedByReason[ReasonNotAttempted]
}

// ExitCode maps the summary onto the process exit code. Skips are never
// failures; fail-fast aborting the run with its final job does not count as
// pending work undone.
func (s *RunSummary) ExitCode() int {
	switch {
	case s.Aborted && s.NotAttempted() > 0:
		return ExitAborted
	case s.Failed > 0:
		return ExitFailures
	default:
		return ExitOK
	}
}

// TopFailures returns up to n failures in arrival order.
func (s *RunSummary) TopFailures(n int) []FailureDetail {
	if n <= 0 || n >= len(s.Failures) {
		return s.Failures
	}
	return s.Failures[:n]
}

// aggregator folds JobResults into a RunSummary. Only the collector
// goroutine writes; the mutex covers the finalize read and keeps the
// single-writer discipline honest.
type aggregator struct {
	mu      sync.Mutex
	summary RunSummary
}

func newAggregator(runID, inputPath string, total int, start time.Time) *aggregator {
	return &aggregator{summary: RunSummary{
		RunID:           runID,
		InputPath:       inputPath,
		TotalDiscovered: total,
		StartTime:       start,
		SkippedByReason: make(map[Reason]int),
		FailedByReason:  make(map[Reason]int),
	}}
}

func (a *aggregator) add(res JobResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch res.Status {
	case StatusConverted:
		a.summary.Converted++
		a.summary.BytesProcessed += res.Job.SizeBytes
		a.summary.PagesTotal += int64(res.Pages)
		a.summary.Characters += int64(res.Characters)
	case StatusSkipped:
		a.summary.Skipped++
		a.summary.SkippedByReason[res.Reason]++
	case StatusFailed:
		a.summary.Failed++
		a.summary.FailedByReason[res.Reason]++
		fd := FailureDetail{SourcePath: res.Job.SourcePath, Reason: res.Reason}
		if res.Err != nil {
			fd.Error = res.Err.Error()
		}
		a.summary.Failures = append(a.summary.Failures, fd)
	}
}

func (a *aggregator) markAborted() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.Aborted = true
}

func (a *aggregator) finalize(end time.Time) RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summary.EndTime = end
	a.summary.DurationMS = end.Sub(a.summary.StartTime).Milliseconds()
	return a.summary
}
