package distill

// Defaults applied by Options.Validate when a field is zero.
const (
	// DefaultMaxFileSizeMB is the per-file source size ceiling.
	DefaultMaxFileSizeMB = 10
	// DefaultMaxPages is the per-document page ceiling.
	DefaultMaxPages = 500
	// DefaultTimeoutPerFileSec bounds one conversion wall-clock.
	DefaultTimeoutPerFileSec = 120
	// DefaultWorkers is the pool size when none is configured.
	DefaultWorkers = 4
	// DefaultPattern selects candidate files during discovery.
	DefaultPattern = "*.pdf"
	// DefaultOutputRoot is the directory outputs are placed under,
	// namespaced by language.
	DefaultOutputRoot = "data/result"
	// DefaultTableDelimiter joins flattened table cells in text output.
	DefaultTableDelimiter = "\t"
)

// Worker pool bounds.
const (
	MinWorkers = 1
	MaxWorkers = 16
)

// Channel sizing factors relative to the worker count. The results queue is
// deeper than the job queue so workers rarely block on a slow collector.
const (
	jobQueueFactor    = 2
	resultQueueFactor = 4
)

// Process exit codes.
const (
	// ExitOK means every discovered file converted or was skipped.
	ExitOK = 0
	// ExitFailures means the run completed but at least one file failed.
	ExitFailures = 1
	// ExitAborted means fail-fast stopped the run with work still undone.
	ExitAborted = 2
)

// DefaultTopFailures caps the failure list shown in rendered summaries.
const DefaultTopFailures = 10

const sourceExt = ".pdf"
