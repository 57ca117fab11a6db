package distill

import "time"

// Hooks receives engine lifecycle callbacks. Implementations drive progress
// UIs or metrics without coupling the engine to any presentation layer.
// Callbacks may run on engine goroutines and must return quickly; errors are
// logged at debug level and never affect the run.
type Hooks interface {
	// OnRunStart fires once after discovery, before any job runs.
	OnRunStart(runID string, totalFiles int) error
	// OnFileDiscovered fires once per candidate, in discovery order.
	OnFileDiscovered(path string) error
	// OnFileStatusUpdate fires once per terminal JobResult, in arrival
	// order.
	OnFileStatusUpdate(path string, status Status, reason Reason, duration time.Duration) error
	// OnRunComplete fires once with the finalized summary.
	OnRunComplete(summary RunSummary) error
}

// NoOpHooks satisfies Hooks with no behavior.
type NoOpHooks struct{}

func (NoOpHooks) OnRunStart(string, int) error { return nil }

func (NoOpHooks) OnFileDiscovered(string) error { return nil }

func (NoOpHooks) OnFileStatusUpdate(string, Status, Reason, time.Duration) error { return nil }

func (NoOpHooks) OnRunComplete(RunSummary) error { return nil }
