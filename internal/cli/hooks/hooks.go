// Package hooks bridges engine lifecycle events to the CLI's presentation
// layer.
package hooks

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/docshelf/pdfdistill/pkg/distill"
)

// Messages forwarded to the Bubble Tea program.

// RunStartMsg announces the run identity and how many files were discovered.
type RunStartMsg struct {
	RunID string
	Total int
}

// FileDiscoveredMsg signals one discovered candidate file.
type FileDiscoveredMsg struct{ Path string }

// FileStatusMsg signals a file reaching its terminal status.
type FileStatusMsg struct {
	Path     string
	Status   distill.Status
	Reason   distill.Reason
	Duration time.Duration
}

// RunCompleteMsg carries the finalized summary.
type RunCompleteMsg struct{ Summary distill.RunSummary }

// TUIProgram is the slice of tea.Program the hooks need.
type TUIProgram interface {
	Send(msg any)
}

// ProgressBar is the slice of progressbar.ProgressBar the hooks need.
type ProgressBar interface {
	Add(num int) error
	Describe(description string)
	ChangeMax(newMax int)
	Close() error
}

// CLIHooks implements distill.Hooks. Exactly one of the TUI program or the
// progress bar is active per run; with neither, terminal failures still reach
// the console logger.
type CLIHooks struct {
	logger  *slog.Logger
	program TUIProgram
	bar     ProgressBar

	// mu serializes progress bar updates, which arrive from the collector
	// goroutine while Close may come from the main one.
	mu sync.Mutex
}

// NewCLIHooks builds the bridge. program and bar may be nil.
func NewCLIHooks(logger *slog.Logger, program TUIProgram, bar ProgressBar) *CLIHooks {
	return &CLIHooks{logger: logger, program: program, bar: bar}
}

func (h *CLIHooks) OnRunStart(runID string, totalFiles int) error {
	if h.program != nil {
		h.program.Send(RunStartMsg{RunID: runID, Total: totalFiles})
		return nil
	}
	if h.bar != nil {
		h.mu.Lock()
		h.bar.ChangeMax(totalFiles)
		h.bar.Describe(fmt.Sprintf("converting %d files", totalFiles))
		h.mu.Unlock()
	}
	h.logger.Info("run started", "run_id", runID, "files", totalFiles)
	return nil
}

func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.program != nil {
		h.program.Send(FileDiscoveredMsg{Path: path})
		return nil
	}
	h.logger.Debug("discovered", "path", path)
	return nil
}

func (h *CLIHooks) OnFileStatusUpdate(path string, status distill.Status, reason distill.Reason, duration time.Duration) error {
	if h.program != nil {
		h.program.Send(FileStatusMsg{Path: path, Status: status, Reason: reason, Duration: duration})
		return nil
	}

	if h.bar != nil {
		h.mu.Lock()
		_ = h.bar.Add(1)
		h.mu.Unlock()
	}

	switch status {
	case distill.StatusFailed:
		h.logger.Error("file failed", "path", path, "reason", string(reason))
	case distill.StatusSkipped:
		h.logger.Debug("file skipped", "path", path, "reason", string(reason))
	default:
		h.logger.Debug("file converted", "path", path, "duration", duration)
	}
	return nil
}

func (h *CLIHooks) OnRunComplete(summary distill.RunSummary) error {
	if h.program != nil {
		h.program.Send(RunCompleteMsg{Summary: summary})
		return nil
	}
	if h.bar != nil {
		h.mu.Lock()
		_ = h.bar.Close()
		h.mu.Unlock()
		// Keep the shell prompt off the bar's final line.
		_, _ = fmt.Fprintln(os.Stderr)
	}
	return nil
}
