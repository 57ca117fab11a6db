// Package cli wires the resolved settings to the conversion engine and owns
// everything the library does not: console logging, the event log file, the
// progress display, and the final summary.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/docshelf/pdfdistill/internal/cli/config"
	"github.com/docshelf/pdfdistill/internal/cli/hooks"
	"github.com/docshelf/pdfdistill/internal/cli/ui"
	"github.com/docshelf/pdfdistill/pkg/distill"
	"github.com/docshelf/pdfdistill/pkg/distill/pdfconv"
)

// Run executes one conversion run for the given settings and prints the
// summary to stdout. The returned summary is non-nil whenever the run got far
// enough to produce one; the error covers setup and discovery failures.
func Run(ctx context.Context, s *config.Settings, version string) (*distill.RunSummary, error) {
	consoleLevel := s.LogLevel
	if s.Quiet {
		consoleLevel = slog.LevelError
	}
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: consoleLevel})
	logger := slog.New(console)

	converter, prober, err := pdfconv.Resolve(s.Backend)
	if err != nil {
		return nil, err
	}

	eventLogPath := s.LogFile
	if eventLogPath == "" {
		eventLogPath = filepath.Join("logs", "run-"+time.Now().Format("20060102_150405")+".log")
	}
	if dir := filepath.Dir(eventLogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	eventFile, err := os.OpenFile(eventLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer eventFile.Close()

	opts := s.EngineOptions()
	opts.Converter = converter
	opts.Prober = prober
	opts.Logger = console
	opts.EventLog = slog.NewJSONHandler(eventFile, nil)

	var (
		program *tea.Program
		tuiProg hooks.TUIProgram
		bar     hooks.ProgressBar
	)
	switch {
	case s.Progress && term.IsTerminal(int(os.Stdout.Fd())):
		model := ui.NewModel(version)
		program = tea.NewProgram(&model)
		tuiProg = program
	case s.Progress:
		bar = progressbar.NewOptions(0,
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}
	opts.Hooks = hooks.NewCLIHooks(logger, tuiProg, bar)

	engine, err := distill.NewEngine(opts)
	if err != nil {
		return nil, err
	}

	var summary *distill.RunSummary
	if program != nil {
		summary, err = runWithTUI(ctx, engine, program)
	} else {
		summary, err = engine.Run(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := PrintSummary(os.Stdout, summary, s.SummaryFormat, eventLogPath); err != nil {
		return summary, err
	}
	return summary, nil
}

// runWithTUI drives the engine in the background while the terminal view
// runs in the foreground. Quitting the view cancels the run; the engine then
// accounts everything undispatched as not attempted and still returns its
// summary.
func runWithTUI(ctx context.Context, engine *distill.Engine, program *tea.Program) (*distill.RunSummary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		summary *distill.RunSummary
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = engine.Run(runCtx)
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return summary, fmt.Errorf("terminal ui: %w", err)
	}
	cancel()
	<-done
	return summary, runErr
}

// PrintSummary renders the run summary in the requested format.
func PrintSummary(w io.Writer, s *distill.RunSummary, format, eventLogPath string) error {
	if format == config.SummaryJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	banner := "============================================================"
	fmt.Fprintln(w)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "PROCESSING SUMMARY")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Total files discovered: %d\n", s.TotalDiscovered)
	fmt.Fprintf(w, "Successfully converted: %d\n", s.Converted)
	fmt.Fprintf(w, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Total time: %.2f seconds\n", float64(s.DurationMS)/1000)
	if s.Converted > 0 {
		fmt.Fprintf(w, "Pages extracted: %d, characters: %d\n", s.PagesTotal, s.Characters)
	}
	if s.Aborted {
		fmt.Fprintln(w, "Run aborted before all files were attempted.")
	}

	if len(s.SkippedByReason) > 0 {
		fmt.Fprintln(w, "\nSkip reasons:")
		writeReasonCounts(w, s.SkippedByReason)
	}
	if len(s.FailedByReason) > 0 {
		fmt.Fprintln(w, "\nError reasons:")
		writeReasonCounts(w, s.FailedByReason)
	}
	if failures := s.TopFailures(distill.DefaultTopFailures); len(failures) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, f := range failures {
			fmt.Fprintf(w, "  %s: %s (%s)\n", f.SourcePath, f.Reason, f.Error)
		}
	}

	fmt.Fprintf(w, "\nLog file: %s\n", eventLogPath)
	fmt.Fprintln(w, banner)
	return nil
}

func writeReasonCounts(w io.Writer, counts map[distill.Reason]int) {
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %s: %d\n", reason, counts[distill.Reason(reason)])
	}
}
