package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a multi-step command.
type RunnerConfig struct {
	Title     string   // Command title (e.g., "Label Generation")
	Command   string   // Full command (e.g., "labelgen generate")
	Params    []Detail // Parameters to display in header
	StepNames []string // Names for each step
	Output    io.Writer
	// Troubleshooting is shown when the operation fails and the error
	// carries no hint of its own.
	Troubleshooting []string
	// Hint extracts a troubleshooting hint from an error; may be nil.
	Hint func(error) string
}

// Runner orchestrates the header, progress, result flow of a command and
// hands the operation a callback for reporting progress.
type Runner struct {
	config   RunnerConfig
	progress *Progress
	output   io.Writer
	width    int
	live     bool
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	var p *Progress
	if len(config.StepNames) > 0 {
		p = NewProgress("", config.StepNames...).SetWidth(width)
	}

	return &Runner{
		config:   config,
		progress: p,
		output:   config.Output,
		width:    width,
		live:     config.Output == os.Stdout && IsTerminal(),
	}
}

// Operation is the work a Runner executes. It reports progress through
// onStep and returns the details shown in the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Detail, error)

// Run prints the header, executes op, then prints the result box.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.output, NewHeader(r.config.Title, r.config.Command, r.config.Params...).SetWidth(r.width).Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(ctx, r.stepCallback())
	duration := time.Since(start).Round(time.Millisecond)
	_, _ = fmt.Fprintln(r.output)

	if err != nil {
		tips := r.config.Troubleshooting
		if r.config.Hint != nil {
			if hint := HintLines(r.config.Hint(err)); len(hint) > 0 {
				tips = hint
			}
		}
		_, _ = fmt.Fprintln(r.output, NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width).Render())
		return err
	}

	details = append(details, Detail{Key: "Duration", Value: duration.String()})
	_, _ = fmt.Fprintln(r.output, NewSuccessResult(r.config.Title+" complete", details...).SetWidth(r.width).Render())
	return nil
}

// Progress returns the step tracker, or nil when no steps were configured.
func (r *Runner) Progress() *Progress {
	return r.progress
}

func (r *Runner) stepCallback() StepCallback {
	return func(stepNumber int, status StepStatus, message string) {
		if r.progress == nil || stepNumber < 1 || stepNumber > len(r.progress.Steps) {
			return
		}
		r.progress.UpdateStep(stepNumber, status, message)
		line := r.progress.RenderStepLine(r.progress.Steps[stepNumber-1])

		switch {
		case status.Finished() && r.live:
			_, _ = fmt.Fprintln(r.output, "\r"+line+"\033[K")
		case status.Finished():
			_, _ = fmt.Fprintln(r.output, line)
		case status == StepRunning && r.live:
			// Overwritten in place when the step finishes
			_, _ = fmt.Fprint(r.output, "\r"+line+"\033[K")
		}
	}
}
