package app

import (
	"github.com/muurk/labelgen/internal/labels"
	"github.com/muurk/labelgen/internal/ui"
)

// GenerationSteps names the steps shown while labels are generated, in
// stage order.
var GenerationSteps = []string{
	"Assign barcode numbers",
	"Render barcodes",
	"Lay out pages",
	"Write documents",
}

// StepFor returns the 1-based step of a generator stage, or 0 for
// StageDone.
func StepFor(stage labels.Stage) int {
	switch stage {
	case labels.StageCodes:
		return 1
	case labels.StageBarcodes:
		return 2
	case labels.StageLayout:
		return 3
	case labels.StageWrite:
		return 4
	default:
		return 0
	}
}

// StepReporter turns generator events into step updates. A step is
// completed, keeping its last message, when the next stage starts.
func StepReporter(onStep ui.StepCallback) labels.ProgressFunc {
	current := 0
	last := ""
	return func(ev labels.Event) {
		step := StepFor(ev.Stage)
		if step != current && current > 0 {
			onStep(current, ui.StepComplete, last)
		}
		if step == 0 {
			current = 0
			return
		}
		current = step
		last = ev.Message
		onStep(step, ui.StepRunning, ev.Message)
	}
}
