// Package ui provides terminal UI components for the labelgen CLI.
//
// The components render with Lipgloss and follow a "run once and exit"
// pattern: they print polished output but never wait for input, except
// Confirm. The interactive application lives in the tui package.
//
//   - Header: command banner with the operation name and parameters
//   - Progress: progress bar and step list
//   - Result: success, failure and warning boxes
//   - Listing: titled box of lines (generated files, log tails)
//   - RenderTable: bordered tables for catalog listings
//
// Runner ties them together for multi-step commands:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//		Title:     "Label Generation",
//		Command:   "labelgen generate",
//		Params:    []ui.Detail{{Key: "Template", Value: "3677.docx"}},
//		StepNames: []string{"Barcode numbers", "Barcode images", "Layout", "Write"},
//	})
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
//		onStep(1, ui.StepRunning, "")
//		// ... do work ...
//		onStep(1, ui.StepComplete, "40 codes")
//		return []ui.Detail{{Key: "Files", Value: "3"}}, nil
//	})
//
// Console logging is silent unless LABELGEN_LOG_LEVEL is set, so these
// components own stdout.
package ui
