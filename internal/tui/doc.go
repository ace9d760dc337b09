// Package tui implements the interactive terminal interface of labelgen.
//
// The TUI is the operator's day-to-day view: pick products, set how many
// labels each needs and generate the documents, without remembering any
// command flags. It is built on Bubble Tea and follows the Elm
// architecture, with one model per screen and AppModel routing messages
// between them.
//
// # Screens
//
//   - Products: the catalog in a table; space selects, +/- change the
//     quantity, tab cycles the category filter, m and p toggle merge and
//     fill-page, g generates
//   - Categories: IDs, names and product counts; enter filters the
//     product list
//   - Generate: step progress while barcodes are rendered and pages are
//     written, then the result
//   - Logs: the in-memory log journal with a level filter
//   - Stations: label stations found with mDNS, with a health check
//
// Every screen renders through RenderApplicationContainer, which draws the
// header, the screen's help footer and the outer border.
//
// # Usage
//
//	a, err := app.New(reg, app.Overrides{})
//	if err != nil {
//		return err
//	}
//	return tui.Run(ctx, a, tui.Options{WatchWorkbook: true})
//
// With WatchWorkbook set, saving the workbook from a spreadsheet
// application reloads the product list in place, keeping the current
// selection for products that still exist.
package tui
