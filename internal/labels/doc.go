// Package labels lays barcode labels out on a Word (.docx) template.
//
// A template is any .docx whose body starts with a table; each cell of the
// first table is one label slot. For every page the table is copied and
// each cell is replaced by a centred barcode picture followed by the
// product name and price. Pages are either written as separate files or
// joined into one document with page breaks between the tables.
//
// Typical use:
//
//	tpl, err := labels.LoadTemplate("templates/3677.docx")
//	if err != nil {
//		return err
//	}
//	gen := labels.NewGenerator(tpl, renderer, labels.DefaultOptions())
//	result, err := gen.Generate(ctx, requests, func(e labels.Event) {
//		fmt.Printf("%3.0f%% %s\n", e.Percent, e.Message)
//	})
//
// The package edits the document XML by byte offset rather than through a
// full object model, so anything the template contains outside the label
// table (headers, styles, section settings) is carried over untouched.
package labels
