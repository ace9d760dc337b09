// Package files manages the workspace directory: where templates and the
// product workbook are looked up and where generated documents are written.
//
// A workspace has three subdirectories:
//
//	templates/  label sheet templates (.docx)
//	data/       the product workbook
//	output/     generated label documents
//
// Names are resolved against the matching subdirectory first, then the
// workspace itself, then its parent, so a workbook sitting next to the
// program keeps working without being moved.
package files
