// Package barcode maps products to label codes and renders them as Code128
// symbols.
//
// A label code is "PPON-" followed by the category ID and the product ID
// zero-padded to six digits:
//
//	code, _ := barcode.Number(3, 12) // "PPON-3000012"
//
// Renderer turns a code into a PNG sized for print: module width, bar height
// and quiet zone are given in millimetres and converted at the configured
// DPI. The human-readable code is drawn under the bars with the Go font.
package barcode
