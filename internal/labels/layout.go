package labels

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/muurk/labelgen/internal/catalog"
)

// Request asks for Quantity labels of one product.
type Request struct {
	Product  catalog.Product
	Quantity int
}

// Item is the content of a single label cell.
type Item struct {
	Name     string
	Price    string // display form, without currency suffix
	Category string
	Code     string
}

// Page is one filled copy of the template table.
type Page struct {
	Index int    // 1-based position in the run
	Name  string // product name the page starts with
	Items []Item
}

// Codes returns the distinct barcode codes of items, in first-seen order.
func Codes(items []Item) []string {
	seen := make(map[string]bool, len(items))
	var codes []string
	for _, it := range items {
		if !seen[it.Code] {
			seen[it.Code] = true
			codes = append(codes, it.Code)
		}
	}
	return codes
}

// Expand turns requests into one Item per label, in request order.
func Expand(reqs []Request) ([]Item, error) {
	var items []Item
	for i, r := range reqs {
		if err := catalog.ValidateQuantity(r.Quantity); err != nil {
			return nil, fmt.Errorf("request %d (%s): %w", i+1, r.Product.Name, err)
		}
		code := r.Product.Code()
		if code == "" {
			return nil, fmt.Errorf("request %d (%s): %w", i+1, r.Product.Name,
				catalog.NewValidationError("id", fmt.Sprintf("cannot build a barcode from category %d, product %d",
					r.Product.CategoryID, r.Product.ID)))
		}
		item := Item{
			Name:     r.Product.Name,
			Price:    r.Product.DisplayPrice(),
			Category: r.Product.CategoryName,
			Code:     code,
		}
		for n := 0; n < r.Quantity; n++ {
			items = append(items, item)
		}
	}
	return items, nil
}

// Paginate packs items onto pages of the given capacity. A page is closed
// when it is full or when the next item belongs to a different product, so
// every page carries labels of a single product.
func Paginate(items []Item, capacity int) ([]Page, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("page capacity must be positive, got %d", capacity)
	}

	var pages []Page
	var cur *Page
	for _, it := range items {
		if cur == nil || len(cur.Items) == capacity || cur.Items[0].Code != it.Code {
			pages = append(pages, Page{Index: len(pages) + 1, Name: it.Name})
			cur = &pages[len(pages)-1]
		}
		cur.Items = append(cur.Items, it)
	}
	return pages, nil
}

// SafeFileName reduces name to letters, digits, spaces, '-' and '_' so it
// can be used as a file name on any platform.
func SafeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(b.String())
	if safe == "" {
		return "label"
	}
	return safe
}

// PageFileNames returns one output file name per page. Pages sharing a
// product name get _2, _3... suffixes.
func PageFileNames(pages []Page) []string {
	names := make([]string, len(pages))
	used := make(map[string]int, len(pages))
	for i, p := range pages {
		base := SafeFileName(p.Name) + "_label"
		used[base]++
		if n := used[base]; n > 1 {
			names[i] = fmt.Sprintf("%s_%d.docx", base, n)
		} else {
			names[i] = base + ".docx"
		}
	}
	return names
}

// FormatPlan describes how labels will be laid out without writing files.
func FormatPlan(pages []Page, capacity int) string {
	var b strings.Builder

	total := 0
	for _, p := range pages {
		total += len(p.Items)
	}

	b.WriteString("=== Label Plan ===\n")
	b.WriteString(fmt.Sprintf("Labels:   %d\n", total))
	b.WriteString(fmt.Sprintf("Pages:    %d (%d labels per page)\n", len(pages), capacity))
	b.WriteString("\n")

	names := PageFileNames(pages)
	for i, p := range pages {
		code := ""
		if len(p.Items) > 0 {
			code = p.Items[0].Code
		}
		b.WriteString(fmt.Sprintf("  %3d. %-24s %-14s %3d/%d  → %s\n",
			p.Index, p.Name, code, len(p.Items), capacity, names[i]))
	}

	return b.String()
}
