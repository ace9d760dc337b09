package catalog

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the product
func (p Product) Summary() string {
	return fmt.Sprintf("%s  %s / %s  %s", p.Code(), categoryLabel(p), p.Name, p.DisplayPrice())
}

// FormatDetailed returns every field of the product
func (p Product) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Product ===\n")
	b.WriteString(fmt.Sprintf("Name:        %s\n", p.Name))
	b.WriteString(fmt.Sprintf("Price:       %s (stored: %s)\n", p.DisplayPrice(), p.Price))
	b.WriteString(fmt.Sprintf("Category:    %s (ID %d)\n", categoryLabel(p), p.CategoryID))
	b.WriteString(fmt.Sprintf("Product ID:  %d\n", p.ID))
	b.WriteString(fmt.Sprintf("Barcode:     %s\n", p.Code()))

	return b.String()
}

// FormatProductsCompact lists products one per line.
func FormatProductsCompact(products []Product) string {
	if len(products) == 0 {
		return "No products.\n"
	}
	var b strings.Builder
	for _, p := range products {
		b.WriteString(p.Summary())
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCategoriesCompact lists categories with their product counts.
func FormatCategoriesCompact(cats []Category, counts map[int]int) string {
	if len(cats) == 0 {
		return "No categories.\n"
	}
	var b strings.Builder
	for _, c := range cats {
		b.WriteString(fmt.Sprintf("%3d  %s (%d)\n", c.ID, c.Name, counts[c.ID]))
	}
	return b.String()
}

// FormatCatalogDetailed renders the whole catalog grouped by category.
func FormatCatalogDetailed(cats []Category, products []Product) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                       PRODUCT CATALOG                          ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n")

	byCategory := make(map[int][]Product)
	for _, p := range products {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	for _, c := range cats {
		items := byCategory[c.ID]
		b.WriteString(fmt.Sprintf("\n=== %s (ID %d, %d product(s)) ===\n", c.Name, c.ID, len(items)))
		if len(items) == 0 {
			b.WriteString("  (empty)\n")
			continue
		}
		for _, p := range items {
			b.WriteString(fmt.Sprintf("  %-14s %s  %s\n", p.Code(), p.Name, p.DisplayPrice()))
		}
	}

	b.WriteString(fmt.Sprintf("\nTotal: %d product(s) in %d categor%s\n", len(products), len(cats), plural(len(cats), "y", "ies")))
	return b.String()
}

func categoryLabel(p Product) string {
	if p.CategoryName != "" {
		return p.CategoryName
	}
	return fmt.Sprintf("#%d", p.CategoryID)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
