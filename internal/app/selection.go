package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/labelgen/internal/catalog"
	"github.com/muurk/labelgen/internal/labels"
)

// Selection names one product and how many labels to print for it.
// Category may be a category name or its numeric ID. A zero Quantity means
// the configured default.
type Selection struct {
	Category  string
	ProductID int
	Quantity  int
}

// ParseSelection reads "category:id" or "category:id:quantity". The
// category part may itself contain colons only when a quantity is given.
func ParseSelection(s string) (Selection, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return Selection{}, catalog.NewValidationError("item", fmt.Sprintf("%q must look like category:id[:quantity]", s))
	}

	var sel Selection
	idx := len(parts) - 1
	if len(parts) >= 3 {
		qty, err := strconv.Atoi(parts[idx])
		if err != nil {
			return Selection{}, catalog.NewValidationError("quantity", fmt.Sprintf("invalid quantity %q in %q", parts[idx], s))
		}
		sel.Quantity = qty
		idx--
	}

	id, err := strconv.Atoi(parts[idx])
	if err != nil {
		return Selection{}, catalog.NewValidationError("id", fmt.Sprintf("invalid product ID %q in %q", parts[idx], s))
	}
	sel.ProductID = id
	sel.Category = strings.TrimSpace(strings.Join(parts[:idx], ":"))
	if sel.Category == "" {
		return Selection{}, catalog.NewValidationError("category", fmt.Sprintf("missing category in %q", s))
	}
	return sel, nil
}

// ResolveCategory finds a category by name, falling back to a numeric ID.
func ResolveCategory(store *catalog.Store, ref string) (catalog.Category, error) {
	c, err := store.CategoryByName(ref)
	if err == nil {
		return c, nil
	}
	if id, convErr := strconv.Atoi(ref); convErr == nil {
		return store.CategoryByID(id)
	}
	return catalog.Category{}, err
}

// Requests turns selections into label requests.
func (a *App) Requests(sels []Selection) ([]labels.Request, error) {
	reqs := make([]labels.Request, 0, len(sels))
	for _, sel := range sels {
		cat, err := ResolveCategory(a.Store, sel.Category)
		if err != nil {
			return nil, err
		}
		p, err := a.Store.Product(cat.ID, sel.ProductID)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, labels.Request{Product: p, Quantity: a.quantity(sel.Quantity)})
	}
	return reqs, nil
}

// AllRequests requests qty labels for every product, or only those in
// category when it is not empty.
func (a *App) AllRequests(category string, qty int) ([]labels.Request, error) {
	var products []catalog.Product
	if category == "" {
		products = a.Store.Products()
	} else {
		cat, err := ResolveCategory(a.Store, category)
		if err != nil {
			return nil, err
		}
		products = a.Store.ProductsInCategory(cat.ID)
	}

	reqs := make([]labels.Request, 0, len(products))
	for _, p := range products {
		reqs = append(reqs, labels.Request{Product: p, Quantity: a.quantity(qty)})
	}
	return reqs, nil
}

func (a *App) quantity(q int) int {
	if q > 0 {
		return q
	}
	if d := a.Config.Labels.DefaultQuantity; d > 0 {
		return d
	}
	return 1
}
