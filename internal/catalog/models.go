package catalog

import (
	"github.com/muurk/labelgen/internal/barcode"
)

// Sheet and column names of the workbook layout.
const (
	ProductSheet  = "product"
	CategorySheet = "type"

	ColProduct   = "PRODUCT"
	ColPrice     = "PRICE"
	ColType      = "TYPE"
	ColProductID = "PRODUCT_ID"
	ColTypeID    = "TYPE_ID"
)

// Category is a named product grouping with a stable numeric ID.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Product is one row of the product sheet.
type Product struct {
	ID           int    `json:"id"`            // Sequence within the category, 1-999999
	Name         string `json:"name"`          // Display name printed on the label
	Price        string `json:"price"`         // As entered; see ParsePrice
	CategoryID   int    `json:"category_id"`   // References Category.ID
	CategoryName string `json:"category_name"` // Resolved on read, never stored
}

// Code returns the product's label code.
func (p Product) Code() string {
	code, err := barcode.Number(p.CategoryID, p.ID)
	if err != nil {
		return ""
	}
	return code
}

// DisplayPrice returns the price rounded with thousands separators,
// or the raw text when it does not parse.
func (p Product) DisplayPrice() string {
	v, err := ParsePrice(p.Price)
	if err != nil {
		return p.Price
	}
	return FormatPrice(v)
}

// ProductUpdate carries the fields to change; nil fields are left alone.
type ProductUpdate struct {
	Name       *string `json:"name,omitempty"`
	Price      *string `json:"price,omitempty"`
	CategoryID *int    `json:"category_id,omitempty"`
	ID         *int    `json:"id,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Price == nil && u.CategoryID == nil && u.ID == nil
}

// DefaultCategories seeds a new workbook.
var DefaultCategories = []Category{
	{ID: 0, Name: "폰스트랩"},
	{ID: 1, Name: "리본 키링"},
	{ID: 2, Name: "미니 키링"},
	{ID: 3, Name: "키링"},
	{ID: 4, Name: "팔찌"},
	{ID: 5, Name: "꽃갈피"},
	{ID: 6, Name: "모양"},
	{ID: 7, Name: "부착"},
}
