// Package catalog is the product and category store behind the label
// generator.
//
// The catalog lives in an xlsx workbook with two sheets:
//
//	product: PRODUCT | PRICE | TYPE | PRODUCT_ID
//	type:    TYPE    | TYPE_ID
//
// The TYPE column of the product sheet holds a category ID, so renaming a
// category never touches product rows. A product's identity is the pair
// (category ID, product ID), which is also what its label code encodes.
//
// # Usage Example
//
//	store, err := catalog.Open("data/items.xlsx", catalog.StoreOptions{})
//	if err != nil {
//	    return err
//	}
//	keyring, _ := store.CategoryByName("키링")
//	p, err := store.AddProduct(catalog.Product{
//	    Name:       "곰돌이 키링",
//	    Price:      "3,000",
//	    CategoryID: keyring.ID,
//	})
//	fmt.Println(p.Code()) // PPON-3000001
//
// # Consistency
//
// Every mutation works on a copy of the in-memory state, is written to a
// temporary file and renamed over the workbook, and only then replaces the
// in-memory state. A failed write leaves both untouched. The workbook bytes
// from before each mutation are kept in a History for Undo.
//
// Rows that cannot be interpreted on load (missing fields, unknown category,
// duplicate IDs) are skipped or given a fresh ID and reported by Warnings.
package catalog
