package catalog

import (
	"fmt"
	"strings"
)

func (st *state) categoryByName(name string) (Category, error) {
	name = strings.TrimSpace(name)
	for _, c := range st.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, NewNotFoundError(fmt.Sprintf("category %q not found", name))
}

func (st *state) categoryByID(id int) (Category, error) {
	for _, c := range st.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return Category{}, NewNotFoundError(fmt.Sprintf("category ID %d not found", id))
}

func (st *state) countInCategory(id int) int {
	n := 0
	for _, p := range st.products {
		if p.CategoryID == id {
			n++
		}
	}
	return n
}

func (st *state) resolve(p Product) Product {
	if c, err := st.categoryByID(p.CategoryID); err == nil {
		p.CategoryName = c.Name
	}
	return p
}

func (st *state) addCategory(name string, id *int) (Category, error) {
	if err := ValidateCategoryName(name); err != nil {
		return Category{}, err
	}
	name = strings.TrimSpace(name)
	if _, err := st.categoryByName(name); err == nil {
		return Category{}, NewConflictError("name", fmt.Sprintf("category %q already exists", name))
	}

	newID := nextCategoryID(st.categories)
	if id != nil {
		newID = *id
	}
	if err := ValidateCategoryID(newID); err != nil {
		return Category{}, err
	}
	if existing, err := st.categoryByID(newID); err == nil {
		return Category{}, NewConflictError("category_id",
			fmt.Sprintf("category ID %d is already used by %q", newID, existing.Name))
	}

	c := Category{ID: newID, Name: name}
	st.categories = append(st.categories, c)
	return c, nil
}

func (st *state) renameCategory(oldName, newName string) error {
	if err := ValidateCategoryName(newName); err != nil {
		return err
	}
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)

	c, err := st.categoryByName(oldName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, err := st.categoryByName(newName); err == nil {
		return NewConflictError("name", fmt.Sprintf("category %q already exists", newName))
	}

	for i := range st.categories {
		if st.categories[i].ID == c.ID {
			st.categories[i].Name = newName
		}
	}
	return nil
}

func (st *state) setCategoryID(name string, newID int) error {
	if err := ValidateCategoryID(newID); err != nil {
		return err
	}
	c, err := st.categoryByName(name)
	if err != nil {
		return err
	}
	if c.ID == newID {
		return nil
	}
	if existing, err := st.categoryByID(newID); err == nil {
		return NewConflictError("category_id",
			fmt.Sprintf("category ID %d is already used by %q", newID, existing.Name))
	}

	for i := range st.categories {
		if st.categories[i].ID == c.ID {
			st.categories[i].ID = newID
		}
	}
	for i := range st.products {
		if st.products[i].CategoryID == c.ID {
			st.products[i].CategoryID = newID
		}
	}
	return nil
}

func (st *state) deleteCategory(name string) error {
	c, err := st.categoryByName(name)
	if err != nil {
		return err
	}
	if n := st.countInCategory(c.ID); n > 0 {
		return NewInUseError(fmt.Sprintf("category %q has %d product(s)", c.Name, n))
	}

	kept := st.categories[:0]
	for _, existing := range st.categories {
		if existing.ID != c.ID {
			kept = append(kept, existing)
		}
	}
	st.categories = kept
	return nil
}

func (st *state) productIndex(categoryID, productID int) (int, error) {
	for i, p := range st.products {
		if p.CategoryID == categoryID && p.ID == productID {
			return i, nil
		}
	}
	return -1, NewNotFoundError(fmt.Sprintf("product %d/%d not found", categoryID, productID))
}

// checkProduct validates p and its uniqueness against every product except
// the one at skip.
func (st *state) checkProduct(p Product, skip int) error {
	_, critical := SeparateWarningsAndErrors(ValidateProduct(p))
	if len(critical) > 0 {
		return critical[0]
	}
	if _, err := st.categoryByID(p.CategoryID); err != nil {
		return err
	}

	for i, other := range st.products {
		if i == skip || other.CategoryID != p.CategoryID {
			continue
		}
		if other.Name == p.Name {
			return NewConflictError("name", fmt.Sprintf("product %q already exists in this category", p.Name))
		}
		if p.ID != 0 && other.ID == p.ID {
			return NewConflictError("id", fmt.Sprintf("product ID %d is already used by %q", p.ID, other.Name))
		}
	}
	return nil
}

func (st *state) addProduct(p Product) (Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.CategoryName = ""
	if err := st.checkProduct(p, -1); err != nil {
		return Product{}, err
	}

	price, err := NormalizePrice(p.Price)
	if err != nil {
		return Product{}, err
	}
	p.Price = price

	if p.ID == 0 {
		p.ID = nextProductID(st.products, p.CategoryID)
		if err := ValidateProductID(p.ID); err != nil {
			return Product{}, err
		}
	}

	st.products = append(st.products, p)
	return st.resolve(p), nil
}

func (st *state) updateProduct(categoryID, productID int, u ProductUpdate) (Product, error) {
	i, err := st.productIndex(categoryID, productID)
	if err != nil {
		return Product{}, err
	}
	if u.IsEmpty() {
		return st.resolve(st.products[i]), nil
	}

	p := st.products[i]
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
	if u.ID != nil {
		p.ID = *u.ID
		if err := ValidateProductID(p.ID); err != nil {
			return Product{}, err
		}
	} else if p.CategoryID != categoryID {
		// Moving categories without an explicit ID takes the next free one.
		p.ID = 0
	}

	if err := st.checkProduct(p, i); err != nil {
		return Product{}, err
	}
	if u.Price != nil {
		price, err := NormalizePrice(p.Price)
		if err != nil {
			return Product{}, err
		}
		p.Price = price
	}
	if p.ID == 0 {
		p.ID = nextProductID(st.products, p.CategoryID)
	}

	st.products[i] = p
	return st.resolve(p), nil
}

func (st *state) deleteProduct(categoryID, productID int) error {
	i, err := st.productIndex(categoryID, productID)
	if err != nil {
		return err
	}
	st.products = append(st.products[:i], st.products[i+1:]...)
	return nil
}
