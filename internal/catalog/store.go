package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/labelgen/internal/logging"
)

// Store is the product and category catalog backed by an xlsx workbook.
// Reads are served from memory; every mutation is validated, written to
// disk atomically and recorded for undo. It is safe for concurrent use.
type Store struct {
	path    string
	log     *zap.Logger
	history *History

	mu        sync.RWMutex
	st        *state
	warnings  []string
	lastWrite time.Time
}

// StoreOptions tunes Open.
type StoreOptions struct {
	// HistoryDir persists undo snapshots; empty keeps them in memory.
	HistoryDir string
	// HistorySize bounds the undo depth (default 10).
	HistorySize int
}

// HistoryDirFor returns the conventional snapshot directory for a workbook.
func HistoryDirFor(path string) string {
	return filepath.Join(filepath.Dir(path), ".history", filepath.Base(path))
}

// Open loads the workbook at path, creating it with the default categories
// when it does not exist.
func Open(path string, opts StoreOptions) (*Store, error) {
	s := &Store{
		path: path,
		log:  logging.Named("catalog"),
	}

	if opts.HistoryDir != "" {
		h, err := OpenHistory(opts.HistoryDir, opts.HistorySize)
		if err != nil {
			return nil, err
		}
		s.history = h
	} else {
		s.history = NewHistory(opts.HistorySize)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		st := &state{categories: append([]Category(nil), DefaultCategories...)}
		if err := writeWorkbookFile(path, st); err != nil {
			return nil, err
		}
		s.log.Info("Created workbook", zap.String("path", path))
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the workbook path.
func (s *Store) Path() string {
	return s.path
}

// History returns the undo history.
func (s *Store) History() *History {
	return s.history
}

// Reload re-reads the workbook from disk, replacing in-memory state.
func (s *Store) Reload() error {
	st, warnings, err := readWorkbookFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.st = st
	s.warnings = warnings
	s.mu.Unlock()

	for _, w := range warnings {
		s.log.Warn("Workbook row skipped or repaired", zap.String("detail", w))
	}
	s.log.Debug("Workbook loaded",
		zap.String("path", s.path),
		zap.Int("categories", len(st.categories)),
		zap.Int("products", len(st.products)),
	)
	return nil
}

// Warnings returns problems found during the last load.
func (s *Store) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.warnings...)
}

// mutate applies fn to a copy of the state, writes it, and swaps it in.
// Nothing changes in memory or on disk if fn or the write fails.
func (s *Store) mutate(description string, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	next.sortCategories()

	prev, err := os.ReadFile(s.path)
	if err != nil {
		return NewWorkbookError("failed to read workbook", err)
	}
	if err := writeWorkbookFile(s.path, next); err != nil {
		return err
	}
	if err := s.history.Push(prev, description); err != nil {
		s.log.Warn("Undo snapshot not saved", zap.Error(err))
	}

	s.st = next
	s.lastWrite = time.Now()
	s.log.Info("Workbook updated", zap.String("change", description))
	return nil
}

// Undo restores the workbook to its state before the last mutation and
// returns the snapshot that was applied.
func (s *Store) Undo() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The snapshot stays in the history until the workbook is restored.
	snap, err := s.history.Peek()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, NewNotFoundError("nothing to undo")
	}

	if err := writeFileAtomic(s.path, snap.Data); err != nil {
		return nil, err
	}
	st, warnings, err := readWorkbookFile(s.path)
	if err != nil {
		return nil, err
	}
	s.history.Discard(snap)
	s.st = st
	s.warnings = warnings
	s.lastWrite = time.Now()

	s.log.Info("Workbook change undone", zap.String("change", snap.Description))
	return snap, nil
}

// Backup copies the workbook to dest. An empty dest writes
// <workbook>.backup_YYYYMMDD_HHMMSS next to it. Returns the path written.
func (s *Store) Backup(dest string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if dest == "" {
		dest = s.path + ".backup_" + time.Now().Format("20060102_150405")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", NewWorkbookError("failed to read workbook", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", NewWorkbookError("failed to write backup", err)
	}

	s.log.Info("Workbook backed up", zap.String("dest", dest))
	return dest, nil
}

// ---- categories ----

// Categories returns all categories ordered by ID.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.st.categories...)
}

// CategoryByName looks up a category by its trimmed name.
func (s *Store) CategoryByName(name string) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.categoryByName(name)
}

// CategoryByID looks up a category by ID.
func (s *Store) CategoryByID(id int) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.categoryByID(id)
}

// AddCategory adds a category. A nil id assigns max(ID)+1.
func (s *Store) AddCategory(name string, id *int) (Category, error) {
	var added Category
	err := s.mutate("add category "+strings.TrimSpace(name), func(st *state) error {
		var err error
		added, err = st.addCategory(name, id)
		return err
	})
	return added, err
}

// RenameCategory renames a category. Products follow automatically because
// they reference the category by ID.
func (s *Store) RenameCategory(oldName, newName string) error {
	return s.mutate(fmt.Sprintf("rename category %s to %s", oldName, newName), func(st *state) error {
		return st.renameCategory(oldName, newName)
	})
}

// SetCategoryID moves a category to a new ID and rewrites the category ID
// of its products. Their label codes change accordingly.
func (s *Store) SetCategoryID(name string, newID int) error {
	return s.mutate(fmt.Sprintf("set category %s ID to %d", name, newID), func(st *state) error {
		return st.setCategoryID(name, newID)
	})
}

// DeleteCategory removes a category that no product references.
func (s *Store) DeleteCategory(name string) error {
	return s.mutate("delete category "+name, func(st *state) error {
		return st.deleteCategory(name)
	})
}

// CategoryInUse reports whether any product references the named category.
func (s *Store) CategoryInUse(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.st.categoryByName(name)
	if err != nil {
		return false, err
	}
	return s.st.countInCategory(c.ID) > 0, nil
}

// CategoryCounts returns the number of products per category ID.
func (s *Store) CategoryCounts() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int]int, len(s.st.categories))
	for _, c := range s.st.categories {
		counts[c.ID] = 0
	}
	for _, p := range s.st.products {
		counts[p.CategoryID]++
	}
	return counts
}

// ---- products ----

// Products returns every product with its category name resolved.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.st.products))
	for i, p := range s.st.products {
		out[i] = s.st.resolve(p)
	}
	return out
}

// ProductsInCategory returns the products of one category in sheet order.
func (s *Store) ProductsInCategory(categoryID int) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.st.products {
		if p.CategoryID == categoryID {
			out = append(out, s.st.resolve(p))
		}
	}
	return out
}

// Product looks up a product by its label identity.
func (s *Store) Product(categoryID, productID int) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.st.productIndex(categoryID, productID)
	if err != nil {
		return Product{}, err
	}
	return s.st.resolve(s.st.products[i]), nil
}

// FindProduct looks up a product by name within a named category.
func (s *Store) FindProduct(name, categoryName string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.st.categoryByName(categoryName)
	if err != nil {
		return Product{}, err
	}
	name = strings.TrimSpace(name)
	for _, p := range s.st.products {
		if p.CategoryID == c.ID && p.Name == name {
			return s.st.resolve(p), nil
		}
	}
	return Product{}, NewNotFoundError(fmt.Sprintf("product %q not found in %s", name, c.Name))
}

// AddProduct appends a product. ID 0 assigns the next free ID in the
// category. Returns the stored product.
func (s *Store) AddProduct(p Product) (Product, error) {
	var added Product
	err := s.mutate("add product "+strings.TrimSpace(p.Name), func(st *state) error {
		var err error
		added, err = st.addProduct(p)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return added, nil
}

// UpdateProduct changes the fields set in u on the product identified by
// (categoryID, productID). Returns the updated product.
func (s *Store) UpdateProduct(categoryID, productID int, u ProductUpdate) (Product, error) {
	var updated Product
	err := s.mutate(fmt.Sprintf("update product %d/%d", categoryID, productID), func(st *state) error {
		var err error
		updated, err = st.updateProduct(categoryID, productID, u)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes the product identified by (categoryID, productID).
func (s *Store) DeleteProduct(categoryID, productID int) error {
	return s.mutate(fmt.Sprintf("delete product %d/%d", categoryID, productID), func(st *state) error {
		return st.deleteProduct(categoryID, productID)
	})
}
