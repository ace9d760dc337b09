package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "items.xlsx")
	s, err := Open(path, StoreOptions{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func mustCategory(t *testing.T, s *Store, name string) Category {
	t.Helper()
	c, err := s.CategoryByName(name)
	if err != nil {
		t.Fatalf("CategoryByName(%q) error = %v", name, err)
	}
	return c
}

func TestOpenCreatesDefaultWorkbook(t *testing.T) {
	s := openTestStore(t)

	if diff := cmp.Diff(DefaultCategories, s.Categories()); diff != "" {
		t.Errorf("Categories() mismatch (-want +got):\n%s", diff)
	}
	if len(s.Products()) != 0 {
		t.Errorf("new workbook should have no products, got %d", len(s.Products()))
	}

	f, err := excelize.OpenFile(s.Path())
	if err != nil {
		t.Fatalf("excelize.OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ProductSheet)
	if err != nil {
		t.Fatalf("GetRows(product) error = %v", err)
	}
	if diff := cmp.Diff([]string{"PRODUCT", "PRICE", "TYPE", "PRODUCT_ID"}, rows[0]); diff != "" {
		t.Errorf("product header mismatch (-want +got):\n%s", diff)
	}

	typeRows, err := f.GetRows(CategorySheet)
	if err != nil {
		t.Fatalf("GetRows(type) error = %v", err)
	}
	if len(typeRows) != len(DefaultCategories)+1 {
		t.Errorf("type sheet has %d rows, want %d", len(typeRows), len(DefaultCategories)+1)
	}
	if typeRows[4][0] != "키링" || typeRows[4][1] != "3" {
		t.Errorf("type row 5 = %v, want [키링 3]", typeRows[4])
	}
}

func TestAddProductAssignsIDs(t *testing.T) {
	s := openTestStore(t)
	keyring := mustCategory(t, s, "키링")

	first, err := s.AddProduct(Product{Name: " 곰돌이 키링 ", Price: "3,000", CategoryID: keyring.ID})
	if err != nil {
		t.Fatalf("AddProduct() error = %v", err)
	}
	second, err := s.AddProduct(Product{Name: "토끼 키링", Price: "3500", CategoryID: keyring.ID})
	if err != nil {
		t.Fatalf("AddProduct() error = %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("assigned IDs = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.Name != "곰돌이 키링" {
		t.Errorf("name should be trimmed, got %q", first.Name)
	}
	if first.Code() != "PPON-3000001" {
		t.Errorf("Code() = %q, want PPON-3000001", first.Code())
	}
	if first.Price != "3000" || first.DisplayPrice() != "3,000" {
		t.Errorf("price = %q / %q, want 3000 / 3,000", first.Price, first.DisplayPrice())
	}
	if first.CategoryName != "키링" {
		t.Errorf("CategoryName = %q, want 키링", first.CategoryName)
	}

	// Another category starts its own sequence.
	strap := mustCategory(t, s, "폰스트랩")
	other, err := s.AddProduct(Product{Name: "곰돌이 키링", Price: "2000", CategoryID: strap.ID})
	if err != nil {
		t.Fatalf("AddProduct() in second category error = %v", err)
	}
	if other.ID != 1 || other.Code() != "PPON-0000001" {
		t.Errorf("second category product = %d %q, want 1 PPON-0000001", other.ID, other.Code())
	}

	// Reopening reads the same catalog back.
	reopened, err := Open(s.Path(), StoreOptions{})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if diff := cmp.Diff(s.Products(), reopened.Products()); diff != "" {
		t.Errorf("reopened products mismatch (-want +got):\n%s", diff)
	}
	if len(reopened.Warnings()) != 0 {
		t.Errorf("reopened workbook should load cleanly, got %v", reopened.Warnings())
	}
}

func TestAddProductErrors(t *testing.T) {
	s := openTestStore(t)
	keyring := mustCategory(t, s, "키링")
	if _, err := s.AddProduct(Product{Name: "곰돌이", Price: "1000", CategoryID: keyring.ID, ID: 5}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		product Product
		check   func(error) bool
	}{
		{"duplicate name", Product{Name: "곰돌이", Price: "1000", CategoryID: keyring.ID}, IsConflictError},
		{"duplicate id", Product{Name: "토끼", Price: "1000", CategoryID: keyring.ID, ID: 5}, IsConflictError},
		{"unknown category", Product{Name: "토끼", Price: "1000", CategoryID: 42}, IsNotFoundError},
		{"empty name", Product{Name: "  ", Price: "1000", CategoryID: keyring.ID}, IsValidationError},
		{"bad price", Product{Name: "토끼", Price: "free", CategoryID: keyring.ID}, IsValidationError},
		{"negative price", Product{Name: "토끼", Price: "-5", CategoryID: keyring.ID}, IsValidationError},
		{"id too large", Product{Name: "토끼", Price: "1", CategoryID: keyring.ID, ID: 1000000}, IsValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddProduct(tt.product)
			if err == nil || !tt.check(err) {
				t.Errorf("AddProduct() error = %v, wrong or missing", err)
			}
		})
	}

	if n := len(s.Products()); n != 1 {
		t.Errorf("failed adds should not change the catalog, have %d products", n)
	}
}

func TestCategoryOperations(t *testing.T) {
	s := openTestStore(t)

	added, err := s.AddCategory("스티커", nil)
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if added.ID != 8 {
		t.Errorf("AddCategory() ID = %d, want 8", added.ID)
	}

	if _, err := s.AddCategory("스티커", nil); !IsConflictError(err) {
		t.Errorf("duplicate name error = %v, want conflict", err)
	}
	if _, err := s.AddCategory("뱃지", intPtr(3)); !IsConflictError(err) {
		t.Errorf("duplicate ID error = %v, want conflict", err)
	}
	if _, err := s.AddCategory("뱃지", intPtr(20)); err != nil {
		t.Errorf("AddCategory() with free ID error = %v", err)
	}

	p, err := s.AddProduct(Product{Name: "별 스티커", Price: "500", CategoryID: added.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RenameCategory("스티커", "키링"); !IsConflictError(err) {
		t.Errorf("rename to existing error = %v, want conflict", err)
	}
	if err := s.RenameCategory("스티커", " "); !IsValidationError(err) {
		t.Errorf("rename to empty error = %v, want validation", err)
	}
	if err := s.RenameCategory("없음", "새이름"); !IsNotFoundError(err) {
		t.Errorf("rename missing error = %v, want not found", err)
	}
	if err := s.RenameCategory("스티커", "씰 스티커"); err != nil {
		t.Fatalf("RenameCategory() error = %v", err)
	}

	got, err := s.Product(added.ID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryName != "씰 스티커" {
		t.Errorf("product category after rename = %q, want 씰 스티커", got.CategoryName)
	}

	if err := s.SetCategoryID("씰 스티커", 20); !IsConflictError(err) {
		t.Errorf("SetCategoryID() to used ID error = %v, want conflict", err)
	}
	if err := s.SetCategoryID("씰 스티커", 12); err != nil {
		t.Fatalf("SetCategoryID() error = %v", err)
	}
	moved := s.ProductsInCategory(12)
	if len(moved) != 1 || moved[0].Code() != "PPON-12000001" {
		t.Errorf("products after SetCategoryID = %v, want one with PPON-12000001", moved)
	}

	inUse, err := s.CategoryInUse("씰 스티커")
	if err != nil || !inUse {
		t.Errorf("CategoryInUse() = %v, %v, want true", inUse, err)
	}
	if err := s.DeleteCategory("씰 스티커"); !IsInUseError(err) {
		t.Errorf("delete in-use category error = %v, want in use", err)
	}
	if err := s.DeleteCategory("뱃지"); err != nil {
		t.Errorf("DeleteCategory() error = %v", err)
	}
	if _, err := s.CategoryByName("뱃지"); !IsNotFoundError(err) {
		t.Errorf("deleted category still present: %v", err)
	}

	counts := s.CategoryCounts()
	if counts[12] != 1 || counts[0] != 0 {
		t.Errorf("CategoryCounts() = %v", counts)
	}
}

func TestUpdateProduct(t *testing.T) {
	s := openTestStore(t)
	keyring := mustCategory(t, s, "키링")
	bracelet := mustCategory(t, s, "팔찌")

	a, _ := s.AddProduct(Product{Name: "곰돌이", Price: "1000", CategoryID: keyring.ID})
	b, _ := s.AddProduct(Product{Name: "토끼", Price: "1000", CategoryID: keyring.ID})
	if _, err := s.AddProduct(Product{Name: "진주", Price: "5000", CategoryID: bracelet.ID}); err != nil {
		t.Fatal(err)
	}

	updated, err := s.UpdateProduct(keyring.ID, a.ID, ProductUpdate{Name: strPtr("큰 곰돌이"), Price: strPtr("1,200")})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if updated.Name != "큰 곰돌이" || updated.Price != "1200" || updated.ID != a.ID {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := s.UpdateProduct(keyring.ID, a.ID, ProductUpdate{Name: strPtr("토끼")}); !IsConflictError(err) {
		t.Errorf("rename onto sibling error = %v, want conflict", err)
	}
	if _, err := s.UpdateProduct(keyring.ID, a.ID, ProductUpdate{ID: intPtr(b.ID)}); !IsConflictError(err) {
		t.Errorf("ID onto sibling error = %v, want conflict", err)
	}

	moved, err := s.UpdateProduct(keyring.ID, b.ID, ProductUpdate{CategoryID: intPtr(bracelet.ID)})
	if err != nil {
		t.Fatalf("move category error = %v", err)
	}
	if moved.CategoryID != bracelet.ID || moved.ID != 2 {
		t.Errorf("moved product = %+v, want next free ID 2 in 팔찌", moved)
	}
	if _, err := s.Product(keyring.ID, b.ID); !IsNotFoundError(err) {
		t.Errorf("old identity should be gone, got %v", err)
	}

	if _, err := s.UpdateProduct(keyring.ID, 99, ProductUpdate{Name: strPtr("x")}); !IsNotFoundError(err) {
		t.Errorf("update missing error = %v, want not found", err)
	}
}

func TestFindAndDeleteProduct(t *testing.T) {
	s := openTestStore(t)
	keyring := mustCategory(t, s, "키링")
	p, _ := s.AddProduct(Product{Name: "곰돌이", Price: "1000", CategoryID: keyring.ID})

	found, err := s.FindProduct("곰돌이", "키링")
	if err != nil || found.ID != p.ID {
		t.Fatalf("FindProduct() = %+v, %v", found, err)
	}
	if _, err := s.FindProduct("곰돌이", "팔찌"); !IsNotFoundError(err) {
		t.Errorf("FindProduct() in wrong category error = %v", err)
	}

	if err := s.DeleteProduct(keyring.ID, p.ID); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if err := s.DeleteProduct(keyring.ID, p.ID); !IsNotFoundError(err) {
		t.Errorf("second delete error = %v, want not found", err)
	}
}

func TestUndo(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Undo(); !IsNotFoundError(err) {
		t.Errorf("Undo() on fresh store error = %v, want not found", err)
	}

	keyring := mustCategory(t, s, "키링")
	if _, err := s.AddProduct(Product{Name: "곰돌이", Price: "1000", CategoryID: keyring.ID}); err != nil {
		t.Fatal(err)
	}
	if err := s.RenameCategory("키링", "키체인"); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Undo()
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !strings.Contains(snap.Description, "rename") {
		t.Errorf("undone change = %q, want the rename", snap.Description)
	}
	if _, err := s.CategoryByName("키링"); err != nil {
		t.Errorf("rename should be undone: %v", err)
	}
	if len(s.Products()) != 1 {
		t.Errorf("product add should remain after one undo")
	}

	if _, err := s.Undo(); err != nil {
		t.Fatalf("second Undo() error = %v", err)
	}
	if len(s.Products()) != 0 {
		t.Errorf("product add should be undone")
	}
}

func TestUndoKeepsSnapshotWhenWriteFails(t *testing.T) {
	s := openTestStore(t)
	keyring := mustCategory(t, s, "키링")
	if _, err := s.AddProduct(Product{Name: "곰돌이", Price: "1000", CategoryID: keyring.ID}); err != nil {
		t.Fatal(err)
	}

	// A directory in place of the temporary file makes the restore fail.
	blocker := s.Path() + ".tmp"
	if err := os.Mkdir(blocker, 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Undo(); err == nil {
		t.Fatal("Undo() should fail when the workbook cannot be written")
	}
	if got := s.History().Len(); got != 1 {
		t.Fatalf("history length after failed undo = %d, want 1", got)
	}
	if len(s.Products()) != 1 {
		t.Error("a failed undo should not change the catalog")
	}

	if err := os.Remove(blocker); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("Undo() retry error = %v", err)
	}
	if len(s.Products()) != 0 {
		t.Error("retried undo should remove the product")
	}
	if got := s.History().Len(); got != 0 {
		t.Errorf("history length after undo = %d, want 0", got)
	}
}

func TestUndoAcrossProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.xlsx")
	opts := StoreOptions{HistoryDir: HistoryDirFor(path)}

	first, err := Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.AddCategory("스티커", nil); err != nil {
		t.Fatal(err)
	}

	second, err := Open(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.History().Len() != 1 {
		t.Fatalf("persisted history length = %d, want 1", second.History().Len())
	}
	if _, err := second.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if _, err := second.CategoryByName("스티커"); !IsNotFoundError(err) {
		t.Errorf("category should be gone after undo, got %v", err)
	}
}

func TestBackup(t *testing.T) {
	s := openTestStore(t)

	dest, err := s.Backup("")
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dest), "items.xlsx.backup_") {
		t.Errorf("backup name = %q", dest)
	}

	orig, _ := os.ReadFile(s.Path())
	copied, _ := os.ReadFile(dest)
	if string(orig) != string(copied) {
		t.Error("backup content differs from workbook")
	}

	explicit := filepath.Join(t.TempDir(), "copy.xlsx")
	if got, err := s.Backup(explicit); err != nil || got != explicit {
		t.Errorf("Backup(%q) = %q, %v", explicit, got, err)
	}
}

func TestLoadLegacyWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"PRODUCT", "PRICE", "TYPE"},
		{"곰돌이", 1500, "키링"},
		{"진주", "12,000", 4},
		{"가격없음", "", "키링"},
		{"미지의", 100, "없는분류"},
		{},
		{"토끼", 1000, "키링"},
	}
	for i, row := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", addr, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := Open(path, StoreOptions{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if diff := cmp.Diff(DefaultCategories, s.Categories()); diff != "" {
		t.Errorf("categories should default (-want +got):\n%s", diff)
	}

	var got []string
	for _, p := range s.Products() {
		got = append(got, p.Code()+" "+p.Name)
	}
	want := []string{"PPON-3000001 곰돌이", "PPON-4000001 진주", "PPON-3000002 토끼"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}

	warnings := strings.Join(s.Warnings(), "\n")
	for _, fragment := range []string{"missing, using default categories", "missing name, price or type", "unknown category"} {
		if !strings.Contains(warnings, fragment) {
			t.Errorf("warnings should mention %q, got:\n%s", fragment, warnings)
		}
	}

	// The first write upgrades the file to the current layout.
	if _, err := s.AddCategory("스티커", nil); err != nil {
		t.Fatalf("AddCategory() on legacy workbook error = %v", err)
	}
	reopened, err := Open(path, StoreOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(reopened.Warnings()) != 0 {
		t.Errorf("upgraded workbook should load cleanly, got %v", reopened.Warnings())
	}
	if len(reopened.Products()) != 3 {
		t.Errorf("upgraded workbook has %d products, want 3", len(reopened.Products()))
	}
}
