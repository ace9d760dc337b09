package catalog

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// state is the in-memory copy of both sheets.
type state struct {
	categories []Category // sorted by ID
	products   []Product  // sheet order
}

func (s *state) clone() *state {
	return &state{
		categories: append([]Category(nil), s.categories...),
		products:   append([]Product(nil), s.products...),
	}
}

func (s *state) sortCategories() {
	sort.Slice(s.categories, func(i, j int) bool {
		return s.categories[i].ID < s.categories[j].ID
	})
}

var (
	categoryHeader = []string{ColType, ColTypeID}
	productHeader  = []string{ColProduct, ColPrice, ColType, ColProductID}
)

// readWorkbookFile opens path and parses both sheets.
func readWorkbookFile(path string) (*state, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, NewWorkbookError("failed to open workbook "+path, err)
	}
	defer f.Close()
	return parseWorkbook(f)
}

// parseWorkbook reads categories then products. Problems that only affect a
// single row are returned as warnings and the row is skipped or repaired.
func parseWorkbook(f *excelize.File) (*state, []string, error) {
	st := &state{}
	var warnings []string

	cats, catWarnings, err := parseCategories(f)
	if err != nil {
		return nil, nil, err
	}
	st.categories = cats
	warnings = append(warnings, catWarnings...)

	products, prodWarnings, err := parseProducts(f, cats)
	if err != nil {
		return nil, nil, err
	}
	st.products = products
	warnings = append(warnings, prodWarnings...)

	st.sortCategories()
	return st, warnings, nil
}

func parseCategories(f *excelize.File) ([]Category, []string, error) {
	idx, err := f.GetSheetIndex(CategorySheet)
	if err != nil {
		return nil, nil, NewParseError("failed to look up category sheet", err)
	}
	if idx == -1 {
		return append([]Category(nil), DefaultCategories...),
			[]string{"sheet \"" + CategorySheet + "\" missing, using default categories"}, nil
	}

	rows, err := f.GetRows(CategorySheet)
	if err != nil {
		return nil, nil, NewParseError("failed to read category sheet", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	cols := headerIndex(rows[0], categoryHeader)
	var (
		cats     []Category
		pending  []string
		warnings []string
		names    = make(map[string]bool)
		ids      = make(map[int]bool)
	)

	for i, row := range rows[1:] {
		line := i + 2
		name := strings.TrimSpace(cell(row, cols[ColType]))
		if name == "" {
			continue
		}
		if names[name] {
			warnings = append(warnings, fmt.Sprintf("type row %d: duplicate category %q skipped", line, name))
			continue
		}
		names[name] = true

		idText := cell(row, cols[ColTypeID])
		id, ok := parseInt(idText)
		switch {
		case idText == "":
			pending = append(pending, name)
		case !ok || ValidateCategoryID(id) != nil:
			warnings = append(warnings, fmt.Sprintf("type row %d: invalid TYPE_ID %q, assigning a new one", line, idText))
			pending = append(pending, name)
		case ids[id]:
			warnings = append(warnings, fmt.Sprintf("type row %d: TYPE_ID %d already used, assigning a new one", line, id))
			pending = append(pending, name)
		default:
			ids[id] = true
			cats = append(cats, Category{ID: id, Name: name})
		}
	}

	for _, name := range pending {
		id := nextCategoryID(cats)
		cats = append(cats, Category{ID: id, Name: name})
	}
	return cats, warnings, nil
}

// productSheetName returns "product", or the first sheet that is not the
// category sheet for workbooks written by other tools.
func productSheetName(f *excelize.File) string {
	if idx, err := f.GetSheetIndex(ProductSheet); err == nil && idx != -1 {
		return ProductSheet
	}
	for _, name := range f.GetSheetList() {
		if name != CategorySheet {
			return name
		}
	}
	return ""
}

func parseProducts(f *excelize.File, cats []Category) ([]Product, []string, error) {
	sheet := productSheetName(f)
	if sheet == "" {
		return nil, []string{"no product sheet found, starting empty"}, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, NewParseError("failed to read product sheet", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	byID := make(map[int]Category, len(cats))
	byName := make(map[string]Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
		byName[c.Name] = c
	}

	cols := headerIndex(rows[0], productHeader)
	var (
		products []Product
		pending  []int // indexes into products needing an ID
		warnings []string
		taken    = make(map[[2]int]bool)
		named    = make(map[string]bool)
	)

	for i, row := range rows[1:] {
		line := i + 2
		name := strings.TrimSpace(cell(row, cols[ColProduct]))
		price := strings.TrimSpace(cell(row, cols[ColPrice]))
		typ := strings.TrimSpace(cell(row, cols[ColType]))
		if name == "" && price == "" && typ == "" {
			continue
		}
		if name == "" || price == "" || typ == "" {
			warnings = append(warnings, fmt.Sprintf("%s row %d: missing name, price or type, skipped", sheet, line))
			continue
		}

		cat, ok := resolveCategory(typ, byID, byName)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s row %d: unknown category %q, skipped", sheet, line, typ))
			continue
		}
		key := name + "\x00" + strconv.Itoa(cat.ID)
		if named[key] {
			warnings = append(warnings, fmt.Sprintf("%s row %d: duplicate product %q in %s, skipped", sheet, line, name, cat.Name))
			continue
		}
		named[key] = true

		if _, err := ParsePrice(price); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s row %d: %s", sheet, line, GetShortErrorMessage(err)))
		}

		p := Product{Name: name, Price: price, CategoryID: cat.ID}
		idText := cell(row, cols[ColProductID])
		id, ok := parseInt(idText)
		switch {
		case idText == "":
			pending = append(pending, len(products))
		case !ok || ValidateProductID(id) != nil:
			warnings = append(warnings, fmt.Sprintf("%s row %d: invalid PRODUCT_ID %q, assigning a new one", sheet, line, idText))
			pending = append(pending, len(products))
		case taken[[2]int{cat.ID, id}]:
			warnings = append(warnings, fmt.Sprintf("%s row %d: PRODUCT_ID %d already used in %s, assigning a new one", sheet, line, id, cat.Name))
			pending = append(pending, len(products))
		default:
			p.ID = id
			taken[[2]int{cat.ID, id}] = true
		}
		products = append(products, p)
	}

	for _, i := range pending {
		products[i].ID = nextProductID(products, products[i].CategoryID)
	}
	return products, warnings, nil
}

// resolveCategory accepts a numeric TYPE (current layout) or a category
// name (older workbooks stored the name in the TYPE column).
func resolveCategory(typ string, byID map[int]Category, byName map[string]Category) (Category, bool) {
	if id, ok := parseInt(typ); ok {
		c, found := byID[id]
		return c, found
	}
	c, found := byName[typ]
	return c, found
}

// headerIndex maps each wanted column to its position in the header row.
// Columns absent from the header fall back to their position in want.
func headerIndex(header []string, want []string) map[string]int {
	idx := make(map[string]int, len(want))
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(h))
		for _, w := range want {
			if h == w {
				if _, seen := idx[w]; !seen {
					idx[w] = i
				}
			}
		}
	}
	for i, w := range want {
		if _, ok := idx[w]; !ok {
			idx[w] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseInt accepts "12" and the "12.0" some spreadsheet tools write.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func nextCategoryID(cats []Category) int {
	next := 0
	for _, c := range cats {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

func nextProductID(products []Product, categoryID int) int {
	next := 1
	for _, p := range products {
		if p.CategoryID == categoryID && p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// newWorkbook returns an empty workbook with both sheets and their headers.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ProductSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(CategorySheet); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// writeWorkbookFile rewrites both sheets of the workbook at path and replaces
// the file atomically. Other sheets and cell styles in an existing file are
// preserved.
func writeWorkbookFile(path string, st *state) error {
	var (
		f   *excelize.File
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = excelize.OpenFile(path)
	} else {
		f, err = newWorkbook()
	}
	if err != nil {
		return NewWorkbookError("failed to open workbook "+path, err)
	}
	defer f.Close()

	catRows := make([][]interface{}, 0, len(st.categories))
	for _, c := range st.categories {
		catRows = append(catRows, []interface{}{c.Name, c.ID})
	}
	prodRows := make([][]interface{}, 0, len(st.products))
	for _, p := range st.products {
		prodRows = append(prodRows, []interface{}{p.Name, priceCell(p.Price), p.CategoryID, p.ID})
	}

	if err := rewriteSheet(f, productSheetName(f), productHeader, prodRows, []float64{28, 12, 8, 12}); err != nil {
		return NewWorkbookError("failed to write product sheet", err)
	}
	if err := rewriteSheet(f, CategorySheet, categoryHeader, catRows, []float64{20, 10}); err != nil {
		return NewWorkbookError("failed to write category sheet", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return NewWorkbookError("failed to serialize workbook", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// priceCell writes numeric prices as numbers so spreadsheet formulas work.
func priceCell(price string) interface{} {
	if v, err := ParsePrice(price); err == nil {
		return v
	}
	return price
}

func rewriteSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, widths []float64) error {
	if sheet == "" {
		sheet = ProductSheet
	}
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	old, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}

	for i := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &rows[i]); err != nil {
			return err
		}
	}

	// Drop leftovers from a longer previous version, bottom up.
	for r := len(old); r > len(rows)+1; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewWorkbookError("failed to create data directory", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return NewWorkbookError("failed to write temporary workbook", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return NewWorkbookError("failed to replace workbook", err)
	}
	return nil
}
