package labels

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/muurk/labelgen/internal/catalog"
)

func testProduct(cat, id int, name, price string) catalog.Product {
	return catalog.Product{ID: id, Name: name, Price: price, CategoryID: cat, CategoryName: "cat"}
}

func TestExpand(t *testing.T) {
	reqs := []Request{
		{Product: testProduct(3, 1, "곰돌이", "12000"), Quantity: 2},
		{Product: testProduct(4, 15, "진주", "1500.5"), Quantity: 1},
	}

	items, err := Expand(reqs)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}

	want := []Item{
		{Name: "곰돌이", Price: "12,000", Category: "cat", Code: "PPON-3000001"},
		{Name: "곰돌이", Price: "12,000", Category: "cat", Code: "PPON-3000001"},
		{Name: "진주", Price: "1,501", Category: "cat", Code: "PPON-4000015"},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("Expand() mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"zero quantity", Request{Product: testProduct(1, 1, "a", "1"), Quantity: 0}},
		{"quantity too large", Request{Product: testProduct(1, 1, "a", "1"), Quantity: 1000}},
		{"category id out of range", Request{Product: testProduct(1000, 1, "a", "1"), Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Expand([]Request{tt.req}); err == nil {
				t.Error("Expand() expected error")
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	a := Item{Name: "A", Code: "PPON-1000001"}
	b := Item{Name: "B", Code: "PPON-1000002"}
	repeat := func(it Item, n int) []Item {
		out := make([]Item, n)
		for i := range out {
			out[i] = it
		}
		return out
	}

	tests := []struct {
		name      string
		items     []Item
		capacity  int
		wantSizes []int
		wantNames []string
	}{
		{"empty", nil, 6, nil, nil},
		{"one partial page", repeat(a, 4), 6, []int{4}, []string{"A"}},
		{"exactly full", repeat(a, 6), 6, []int{6}, []string{"A"}},
		{"overflow", repeat(a, 13), 6, []int{6, 6, 1}, []string{"A", "A", "A"}},
		{"product change starts page", append(repeat(a, 2), repeat(b, 3)...), 6, []int{2, 3}, []string{"A", "B"}},
		{"overflow then change", append(repeat(a, 7), b), 6, []int{6, 1, 1}, []string{"A", "A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := Paginate(tt.items, tt.capacity)
			if err != nil {
				t.Fatalf("Paginate() error = %v", err)
			}
			var sizes []int
			var names []string
			for i, p := range pages {
				if p.Index != i+1 {
					t.Errorf("page %d has Index %d", i, p.Index)
				}
				sizes = append(sizes, len(p.Items))
				names = append(names, p.Name)
			}
			if diff := cmp.Diff(tt.wantSizes, sizes); diff != "" {
				t.Errorf("page sizes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("page names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaginateInvalidCapacity(t *testing.T) {
	if _, err := Paginate([]Item{{Code: "x"}}, 0); err == nil {
		t.Error("Paginate() expected error for zero capacity")
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"곰돌이 키링", "곰돌이 키링"},
		{"a/b\\c:d*e?", "abcde"},
		{"  spaced-out_name  ", "spaced-out_name"},
		{"***", "label"},
		{"", "label"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeFileName(tt.in); got != tt.want {
				t.Errorf("SafeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPageFileNames(t *testing.T) {
	pages := []Page{{Name: "A"}, {Name: "A"}, {Name: "B/x"}, {Name: "A"}}
	want := []string{"A_label.docx", "A_label_2.docx", "Bx_label.docx", "A_label_3.docx"}
	if diff := cmp.Diff(want, PageFileNames(pages)); diff != "" {
		t.Errorf("PageFileNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestCodes(t *testing.T) {
	items := []Item{{Code: "b"}, {Code: "a"}, {Code: "b"}}
	if diff := cmp.Diff([]string{"b", "a"}, Codes(items)); diff != "" {
		t.Errorf("Codes() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatPlan(t *testing.T) {
	pages, _ := Paginate([]Item{{Name: "A", Code: "PPON-1000001"}, {Name: "A", Code: "PPON-1000001"}}, 6)
	out := FormatPlan(pages, 6)
	for _, want := range []string{"=== Label Plan ===", "Labels:   2", "Pages:    1 (6 labels per page)", "A_label.docx"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPlan() missing %q:\n%s", want, out)
		}
	}
}
