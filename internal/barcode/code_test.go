package barcode

import (
	"errors"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name       string
		categoryID int
		productID  int
		want       string
		wantErr    bool
	}{
		{"basic", 3, 12, "PPON-3000012", false},
		{"zero category", 0, 1, "PPON-0000001", false},
		{"two digit category", 12, 345, "PPON-12000345", false},
		{"max product", 7, 999999, "PPON-7999999", false},
		{"product overflow", 1, 1000000, "", true},
		{"negative product", 1, -1, "", true},
		{"zero product", 3, 0, "", true},
		{"negative category", -1, 1, "", true},
		{"category overflow", 1000, 1, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Number(tt.categoryID, tt.productID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Number(%d, %d) error = %v, wantErr %v", tt.categoryID, tt.productID, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidNumber) {
					t.Errorf("Number() error should wrap ErrInvalidNumber, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Number(%d, %d) = %q, want %q", tt.categoryID, tt.productID, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory int
		wantProduct  int
		wantErr      bool
	}{
		{"PPON-3000012", 3, 12, false},
		{"PPON-12000345", 12, 345, false},
		{" PPON-0000001 ", 0, 1, false},
		{"PPON-000001", 0, 0, true},
		{"XXXX-3000012", 0, 0, true},
		{"PPON-3A00012", 0, 0, true},
		{"PPON-", 0, 0, true},
		{"PPON-3000000", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			cat, prod, err := ParseNumber(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNumber(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
			if !tt.wantErr && (cat != tt.wantCategory || prod != tt.wantProduct) {
				t.Errorf("ParseNumber(%q) = (%d, %d), want (%d, %d)", tt.code, cat, prod, tt.wantCategory, tt.wantProduct)
			}
		})
	}
}

func TestNumberParseInverse(t *testing.T) {
	for cat := 0; cat <= 20; cat++ {
		for _, prod := range []int{1, 9, 10, 99999, 999999} {
			code, err := Number(cat, prod)
			if err != nil {
				t.Fatalf("Number(%d, %d) error = %v", cat, prod, err)
			}
			gotCat, gotProd, err := ParseNumber(code)
			if err != nil || gotCat != cat || gotProd != prod {
				t.Errorf("ParseNumber(%q) = (%d, %d, %v), want (%d, %d)", code, gotCat, gotProd, err, cat, prod)
			}
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PPON-3000012", "PPON-3000012"},
		{"  PPON-1\t000001 ", "PPON-1000001"},
		{"키링PPON-1", "PPON-1"},
		{"한글", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
