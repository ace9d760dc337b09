package catalog

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1500", 1500, false},
		{"1,500", 1500, false},
		{" 12,000 ", 12000, false},
		{"1500.5", 1500.5, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-100", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e20", 0, true},
		{"1E3", 0, true},
		{"0x10", 0, true},
		{"+100", 0, true},
		{"1.2.3", 0, true},
		{".", 0, true},
		{"999,999,999,999", 999999999999, false},
		{"1,000,000,000,000", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ParsePrice(%q) error should be a validation error, got %T", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234.5, "1,235"},
		{12000, "12,000"},
		{1234567, "1,234,567"},
		{-2500, "-2,500"},
		{999999999999, "999,999,999,999"},
		{1e20, "100,000,000,000,000,000,000"},
	}

	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,500", "1500"},
		{"1500.50", "1500.5"},
		{"3000", "3000"},
	}

	for _, tt := range tests {
		got, err := NormalizePrice(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("NormalizePrice(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNormalizePriceRejectsOutOfRange(t *testing.T) {
	for _, in := range []string{"1e20", "99999999999999999999"} {
		if got, err := NormalizePrice(in); err == nil {
			t.Errorf("NormalizePrice(%q) = %q, want an error", in, got)
		}
	}
}

func TestProductDisplayPrice(t *testing.T) {
	if got := (Product{Price: "3500"}).DisplayPrice(); got != "3,500" {
		t.Errorf("DisplayPrice() = %q, want 3,500", got)
	}
	if got := (Product{Price: "문의"}).DisplayPrice(); got != "문의" {
		t.Errorf("DisplayPrice() of non-number = %q, want raw text", got)
	}
	if got := (Product{Price: "1e20"}).DisplayPrice(); got != "1e20" {
		t.Errorf("DisplayPrice() of out-of-range price = %q, want raw text", got)
	}
}
