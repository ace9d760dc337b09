package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxPrice is the largest price accepted. Above it float64 no longer holds
// every whole unit.
const MaxPrice = 999_999_999_999

// ParsePrice reads a price as typed by an operator: digits with optional
// thousands commas and an optional decimal part.
func ParsePrice(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, NewValidationError("price", "price cannot be empty")
	}
	if strings.HasPrefix(clean, "-") {
		return 0, NewValidationError("price", "price cannot be negative")
	}
	if !isPlainDecimal(clean) {
		return 0, NewValidationError("price", "price must be a number, got "+strconv.Quote(s))
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, NewValidationError("price", "price must be a number, got "+strconv.Quote(s))
	}
	if v > MaxPrice {
		return 0, NewValidationError("price", fmt.Sprintf("price cannot exceed %s", FormatPrice(MaxPrice)))
	}
	return v, nil
}

// isPlainDecimal accepts digits with at most one decimal point, so
// exponents, signs, hex floats and NaN are refused.
func isPlainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// FormatPrice rounds to a whole unit and groups thousands: 1234.5 -> "1,235".
func FormatPrice(v float64) string {
	r := math.Round(v)
	digits := strconv.FormatFloat(math.Abs(r), 'f', 0, 64)

	var sb strings.Builder
	if r < 0 {
		sb.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	sb.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// NormalizePrice validates s and returns it without grouping commas, which
// is the form written to the workbook.
func NormalizePrice(s string) (string, error) {
	v, err := ParsePrice(s)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}
