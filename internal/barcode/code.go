package barcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Prefix is the constant tag every label code starts with.
	Prefix = "PPON-"

	// MaxCategoryID is the largest category ID accepted in a code.
	MaxCategoryID = 999

	// MaxProductID is the largest product ID that fits the six-digit field.
	MaxProductID = 999999

	productDigits = 6
)

var (
	// ErrInvalidNumber is returned when a code does not follow the PPON layout.
	ErrInvalidNumber = errors.New("invalid barcode number")

	// ErrEmptyCode is returned when nothing encodable remains after sanitizing.
	ErrEmptyCode = errors.New("empty barcode content")
)

// Number returns the label code for a product: the prefix, the category ID
// in decimal, then the product ID zero-padded to six digits.
//
//	Number(3, 12) == "PPON-3000012"
func Number(categoryID, productID int) (string, error) {
	if categoryID < 0 || categoryID > MaxCategoryID {
		return "", fmt.Errorf("%w: category ID %d out of range 0-%d", ErrInvalidNumber, categoryID, MaxCategoryID)
	}
	if productID < 1 || productID > MaxProductID {
		return "", fmt.Errorf("%w: product ID %d out of range 1-%d", ErrInvalidNumber, productID, MaxProductID)
	}
	return fmt.Sprintf("%s%d%06d", Prefix, categoryID, productID), nil
}

// ParseNumber splits a label code back into category and product IDs.
// The last six digits are the product ID; everything between the prefix and
// them is the category ID.
func ParseNumber(code string) (categoryID, productID int, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(code), Prefix)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q lacks the %s prefix", ErrInvalidNumber, code, Prefix)
	}
	if len(rest) < productDigits+1 {
		return 0, 0, fmt.Errorf("%w: %q is too short", ErrInvalidNumber, code)
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, 0, fmt.Errorf("%w: %q contains non-digits", ErrInvalidNumber, code)
		}
	}

	split := len(rest) - productDigits
	categoryID, err = strconv.Atoi(rest[:split])
	if err != nil || categoryID > MaxCategoryID {
		return 0, 0, fmt.Errorf("%w: category part of %q out of range", ErrInvalidNumber, code)
	}
	productID, _ = strconv.Atoi(rest[split:])
	if productID < 1 {
		return 0, 0, fmt.Errorf("%w: product part of %q is zero", ErrInvalidNumber, code)
	}
	return categoryID, productID, nil
}

// Sanitize drops every rune Code128 cannot encode (non-ASCII and control
// characters) and trims surrounding space.
func Sanitize(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))
	for _, r := range code {
		if r >= 0x20 && r < 0x7f {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
