package taxdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned by ParseAmount for values that are not amounts.
var ErrNotNumeric = errors.New("not a numeric amount")

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// Clean string-normalizes a raw extracted value. Nil values and values that
// are empty after trimming report false.
func Clean(v any) (string, bool) {
	var s string

	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	case decimal.Decimal:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}

	s = strings.TrimSpace(s)

	return s, s != ""
}

// ParseAmount converts a raw value into a decimal amount. Strings may carry
// currency symbols and thousands separators; a parenthesised amount is
// negative, following accounting convention.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case bool:
		return decimal.Zero, fmt.Errorf("%w: boolean %t", ErrNotNumeric, x)
	}

	s, ok := Clean(v)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrNotNumeric)
	}

	raw := s
	s = amountReplacer.Replace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}

	if negative {
		d = d.Neg()
	}

	return d, nil
}
