package dataset

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// FloatPrecision is the number of decimal places floats are rendered with
// before trailing zeros are trimmed.
const FloatPrecision = 6

// FormatCell renders a cell value as text. Nil renders as the empty string,
// floats use FormatFloat and integers of any size keep every digit.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return FormatFloat(val)
	case float32:
		return FormatFloat(float64(val))
	case *big.Int:
		if val == nil {
			return ""
		}
		return val.String()
	case json.Number:
		return FormatNumber(val)
	default:
		return cast.ToString(val)
	}
}

// FormatFloat renders f with FloatPrecision decimals and trims trailing
// zeros and a dangling decimal point: 12.50 -> "12.5", 3.0 -> "3".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := decimal.NewFromFloat(f).StringFixed(FloatPrecision)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// FormatNumber renders a JSON number literal. Integer literals keep every
// digit; fractional ones go through FormatFloat.
func FormatNumber(n json.Number) string {
	lit := n.String()
	if isIntegerLiteral(lit) {
		return lit
	}
	d, err := decimal.NewFromString(lit)
	if err != nil {
		return lit
	}
	f, _ := d.Float64()
	return FormatFloat(f)
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
