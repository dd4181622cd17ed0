package reporter

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/spf13/cast"

	"tracking-reconciliation-service/internal/dataset"
)

// MaxSafeInteger is the largest integer a spreadsheet double holds exactly.
const MaxSafeInteger = 1<<53 - 1

// SafeValue converts a cell for output. Integers outside
// [-MaxSafeInteger, MaxSafeInteger] and every *big.Int become exact base-10
// strings, floats become trimmed fixed-precision strings and nil becomes "".
// Smaller integers are kept as int64; strings and bools pass through.
func SafeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool:
		return val
	case int:
		return safeInt(int64(val))
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return safeInt(val)
	case uint:
		return safeUint(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return safeUint(val)
	case float32, float64:
		return dataset.FormatCell(val)
	case *big.Int:
		if val == nil {
			return ""
		}
		return val.String()
	case json.Number:
		if n, err := val.Int64(); err == nil && val.String() == strconv.FormatInt(n, 10) {
			return safeInt(n)
		}
		return dataset.FormatNumber(val)
	default:
		return cast.ToString(val)
	}
}

func safeInt(n int64) any {
	if n > MaxSafeInteger || n < -MaxSafeInteger {
		return strconv.FormatInt(n, 10)
	}
	return n
}

func safeUint(n uint64) any {
	if n > MaxSafeInteger {
		return strconv.FormatUint(n, 10)
	}
	return int64(n)
}

// SafeRow applies SafeValue to every value.
func SafeRow(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = SafeValue(v)
	}
	return out
}
