package engine

import (
	"encoding/json"
	"math"
	"strings"
)

// ValidNumber returns v as a float64 if it is a finite number.
// Booleans, strings, NaN, infinities, arrays and objects fail with
// INVALID_NUMBER. No string-to-number coercion is performed.
func ValidNumber(v any) (float64, error) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, NewInvalidNumberError(v)
	}
	return f, nil
}

// ValidNumberNonZero is ValidNumber that additionally fails with
// DIVISION_BY_ZERO when v is zero.
func ValidNumberNonZero(v any) (float64, error) {
	f, err := ValidNumber(v)
	if err != nil {
		return 0, err
	}
	if f == 0 {
		return 0, NewDivisionByZeroError()
	}
	return f, nil
}

// ValidNumberOrInfinite accepts finite numbers and positive infinity.
// Positive infinity may be given as math.Inf(1) or as the strings
// "Infinity" or "+Infinity", which is how JSON documents spell it.
func ValidNumberOrInfinite(v any) (float64, error) {
	if s, ok := v.(string); ok {
		switch strings.TrimSpace(s) {
		case "Infinity", "+Infinity":
			return math.Inf(1), nil
		}
		return 0, NewInvalidNumberError(v)
	}
	f, ok := asFloat(v)
	if ok && math.IsInf(f, 1) {
		return f, nil
	}
	return ValidNumber(v)
}

// ValidString returns v if it is a string, else fails with TYPE_MISMATCH.
func ValidString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", NewTypeMismatchError("", "string", v)
	}
	return s, nil
}

// asFloat converts Go numeric kinds to float64. Booleans are not numbers.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
