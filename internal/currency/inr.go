// Package currency formats amounts for display.
package currency

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Symbol is the rupee sign prefixed to every amount
const Symbol = "₹"

// Zero is what FormatINR renders for missing or unparseable input
const Zero = Symbol + "0.00"

// leadingNumber accepts the longest numeric prefix, so "42.5 per hour"
// reads as 42.5.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// FormatINR renders v as rupees with two decimals.
//
// v may be any integer or float kind (named types included), a pointer to
// one, a json.Number or a string. nil, empty or non-numeric strings and
// non-finite values render as Zero.
func FormatINR(v any) string {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero
	}
	return Symbol + strconv.FormatFloat(f, 'f', 2, 64)
}

// ParseAmount extracts a float the way FormatINR reads its input
func ParseAmount(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case string:
		return parseString(x)
	case json.Number:
		return parseString(string(x))
	case float64:
		return x, true
	case int:
		return float64(x), true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.String:
		return parseString(rv.String())
	default:
		return 0, false
	}
}

func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	prefix := leadingNumber.FindString(s)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
