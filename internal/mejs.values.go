package internal

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Undefined is the value of a missing member or an unassigned variable.
// Stringify renders it as the empty string, like nil.
type Undefined struct{}

// String implements fmt.Stringer
func (Undefined) String() string { return "undefined" }

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"`", "&#96;",
)

// Escape stringifies v and replaces the six HTML-significant characters
func Escape(v any) string {
	return htmlEscaper.Replace(Stringify(v))
}

// EscapeString escapes an already stringified value
func EscapeString(s string) string {
	return htmlEscaper.Replace(s)
}

// Stringify converts a value to text: nil and undefined become "", every other
// value uses its natural text form (0 is "0", false is "false").
func Stringify(v any) string {
	// typed nil pointers count as null even when they implement Stringer
	if IsNullish(v) {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct:
		return "[object Object]"
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return Stringify(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// Merge returns a new map holding defaults overlaid by data.
// Either argument may be nil.
func Merge(defaults, data map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(data))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// IsNullish reports whether v is nil or undefined
func IsNullish(v any) bool {
	switch v.(type) {
	case nil, Undefined:
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// IsTruthy applies script truthiness: nil, undefined, false, 0, NaN and ""
// are false; everything else, including empty collections, is true.
func IsTruthy(v any) bool {
	if IsNullish(v) {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	}
	if n, ok := ToNumber(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

// ToNumber converts numeric kinds to float64
func ToNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case nil, bool, string:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// CoerceNumber converts a value to a number the way unary plus does
func CoerceNumber(v any) float64 {
	if n, ok := ToNumber(v); ok {
		return n
	}
	switch val := v.(type) {
	case nil:
		return 0
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// StrictEqual compares two values without type coercion, except that all
// numeric kinds compare by value and nil equals undefined only loosely.
func StrictEqual(a, b any) bool {
	_, aUndef := a.(Undefined)
	_, bUndef := b.(Undefined)
	if aUndef || bUndef {
		return aUndef && bUndef
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := ToNumber(a); ok {
		bn, ok := ToNumber(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Type().Comparable() {
		return a == b
	}
	return false
}

// LooseEqual is StrictEqual with nil == undefined and number/string coercion
func LooseEqual(a, b any) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	if StrictEqual(a, b) {
		return true
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	_, aNum := ToNumber(a)
	_, bNum := ToNumber(b)
	if (aStr && bNum) || (aNum && bStr) {
		return CoerceNumber(a) == CoerceNumber(b)
	}
	return false
}

// Length returns the length of strings and collections
func Length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return len([]rune(s)), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}
