package internal

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Built-in function names
const (
	FuncNameString        = "String"
	FuncNameNumber        = "Number"
	FuncNameBoolean       = "Boolean"
	FuncNameParseInt      = "parseInt"
	FuncNameParseFloat    = "parseFloat"
	FuncNameJSONStringify = "JSON.stringify"
	FuncNameMathMax       = "Math.max"
	FuncNameMathMin       = "Math.min"
	FuncNameMathFloor     = "Math.floor"
	FuncNameMathCeil      = "Math.ceil"
	FuncNameMathRound     = "Math.round"
	FuncNameMathAbs       = "Math.abs"
	FuncNameUpper         = "upper"
	FuncNameLower         = "lower"
	FuncNameTrim          = "trim"
	FuncNameLen           = "len"
	FuncNameJoin          = "join"
	FuncNameEscape        = "escape"
)

// RegisterBuiltinFuncs registers all built-in functions with the registry
func RegisterBuiltinFuncs(r *FuncTable) {
	registerConversionFuncs(r)
	registerMathFuncs(r)
	registerStringFuncs(r)
}

func registerConversionFuncs(r *FuncTable) {
	r.MustRegister(&Func{Name: FuncNameString, MinArgs: 0, MaxArgs: 1, Fn: func(args []any) (any, error) {
		if len(args) == 0 {
			return "", nil
		}
		if _, ok := args[0].(Undefined); ok {
			return ExprKeywordUndefined, nil
		}
		if args[0] == nil {
			return ExprKeywordNull, nil
		}
		return Stringify(args[0]), nil
	}})
	r.MustRegister(&Func{Name: FuncNameNumber, MinArgs: 0, MaxArgs: 1, Fn: func(args []any) (any, error) {
		if len(args) == 0 {
			return 0.0, nil
		}
		if _, ok := args[0].(Undefined); ok {
			return math.NaN(), nil
		}
		return CoerceNumber(args[0]), nil
	}})
	r.MustRegister(&Func{Name: FuncNameBoolean, MinArgs: 0, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return len(args) > 0 && IsTruthy(args[0]), nil
	}})
	r.MustRegister(&Func{Name: FuncNameParseInt, MinArgs: 1, MaxArgs: 2, Fn: func(args []any) (any, error) {
		s := strings.TrimSpace(Stringify(args[0]))
		end := 0
		for end < len(s) && (isDigitByte(s[end]) || (end == 0 && (s[0] == '-' || s[0] == '+'))) {
			end++
		}
		n, err := strconv.ParseInt(s[:end], 10, 64)
		if err != nil {
			return math.NaN(), nil
		}
		return float64(n), nil
	}})
	r.MustRegister(&Func{Name: FuncNameParseFloat, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(Stringify(args[0])), 64)
		if err != nil {
			return math.NaN(), nil
		}
		return f, nil
	}})
	r.MustRegister(&Func{Name: FuncNameJSONStringify, MinArgs: 1, MaxArgs: 3, Fn: func(args []any) (any, error) {
		if _, ok := args[0].(Undefined); ok {
			return Undefined{}, nil
		}
		var (
			out []byte
			err error
		)
		if len(args) == 3 && !IsNullish(args[2]) {
			indent := Stringify(args[2])
			if n, ok := ToNumber(args[2]); ok {
				indent = strings.Repeat(" ", int(n))
			}
			out, err = json.MarshalIndent(jsonValue(args[0]), "", indent)
		} else {
			out, err = json.Marshal(jsonValue(args[0]))
		}
		if err != nil {
			return nil, err
		}
		return string(out), nil
	}})
}

func registerMathFuncs(r *FuncTable) {
	unary := func(name string, fn func(float64) float64) {
		r.MustRegister(&Func{Name: name, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
			return fn(CoerceNumber(args[0])), nil
		}})
	}
	unary(FuncNameMathFloor, math.Floor)
	unary(FuncNameMathCeil, math.Ceil)
	unary(FuncNameMathAbs, math.Abs)
	unary(FuncNameMathRound, func(f float64) float64 { return math.Floor(f + 0.5) })

	r.MustRegister(&Func{Name: FuncNameMathMax, MinArgs: 0, MaxArgs: -1, Fn: func(args []any) (any, error) {
		result := math.Inf(-1)
		for _, a := range args {
			result = math.Max(result, CoerceNumber(a))
		}
		return result, nil
	}})
	r.MustRegister(&Func{Name: FuncNameMathMin, MinArgs: 0, MaxArgs: -1, Fn: func(args []any) (any, error) {
		result := math.Inf(1)
		for _, a := range args {
			result = math.Min(result, CoerceNumber(a))
		}
		return result, nil
	}})
}

func registerStringFuncs(r *FuncTable) {
	r.MustRegister(&Func{Name: FuncNameUpper, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return strings.ToUpper(Stringify(args[0])), nil
	}})
	r.MustRegister(&Func{Name: FuncNameLower, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return strings.ToLower(Stringify(args[0])), nil
	}})
	r.MustRegister(&Func{Name: FuncNameTrim, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return strings.TrimSpace(Stringify(args[0])), nil
	}})
	r.MustRegister(&Func{Name: FuncNameEscape, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return Escape(args[0]), nil
	}})
	r.MustRegister(&Func{Name: FuncNameLen, MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		if n, ok := Length(args[0]); ok {
			return float64(n), nil
		}
		rv := reflect.ValueOf(args[0])
		if rv.Kind() == reflect.Map {
			return float64(rv.Len()), nil
		}
		return 0.0, nil
	}})
	r.MustRegister(&Func{Name: FuncNameJoin, MinArgs: 1, MaxArgs: 2, Fn: func(args []any) (any, error) {
		list, ok := ToList(args[0])
		if !ok {
			return nil, fmt.Errorf("%s: %T", ErrMsgFuncExpectedList, args[0])
		}
		sep := ","
		if len(args) == 2 {
			sep = Stringify(args[1])
		}
		return joinList(list, sep), nil
	}})
}

// ToList converts any slice or array to []any
func ToList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func joinList(list []any, sep string) string {
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = Stringify(v)
	}
	return strings.Join(parts, sep)
}

// jsonValue replaces Undefined with nil so values marshal cleanly
func jsonValue(v any) any {
	switch val := v.(type) {
	case Undefined:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if _, ok := item.(Undefined); ok {
				continue
			}
			out[k] = jsonValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonValue(item)
		}
		return out
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	}
	return v
}
