package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value method names
const (
	MethodToUpperCase = "toUpperCase"
	MethodToLowerCase = "toLowerCase"
	MethodTrim        = "trim"
	MethodJoin        = "join"
	MethodIncludes    = "includes"
	MethodIndexOf     = "indexOf"
	MethodToString    = "toString"
	MethodToFixed     = "toFixed"
	MethodSlice       = "slice"
	MethodSplit       = "split"
	MethodReplace     = "replace"
	MethodStartsWith  = "startsWith"
	MethodEndsWith    = "endsWith"
)

// CallMethod invokes a value method on recv
func CallMethod(recv any, method string, args []any) (any, error) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return Undefined{}
	}

	if method == MethodToString {
		return Stringify(recv), nil
	}

	if s, ok := recv.(string); ok {
		switch method {
		case MethodToUpperCase:
			return strings.ToUpper(s), nil
		case MethodToLowerCase:
			return strings.ToLower(s), nil
		case MethodTrim:
			return strings.TrimSpace(s), nil
		case MethodIncludes:
			return strings.Contains(s, Stringify(arg(0))), nil
		case MethodIndexOf:
			return float64(runeIndex(s, Stringify(arg(0)))), nil
		case MethodStartsWith:
			return strings.HasPrefix(s, Stringify(arg(0))), nil
		case MethodEndsWith:
			return strings.HasSuffix(s, Stringify(arg(0))), nil
		case MethodReplace:
			return strings.Replace(s, Stringify(arg(0)), Stringify(arg(1)), 1), nil
		case MethodSplit:
			parts := strings.Split(s, Stringify(arg(0)))
			out := make([]any, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		case MethodSlice:
			runes := []rune(s)
			start, end := sliceBounds(len(runes), arg(0), arg(1))
			return string(runes[start:end]), nil
		}
	}

	if list, ok := ToList(recv); ok {
		switch method {
		case MethodJoin:
			sep := ","
			if !IsNullish(arg(0)) {
				sep = Stringify(arg(0))
			}
			return joinList(list, sep), nil
		case MethodIncludes:
			for _, item := range list {
				if StrictEqual(item, arg(0)) {
					return true, nil
				}
			}
			return false, nil
		case MethodIndexOf:
			for i, item := range list {
				if StrictEqual(item, arg(0)) {
					return float64(i), nil
				}
			}
			return -1.0, nil
		case MethodSlice:
			start, end := sliceBounds(len(list), arg(0), arg(1))
			return append([]any(nil), list[start:end]...), nil
		}
	}

	if n, ok := ToNumber(recv); ok && method == MethodToFixed {
		digits := 0
		if d, ok := ToNumber(arg(0)); ok {
			digits = int(d)
		}
		return strconv.FormatFloat(n, 'f', digits, 64), nil
	}

	return nil, fmt.Errorf("%s.%s %s", describe(recv), method, ErrMsgFuncUnknownMethod)
}

func sliceBounds(n int, startArg, endArg any) (int, int) {
	clamp := func(v any, def int) int {
		f, ok := ToNumber(v)
		if !ok || math.IsNaN(f) {
			return def
		}
		i := int(f)
		if i < 0 {
			i += n
		}
		return max(0, min(i, n))
	}
	start := clamp(startArg, 0)
	end := clamp(endArg, n)
	if end < start {
		end = start
	}
	return start, end
}

func runeIndex(s, sub string) int {
	idx := strings.Index(s, sub)
	if idx < 0 {
		return -1
	}
	return len([]rune(s[:idx]))
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return ExprKeywordNull
	case Undefined:
		return ExprKeywordUndefined
	}
	return fmt.Sprintf("%T", v)
}
