package internal

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"nil", nil, ""},
		{"undefined", Undefined{}, ""},
		{"zero", 0.0, "0"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"false", false, "false"},
		{"true", true, "true"},
		{"int", 42, "42"},
		{"uint8", uint8(7), "7"},
		{"float", 1.5, "1.5"},
		{"large integer", 1e15, "1000000000000000"},
		{"nan", math.NaN(), "NaN"},
		{"infinity", math.Inf(1), "Infinity"},
		{"string", "abc", "abc"},
		{"list", []any{1.0, "a", nil}, "1,a,"},
		{"map", map[string]any{"a": 1}, "[object Object]"},
		{"nil pointer", (*int)(nil), ""},
		{"nil stringer pointer", (*time.Time)(nil), ""},
		{"bytes", []byte("ab"), "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stringify(tt.input))
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"single pass ampersand first", "&nbsp;<script>", "&amp;nbsp;&lt;script&gt;"},
		{"quotes", `"it's"`, "&quot;it&#39;s&quot;"},
		{"backtick", "`x`", "&#96;x&#96;"},
		{"nil", nil, ""},
		{"undefined", Undefined{}, ""},
		{"nil stringer pointer", (*time.Time)(nil), ""},
		{"number", 0.0, "0"},
		{"plain", "hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Escape(tt.input))
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := map[string]any{"a": 1, "b": 2}
	data := map[string]any{"b": 3, "c": nil}

	out := Merge(defaults, data)

	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": nil}, out)
	assert.Equal(t, 2, defaults["b"], "defaults must not be mutated")
	assert.Empty(t, Merge(nil, nil))
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected bool
	}{
		{"nil", nil, false},
		{"undefined", Undefined{}, false},
		{"false", false, false},
		{"zero", 0.0, false},
		{"int zero", 0, false},
		{"nan", math.NaN(), false},
		{"empty string", "", false},
		{"string", "0", true},
		{"number", -1.0, true},
		{"empty list", []any{}, true},
		{"empty map", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTruthy(tt.input))
		})
	}
}

func TestEquality(t *testing.T) {
	list := []any{1.0}

	assert.True(t, StrictEqual(1, 1.0))
	assert.True(t, StrictEqual("a", "a"))
	assert.False(t, StrictEqual("1", 1.0))
	assert.False(t, StrictEqual(nil, Undefined{}))
	assert.True(t, StrictEqual(list, list))
	assert.False(t, StrictEqual(list, []any{1.0}))

	assert.True(t, LooseEqual(nil, Undefined{}))
	assert.True(t, LooseEqual("1", 1.0))
	assert.False(t, LooseEqual(0.0, nil))
}

func TestCoerceNumber(t *testing.T) {
	assert.Equal(t, 0.0, CoerceNumber(nil))
	assert.Equal(t, 1.0, CoerceNumber(true))
	assert.Equal(t, 12.5, CoerceNumber(" 12.5 "))
	assert.Equal(t, 0.0, CoerceNumber(""))
	assert.True(t, math.IsNaN(CoerceNumber("abc")))
	assert.True(t, math.IsNaN(CoerceNumber(Undefined{})))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		parent   string
		child    string
		expected string
	}{
		{"a/b/c", "d", "d"},
		{"a/b/c", "./d", "a/b/d"},
		{"a/b/c", "../d", "a/d"},
		{"a/b/c/", "../../d/e", "a/d/e"},
		{"a/b/c", "/d", "d"},
		{"a/b/c", "../../../../d", "d"},
		{"a/", "b", "a/b"},
		{"a/", "/b", "a/b"},
		{"", "b", "b"},
		{"", "./b", "b"},
		{"/", "x/y", "x/y"},
		{"lib/", "index", "lib/index"},
		{"a/b", "./c/./d", "a/c/d"},
		{"a/b", ".//c", "a/c"},
	}

	for _, tt := range tests {
		t.Run(tt.parent+"+"+tt.child, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.parent, tt.child))
		})
	}
}

func TestNormalizeNamespace(t *testing.T) {
	assert.Equal(t, "/", NormalizeNamespace(""))
	assert.Equal(t, "/", NormalizeNamespace("/"))
	assert.Equal(t, "lib/", NormalizeNamespace("/lib"))
	assert.Equal(t, "lib/", NormalizeNamespace("lib/"))
}
