package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadNative(t *testing.T, src string) ExecFunc {
	t.Helper()
	exec, err := NewNativeBackend(nil, nil).Load("test", compileProgram(t, src, TokenizerConfig{}))
	require.NoError(t, err)
	return exec
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []StmtKind
	}{
		{"if", "if (it.a) {", []StmtKind{StmtIf}},
		{"else if", "} else if (it.b) {", []StmtKind{StmtElseIf}},
		{"else", "} else {", []StmtKind{StmtElse}},
		{"close", "}", []StmtKind{StmtClose}},
		{"close callback", "})", []StmtKind{StmtClose}},
		{"for of", "for (let x of it.list) {", []StmtKind{StmtFor}},
		{"for in", "for (const k in it.map) {", []StmtKind{StmtFor}},
		{"forEach function", "it.list.forEach(function (x, i) {", []StmtKind{StmtForEach}},
		{"forEach arrow", "it.list.forEach(x => {", []StmtKind{StmtForEach}},
		{"declaration", "let total = 0", []StmtKind{StmtLet}},
		{"bare declaration", "var x", []StmtKind{StmtLet}},
		{"assign", "total = 2", []StmtKind{StmtAssign}},
		{"add assign", "total += it.n", []StmtKind{StmtAddAssign}},
		{"expression", "it.list.join()", []StmtKind{StmtExpr}},
		{"several", "let a = 1; a += 2; if (a) {", []StmtKind{StmtLet, StmtAddAssign, StmtIf}},
		{"comment only", "// nothing here\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := ParseStatements(tt.input)
			require.NoError(t, err)

			var kinds []StmtKind
			for _, st := range stmts {
				kinds = append(kinds, st.Kind)
			}
			assert.Equal(t, tt.expected, kinds)
		})
	}
}

func TestParseStatements_LoopNames(t *testing.T) {
	stmts, err := ParseStatements("it.items.forEach(function (item, idx) {")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "item", stmts[0].Name)
	assert.Equal(t, "idx", stmts[0].Index)
	assert.Equal(t, "it.items", stmts[0].Expr.String())

	stmts, err = ParseStatements("for (k in it.m) {")
	require.NoError(t, err)
	assert.Equal(t, "k", stmts[0].Name)
	assert.True(t, stmts[0].Keys)
}

func TestParseStatements_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"if without paren", "if it.a {"},
		{"if without brace", "if (it.a)"},
		{"for without of", "for (let x to y) {"},
		{"dotted declaration", "let a.b = 1"},
		{"too many params", "it.l.forEach(function (a, b, c) {"},
		{"arrow without arrow", "it.l.forEach((a) {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatements(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestNativeBackend_Render(t *testing.T) {
	data := map[string]any{
		"name":  "&nbsp;<script>",
		"list":  []any{"a", "b"},
		"m":     map[string]any{"y": 2, "x": 1},
		"flag":  false,
		"count": 0,
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"escaped", "<%= it.name %>", "&amp;nbsp;&lt;script&gt;"},
		{"raw", "<%- it.name %>", "&nbsp;<script>"},
		{"null", "<%= null %>", ""},
		{"undefined", "<%= undefined %>", ""},
		{"zero", "<%= 0 %>", "0"},
		{"false", "<%= false %>", "false"},
		{"missing key", "[<%= it.nope %>]", "[]"},
		{"if else", "<% if (it.flag) { %>y<% } else if (it.count === 0) { %>zero<% } else { %>n<% } %>", "zero"},
		{"for of", "<% for (let x of it.list) { %><%= x %>;<% } %>", "a;b;"},
		{"for in sorted", "<% for (let k in it.m) { %><%= k %>=<%= it.m[k] %> <% } %>", "x=1 y=2 "},
		{"forEach with index", "<% it.list.forEach(function (x, i) { %><%= i %>:<%= x %> <% }) %>", "0:a 1:b "},
		{"forEach arrow", "<% it.list.forEach(x => { -%>\n<%= x %><% }) %>", "ab"},
		{"variables", "<% let n = 1; n += 2 %><%= n %>", "3"},
		{"block scoping", "<% let s = 'a' %><% if (true) { let s = 'b' %><%= s %><% } %><%= s %>", "ba"},
		{"assign outer from block", "<% let s = 'a' %><% if (true) { s = 'b' } %><%= s %>", "b"},
		{"nested loops", "<% for (let x of it.list) { for (let y of it.list) { %><%= x + y %> <% } } %>", "aa ab ba bb "},
		{"template name", "<%= __tplName %>", "test"},
		{"literal text", "a\\b \"q\"\n'x'", "a\\b \"q\"\n'x'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := loadNative(t, tt.input)(nil, data, "test")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestNativeBackend_Load_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"unclosed if", "<% if (it.a) { %>x", 1},
		{"stray close", "x\n<% } %>", 2},
		{"stray else", "<% } else { %>", 1},
		{"double else", "<% if (a) { %><% } else { %><% } else { %><% } %>", 1},
		{"bad expression", "\n\n<%= it.a + %>", 3},
		{"bad statement", "<% if it.a %>", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNativeBackend(nil, nil).Load("test", compileProgram(t, tt.input, TokenizerConfig{}))
			require.Error(t, err)

			var stmtErr *StmtError
			require.True(t, errors.As(err, &stmtErr))
			assert.Equal(t, tt.line, stmtErr.Line)
		})
	}
}

func TestNativeBackend_Render_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
	}{
		{"not defined", "\n<%= nope %>", "line 2: nope is not defined"},
		{"null member", "<%= it.a.b %>", "cannot read properties of undefined (reading 'b')"},
		{"iterate undefined", "<% for (let x of it.none) { %><% } %>", "cannot read properties of undefined"},
		{"not iterable", "<% for (let x of 5) { %><% } %>", "is not iterable"},
		{"assign undeclared", "<% x = 1 %>", "x is not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadNative(t, tt.input)(nil, map[string]any{}, "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNativeBackend_ForInUndefinedIsEmpty(t *testing.T) {
	out, err := loadNative(t, "[<% for (let k in it.none) { %>x<% } %>]")(nil, nil, "test")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestNativeBackend_Include(t *testing.T) {
	host := &fakeHost{outputs: map[string]string{"views/partials/nav": "<nav/>"}}

	out, err := loadNative(t, `<%- include("./partials/nav", {active: it.page}) %>`)(host,
		map[string]any{"page": "home"}, "views/index")

	require.NoError(t, err)
	assert.Equal(t, "<nav/>", out)
	assert.Equal(t, []string{"views/partials/nav"}, host.calls)
	assert.Equal(t, map[string]any{"page": "home", "active": "home"}, host.data[0])
}

func TestNativeBackend_Include_ErrorPassesThrough(t *testing.T) {
	cause := errors.New("nested failure")
	host := &fakeHost{err: cause}

	_, err := loadNative(t, `<%- include("x") %>`)(host, nil, "test")

	require.Error(t, err)
	assert.Same(t, cause, err)
}

func TestNativeBackend_CustomFuncs(t *testing.T) {
	funcs := NewBuiltinFuncTable()
	funcs.MustRegister(&Func{Name: "greet", MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return "hi " + Stringify(args[0]), nil
	}})

	exec, err := NewNativeBackend(funcs, nil).Load("test", compileProgram(t, "<%= greet(it.who) %>", TokenizerConfig{}))
	require.NoError(t, err)

	out, err := exec(nil, map[string]any{"who": "bob"}, "test")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", out)
	assert.Equal(t, BackendNameNative, NewNativeBackend(nil, nil).Name())
}

func TestFuncTable(t *testing.T) {
	tbl := NewFuncTable()
	noop := func([]any) (any, error) { return nil, nil }

	require.NoError(t, tbl.Register(&Func{Name: "f", MinArgs: 1, MaxArgs: 1, Fn: func(args []any) (any, error) {
		return args[0], nil
	}}))
	require.NoError(t, tbl.Register(&Func{Name: "boom", MaxArgs: -1, Fn: func([]any) (any, error) {
		return nil, errors.New("boom")
	}}))

	regTests := []struct {
		name string
		fn   *Func
		want error
	}{
		{"duplicate", &Func{Name: "f", Fn: noop}, ErrFuncExists},
		{"reserved", &Func{Name: ScriptFuncInclude, Fn: noop}, ErrFuncReserved},
		{"nil", nil, ErrFuncNil},
		{"nil body", &Func{Name: "g"}, ErrFuncNil},
		{"empty name", &Func{Fn: noop}, ErrFuncNameEmpty},
	}
	for _, tt := range regTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tbl.Register(tt.fn), tt.want)
		})
	}

	callTests := []struct {
		name string
		fn   string
		args []any
		kind CallKind
		msg  string
	}{
		{"undefined", "nope", nil, CallUndefined, "nope is not a function"},
		{"too few", "f", nil, CallTooFewArgs, "f expects at least 1 argument(s), got 0"},
		{"too many", "f", []any{1, 2}, CallTooManyArgs, "f expects at most 1 argument(s), got 2"},
		{"failed", "boom", []any{1, 2, 3}, CallFailed, "boom: boom"},
	}
	for _, tt := range callTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.Call(tt.fn, tt.args)
			var callErr *CallError
			require.True(t, errors.As(err, &callErr))
			assert.Equal(t, tt.kind, callErr.Kind)
			assert.EqualError(t, err, tt.msg)
		})
	}

	v, err := tbl.Call("f", []any{"x"})
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	assert.Equal(t, []string{"boom", "f"}, tbl.Names())
	assert.Equal(t, 2, tbl.Len())
	assert.True(t, NewBuiltinFuncTable().Has(FuncNameJoin))
}
