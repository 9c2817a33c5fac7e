package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileProgram(t *testing.T, src string, config TokenizerConfig) *Program {
	t.Helper()
	tokens := tokenize(t, src, config)
	return NewScanner(tokens, config, nil).Scan()
}

func TestScanner_Scan_Instructions(t *testing.T) {
	prog := compileProgram(t, "<p><%= it.name %></p><% if (x) { %>y<% } %><%- it.raw; %>", TokenizerConfig{})

	expected := []Instruction{
		{Op: OpAppendLiteral, Text: "<p>", Line: 1},
		{Op: OpAppendEscaped, Text: "it.name", Line: 1},
		{Op: OpAppendLiteral, Text: "</p>", Line: 1},
		{Op: OpExecute, Text: " if (x) { ", Line: 1},
		{Op: OpAppendLiteral, Text: "y", Line: 1},
		{Op: OpExecute, Text: " } ", Line: 1},
		{Op: OpAppendRaw, Text: "it.raw", Line: 1},
	}
	assert.Equal(t, expected, prog.Instructions)
	assert.False(t, prog.UsesInclude)
}

func TestScanner_Scan_Comment(t *testing.T) {
	prog := compileProgram(t, "a<%# ignored %>b", TokenizerConfig{})

	require.Len(t, prog.Instructions, 2)
	assert.Equal(t, "a", prog.Instructions[0].Text)
	assert.Equal(t, "b", prog.Instructions[1].Text)
}

func TestScanner_Scan_EmptyOutputTag(t *testing.T) {
	prog := compileProgram(t, "<%= %><%- ; %>", TokenizerConfig{})
	assert.Empty(t, prog.Instructions)
}

func TestScanner_Scan_Literal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"literal open", "<%% x %>", "<% x %>"},
		{"literal close", "a %%> b", "a %> b"},
		{"literal open inside text", "use <%%= it %> here", "use <%= it %> here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := compileProgram(t, tt.input, TokenizerConfig{})

			var out string
			for _, ins := range prog.Instructions {
				require.Equal(t, OpAppendLiteral, ins.Op)
				out += ins.Text
			}
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestScanner_Scan_TrimClose(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"lf", "<% x -%>\nnext", []string{"next"}},
		{"crlf", "<% x -%>\r\nnext", []string{"next"}},
		{"cr", "<% x -%>\rnext", []string{"next"}},
		{"only one break", "<% x -%>\n\nnext", []string{"\nnext"}},
		{"no break", "<% x -%> next", []string{" next"}},
		{"plain close keeps break", "<% x %>\nnext", []string{"\nnext"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := compileProgram(t, tt.input, TokenizerConfig{})

			var literals []string
			for _, ins := range prog.Instructions {
				if ins.Op == OpAppendLiteral {
					literals = append(literals, ins.Text)
				}
			}
			assert.Equal(t, tt.expected, literals)
		})
	}
}

func TestScanner_Scan_Slurp(t *testing.T) {
	prog := compileProgram(t, "<ul>\n  <%_ x _%>  \n</ul>", TokenizerConfig{})

	var literals []string
	for _, ins := range prog.Instructions {
		if ins.Op == OpAppendLiteral {
			literals = append(literals, ins.Text)
		}
	}
	assert.Equal(t, []string{"<ul>\n", "</ul>"}, literals)
}

func TestScanner_Scan_RmWhitespace(t *testing.T) {
	prog := compileProgram(t, "  <p>\n  <%= x %>\n  </p>  ", TokenizerConfig{RmWhitespace: true})

	var out string
	for _, ins := range prog.Instructions {
		if ins.Op == OpAppendLiteral {
			out += ins.Text
		}
	}
	assert.Equal(t, "<p>\n</p>", out)
}

func TestScanner_Scan_LineCommentTerminated(t *testing.T) {
	prog := compileProgram(t, "<% x = 1 // note %>", TokenizerConfig{})

	require.Len(t, prog.Instructions, 1)
	assert.Equal(t, " x = 1 // note \n", prog.Instructions[0].Text)
}

func TestScanner_Scan_UsesInclude(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"raw include", `<%- include("a") %>`, true},
		{"eval include", `<% let s = include('a') %>`, true},
		{"literal mention", `include("a") is text`, false},
		{"prefixed name", `<%- myinclude("a") %>`, false},
		{"no include", `<%= it.include %>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := compileProgram(t, tt.input, TokenizerConfig{})
			assert.Equal(t, tt.expected, prog.UsesInclude)
		})
	}
}

func TestScanner_Scan_Lines(t *testing.T) {
	prog := compileProgram(t, "a\nb\n<%= x %>", TokenizerConfig{})

	require.Len(t, prog.Instructions, 2)
	assert.Equal(t, 3, prog.Instructions[1].Line)
}

func TestEmitFunction(t *testing.T) {
	prog := &Program{Instructions: []Instruction{
		{Op: OpAppendLiteral, Text: "a\"b\\\n"},
		{Op: OpAppendEscaped, Text: "it.x"},
		{Op: OpAppendRaw, Text: "it.y"},
		{Op: OpExecute, Text: "if (it.z) {"},
	}}

	src := EmitFunction(prog)

	assert.Contains(t, src, "function (it, __tplName) {")
	assert.Contains(t, src, `;__append("a\"b\\\n")`)
	assert.Contains(t, src, ";__append(ctx.escape(it.x\n))")
	assert.Contains(t, src, ";__append(ctx.stringify(it.y\n))")
	assert.Contains(t, src, ";if (it.z) {\n")
	assert.NotContains(t, src, "var include")
	assert.Contains(t, src, `return __output.join("");`)

	prog.UsesInclude = true
	assert.Contains(t, EmitFunction(prog), "var include = function (tplName, data)")
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `"line\r\nquote\" slash\\  "`, QuoteLiteral("line\r\nquote\" slash\\  "))
	assert.Equal(t, `'it\'s'`, QuoteName("it's"))
}
