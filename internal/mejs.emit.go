package internal

import (
	"strings"
)

var literalQuoter = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	`"`, `\"`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// QuoteLiteral renders s as a double-quoted JavaScript string literal
func QuoteLiteral(s string) string {
	return `"` + literalQuoter.Replace(s) + `"`
}

var nameQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

// QuoteName renders s as a single-quoted JavaScript string literal
func QuoteName(s string) string {
	return `'` + nameQuoter.Replace(s) + `'`
}

// EmitFunction renders a program as the text of an anonymous JavaScript
// function taking (it, __tplName) and invoked with the render context as this.
// The include helper is declared only when the program references include(.
func EmitFunction(p *Program) string {
	var sb strings.Builder

	sb.WriteString("function (" + ScriptParamData + ", " + ScriptParamName + ") {\n")
	sb.WriteString("var " + ScriptVarContext + " = this, " + ScriptVarOutput + " = [], " +
		ScriptVarAppend + " = " + ScriptVarOutput + ".push.bind(" + ScriptVarOutput + ");\n")
	if p.UsesInclude {
		sb.WriteString("var " + ScriptFuncInclude + " = function (tplName, data) { return " +
			ScriptVarContext + "." + ScriptCtxRender + "(" +
			ScriptVarContext + "." + ScriptCtxResolve + "(" + ScriptParamName + ", tplName), " +
			ScriptVarContext + "." + ScriptCtxCopy + "(data, " + ScriptParamData + ")); };\n")
	}

	for _, ins := range p.Instructions {
		switch ins.Op {
		case OpAppendLiteral:
			sb.WriteString(";" + ScriptVarAppend + "(" + QuoteLiteral(ins.Text) + ")\n")
		case OpAppendEscaped:
			sb.WriteString(";" + ScriptVarAppend + "(" + ScriptVarContext + "." + ScriptCtxEscape + "(" + ins.Text + "\n))\n")
		case OpAppendRaw:
			sb.WriteString(";" + ScriptVarAppend + "(" + ScriptVarContext + "." + ScriptCtxStringify + "(" + ins.Text + "\n))\n")
		case OpExecute:
			sb.WriteString(";" + ins.Text + "\n")
		}
	}

	sb.WriteString("return " + ScriptVarOutput + ".join(\"\");\n}")
	return sb.String()
}
