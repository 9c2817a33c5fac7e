package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// OpCode identifies an instruction of a compiled program
type OpCode int

// Instruction opcodes
const (
	OpAppendLiteral OpCode = iota // append Text verbatim
	OpAppendEscaped               // evaluate Text, stringify, HTML-escape, append
	OpAppendRaw                   // evaluate Text, stringify, append
	OpExecute                     // run Text as a statement fragment
)

// OpCode names for debugging
const (
	OpNameAppendLiteral = "APPEND_LITERAL"
	OpNameAppendEscaped = "APPEND_ESCAPED"
	OpNameAppendRaw     = "APPEND_RAW"
	OpNameExecute       = "EXECUTE"
)

// String returns the string representation of the opcode
func (o OpCode) String() string {
	switch o {
	case OpAppendEscaped:
		return OpNameAppendEscaped
	case OpAppendRaw:
		return OpNameAppendRaw
	case OpExecute:
		return OpNameExecute
	default:
		return OpNameAppendLiteral
	}
}

// Instruction is one step of a compiled program
type Instruction struct {
	Op   OpCode
	Text string
	Line int // 1-indexed source line, diagnostics only
}

// String returns a human-readable representation of the instruction
func (i Instruction) String() string {
	return fmt.Sprintf("%s(%q) @ line %d", i.Op, i.Text, i.Line)
}

// Program is the backend-independent output of the compiler: an ordered
// instruction list plus whether any code fragment calls include.
type Program struct {
	Instructions []Instruction
	UsesInclude  bool
}

var reIncludeCall = regexp.MustCompile(`\binclude\(`)

// ReferencesInclude reports whether a code fragment contains an include( call
func ReferencesInclude(code string) bool {
	return reIncludeCall.MatchString(code)
}

// Len returns the number of instructions
func (p *Program) Len() int {
	return len(p.Instructions)
}

// String returns a multi-line dump of the program
func (p *Program) String() string {
	var sb strings.Builder
	for _, ins := range p.Instructions {
		sb.WriteString(ins.String())
		sb.WriteByte(CharNewline)
	}
	return sb.String()
}

func (p *Program) emit(op OpCode, text string, line int) {
	p.Instructions = append(p.Instructions, Instruction{Op: op, Text: text, Line: line})
	if op != OpAppendLiteral && !p.UsesInclude && ReferencesInclude(text) {
		p.UsesInclude = true
	}
}
