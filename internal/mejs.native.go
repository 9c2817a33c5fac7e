package internal

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ExecFunc renders a loaded program: host serves nested renders, data is
// bound to it and name is the template's own registry name.
type ExecFunc func(host Host, data map[string]any, name string) (string, error)

// Node is an element of a native program tree
type Node interface {
	node()
}

// TextNode appends literal text
type TextNode struct {
	Text string
}

// OutputNode appends an evaluated expression
type OutputNode struct {
	Expr   ExprNode
	Escape bool
	Line   int
}

// Branch is one arm of an IfNode; Cond is nil for else
type Branch struct {
	Cond ExprNode
	Body []Node
}

// IfNode is an if / else if / else chain
type IfNode struct {
	Branches []*Branch
	Line     int
}

// LoopNode covers for-of, for-in and forEach loops
type LoopNode struct {
	Kind  StmtKind
	Name  string
	Index string
	Keys  bool
	Iter  ExprNode
	Body  []Node
	Line  int
}

// StmtNode runs a non-block statement
type StmtNode struct {
	Stmt Stmt
	Line int
}

func (*TextNode) node()   {}
func (*OutputNode) node() {}
func (*IfNode) node()     {}
func (*LoopNode) node()   {}
func (*StmtNode) node()   {}

// NativeProgram is a program tree ready for direct interpretation
type NativeProgram struct {
	Nodes []Node
	funcs *FuncTable
}

// NativeBackend interprets programs without a script engine
type NativeBackend struct {
	funcs  *FuncTable
	logger *zap.Logger
}

// NewNativeBackend creates a native backend; nil funcs selects the built-ins
func NewNativeBackend(funcs *FuncTable, logger *zap.Logger) *NativeBackend {
	if funcs == nil {
		funcs = NewBuiltinFuncTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NativeBackend{funcs: funcs, logger: logger}
}

// Name returns the backend name
func (b *NativeBackend) Name() string {
	return BackendNameNative
}

// Funcs returns the function registry used by loaded programs
func (b *NativeBackend) Funcs() *FuncTable {
	return b.funcs
}

// Load builds the program tree. Malformed code and unbalanced blocks are
// reported here rather than at render time.
func (b *NativeBackend) Load(name string, prog *Program) (ExecFunc, error) {
	np, err := b.Build(prog)
	if err != nil {
		return nil, err
	}
	b.logger.Debug(LogMsgNativeLoaded,
		zap.String(LogFieldTemplateName, name),
		zap.Int(LogFieldNodes, len(np.Nodes)))
	return np.Execute, nil
}

type blockFrame struct {
	body   *[]Node
	ifNode *IfNode
	loop   *LoopNode
	line   int
	inElse bool
}

// Build converts the instruction list into a program tree
func (b *NativeBackend) Build(prog *Program) (*NativeProgram, error) {
	np := &NativeProgram{funcs: b.funcs}
	stack := []*blockFrame{{body: &np.Nodes}}
	top := func() *blockFrame { return stack[len(stack)-1] }
	appendNode := func(n Node) {
		f := top()
		*f.body = append(*f.body, n)
	}

	for _, ins := range prog.Instructions {
		switch ins.Op {
		case OpAppendLiteral:
			appendNode(&TextNode{Text: ins.Text})

		case OpAppendEscaped, OpAppendRaw:
			expr, err := ParseExpression(ins.Text)
			if err != nil {
				return nil, &StmtError{Line: ins.Line, Cause: err}
			}
			appendNode(&OutputNode{Expr: expr, Escape: ins.Op == OpAppendEscaped, Line: ins.Line})

		case OpExecute:
			stmts, err := ParseStatements(ins.Text)
			if err != nil {
				return nil, &StmtError{Line: ins.Line, Cause: err}
			}
			for _, st := range stmts {
				switch st.Kind {
				case StmtIf:
					n := &IfNode{Branches: []*Branch{{Cond: st.Expr}}, Line: ins.Line}
					appendNode(n)
					stack = append(stack, &blockFrame{body: &n.Branches[0].Body, ifNode: n, line: ins.Line})

				case StmtElseIf, StmtElse:
					f := top()
					if f.ifNode == nil || f.inElse {
						return nil, &StmtError{Line: ins.Line, Cause: errors.New(ErrMsgNativeStrayElse)}
					}
					br := &Branch{Cond: st.Expr}
					if st.Kind == StmtElse {
						br.Cond = nil
						f.inElse = true
					}
					f.ifNode.Branches = append(f.ifNode.Branches, br)
					f.body = &br.Body

				case StmtFor, StmtForEach:
					n := &LoopNode{Kind: st.Kind, Name: st.Name, Index: st.Index, Keys: st.Keys, Iter: st.Expr, Line: ins.Line}
					appendNode(n)
					stack = append(stack, &blockFrame{body: &n.Body, loop: n, line: ins.Line})

				case StmtClose:
					if len(stack) == 1 {
						return nil, &StmtError{Line: ins.Line, Cause: errors.New(ErrMsgNativeUnexpectedClose)}
					}
					stack = stack[:len(stack)-1]

				default:
					appendNode(&StmtNode{Stmt: st, Line: ins.Line})
				}
			}
		}
	}

	if len(stack) > 1 {
		return nil, &StmtError{Line: top().line, Cause: errors.New(ErrMsgNativeUnclosedBlock)}
	}
	return np, nil
}

// Execute renders the program tree
func (np *NativeProgram) Execute(host Host, data map[string]any, name string) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	env := NewEnv(nil)
	env.Declare(ScriptParamData, data)
	env.Declare(ScriptParamName, name)

	var sb strings.Builder
	eval := NewExprEvaluator(np.funcs, env, host, name, data)
	if err := np.run(eval, np.Nodes, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (np *NativeProgram) run(eval *ExprEvaluator, nodes []Node, sb *strings.Builder) error {
	for _, n := range nodes {
		switch node := n.(type) {
		case *TextNode:
			sb.WriteString(node.Text)

		case *OutputNode:
			v, err := eval.Evaluate(node.Expr)
			if err != nil {
				return lineError(node.Line, err)
			}
			if node.Escape {
				sb.WriteString(Escape(v))
			} else {
				sb.WriteString(Stringify(v))
			}

		case *IfNode:
			for _, br := range node.Branches {
				if br.Cond != nil {
					ok, err := eval.EvaluateBool(br.Cond)
					if err != nil {
						return lineError(node.Line, err)
					}
					if !ok {
						continue
					}
				}
				if err := np.run(eval.WithEnv(NewEnv(eval.Env())), br.Body, sb); err != nil {
					return err
				}
				break
			}

		case *LoopNode:
			if err := np.runLoop(eval, node, sb); err != nil {
				return err
			}

		case *StmtNode:
			if err := np.runStmt(eval, node); err != nil {
				return err
			}
		}
	}
	return nil
}

func (np *NativeProgram) runLoop(eval *ExprEvaluator, node *LoopNode, sb *strings.Builder) error {
	iter, err := eval.Evaluate(node.Iter)
	if err != nil {
		return lineError(node.Line, err)
	}

	var items, indexes []any
	switch {
	case node.Kind == StmtFor && node.Keys:
		if IsNullish(iter) {
			return nil
		}
		items = keysOf(iter)
	default:
		if IsNullish(iter) {
			return lineError(node.Line, NewExprEvalError(ErrMsgExprNullMember, fmt.Sprintf("%s (reading 'forEach')", describe(iter))))
		}
		if s, ok := iter.(string); ok && node.Kind == StmtFor {
			for _, r := range s {
				items = append(items, string(r))
			}
			break
		}
		list, ok := ToList(iter)
		if !ok {
			return lineError(node.Line, fmt.Errorf("%s %s", describe(iter), ErrMsgNativeNotIterable))
		}
		items = list
	}
	for i := range items {
		indexes = append(indexes, float64(i))
	}

	for i, item := range items {
		scope := NewEnv(eval.Env())
		if node.Name != "" {
			scope.Declare(node.Name, item)
		}
		if node.Index != "" {
			scope.Declare(node.Index, indexes[i])
		}
		if err := np.run(eval.WithEnv(scope), node.Body, sb); err != nil {
			return err
		}
	}
	return nil
}

func (np *NativeProgram) runStmt(eval *ExprEvaluator, node *StmtNode) error {
	st := node.Stmt
	v, err := eval.Evaluate(st.Expr)
	if err != nil {
		return lineError(node.Line, err)
	}

	switch st.Kind {
	case StmtLet:
		eval.Env().Declare(st.Name, v)
	case StmtAssign, StmtAddAssign:
		if st.Kind == StmtAddAssign {
			cur, ok := eval.Env().Lookup(st.Name)
			if !ok {
				return lineError(node.Line, NewExprEvalError(ErrMsgExprNotDefined, st.Name))
			}
			v = Add(cur, v)
		}
		if !eval.Env().Assign(st.Name, v) {
			return lineError(node.Line, NewExprEvalError(ErrMsgExprNotDefined, st.Name))
		}
	}
	return nil
}

// keysOf lists map keys (sorted) or collection indexes as strings
func keysOf(v any) []any {
	var keys []string
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			keys = append(keys, Stringify(k.Interface()))
		}
		sort.Strings(keys)
	case reflect.Slice, reflect.Array, reflect.String:
		n := rv.Len()
		if rv.Kind() == reflect.String {
			n = len([]rune(rv.String()))
		}
		for i := 0; i < n; i++ {
			keys = append(keys, strconv.Itoa(i))
		}
	}
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

// HostError carries an error raised by a nested render through the
// evaluator without adding line information.
type HostError struct {
	Err error
}

// Error implements the error interface
func (e *HostError) Error() string { return e.Err.Error() }

// Unwrap returns the nested render error
func (e *HostError) Unwrap() error { return e.Err }

func lineError(line int, err error) error {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr.Err
	}
	return &StmtError{Line: line, Cause: err}
}

// Native backend error messages
const (
	ErrMsgNativeStrayElse       = "else without matching if"
	ErrMsgNativeUnexpectedClose = "unexpected closing brace"
	ErrMsgNativeUnclosedBlock   = "unclosed block"
	ErrMsgNativeNotIterable     = "is not iterable"
)
