package internal

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
)

// Host renders nested templates on behalf of include calls. Hold acquires mu
// unless the current render already holds the lock registered under key.
type Host interface {
	Render(name string, data map[string]any) (string, error)
	Hold(key any, mu sync.Locker) (release func())
}

// Env is a lexical variable scope
type Env struct {
	vars   map[string]any
	parent *Env
}

// NewEnv creates a scope nested in parent (which may be nil)
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]any), parent: parent}
}

// Lookup finds a variable in this scope or any enclosing scope
func (e *Env) Lookup(name string) (any, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Declare binds name in this scope
func (e *Env) Declare(name string, v any) {
	e.vars[name] = v
}

// Assign updates the nearest existing binding of name
func (e *Env) Assign(name string, v any) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

// ExprEvaluator evaluates expression AST nodes
type ExprEvaluator struct {
	funcs *FuncTable
	env   *Env
	host  Host
	self  string
	data  map[string]any
}

// NewExprEvaluator creates an evaluator. host, self and data serve include
// calls: the target resolves against self and data supplies the defaults.
func NewExprEvaluator(funcs *FuncTable, env *Env, host Host, self string, data map[string]any) *ExprEvaluator {
	if env == nil {
		env = NewEnv(nil)
	}
	return &ExprEvaluator{
		funcs: funcs,
		env:   env,
		host:  host,
		self:  self,
		data:  data,
	}
}

// WithEnv returns a copy of the evaluator bound to another scope
func (e *ExprEvaluator) WithEnv(env *Env) *ExprEvaluator {
	cp := *e
	cp.env = env
	return &cp
}

// Env returns the current scope
func (e *ExprEvaluator) Env() *Env {
	return e.env
}

// Evaluate evaluates an expression and returns the result
func (e *ExprEvaluator) Evaluate(node ExprNode) (any, error) {
	if node == nil {
		return nil, NewExprEvalError(ErrMsgExprNilNode, "")
	}

	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil
	case *IdentifierNode:
		return e.evaluateIdentifier(n)
	case *UnaryNode:
		return e.evaluateUnary(n)
	case *BinaryNode:
		return e.evaluateBinary(n)
	case *TernaryNode:
		cond, err := e.Evaluate(n.Cond)
		if err != nil {
			return nil, err
		}
		if IsTruthy(cond) {
			return e.Evaluate(n.Then)
		}
		return e.Evaluate(n.Else)
	case *CallNode:
		return e.evaluateCall(n)
	case *MemberNode:
		target, err := e.Evaluate(n.Target)
		if err != nil {
			return nil, err
		}
		return Member(target, n.Name)
	case *IndexNode:
		return e.evaluateIndex(n)
	case *MethodCallNode:
		target, err := e.Evaluate(n.Target)
		if err != nil {
			return nil, err
		}
		return e.callMethod(target, n.Method, n.Args)
	case *ObjectNode:
		obj := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			v, err := e.Evaluate(n.Values[i])
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	case *ArrayNode:
		list := make([]any, len(n.Elements))
		for i, el := range n.Elements {
			v, err := e.Evaluate(el)
			if err != nil {
				return nil, err
			}
			list[i] = v
		}
		return list, nil
	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownNodeType, fmt.Sprintf("%T", node))
	}
}

// EvaluateBool evaluates an expression and applies truthiness
func (e *ExprEvaluator) EvaluateBool(node ExprNode) (bool, error) {
	result, err := e.Evaluate(node)
	if err != nil {
		return false, err
	}
	return IsTruthy(result), nil
}

// evaluateIdentifier resolves the root variable and walks any dotted members
func (e *ExprEvaluator) evaluateIdentifier(node *IdentifierNode) (any, error) {
	segments := strings.Split(node.Name, StrCurrentDir)
	val, ok := e.env.Lookup(segments[0])
	if !ok {
		return nil, NewExprEvalError(ErrMsgExprNotDefined, segments[0])
	}
	for _, seg := range segments[1:] {
		next, err := Member(val, seg)
		if err != nil {
			return nil, err
		}
		val = next
	}
	return val, nil
}

func (e *ExprEvaluator) evaluateIndex(node *IndexNode) (any, error) {
	target, err := e.Evaluate(node.Target)
	if err != nil {
		return nil, err
	}
	index, err := e.Evaluate(node.Index)
	if err != nil {
		return nil, err
	}
	if IsNullish(target) {
		return nil, NewExprEvalError(ErrMsgExprNullMember, fmt.Sprintf("%s (reading '%s')", describe(target), Stringify(index)))
	}
	if n, ok := ToNumber(index); ok {
		if s, isStr := target.(string); isStr {
			runes := []rune(s)
			i := int(n)
			if float64(i) != n || i < 0 || i >= len(runes) {
				return Undefined{}, nil
			}
			return string(runes[i]), nil
		}
		if list, isList := ToList(target); isList {
			i := int(n)
			if float64(i) != n || i < 0 || i >= len(list) {
				return Undefined{}, nil
			}
			return list[i], nil
		}
	}
	return Member(target, Stringify(index))
}

// evaluateUnary evaluates a unary operation
func (e *ExprEvaluator) evaluateUnary(node *UnaryNode) (any, error) {
	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case TokNot:
		return !IsTruthy(right), nil
	case TokMinus:
		return -CoerceNumber(right), nil
	case TokPlus:
		return CoerceNumber(right), nil
	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownOperator, node.Op.String())
	}
}

// evaluateBinary evaluates a binary operation. && and || short-circuit and
// yield one of their operands rather than a boolean.
func (e *ExprEvaluator) evaluateBinary(node *BinaryNode) (any, error) {
	left, err := e.Evaluate(node.Left)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case TokAnd:
		if !IsTruthy(left) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	case TokOr:
		if IsTruthy(left) {
			return left, nil
		}
		return e.Evaluate(node.Right)
	}

	right, err := e.Evaluate(node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case TokEq:
		return LooseEqual(left, right), nil
	case TokNeq:
		return !LooseEqual(left, right), nil
	case TokStrictEq:
		return StrictEqual(left, right), nil
	case TokStrictNeq:
		return !StrictEqual(left, right), nil
	case TokLt, TokGt, TokLte, TokGte:
		return compare(node.Op, left, right), nil
	case TokPlus:
		return Add(left, right), nil
	case TokMinus:
		return CoerceNumber(left) - CoerceNumber(right), nil
	case TokStar:
		return CoerceNumber(left) * CoerceNumber(right), nil
	case TokSlash:
		return CoerceNumber(left) / CoerceNumber(right), nil
	case TokPercent:
		return math.Mod(CoerceNumber(left), CoerceNumber(right)), nil
	default:
		return nil, NewExprEvalError(ErrMsgExprUnknownOperator, node.Op.String())
	}
}

// evaluateCall calls include, a registered function, or a method on the
// value named by the prefix of a dotted name
func (e *ExprEvaluator) evaluateCall(node *CallNode) (any, error) {
	if node.Name == ScriptFuncInclude {
		if _, shadowed := e.env.Lookup(ScriptFuncInclude); !shadowed {
			args, err := e.evaluateArgs(node.Args)
			if err != nil {
				return nil, err
			}
			return e.include(args)
		}
	}

	if e.funcs != nil && e.funcs.Has(node.Name) {
		args, err := e.evaluateArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return e.funcs.Call(node.Name, args)
	}

	idx := strings.LastIndex(node.Name, StrCurrentDir)
	if idx < 0 {
		if _, ok := e.env.Lookup(node.Name); !ok {
			return nil, NewExprEvalError(ErrMsgExprNotDefined, node.Name)
		}
		return nil, &CallError{Kind: CallUndefined, Name: node.Name}
	}

	recv, err := e.evaluateIdentifier(&IdentifierNode{Name: node.Name[:idx]})
	if err != nil {
		return nil, err
	}
	return e.callMethod(recv, node.Name[idx+1:], node.Args)
}

func (e *ExprEvaluator) callMethod(recv any, method string, argNodes []ExprNode) (any, error) {
	if IsNullish(recv) {
		return nil, NewExprEvalError(ErrMsgExprNullMember, fmt.Sprintf("%s (reading '%s')", describe(recv), method))
	}
	args, err := e.evaluateArgs(argNodes)
	if err != nil {
		return nil, err
	}
	return CallMethod(recv, method, args)
}

func (e *ExprEvaluator) evaluateArgs(nodes []ExprNode) ([]any, error) {
	args := make([]any, len(nodes))
	for i, argNode := range nodes {
		val, err := e.Evaluate(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	return args, nil
}

// include renders the target resolved against the current template, with the
// caller's data as defaults under the explicit data
func (e *ExprEvaluator) include(args []any) (any, error) {
	if e.host == nil {
		return nil, NewExprEvalError(ErrMsgExprNoHost, ScriptFuncInclude)
	}
	if len(args) == 0 {
		return nil, &CallError{Kind: CallTooFewArgs, Name: ScriptFuncInclude, Limit: 1, Got: 0}
	}

	var extra map[string]any
	if len(args) > 1 && !IsNullish(args[1]) {
		m, ok := args[1].(map[string]any)
		if !ok {
			return nil, NewExprEvalError(ErrMsgExprIncludeData, describe(args[1]))
		}
		extra = m
	}

	target := Resolve(e.self, Stringify(args[0]))
	out, err := e.host.Render(target, Merge(e.data, extra))
	if err != nil {
		return nil, &HostError{Err: err}
	}
	return out, nil
}

// Member reads a named property of v. Missing properties are Undefined;
// reading from null or undefined is an error.
func Member(v any, name string) (any, error) {
	if IsNullish(v) {
		return nil, NewExprEvalError(ErrMsgExprNullMember, fmt.Sprintf("%s (reading '%s')", describe(v), name))
	}

	switch m := v.(type) {
	case map[string]any:
		if val, ok := m[name]; ok {
			return val, nil
		}
		return Undefined{}, nil
	case map[string]string:
		if val, ok := m[name]; ok {
			return val, nil
		}
		return Undefined{}, nil
	}

	if name == PropLength {
		if n, ok := Length(v); ok {
			return float64(n), nil
		}
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Undefined{}, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			val := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if val.IsValid() {
				return val.Interface(), nil
			}
		}
	case reflect.Struct:
		field := rv.FieldByName(name)
		if field.IsValid() && field.CanInterface() {
			return field.Interface(), nil
		}
	}
	return Undefined{}, nil
}

// Add implements +: numeric addition unless either side is text-like
func Add(left, right any) any {
	if isNumeric(left) && isNumeric(right) {
		return CoerceNumber(left) + CoerceNumber(right)
	}
	return concatString(left) + concatString(right)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case nil, bool:
		return true
	}
	_, ok := ToNumber(v)
	return ok
}

// concatString is the text form used by string concatenation, where null and
// undefined keep their names
func concatString(v any) string {
	switch v.(type) {
	case nil:
		return ExprKeywordNull
	case Undefined:
		return ExprKeywordUndefined
	}
	return Stringify(v)
}

func compare(op TokKind, left, right any) bool {
	ls, lStr := left.(string)
	rs, rStr := right.(string)
	if lStr && rStr {
		switch op {
		case TokLt:
			return ls < rs
		case TokGt:
			return ls > rs
		case TokLte:
			return ls <= rs
		default:
			return ls >= rs
		}
	}
	l, r := CoerceNumber(left), CoerceNumber(right)
	switch op {
	case TokLt:
		return l < r
	case TokGt:
		return l > r
	case TokLte:
		return l <= r
	default:
		return l >= r
	}
}

// PropLength is the virtual length property of strings and arrays
const PropLength = "length"

// ExprEvalError represents an expression evaluation error
type ExprEvalError struct {
	Message string
	Detail  string
}

// NewExprEvalError creates a new expression evaluation error
func NewExprEvalError(message, detail string) *ExprEvalError {
	return &ExprEvalError{
		Message: message,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprEvalError) Error() string {
	switch e.Message {
	case ErrMsgExprNotDefined:
		return e.Detail + " " + e.Message
	case ErrMsgExprNullMember:
		return e.Message + " " + e.Detail
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Expression evaluator error messages
const (
	ErrMsgExprNilNode         = "nil expression node"
	ErrMsgExprUnknownNodeType = "unknown expression node type"
	ErrMsgExprUnknownOperator = "unknown operator"
	ErrMsgExprNotDefined      = "is not defined"
	ErrMsgExprNullMember      = "cannot read properties of"
	ErrMsgExprNoHost          = "no render host available"
	ErrMsgExprIncludeData     = "include data must be an object"
)
