package internal

import (
	"fmt"
	"strings"
)

// StmtKind identifies a statement event of an eval fragment
type StmtKind int

// Statement kinds
const (
	StmtExpr StmtKind = iota
	StmtIf
	StmtElseIf
	StmtElse
	StmtClose
	StmtFor
	StmtForEach
	StmtLet
	StmtAssign
	StmtAddAssign
)

// Statement kind names for debugging
var stmtKindNames = map[StmtKind]string{
	StmtExpr:      "EXPR",
	StmtIf:        "IF",
	StmtElseIf:    "ELSE_IF",
	StmtElse:      "ELSE",
	StmtClose:     "CLOSE",
	StmtFor:       "FOR",
	StmtForEach:   "FOR_EACH",
	StmtLet:       "LET",
	StmtAssign:    "ASSIGN",
	StmtAddAssign: "ADD_ASSIGN",
}

// String returns the string representation of the statement kind
func (k StmtKind) String() string {
	return stmtKindNames[k]
}

// Statement keywords
const (
	KeywordIf       = "if"
	KeywordElse     = "else"
	KeywordFor      = "for"
	KeywordOf       = "of"
	KeywordIn       = "in"
	KeywordLet      = "let"
	KeywordConst    = "const"
	KeywordVar      = "var"
	KeywordFunction = "function"
	SuffixForEach   = ".forEach"
)

// Stmt is one statement event. Block statements open a body that the
// matching StmtClose ends; bodies may span several tags.
type Stmt struct {
	Kind  StmtKind
	Expr  ExprNode // condition, iterable, value or expression
	Name  string   // loop item or variable name
	Index string   // optional loop index name
	Keys  bool     // for-in: iterate keys instead of values
	Paren bool     // close written as "})"
}

// String returns a human-readable representation of the statement
func (s Stmt) String() string {
	parts := []string{s.Kind.String()}
	if s.Name != "" {
		parts = append(parts, s.Name)
	}
	if s.Index != "" {
		parts = append(parts, s.Index)
	}
	if s.Expr != nil {
		parts = append(parts, s.Expr.String())
	}
	return strings.Join(parts, " ")
}

// ParseStatements parses an eval fragment into statement events
func ParseStatements(code string) ([]Stmt, error) {
	tokens, err := NewExprTokenizer(code).Tokenize()
	if err != nil {
		return nil, err
	}

	p := NewExprParser(tokens)
	var out []Stmt
	for !p.isAtEnd() {
		if p.match(TokSemicolon) {
			continue
		}
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (p *ExprParser) checkKeyword(kw string) bool {
	return p.check(TokIdent) && p.peek().Value == kw
}

func (p *ExprParser) parseStatement() (Stmt, error) {
	switch {
	case p.match(TokRBrace):
		return p.parseAfterClose()
	case p.checkKeyword(KeywordIf):
		p.advance()
		cond, err := p.parseBlockHead()
		if err != nil {
			return Stmt{}, err
		}
		return Stmt{Kind: StmtIf, Expr: cond}, nil
	case p.checkKeyword(KeywordFor):
		p.advance()
		return p.parseFor()
	case p.checkKeyword(KeywordLet), p.checkKeyword(KeywordConst), p.checkKeyword(KeywordVar):
		p.advance()
		return p.parseDeclaration()
	case p.check(TokIdent) && p.checkAt(1, TokAssign):
		return p.parseAssignment(StmtAssign)
	case p.check(TokIdent) && p.checkAt(1, TokAddAssign):
		return p.parseAssignment(StmtAddAssign)
	case p.check(TokIdent) && strings.HasSuffix(p.peek().Value, SuffixForEach) &&
		p.checkAt(1, TokLParen):
		return p.parseForEach()
	}

	expr, err := p.ParseExpr()
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtExpr, Expr: expr}, nil
}

// parseAfterClose handles "}", "})", "} else {" and "} else if (c) {"
func (p *ExprParser) parseAfterClose() (Stmt, error) {
	if p.match(TokRParen) {
		return Stmt{Kind: StmtClose, Paren: true}, nil
	}
	if !p.checkKeyword(KeywordElse) {
		return Stmt{Kind: StmtClose}, nil
	}
	p.advance()
	if p.checkKeyword(KeywordIf) {
		p.advance()
		cond, err := p.parseBlockHead()
		if err != nil {
			return Stmt{}, err
		}
		return Stmt{Kind: StmtElseIf, Expr: cond}, nil
	}
	if err := p.expect(TokLBrace, ErrMsgStmtExpectedLBrace); err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtElse}, nil
}

// parseBlockHead parses "(cond) {"
func (p *ExprParser) parseBlockHead() (ExprNode, error) {
	if err := p.expect(TokLParen, ErrMsgStmtExpectedLParen); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokRParen, ErrMsgExprExpectedRParen); err != nil {
		return nil, err
	}
	if err := p.expect(TokLBrace, ErrMsgStmtExpectedLBrace); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseFor parses "(let x of e) {" and "(let k in e) {"
func (p *ExprParser) parseFor() (Stmt, error) {
	if err := p.expect(TokLParen, ErrMsgStmtExpectedLParen); err != nil {
		return Stmt{}, err
	}
	if p.checkKeyword(KeywordLet) || p.checkKeyword(KeywordConst) || p.checkKeyword(KeywordVar) {
		p.advance()
	}
	name, err := p.parseName()
	if err != nil {
		return Stmt{}, err
	}

	keys := false
	switch {
	case p.checkKeyword(KeywordOf):
	case p.checkKeyword(KeywordIn):
		keys = true
	default:
		return Stmt{}, newSyntaxError(ErrMsgStmtUnsupportedFor, p.currentPos(), p.peek().Value)
	}
	p.advance()

	iter, err := p.ParseExpr()
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expect(TokRParen, ErrMsgExprExpectedRParen); err != nil {
		return Stmt{}, err
	}
	if err := p.expect(TokLBrace, ErrMsgStmtExpectedLBrace); err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtFor, Name: name, Expr: iter, Keys: keys}, nil
}

// parseForEach parses "e.forEach(function (x, i) {" and "e.forEach((x, i) => {"
func (p *ExprParser) parseForEach() (Stmt, error) {
	target := strings.TrimSuffix(p.advance().Value, SuffixForEach)
	p.advance() // (

	arrow := true
	if p.checkKeyword(KeywordFunction) {
		p.advance()
		arrow = false
	}

	var params []string
	if !arrow || p.check(TokLParen) {
		if err := p.expect(TokLParen, ErrMsgStmtExpectedLParen); err != nil {
			return Stmt{}, err
		}
		for !p.check(TokRParen) {
			name, err := p.parseName()
			if err != nil {
				return Stmt{}, err
			}
			params = append(params, name)
			if !p.match(TokComma) {
				break
			}
		}
		if err := p.expect(TokRParen, ErrMsgExprExpectedRParen); err != nil {
			return Stmt{}, err
		}
	} else {
		name, err := p.parseName()
		if err != nil {
			return Stmt{}, err
		}
		params = append(params, name)
	}

	if arrow {
		if err := p.expect(TokArrow, ErrMsgStmtExpectedArrow); err != nil {
			return Stmt{}, err
		}
	}
	if err := p.expect(TokLBrace, ErrMsgStmtExpectedLBrace); err != nil {
		return Stmt{}, err
	}
	if len(params) > 2 {
		return Stmt{}, newSyntaxError(ErrMsgStmtTooManyParams, p.currentPos(), "")
	}

	st := Stmt{Kind: StmtForEach, Expr: &IdentifierNode{Name: target}}
	if len(params) > 0 {
		st.Name = params[0]
	}
	if len(params) > 1 {
		st.Index = params[1]
	}
	return st, nil
}

func (p *ExprParser) parseDeclaration() (Stmt, error) {
	name, err := p.parseName()
	if err != nil {
		return Stmt{}, err
	}
	if !p.match(TokAssign) {
		return Stmt{Kind: StmtLet, Name: name, Expr: &LiteralNode{Value: Undefined{}}}, nil
	}
	value, err := p.ParseExpr()
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: StmtLet, Name: name, Expr: value}, nil
}

func (p *ExprParser) parseAssignment(kind StmtKind) (Stmt, error) {
	name, err := p.parseName()
	if err != nil {
		return Stmt{}, err
	}
	p.advance() // = or +=
	value, err := p.ParseExpr()
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: kind, Name: name, Expr: value}, nil
}

// parseName reads a plain (undotted) identifier
func (p *ExprParser) parseName() (string, error) {
	if !p.match(TokIdent) {
		return "", newSyntaxError(ErrMsgStmtExpectedName, p.currentPos(), p.peek().Value)
	}
	name := p.previous().Value
	if strings.Contains(name, StrCurrentDir) {
		return "", newSyntaxError(ErrMsgStmtExpectedName, p.previous().Pos, name)
	}
	return name, nil
}

// Statement parser error messages
const (
	ErrMsgStmtExpectedLParen = "expected opening parenthesis"
	ErrMsgStmtExpectedLBrace = "expected opening brace"
	ErrMsgStmtExpectedArrow  = "expected =>"
	ErrMsgStmtExpectedName   = "expected variable name"
	ErrMsgStmtUnsupportedFor = "unsupported for statement, expected 'of' or 'in'"
	ErrMsgStmtTooManyParams  = "forEach callback takes at most two parameters"
)

// StmtError locates a statement error on a template line
type StmtError struct {
	Line  int
	Cause error
}

// Error implements the error interface
func (e *StmtError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Cause)
}

// Unwrap returns the underlying error
func (e *StmtError) Unwrap() error {
	return e.Cause
}
