package internal

import "strings"

// ExprParser builds expression and statement trees from a token slice.
// The slice must end with TokEOF, as Tokenize guarantees.
type ExprParser struct {
	tokens []ExprToken
	pos    int
}

func NewExprParser(tokens []ExprToken) *ExprParser {
	if n := len(tokens); n == 0 || tokens[n-1].Type != TokEOF {
		tokens = append(tokens, ExprToken{Type: TokEOF})
	}
	return &ExprParser{tokens: tokens}
}

// Parse reads exactly one expression and rejects trailing tokens.
func (p *ExprParser) Parse() (ExprNode, error) {
	if p.isAtEnd() {
		return nil, newSyntaxError(ErrMsgExprEmptyExpression, 0, "")
	}
	node, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		return nil, p.unexpected(ErrMsgExprUnexpectedToken)
	}
	return node, nil
}

// ParseExpr reads one expression and leaves the cursor after it.
func (p *ExprParser) ParseExpr() (ExprNode, error) {
	cond, err := p.parseBinary(1)
	if err != nil || !p.match(TokQuestion) {
		return cond, err
	}

	then, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokColon, ErrMsgExprExpectedColon); err != nil {
		return nil, err
	}
	els, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return &TernaryNode{Cond: cond, Then: then, Else: els}, nil
}

// binaryPrec is the binding power of each infix operator. All of them are
// left associative.
var binaryPrec = map[TokKind]int{
	TokOr:        1,
	TokAnd:       2,
	TokEq:        3,
	TokNeq:       3,
	TokStrictEq:  3,
	TokStrictNeq: 3,
	TokLt:        4,
	TokGt:        4,
	TokLte:       4,
	TokGte:       4,
	TokPlus:      5,
	TokMinus:     5,
	TokStar:      6,
	TokSlash:     6,
	TokPercent:   6,
}

// parseBinary climbs operators whose precedence is at least minPrec.
func (p *ExprParser) parseBinary(minPrec int) (ExprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().Type
		prec, ok := binaryPrec[op]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Left: left, Op: op, Right: right}
	}
}

func (p *ExprParser) parseUnary() (ExprNode, error) {
	switch op := p.peek().Type; op {
	case TokNot, TokMinus, TokPlus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{Op: op, Right: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix applies calls, member access and indexing to a primary.
// A call on a bare name becomes a CallNode; a call on a member becomes a
// MethodCallNode.
func (p *ExprParser) parsePostfix() (ExprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.advanceIf(TokLParen, TokLBracket, TokDot) {
		case TokLParen:
			args, err := p.parseList(TokRParen, ErrMsgExprExpectedRParen)
			if err != nil {
				return nil, err
			}
			switch target := node.(type) {
			case *IdentifierNode:
				node = &CallNode{Name: target.Name, Args: args}
			case *MemberNode:
				node = &MethodCallNode{Target: target.Target, Method: target.Name, Args: args}
			default:
				return nil, newSyntaxError(ErrMsgExprNotCallable, p.previous().Pos, node.String())
			}
		case TokLBracket:
			index, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokRBracket, ErrMsgExprExpectedRBracket); err != nil {
				return nil, err
			}
			node = &IndexNode{Target: node, Index: index}
		case TokDot:
			if err := p.expect(TokIdent, ErrMsgExprExpectedName); err != nil {
				return nil, err
			}
			// the lexer folds a.b.c into one identifier
			for _, name := range strings.Split(p.previous().Value, StrCurrentDir) {
				node = &MemberNode{Target: node, Name: name}
			}
		default:
			return node, nil
		}
	}
}

// parseList reads comma separated expressions up to and including the
// closing token. A trailing comma is accepted.
func (p *ExprParser) parseList(closing TokKind, msg string) ([]ExprNode, error) {
	var items []ExprNode
	for !p.check(closing) {
		item, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.match(TokComma) {
			break
		}
	}
	if err := p.expect(closing, msg); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *ExprParser) parsePrimary() (ExprNode, error) {
	tok := p.peek()
	switch tok.Type {
	case TokString, TokNumber, TokBool, TokNull, TokUndefined:
		p.advance()
		return &LiteralNode{Value: tok.Literal}, nil
	case TokIdent:
		p.advance()
		return &IdentifierNode{Name: tok.Value}, nil
	case TokLParen:
		p.advance()
		inner, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokRParen, ErrMsgExprExpectedRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case TokLBracket:
		p.advance()
		elems, err := p.parseList(TokRBracket, ErrMsgExprExpectedRBracket)
		if err != nil {
			return nil, err
		}
		return &ArrayNode{Elements: elems}, nil
	case TokLBrace:
		p.advance()
		return p.parseObject()
	case TokEOF:
		return nil, newSyntaxError(ErrMsgExprUnexpectedEOF, tok.Pos, "")
	}
	return nil, p.unexpected(ErrMsgExprUnexpectedToken)
}

// parseObject reads an object literal after its opening brace. Keys are
// plain names or literals; a bare name without a colon is shorthand for
// name: name.
func (p *ExprParser) parseObject() (ExprNode, error) {
	obj := &ObjectNode{}
	for !p.check(TokRBrace) {
		key := p.peek()
		switch key.Type {
		case TokIdent:
			if strings.Contains(key.Value, StrCurrentDir) {
				return nil, newSyntaxError(ErrMsgExprInvalidKey, key.Pos, key.Value)
			}
		case TokString, TokNumber, TokBool, TokNull, TokUndefined:
		default:
			return nil, p.unexpected(ErrMsgExprInvalidKey)
		}
		p.advance()

		var value ExprNode = &IdentifierNode{Name: key.Value}
		if key.Type != TokIdent || p.check(TokColon) {
			if err := p.expect(TokColon, ErrMsgExprExpectedColon); err != nil {
				return nil, err
			}
			v, err := p.ParseExpr()
			if err != nil {
				return nil, err
			}
			value = v
		}
		obj.Keys = append(obj.Keys, key.Value)
		obj.Values = append(obj.Values, value)

		if !p.match(TokComma) {
			break
		}
	}
	if err := p.expect(TokRBrace, ErrMsgExprExpectedRBrace); err != nil {
		return nil, err
	}
	return obj, nil
}

// Cursor helpers. The token slice always ends with TokEOF, so peek never
// runs past it and advance stops on it.

func (p *ExprParser) peek() ExprToken { return p.tokens[p.pos] }

func (p *ExprParser) previous() ExprToken {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *ExprParser) isAtEnd() bool { return p.peek().Type == TokEOF }

func (p *ExprParser) currentPos() int { return p.peek().Pos }

func (p *ExprParser) advance() ExprToken {
	tok := p.peek()
	if tok.Type != TokEOF {
		p.pos++
	}
	return tok
}

func (p *ExprParser) check(kind TokKind) bool {
	return kind != TokEOF && p.peek().Type == kind
}

// checkAt looks offset tokens ahead without consuming anything.
func (p *ExprParser) checkAt(offset int, kind TokKind) bool {
	i := p.pos + offset
	return i < len(p.tokens) && p.tokens[i].Type == kind
}

func (p *ExprParser) match(kind TokKind) bool {
	if !p.check(kind) {
		return false
	}
	p.pos++
	return true
}

// advanceIf consumes the current token when it is one of kinds and returns
// its kind, or TokEOF when nothing matched.
func (p *ExprParser) advanceIf(kinds ...TokKind) TokKind {
	for _, k := range kinds {
		if p.match(k) {
			return k
		}
	}
	return TokEOF
}

func (p *ExprParser) expect(kind TokKind, msg string) error {
	if p.match(kind) {
		return nil
	}
	return p.unexpected(msg)
}

func (p *ExprParser) unexpected(msg string) error {
	tok := p.peek()
	return newSyntaxError(msg, tok.Pos, tok.Value)
}

const (
	ErrMsgExprEmptyExpression  = "empty expression"
	ErrMsgExprUnexpectedToken  = "unexpected token"
	ErrMsgExprExpectedRParen   = "expected closing parenthesis"
	ErrMsgExprExpectedRBracket = "expected closing bracket"
	ErrMsgExprExpectedRBrace   = "expected closing brace"
	ErrMsgExprExpectedColon    = "expected colon"
	ErrMsgExprExpectedName     = "expected property name"
	ErrMsgExprInvalidKey       = "invalid object key"
	ErrMsgExprNotCallable      = "expression is not callable"
	ErrMsgExprUnexpectedEOF    = "unexpected end of expression"
)

// ParseExpression tokenizes and parses a single expression.
func ParseExpression(expr string) (ExprNode, error) {
	tokens, err := NewExprTokenizer(expr).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewExprParser(tokens).Parse()
}
