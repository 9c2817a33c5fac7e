package internal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TokKind identifies a lexical token of embedded code.
type TokKind uint8

const (
	TokEOF TokKind = iota
	TokIdent
	TokString
	TokNumber
	TokBool
	TokNull
	TokUndefined

	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokComma
	TokDot
	TokColon
	TokQuestion
	TokSemicolon
	TokAssign
	TokAddAssign
	TokArrow

	TokAnd
	TokOr
	TokNot
	TokEq
	TokNeq
	TokStrictEq
	TokStrictNeq
	TokLt
	TokGt
	TokLte
	TokGte
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent
)

var tokSpelling = [...]string{
	TokEOF:       "end of input",
	TokIdent:     "identifier",
	TokString:    "string",
	TokNumber:    "number",
	TokBool:      "boolean",
	TokNull:      ExprKeywordNull,
	TokUndefined: ExprKeywordUndefined,
	TokLParen:    "(",
	TokRParen:    ")",
	TokLBracket:  "[",
	TokRBracket:  "]",
	TokLBrace:    "{",
	TokRBrace:    "}",
	TokComma:     ",",
	TokDot:       ".",
	TokColon:     ":",
	TokQuestion:  "?",
	TokSemicolon: ";",
	TokAssign:    "=",
	TokAddAssign: "+=",
	TokArrow:     "=>",
	TokAnd:       "&&",
	TokOr:        "||",
	TokNot:       "!",
	TokEq:        "==",
	TokNeq:       "!=",
	TokStrictEq:  "===",
	TokStrictNeq: "!==",
	TokLt:        "<",
	TokGt:        ">",
	TokLte:       "<=",
	TokGte:       ">=",
	TokPlus:      "+",
	TokMinus:     "-",
	TokStar:      "*",
	TokSlash:     "/",
	TokPercent:   "%",
}

// String returns the source spelling for punctuation and a category name
// for everything else.
func (k TokKind) String() string {
	if int(k) < len(tokSpelling) {
		return tokSpelling[k]
	}
	return "token(" + strconv.Itoa(int(k)) + ")"
}

// punctuators is ordered longest first so "===" wins over "==" and "=".
var punctuators = []TokKind{
	TokStrictEq, TokStrictNeq,
	TokAnd, TokOr, TokEq, TokNeq, TokLte, TokGte, TokArrow, TokAddAssign,
	TokLParen, TokRParen, TokLBracket, TokRBracket, TokLBrace, TokRBrace,
	TokComma, TokDot, TokColon, TokQuestion, TokSemicolon, TokAssign,
	TokNot, TokLt, TokGt, TokPlus, TokMinus, TokStar, TokSlash, TokPercent,
}

const (
	ExprKeywordTrue      = "true"
	ExprKeywordFalse     = "false"
	ExprKeywordNull      = "null"
	ExprKeywordNil       = "nil"
	ExprKeywordUndefined = "undefined"
)

var keywordLiterals = map[string]ExprToken{
	ExprKeywordTrue:      {Type: TokBool, Literal: true},
	ExprKeywordFalse:     {Type: TokBool, Literal: false},
	ExprKeywordNull:      {Type: TokNull},
	ExprKeywordNil:       {Type: TokNull},
	ExprKeywordUndefined: {Type: TokUndefined, Literal: Undefined{}},
}

var simpleEscapes = map[byte]byte{
	'n': '\n',
	't': '\t',
	'r': '\r',
	'b': '\b',
	'f': '\f',
	'v': '\v',
	'0': 0,
}

// ExprToken is one lexeme. Literal carries the decoded value of string,
// number and keyword literals.
type ExprToken struct {
	Type    TokKind
	Value   string
	Pos     int
	Literal any
}

func (t ExprToken) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s %q", t.Type, t.Value)
}

// ExprTokenizer splits embedded code into tokens. Dotted names such as
// it.user.name come out as a single identifier.
type ExprTokenizer struct {
	src string
	off int
}

func NewExprTokenizer(input string) *ExprTokenizer {
	return &ExprTokenizer{src: input}
}

// Tokenize scans the whole input. The result always ends with TokEOF.
func (t *ExprTokenizer) Tokenize() ([]ExprToken, error) {
	var out []ExprToken
	for {
		if err := t.skipTrivia(); err != nil {
			return nil, err
		}
		if t.off >= len(t.src) {
			return append(out, ExprToken{Type: TokEOF, Pos: t.off}), nil
		}
		tok, err := t.scan()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
}

func (t *ExprTokenizer) scan() (ExprToken, error) {
	c := t.src[t.off]
	switch {
	case c == '"' || c == '\'':
		return t.scanString(c)
	case isDigitByte(c), c == '.' && isDigitByte(t.at(t.off+1)):
		return t.scanNumber()
	case isIdentStart(c):
		return t.scanName(), nil
	}

	rest := t.src[t.off:]
	for _, kind := range punctuators {
		if p := tokSpelling[kind]; strings.HasPrefix(rest, p) {
			tok := ExprToken{Type: kind, Value: p, Pos: t.off}
			t.off += len(p)
			return tok, nil
		}
	}
	return ExprToken{}, newSyntaxError(ErrMsgExprUnexpectedChar, t.off, string(c))
}

func (t *ExprTokenizer) at(i int) byte {
	if i < len(t.src) {
		return t.src[i]
	}
	return 0
}

func (t *ExprTokenizer) scanString(quote byte) (ExprToken, error) {
	start := t.off
	var sb strings.Builder
	for i := start + 1; i < len(t.src); i++ {
		c := t.src[i]
		switch {
		case c == quote:
			t.off = i + 1
			s := sb.String()
			return ExprToken{Type: TokString, Value: s, Pos: start, Literal: s}, nil
		case c == CharNewline:
			return ExprToken{}, newSyntaxError(ErrMsgExprUnterminatedStr, start, "")
		case c != '\\' || i+1 >= len(t.src):
			sb.WriteByte(c)
			continue
		}

		i++
		esc := t.src[i]
		if r, ok := simpleEscapes[esc]; ok {
			sb.WriteByte(r)
			continue
		}
		if esc == 'u' && i+4 < len(t.src) {
			if code, err := strconv.ParseUint(t.src[i+1:i+5], 16, 32); err == nil {
				sb.WriteRune(rune(code))
				i += 4
				continue
			}
		}
		sb.WriteByte(esc)
	}
	return ExprToken{}, newSyntaxError(ErrMsgExprUnterminatedStr, start, "")
}

// scanNumber reads decimal literals with an optional fraction and exponent.
func (t *ExprTokenizer) scanNumber() (ExprToken, error) {
	start := t.off
	end := start
	digits := func() {
		for isDigitByte(t.at(end)) {
			end++
		}
	}

	digits()
	if t.at(end) == '.' && isDigitByte(t.at(end+1)) {
		end++
		digits()
	}
	if e := t.at(end); e == 'e' || e == 'E' {
		mark := end
		end++
		if s := t.at(end); s == '+' || s == '-' {
			end++
		}
		if isDigitByte(t.at(end)) {
			digits()
		} else {
			end = mark
		}
	}

	text := t.src[start:end]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return ExprToken{}, newSyntaxError(ErrMsgExprInvalidNumber, start, text)
	}
	t.off = end
	return ExprToken{Type: TokNumber, Value: text, Pos: start, Literal: f}, nil
}

func (t *ExprTokenizer) scanName() ExprToken {
	start := t.off
	for t.off < len(t.src) {
		c := t.src[t.off]
		if c == '.' && isIdentStart(t.at(t.off+1)) {
			t.off++
			continue
		}
		if !isIdentStart(c) && !isDigitByte(c) {
			break
		}
		t.off++
	}

	name := t.src[start:t.off]
	if kw, ok := keywordLiterals[name]; ok {
		kw.Value, kw.Pos = name, start
		return kw
	}
	return ExprToken{Type: TokIdent, Value: name, Pos: start}
}

// skipTrivia steps over whitespace and both comment forms.
func (t *ExprTokenizer) skipTrivia() error {
	for t.off < len(t.src) {
		rest := t.src[t.off:]
		switch {
		case unicode.IsSpace(rune(rest[0])):
			t.off++
		case strings.HasPrefix(rest, "//"):
			if nl := strings.IndexByte(rest, CharNewline); nl >= 0 {
				t.off += nl + 1
			} else {
				t.off = len(t.src)
			}
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return newSyntaxError(ErrMsgExprUnterminatedCmt, t.off, "")
			}
			t.off += end + 4
		default:
			return nil
		}
	}
	return nil
}

func isDigitByte(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$' || ch >= 0x80
}

// SyntaxError is returned by the expression lexer and parser. Pos is a
// byte offset into the code fragment.
type SyntaxError struct {
	Msg  string
	Pos  int
	Near string
}

func newSyntaxError(msg string, pos int, near string) *SyntaxError {
	return &SyntaxError{Msg: msg, Pos: pos, Near: near}
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%s at offset %d", e.Msg, e.Pos)
	}
	return fmt.Sprintf("%s at offset %d near %q", e.Msg, e.Pos, e.Near)
}

const (
	ErrMsgExprUnexpectedChar  = "unexpected character"
	ErrMsgExprUnterminatedStr = "unterminated string literal"
	ErrMsgExprUnterminatedCmt = "unterminated block comment"
	ErrMsgExprInvalidNumber   = "invalid number format"
)
