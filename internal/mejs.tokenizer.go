package internal

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Position represents a location in the normalized template source
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// TokenType distinguishes text runs from markers
type TokenType int

// Token type constants
const (
	TokenTypeText TokenType = iota
	TokenTypeMarker
)

// Token is either a run of text or one marker of the tag set
type Token struct {
	Type     TokenType
	Marker   MarkerKind // MarkerNone for text tokens
	Value    string
	Position Position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Type == TokenTypeText {
		return fmt.Sprintf("Token{TEXT: %q @ %s}", t.Value, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Marker, t.Value, t.Position)
}

// IsMarker reports whether the token is a marker of the given kind
func (t Token) IsMarker(kind MarkerKind) bool {
	return t.Type == TokenTypeMarker && t.Marker == kind
}

var (
	reWhitespaceEdges = regexp.MustCompile(`(?m)^\s+|\s+$`)
)

// TokenizerConfig holds tokenizer configuration
type TokenizerConfig struct {
	Tags         *TagSet
	RmWhitespace bool
}

// Tokenizer splits template source into text runs and markers
type Tokenizer struct {
	source string
	config TokenizerConfig
	pos    int
	line   int
	column int
	logger *zap.Logger
}

// NewTokenizer creates a tokenizer for the given source
func NewTokenizer(source string, config TokenizerConfig, logger *zap.Logger) *Tokenizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Tags == nil {
		config.Tags = NewTagSet(DefaultDelimiter)
	}
	return &Tokenizer{
		source: source,
		config: config,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Normalize applies the whitespace pre-pass: with RmWhitespace every carriage
// return is dropped and each line is stripped, and slurp markers always swallow
// adjacent spaces and tabs.
func (t *Tokenizer) Normalize(src string) string {
	if t.config.RmWhitespace {
		src = strings.ReplaceAll(src, string(CharCarriageRet), "")
		src = reWhitespaceEdges.ReplaceAllString(src, "")
	}
	return t.config.Tags.Widen(src)
}

// Tokenize returns the ordered token sequence. Once an opening marker has been
// seen, the next marker must be a close marker; otherwise scanning stops and a
// TagError naming the opening marker is returned.
func (t *Tokenizer) Tokenize() ([]Token, error) {
	t.logger.Debug(LogMsgTokenizerStart,
		zap.Int(LogFieldSource, len(t.source)),
		zap.String(LogFieldDelimiter, string(t.config.Tags.Delimiter)))

	src := t.Normalize(t.source)
	t.source = src
	t.pos, t.line, t.column = 0, 1, 1

	var tokens []Token
	var opening Token
	pending := false
	textStart := t.currentPosition()

	i := 0
	for i < len(src) {
		m, ok := t.config.Tags.Match(src, i)
		if !ok {
			i++
			continue
		}

		if pending {
			if !m.Kind.IsClose() {
				break
			}
			pending = false
		}

		if i > textStart.Offset {
			tokens = append(tokens, Token{Type: TokenTypeText, Value: src[textStart.Offset:i], Position: textStart})
		}
		t.advanceTo(i)
		tok := Token{Type: TokenTypeMarker, Marker: m.Kind, Value: m.Text, Position: t.currentPosition()}
		tokens = append(tokens, tok)
		if m.Kind.IsOpen() {
			opening, pending = tok, true
		}

		i += len(m.Text)
		t.advanceTo(i)
		textStart = t.currentPosition()
	}

	if pending {
		return nil, NewTagError(opening.Value, opening.Position)
	}

	if textStart.Offset < len(src) {
		tokens = append(tokens, Token{Type: TokenTypeText, Value: src[textStart.Offset:], Position: textStart})
	}

	t.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

func (t *Tokenizer) currentPosition() Position {
	return Position{Offset: t.pos, Line: t.line, Column: t.column}
}

// advanceTo moves the cursor forward to offset, tracking lines and columns
func (t *Tokenizer) advanceTo(offset int) {
	for t.pos < offset && t.pos < len(t.source) {
		if t.source[t.pos] == CharNewline {
			t.line++
			t.column = 1
		} else {
			t.column++
		}
		t.pos++
	}
}

// TagError reports an opening marker without a matching close marker
type TagError struct {
	Marker   string
	Position Position
}

// NewTagError creates a new unterminated-tag error
func NewTagError(marker string, pos Position) *TagError {
	return &TagError{Marker: marker, Position: pos}
}

// Error implements the error interface
func (e *TagError) Error() string {
	return fmt.Sprintf(ErrFmtUnterminatedTag, e.Marker) + " at " + e.Position.String()
}

// Error message constants for the tokenizer
const (
	ErrFmtUnterminatedTag = "could not find matching close tag for %q"
)
