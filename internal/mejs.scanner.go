package internal

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Mode is the state of the scanner between tokens
type Mode int

// Scanner modes
const (
	ModeNone Mode = iota
	ModeEval
	ModeEscaped
	ModeRaw
	ModeComment
	ModeLiteral
)

// Mode names for debugging
const (
	ModeNameNone    = "NONE"
	ModeNameEval    = "EVAL"
	ModeNameEscaped = "ESCAPED"
	ModeNameRaw     = "RAW"
	ModeNameComment = "COMMENT"
	ModeNameLiteral = "LITERAL"
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeEval:
		return ModeNameEval
	case ModeEscaped:
		return ModeNameEscaped
	case ModeRaw:
		return ModeNameRaw
	case ModeComment:
		return ModeNameComment
	case ModeLiteral:
		return ModeNameLiteral
	default:
		return ModeNameNone
	}
}

var (
	reLeadingLinebreak = regexp.MustCompile(`^(?:\r\n|\r|\n)`)
	reTrailingSemicol  = regexp.MustCompile(`;\s*$`)
)

// Scanner walks a token sequence and emits a Program
type Scanner struct {
	tokens       []Token
	tags         *TagSet
	rmWhitespace bool

	mode     Mode
	truncate bool
	line     int

	program *Program
	logger  *zap.Logger
}

// NewScanner creates a scanner over tokens produced with the same config
func NewScanner(tokens []Token, config TokenizerConfig, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Tags == nil {
		config.Tags = NewTagSet(DefaultDelimiter)
	}
	return &Scanner{
		tokens:       tokens,
		tags:         config.Tags,
		rmWhitespace: config.RmWhitespace,
		line:         1,
		logger:       logger,
	}
}

// Scan runs the mode state machine over every token
func (s *Scanner) Scan() *Program {
	s.logger.Debug(LogMsgScannerStart, zap.Int(LogFieldTokens, len(s.tokens)))

	s.program = &Program{}
	s.mode = ModeNone
	s.truncate = false

	for _, tok := range s.tokens {
		s.line = tok.Position.Line
		if tok.Type == TokenTypeMarker {
			s.scanMarker(tok)
			continue
		}
		s.scanText(tok.Value)
	}

	s.logger.Debug(LogMsgScannerEnd,
		zap.Int(LogFieldInstructions, s.program.Len()),
		zap.Bool(LogFieldUsesInclude, s.program.UsesInclude))
	return s.program
}

// Mode returns the current mode, for inspection after Scan
func (s *Scanner) Mode() Mode {
	return s.mode
}

func (s *Scanner) scanMarker(tok Token) {
	switch tok.Marker {
	case MarkerOpen, MarkerOpenSlurp:
		s.mode = ModeEval
	case MarkerOpenEscaped:
		s.mode = ModeEscaped
	case MarkerOpenRaw:
		s.mode = ModeRaw
	case MarkerOpenComment:
		s.mode = ModeComment
	case MarkerOpenLiteral:
		s.mode = ModeLiteral
		s.program.emit(OpAppendLiteral, s.tags.OpenTag(), s.line)
	case MarkerCloseLiteral:
		s.mode = ModeLiteral
		s.program.emit(OpAppendLiteral, s.tags.CloseTag(), s.line)
	case MarkerClose, MarkerCloseTrim, MarkerCloseSlurp:
		if s.mode == ModeLiteral {
			s.addOutput(tok.Value)
		}
		s.mode = ModeNone
		s.truncate = tok.Marker == MarkerCloseTrim || tok.Marker == MarkerCloseSlurp
	}
}

func (s *Scanner) scanText(text string) {
	switch s.mode {
	case ModeNone, ModeLiteral:
		s.addOutput(text)
	case ModeEval:
		s.program.emit(OpExecute, terminateLineComment(text), s.line)
	case ModeEscaped, ModeRaw:
		expr := reTrailingSemicol.ReplaceAllString(terminateLineComment(text), "")
		expr = strings.TrimSpace(expr)
		if expr == "" {
			return
		}
		op := OpAppendEscaped
		if s.mode == ModeRaw {
			op = OpAppendRaw
		}
		s.program.emit(op, expr, s.line)
	case ModeComment:
		// dropped
	}
}

// addOutput applies the newline trim rule and emits a literal
func (s *Scanner) addOutput(text string) {
	if s.truncate {
		text = reLeadingLinebreak.ReplaceAllString(text, "")
		s.truncate = false
	} else if s.rmWhitespace {
		text = strings.TrimPrefix(text, StrNewline)
	}
	if text == "" {
		return
	}
	s.program.emit(OpAppendLiteral, text, s.line)
}

// terminateLineComment appends a newline when the fragment ends inside a
// line comment, so generated code after it is not commented out.
func terminateLineComment(code string) string {
	if strings.LastIndex(code, StrLineComment) > strings.LastIndex(code, StrNewline) {
		return code + StrNewline
	}
	return code
}
