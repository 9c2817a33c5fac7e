package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// MarkerKind identifies one of the tag markers derived from the delimiter
type MarkerKind int

// Marker kinds in matching precedence order. When several markers start at the
// same offset the first one listed wins, so literal markers shadow the plain
// open and close markers.
const (
	MarkerNone MarkerKind = iota
	MarkerOpenLiteral
	MarkerCloseLiteral
	MarkerOpenEscaped
	MarkerOpenRaw
	MarkerOpenSlurp
	MarkerOpenComment
	MarkerOpen
	MarkerClose
	MarkerCloseTrim
	MarkerCloseSlurp
)

// Marker kind names for debugging
const (
	MarkerNameNone         = "NONE"
	MarkerNameOpenLiteral  = "OPEN_LITERAL"
	MarkerNameCloseLiteral = "CLOSE_LITERAL"
	MarkerNameOpenEscaped  = "OPEN_ESCAPED"
	MarkerNameOpenRaw      = "OPEN_RAW"
	MarkerNameOpenSlurp    = "OPEN_SLURP"
	MarkerNameOpenComment  = "OPEN_COMMENT"
	MarkerNameOpen         = "OPEN"
	MarkerNameClose        = "CLOSE"
	MarkerNameCloseTrim    = "CLOSE_TRIM"
	MarkerNameCloseSlurp   = "CLOSE_SLURP"
)

// String returns the string representation of the marker kind
func (k MarkerKind) String() string {
	switch k {
	case MarkerOpenLiteral:
		return MarkerNameOpenLiteral
	case MarkerCloseLiteral:
		return MarkerNameCloseLiteral
	case MarkerOpenEscaped:
		return MarkerNameOpenEscaped
	case MarkerOpenRaw:
		return MarkerNameOpenRaw
	case MarkerOpenSlurp:
		return MarkerNameOpenSlurp
	case MarkerOpenComment:
		return MarkerNameOpenComment
	case MarkerOpen:
		return MarkerNameOpen
	case MarkerClose:
		return MarkerNameClose
	case MarkerCloseTrim:
		return MarkerNameCloseTrim
	case MarkerCloseSlurp:
		return MarkerNameCloseSlurp
	default:
		return MarkerNameNone
	}
}

// IsOpen reports whether the marker opens a tag that needs a matching close.
// The literal-open marker is excluded: it never needs one.
func (k MarkerKind) IsOpen() bool {
	switch k {
	case MarkerOpen, MarkerOpenEscaped, MarkerOpenRaw, MarkerOpenSlurp, MarkerOpenComment:
		return true
	}
	return false
}

// IsClose reports whether the marker closes a tag
func (k MarkerKind) IsClose() bool {
	return k == MarkerClose || k == MarkerCloseTrim || k == MarkerCloseSlurp
}

// Marker is a concrete marker string of a tag set
type Marker struct {
	Kind MarkerKind
	Text string
}

// TagSet holds every marker string derived from a single delimiter character
type TagSet struct {
	Delimiter rune
	markers   []Marker
	byKind    map[MarkerKind]string

	slurpOpen  *regexp.Regexp
	slurpClose *regexp.Regexp
}

// NewTagSet derives the marker set for the given delimiter
func NewTagSet(delim rune) *TagSet {
	d := string(delim)
	open := string(CharTagOpen) + d
	closing := d + string(CharTagClose)

	markers := []Marker{
		{Kind: MarkerOpenLiteral, Text: open + d},
		{Kind: MarkerCloseLiteral, Text: d + closing},
		{Kind: MarkerOpenEscaped, Text: open + string(CharEscaped)},
		{Kind: MarkerOpenRaw, Text: open + string(CharRaw)},
		{Kind: MarkerOpenSlurp, Text: open + string(CharSlurp)},
		{Kind: MarkerOpenComment, Text: open + string(CharComment)},
		{Kind: MarkerOpen, Text: open},
		{Kind: MarkerClose, Text: closing},
		{Kind: MarkerCloseTrim, Text: string(CharTrim) + closing},
		{Kind: MarkerCloseSlurp, Text: string(CharSlurp) + closing},
	}

	byKind := make(map[MarkerKind]string, len(markers))
	for _, m := range markers {
		byKind[m.Kind] = m.Text
	}

	return &TagSet{
		Delimiter:  delim,
		markers:    markers,
		byKind:     byKind,
		slurpOpen:  regexp.MustCompile(`[ \t]*` + regexp.QuoteMeta(byKind[MarkerOpenSlurp])),
		slurpClose: regexp.MustCompile(regexp.QuoteMeta(byKind[MarkerCloseSlurp]) + `[ \t]*`),
	}
}

// Text returns the marker string for a kind
func (s *TagSet) Text(kind MarkerKind) string {
	return s.byKind[kind]
}

// OpenTag returns the plain open-tag string (e.g. "<%")
func (s *TagSet) OpenTag() string {
	return s.byKind[MarkerOpen]
}

// CloseTag returns the plain close-tag string (e.g. "%>")
func (s *TagSet) CloseTag() string {
	return s.byKind[MarkerClose]
}

// Match returns the first marker, in precedence order, that starts at offset i
func (s *TagSet) Match(src string, i int) (Marker, bool) {
	rest := src[i:]
	for _, m := range s.markers {
		if strings.HasPrefix(rest, m.Text) {
			return m, true
		}
	}
	return Marker{}, false
}

// Widen makes the slurp markers absorb adjacent horizontal whitespace
func (s *TagSet) Widen(src string) string {
	src = s.slurpOpen.ReplaceAllLiteralString(src, s.byKind[MarkerOpenSlurp])
	return s.slurpClose.ReplaceAllLiteralString(src, s.byKind[MarkerCloseSlurp])
}

// String returns a debugging representation of the tag set
func (s *TagSet) String() string {
	return fmt.Sprintf("TagSet(%q)", string(s.Delimiter))
}
