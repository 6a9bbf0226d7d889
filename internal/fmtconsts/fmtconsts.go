// Package fmtconsts holds the TONL grammar constants shared by the
// decode and encode packages: delimiter set, directive prefixes, quoting
// markers. Centralizing these avoids the two packages drifting apart on
// what the wire grammar actually is.
package fmtconsts

// Delimiter is one of the four legal field separators (spec §6).
type Delimiter byte

const (
	DelimComma Delimiter = ','
	DelimPipe  Delimiter = '|'
	DelimTab   Delimiter = '\t'
	DelimSemi  Delimiter = ';'
)

// Delimiters lists all candidates in the tie-break order used by smart
// delimiter selection (§4.2: "ties broken in the listed order").
var Delimiters = []Delimiter{DelimComma, DelimPipe, DelimTab, DelimSemi}

func (d Delimiter) Byte() byte { return byte(d) }

func (d Delimiter) Name() string {
	switch d {
	case DelimComma:
		return "comma"
	case DelimPipe:
		return "pipe"
	case DelimTab:
		return "tab"
	case DelimSemi:
		return "semicolon"
	default:
		return "unknown"
	}
}

// ParseDelimiterName resolves a directive value ("comma", "|", "\t", ...)
// to a Delimiter. Accepts either the raw character or its name.
func ParseDelimiterName(s string) (Delimiter, bool) {
	switch s {
	case ",", "comma":
		return DelimComma, true
	case "|", "pipe":
		return DelimPipe, true
	case "\t", "tab":
		return DelimTab, true
	case ";", "semicolon", "semi":
		return DelimSemi, true
	default:
		return 0, false
	}
}

const (
	VersionDirectivePrefix   = "#version"
	DelimiterDirectivePrefix = "#delimiter"
	DefaultVersionString     = "1.0"

	Quote       = '"'
	TripleQuote = `"""`
	Escape      = '\\'

	HeaderColon      = ':'
	HeaderOpenCount  = '['
	HeaderCloseCount = ']'
	HeaderOpenCols   = '{'
	HeaderCloseCols  = '}'

	InlineListOpen  = '['
	InlineListClose = ']'

	TypeHintSep = ':'
	ColumnSep   = ','

	IndentUnit = "  " // two spaces per nesting level, matching S1/S2 examples
)

// TypeHints is the set recognized in column/field annotations (§3).
var TypeHints = map[string]bool{
	"null": true, "bool": true, "u32": true, "i32": true,
	"f64": true, "str": true, "list": true, "obj": true,
}
