// Package pathlang tokenizes and parses the JSONPath-like path expression
// language of spec.md §4.5 into an AST: a Path is a root-relative list of
// Segments, and a Filter segment carries a boolean FilterExpr tree.
// Grounded on pkg/ast/tree.go's splitPath, generalized from a flat
// backslash-split into a full grammar; the filter expression's
// precedence-climbing recursive descent follows the same shape the
// teacher's internal/regtext/parser.go uses for its own line grammar.
package pathlang

import "github.com/tonl-io/tonl/value"

// SegKind tags a Path segment's grammar production.
type SegKind uint8

const (
	SegField SegKind = iota
	SegIndex
	SegSlice
	SegWildcard
	SegRecursive
	SegFilter
)

// Seg is one path segment.
type Seg struct {
	Kind SegKind

	Field string // SegField name; SegRecursive field name ("" = "..*")

	Index int // SegIndex, negative = from end

	SliceStart *int // SegSlice
	SliceEnd   *int
	SliceStep  *int

	Filter *Expr // SegFilter
}

// Path is ordered list of segments relative to some root node set.
type Path struct {
	Segments []Seg
}

// ExprKind tags a FilterExpr tree node.
type ExprKind uint8

const (
	ExprOr ExprKind = iota
	ExprAnd
	ExprNot
	ExprComparison
)

// CmpOp is one of the comparison/string/fuzzy/temporal operators from the
// grammar's CmpOp production.
type CmpOp string

const (
	OpEq   CmpOp = "=="
	OpNe   CmpOp = "!="
	OpGt   CmpOp = ">"
	OpLt   CmpOp = "<"
	OpGe   CmpOp = ">="
	OpLe   CmpOp = "<="

	OpContains   CmpOp = "contains"
	OpStartsWith CmpOp = "startsWith"
	OpEndsWith   CmpOp = "endsWith"
	OpMatches    CmpOp = "matches"

	OpFuzzyEq         CmpOp = "~="
	OpFuzzyContains   CmpOp = "~contains"
	OpFuzzyStartsWith CmpOp = "~startsWith"
	OpFuzzyEndsWith   CmpOp = "~endsWith"
	OpFuzzyMatch      CmpOp = "fuzzyMatch"
	OpSoundsLike      CmpOp = "soundsLike"
	OpSimilar         CmpOp = "similar"

	OpBefore  CmpOp = "before"
	OpAfter   CmpOp = "after"
	OpBetween CmpOp = "between"

	OpDaysAgo   CmpOp = "daysAgo"
	OpWeeksAgo  CmpOp = "weeksAgo"
	OpMonthsAgo CmpOp = "monthsAgo"
	OpYearsAgo  CmpOp = "yearsAgo"

	OpSameDay   CmpOp = "sameDay"
	OpSameWeek  CmpOp = "sameWeek"
	OpSameMonth CmpOp = "sameMonth"
	OpSameYear  CmpOp = "sameYear"
)

// Expr is a FilterExpr tree node (tagged union over Or/And/Not/Comparison,
// consistent with value.Value's own tagged-union shape).
type Expr struct {
	Kind ExprKind

	Clauses []*Expr // ExprOr / ExprAnd
	Inner   *Expr   // ExprNot

	// ExprComparison: Left is always present. Right and Op are absent for
	// a bare-operand existence test (grammar's `Comparison := Operand
	// (CmpOp Operand)?`).
	Op    CmpOp
	Left  *Operand
	Right *Operand
	// RightB is a second right-hand operand, used only by the ternary
	// `between` operator (lo, hi).
	RightB *Operand
}

// OperandKind tags an Operand production.
type OperandKind uint8

const (
	OperandCurrent OperandKind = iota // '@' Segment*
	OperandRoot                       // '$' Segment*
	OperandLiteral
)

// TemporalKind distinguishes the TemporalLiteral productions.
type TemporalKind uint8

const (
	TemporalNone TemporalKind = iota
	TemporalNow
	TemporalToday
	TemporalYesterday
	TemporalTomorrow
	TemporalRelative // '@now' ('+'|'-') Integer Unit
	TemporalAbsolute // '@' ISO8601
)

// Temporal carries a parsed TemporalLiteral. Relative forms are resolved
// at evaluation time against a single "now" instant per query (§4.5:
// "must be monotonic within a single query evaluation").
type Temporal struct {
	Kind     TemporalKind
	Sign     int    // +1 or -1, for TemporalRelative
	Amount   int    // for TemporalRelative
	Unit     byte   // 'Y','M','w','d','h','m','s' (case matters: M=month, m=minute)
	ISO8601  string // for TemporalAbsolute
}

// Operand is one side of a Comparison: a path relative to @ or $, or a
// literal (including temporal literals).
type Operand struct {
	Kind     OperandKind
	Segments []Seg // OperandCurrent / OperandRoot

	Lit      value.Value // OperandLiteral, non-temporal
	Temporal *Temporal   // OperandLiteral, temporal
}
