package pathlang

import "testing"

func TestParseSimpleFieldPath(t *testing.T) {
	p, err := Parse("users.name")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(p.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(p.Segments))
	}
	if p.Segments[0].Kind != SegField || p.Segments[0].Field != "users" {
		t.Fatalf("unexpected first segment: %+v", p.Segments[0])
	}
	if p.Segments[1].Kind != SegField || p.Segments[1].Field != "name" {
		t.Fatalf("unexpected second segment: %+v", p.Segments[1])
	}
}

func TestParseIndexSegment(t *testing.T) {
	p, err := Parse("users[0].age")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(p.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(p.Segments))
	}
	if p.Segments[1].Kind != SegIndex || p.Segments[1].Index != 0 {
		t.Fatalf("unexpected index segment: %+v", p.Segments[1])
	}
}

func TestParseNegativeIndex(t *testing.T) {
	p, err := Parse("users[-1]")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	seg := p.Segments[1]
	if seg.Kind != SegIndex || seg.Index != -1 {
		t.Fatalf("unexpected segment: %+v", seg)
	}
}

func TestParseSlice(t *testing.T) {
	p, err := Parse("users[1:3]")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	seg := p.Segments[1]
	if seg.Kind != SegSlice {
		t.Fatalf("expected slice segment, got %+v", seg)
	}
	if seg.SliceStart == nil || *seg.SliceStart != 1 {
		t.Fatalf("unexpected slice start: %+v", seg.SliceStart)
	}
	if seg.SliceEnd == nil || *seg.SliceEnd != 3 {
		t.Fatalf("unexpected slice end: %+v", seg.SliceEnd)
	}
}

func TestParseWildcard(t *testing.T) {
	p, err := Parse("users[*].name")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Segments[1].Kind != SegWildcard {
		t.Fatalf("expected wildcard segment, got %+v", p.Segments[1])
	}
}

func TestParseRecursive(t *testing.T) {
	p, err := Parse("..name")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if p.Segments[0].Kind != SegRecursive || p.Segments[0].Field != "name" {
		t.Fatalf("unexpected segment: %+v", p.Segments[0])
	}
}

func TestParseFilterComparisonAndLogical(t *testing.T) {
	p, err := Parse(`users[?(@.age > 25 && @.role == "admin")]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	seg := p.Segments[1]
	if seg.Kind != SegFilter {
		t.Fatalf("expected filter segment, got %+v", seg)
	}
	expr := seg.Filter
	if expr.Kind != ExprAnd {
		t.Fatalf("expected top-level AND, got kind %v", expr.Kind)
	}
	if len(expr.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(expr.Clauses))
	}
	left := expr.Clauses[0]
	if left.Kind != ExprComparison || left.Op != OpGt {
		t.Fatalf("unexpected left clause: %+v", left)
	}
	if left.Left.Kind != OperandCurrent || left.Left.Segments[0].Field != "age" {
		t.Fatalf("unexpected left operand: %+v", left.Left)
	}
	right := expr.Clauses[1]
	if right.Op != OpEq {
		t.Fatalf("unexpected right clause op: %v", right.Op)
	}
	s, _ := right.Right.Lit.Str()
	if s != "admin" {
		t.Fatalf("expected admin literal, got %q", s)
	}
}

func TestParseFilterNot(t *testing.T) {
	p, err := Parse(`items[?(!(@.active == true))]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Kind != ExprNot {
		t.Fatalf("expected NOT, got %+v", expr)
	}
}

func TestParseFilterStringOp(t *testing.T) {
	p, err := Parse(`items[?(@.name contains "foo")]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Op != OpContains {
		t.Fatalf("expected contains op, got %v", expr.Op)
	}
}

func TestParseFilterFuzzyOp(t *testing.T) {
	p, err := Parse(`items[?(@.name ~= "jon")]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Op != OpFuzzyEq {
		t.Fatalf("expected fuzzy-eq op, got %v", expr.Op)
	}
}

func TestParseFilterTemporalNow(t *testing.T) {
	p, err := Parse(`events[?(@.timestamp before @now)]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Op != OpBefore {
		t.Fatalf("expected before op, got %v", expr.Op)
	}
	if expr.Right.Temporal == nil || expr.Right.Temporal.Kind != TemporalNow {
		t.Fatalf("expected TemporalNow, got %+v", expr.Right.Temporal)
	}
}

func TestParseFilterTemporalRelative(t *testing.T) {
	p, err := Parse(`events[?(@.timestamp after @now+3d)]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	tmp := expr.Right.Temporal
	if tmp == nil || tmp.Kind != TemporalRelative {
		t.Fatalf("expected TemporalRelative, got %+v", tmp)
	}
	if tmp.Sign != 1 || tmp.Amount != 3 || tmp.Unit != 'd' {
		t.Fatalf("unexpected relative temporal: %+v", tmp)
	}
}

func TestParseFilterTemporalAbsolute(t *testing.T) {
	p, err := Parse(`events[?(@.timestamp after @2024-01-01)]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	tmp := expr.Right.Temporal
	if tmp == nil || tmp.Kind != TemporalAbsolute || tmp.ISO8601 != "2024-01-01" {
		t.Fatalf("unexpected absolute temporal: %+v", tmp)
	}
}

func TestParseFilterBetween(t *testing.T) {
	p, err := Parse(`items[?(@.price between 10, 20)]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Op != OpBetween {
		t.Fatalf("expected between op, got %v", expr.Op)
	}
	if expr.Right == nil || expr.RightB == nil {
		t.Fatalf("expected both bounds set, got %+v / %+v", expr.Right, expr.RightB)
	}
	lo, _ := expr.Right.Lit.Int()
	hi, _ := expr.RightB.Lit.Int()
	if lo != 10 || hi != 20 {
		t.Fatalf("unexpected bounds: %d, %d", lo, hi)
	}
}

func TestParseBareExistenceComparison(t *testing.T) {
	p, err := Parse(`items[?(@.optional)]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Kind != ExprComparison || expr.Op != "" {
		t.Fatalf("expected bare existence comparison, got %+v", expr)
	}
}

func TestParseRootOperand(t *testing.T) {
	p, err := Parse(`items[?(@.total == $.config.max)]`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	expr := p.Segments[1].Filter
	if expr.Right.Kind != OperandRoot {
		t.Fatalf("expected root operand, got %+v", expr.Right)
	}
	if expr.Right.Segments[1].Field != "max" {
		t.Fatalf("unexpected root segments: %+v", expr.Right.Segments)
	}
}

func TestParseInvalidTrailingInput(t *testing.T) {
	if _, err := Parse("users..."); err == nil {
		t.Fatal("expected parse error for malformed path")
	}
}
