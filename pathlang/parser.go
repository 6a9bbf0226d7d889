package pathlang

import (
	"strconv"
	"strings"

	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Parse compiles a path expression string into a Path AST, per the
// grammar in spec.md §4.5.
func Parse(s string) (*Path, error) {
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tDollar {
		p.next()
	}
	segs, err := p.parseSegments(true)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tEOF {
		return nil, parseErr(p.peek().pos, "unexpected trailing input")
	}
	return &Path{Segments: segs}, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind) (token, error) {
	t := p.peek()
	if t.kind != k {
		return t, parseErr(t.pos, "unexpected token '"+t.text+"'")
	}
	return p.next(), nil
}

func parseErr(pos int, reason string) error {
	return tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "parse path", reason).WithLoc(0, pos)
}

func filterErr(pos int, reason string) error {
	return tonlerr.New(tonlerr.KindQuery, tonlerr.SubFilterSyntax, "parse filter", reason).WithLoc(0, pos)
}

// parseSegments parses Segment* — '.' field, '..' recursive, '[...]'
// brackets — optionally allowing a bare leading identifier with no dot
// (every spec example, e.g. "users[0].age", starts this way).
func (p *parser) parseSegments(allowLeadingIdent bool) ([]Seg, error) {
	var segs []Seg
	first := true
	for {
		tk := p.peek()
		switch tk.kind {
		case tDot:
			p.next()
			id, err := p.expect(tIdent)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Seg{Kind: SegField, Field: id.text})
		case tDotDot:
			p.next()
			if p.peek().kind == tStar {
				p.next()
				segs = append(segs, Seg{Kind: SegRecursive, Field: ""})
			} else {
				id, err := p.expect(tIdent)
				if err != nil {
					return nil, err
				}
				segs = append(segs, Seg{Kind: SegRecursive, Field: id.text})
			}
		case tLBracket:
			seg, err := p.parseBracketSegment()
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
		case tIdent:
			if first && allowLeadingIdent {
				p.next()
				segs = append(segs, Seg{Kind: SegField, Field: tk.text})
			} else {
				return segs, nil
			}
		default:
			return segs, nil
		}
		first = false
	}
}

func (p *parser) parseBracketSegment() (Seg, error) {
	if _, err := p.expect(tLBracket); err != nil {
		return Seg{}, err
	}
	if p.peek().kind == tStar {
		p.next()
		if _, err := p.expect(tRBracket); err != nil {
			return Seg{}, err
		}
		return Seg{Kind: SegWildcard}, nil
	}
	if p.peek().kind == tQuestion {
		p.next()
		if _, err := p.expect(tLParen); err != nil {
			return Seg{}, err
		}
		expr, err := p.parseFilterExpr()
		if err != nil {
			return Seg{}, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return Seg{}, err
		}
		if _, err := p.expect(tRBracket); err != nil {
			return Seg{}, err
		}
		return Seg{Kind: SegFilter, Filter: expr}, nil
	}

	var startPtr, endPtr, stepPtr *int
	neg := false
	if p.peek().text == "-" {
		// Lexer only emits a standalone '-' as part of tNumber; a bare
		// '-' here would be a lex error already, so this branch is
		// unreachable in practice and kept only for defensiveness.
		neg = true
		p.next()
	}
	_ = neg
	if p.peek().kind == tNumber {
		n, err := strconv.Atoi(p.peek().text)
		if err != nil {
			return Seg{}, parseErr(p.peek().pos, "invalid integer")
		}
		start := n
		startPtr = &start
		p.next()
	}
	isSlice := false
	if p.peek().kind == tColon {
		isSlice = true
		p.next()
		if p.peek().kind == tNumber {
			n, err := strconv.Atoi(p.peek().text)
			if err != nil {
				return Seg{}, parseErr(p.peek().pos, "invalid integer")
			}
			end := n
			endPtr = &end
			p.next()
		}
		if p.peek().kind == tColon {
			p.next()
			if p.peek().kind == tNumber {
				n, err := strconv.Atoi(p.peek().text)
				if err != nil {
					return Seg{}, parseErr(p.peek().pos, "invalid integer")
				}
				step := n
				stepPtr = &step
				p.next()
			}
		}
	}
	if _, err := p.expect(tRBracket); err != nil {
		return Seg{}, err
	}
	if isSlice {
		return Seg{Kind: SegSlice, SliceStart: startPtr, SliceEnd: endPtr, SliceStep: stepPtr}, nil
	}
	if startPtr == nil {
		return Seg{}, parseErr(p.peek().pos, "expected index, slice, '*' or filter inside '[...]'")
	}
	return Seg{Kind: SegIndex, Index: *startPtr}, nil
}

// parseFilterExpr parses the boolean expression grammar: OrExpr.
func (p *parser) parseFilterExpr() (*Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (*Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	clauses := []*Expr{left}
	for p.peek().kind == tOrOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, right)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return &Expr{Kind: ExprOr, Clauses: clauses}, nil
}

func (p *parser) parseAnd() (*Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	clauses := []*Expr{left}
	for p.peek().kind == tAndAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, right)
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return &Expr{Kind: ExprAnd, Clauses: clauses}, nil
}

func (p *parser) parseNot() (*Expr, error) {
	if p.peek().kind == tBang {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprNot, Inner: inner}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (*Expr, error) {
	if p.peek().kind == tLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tOp {
		return &Expr{Kind: ExprComparison, Left: left}, nil
	}
	op := CmpOp(p.next().text)
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	expr := &Expr{Kind: ExprComparison, Op: op, Left: left, Right: right}
	if op == OpBetween && p.peek().kind == tComma {
		p.next()
		rightB, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		expr.RightB = rightB
	}
	return expr, nil
}

func (p *parser) parseOperand() (*Operand, error) {
	tk := p.peek()
	switch tk.kind {
	case tAt:
		p.next()
		segs, err := p.parseSegments(false)
		if err != nil {
			return nil, err
		}
		return &Operand{Kind: OperandCurrent, Segments: segs}, nil
	case tDollar:
		p.next()
		segs, err := p.parseSegments(false)
		if err != nil {
			return nil, err
		}
		return &Operand{Kind: OperandRoot, Segments: segs}, nil
	case tString:
		p.next()
		return &Operand{Kind: OperandLiteral, Lit: value.Str(tk.text)}, nil
	case tNumber:
		p.next()
		return &Operand{Kind: OperandLiteral, Lit: parseNumberLiteral(tk.text)}, nil
	case tTrue:
		p.next()
		return &Operand{Kind: OperandLiteral, Lit: value.Bool(true)}, nil
	case tFalse:
		p.next()
		return &Operand{Kind: OperandLiteral, Lit: value.Bool(false)}, nil
	case tNull:
		p.next()
		return &Operand{Kind: OperandLiteral, Lit: value.Null()}, nil
	case tTemporal:
		p.next()
		tmp, err := parseTemporalLiteral(tk.text)
		if err != nil {
			return nil, err
		}
		return &Operand{Kind: OperandLiteral, Temporal: tmp}, nil
	default:
		return nil, filterErr(tk.pos, "expected operand ('@...', '$...', literal, or temporal)")
	}
}

func parseNumberLiteral(text string) value.Value {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return value.Int(i)
	}
	f, _ := strconv.ParseFloat(text, 64)
	return value.Float(f)
}

func parseTemporalLiteral(text string) (*Temporal, error) {
	switch text {
	case "now":
		return &Temporal{Kind: TemporalNow}, nil
	case "today":
		return &Temporal{Kind: TemporalToday}, nil
	case "yesterday":
		return &Temporal{Kind: TemporalYesterday}, nil
	case "tomorrow":
		return &Temporal{Kind: TemporalTomorrow}, nil
	}
	if strings.HasPrefix(text, "now") && len(text) > len("now") {
		rest := text[len("now"):]
		sign := 1
		switch rest[0] {
		case '-':
			sign = -1
			rest = rest[1:]
		case '+':
			rest = rest[1:]
		}
		j := 0
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j == 0 || j >= len(rest) {
			return nil, parseErr(0, "invalid relative temporal literal '"+text+"'")
		}
		amount, err := strconv.Atoi(rest[:j])
		if err != nil {
			return nil, parseErr(0, "invalid relative temporal amount")
		}
		return &Temporal{Kind: TemporalRelative, Sign: sign, Amount: amount, Unit: rest[j]}, nil
	}
	return &Temporal{Kind: TemporalAbsolute, ISO8601: text}, nil
}
