// Package query evaluates pathlang path expressions against a
// value.Value tree: segment-by-segment traversal (field/index/slice/
// wildcard/recursive descent), filter-expression evaluation over
// comparison/string/fuzzy/temporal operators, and an LRU result cache
// keyed on (path text, document version). Grounded on the teacher's
// hive/walker package for the iterative-traversal idiom (explicit
// frontier slices rather than unbounded goroutine fan-out) and on
// termfx-morfx/internal/core/fuzzy.go's scoring style for the fuzzy
// operators; the LRU itself is github.com/hashicorp/golang-lru/v2,
// the same cache family hashicorp tooling throughout the retrieval
// pack depends on.
package query

import (
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tonl-io/tonl/fuzzy"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/pathlang"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/tregex"
	"github.com/tonl-io/tonl/value"
)

// Engine evaluates path expressions against documents, caching results
// by (path text, version).
type Engine struct {
	lim   limits.Limits
	cache *lru.Cache[cacheKey, []value.Value]
	hits  int64
	misses int64
}

type cacheKey struct {
	path    string
	version int64
}

// NewEngine builds a query engine with an LRU cache sized by
// lim.QueryCacheCapacity.
func NewEngine(lim limits.Limits) (*Engine, error) {
	c, err := lru.New[cacheKey, []value.Value](lim.QueryCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("query: building result cache: %w", err)
	}
	return &Engine{lim: lim, cache: c}, nil
}

// Stats reports cache hit/miss counters.
type Stats struct {
	Hits   int64
	Misses int64
}

func (e *Engine) Stats() Stats { return Stats{Hits: e.hits, Misses: e.misses} }

// Query evaluates pathExpr against root (version is the document's
// mutation counter, used as the second half of the cache key), returning
// every matching node.
func (e *Engine) Query(root value.Value, version int64, pathExpr string) ([]value.Value, error) {
	key := cacheKey{path: pathExpr, version: version}
	if v, ok := e.cache.Get(key); ok {
		e.hits++
		return v, nil
	}
	e.misses++

	p, err := pathlang.Parse(pathExpr)
	if err != nil {
		return nil, err
	}
	ev := &evaluator{lim: e.lim, root: root, now: time.Now()}
	results, err := ev.eval([]value.Value{root}, p.Segments, 0)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, results)
	return results, nil
}

// InvalidateAll drops every cached result. The Document façade does not
// call it: cache keys include the document version, and every mutation
// bumps that version.
func (e *Engine) InvalidateAll() {
	e.cache.Purge()
}

type evaluator struct {
	lim  limits.Limits
	root value.Value
	now  time.Time
}

// eval threads a frontier of candidate nodes through each remaining
// segment, narrowing or expanding it per segment kind.
func (ev *evaluator) eval(frontier []value.Value, segs []pathlang.Seg, depth int) ([]value.Value, error) {
	if depth > ev.lim.MaxQueryDepth {
		return nil, tonlerr.New(tonlerr.KindLimit, tonlerr.SubQueryTooDeep, "query", "path exceeds MaxQueryDepth")
	}
	if len(segs) == 0 {
		return frontier, nil
	}
	seg := segs[0]
	rest := segs[1:]

	var next []value.Value
	switch seg.Kind {
	case pathlang.SegField:
		if value.IsDangerousName(seg.Field) {
			return nil, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "query", "dangerous key name").WithPath(seg.Field)
		}
		for _, v := range frontier {
			if child, ok := v.Get(seg.Field); ok {
				next = append(next, child)
			}
		}
	case pathlang.SegIndex:
		for _, v := range frontier {
			if child, ok := indexInto(v, seg.Index); ok {
				next = append(next, child)
			}
		}
	case pathlang.SegSlice:
		for _, v := range frontier {
			next = append(next, sliceInto(v, seg)...)
		}
	case pathlang.SegWildcard:
		for _, v := range frontier {
			next = append(next, childrenOf(v)...)
		}
	case pathlang.SegRecursive:
		if seg.Field != "" && value.IsDangerousName(seg.Field) {
			return nil, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "query", "dangerous key name").WithPath(seg.Field)
		}
		for _, v := range frontier {
			next = append(next, recursiveDescend(v, seg.Field, ev.lim.MaxIterations)...)
		}
	case pathlang.SegFilter:
		for _, v := range frontier {
			for _, item := range childrenOf(v) {
				matched, err := ev.evalFilter(item, seg.Filter)
				if err != nil {
					return nil, err
				}
				if matched {
					next = append(next, item)
				}
			}
		}
	}
	return ev.eval(next, rest, depth+1)
}

func indexInto(v value.Value, idx int) (value.Value, bool) {
	items, ok := v.List()
	if !ok {
		return value.Value{}, false
	}
	return v.Index(normalizeIndex(idx, len(items)))
}

func normalizeIndex(idx, n int) int {
	if idx < 0 {
		return n + idx
	}
	return idx
}

func sliceInto(v value.Value, seg pathlang.Seg) []value.Value {
	items, ok := v.List()
	if !ok {
		return nil
	}
	n := len(items)
	step := 1
	if seg.SliceStep != nil {
		step = *seg.SliceStep
	}
	if step == 0 {
		step = 1
	}
	start := 0
	if seg.SliceStart != nil {
		start = normalizeIndex(*seg.SliceStart, n)
	}
	end := n
	if seg.SliceEnd != nil {
		end = normalizeIndex(*seg.SliceEnd, n)
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := start; i > end; i += step {
			if i >= 0 && i < n {
				out = append(out, items[i])
			}
		}
	}
	return out
}

func childrenOf(v value.Value) []value.Value {
	if items, ok := v.List(); ok {
		return items
	}
	if v.Kind() == value.KindObj {
		var out []value.Value
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			out = append(out, child)
		}
		return out
	}
	return nil
}

// recursiveDescend collects every descendant node (optionally filtered
// by field name) reachable from v, breadth-first, bounded by
// maxIterations to guard against pathological documents.
func recursiveDescend(v value.Value, field string, maxIterations int) []value.Value {
	var out []value.Value
	frontier := []value.Value{v}
	iterations := 0
	for len(frontier) > 0 {
		var nextFrontier []value.Value
		for _, node := range frontier {
			iterations++
			if iterations > maxIterations {
				return out
			}
			if field == "" {
				if iterations > 1 { // v itself is not one of its descendants
					out = append(out, node)
				}
			} else if node.Kind() == value.KindObj {
				if child, ok := node.Get(field); ok {
					out = append(out, child)
				}
			}
			nextFrontier = append(nextFrontier, childrenOf(node)...)
		}
		frontier = nextFrontier
	}
	return out
}

// evalFilter evaluates a boolean filter expression tree against the
// current element item (the '@' operand root).
func (ev *evaluator) evalFilter(item value.Value, expr *pathlang.Expr) (bool, error) {
	switch expr.Kind {
	case pathlang.ExprOr:
		for _, c := range expr.Clauses {
			ok, err := ev.evalFilter(item, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case pathlang.ExprAnd:
		for _, c := range expr.Clauses {
			ok, err := ev.evalFilter(item, c)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case pathlang.ExprNot:
		ok, err := ev.evalFilter(item, expr.Inner)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case pathlang.ExprComparison:
		return ev.evalComparison(item, expr)
	}
	return false, nil
}

func (ev *evaluator) resolveOperand(item value.Value, op *pathlang.Operand) (value.Value, bool, error) {
	switch op.Kind {
	case pathlang.OperandCurrent:
		return resolveSegments(item, op.Segments)
	case pathlang.OperandRoot:
		return resolveSegments(ev.root, op.Segments)
	case pathlang.OperandLiteral:
		if op.Temporal != nil {
			t, err := resolveTemporal(op.Temporal, ev.now)
			if err != nil {
				return value.Value{}, false, err
			}
			return value.Str(t.Format(time.RFC3339)), true, nil
		}
		return op.Lit, true, nil
	}
	return value.Value{}, false, nil
}

func resolveSegments(root value.Value, segs []pathlang.Seg) (value.Value, bool, error) {
	cur := root
	for _, seg := range segs {
		switch seg.Kind {
		case pathlang.SegField:
			if value.IsDangerousName(seg.Field) {
				return value.Value{}, false, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "query", "dangerous key name").WithPath(seg.Field)
			}
			child, ok := cur.Get(seg.Field)
			if !ok {
				return value.Value{}, false, nil
			}
			cur = child
		case pathlang.SegIndex:
			child, ok := indexInto(cur, seg.Index)
			if !ok {
				return value.Value{}, false, nil
			}
			cur = child
		default:
			return value.Value{}, false, fmt.Errorf("query: unsupported segment in operand path")
		}
	}
	return cur, true, nil
}

func (ev *evaluator) evalComparison(item value.Value, expr *pathlang.Expr) (bool, error) {
	left, ok, err := ev.resolveOperand(item, expr.Left)
	if err != nil {
		return false, err
	}
	if expr.Op == "" {
		// Bare existence test: `[?(@.optional)]`.
		return ok && !left.IsNull() && !left.IsMissing(), nil
	}
	if !ok {
		return false, nil
	}
	right, rok, err := ev.resolveOperand(item, expr.Right)
	if err != nil {
		return false, err
	}
	if !rok {
		return false, nil
	}

	switch expr.Op {
	case pathlang.OpEq:
		return value.Equal(left, right), nil
	case pathlang.OpNe:
		return !value.Equal(left, right), nil
	case pathlang.OpGt, pathlang.OpLt, pathlang.OpGe, pathlang.OpLe:
		return compareOrdered(left, right, expr.Op)
	case pathlang.OpContains:
		return stringOp(left, right, strings.Contains)
	case pathlang.OpStartsWith:
		return stringOp(left, right, strings.HasPrefix)
	case pathlang.OpEndsWith:
		return stringOp(left, right, strings.HasSuffix)
	case pathlang.OpMatches:
		return ev.evalRegexMatch(left, right)
	case pathlang.OpFuzzyEq:
		return ev.evalFuzzyEq(left, right)
	case pathlang.OpFuzzyContains:
		return fuzzyContainsAny(left, right, ev.lim.FuzzyThreshold)
	case pathlang.OpFuzzyStartsWith, pathlang.OpFuzzyEndsWith:
		return stringOp(left, right, strings.Contains) // approximated as containment
	case pathlang.OpFuzzyMatch:
		return ev.evalFuzzyEq(left, right)
	case pathlang.OpSoundsLike:
		return soundsLike(left, right)
	case pathlang.OpSimilar:
		return ev.evalFuzzyEq(left, right)
	case pathlang.OpBefore, pathlang.OpAfter, pathlang.OpBetween,
		pathlang.OpDaysAgo, pathlang.OpWeeksAgo, pathlang.OpMonthsAgo, pathlang.OpYearsAgo,
		pathlang.OpSameDay, pathlang.OpSameWeek, pathlang.OpSameMonth, pathlang.OpSameYear:
		var rightB value.Value
		rbOK := false
		if expr.RightB != nil {
			rightB, rbOK, err = ev.resolveOperand(item, expr.RightB)
			if err != nil {
				return false, err
			}
		}
		return ev.evalTemporalOp(left, right, rightB, rbOK, expr.Op)
	}
	return false, fmt.Errorf("query: unsupported operator %q", expr.Op)
}

func compareOrdered(left, right value.Value, op pathlang.CmpOp) (bool, error) {
	if left.IsNumber() && right.IsNumber() {
		lf, _ := left.Float()
		rf, _ := right.Float()
		switch op {
		case pathlang.OpGt:
			return lf > rf, nil
		case pathlang.OpLt:
			return lf < rf, nil
		case pathlang.OpGe:
			return lf >= rf, nil
		case pathlang.OpLe:
			return lf <= rf, nil
		}
	}
	ls, lok := left.Str()
	rs, rok := right.Str()
	if lok && rok {
		switch op {
		case pathlang.OpGt:
			return ls > rs, nil
		case pathlang.OpLt:
			return ls < rs, nil
		case pathlang.OpGe:
			return ls >= rs, nil
		case pathlang.OpLe:
			return ls <= rs, nil
		}
	}
	return false, nil
}

func stringOp(left, right value.Value, f func(s, substr string) bool) (bool, error) {
	ls, lok := left.Str()
	rs, rok := right.Str()
	if !lok || !rok {
		return false, nil
	}
	return f(ls, rs), nil
}

func (ev *evaluator) evalRegexMatch(left, right value.Value) (bool, error) {
	ls, lok := left.Str()
	rs, rok := right.Str()
	if !lok || !rok {
		return false, nil
	}
	re, err := tregex.Compile(rs, ev.lim)
	if err != nil {
		return false, err
	}
	return re.MatchString(ls)
}

func (ev *evaluator) evalFuzzyEq(left, right value.Value) (bool, error) {
	ls, lok := left.Str()
	rs, rok := right.Str()
	if !lok || !rok {
		return false, nil
	}
	score := fuzzy.JaroWinkler(ls, rs)
	return score >= ev.lim.FuzzyThreshold, nil
}

func fuzzyContainsAny(left, right value.Value, threshold float64) (bool, error) {
	ls, lok := left.Str()
	rs, rok := right.Str()
	if !lok || !rok {
		return false, nil
	}
	words := strings.Fields(ls)
	for _, w := range words {
		if fuzzy.JaroWinkler(w, rs) >= threshold {
			return true, nil
		}
	}
	return false, nil
}

func soundsLike(left, right value.Value) (bool, error) {
	ls, lok := left.Str()
	rs, rok := right.Str()
	if !lok || !rok {
		return false, nil
	}
	return fuzzy.Soundex(ls) == fuzzy.Soundex(rs), nil
}
