// Package index implements the secondary indices of spec.md §4.8: a
// Hash index for O(1) equality lookups and an Ordered index (sorted
// keys + binary search) for O(log N) range queries. Grounded on
// pkg/hive/diff.go's map[string]KeyInfo lookup-table idiom for the
// hash side, generalized to arbitrary field values; the ordered side
// follows the standard library's sort.Search binary-search idiom the
// rest of the retrieval pack leans on instead of a hand-rolled tree.
package index

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Kind selects the index implementation.
type Kind uint8

const (
	KindHash Kind = iota
	KindOrdered
)

// Stats reports index composition, mirroring the teacher's diff
// counters (added/removed/modified) but for index membership instead.
type Stats struct {
	Field      string
	Kind       Kind
	EntryCount int
	KeyCount   int
}

// entry pairs an indexed scalar key with the element positions (list
// indices) sharing that key.
type entry struct {
	key   value.Value
	items []int
}

// Index is a secondary index over one field of a uniform list of
// objects.
type Index struct {
	field           string
	kind            Kind
	unique          bool
	caseInsensitive bool
	hash            map[string][]int // KindHash: normalized key -> item positions
	ordered         []entry          // KindOrdered: sorted ascending by key
}

// Options configures the constraint flags spec.md §3's Index model
// carries: Unique rejects a build where the field repeats across items,
// CaseInsensitive folds string keys before comparison/lookup.
type Options struct {
	Unique          bool
	CaseInsensitive bool
}

// normalizeKey renders a scalar Value into a comparable string key.
// Numeric values normalize through their float64 form so Int(2) and
// Float(2.0) index identically, matching value.Equal's numeric
// coercion rule. String keys fold to lower-case when caseInsensitive
// is set, so "Alice" and "alice" collide into the same bucket.
func normalizeKey(v value.Value, caseInsensitive bool) (string, bool) {
	switch v.Kind() {
	case value.KindStr:
		s, _ := v.Str()
		if caseInsensitive {
			s = strings.ToLower(s)
		}
		return "s:" + s, true
	case value.KindInt, value.KindFloat:
		f, _ := v.Float()
		return "n:" + formatFloatKey(f), true
	case value.KindBool:
		b, _ := v.Bool()
		if b {
			return "b:true", true
		}
		return "b:false", true
	case value.KindNull:
		return "z:null", true
	default:
		return "", false
	}
}

func formatFloatKey(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Build constructs an index over field across items (the elements of a
// List of Obj), the shape docs store their array fields in. opts.Unique
// fails ConstraintViolation at build time the first time field repeats
// across two items; opts.CaseInsensitive folds string keys before
// comparison.
func Build(field string, kind Kind, items []value.Value, opts Options) (*Index, error) {
	if value.IsDangerousName(field) {
		return nil, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "build index", "dangerous field name").WithPath(field)
	}
	idx := &Index{field: field, kind: kind, unique: opts.Unique, caseInsensitive: opts.CaseInsensitive}
	switch kind {
	case KindHash:
		idx.hash = make(map[string][]int, len(items))
		for i, item := range items {
			child, ok := item.Get(field)
			if !ok {
				continue
			}
			key, ok := normalizeKey(child, opts.CaseInsensitive)
			if !ok {
				return nil, tonlerr.New(tonlerr.KindType, tonlerr.SubTypeMismatch, "build index", "field is not an indexable scalar").WithPath(field)
			}
			if opts.Unique && len(idx.hash[key]) > 0 {
				return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubConstraintViolation, "build index", "unique index has duplicate key").WithPath(field)
			}
			idx.hash[key] = append(idx.hash[key], i)
		}
	case KindOrdered:
		byKey := make(map[string]*entry)
		var order []string
		for i, item := range items {
			child, ok := item.Get(field)
			if !ok {
				continue
			}
			key, ok := normalizeKey(child, opts.CaseInsensitive)
			if !ok {
				return nil, tonlerr.New(tonlerr.KindType, tonlerr.SubTypeMismatch, "build index", "field is not an indexable scalar").WithPath(field)
			}
			e, exists := byKey[key]
			if !exists {
				e = &entry{key: child}
				byKey[key] = e
				order = append(order, key)
			} else if opts.Unique {
				return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubConstraintViolation, "build index", "unique index has duplicate key").WithPath(field)
			}
			e.items = append(e.items, i)
		}
		idx.ordered = make([]entry, 0, len(order))
		for _, k := range order {
			idx.ordered = append(idx.ordered, *byKey[k])
		}
		sort.Slice(idx.ordered, func(i, j int) bool {
			return lessValue(idx.ordered[i].key, idx.ordered[j].key)
		})
	default:
		return nil, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "build index", "unknown index kind")
	}
	return idx, nil
}

func lessValue(a, b value.Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, _ := a.Float()
		bf, _ := b.Float()
		return af < bf
	}
	as, aok := a.Str()
	bs, bok := b.Str()
	if aok && bok {
		return as < bs
	}
	return false
}

// Lookup returns the item positions whose indexed field equals key
// (O(1) for KindHash, O(log N) for KindOrdered).
func (idx *Index) Lookup(key value.Value) ([]int, bool) {
	k, ok := normalizeKey(key, idx.caseInsensitive)
	if !ok {
		return nil, false
	}
	switch idx.kind {
	case KindHash:
		positions, ok := idx.hash[k]
		return positions, ok
	case KindOrdered:
		i := sort.Search(len(idx.ordered), func(i int) bool {
			return !lessValue(idx.ordered[i].key, key)
		})
		if i < len(idx.ordered) {
			if ik, ok := normalizeKey(idx.ordered[i].key, idx.caseInsensitive); ok && ik == k {
				return idx.ordered[i].items, true
			}
		}
		return nil, false
	}
	return nil, false
}

// Range returns every item position whose indexed field falls within
// [lo, hi] inclusive. Only valid for KindOrdered.
func (idx *Index) Range(lo, hi value.Value) ([]int, error) {
	if idx.kind != KindOrdered {
		return nil, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "range query", "range queries require an ordered index").WithPath(idx.field)
	}
	start := sort.Search(len(idx.ordered), func(i int) bool {
		return !lessValue(idx.ordered[i].key, lo)
	})
	var out []int
	for i := start; i < len(idx.ordered); i++ {
		if lessValue(hi, idx.ordered[i].key) {
			break
		}
		out = append(out, idx.ordered[i].items...)
	}
	return out, nil
}

// Stats reports composition for introspection/diagnostics.
func (idx *Index) Stats() Stats {
	switch idx.kind {
	case KindHash:
		total := 0
		for _, v := range idx.hash {
			total += len(v)
		}
		return Stats{Field: idx.field, Kind: idx.kind, EntryCount: total, KeyCount: len(idx.hash)}
	case KindOrdered:
		total := 0
		for _, e := range idx.ordered {
			total += len(e.items)
		}
		return Stats{Field: idx.field, Kind: idx.kind, EntryCount: total, KeyCount: len(idx.ordered)}
	}
	return Stats{Field: idx.field, Kind: idx.kind}
}
