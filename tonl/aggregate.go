// Aggregation helpers over a []value.Value result set, the shape
// Document.Query returns. Grounded on the teacher's pkg/hive walker
// producing a flat []Row the caller then reduces over; here the
// reduction step is promoted into first-class functions instead of
// being left to ad hoc caller code, matching spec.md §6's aggregation
// function list.
package tonl

import (
	"sort"
	"strconv"

	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Count returns len(items).
func Count(items []value.Value) int { return len(items) }

// checkField screens a field name destined for Value.Get against the
// prototype-pollution blocklist spec.md §4.5 requires every read path
// to enforce, aggregation included.
func checkField(op, field string) error {
	if value.IsDangerousName(field) {
		return tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, op, "dangerous field name").WithPath(field)
	}
	return nil
}

// fieldFloat resolves field on item as a float64, ok=false if absent or
// non-numeric.
func fieldFloat(item value.Value, field string) (float64, bool) {
	v, ok := item.Get(field)
	if !ok || !v.IsNumber() {
		return 0, false
	}
	f, _ := v.Float()
	return f, true
}

// Sum adds field across items, skipping non-numeric/missing entries.
func Sum(items []value.Value, field string) (float64, error) {
	if err := checkField("sum", field); err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		if f, ok := fieldFloat(it, field); ok {
			total += f
		}
	}
	return total, nil
}

// Avg returns the arithmetic mean of field across items, 0 if none
// contribute a numeric value.
func Avg(items []value.Value, field string) (float64, error) {
	if err := checkField("avg", field); err != nil {
		return 0, err
	}
	var total float64
	var n int
	for _, it := range items {
		if f, ok := fieldFloat(it, field); ok {
			total += f
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

// Min returns the smallest value of field across items.
func Min(items []value.Value, field string) (float64, bool, error) {
	if err := checkField("min", field); err != nil {
		return 0, false, err
	}
	var best float64
	found := false
	for _, it := range items {
		if f, ok := fieldFloat(it, field); ok {
			if !found || f < best {
				best = f
				found = true
			}
		}
	}
	return best, found, nil
}

// Max returns the largest value of field across items.
func Max(items []value.Value, field string) (float64, bool, error) {
	if err := checkField("max", field); err != nil {
		return 0, false, err
	}
	var best float64
	found := false
	for _, it := range items {
		if f, ok := fieldFloat(it, field); ok {
			if !found || f > best {
				best = f
				found = true
			}
		}
	}
	return best, found, nil
}

// GroupBy partitions items by the string form of field, preserving
// first-seen group order.
func GroupBy(items []value.Value, field string) ([]string, map[string][]value.Value, error) {
	if err := checkField("group by", field); err != nil {
		return nil, nil, err
	}
	groups := make(map[string][]value.Value)
	var order []string
	for _, it := range items {
		key := groupKey(it, field)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], it)
	}
	return order, groups, nil
}

func groupKey(item value.Value, field string) string {
	v, ok := item.Get(field)
	if !ok {
		return ""
	}
	switch v.Kind() {
	case value.KindStr:
		s, _ := v.Str()
		return s
	case value.KindInt, value.KindFloat:
		f, _ := v.Float()
		return formatGroupFloat(f)
	case value.KindBool:
		b, _ := v.Bool()
		if b {
			return "true"
		}
		return "false"
	default:
		return v.Kind().String()
	}
}

func formatGroupFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Distinct returns items with unique values of field, first occurrence
// kept.
func Distinct(items []value.Value, field string) ([]value.Value, error) {
	if err := checkField("distinct", field); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []value.Value
	for _, it := range items {
		key := groupKey(it, field)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out, nil
}

// Frequency counts occurrences of each distinct value of field.
func Frequency(items []value.Value, field string) ([]string, map[string]int, error) {
	order, groups, err := GroupBy(items, field)
	if err != nil {
		return nil, nil, err
	}
	counts := make(map[string]int, len(groups))
	for k, v := range groups {
		counts[k] = len(v)
	}
	return order, counts, nil
}

// StatsSummary bundles the common descriptive statistics for one field.
type StatsSummary struct {
	Count  int
	Sum    float64
	Avg    float64
	Min    float64
	Max    float64
	Median float64
}

// FieldStats computes Sum/Avg/Min/Max/Median over field across items.
func FieldStats(items []value.Value, field string) (StatsSummary, error) {
	if err := checkField("field stats", field); err != nil {
		return StatsSummary{}, err
	}
	vals := numericValues(items, field)
	s := StatsSummary{Count: len(vals)}
	if len(vals) == 0 {
		return s, nil
	}
	for _, v := range vals {
		s.Sum += v
	}
	s.Avg = s.Sum / float64(len(vals))
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = medianOf(sorted)
	return s, nil
}

func numericValues(items []value.Value, field string) []float64 {
	var out []float64
	for _, it := range items {
		if f, ok := fieldFloat(it, field); ok {
			out = append(out, f)
		}
	}
	return out
}

func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Median returns the median of field across items.
func Median(items []value.Value, field string) (float64, error) {
	if err := checkField("median", field); err != nil {
		return 0, err
	}
	vals := numericValues(items, field)
	sort.Float64s(vals)
	return medianOf(vals), nil
}

// Percentile returns the p-th percentile (0..100) of field across items
// using linear interpolation between closest ranks.
func Percentile(items []value.Value, field string, p float64) (float64, error) {
	if err := checkField("percentile", field); err != nil {
		return 0, err
	}
	vals := numericValues(items, field)
	if len(vals) == 0 {
		return 0, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "percentile", "no numeric values for field").WithPath(field)
	}
	if p < 0 || p > 100 {
		return 0, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "percentile", "percentile must be within [0,100]")
	}
	sort.Float64s(vals)
	if len(vals) == 1 {
		return vals[0], nil
	}
	rank := (p / 100) * float64(len(vals)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(vals) {
		return vals[lo], nil
	}
	frac := rank - float64(lo)
	return vals[lo]*(1-frac) + vals[hi]*frac, nil
}

// OrderBy returns a new slice sorted by field ascending (descending if
// desc is true). Non-numeric fields sort lexically by their string
// form.
func OrderBy(items []value.Value, field string, desc bool) ([]value.Value, error) {
	if err := checkField("order by", field); err != nil {
		return nil, err
	}
	out := append([]value.Value(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		less := lessByField(out[i], out[j], field)
		if desc {
			return lessByField(out[j], out[i], field)
		}
		return less
	})
	return out, nil
}

func lessByField(a, b value.Value, field string) bool {
	af, aok := fieldFloat(a, field)
	bf, bok := fieldFloat(b, field)
	if aok && bok {
		return af < bf
	}
	return groupKey(a, field) < groupKey(b, field)
}

// Take returns the first n items (or fewer, if items is shorter).
func Take(items []value.Value, n int) []value.Value {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return append([]value.Value(nil), items[:n]...)
}

// Skip returns items with the first n dropped.
func Skip(items []value.Value, n int) []value.Value {
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		return nil
	}
	return append([]value.Value(nil), items[n:]...)
}

// First returns the first item, ok=false if items is empty.
func First(items []value.Value) (value.Value, bool) {
	if len(items) == 0 {
		return value.Value{}, false
	}
	return items[0], true
}

// Last returns the last item, ok=false if items is empty.
func Last(items []value.Value) (value.Value, bool) {
	if len(items) == 0 {
		return value.Value{}, false
	}
	return items[len(items)-1], true
}

// Filter returns the subset of items for which pred returns true.
func Filter(items []value.Value, pred func(value.Value) bool) []value.Value {
	var out []value.Value
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Map applies fn to every item, returning the transformed slice.
func Map(items []value.Value, fn func(value.Value) value.Value) []value.Value {
	out := make([]value.Value, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// Reduce folds items into a single accumulator via fn, starting from
// init.
func Reduce(items []value.Value, init value.Value, fn func(acc, item value.Value) value.Value) value.Value {
	acc := init
	for _, it := range items {
		acc = fn(acc, it)
	}
	return acc
}
