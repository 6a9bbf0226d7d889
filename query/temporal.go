package query

import (
	"fmt"
	"time"

	"github.com/tonl-io/tonl/pathlang"
	"github.com/tonl-io/tonl/value"
)

// resolveTemporal turns a parsed Temporal literal into a concrete instant.
// `now` is fixed once per query evaluation (§4.5: "must be monotonic
// within a single query evaluation") rather than re-read per comparison.
func resolveTemporal(t *pathlang.Temporal, now time.Time) (time.Time, error) {
	switch t.Kind {
	case pathlang.TemporalNow:
		return now, nil
	case pathlang.TemporalToday:
		return startOfDay(now), nil
	case pathlang.TemporalYesterday:
		return startOfDay(now).AddDate(0, 0, -1), nil
	case pathlang.TemporalTomorrow:
		return startOfDay(now).AddDate(0, 0, 1), nil
	case pathlang.TemporalRelative:
		return applyRelative(now, t.Sign, t.Amount, t.Unit)
	case pathlang.TemporalAbsolute:
		return parseISO8601(t.ISO8601)
	}
	return time.Time{}, fmt.Errorf("query: unresolved temporal literal")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func applyRelative(now time.Time, sign, amount int, unit byte) (time.Time, error) {
	n := sign * amount
	switch unit {
	case 'd':
		return now.AddDate(0, 0, n), nil
	case 'w':
		return now.AddDate(0, 0, n*7), nil
	case 'M':
		return now.AddDate(0, n, 0), nil
	case 'Y':
		return now.AddDate(n, 0, 0), nil
	case 'h':
		return now.Add(time.Duration(n) * time.Hour), nil
	case 'm':
		return now.Add(time.Duration(n) * time.Minute), nil
	case 's':
		return now.Add(time.Duration(n) * time.Second), nil
	}
	return time.Time{}, fmt.Errorf("query: unknown temporal unit %q", unit)
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseISO8601(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("query: cannot parse temporal literal %q", s)
}

// parseValueAsTime interprets a document field as an instant: strings
// are parsed as ISO8601, numbers are treated as Unix seconds.
func parseValueAsTime(v value.Value) (time.Time, bool) {
	if s, ok := v.Str(); ok {
		t, err := parseISO8601(s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if v.IsNumber() {
		f, _ := v.Float()
		return time.Unix(int64(f), 0).UTC(), true
	}
	return time.Time{}, false
}

// evalTemporalOp dispatches the instant-comparison operator family. left
// is the document-side operand (a timestamp-shaped value); right (and
// rightB, for `between`) were already resolved via resolveOperand — a
// Temporal literal operand arrives here pre-formatted as an RFC3339
// string, a plain numeric literal (daysAgo 7) arrives as an Int/Float.
func (ev *evaluator) evalTemporalOp(left, right, rightB value.Value, hasRightB bool, op pathlang.CmpOp) (bool, error) {
	lt, ok := parseValueAsTime(left)
	if !ok {
		return false, nil
	}

	switch op {
	case pathlang.OpBefore:
		rt, ok := parseValueAsTime(right)
		return ok && lt.Before(rt), nil
	case pathlang.OpAfter:
		rt, ok := parseValueAsTime(right)
		return ok && lt.After(rt), nil
	case pathlang.OpBetween:
		if !hasRightB {
			return false, fmt.Errorf("query: between requires two bounds")
		}
		lo, lok := parseValueAsTime(right)
		hi, hok := parseValueAsTime(rightB)
		if !lok || !hok {
			return false, nil
		}
		return !lt.Before(lo) && !lt.After(hi), nil
	case pathlang.OpDaysAgo, pathlang.OpWeeksAgo, pathlang.OpMonthsAgo, pathlang.OpYearsAgo:
		if !right.IsNumber() {
			return false, nil
		}
		amount, _ := right.Float()
		var threshold time.Time
		switch op {
		case pathlang.OpDaysAgo:
			threshold = ev.now.AddDate(0, 0, -int(amount))
		case pathlang.OpWeeksAgo:
			threshold = ev.now.AddDate(0, 0, -int(amount)*7)
		case pathlang.OpMonthsAgo:
			threshold = ev.now.AddDate(0, -int(amount), 0)
		case pathlang.OpYearsAgo:
			threshold = ev.now.AddDate(-int(amount), 0, 0)
		}
		return lt.After(threshold) && !lt.After(ev.now), nil
	case pathlang.OpSameDay, pathlang.OpSameWeek, pathlang.OpSameMonth, pathlang.OpSameYear:
		rt, ok := parseValueAsTime(right)
		if !ok {
			return false, nil
		}
		return sameCalendarPeriod(lt, rt, op), nil
	}
	return false, fmt.Errorf("query: unsupported temporal operator %q", op)
}

func sameCalendarPeriod(a, b time.Time, op pathlang.CmpOp) bool {
	switch op {
	case pathlang.OpSameDay:
		ay, am, ad := a.Date()
		by, bm, bd := b.Date()
		return ay == by && am == bm && ad == bd
	case pathlang.OpSameMonth:
		ay, am, _ := a.Date()
		by, bm, _ := b.Date()
		return ay == by && am == bm
	case pathlang.OpSameYear:
		return a.Year() == b.Year()
	case pathlang.OpSameWeek:
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	}
	return false
}
