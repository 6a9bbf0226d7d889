package decode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tonl-io/tonl/internal/fmtconsts"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?(\d*\.\d+([eE][+-]?\d+)?|\d+[eE][+-]?\d+)$`)
)

// inferScalar applies §4.1's ordered rule set to field text. When
// wasQuoted/wasTriple is set, raw has ALREADY had its quote layer removed
// and its escapes resolved (by tok.Tokenize for row/list fields, or by
// stripQuotesIfAny for a bare scalar KV-line) — such text is always a
// Str, bypassing the null/bool/number checks (rules 5/6 short-circuit
// ahead of rule 7).
func inferScalar(raw string, wasQuoted, wasTriple bool) (value.Value, error) {
	if wasTriple || wasQuoted {
		return value.Str(raw), nil
	}
	switch raw {
	case "null":
		return value.Null(), nil
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	}
	if intPattern.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return value.Int(i), nil
		}
		// Overflows signed 64-bit: widen to float per §4.1 rule 3's own
		// int rule coupled with §3's Int-must-fit-i64 invariant.
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return value.Float(f), nil
		}
	}
	if floatPattern.MatchString(raw) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "invalid numeric literal").WithContext(raw)
		}
		if isNaNOrInf(f) {
			return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "NaN/Infinity not permitted").WithContext(raw)
		}
		return value.Float(f), nil
	}
	return value.Str(strings.TrimSpace(raw)), nil
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1.7976931348623157e+308 || f < -1.7976931348623157e+308
}

// stripQuotesIfAny peels a leading/trailing quote or triple-quote layer
// off raw field text read directly from a logical line (used for scalar
// KV-line values, which aren't routed through the row tokenizer) and
// resolves backslash escapes the same way tok.Tokenize does for
// tabular/list fields, so both paths hand inferScalar already-clean text.
func stripQuotesIfAny(raw string) (content string, wasQuoted, wasTriple bool) {
	if strings.HasPrefix(raw, fmtconsts.TripleQuote) && strings.HasSuffix(raw, fmtconsts.TripleQuote) && len(raw) >= 6 {
		inner := raw[3 : len(raw)-3]
		return strings.ReplaceAll(inner, `\\`, `\`), true, true
	}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		return unescapeRegular(raw[1 : len(raw)-1]), true, false
	}
	return raw, false, false
}

func unescapeRegular(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(s[i+1])
			}
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
