// Package limits centralizes every resource bound the TONL core enforces
// (parsing, encoding, query evaluation, regex, fuzzy matching) in one
// struct that is threaded explicitly through parser/encoder/query
// contexts — no package-level globals.
package limits

import "fmt"

// Limits bounds every resource-sensitive operation in the core. Field
// names mirror the constants in spec.md §5.
type Limits struct {
	MaxInputSize      int64 // bytes
	MaxLineLength     int
	MaxFieldsPerLine  int
	MaxNestingDepth   int
	MaxEncodeDepth    int
	MaxBlockLines     int
	MaxRegexPatternLen int
	MaxRegexNesting   int
	MaxQueryDepth     int
	MaxIterations     int
	MaxStringLength   int // fuzzy operand length
	MaxIndent         int
	MaxJSONSize       int64
	MaxBufferSize     int64

	// RegexTimeoutMillis is the watchdog trip point (§4.7).
	RegexTimeoutMillis int
	// MinInputLenForRegexTimeout: inputs shorter than this bypass the watchdog.
	MinInputLenForRegexTimeout int

	// QueryCacheCapacity bounds the LRU result cache (§4.5).
	QueryCacheCapacity int

	// FuzzyThreshold is the default similarity cutoff for `~=` (§4.5).
	FuzzyThreshold float64
}

// DefaultLimits matches the numeric defaults given throughout spec.md §4
// and §5.
func DefaultLimits() Limits {
	return Limits{
		MaxInputSize:               10 * 1024 * 1024,
		MaxLineLength:              100_000,
		MaxFieldsPerLine:           10_000,
		MaxNestingDepth:            100,
		MaxEncodeDepth:             500,
		MaxBlockLines:              10_000,
		MaxRegexPatternLen:         100,
		MaxRegexNesting:            3,
		MaxQueryDepth:              500,
		MaxIterations:              1_000_000,
		MaxStringLength:            10_000,
		MaxIndent:                  10_000,
		MaxJSONSize:                10 * 1024 * 1024,
		MaxBufferSize:              10 * 1024 * 1024,
		RegexTimeoutMillis:         100,
		MinInputLenForRegexTimeout: 1000,
		QueryCacheCapacity:         256,
		FuzzyThreshold:             0.8,
	}
}

// StrictLimits is a tighter profile suitable for untrusted input: smaller
// ceilings on everything that scales with attacker-controlled input size.
func StrictLimits() Limits {
	l := DefaultLimits()
	l.MaxInputSize = 1 * 1024 * 1024
	l.MaxLineLength = 10_000
	l.MaxFieldsPerLine = 1_000
	l.MaxNestingDepth = 32
	l.MaxEncodeDepth = 64
	l.MaxBlockLines = 1_000
	l.MaxQueryDepth = 64
	l.MaxIterations = 100_000
	l.MaxStringLength = 1_000
	l.RegexTimeoutMillis = 50
	l.QueryCacheCapacity = 64
	return l
}

// RelaxedLimits is a generous profile for trusted, locally-generated
// documents (e.g. test fixtures, internal tooling).
func RelaxedLimits() Limits {
	l := DefaultLimits()
	l.MaxInputSize = 100 * 1024 * 1024
	l.MaxLineLength = 1_000_000
	l.MaxFieldsPerLine = 100_000
	l.MaxNestingDepth = 1000
	l.MaxEncodeDepth = 5000
	l.MaxBlockLines = 1_000_000
	l.MaxQueryDepth = 5000
	l.MaxIterations = 10_000_000
	l.MaxStringLength = 100_000
	l.QueryCacheCapacity = 4096
	return l
}

// ValidationError reports a single out-of-range Limits field, mirroring
// the teacher's {Limit, Current, Maximum} shape.
type ValidationError struct {
	Field   string
	Current int64
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("limits: field %s=%d invalid: %s", e.Field, e.Current, e.Reason)
}

// Validate rejects nonsensical constructions (zero/negative bounds,
// a fuzzy threshold outside [0,1]). It does not judge
// whether values are "sane" for a workload, only whether they are
// internally consistent.
func (l Limits) Validate() error {
	type check struct {
		name string
		val  int64
	}
	positive := []check{
		{"MaxInputSize", l.MaxInputSize},
		{"MaxLineLength", int64(l.MaxLineLength)},
		{"MaxFieldsPerLine", int64(l.MaxFieldsPerLine)},
		{"MaxNestingDepth", int64(l.MaxNestingDepth)},
		{"MaxEncodeDepth", int64(l.MaxEncodeDepth)},
		{"MaxBlockLines", int64(l.MaxBlockLines)},
		{"MaxRegexPatternLen", int64(l.MaxRegexPatternLen)},
		{"MaxRegexNesting", int64(l.MaxRegexNesting)},
		{"MaxQueryDepth", int64(l.MaxQueryDepth)},
		{"MaxIterations", int64(l.MaxIterations)},
		{"MaxStringLength", int64(l.MaxStringLength)},
		{"MaxIndent", int64(l.MaxIndent)},
		{"MaxJSONSize", l.MaxJSONSize},
		{"MaxBufferSize", l.MaxBufferSize},
		{"RegexTimeoutMillis", int64(l.RegexTimeoutMillis)},
		{"MinInputLenForRegexTimeout", int64(l.MinInputLenForRegexTimeout)},
		{"QueryCacheCapacity", int64(l.QueryCacheCapacity)},
	}
	for _, c := range positive {
		if c.val <= 0 {
			return &ValidationError{Field: c.name, Current: c.val, Reason: "must be positive"}
		}
	}
	if l.FuzzyThreshold < 0 || l.FuzzyThreshold > 1 {
		return &ValidationError{Field: "FuzzyThreshold", Current: int64(l.FuzzyThreshold * 1000), Reason: "must be in [0,1]"}
	}
	return nil
}
