// Package tregex wraps regexp with the static pre-flight screen and
// timing watchdog spec.md §4.7 requires before a user-supplied pattern
// is allowed to run against document content: nested-quantifier and
// catastrophic-backtracking shapes are rejected before compilation, and
// a goroutine-based watchdog aborts any match that runs past
// Limits.RegexTimeoutMillis. Grounded on
// termfx-morfx/internal/matcher/regex.go's thin regexp.Compile wrapper,
// generalized with the screening and timeout the teacher's matcher
// does not need (it only runs fixed, developer-authored patterns).
package tregex

import (
	"regexp"
	"time"

	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/tonlerr"
)

// Compiled is a screened, compiled regular expression ready for bounded
// matching.
type Compiled struct {
	re      *regexp.Regexp
	timeout time.Duration
	minLen  int
}

// Compile screens pattern for known-dangerous shapes, then compiles it.
// Returns a SecurityViolation error if the pattern fails the screen, or
// a Parse error if regexp.Compile itself rejects it.
func Compile(pattern string, lim limits.Limits) (*Compiled, error) {
	if len(pattern) > lim.MaxRegexPatternLen {
		return nil, tonlerr.New(tonlerr.KindLimit, tonlerr.SubInputTooLarge, "compile regex", "pattern exceeds MaxRegexPatternLen").WithContext(pattern)
	}
	if reason, dangerous := screen(pattern, lim); dangerous {
		return nil, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubDangerousRegex, "compile regex", reason).WithContext(pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "compile regex", err.Error()).WithContext(pattern)
	}
	return &Compiled{
		re:      re,
		timeout: time.Duration(lim.RegexTimeoutMillis) * time.Millisecond,
		minLen:  lim.MinInputLenForRegexTimeout,
	}, nil
}

// MatchString reports whether s matches the pattern, enforcing the
// timing watchdog for inputs at or above MinInputLenForRegexTimeout.
func (c *Compiled) MatchString(s string) (bool, error) {
	if len(s) < c.minLen {
		return c.re.MatchString(s), nil
	}

	type result struct {
		matched bool
	}
	done := make(chan result, 1)
	go func() {
		done <- result{matched: c.re.MatchString(s)}
	}()

	select {
	case r := <-done:
		return r.matched, nil
	case <-time.After(c.timeout):
		return false, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubRegexTimeout, "match regex", "regex evaluation exceeded timeout").WithContext(c.re.String())
	}
}

// DangerousRegex reports, without compiling it, whether pattern fails
// screen: a nested + or * quantifier, unbalanced parentheses, too deep
// group nesting, or excessive length. Alternation is not examined.
func DangerousRegex(pattern string, lim limits.Limits) bool {
	_, dangerous := screen(pattern, lim)
	return dangerous
}

// screen performs the static pre-flight checks of §4.7: nesting depth,
// nested quantifiers ((a+)+ style), and unbalanced groups.
func screen(pattern string, lim limits.Limits) (string, bool) {
	depth := 0
	maxDepth := 0
	// quantifiedGroup[d] is true once a quantifier (+ or *; braces are
	// not counted) has been seen at nesting depth d+1.
	quantifiedGroup := []bool{}
	lastGroupHadQuant := false

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '\\':
			i++ // skip escaped char
			lastGroupHadQuant = false
		case '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
			quantifiedGroup = append(quantifiedGroup, false)
			lastGroupHadQuant = false
		case ')':
			if depth == 0 {
				return "unbalanced parenthesis", true
			}
			lastGroupHadQuant = quantifiedGroup[len(quantifiedGroup)-1]
			quantifiedGroup = quantifiedGroup[:len(quantifiedGroup)-1]
			depth--
		case '+', '*':
			// A quantifier directly following a just-closed group that
			// itself contained a quantifier is the classic (a+)+
			// catastrophic-backtracking shape.
			if i > 0 && pattern[i-1] == ')' && lastGroupHadQuant {
				return "nested quantifier detected", true
			}
			if depth > 0 {
				quantifiedGroup[depth-1] = true
			}
			lastGroupHadQuant = false
		default:
			lastGroupHadQuant = false
		}
	}
	if depth != 0 {
		return "unbalanced parenthesis", true
	}
	if maxDepth > lim.MaxRegexNesting {
		return "group nesting exceeds MaxRegexNesting", true
	}
	if len(pattern) > lim.MaxRegexPatternLen {
		return "pattern exceeds MaxRegexPatternLen", true
	}
	return "", false
}
