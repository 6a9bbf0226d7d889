package tregex

import (
	"strings"
	"testing"

	"github.com/tonl-io/tonl/limits"
)

func TestCompileAndMatchSimple(t *testing.T) {
	c, err := Compile(`^[a-z]+@[a-z]+\.com$`, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	ok, err := c.MatchString("bob@example.com")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !ok {
		t.Fatal("expected match")
	}
}

func TestDangerousRegexNestedQuantifier(t *testing.T) {
	if !DangerousRegex(`(a+)+$`, limits.DefaultLimits()) {
		t.Fatal("expected (a+)+ to be flagged dangerous")
	}
}

func TestDangerousRegexUnbalancedParen(t *testing.T) {
	if !DangerousRegex(`(a+b`, limits.DefaultLimits()) {
		t.Fatal("expected unbalanced parenthesis to be flagged dangerous")
	}
}

func TestDangerousRegexOrdinaryPatternAllowed(t *testing.T) {
	if DangerousRegex(`^[0-9]{3}-[0-9]{4}$`, limits.DefaultLimits()) {
		t.Fatal("did not expect an ordinary pattern to be flagged")
	}
}

func TestCompileRejectsDangerousPattern(t *testing.T) {
	if _, err := Compile(`(a+)+b`, limits.DefaultLimits()); err == nil {
		t.Fatal("expected SecurityViolation for dangerous pattern")
	}
}

func TestCompileRejectsOverlongPattern(t *testing.T) {
	lim := limits.DefaultLimits()
	lim.MaxRegexPatternLen = 5
	if _, err := Compile(`abcdefgh`, lim); err == nil {
		t.Fatal("expected LimitExceeded for overlong pattern")
	}
}

func TestMatchStringWatchdogBypassedForShortInput(t *testing.T) {
	lim := limits.DefaultLimits()
	lim.MinInputLenForRegexTimeout = 1_000_000
	lim.RegexTimeoutMillis = 1
	c, err := Compile(`^a+$`, lim)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	ok, err := c.MatchString(strings.Repeat("a", 100))
	if err != nil {
		t.Fatalf("unexpected watchdog trip on short input: %v", err)
	}
	if !ok {
		t.Fatal("expected match")
	}
}
