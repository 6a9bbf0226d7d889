package encode

import (
	"strings"
	"testing"

	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/value"
)

func TestEncodeTabular(t *testing.T) {
	root := value.NewObj().Set("users", value.List(
		value.NewObj().Set("id", value.Int(1)).Set("name", value.Str("Alice")).Set("role", value.Str("admin")),
		value.NewObj().Set("id", value.Int(2)).Set("name", value.Str("Bob")).Set("role", value.Str("user")),
	))
	out, err := Encode(root, DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(out, "#version 1.0") {
		t.Fatalf("missing version header: %q", out)
	}
	if !strings.Contains(out, "users[2]{id,name,role}:") {
		t.Fatalf("missing tabular header: %q", out)
	}
	if !strings.Contains(out, "1,Alice,admin") {
		t.Fatalf("missing row: %q", out)
	}
}

func TestEncodeQuotesFieldContainingDelimiter(t *testing.T) {
	root := value.NewObj().Set("users", value.List(
		value.NewObj().Set("id", value.Int(1)).Set("name", value.Str("Alice")),
		value.NewObj().Set("id", value.Int(2)).Set("name", value.Str("Bob, Jr.")),
	))
	out, err := Encode(root, DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(out, `"Bob, Jr."`) {
		t.Fatalf("expected quoted comma field: %q", out)
	}
}

func TestEncodeSinglelinePrimitiveList(t *testing.T) {
	root := value.NewObj().Set("tags", value.List(value.Str("red"), value.Str("green"), value.Str("blue")))
	out, err := Encode(root, DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(out, "tags[3]: [red, green, blue]") {
		t.Fatalf("expected single-line list: %q", out)
	}
}

func TestEncodeSmartPicksDelimiterAvoidingCommas(t *testing.T) {
	root := value.NewObj().Set("users", value.List(
		value.NewObj().Set("id", value.Int(1)).Set("name", value.Str("A, B, C")),
	))
	out, err := EncodeSmart(root, DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(out, "#delimiter") {
		t.Fatalf("expected non-default delimiter directive: %q", out)
	}
}

func TestEncodeSharedSubtreeAllowed(t *testing.T) {
	a := value.NewObj().Set("x", value.Int(1))
	list := value.List(a, a) // shared, non-cyclic: fine
	root := value.NewObj().Set("items", list)
	if _, err := Encode(root, DefaultOptions(), limits.DefaultLimits()); err != nil {
		t.Fatalf("shared non-cyclic subtree must be allowed: %v", err)
	}
}

func TestEncodeDepthExceeded(t *testing.T) {
	lim := limits.DefaultLimits()
	lim.MaxEncodeDepth = 2
	inner := value.NewObj().Set("c", value.Int(1))
	mid := value.NewObj().Set("b", inner)
	root := value.NewObj().Set("a", mid)
	if _, err := Encode(root, DefaultOptions(), lim); err == nil {
		t.Fatal("expected DepthExceeded error")
	}
}

func TestEncodeNestedObject(t *testing.T) {
	root := value.NewObj().Set("config", value.NewObj().Set("debug", value.Bool(true)))
	out, err := Encode(root, DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(out, "config:\n") || !strings.Contains(out, "debug: true") {
		t.Fatalf("expected nested object form: %q", out)
	}
}
