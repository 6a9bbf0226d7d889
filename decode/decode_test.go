package decode

import (
	"testing"

	"github.com/tonl-io/tonl/encode"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/value"
)

func TestDecodeTabularS1(t *testing.T) {
	text := "#version 1.0\n" +
		"users[2]{id,name,role}:\n" +
		"  1,Alice,admin\n" +
		"  2,\"Bob, Jr.\",user\n"
	root, err := Decode(text, Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	users, ok := root.Get("users")
	if !ok {
		t.Fatal("expected users key")
	}
	items, _ := users.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 users, got %d", len(items))
	}
	name, _ := items[1].Get("name")
	s, _ := name.Str()
	if s != "Bob, Jr." {
		t.Fatalf("expected 'Bob, Jr.', got %q", s)
	}
	id0, _ := items[0].Get("id")
	i, _ := id0.Int()
	if i != 1 {
		t.Fatalf("expected id 1, got %d", i)
	}
}

func TestDecodeSingleLineListS2(t *testing.T) {
	text := "#version 1.0\ntags[3]: [red, green, blue]\n"
	root, err := Decode(text, Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	tags, ok := root.Get("tags")
	if !ok {
		t.Fatal("expected tags key")
	}
	items, _ := tags.List()
	if len(items) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(items))
	}
	s, _ := items[0].Str()
	if s != "red" {
		t.Fatalf("expected red, got %q", s)
	}
}

func TestDecodeNestedObject(t *testing.T) {
	text := "#version 1.0\nconfig:\n  debug: true\n  retries: 3\n"
	root, err := Decode(text, Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	cfg, ok := root.Get("config")
	if !ok {
		t.Fatal("expected config key")
	}
	debug, _ := cfg.Get("debug")
	b, _ := debug.Bool()
	if !b {
		t.Fatal("expected debug true")
	}
}

func TestDecodeMissingVsEmptyField(t *testing.T) {
	text := "#version 1.0\nrows[1]{a,b,c}:\n  1,,\"\"\n"
	root, err := Decode(text, Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rows, _ := root.Get("rows")
	items, _ := rows.List()
	row := items[0]
	if _, ok := row.Get("b"); ok {
		t.Fatal("expected field b to be omitted (Missing)")
	}
	c, ok := row.Get("c")
	if !ok {
		t.Fatal("expected field c present")
	}
	s, _ := c.Str()
	if s != "" {
		t.Fatalf("expected empty string, got %q", s)
	}
}

func TestDecodeDangerousKeyRejected(t *testing.T) {
	text := "#version 1.0\n__proto__: 1\n"
	if _, err := Decode(text, Options{}, limits.DefaultLimits()); err == nil {
		t.Fatal("expected SecurityViolation for dangerous key")
	}
}

func TestDecodeBlockLinesExceeded(t *testing.T) {
	lim := limits.DefaultLimits()
	lim.MaxBlockLines = 2
	text := "#version 1.0\na: 1\nb: 2\nc: 3\n"
	if _, err := Decode(text, Options{}, lim); err == nil {
		t.Fatal("expected BlockLinesExceeded")
	}
}

func TestRoundTripEncodeDecode(t *testing.T) {
	root := value.NewObj().
		Set("users", value.List(
			value.NewObj().Set("id", value.Int(1)).Set("name", value.Str("Alice")).Set("role", value.Str("admin")),
			value.NewObj().Set("id", value.Int(2)).Set("name", value.Str("Bob")).Set("role", value.Str("user")),
		)).
		Set("tags", value.List(value.Str("red"), value.Str("green"))).
		Set("config", value.NewObj().Set("debug", value.Bool(true)).Set("retries", value.Int(3)))

	text, err := encode.Encode(root, encode.DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := Decode(text, Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("decode failed: %v\ntext:\n%s", err, text)
	}
	if !value.Equal(root, got) {
		t.Fatalf("round trip mismatch.\nwant: %v\ngot: %v\ntext:\n%s", root, got, text)
	}
}

func TestRoundTripTripleQuotedNewline(t *testing.T) {
	root := value.NewObj().Set("note", value.Str("line one\nline two"))
	text, err := encode.Encode(root, encode.DefaultOptions(), limits.DefaultLimits())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := Decode(text, Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("decode failed: %v\ntext:\n%s", err, text)
	}
	if !value.Equal(root, got) {
		t.Fatalf("round trip mismatch.\nwant: %v\ngot: %v\ntext:\n%s", root, got, text)
	}
}
