package tok

import "testing"

func TestTokenizeSimple(t *testing.T) {
	fields := Tokenize([]byte("1,Alice,admin"), ',')
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[1].Value != "Alice" {
		t.Fatalf("expected Alice, got %q", fields[1].Value)
	}
}

func TestTokenizeQuotedWithDelimiter(t *testing.T) {
	fields := Tokenize([]byte(`2,"Bob, Jr.",user`), ',')
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[1].Value != "Bob, Jr." {
		t.Fatalf("expected %q, got %q", "Bob, Jr.", fields[1].Value)
	}
	if !fields[1].WasQuoted {
		t.Fatal("expected field to be marked quoted")
	}
}

func TestTokenizeMissingField(t *testing.T) {
	fields := Tokenize([]byte("1,,admin"), ',')
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[1].Value != "" || fields[1].WasQuoted {
		t.Fatalf("expected unquoted empty middle field, got %+v", fields[1])
	}
}

func TestTokenizeEmptyQuotedField(t *testing.T) {
	fields := Tokenize([]byte(`1,"",admin`), ',')
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[1].Value != "" || !fields[1].WasQuoted {
		t.Fatalf("expected quoted empty field, got %+v", fields[1])
	}
}

func TestTokenizeTripleQuoteMultiline(t *testing.T) {
	tkz := New(',')
	cont := tkz.FeedLine([]byte(`a,"""line one`))
	if !cont {
		t.Fatal("expected continuation after open triple quote")
	}
	cont = tkz.FeedLine([]byte(`line two"""`))
	if cont {
		t.Fatal("expected triple quote closed")
	}
	fields := tkz.Finish()
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	want := "line one\nline two"
	if fields[1].Value != want {
		t.Fatalf("expected %q, got %q", want, fields[1].Value)
	}
}

func TestTokenizeEscapedBackslash(t *testing.T) {
	fields := Tokenize([]byte(`"a\\b",c`), ',')
	if fields[0].Value != `a\b` {
		t.Fatalf("expected a\\b, got %q", fields[0].Value)
	}
}

func TestTokenizeSemicolonDelimiter(t *testing.T) {
	fields := Tokenize([]byte("1;2;3"), ';')
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
}
