package fuzzy

import "testing"

func TestLevenshteinIdentical(t *testing.T) {
	if d := Levenshtein("kitten", "kitten"); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
}

func TestLevenshteinClassic(t *testing.T) {
	if d := Levenshtein("kitten", "sitting"); d != 3 {
		t.Fatalf("expected 3, got %d", d)
	}
}

func TestLevenshteinSimilarityBounds(t *testing.T) {
	if s := LevenshteinSimilarity("", ""); s != 1.0 {
		t.Fatalf("expected 1.0 for two empty strings, got %v", s)
	}
	s := LevenshteinSimilarity("abc", "xyz")
	if s < 0 || s > 1 {
		t.Fatalf("score out of bounds: %v", s)
	}
}

func TestJaroWinklerIdentical(t *testing.T) {
	if s := JaroWinkler("martha", "martha"); s != 1.0 {
		t.Fatalf("expected 1.0, got %v", s)
	}
}

func TestJaroWinklerClassic(t *testing.T) {
	s := JaroWinkler("martha", "marhta")
	if s < 0.9 || s > 1.0 {
		t.Fatalf("expected ~0.96, got %v", s)
	}
}

func TestJaroWinklerDisjoint(t *testing.T) {
	if s := JaroWinkler("abc", "xyz"); s != 0 {
		t.Fatalf("expected 0 for disjoint strings, got %v", s)
	}
}

func TestDiceIdentical(t *testing.T) {
	if d := Dice("night", "night"); d != 1.0 {
		t.Fatalf("expected 1.0, got %v", d)
	}
}

func TestDiceClassic(t *testing.T) {
	d := Dice("night", "nacht")
	if d <= 0 || d >= 1 {
		t.Fatalf("expected partial overlap score, got %v", d)
	}
}

func TestSoundexClassic(t *testing.T) {
	cases := map[string]string{
		"Robert":  "R163",
		"Rupert":  "R163",
		"Ashcraft": "A261",
	}
	for in, want := range cases {
		if got := Soundex(in); got != want {
			t.Fatalf("Soundex(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSoundexEmpty(t *testing.T) {
	if got := Soundex(""); got != "" {
		t.Fatalf("expected empty code, got %q", got)
	}
}

func TestMetaphoneSameForHomophones(t *testing.T) {
	a := Metaphone("night")
	b := Metaphone("knight")
	if a != b {
		t.Fatalf("expected matching metaphone codes, got %q vs %q", a, b)
	}
}

func TestMetaphoneDiffersForDistinctWords(t *testing.T) {
	if Metaphone("cat") == Metaphone("dog") {
		t.Fatal("expected distinct metaphone codes")
	}
}
