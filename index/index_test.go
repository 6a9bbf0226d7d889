package index

import (
	"testing"

	"github.com/tonl-io/tonl/value"
)

func sampleItems() []value.Value {
	return []value.Value{
		value.NewObj().Set("id", value.Int(1)).Set("age", value.Int(30)),
		value.NewObj().Set("id", value.Int(2)).Set("age", value.Int(22)),
		value.NewObj().Set("id", value.Int(3)).Set("age", value.Int(41)),
		value.NewObj().Set("id", value.Int(4)).Set("age", value.Int(30)),
	}
}

func TestHashIndexLookup(t *testing.T) {
	idx, err := Build("age", KindHash, sampleItems(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	positions, ok := idx.Lookup(value.Int(30))
	if !ok {
		t.Fatal("expected a match for age=30")
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
}

func TestHashIndexMissingKey(t *testing.T) {
	idx, _ := Build("age", KindHash, sampleItems(), Options{})
	if _, ok := idx.Lookup(value.Int(99)); ok {
		t.Fatal("expected no match")
	}
}

func TestOrderedIndexLookup(t *testing.T) {
	idx, err := Build("age", KindOrdered, sampleItems(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	positions, ok := idx.Lookup(value.Int(41))
	if !ok || len(positions) != 1 {
		t.Fatalf("expected 1 position for age=41, got %v ok=%v", positions, ok)
	}
}

func TestOrderedIndexRange(t *testing.T) {
	idx, err := Build("age", KindOrdered, sampleItems(), Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	positions, err := idx.Range(value.Int(25), value.Int(35))
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions in [25,35], got %d", len(positions))
	}
}

func TestRangeRequiresOrderedIndex(t *testing.T) {
	idx, _ := Build("age", KindHash, sampleItems(), Options{})
	if _, err := idx.Range(value.Int(0), value.Int(100)); err == nil {
		t.Fatal("expected error requesting range on a hash index")
	}
}

func TestIndexStats(t *testing.T) {
	idx, _ := Build("age", KindHash, sampleItems(), Options{})
	stats := idx.Stats()
	if stats.EntryCount != 4 {
		t.Fatalf("expected 4 entries, got %d", stats.EntryCount)
	}
	if stats.KeyCount != 3 {
		t.Fatalf("expected 3 distinct keys, got %d", stats.KeyCount)
	}
}

func TestBuildRejectsNonScalarField(t *testing.T) {
	items := []value.Value{
		value.NewObj().Set("tags", value.List(value.Str("a"))),
	}
	if _, err := Build("tags", KindHash, items, Options{}); err == nil {
		t.Fatal("expected TypeError building index over a non-scalar field")
	}
}

func TestBuildRejectsDangerousFieldName(t *testing.T) {
	if _, err := Build("__proto__", KindHash, sampleItems(), Options{}); err == nil {
		t.Fatal("expected SecurityViolation building an index over a dangerous field name")
	}
}

func TestBuildUniqueRejectsDuplicateKeyHash(t *testing.T) {
	if _, err := Build("age", KindHash, sampleItems(), Options{Unique: true}); err == nil {
		t.Fatal("expected ConstraintViolation building a unique index over a repeated field value")
	}
}

func TestBuildUniqueRejectsDuplicateKeyOrdered(t *testing.T) {
	if _, err := Build("age", KindOrdered, sampleItems(), Options{Unique: true}); err == nil {
		t.Fatal("expected ConstraintViolation building a unique ordered index over a repeated field value")
	}
}

func TestBuildUniqueAcceptsDistinctKeys(t *testing.T) {
	items := []value.Value{
		value.NewObj().Set("id", value.Int(1)),
		value.NewObj().Set("id", value.Int(2)),
	}
	if _, err := Build("id", KindHash, items, Options{Unique: true}); err != nil {
		t.Fatalf("expected unique index build to succeed on distinct keys, got %v", err)
	}
}

func TestCaseInsensitiveIndexFoldsStringKeys(t *testing.T) {
	items := []value.Value{
		value.NewObj().Set("name", value.Str("Alice")),
		value.NewObj().Set("name", value.Str("alice")),
	}
	idx, err := Build("name", KindHash, items, Options{CaseInsensitive: true})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	positions, ok := idx.Lookup(value.Str("ALICE"))
	if !ok || len(positions) != 2 {
		t.Fatalf("expected both entries to fold together under a case-insensitive lookup, got %v ok=%v", positions, ok)
	}
}
