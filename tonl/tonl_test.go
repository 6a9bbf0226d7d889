package tonl

import (
	"testing"

	"github.com/tonl-io/tonl/decode"
	"github.com/tonl-io/tonl/encode"
	"github.com/tonl-io/tonl/index"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/schema"
	"github.com/tonl-io/tonl/value"
)

func buildDocument(t *testing.T) *Document {
	t.Helper()
	root := value.NewObj().Set("users", value.List(
		value.NewObj().Set("name", value.Str("Alice")).Set("age", value.Int(30)).Set("role", value.Str("admin")),
		value.NewObj().Set("name", value.Str("Bob")).Set("age", value.Int(22)).Set("role", value.Str("user")),
		value.NewObj().Set("name", value.Str("Carol")).Set("age", value.Int(41)).Set("role", value.Str("admin")),
	))
	d, err := FromValue(root, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("FromValue failed: %v", err)
	}
	return d
}

func TestDocumentGetAndQuery(t *testing.T) {
	d := buildDocument(t)
	v, ok, err := d.Get("users[0].name")
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	s, _ := v.Str()
	if s != "Alice" {
		t.Fatalf("expected Alice, got %q", s)
	}

	results, err := d.Query("users[?(@.role == \"admin\")]")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 admins, got %d", len(results))
	}
}

func TestDocumentMutationsBumpVersionAndInvalidateCache(t *testing.T) {
	d := buildDocument(t)
	if _, err := d.Query("users[*].name"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if err := d.Set("users[0].age", value.Int(31)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if d.Version() != 1 {
		t.Fatalf("expected version 1 after a mutation, got %d", d.Version())
	}
	if _, err := d.Query("users[*].name"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	stats := d.QueryStats()
	if stats.Misses < 2 {
		t.Fatalf("expected the version bump to force a cache miss, got %+v", stats)
	}
}

func TestDocumentSnapshotRestoreAndDiff(t *testing.T) {
	d := buildDocument(t)
	before := d.Snapshot()
	if err := d.Set("users[0].name", value.Str("Alicia")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	after := d.Snapshot()
	diffs := Diff(before, after)
	if len(diffs) == 0 {
		t.Fatal("expected at least one field diff")
	}
	d.Restore(before)
	v, _, _ := d.Get("users[0].name")
	s, _ := v.Str()
	if s != "Alice" {
		t.Fatalf("expected restored name Alice, got %q", s)
	}
}

func TestDocumentIndexLifecycle(t *testing.T) {
	d := buildDocument(t)
	if err := d.CreateIndex("by_age", "users", "age", index.KindOrdered, index.Options{}); err != nil {
		t.Fatalf("create index failed: %v", err)
	}
	positions, err := d.QueryIndexRange("by_age", value.Int(20), value.Int(35))
	if err != nil {
		t.Fatalf("range query failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 users in [20,35], got %d", len(positions))
	}
	stats, ok := d.IndexStats("by_age")
	if !ok || stats.EntryCount != 3 {
		t.Fatalf("expected 3 indexed entries, got %+v ok=%v", stats, ok)
	}
	d.DropIndex("by_age")
	if _, err := d.QueryIndex("by_age", value.Int(30)); err == nil {
		t.Fatal("expected error querying a dropped index")
	}
}

func TestDocumentCreateIndexRejectsDangerousField(t *testing.T) {
	d := buildDocument(t)
	if err := d.CreateIndex("bad", "users", "__proto__", index.KindHash, index.Options{}); err == nil {
		t.Fatal("expected SecurityViolation creating an index over a dangerous field name")
	}
}

func TestDocumentCreateIndexEnforcesUniqueness(t *testing.T) {
	d := buildDocument(t)
	if err := d.CreateIndex("by_role", "users", "role", index.KindHash, index.Options{Unique: true}); err == nil {
		t.Fatal("expected ConstraintViolation creating a unique index over a repeated field value")
	}
}

func TestDocumentValidateAgainstSchema(t *testing.T) {
	d := buildDocument(t)
	s, err := ParseSchema("name: str required\nage: i32 min:0\nrole: str required\n")
	if err != nil {
		t.Fatalf("schema parse failed: %v", err)
	}
	result, err := d.Validate("users[0]", s)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got %+v", result.Errors)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	d := buildDocument(t)
	text, err := d.Encode(encode.DefaultOptions())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reparsed, err := Parse(text, decode.Options{}, limits.DefaultLimits())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	v, ok, err := reparsed.Get("users[0].name")
	if err != nil || !ok {
		t.Fatalf("round-tripped get failed: ok=%v err=%v", ok, err)
	}
	s, _ := v.Str()
	if s != "Alice" {
		t.Fatalf("expected Alice after round trip, got %q", s)
	}
}

func TestAggregationHelpers(t *testing.T) {
	d := buildDocument(t)
	results, err := d.Query("users[*]")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if Count(results) != 3 {
		t.Fatalf("expected 3 users, got %d", Count(results))
	}
	sum, err := Sum(results, "age")
	if err != nil || sum != 93 {
		t.Fatalf("expected sum 93, got %v err=%v", sum, err)
	}
	avg, err := Avg(results, "age")
	if err != nil || avg < 30.9 || avg > 31.1 {
		t.Fatalf("expected avg ~31, got %v err=%v", avg, err)
	}
	min, ok, err := Min(results, "age")
	if err != nil || !ok || min != 22 {
		t.Fatalf("expected min 22, got %v ok=%v err=%v", min, ok, err)
	}
	max, ok, err := Max(results, "age")
	if err != nil || !ok || max != 41 {
		t.Fatalf("expected max 41, got %v ok=%v err=%v", max, ok, err)
	}
	order, groups, err := GroupBy(results, "role")
	if err != nil || len(order) != 2 || len(groups["admin"]) != 2 || len(groups["user"]) != 1 {
		t.Fatalf("expected 2 admins and 1 user, got order=%v groups=%v err=%v", order, groups, err)
	}
	ordered, err := OrderBy(results, "age", false)
	if err != nil {
		t.Fatalf("order by failed: %v", err)
	}
	first, _ := First(ordered)
	name, _ := first.Get("name")
	s, _ := name.Str()
	if s != "Bob" {
		t.Fatalf("expected youngest first (Bob), got %q", s)
	}
	top := Take(ordered, 1)
	if len(top) != 1 {
		t.Fatalf("expected 1 item from Take, got %d", len(top))
	}
	median, err := Median(results, "age")
	if err != nil || median != 30 {
		t.Fatalf("expected median age 30, got %v err=%v", median, err)
	}
	stats, err := FieldStats(results, "age")
	if err != nil || stats.Count != 3 || stats.Min != 22 || stats.Max != 41 {
		t.Fatalf("unexpected field stats: %+v err=%v", stats, err)
	}
}

func TestAggregationHelpersRejectDangerousFieldName(t *testing.T) {
	d := buildDocument(t)
	results, err := d.Query("users[*]")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if _, err := Sum(results, "__proto__"); err == nil {
		t.Fatal("expected SecurityViolation summing a dangerous field name")
	}
	if _, _, err := GroupBy(results, "constructor"); err == nil {
		t.Fatal("expected SecurityViolation grouping by a dangerous field name")
	}
	if _, err := OrderBy(results, "__proto__", false); err == nil {
		t.Fatal("expected SecurityViolation ordering by a dangerous field name")
	}
}
