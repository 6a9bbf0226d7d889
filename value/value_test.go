package value

import "testing"

func TestObjSetGetOrderPreserved(t *testing.T) {
	v := NewObj()
	v = v.Set("b", Int(2))
	v = v.Set("a", Int(1))
	v = v.Set("b", Int(20)) // overwrite keeps position

	keys := v.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("unexpected key order: %v", keys)
	}
	got, ok := v.Get("b")
	if !ok {
		t.Fatal("expected b present")
	}
	if i, _ := got.Int(); i != 20 {
		t.Fatalf("expected overwritten value 20, got %d", i)
	}
}

func TestObjDelete(t *testing.T) {
	v := NewObj().Set("a", Int(1)).Set("b", Int(2)).Set("c", Int(3))
	v = v.Delete("b")
	if _, ok := v.Get("b"); ok {
		t.Fatal("expected b removed")
	}
	keys := v.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("unexpected keys after delete: %v", keys)
	}
}

func TestIndexNegative(t *testing.T) {
	l := List(Int(1), Int(2), Int(3))
	got, ok := l.Index(-1)
	if !ok {
		t.Fatal("expected index -1 to resolve")
	}
	if i, _ := got.Int(); i != 3 {
		t.Fatalf("expected 3, got %d", i)
	}
	if _, ok := l.Index(-10); ok {
		t.Fatal("expected out-of-range negative index to fail")
	}
}

func TestEqualNumericCoercion(t *testing.T) {
	if !Equal(Int(3), Float(3.0)) {
		t.Fatal("expected Int(3) == Float(3.0)")
	}
	if Equal(Int(3), Float(3.1)) {
		t.Fatal("expected Int(3) != Float(3.1)")
	}
}

func TestIsUniformObjectArray(t *testing.T) {
	rows := List(
		NewObj().Set("id", Int(1)).Set("name", Str("a")),
		NewObj().Set("id", Int(2)).Set("name", Str("b")),
	)
	cols, ok := IsUniformObjectArray(rows)
	if !ok {
		t.Fatal("expected uniform object array")
	}
	if len(cols) != 2 || cols[0] != "id" || cols[1] != "name" {
		t.Fatalf("unexpected columns: %v", cols)
	}

	mixed := List(NewObj().Set("id", Int(1)), Int(2))
	if _, ok := IsUniformObjectArray(mixed); ok {
		t.Fatal("expected non-uniform array to fail")
	}
}

func TestDeepCopyIndependence(t *testing.T) {
	orig := NewObj().Set("items", List(Int(1), Int(2)))
	cp := DeepCopy(orig)
	items, _ := orig.Get("items")
	itemsCp, _ := cp.Get("items")
	origList, _ := items.List()
	cpList, _ := itemsCp.List()
	if &origList[0] == &cpList[0] {
		t.Fatal("expected deep copy to not alias backing array")
	}
	if !Equal(orig, cp) {
		t.Fatal("expected deep copy to be structurally equal")
	}
}

func TestTypeHintNarrowing(t *testing.T) {
	if TypeHint(Int(100)) != "i32" {
		t.Fatalf("expected i32 for small int")
	}
	if TypeHint(Int(1<<40)) != "f64" {
		t.Fatalf("expected f64 for overflowing int")
	}
	if TypeHint(Str("x")) != "str" {
		t.Fatalf("expected str")
	}
}

func TestDangerousName(t *testing.T) {
	if !IsDangerousName("__proto__") {
		t.Fatal("expected __proto__ flagged dangerous")
	}
	if IsDangerousName("name") {
		t.Fatal("expected ordinary key to be safe")
	}
}
