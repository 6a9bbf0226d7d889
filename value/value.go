// Package value defines the TONL tagged-union Value model: Null, Bool,
// Int, Float, Str, List, and Obj, plus the encode-only Missing sentinel.
// Obj preserves key insertion order (array-of-pairs) while still offering
// O(1) lookup via a side index, the same shape the teacher uses for its
// AST node's child list plus name lookup.
package value

import (
	"fmt"
	"math"
	"sort"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindList
	KindObj
	// KindMissing is never observable through the public API; it only
	// exists transiently during encoding of a tabular row with an absent
	// column.
	KindMissing
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindObj:
		return "obj"
	case KindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// pair is one key/value entry of an Obj, kept in insertion order.
type pair struct {
	key string
	val Value
}

// Value is a closed tagged union. Zero value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	// obj holds pairs in insertion order; idx maps key -> index into obj
	// for O(1) lookup, mirroring the teacher's "array-of-pairs + small
	// hash" Map recommendation (spec §9).
	obj []pair
	idx map[string]int
}

// Missing is the encode-time sentinel for an absent tabular column.
var Missing = Value{kind: KindMissing}

func Null() Value          { return Value{kind: KindNull} }
func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Int(i int64) Value    { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Str(s string) Value   { return Value{kind: KindStr, s: s} }

func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

func NewObj() Value {
	return Value{kind: KindObj, idx: make(map[string]int)}
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) IsMissing() bool  { return v.kind == KindMissing }
func (v Value) IsNumber() bool   { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

func (v Value) Str() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}

func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Len returns the element/key count for List/Obj, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindObj:
		return len(v.obj)
	default:
		return 0
	}
}

// Keys returns Obj keys in insertion order, nil for non-Obj.
func (v Value) Keys() []string {
	if v.kind != KindObj {
		return nil
	}
	keys := make([]string, len(v.obj))
	for i, p := range v.obj {
		keys[i] = p.key
	}
	return keys
}

// Get looks up a key in an Obj. Returns (zero, false) if not present or
// not an Obj.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObj {
		return Value{}, false
	}
	i, ok := v.idx[key]
	if !ok {
		return Value{}, false
	}
	return v.obj[i].val, true
}

// Index returns the element at position i (negative = from end), or
// (zero, false) if out of range or not a List.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList {
		return Value{}, false
	}
	n := len(v.list)
	if i < 0 {
		i = n + i
	}
	if i < 0 || i >= n {
		return Value{}, false
	}
	return v.list[i], true
}

// Set inserts or overwrites a key, preserving original position on
// overwrite and appending on a new key. Returns the resulting Value.
// Overwriting an existing key writes into the pair slice v shares with
// its copies, so the change is visible through them; adding a new key
// copies the pairs first and leaves other copies of v unchanged.
func (v Value) Set(key string, val Value) Value {
	if v.kind != KindObj {
		v = NewObj()
	}
	if i, ok := v.idx[key]; ok {
		v.obj[i].val = val
		return v
	}
	v.idx = cloneIdx(v.idx)
	v.obj = append(append([]pair(nil), v.obj...), pair{key, val})
	v.idx[key] = len(v.obj) - 1
	return v
}

// Delete removes a key if present, returning the mutated Value.
func (v Value) Delete(key string) Value {
	if v.kind != KindObj {
		return v
	}
	i, ok := v.idx[key]
	if !ok {
		return v
	}
	newObj := make([]pair, 0, len(v.obj)-1)
	newIdx := make(map[string]int, len(v.obj)-1)
	for j, p := range v.obj {
		if j == i {
			continue
		}
		newIdx[p.key] = len(newObj)
		newObj = append(newObj, p)
	}
	v.obj = newObj
	v.idx = newIdx
	return v
}

func cloneIdx(m map[string]int) map[string]int {
	out := make(map[string]int, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Append adds an element to a List (auto-creating if Null), returning the
// mutated Value.
func (v Value) Append(item Value) Value {
	if v.kind != KindList {
		v = Value{kind: KindList}
	}
	v.list = append(append([]Value(nil), v.list...), item)
	return v
}

// Equal reports deep structural equality. Int/Float compare numerically.
func Equal(a, b Value) bool {
	if a.kind == KindMissing || b.kind == KindMissing {
		return a.kind == b.kind
	}
	if a.IsNumber() && b.IsNumber() {
		af, _ := a.Float()
		bf, _ := b.Float()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindStr:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindObj:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for _, p := range a.obj {
			bv, ok := b.Get(p.key)
			if !ok || !Equal(p.val, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// DeepCopy returns a fully independent copy, used by snapshot() (§4.6):
// "structural deep copy ... arena-friendly". Containers are copied
// recursively; no aliasing with v survives.
func DeepCopy(v Value) Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, item := range v.list {
			out[i] = DeepCopy(item)
		}
		return Value{kind: KindList, list: out}
	case KindObj:
		out := make([]pair, len(v.obj))
		idx := make(map[string]int, len(v.obj))
		for i, p := range v.obj {
			out[i] = pair{key: p.key, val: DeepCopy(p.val)}
			idx[p.key] = i
		}
		return Value{kind: KindObj, obj: out, idx: idx}
	default:
		return v
	}
}

// ContainerID returns a stable identity for cycle detection during encode
// (§4.2): containers (List/Obj) get a pointer-stable identity via the
// address of their backing slice header's first element when non-empty;
// empty containers cannot participate in a cycle so identity is moot for
// them. Callers use this only as a "currently in progress" set key, never
// for equality.
func ContainerID(v Value) (uintptr, bool) {
	switch v.kind {
	case KindList:
		if len(v.list) == 0 {
			return 0, false
		}
		return sliceAddr(v.list), true
	case KindObj:
		if len(v.obj) == 0 {
			return 0, false
		}
		return pairSliceAddr(v.obj), true
	default:
		return 0, false
	}
}

// IsUniformObjectArray reports whether v is a List whose elements are all
// Obj with the same key set (spec §4.1: "uniform-object" arrays encode in
// tabular form).
func IsUniformObjectArray(v Value) ([]string, bool) {
	if v.kind != KindList || len(v.list) == 0 {
		return nil, false
	}
	first := v.list[0]
	if first.kind != KindObj {
		return nil, false
	}
	cols := first.Keys()
	colSet := make(map[string]bool, len(cols))
	for _, c := range cols {
		colSet[c] = true
	}
	for _, elem := range v.list[1:] {
		if elem.kind != KindObj {
			return nil, false
		}
		if len(elem.obj) != len(cols) {
			return nil, false
		}
		for _, p := range elem.obj {
			if !colSet[p.key] {
				return nil, false
			}
		}
	}
	return cols, true
}

// IsPrimitiveList reports whether v is a List with no List/Obj elements.
func IsPrimitiveList(v Value) bool {
	if v.kind != KindList {
		return false
	}
	for _, e := range v.list {
		if e.kind == KindList || e.kind == KindObj {
			return false
		}
	}
	return true
}

// FitsInt32 / FitsUint32 support the u32/i32 type-hint narrowing rule of
// §4.1 rule 3.
func FitsInt32(i int64) bool  { return i >= math.MinInt32 && i <= math.MaxInt32 }
func FitsUint32(i int64) bool { return i >= 0 && i <= math.MaxUint32 }

// TypeHint returns the narrow type-hint string for a Value per §3's
// "Type hints" list, used by the encoder's column annotations.
func TypeHint(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		if FitsInt32(v.i) {
			return "i32"
		}
		if FitsUint32(v.i) {
			return "u32"
		}
		return "f64"
	case KindFloat:
		return "f64"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindObj:
		return "obj"
	default:
		return "str"
	}
}

// String renders a debug form; not used by the encoder (see package
// encode for the wire format).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindMissing:
		return "<missing>"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindStr:
		return v.s
	case KindList:
		return fmt.Sprintf("list[%d]", len(v.list))
	case KindObj:
		keys := v.Keys()
		sort.Strings(keys)
		return fmt.Sprintf("obj%v", keys)
	default:
		return "?"
	}
}
