// Package mutate implements the tree-mutation operations of spec.md
// §4.6: set/get/delete/push/pop/merge over a value.Value document,
// snapshot/diff/restore for point-in-time recovery, and the dangerous-
// name/cycle rejection shared with decode. Grounded on
// pkg/hive/diff.go's DiffStatus/KeyDiff status-tagged-changeset shape,
// generalized from hive-key paths to TONL path expressions; the
// version counter and snapshot identity follow the teacher's own
// LastWrite-timestamp-as-generation-marker idiom, adapted to an
// explicit monotonic int64 plus a github.com/google/uuid snapshot ID
// (the same dependency the teacher's cmd/hivectl subcommands use for
// request/session identifiers).
package mutate

import (
	"github.com/google/uuid"

	"github.com/tonl-io/tonl/pathlang"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Document wraps a root value.Value with a monotonic version counter
// bumped on every successful mutation.
type Document struct {
	Root    value.Value
	Version int64
}

// NewDocument wraps root as version 0.
func NewDocument(root value.Value) *Document {
	return &Document{Root: root, Version: 0}
}

// Get resolves a field/index-only path (no filters/wildcards — those
// belong to query.Engine) against the document.
func Get(root value.Value, path string) (value.Value, bool, error) {
	p, err := pathlang.Parse(path)
	if err != nil {
		return value.Value{}, false, err
	}
	cur := root
	for _, seg := range p.Segments {
		switch seg.Kind {
		case pathlang.SegField:
			if value.IsDangerousName(seg.Field) {
				return value.Value{}, false, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "get", "dangerous key name").WithPath(seg.Field)
			}
			child, ok := cur.Get(seg.Field)
			if !ok {
				return value.Value{}, false, nil
			}
			cur = child
		case pathlang.SegIndex:
			items, ok := cur.List()
			if !ok {
				return value.Value{}, false, nil
			}
			idx := seg.Index
			if idx < 0 {
				idx += len(items)
			}
			if idx < 0 || idx >= len(items) {
				return value.Value{}, false, nil
			}
			cur = items[idx]
		default:
			return value.Value{}, false, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "get", "only field and index segments are supported for direct access").WithPath(path)
		}
	}
	return cur, true, nil
}

// Set writes val at path, creating intermediate objects as needed, and
// stores the new root in d.Root. Rejects dangerous key names at every
// segment and any resulting self-reference or reference cycle.
func (d *Document) Set(path string, val value.Value) error {
	p, err := pathlang.Parse(path)
	if err != nil {
		return err
	}
	if len(p.Segments) == 0 {
		if err := rejectCycle(val); err != nil {
			return err
		}
		d.Root = val
		d.Version++
		return nil
	}
	newRoot, err := setAt(d.Root, p.Segments, val)
	if err != nil {
		return err
	}
	if err := rejectCycle(newRoot); err != nil {
		return err
	}
	d.Root = newRoot
	d.Version++
	return nil
}

// rejectCycle walks root depth-first, tracking each container's identity
// (value.ContainerID) against its depth on the current root-to-node
// path, the same "containers currently in progress" technique
// encode.enterContainer uses for cycle detection during serialization.
// A container reappearing one level below itself (depth delta 1) is a
// direct self-reference; reappearing further down is a multi-hop cycle.
func rejectCycle(root value.Value) error {
	return walkCycle(root, map[uintptr]int{}, 0)
}

func walkCycle(v value.Value, onPath map[uintptr]int, depth int) error {
	id, ok := value.ContainerID(v)
	if ok {
		if startDepth, seen := onPath[id]; seen {
			if depth-startDepth <= 1 {
				return tonlerr.New(tonlerr.KindSecurity, tonlerr.SubSelfReference, "set", "value directly references itself")
			}
			return tonlerr.New(tonlerr.KindSecurity, tonlerr.SubCycle, "set", "value creates a reference cycle")
		}
		onPath[id] = depth
		defer delete(onPath, id)
	}
	switch v.Kind() {
	case value.KindList:
		items, _ := v.List()
		for _, item := range items {
			if err := walkCycle(item, onPath, depth+1); err != nil {
				return err
			}
		}
	case value.KindObj:
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			if err := walkCycle(child, onPath, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func setAt(cur value.Value, segs []pathlang.Seg, val value.Value) (value.Value, error) {
	seg := segs[0]
	switch seg.Kind {
	case pathlang.SegField:
		if value.IsDangerousName(seg.Field) {
			return value.Value{}, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "set", "dangerous key name").WithPath(seg.Field)
		}
		if cur.Kind() != value.KindObj {
			cur = value.NewObj()
		}
		if len(segs) == 1 {
			return cur.Set(seg.Field, val), nil
		}
		child, _ := cur.Get(seg.Field)
		newChild, err := setAt(child, segs[1:], val)
		if err != nil {
			return value.Value{}, err
		}
		return cur.Set(seg.Field, newChild), nil
	case pathlang.SegIndex:
		items, ok := cur.List()
		if !ok {
			items = nil
		}
		idx := seg.Index
		if idx < 0 {
			idx += len(items)
		}
		if idx < 0 {
			return value.Value{}, tonlerr.New(tonlerr.KindType, tonlerr.SubIndexOutOfBound, "set", "negative index out of range")
		}
		for len(items) <= idx {
			items = append(items, value.Null())
		}
		if len(segs) == 1 {
			items[idx] = val
		} else {
			newChild, err := setAt(items[idx], segs[1:], val)
			if err != nil {
				return value.Value{}, err
			}
			items[idx] = newChild
		}
		return value.List(items...), nil
	default:
		return value.Value{}, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "set", "unsupported segment kind in a mutation path")
	}
}

// Delete removes the value at path, returning whether anything was
// removed.
func (d *Document) Delete(path string) (bool, error) {
	p, err := pathlang.Parse(path)
	if err != nil {
		return false, err
	}
	if len(p.Segments) == 0 {
		return false, nil
	}
	newRoot, removed, err := deleteAt(d.Root, p.Segments)
	if err != nil {
		return false, err
	}
	if removed {
		d.Root = newRoot
		d.Version++
	}
	return removed, nil
}

func deleteAt(cur value.Value, segs []pathlang.Seg) (value.Value, bool, error) {
	seg := segs[0]
	switch seg.Kind {
	case pathlang.SegField:
		if value.IsDangerousName(seg.Field) {
			return cur, false, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "delete", "dangerous key name").WithPath(seg.Field)
		}
		if cur.Kind() != value.KindObj {
			return cur, false, nil
		}
		if len(segs) == 1 {
			if _, ok := cur.Get(seg.Field); !ok {
				return cur, false, nil
			}
			return cur.Delete(seg.Field), true, nil
		}
		child, ok := cur.Get(seg.Field)
		if !ok {
			return cur, false, nil
		}
		newChild, removed, err := deleteAt(child, segs[1:])
		if err != nil || !removed {
			return cur, removed, err
		}
		return cur.Set(seg.Field, newChild), true, nil
	case pathlang.SegIndex:
		items, ok := cur.List()
		if !ok {
			return cur, false, nil
		}
		idx := seg.Index
		if idx < 0 {
			idx += len(items)
		}
		if idx < 0 || idx >= len(items) {
			return cur, false, nil
		}
		if len(segs) == 1 {
			out := append([]value.Value(nil), items[:idx]...)
			out = append(out, items[idx+1:]...)
			return value.List(out...), true, nil
		}
		newChild, removed, err := deleteAt(items[idx], segs[1:])
		if err != nil || !removed {
			return cur, removed, err
		}
		items[idx] = newChild
		return value.List(items...), true, nil
	default:
		return cur, false, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "delete", "unsupported segment kind in a mutation path")
	}
}

// Push appends item to the list at path.
func (d *Document) Push(path string, item value.Value) error {
	cur, ok, err := Get(d.Root, path)
	if err != nil {
		return err
	}
	if !ok {
		cur = value.List()
	}
	if cur.Kind() != value.KindList {
		return tonlerr.New(tonlerr.KindType, tonlerr.SubNotAnArray, "push", "target is not a list").WithPath(path)
	}
	return d.Set(path, cur.Append(item))
}

// Pop removes and returns the last element of the list at path.
func (d *Document) Pop(path string) (value.Value, error) {
	cur, ok, err := Get(d.Root, path)
	if err != nil {
		return value.Value{}, err
	}
	if !ok || cur.Kind() != value.KindList {
		return value.Value{}, tonlerr.New(tonlerr.KindType, tonlerr.SubNotAnArray, "pop", "target is not a list").WithPath(path)
	}
	items, _ := cur.List()
	if len(items) == 0 {
		return value.Value{}, tonlerr.New(tonlerr.KindType, tonlerr.SubIndexOutOfBound, "pop", "list is empty").WithPath(path)
	}
	last := items[len(items)-1]
	if err := d.Set(path, value.List(items[:len(items)-1]...)); err != nil {
		return value.Value{}, err
	}
	return last, nil
}

// Merge deep-merges patch into the object at path: keys in patch
// overwrite or extend the target, nested objects merge recursively,
// everything else (scalars, lists) is replaced wholesale.
func (d *Document) Merge(path string, patch value.Value) error {
	cur, ok, err := Get(d.Root, path)
	if err != nil {
		return err
	}
	if !ok {
		cur = value.NewObj()
	}
	merged, err := mergeValues(cur, patch)
	if err != nil {
		return err
	}
	return d.Set(path, merged)
}

func mergeValues(dst, src value.Value) (value.Value, error) {
	if dst.Kind() != value.KindObj || src.Kind() != value.KindObj {
		return src, nil
	}
	out := dst
	for _, key := range src.Keys() {
		if value.IsDangerousName(key) {
			return value.Value{}, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "merge", "dangerous key name").WithPath(key)
		}
		srcVal, _ := src.Get(key)
		if dstVal, ok := out.Get(key); ok {
			merged, err := mergeValues(dstVal, srcVal)
			if err != nil {
				return value.Value{}, err
			}
			out = out.Set(key, merged)
		} else {
			out = out.Set(key, srcVal)
		}
	}
	return out, nil
}

// Snapshot is a named, timestamp-free point-in-time copy of a document
// root; Document.Snapshot, Document.Restore and Diff use it.
type Snapshot struct {
	ID      string
	Version int64
	Root    value.Value
}

// Snapshot deep-copies the current root into a new Snapshot.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		ID:      uuid.NewString(),
		Version: d.Version,
		Root:    value.DeepCopy(d.Root),
	}
}

// Restore replaces the document's root with a snapshot's contents,
// bumping the version so cached query results are invalidated.
func (d *Document) Restore(snap Snapshot) {
	d.Root = value.DeepCopy(snap.Root)
	d.Version++
}

// DiffStatus tags one field's change between two snapshots.
type DiffStatus int

const (
	DiffUnchanged DiffStatus = iota
	DiffAdded
	DiffRemoved
	DiffModified
)

// FieldDiff describes the change at one object key (relative to its
// parent in the diff walk).
type FieldDiff struct {
	Path     string
	Status   DiffStatus
	OldValue value.Value
	NewValue value.Value
}

// Diff compares two snapshots and returns every changed field, keyed by
// its dotted path from the root.
func Diff(old, new Snapshot) []FieldDiff {
	var out []FieldDiff
	diffValues("", old.Root, new.Root, &out)
	return out
}

func diffValues(path string, oldV, newV value.Value, out *[]FieldDiff) {
	if oldV.Kind() == value.KindObj && newV.Kind() == value.KindObj {
		seen := make(map[string]bool)
		for _, k := range oldV.Keys() {
			seen[k] = true
			childPath := joinPath(path, k)
			ov, _ := oldV.Get(k)
			if nv, ok := newV.Get(k); ok {
				diffValues(childPath, ov, nv, out)
			} else {
				*out = append(*out, FieldDiff{Path: childPath, Status: DiffRemoved, OldValue: ov})
			}
		}
		for _, k := range newV.Keys() {
			if seen[k] {
				continue
			}
			nv, _ := newV.Get(k)
			*out = append(*out, FieldDiff{Path: joinPath(path, k), Status: DiffAdded, NewValue: nv})
		}
		return
	}
	if !value.Equal(oldV, newV) {
		*out = append(*out, FieldDiff{Path: path, Status: DiffModified, OldValue: oldV, NewValue: newV})
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
