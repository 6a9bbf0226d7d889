// Package tonl is the public façade: it wires value, decode, encode,
// pathlang, query, mutate, index, and schema together behind the single
// Document type sketched in spec.md §6's "Public API surface". Grounded
// on the teacher's own top-level hive.DB façade (pkg/hive/db.go), which
// wires storage + index + walker behind one handle the same way.
package tonl

import (
	"github.com/tonl-io/tonl/decode"
	"github.com/tonl-io/tonl/encode"
	"github.com/tonl-io/tonl/index"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/mutate"
	"github.com/tonl-io/tonl/query"
	"github.com/tonl-io/tonl/schema"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Document is the top-level handle: a mutable root value plus the query
// engine and secondary indices built over it.
type Document struct {
	doc     *mutate.Document
	engine  *query.Engine
	indices map[string]*index.Index
	lim     limits.Limits
}

// FromValue wraps an already-built value.Value as a Document.
func FromValue(root value.Value, lim limits.Limits) (*Document, error) {
	engine, err := query.NewEngine(lim)
	if err != nil {
		return nil, err
	}
	return &Document{
		doc:     mutate.NewDocument(root),
		engine:  engine,
		indices: make(map[string]*index.Index),
		lim:     lim,
	}, nil
}

// Parse decodes TONL text into a Document.
func Parse(text string, decodeOpts decode.Options, lim limits.Limits) (*Document, error) {
	root, err := decode.Decode(text, decodeOpts, lim)
	if err != nil {
		return nil, err
	}
	return FromValue(root, lim)
}

// Encode renders the document's current root with the given options.
func (d *Document) Encode(opts encode.Options) (string, error) {
	return encode.Encode(d.doc.Root, opts, d.lim)
}

// EncodeSmart renders the document picking a delimiter that avoids
// colliding with any field's content.
func (d *Document) EncodeSmart(opts encode.Options) (string, error) {
	return encode.EncodeSmart(d.doc.Root, opts, d.lim)
}

// Root returns the document's current root value.
func (d *Document) Root() value.Value { return d.doc.Root }

// Version returns the document's mutation-generation counter.
func (d *Document) Version() int64 { return d.doc.Version }

// Get resolves a field/index-only path.
func (d *Document) Get(path string) (value.Value, bool, error) {
	return mutate.Get(d.doc.Root, path)
}

// Query evaluates a full path expression (filters, wildcards, recursive
// descent, fuzzy/temporal predicates) against the document.
func (d *Document) Query(pathExpr string) ([]value.Value, error) {
	return d.engine.Query(d.doc.Root, d.doc.Version, pathExpr)
}

// Exists reports whether path resolves to any value.
func (d *Document) Exists(path string) (bool, error) {
	_, ok, err := d.Get(path)
	return ok, err
}

// TypeOf reports the Kind name of the value at path, "" if absent.
func (d *Document) TypeOf(path string) (string, error) {
	v, ok, err := d.Get(path)
	if err != nil || !ok {
		return "", err
	}
	return v.Kind().String(), nil
}

// Count returns the element/key count of the value at path (0 if the
// path doesn't resolve or isn't a List/Obj).
func (d *Document) Count(path string) (int, error) {
	v, ok, err := d.Get(path)
	if err != nil || !ok {
		return 0, err
	}
	return v.Len(), nil
}

// Set writes val at path, auto-invalidating cached query results via the
// version bump.
func (d *Document) Set(path string, val value.Value) error { return d.doc.Set(path, val) }

// Delete removes the value at path.
func (d *Document) Delete(path string) (bool, error) { return d.doc.Delete(path) }

// Push appends item to the list at path.
func (d *Document) Push(path string, item value.Value) error { return d.doc.Push(path, item) }

// Pop removes and returns the last element of the list at path.
func (d *Document) Pop(path string) (value.Value, error) { return d.doc.Pop(path) }

// Merge deep-merges patch into the object at path.
func (d *Document) Merge(path string, patch value.Value) error { return d.doc.Merge(path, patch) }

// Snapshot captures the current root for later restore/diff.
func (d *Document) Snapshot() mutate.Snapshot { return d.doc.Snapshot() }

// Restore replaces the root with a prior snapshot's contents.
func (d *Document) Restore(snap mutate.Snapshot) { d.doc.Restore(snap) }

// Diff compares two snapshots field-by-field.
func Diff(old, new mutate.Snapshot) []mutate.FieldDiff { return mutate.Diff(old, new) }

// QueryStats reports the query engine's LRU cache hit/miss counters.
func (d *Document) QueryStats() query.Stats { return d.engine.Stats() }

// Stats summarizes the document: its version, root kind, and top-level
// field/element count.
type Stats struct {
	Version int64
	Kind    string
	Count   int
}

// Stats reports a quick summary of the document's current state.
func (d *Document) Stats() Stats {
	return Stats{Version: d.doc.Version, Kind: d.doc.Root.Kind().String(), Count: d.doc.Root.Len()}
}

// CreateIndex builds a secondary index named by field over the list at
// listPath. Subsequent mutations do not auto-refresh it; call
// CreateIndex again after structural changes to the indexed list.
func (d *Document) CreateIndex(name, listPath, field string, kind index.Kind, opts index.Options) error {
	v, ok, err := d.Get(listPath)
	if err != nil {
		return err
	}
	if !ok || v.Kind() != value.KindList {
		return tonlerr.New(tonlerr.KindType, tonlerr.SubNotAnArray, "create index", "indexed path is not a list").WithPath(listPath)
	}
	items, _ := v.List()
	idx, err := index.Build(field, kind, items, opts)
	if err != nil {
		return err
	}
	d.indices[name] = idx
	return nil
}

// DropIndex removes a previously created index.
func (d *Document) DropIndex(name string) {
	delete(d.indices, name)
}

// QueryIndex looks up item positions whose indexed field equals key.
func (d *Document) QueryIndex(name string, key value.Value) ([]int, error) {
	idx, ok := d.indices[name]
	if !ok {
		return nil, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "query index", "no such index").WithPath(name)
	}
	positions, _ := idx.Lookup(key)
	return positions, nil
}

// QueryIndexRange looks up item positions whose indexed field falls in
// [lo, hi].
func (d *Document) QueryIndexRange(name string, lo, hi value.Value) ([]int, error) {
	idx, ok := d.indices[name]
	if !ok {
		return nil, tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "query index range", "no such index").WithPath(name)
	}
	return idx.Range(lo, hi)
}

// IndexStats reports composition stats for a created index.
func (d *Document) IndexStats(name string) (index.Stats, bool) {
	idx, ok := d.indices[name]
	if !ok {
		return index.Stats{}, false
	}
	return idx.Stats(), true
}

// ParseSchema parses schema description text.
func ParseSchema(text string) (*schema.Schema, error) {
	return schema.Parse(text)
}

// Validate checks the value at path (the whole document if path is "")
// against s.
func (d *Document) Validate(path string, s *schema.Schema) (schema.ValidationResult, error) {
	target := d.doc.Root
	if path != "" {
		v, ok, err := d.Get(path)
		if err != nil {
			return schema.ValidationResult{}, err
		}
		if !ok {
			return schema.ValidationResult{Valid: false, Errors: []schema.ValidationError{{Field: path, Message: "path does not resolve to a value"}}}, nil
		}
		target = v
	}
	return schema.Validate(target, s, d.lim), nil
}
