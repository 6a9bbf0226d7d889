// Package encode serializes a value.Value tree to TONL text: layout
// chooser → delimiter chooser → per-node writer, per spec.md §4.2.
// Grounded on the teacher's internal/regtext/emit.go ExportReg/exportKey
// walk-and-switch-on-shape structure, generalized from a fixed registry
// value-type switch to TONL's layout/quoting rules.
package encode

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tonl-io/tonl/internal/fmtconsts"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Encode serializes root (expected to be an Obj, the document's field
// set) to TONL text using the delimiter fixed in opts.
func Encode(root value.Value, opts Options, lim limits.Limits) (string, error) {
	return encode(root, opts, lim)
}

// EncodeSmart is Encode but with the delimiter auto-chosen by scanning a
// JSON serialization of root for delimiter-candidate occurrences (§4.2
// "Smart delimiter selection").
func EncodeSmart(root value.Value, opts Options, lim limits.Limits) (string, error) {
	opts.Delimiter = chooseDelimiter(root)
	return encode(root, opts, lim)
}

func encode(root value.Value, opts Options, lim limits.Limits) (string, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = fmtconsts.DelimComma
	}
	if opts.VersionString == "" {
		opts.VersionString = fmtconsts.DefaultVersionString
	}
	if opts.Indent == "" {
		opts.Indent = fmtconsts.IndentUnit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", fmtconsts.VersionDirectivePrefix, opts.VersionString)
	if opts.Delimiter != fmtconsts.DelimComma {
		fmt.Fprintf(&b, "%s %s\n", fmtconsts.DelimiterDirectivePrefix, opts.Delimiter.Name())
	}

	e := &encoder{opts: opts, lim: lim, inProgress: map[uintptr]bool{}}
	if root.Kind() != value.KindObj {
		return "", tonlerr.New(tonlerr.KindType, tonlerr.SubNotAnObject, "encode", "document root must be an object")
	}
	for _, key := range root.Keys() {
		fv, _ := root.Get(key)
		if err := e.writeField(&b, key, fv, 0); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

type encoder struct {
	opts       Options
	lim        limits.Limits
	inProgress map[uintptr]bool
}

func (e *encoder) indent(depth int) string {
	return strings.Repeat(e.opts.Indent, depth)
}

// checkDepth fails when a node lies more than MaxEncodeDepth levels below
// the document root. depth is the writer's indentation level, 0 for the
// root's own fields, so the node's level below the root is depth+1.
func (e *encoder) checkDepth(depth int, path string) error {
	if depth+1 > e.lim.MaxEncodeDepth {
		return tonlerr.New(tonlerr.KindLimit, tonlerr.SubDepthExceeded, "encode", "maximum encode depth exceeded").
			WithPath(path).WithContext(fmt.Sprintf("depth %d > limit %d", depth+1, e.lim.MaxEncodeDepth))
	}
	return nil
}

func (e *encoder) enterContainer(v value.Value, path string) (func(), error) {
	id, ok := value.ContainerID(v)
	if !ok {
		return func() {}, nil
	}
	if e.inProgress[id] {
		return nil, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubCycle, "encode", "cycle detected").WithPath(path)
	}
	e.inProgress[id] = true
	return func() { delete(e.inProgress, id) }, nil
}

// writeField emits one `key: ...` (or tabular/nested) node at the given
// indentation depth.
func (e *encoder) writeField(b *strings.Builder, key string, v value.Value, depth int) error {
	return e.writeField2(b, key, v, depth, e.indent(depth))
}

func (e *encoder) writeTabular(b *strings.Builder, key string, v value.Value, cols []string, depth int, ind string) error {
	exit, err := e.enterContainer(v, key)
	if err != nil {
		return err
	}
	defer exit()

	items, _ := v.List()
	header := fmt.Sprintf("%s%s[%d]{%s}:\n", ind, key, len(items), e.columnHeader(cols, items))
	b.WriteString(header)

	rowInd := ind + e.opts.Indent
	for i, row := range items {
		if err := e.checkDepth(depth+1, fmt.Sprintf("%s[%d]", key, i)); err != nil {
			return err
		}
		var fields []string
		for _, c := range cols {
			fv, ok := row.Get(c)
			if !ok {
				fields = append(fields, "")
				continue
			}
			s, err := e.formatScalarField(fv)
			if err != nil {
				return err
			}
			fields = append(fields, s)
		}
		b.WriteString(rowInd)
		b.WriteString(strings.Join(fields, string(e.opts.Delimiter.Byte())))
		b.WriteString("\n")
	}
	return nil
}

func (e *encoder) columnHeader(cols []string, items []value.Value) string {
	if !e.opts.IncludeTypes || len(items) == 0 {
		return strings.Join(cols, string(fmtconsts.ColumnSep))
	}
	named := make([]string, len(cols))
	for i, c := range cols {
		fv, ok := items[0].Get(c)
		hint := "str"
		if ok {
			hint = value.TypeHint(fv)
		}
		named[i] = fmt.Sprintf("%s:%s", c, hint)
	}
	return strings.Join(named, string(fmtconsts.ColumnSep))
}

func (e *encoder) writeSingleLineList(b *strings.Builder, key string, v value.Value, ind string) error {
	items, _ := v.List()
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := e.formatScalarField(it)
		if err != nil {
			return err
		}
		parts[i] = s
	}
	fmt.Fprintf(b, "%s%s[%d]: [%s]\n", ind, key, len(items), strings.Join(parts, ", "))
	return nil
}

func (e *encoder) writeListBlocks(b *strings.Builder, key string, v value.Value, depth int, ind string) error {
	exit, err := e.enterContainer(v, key)
	if err != nil {
		return err
	}
	defer exit()

	items, _ := v.List()
	fmt.Fprintf(b, "%s%s[%d]:\n", ind, key, len(items))
	childInd := ind + e.opts.Indent
	for i, it := range items {
		idxKey := fmt.Sprintf("[%d]", i)
		if err := e.writeField2(b, idxKey, it, depth+1, childInd); err != nil {
			return err
		}
	}
	return nil
}

// writeField2 is writeField but with an already-computed indent string
// (used for synthetic "[i]" index keys that should not be re-indented).
func (e *encoder) writeField2(b *strings.Builder, key string, v value.Value, depth int, ind string) error {
	if err := e.checkDepth(depth, key); err != nil {
		return err
	}
	if cols, ok := value.IsUniformObjectArray(v); ok {
		return e.writeTabular(b, key, v, cols, depth, ind)
	}
	if v.Kind() == value.KindList {
		if value.IsPrimitiveList(v) && e.opts.SingleLinePrimitiveLists {
			return e.writeSingleLineList(b, key, v, ind)
		}
		return e.writeListBlocks(b, key, v, depth, ind)
	}
	if v.Kind() == value.KindObj {
		return e.writeNestedObject(b, key, v, depth, ind)
	}
	scalar, err := e.formatScalar(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "%s%s: %s\n", ind, key, scalar)
	return nil
}

func (e *encoder) writeNestedObject(b *strings.Builder, key string, v value.Value, depth int, ind string) error {
	exit, err := e.enterContainer(v, key)
	if err != nil {
		return err
	}
	defer exit()

	fmt.Fprintf(b, "%s%s:\n", ind, key)
	childInd := ind + e.opts.Indent
	for _, k := range v.Keys() {
		if value.IsDangerousName(k) {
			return tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "encode", "dangerous key name").WithPath(key + "." + k)
		}
		fv, _ := v.Get(k)
		if err := e.writeField2(b, k, fv, depth+1, childInd); err != nil {
			return err
		}
	}
	return nil
}

// formatScalar renders a KV-line value (§6 grammar: ScalarLit).
func (e *encoder) formatScalar(v value.Value) (string, error) {
	return e.formatScalarField(v)
}

func (e *encoder) formatScalarField(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindMissing:
		return "", nil
	case value.KindNull:
		return "null", nil
	case value.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b), nil
	case value.KindInt:
		i, _ := v.Int()
		return strconv.FormatInt(i, 10), nil
	case value.KindFloat:
		f, _ := v.Float()
		return formatFloat(f), nil
	case value.KindStr:
		s, _ := v.Str()
		return e.quoteString(s), nil
	default:
		return "", tonlerr.New(tonlerr.KindType, tonlerr.SubTypeMismatch, "encode", "value is not a scalar")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteString applies §4.2's quoting rule: quote iff the string contains
// the active delimiter, a literal quote, a newline, leading/trailing
// whitespace, or would be mis-parsed as a number/bool/null.
func (e *encoder) quoteString(s string) string {
	if strings.Contains(s, "\n") {
		escaped := strings.ReplaceAll(s, `\`, `\\`)
		return fmtconsts.TripleQuote + escaped + fmtconsts.TripleQuote
	}
	if e.needsQuoting(s) {
		escaped := strings.ReplaceAll(s, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	}
	return s
}

func (e *encoder) needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsRune(s, rune(e.opts.Delimiter.Byte())) {
		return true
	}
	if strings.ContainsAny(s, `"`) {
		return true
	}
	if s != strings.TrimSpace(s) {
		return true
	}
	if looksLikeScalar(s) {
		return true
	}
	return false
}

// looksLikeScalar reports whether a bare string would be mis-decoded as
// null/bool/number under the §4.1 inference rules.
func looksLikeScalar(s string) bool {
	switch s {
	case "null", "true", "false":
		return true
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

// chooseDelimiter implements §4.2's smart delimiter selection: scan the
// JSON serialization of the value for each candidate's occurrence count
// and pick the minimum, ties broken in fmtconsts.Delimiters order.
func chooseDelimiter(v value.Value) fmtconsts.Delimiter {
	iv := toInterface(v)
	data, err := json.Marshal(iv)
	if err != nil {
		return fmtconsts.DelimComma
	}
	best := fmtconsts.Delimiters[0]
	bestCount := -1
	for _, d := range fmtconsts.Delimiters {
		count := strings.Count(string(data), string(d.Byte()))
		if bestCount == -1 || count < bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

func toInterface(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull, value.KindMissing:
		return nil
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindInt:
		i, _ := v.Int()
		return i
	case value.KindFloat:
		f, _ := v.Float()
		return f
	case value.KindStr:
		s, _ := v.Str()
		return s
	case value.KindList:
		items, _ := v.List()
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = toInterface(it)
		}
		return out
	case value.KindObj:
		out := make(map[string]interface{}, v.Len())
		keys := v.Keys()
		sort.Strings(keys) // JSON map ordering is unspecified; sort for determinism
		for _, k := range keys {
			fv, _ := v.Get(k)
			out[k] = toInterface(fv)
		}
		return out
	default:
		return nil
	}
}
