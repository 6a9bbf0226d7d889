// Package schema implements the schema language of spec.md §4.9: a
// small directive+field-block grammar describing a document's shape,
// and a validator producing a structured ValidationResult. Grounded on
// decode's own line-scanner style (splitSchemaLines mirrors
// decode.splitLogicalLines' indent tracking) generalized from TONL's
// data grammar to the schema's directive/type/field grammar; pattern
// aliases route through tregex the same way query's `matches` operator
// does.
package schema

import (
	"strconv"
	"strings"

	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/tregex"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/value"
)

// TypeKind tags a Field's declared type shape.
type TypeKind uint8

const (
	TypePrimitive TypeKind = iota
	TypeList
	TypeNamed
)

// FieldType is a (possibly nested) declared type: a primitive, a
// `list<Elem>`, or a reference to a named custom type.
type FieldType struct {
	Kind      TypeKind
	Primitive string // "str","i32","u32","f64","bool","null","obj","list" (untyped list)
	Elem      *FieldType
	Named     string
}

// Constraint is one parsed constraint token, e.g. `min:3` or `required`.
type Constraint struct {
	Name  string
	Value string
}

// Field is one declared field of a root document or a named type.
type Field struct {
	Name        string
	Type        FieldType
	Constraints []Constraint
}

// TypeDef is a named custom `obj` type declaration.
type TypeDef struct {
	Name   string
	Fields []Field
}

// Schema is a fully parsed schema document.
type Schema struct {
	Version     string
	Strict      bool
	Description string
	Types       map[string]*TypeDef
	Fields      []Field
}

type schemaLine struct {
	indent int
	text   string
}

func splitSchemaLines(text string) []schemaLine {
	var out []schemaLine
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimLeft(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		out = append(out, schemaLine{indent: indent, text: trimmed})
	}
	return out
}

// Parse parses schema text into a Schema.
func Parse(text string) (*Schema, error) {
	lines := splitSchemaLines(text)
	s := &Schema{Types: make(map[string]*TypeDef)}

	pos := 0
	for pos < len(lines) && strings.HasPrefix(lines[pos].text, "@") {
		directive := lines[pos].text
		parts := strings.Fields(directive)
		if len(parts) < 2 {
			return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "malformed directive").WithContext(directive)
		}
		switch parts[0] {
		case "@schema":
			s.Version = parts[1]
		case "@strict":
			s.Strict = parts[1] == "true"
		case "@description":
			s.Description = strings.TrimSpace(strings.TrimPrefix(directive, "@description"))
		default:
			return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "unknown directive").WithContext(directive)
		}
		pos++
	}

	for pos < len(lines) {
		line := lines[pos]
		if line.indent != 0 {
			return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "unexpected indentation at root").WithContext(line.text)
		}
		name, rest, ok := splitColon(line.text)
		if !ok {
			return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "expected 'name: type ...'").WithContext(line.text)
		}
		if rest == "obj" || strings.HasPrefix(rest, "obj ") {
			bodyStart := pos + 1
			bodyEnd := bodyStart
			for bodyEnd < len(lines) && lines[bodyEnd].indent > 0 {
				bodyEnd++
			}
			fields, err := parseFieldBlock(lines[bodyStart:bodyEnd])
			if err != nil {
				return nil, err
			}
			s.Types[name] = &TypeDef{Name: name, Fields: fields}
			pos = bodyEnd
			continue
		}
		f, err := parseFieldLine(name, rest)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, f)
		pos++
	}
	return s, nil
}

func parseFieldBlock(lines []schemaLine) ([]Field, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	base := lines[0].indent
	var fields []Field
	for _, l := range lines {
		if l.indent != base {
			return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "inconsistent field indentation").WithContext(l.text)
		}
		name, rest, ok := splitColon(l.text)
		if !ok {
			return nil, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "expected 'name: type ...'").WithContext(l.text)
		}
		f, err := parseFieldLine(name, rest)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func splitColon(s string) (string, string, bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}

// parseFieldLine parses `Type constraint1 constraint2:value ...` into a
// Field's type and constraint list.
func parseFieldLine(name, rest string) (Field, error) {
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return Field{}, tonlerr.New(tonlerr.KindSchema, tonlerr.SubSchemaViolation, "parse schema", "field missing a type").WithPath(name)
	}
	ft, err := parseFieldType(tokens[0])
	if err != nil {
		return Field{}, err
	}
	var constraints []Constraint
	for _, tok := range tokens[1:] {
		if i := strings.Index(tok, ":"); i >= 0 {
			constraints = append(constraints, Constraint{Name: tok[:i], Value: tok[i+1:]})
		} else {
			constraints = append(constraints, Constraint{Name: tok})
		}
	}
	return Field{Name: name, Type: ft, Constraints: constraints}, nil
}

func parseFieldType(tok string) (FieldType, error) {
	if strings.HasPrefix(tok, "list<") && strings.HasSuffix(tok, ">") {
		inner := tok[len("list<") : len(tok)-1]
		elem, err := parseFieldType(inner)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Kind: TypeList, Elem: &elem}, nil
	}
	switch tok {
	case "str", "i32", "u32", "f64", "bool", "null", "obj", "list":
		return FieldType{Kind: TypePrimitive, Primitive: tok}, nil
	default:
		return FieldType{Kind: TypeNamed, Named: tok}, nil
	}
}

// ValidationError describes one field-level validation failure.
type ValidationError struct {
	Field    string
	Message  string
	Expected string
	Actual   string
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

var patternAliases = map[string]string{
	"email": `^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`,
	"date":  `^\d{4}-\d{2}-\d{2}$`,
	"url":   `^https?://[^\s]+$`,
}

// Validate checks v against schema's root field list, honoring strict
// mode's "unknown field" rejection.
func Validate(v value.Value, s *Schema, lim limits.Limits) ValidationResult {
	var result ValidationResult
	result.Valid = true
	validateFields(v, s.Fields, s, s.Strict, "", &result)
	if s.Strict && v.Kind() == value.KindObj {
		known := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			known[f.Name] = true
		}
		for _, k := range v.Keys() {
			if !known[k] {
				addError(&result, k, "unknown field not permitted in strict mode", "", "")
			}
		}
	}
	_ = lim
	return result
}

func addError(r *ValidationResult, field, msg, expected, actual string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: msg, Expected: expected, Actual: actual})
}

func validateFields(v value.Value, fields []Field, s *Schema, strict bool, prefix string, result *ValidationResult) {
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		child, ok := v.Get(f.Name)
		if !ok {
			if hasConstraint(f.Constraints, "required") {
				addError(result, path, "required field is missing", "present", "missing")
			}
			continue
		}
		validateField(child, f, s, strict, path, result)
	}
}

func hasConstraint(cs []Constraint, name string) bool {
	for _, c := range cs {
		if c.Name == name {
			return true
		}
	}
	return false
}

func getConstraint(cs []Constraint, name string) (string, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func validateField(v value.Value, f Field, s *Schema, strict bool, path string, result *ValidationResult) {
	if !typeMatches(v, f.Type, s) {
		addError(result, path, "type mismatch", typeName(f.Type), v.Kind().String())
		return
	}
	for _, c := range f.Constraints {
		validateConstraint(v, c, path, result)
	}
	switch f.Type.Kind {
	case TypeNamed:
		if td, ok := s.Types[f.Type.Named]; ok && v.Kind() == value.KindObj {
			validateFields(v, td.Fields, s, strict, path, result)
			if hasConstraint(f.Constraints, "sealed") {
				known := make(map[string]bool, len(td.Fields))
				for _, tf := range td.Fields {
					known[tf.Name] = true
				}
				for _, k := range v.Keys() {
					if !known[k] {
						addError(result, path+"."+k, "unknown field not permitted in sealed type", "", "")
					}
				}
			}
		}
	case TypeList:
		if items, ok := v.List(); ok && f.Type.Elem != nil {
			for i, item := range items {
				if !typeMatches(item, *f.Type.Elem, s) {
					addError(result, elemPath(path, i), "type mismatch", typeName(*f.Type.Elem), item.Kind().String())
				}
			}
		}
	}
}

func elemPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func typeName(ft FieldType) string {
	switch ft.Kind {
	case TypeList:
		if ft.Elem != nil {
			return "list<" + typeName(*ft.Elem) + ">"
		}
		return "list"
	case TypeNamed:
		return ft.Named
	default:
		return ft.Primitive
	}
}

func typeMatches(v value.Value, ft FieldType, s *Schema) bool {
	switch ft.Kind {
	case TypeList:
		return v.Kind() == value.KindList
	case TypeNamed:
		if _, ok := s.Types[ft.Named]; ok {
			return v.Kind() == value.KindObj
		}
		return true
	default:
		switch ft.Primitive {
		case "str":
			return v.Kind() == value.KindStr
		case "bool":
			return v.Kind() == value.KindBool
		case "i32", "u32":
			return v.Kind() == value.KindInt
		case "f64":
			return v.IsNumber()
		case "null":
			return v.IsNull()
		case "obj":
			return v.Kind() == value.KindObj
		case "list":
			return v.Kind() == value.KindList
		default:
			return true
		}
	}
}

func validateConstraint(v value.Value, c Constraint, path string, result *ValidationResult) {
	switch c.Name {
	case "required", "optional", "default", "trim", "sealed":
		// required and sealed are checked by the callers; optional,
		// default and trim are accepted and not checked anywhere.
	case "min":
		checkNumericBound(v, c.Value, path, result, func(n, bound float64) bool { return n >= bound }, "min")
	case "max":
		checkNumericBound(v, c.Value, path, result, func(n, bound float64) bool { return n <= bound }, "max")
	case "length":
		n, err := strconv.Atoi(c.Value)
		if err != nil {
			return
		}
		if s, ok := v.Str(); ok && len(s) != n {
			addError(result, path, "length constraint violated", c.Value, strconv.Itoa(len(s)))
		}
	case "range":
		parts := strings.Split(c.Value, ",")
		if len(parts) != 2 {
			return
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || !v.IsNumber() {
			return
		}
		n, _ := v.Float()
		if n < lo || n > hi {
			addError(result, path, "value outside allowed range", c.Value, strconv.FormatFloat(n, 'g', -1, 64))
		}
	case "multipleOf":
		n, err := strconv.ParseFloat(c.Value, 64)
		if err != nil || n == 0 || !v.IsNumber() {
			return
		}
		f, _ := v.Float()
		q := f / n
		if q != float64(int64(q)) {
			addError(result, path, "not a multiple of "+c.Value, c.Value, strconv.FormatFloat(f, 'g', -1, 64))
		}
	case "integer":
		if f, ok := v.Float(); ok && f != float64(int64(f)) {
			addError(result, path, "expected an integer value", "integer", strconv.FormatFloat(f, 'g', -1, 64))
		}
	case "positive":
		if f, ok := v.Float(); ok && f <= 0 {
			addError(result, path, "expected a positive value", "> 0", strconv.FormatFloat(f, 'g', -1, 64))
		}
	case "negative":
		if f, ok := v.Float(); ok && f >= 0 {
			addError(result, path, "expected a negative value", "< 0", strconv.FormatFloat(f, 'g', -1, 64))
		}
	case "nonempty":
		if c.Value == "true" {
			if s, ok := v.Str(); ok && s == "" {
				addError(result, path, "value must not be empty", "nonempty", "empty")
			}
			if v.Kind() == value.KindList && v.Len() == 0 {
				addError(result, path, "list must not be empty", "nonempty", "empty")
			}
		}
	case "lowercase":
		if s, ok := v.Str(); ok && s != strings.ToLower(s) {
			addError(result, path, "value must be lowercase", strings.ToLower(s), s)
		}
	case "uppercase":
		if s, ok := v.Str(); ok && s != strings.ToUpper(s) {
			addError(result, path, "value must be uppercase", strings.ToUpper(s), s)
		}
	case "pattern":
		validatePattern(v, c.Value, path, result)
	case "unique":
		// Enforced at the collection level by the caller (index/schema
		// integration owns cross-element uniqueness); no single-value
		// check applies here.
	}
}

func checkNumericBound(v value.Value, raw, path string, result *ValidationResult, ok func(n, bound float64) bool, label string) {
	bound, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	if s, isStr := v.Str(); isStr {
		if !ok(float64(len(s)), bound) {
			addError(result, path, label+" length constraint violated", raw, strconv.Itoa(len(s)))
		}
		return
	}
	if v.IsNumber() {
		n, _ := v.Float()
		if !ok(n, bound) {
			addError(result, path, label+" constraint violated", raw, strconv.FormatFloat(n, 'g', -1, 64))
		}
	}
}

func validatePattern(v value.Value, token, path string, result *ValidationResult) {
	s, ok := v.Str()
	if !ok {
		return
	}
	pattern := token
	if alias, isAlias := patternAliases[token]; isAlias {
		pattern = alias
	}
	re, err := tregex.Compile(pattern, limits.DefaultLimits())
	if err != nil {
		addError(result, path, "invalid pattern constraint", token, "")
		return
	}
	matched, err := re.MatchString(s)
	if err != nil || !matched {
		addError(result, path, "value does not match pattern "+token, token, s)
	}
}
