package schema

import (
	"testing"

	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/value"
)

func TestParseDirectivesAndRootFields(t *testing.T) {
	text := `@schema v1
@strict true
name: str required
age: i32 min:0 max:150
`
	s, err := Parse(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if s.Version != "v1" || !s.Strict {
		t.Fatalf("expected version v1 strict true, got %+v", s)
	}
	if len(s.Fields) != 2 {
		t.Fatalf("expected 2 root fields, got %d", len(s.Fields))
	}
	if s.Fields[0].Name != "name" || !hasConstraint(s.Fields[0].Constraints, "required") {
		t.Fatalf("expected name required, got %+v", s.Fields[0])
	}
}

func TestParseNamedTypeAndCompoundList(t *testing.T) {
	text := `@schema v1
Address: obj
	city: str required
	zip: str pattern:date
user: obj
tags: list<str>
`
	s, err := Parse(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	addr, ok := s.Types["Address"]
	if !ok || len(addr.Fields) != 2 {
		t.Fatalf("expected Address type with 2 fields, got %+v", addr)
	}
	var tagsField *Field
	for i := range s.Fields {
		if s.Fields[i].Name == "tags" {
			tagsField = &s.Fields[i]
		}
	}
	if tagsField == nil || tagsField.Type.Kind != TypeList || tagsField.Type.Elem.Primitive != "str" {
		t.Fatalf("expected tags: list<str>, got %+v", tagsField)
	}
}

func TestValidateRequiredFieldMissing(t *testing.T) {
	s, err := Parse("name: str required\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	result := Validate(value.NewObj(), s, limits.DefaultLimits())
	if result.Valid {
		t.Fatal("expected invalid result for missing required field")
	}
	if len(result.Errors) != 1 || result.Errors[0].Field != "name" {
		t.Fatalf("expected one error on field 'name', got %+v", result.Errors)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	s, _ := Parse("age: i32\n")
	doc := value.NewObj().Set("age", value.Str("not a number"))
	result := Validate(doc, s, limits.DefaultLimits())
	if result.Valid {
		t.Fatal("expected invalid result for type mismatch")
	}
}

func TestValidateNumericConstraints(t *testing.T) {
	s, _ := Parse("age: i32 min:0 max:120\n")
	doc := value.NewObj().Set("age", value.Int(200))
	result := Validate(doc, s, limits.DefaultLimits())
	if result.Valid {
		t.Fatal("expected invalid result, age exceeds max")
	}
}

func TestValidatePositiveNegativeIntegerConstraints(t *testing.T) {
	s, _ := Parse("score: f64 positive integer\n")
	ok := Validate(value.NewObj().Set("score", value.Int(5)), s, limits.DefaultLimits())
	if !ok.Valid {
		t.Fatalf("expected valid, got %+v", ok.Errors)
	}
	bad := Validate(value.NewObj().Set("score", value.Float(-3.5)), s, limits.DefaultLimits())
	if bad.Valid {
		t.Fatal("expected invalid for negative non-integer value")
	}
}

func TestValidatePatternAliasEmail(t *testing.T) {
	s, _ := Parse("email: str pattern:email\n")
	good := Validate(value.NewObj().Set("email", value.Str("user@example.com")), s, limits.DefaultLimits())
	if !good.Valid {
		t.Fatalf("expected valid email, got %+v", good.Errors)
	}
	bad := Validate(value.NewObj().Set("email", value.Str("not-an-email")), s, limits.DefaultLimits())
	if bad.Valid {
		t.Fatal("expected invalid for malformed email")
	}
}

func TestValidateStrictModeRejectsUnknownField(t *testing.T) {
	text := `@schema v1
@strict true
name: str required
`
	s, _ := Parse(text)
	doc := value.NewObj().Set("name", value.Str("widget")).Set("extra", value.Bool(true))
	result := Validate(doc, s, limits.DefaultLimits())
	if result.Valid {
		t.Fatal("expected invalid result, strict mode should reject unknown field 'extra'")
	}
	found := false
	for _, e := range result.Errors {
		if e.Field == "extra" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an error naming field 'extra', got %+v", result.Errors)
	}
}

func TestValidateNestedNamedType(t *testing.T) {
	text := `@schema v1
Address: obj
	city: str required
user: Address
`
	s, _ := Parse(text)
	ok := Validate(value.NewObj().Set("user", value.NewObj().Set("city", value.Str("NYC"))), s, limits.DefaultLimits())
	if !ok.Valid {
		t.Fatalf("expected valid nested object, got %+v", ok.Errors)
	}
	bad := Validate(value.NewObj().Set("user", value.NewObj()), s, limits.DefaultLimits())
	if bad.Valid {
		t.Fatal("expected invalid result, nested required field 'city' missing")
	}
}

func TestValidateListElementTypeMismatch(t *testing.T) {
	s, _ := Parse("tags: list<str>\n")
	doc := value.NewObj().Set("tags", value.List(value.Str("a"), value.Int(5)))
	result := Validate(doc, s, limits.DefaultLimits())
	if result.Valid {
		t.Fatal("expected invalid result, list element 5 is not a str")
	}
}
