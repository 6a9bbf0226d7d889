package decode

import (
	"strconv"

	"github.com/tonl-io/tonl/internal/tok"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// coerceField applies a column's declared type hint (§4.2 "Decoders
// treat the annotation as advisory (validated in strict mode,
// ignored-with-coercion otherwise)"). Outside strict mode a hint that
// doesn't match the text falls back to plain inference; in strict mode a
// mismatch is a TypeMismatch error.
func coerceField(f tok.Field, hint string, strict bool) (value.Value, error) {
	if hint == "" || f.WasQuoted {
		return inferScalar(f.Value, f.WasQuoted, f.WasTriple)
	}
	switch hint {
	case "null":
		if f.Value == "null" || f.Value == "" {
			return value.Null(), nil
		}
	case "bool":
		switch f.Value {
		case "true":
			return value.Bool(true), nil
		case "false":
			return value.Bool(false), nil
		}
	case "u32", "i32":
		if i, err := strconv.ParseInt(f.Value, 10, 64); err == nil {
			if hint == "u32" && !value.FitsUint32(i) && strict {
				break
			}
			if hint == "i32" && !value.FitsInt32(i) && strict {
				break
			}
			return value.Int(i), nil
		}
	case "f64":
		if fl, err := strconv.ParseFloat(f.Value, 64); err == nil {
			return value.Float(fl), nil
		}
	case "str":
		return value.Str(f.Value), nil
	}
	if strict {
		return value.Value{}, tonlerr.New(tonlerr.KindType, tonlerr.SubTypeMismatch, "decode", "field does not match declared type hint").WithContext(hint + ": " + f.Value)
	}
	return inferScalar(f.Value, f.WasQuoted, f.WasTriple)
}
