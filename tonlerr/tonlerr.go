// Package tonlerr defines the typed error taxonomy used across the TONL
// core: parse, type, security, limit, query, and schema errors, each with
// a closed set of string sub-kinds so callers can switch on Kind/SubKind
// without string-matching messages.
package tonlerr

import (
	"errors"
	"fmt"
)

// Kind is the top-level error category.
type Kind string

const (
	KindParse    Kind = "ParseError"
	KindType     Kind = "TypeError"
	KindSecurity Kind = "SecurityViolation"
	KindLimit    Kind = "LimitExceeded"
	KindQuery    Kind = "QueryError"
	KindSchema   Kind = "SchemaError"
)

// Sub-kinds, grouped by Kind. These are string constants (not a nested
// enum type) so error construction can stay terse: tonlerr.New(KindParse,
// SubUnclosedQuote, ...).
const (
	SubUnexpectedToken = "UnexpectedToken"
	SubInvalidHeader   = "InvalidHeader"
	SubUnclosedQuote   = "UnclosedQuote"
	SubInvalidDelim    = "InvalidDelimiter"
	SubMalformedLine   = "MalformedLine"

	SubTypeMismatch    = "TypeMismatch"
	SubNotAnArray      = "NotAnArray"
	SubNotAnObject     = "NotAnObject"
	SubIndexOutOfBound = "IndexOutOfBounds"

	SubPrototypePollution = "PrototypePollution"
	SubPathTraversal      = "PathTraversal"
	SubDangerousRegex     = "DangerousRegex"
	SubRegexTimeout       = "RegexTimeout"
	SubCycle              = "Cycle"
	SubSelfReference      = "SelfReference"

	SubInputTooLarge     = "InputTooLarge"
	SubLineTooLong       = "LineTooLong"
	SubDepthExceeded     = "DepthExceeded"
	SubBlockLinesExceed  = "BlockLinesExceeded"
	SubBufferOverflow    = "BufferOverflow"
	SubQueryTooDeep      = "QueryTooDeep"

	SubInvalidPath   = "InvalidPath"
	SubFilterSyntax  = "FilterSyntax"

	SubSchemaViolation = "SchemaViolation"
	SubRequiredField   = "RequiredField"
	SubInvalidEnum     = "InvalidEnum"
	SubPatternMismatch = "PatternMismatch"

	// SubConstraintViolation covers structural constraints enforced
	// outside the schema language proper, e.g. index build-time
	// uniqueness (§4.8).
	SubConstraintViolation = "ConstraintViolation"
)

// Error is the single error type the core returns. Kind/SubKind let
// callers branch programmatically; Error() renders the human template
// from spec §7: "{Operation} failed: {reason}. {context}".
type Error struct {
	Kind      Kind
	SubKind   string
	Operation string
	Reason    string
	Context   string
	Line      int // 1-based, 0 if unknown
	Column    int // 1-based, 0 if unknown
	Path      string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed: %s", e.Operation, e.Reason)
	if e.Context != "" {
		msg += ". " + e.Context
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", col %d", e.Column)
		}
		msg += ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, tonlerr.New(KindX, "", ...)) style matching on
// Kind+SubKind alone, ignoring message/context/location.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.SubKind != "" && t.SubKind != e.SubKind {
		return false
	}
	return true
}

// New builds an Error. operation names the high-level action ("decode",
// "set", "query", ...); reason is a short lower-case clause.
func New(kind Kind, subKind, operation, reason string) *Error {
	return &Error{Kind: kind, SubKind: subKind, Operation: operation, Reason: reason}
}

func (e *Error) WithContext(context string) *Error {
	e.Context = context
	return e
}

func (e *Error) WithLoc(line, col int) *Error {
	e.Line = line
	e.Column = col
	return e
}

func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Sentinel matchers, analogous to hivekit's package-level ErrNotHive etc.,
// used with errors.As to recover the typed Error from an arbitrary error
// chain.
func As(err error) (*Error, bool) {
	var te *Error
	ok := errors.As(err, &te)
	return te, ok
}

func IsKind(err error, kind Kind) bool {
	te, ok := As(err)
	return ok && te.Kind == kind
}
