package decode

import "github.com/tonl-io/tonl/internal/fmtconsts"

// Options mirrors spec.md §6's decode(text, options): delimiter override,
// strict mode.
type Options struct {
	// Delimiter, if non-zero, overrides the header's #delimiter directive
	// (or the comma default) entirely.
	Delimiter fmtconsts.Delimiter
	// Strict enforces §4.3's "field count must equal column count or
	// fail MalformedLine" and makes declared type hints authoritative
	// (mismatches fail) rather than advisory.
	Strict bool
}
