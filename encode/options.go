package encode

import "github.com/tonl-io/tonl/internal/fmtconsts"

// Options mirrors the language-neutral sketch in spec.md §6's "Public API
// surface": encode(value, options).
type Options struct {
	Delimiter                fmtconsts.Delimiter
	IncludeTypes              bool
	VersionString             string
	Indent                    string
	SingleLinePrimitiveLists  bool
	PrettyDelimiters          bool
	CompactTables             bool
	SchemaFirst               bool
}

// DefaultOptions matches the S1/S2 example shapes in spec.md §8.
func DefaultOptions() Options {
	return Options{
		Delimiter:               fmtconsts.DelimComma,
		VersionString:           fmtconsts.DefaultVersionString,
		Indent:                  fmtconsts.IndentUnit,
		SingleLinePrimitiveLists: true,
	}
}
