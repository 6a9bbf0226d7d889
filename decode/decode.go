// Package decode implements the TONL parser: header scan → block
// grouping → block dispatch → line tokenizer → type coercion, per
// spec.md §4.3. Grounded on the teacher's internal/regtext/parser.go
// ParseReg's scanner-driven line loop with a "current section" tracker,
// generalized from a flat [section]/"k"=v grammar to TONL's indented
// block grammar.
package decode

import (
	"strings"

	"github.com/tonl-io/tonl/internal/fmtconsts"
	"github.com/tonl-io/tonl/internal/tok"
	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/tonlerr"
	"github.com/tonl-io/tonl/value"
)

// Decode parses TONL text into a root Value (always an Obj — the
// document's top-level field set).
func Decode(text string, opts Options, lim limits.Limits) (value.Value, error) {
	lines, err := splitLogicalLines(text, lim)
	if err != nil {
		return value.Value{}, err
	}

	delim := fmtconsts.DelimComma
	pos := 0
	for pos < len(lines) && lines[pos].indent == 0 && strings.HasPrefix(lines[pos].content, "#") {
		directive := lines[pos].content
		switch {
		case strings.HasPrefix(directive, fmtconsts.DelimiterDirectivePrefix):
			name := strings.TrimSpace(strings.TrimPrefix(directive, fmtconsts.DelimiterDirectivePrefix))
			if d, ok := fmtconsts.ParseDelimiterName(name); ok {
				delim = d
			} else {
				return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubInvalidDelim, "decode", "unrecognized delimiter directive").WithLoc(lines[pos].lineNo, 0)
			}
		case strings.HasPrefix(directive, fmtconsts.VersionDirectivePrefix):
			// Version is informational; no compatibility gate in the core.
		default:
			return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubInvalidHeader, "decode", "unrecognized directive").WithLoc(lines[pos].lineNo, 0)
		}
		pos++
	}
	if opts.Delimiter != 0 {
		delim = opts.Delimiter
	}

	d := &decoder{lim: lim, strict: opts.Strict, delim: delim.Byte()}
	root, next, err := d.parseObjectBody(lines, pos, len(lines), 0, 0)
	if err != nil {
		return value.Value{}, err
	}
	if next != len(lines) {
		return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "unexpected indentation").WithLoc(lines[next].lineNo, lines[next].indent)
	}
	return root, nil
}

type decoder struct {
	lim    limits.Limits
	strict bool
	delim  byte
}

func (d *decoder) checkDepth(depth int, lineNo int) error {
	if depth > d.lim.MaxNestingDepth {
		return tonlerr.New(tonlerr.KindLimit, tonlerr.SubDepthExceeded, "decode", "maximum nesting depth exceeded").WithLoc(lineNo, 0)
	}
	return nil
}

// parseObjectBody parses sibling header/KV lines at the given indent
// level, from lines[pos:end], into an Obj. Returns the position just
// past the last consumed line.
func (d *decoder) parseObjectBody(lines []logicalLine, pos, end, indent, depth int) (value.Value, int, error) {
	if err := d.checkDepth(depth, 0); err != nil {
		return value.Value{}, 0, err
	}
	obj := value.NewObj()
	count := 0
	for pos < end && lines[pos].indent == indent {
		count++
		if count > d.lim.MaxBlockLines {
			return value.Value{}, 0, tonlerr.New(tonlerr.KindLimit, tonlerr.SubBlockLinesExceed, "decode", "block line count exceeded").WithLoc(lines[pos].lineNo, 0)
		}
		line := lines[pos]
		h, err := parseHeaderLine(line.content, line.lineNo)
		if err != nil {
			return value.Value{}, 0, err
		}
		if h.isIndex {
			return value.Value{}, 0, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "unexpected array index entry in object body").WithLoc(line.lineNo, 0)
		}
		if value.IsDangerousName(h.key) {
			return value.Value{}, 0, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "decode", "dangerous key name").WithPath(h.key).WithLoc(line.lineNo, 0)
		}

		if h.rest != "" {
			val, err := d.parseInlineValue(h)
			if err != nil {
				return value.Value{}, 0, err
			}
			if !val.IsMissing() {
				obj = obj.Set(h.key, val)
			}
			pos++
			continue
		}

		bodyStart := pos + 1
		bodyEnd := bodyStart
		for bodyEnd < end && lines[bodyEnd].indent > indent {
			bodyEnd++
		}

		var val value.Value
		switch {
		case h.hasCols:
			val, err = d.parseTabular(h, lines[bodyStart:bodyEnd])
		case h.hasCount:
			val, _, err = d.parseIndexList(lines, bodyStart, bodyEnd, indent, depth+1)
			if err == nil && d.strict && val.Len() != h.count {
				err = tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "declared array length mismatch").WithLoc(line.lineNo, 0)
			}
		default:
			val, _, err = d.parseObjectBody(lines, bodyStart, bodyEnd, childIndent(lines, bodyStart, indent), depth+1)
		}
		if err != nil {
			return value.Value{}, 0, err
		}
		obj = obj.Set(h.key, val)
		pos = bodyEnd
	}
	return obj, pos, nil
}

func childIndent(lines []logicalLine, pos, parentIndent int) int {
	if pos < len(lines) {
		return lines[pos].indent
	}
	return parentIndent + 1
}

// parseIndexList parses the `[i]:` rows of an object-array-in-blocks
// header into a List.
func (d *decoder) parseIndexList(lines []logicalLine, pos, end, indent, depth int) (value.Value, int, error) {
	if err := d.checkDepth(depth, 0); err != nil {
		return value.Value{}, 0, err
	}
	var items []value.Value
	count := 0
	for pos < end && lines[pos].indent == indent {
		count++
		if count > d.lim.MaxBlockLines {
			return value.Value{}, 0, tonlerr.New(tonlerr.KindLimit, tonlerr.SubBlockLinesExceed, "decode", "block line count exceeded").WithLoc(lines[pos].lineNo, 0)
		}
		line := lines[pos]
		h, err := parseHeaderLine(line.content, line.lineNo)
		if err != nil {
			return value.Value{}, 0, err
		}
		if !h.isIndex {
			return value.Value{}, 0, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "expected array index entry '[i]:'").WithLoc(line.lineNo, 0)
		}
		if h.rest != "" {
			val, err := d.parseInlineValue(h)
			if err != nil {
				return value.Value{}, 0, err
			}
			items = append(items, val)
			pos++
			continue
		}
		bodyStart := pos + 1
		bodyEnd := bodyStart
		for bodyEnd < end && lines[bodyEnd].indent > indent {
			bodyEnd++
		}
		val, err := d.parseElementBody(lines, bodyStart, bodyEnd, indent, depth+1)
		if err != nil {
			return value.Value{}, 0, err
		}
		items = append(items, val)
		pos = bodyEnd
	}
	return value.List(items...), pos, nil
}

// parseElementBody parses the body of a single array element, which may
// itself be a nested object or a nested array-of-indices.
func (d *decoder) parseElementBody(lines []logicalLine, start, end, parentIndent, depth int) (value.Value, error) {
	if start >= end {
		return value.NewObj(), nil
	}
	childIdx := lines[start].indent
	h, err := parseHeaderLine(lines[start].content, lines[start].lineNo)
	if err != nil {
		return value.Value{}, err
	}
	if h.isIndex {
		v, _, err := d.parseIndexList(lines, start, end, childIdx, depth)
		return v, err
	}
	v, _, err := d.parseObjectBody(lines, start, end, childIdx, depth)
	return v, err
}

// parseInlineValue handles a KV-line or single-line-list rest-of-line
// value (anything after the header colon on the same physical line).
func (d *decoder) parseInlineValue(h *parsedHeader) (value.Value, error) {
	rest := h.rest
	if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
		return parseInlineList(rest)
	}
	content, wasQ, wasT := stripQuotesIfAny(rest)
	return inferScalar(content, wasQ, wasT)
}

func parseInlineList(rest string) (value.Value, error) {
	inner := strings.TrimSpace(rest[1 : len(rest)-1])
	if inner == "" {
		return value.List(), nil
	}
	fields := tok.Tokenize([]byte(inner), ',')
	items := make([]value.Value, 0, len(fields))
	for _, f := range fields {
		content := f.Value
		if !f.WasQuoted {
			content = strings.TrimSpace(content)
		}
		val, err := inferScalar(content, f.WasQuoted, f.WasTriple)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, val)
	}
	return value.List(items...), nil
}

// parseTabular parses the indented rows of a `key[N]{cols}:` block.
func (d *decoder) parseTabular(h *parsedHeader, body []logicalLine) (value.Value, error) {
	if len(body) > d.lim.MaxBlockLines {
		return value.Value{}, tonlerr.New(tonlerr.KindLimit, tonlerr.SubBlockLinesExceed, "decode", "tabular block exceeds MaxBlockLines").WithLoc(body[0].lineNo, 0)
	}
	if d.strict && h.hasCount && len(body) != h.count {
		return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "declared row count mismatch").WithContext(h.key)
	}
	rows := make([]value.Value, 0, len(body))
	for _, ln := range body {
		fields := tok.Tokenize([]byte(ln.content), d.delim)
		if len(fields) > d.lim.MaxFieldsPerLine {
			return value.Value{}, tonlerr.New(tonlerr.KindLimit, tonlerr.SubBufferOverflow, "decode", "fields per line exceeds MaxFieldsPerLine").WithLoc(ln.lineNo, 0)
		}
		if d.strict && len(fields) != len(h.cols) {
			return value.Value{}, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "field count does not match column count").WithLoc(ln.lineNo, 0)
		}
		row := value.NewObj()
		for i, col := range h.cols {
			if value.IsDangerousName(col.name) {
				return value.Value{}, tonlerr.New(tonlerr.KindSecurity, tonlerr.SubPrototypePollution, "decode", "dangerous column name").WithPath(col.name)
			}
			if i >= len(fields) {
				continue // trailing omitted fields -> Missing
			}
			f := fields[i]
			if f.Value == "" && !f.WasQuoted {
				continue // unquoted empty -> field absent (§6 Missing vs empty)
			}
			val, err := coerceField(f, col.hint, d.strict)
			if err != nil {
				return value.Value{}, err
			}
			row = row.Set(col.name, val)
		}
		rows = append(rows, row)
	}
	return value.List(rows...), nil
}
