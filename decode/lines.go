package decode

import (
	"strings"

	"github.com/tonl-io/tonl/limits"
	"github.com/tonl-io/tonl/tonlerr"
)

// logicalLine is one block-grouping unit: a physical line, or several
// physical lines joined because a triple-quoted string (or header
// directive) left a quote open mid-line (§4.3 stage 4: "Newline inside a
// quoted field is allowed").
type logicalLine struct {
	indent  int
	content string // with indentation stripped
	lineNo  int    // 1-based, first physical line of this logical line
}

// splitLogicalLines performs stage 1-2 of §4.3: raw text → physical
// lines → logical lines (merging open triple-quotes across physical
// lines) with per-line resource limits enforced as they're discovered.
func splitLogicalLines(text string, lim limits.Limits) ([]logicalLine, error) {
	if int64(len(text)) > lim.MaxInputSize {
		return nil, tonlerr.New(tonlerr.KindLimit, tonlerr.SubInputTooLarge, "decode", "input exceeds MaxInputSize")
	}
	raw := strings.Split(text, "\n")
	var out []logicalLine
	var pending *logicalLine
	openTriple := false

	for i, phys := range raw {
		phys = strings.TrimRight(phys, "\r")
		if len(phys) > lim.MaxLineLength {
			return nil, tonlerr.New(tonlerr.KindLimit, tonlerr.SubLineTooLong, "decode", "line exceeds MaxLineLength").WithLoc(i+1, 0)
		}
		if openTriple {
			pending.content += "\n" + phys
			if strings.Count(phys, `"""`)%2 == 1 {
				openTriple = false
				out = append(out, *pending)
				pending = nil
			}
			continue
		}
		trimmed := strings.TrimLeft(phys, " ")
		indent := len(phys) - len(trimmed)
		if strings.TrimSpace(trimmed) == "" {
			continue // blank lines carry no structure
		}
		if strings.Count(trimmed, `"""`)%2 == 1 {
			pending = &logicalLine{indent: indent, content: trimmed, lineNo: i + 1}
			openTriple = true
			continue
		}
		out = append(out, logicalLine{indent: indent, content: trimmed, lineNo: i + 1})
	}
	if openTriple {
		return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubUnclosedQuote, "decode", "unterminated triple-quoted string").WithLoc(pending.lineNo, 0)
	}
	return out, nil
}
