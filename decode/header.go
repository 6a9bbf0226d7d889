package decode

import (
	"strconv"
	"strings"

	"github.com/tonl-io/tonl/tonlerr"
)

// column is one declared tabular column, with an optional type hint
// (§4.2 "When includeTypes is on, tabular headers annotate columns as
// name:type").
type column struct {
	name string
	hint string // "" if unhinted
}

// parsedHeader is the structural decomposition of a header/KV line's left
// side per §6's grammar: `Key ('[' N ']')? ('{' Columns '}')? ':' rest`.
type parsedHeader struct {
	key        string
	isIndex    bool // true for synthetic "[i]:" object-array-in-blocks entries
	indexVal   int
	count      int
	hasCount   bool
	cols       []column
	hasCols    bool
	rest       string // trimmed text after the header colon; "" means block header
}

// parseHeaderLine decomposes one logical line's content into a
// parsedHeader, or returns an error if it doesn't match the grammar at
// all (e.g. a stray line with no colon).
func parseHeaderLine(content string, lineNo int) (*parsedHeader, error) {
	i := 0
	n := len(content)

	h := &parsedHeader{}

	if i < n && content[i] == '[' {
		// "[i]:" synthetic index header used by object-array-in-blocks.
		end := strings.IndexByte(content[i:], ']')
		if end < 0 {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "unclosed '[' in index header").WithLoc(lineNo, i)
		}
		idxStr := content[i+1 : i+end]
		idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
		if err != nil {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "invalid array index header").WithLoc(lineNo, i)
		}
		h.isIndex = true
		h.indexVal = idx
		i += end + 1
	} else {
		start := i
		for i < n && content[i] != '[' && content[i] != '{' && content[i] != ':' {
			i++
		}
		if i == start {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "missing key").WithLoc(lineNo, i)
		}
		h.key = content[start:i]
	}

	if i < n && content[i] == '[' {
		end := strings.IndexByte(content[i:], ']')
		if end < 0 {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "unclosed '['").WithLoc(lineNo, i)
		}
		numStr := content[i+1 : i+end]
		if len(numStr) > 16 {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "array length has too many digits").WithLoc(lineNo, i)
		}
		count, err := strconv.Atoi(numStr)
		if err != nil {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "invalid array length").WithLoc(lineNo, i)
		}
		h.count = count
		h.hasCount = true
		i += end + 1
	}

	if i < n && content[i] == '{' {
		end := strings.IndexByte(content[i:], '}')
		if end < 0 {
			return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubMalformedLine, "decode", "unclosed '{'").WithLoc(lineNo, i)
		}
		colsStr := content[i+1 : i+end]
		for _, c := range strings.Split(colsStr, ",") {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if idx := strings.IndexByte(c, ':'); idx >= 0 {
				h.cols = append(h.cols, column{name: strings.TrimSpace(c[:idx]), hint: strings.TrimSpace(c[idx+1:])})
			} else {
				h.cols = append(h.cols, column{name: c})
			}
		}
		h.hasCols = true
		i += end + 1
	}

	if i >= n || content[i] != ':' {
		return nil, tonlerr.New(tonlerr.KindParse, tonlerr.SubInvalidHeader, "decode", "expected ':'").WithLoc(lineNo, i)
	}
	i++ // consume ':'

	h.rest = strings.TrimSpace(content[i:])
	return h, nil
}
