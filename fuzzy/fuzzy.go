// Package fuzzy implements the string-similarity algorithms behind the
// path language's fuzzy operators (~=, fuzzyMatch, soundsLike, similar):
// Levenshtein edit distance, Jaro-Winkler similarity, Dice coefficient,
// Soundex, and Metaphone phonetic codes. Grounded on
// termfx-morfx/internal/core/fuzzy.go's levenshteinDistance matrix and
// heuristic-scoring shape, generalized from query-variation scoring to
// standalone similarity functions usable by the query evaluator.
package fuzzy

import "unicode"

// Levenshtein returns the edit distance between a and b: the minimum
// number of single-character insertions, deletions, or substitutions
// needed to turn a into b.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = minOf3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// LevenshteinSimilarity normalizes Levenshtein distance to a [0,1] score,
// where 1 means identical.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := maxOf(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	dist := Levenshtein(a, b)
	score := 1.0 - float64(dist)/float64(maxLen)
	if score < 0 {
		score = 0
	}
	return score
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b in [0,1].
func JaroWinkler(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	jaro := jaroSimilarity(ra, rb)
	if jaro == 0 {
		return 0
	}
	prefixLen := 0
	maxPrefix := minOf(4, minOf(len(ra), len(rb)))
	for i := 0; i < maxPrefix; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefixLen++
	}
	const scalingFactor = 0.1
	return jaro + float64(prefixLen)*scalingFactor*(1-jaro)
}

func jaroSimilarity(ra, rb []rune) float64 {
	la, lb := len(ra), len(rb)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}
	matchDist := maxOf(la, lb)/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}
	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		start := maxOf(0, i-matchDist)
		end := minOf(i+matchDist+1, lb)
		for j := start; j < end; j++ {
			if bMatched[j] || ra[i] != rb[j] {
				continue
			}
			aMatched[i] = true
			bMatched[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}
	t := float64(transpositions) / 2

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-t)/m) / 3.0
}

// Dice returns the Sorensen-Dice coefficient of a and b over their
// bigram sets, a [0,1] similarity score.
func Dice(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0.0
	}
	counts := make(map[string]int, len(ba))
	for _, g := range ba {
		counts[g]++
	}
	overlap := 0
	for _, g := range bb {
		if counts[g] > 0 {
			counts[g]--
			overlap++
		}
	}
	return 2.0 * float64(overlap) / float64(len(ba)+len(bb))
}

func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}

// Soundex returns the 4-character American Soundex code for s.
func Soundex(s string) string {
	r := []rune(toUpperLettersOnly(s))
	if len(r) == 0 {
		return ""
	}
	code := []byte{byte(r[0])}
	last := soundexDigit(r[0])
	for i := 1; i < len(r) && len(code) < 4; i++ {
		d := soundexDigit(r[i])
		if d != 0 && d != last {
			code = append(code, '0'+d)
		}
		if r[i] != 'H' && r[i] != 'W' {
			last = d
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

func soundexDigit(r rune) byte {
	switch r {
	case 'B', 'F', 'P', 'V':
		return 1
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return 2
	case 'D', 'T':
		return 3
	case 'L':
		return 4
	case 'M', 'N':
		return 5
	case 'R':
		return 6
	default:
		return 0
	}
}

func toUpperLettersOnly(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) {
			out = append(out, unicode.ToUpper(r))
		}
	}
	return string(out)
}

// Metaphone returns a simplified Metaphone phonetic code for s: a
// coarser but longer phonetic key than Soundex, preserving the leading
// vowel and collapsing common consonant digraphs.
func Metaphone(s string) string {
	r := []rune(toUpperLettersOnly(s))
	n := len(r)
	if n == 0 {
		return ""
	}

	var out []rune
	isVowel := func(c rune) bool {
		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			return true
		}
		return false
	}

	i := 0
	switch {
	case n >= 2 && (string(r[0:2]) == "KN" || string(r[0:2]) == "GN" || string(r[0:2]) == "PN" || string(r[0:2]) == "WR"):
		i = 1
	case n >= 1 && r[0] == 'X':
		out = append(out, 'S')
		i = 1
	case n >= 2 && string(r[0:2]) == "WH":
		out = append(out, 'W')
		i = 2
	}

	for i < n {
		c := r[i]
		if i > 0 && c == r[i-1] && c != 'C' {
			i++
			continue
		}
		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == 0 {
				out = append(out, c)
			}
		case 'B':
			if !(i == n-1 && i > 0 && r[i-1] == 'M') {
				out = append(out, 'B')
			}
		case 'C':
			switch {
			case i+1 < n && r[i+1] == 'H':
				out = append(out, 'X')
				i++
			case i+1 < n && (r[i+1] == 'I' || r[i+1] == 'E' || r[i+1] == 'Y'):
				out = append(out, 'S')
			default:
				out = append(out, 'K')
			}
		case 'D':
			if i+2 < n && r[i+1] == 'G' && (r[i+2] == 'E' || r[i+2] == 'Y' || r[i+2] == 'I') {
				out = append(out, 'J')
				i += 2
			} else {
				out = append(out, 'T')
			}
		case 'G':
			switch {
			case i+1 < n && r[i+1] == 'H':
				out = append(out, 'F')
				i++
			case i+1 < n && (r[i+1] == 'I' || r[i+1] == 'E' || r[i+1] == 'Y'):
				out = append(out, 'J')
			default:
				out = append(out, 'K')
			}
		case 'H':
			if i > 0 && isVowel(r[i-1]) && (i+1 >= n || !isVowel(r[i+1])) {
				// silent H after vowel, not before vowel
			} else {
				out = append(out, 'H')
			}
		case 'K':
			if !(i > 0 && r[i-1] == 'C') {
				out = append(out, 'K')
			}
		case 'P':
			if i+1 < n && r[i+1] == 'H' {
				out = append(out, 'F')
				i++
			} else {
				out = append(out, 'P')
			}
		case 'Q':
			out = append(out, 'K')
		case 'S':
			if i+1 < n && r[i+1] == 'H' {
				out = append(out, 'X')
				i++
			} else {
				out = append(out, 'S')
			}
		case 'T':
			if i+1 < n && r[i+1] == 'H' {
				out = append(out, '0')
				i++
			} else {
				out = append(out, 'T')
			}
		case 'V':
			out = append(out, 'F')
		case 'W', 'Y':
			if i+1 < n && isVowel(r[i+1]) {
				out = append(out, c)
			}
		case 'X':
			out = append(out, 'K', 'S')
		case 'Z':
			out = append(out, 'S')
		default:
			out = append(out, c)
		}
		i++
	}
	return string(out)
}

func minOf(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
