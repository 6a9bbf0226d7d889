package pathlang

import (
	"strings"

	"github.com/tonl-io/tonl/tonlerr"
)

type tokKind uint8

const (
	tEOF tokKind = iota
	tIdent
	tNumber
	tString
	tDot
	tDotDot
	tLBracket
	tRBracket
	tLParen
	tRParen
	tStar
	tColon
	tComma
	tQuestion
	tAt
	tDollar
	tBang
	tAndAnd
	tOrOr
	tOp // multi-char comparison operators: ==, !=, >=, <=, >, <, ~=
	tTrue
	tFalse
	tNull
	tTemporal // '@now', '@today', '@yesterday', '@tomorrow', or '@<ISO8601>' literal
)

type token struct {
	kind tokKind
	text string
	pos  int
}

// lex tokenizes a full path expression string (segments outside, and the
// contents of a `[?(...)]` filter, share one lexer — the parser decides
// which grammar production applies at each point).
func lex(s string) ([]token, error) {
	var toks []token
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '.':
			if i+1 < n && s[i+1] == '.' {
				toks = append(toks, token{tDotDot, "..", i})
				i += 2
			} else {
				toks = append(toks, token{tDot, ".", i})
				i++
			}
		case c == '[':
			toks = append(toks, token{tLBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, token{tRBracket, "]", i})
			i++
		case c == '(':
			toks = append(toks, token{tLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tRParen, ")", i})
			i++
		case c == '*':
			toks = append(toks, token{tStar, "*", i})
			i++
		case c == ':':
			toks = append(toks, token{tColon, ":", i})
			i++
		case c == ',':
			toks = append(toks, token{tComma, ",", i})
			i++
		case c == '?':
			toks = append(toks, token{tQuestion, "?", i})
			i++
		case c == '!':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{tOp, "!=", i})
				i += 2
			} else {
				toks = append(toks, token{tBang, "!", i})
				i++
			}
		case c == '&':
			if i+1 < n && s[i+1] == '&' {
				toks = append(toks, token{tAndAnd, "&&", i})
				i += 2
			} else {
				return nil, lexErr(i, "unexpected '&'")
			}
		case c == '|':
			if i+1 < n && s[i+1] == '|' {
				toks = append(toks, token{tOrOr, "||", i})
				i += 2
			} else {
				return nil, lexErr(i, "unexpected '|'")
			}
		case c == '=':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{tOp, "==", i})
				i += 2
			} else {
				return nil, lexErr(i, "unexpected '='")
			}
		case c == '>':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{tOp, ">=", i})
				i += 2
			} else {
				toks = append(toks, token{tOp, ">", i})
				i++
			}
		case c == '<':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{tOp, "<=", i})
				i += 2
			} else {
				toks = append(toks, token{tOp, "<", i})
				i++
			}
		case c == '~':
			j := i + 1
			for j < n && isIdentByte(s[j]) {
				j++
			}
			if j == i+1 {
				if i+1 >= n || s[i+1] != '=' {
					return nil, lexErr(i, "unexpected '~'")
				}
				toks = append(toks, token{tOp, "~=", i})
				i += 2
			} else {
				toks = append(toks, token{tOp, "~" + s[i+1:j], i})
				i = j
			}
		case c == '@':
			if i+1 < n && (isDigit(s[i+1])) {
				j := i + 1
				for j < n && (isIdentByte(s[j]) || s[j] == '-' || s[j] == ':' || s[j] == '.' || s[j] == '+') {
					j++
				}
				toks = append(toks, token{tTemporal, s[i+1 : j], i})
				i = j
				continue
			}
			if i+1 < n && isAlpha(s[i+1]) {
				j := i + 1
				for j < n && isIdentByte(s[j]) {
					j++
				}
				word := s[i+1 : j]
				switch word {
				case "now", "today", "yesterday", "tomorrow":
					if j < n && (s[j] == '+' || s[j] == '-') {
						k := j + 1
						for k < n && isDigit(s[k]) {
							k++
						}
						if k < n {
							k++ // trailing unit letter
						}
						toks = append(toks, token{tTemporal, s[i+1 : k], i})
						i = k
						continue
					}
					toks = append(toks, token{tTemporal, word, i})
					i = j
					continue
				}
			}
			toks = append(toks, token{tAt, "@", i})
			i++
		case c == '$':
			toks = append(toks, token{tDollar, "$", i})
			i++
		case c == '"':
			j := i + 1
			var b strings.Builder
			for j < n && s[j] != '"' {
				if s[j] == '\\' && j+1 < n {
					b.WriteByte(unescapeByte(s[j+1]))
					j += 2
					continue
				}
				b.WriteByte(s[j])
				j++
			}
			if j >= n {
				return nil, lexErr(i, "unterminated string literal")
			}
			toks = append(toks, token{tString, b.String(), i})
			i = j + 1
		case isDigit(c) || (c == '-' && i+1 < n && isDigit(s[i+1])):
			j := i + 1
			for j < n && (isDigit(s[j]) || s[j] == '.' || s[j] == 'e' || s[j] == 'E' || s[j] == '+' || s[j] == '-') {
				j++
			}
			toks = append(toks, token{tNumber, s[i:j], i})
			i = j
		case isAlpha(c) || c == '_':
			j := i + 1
			for j < n && isIdentByte(s[j]) {
				j++
			}
			word := s[i:j]
			switch word {
			case "true":
				toks = append(toks, token{tTrue, word, i})
			case "false":
				toks = append(toks, token{tFalse, word, i})
			case "null":
				toks = append(toks, token{tNull, word, i})
			case "contains", "startsWith", "endsWith", "matches",
				"fuzzyMatch", "soundsLike", "similar",
				"before", "after", "between",
				"daysAgo", "weeksAgo", "monthsAgo", "yearsAgo",
				"sameDay", "sameWeek", "sameMonth", "sameYear":
				toks = append(toks, token{tOp, word, i})
			default:
				toks = append(toks, token{tIdent, word, i})
			}
			i = j
		default:
			return nil, lexErr(i, "unexpected character")
		}
	}
	toks = append(toks, token{tEOF, "", n})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentByte(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

func unescapeByte(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func lexErr(pos int, reason string) error {
	return tonlerr.New(tonlerr.KindQuery, tonlerr.SubInvalidPath, "parse path", reason).WithLoc(0, pos)
}
