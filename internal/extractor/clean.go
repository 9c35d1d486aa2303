package extractor

import (
	"strings"

	"golang.org/x/net/html"
)

// Clean turns the raw inner markup of a block into one line of plain text.
// Tags are removed, {…} expressions are dropped unless they hold a plain
// string literal, HTML entities are unescaped and whitespace runs collapse
// to single spaces.
func Clean(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '<' && i+1 < len(raw) && isTagStart(raw[i+1]):
			end, _ := skipTag(raw, i+1)
			i = end - 1
		case c == '{':
			end := matchBrace(raw, i)
			if lit, ok := stringLiteral(raw[i+1 : end]); ok {
				sb.WriteString(lit)
			}
			i = end
		default:
			sb.WriteByte(c)
		}
	}

	return strings.Join(strings.Fields(html.UnescapeString(sb.String())), " ")
}

func isTagStart(c byte) bool {
	return c == '/' || c == '>' || c == '!' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// matchBrace returns the offset of the '}' closing the brace at i, or len(s)
// when it is never closed.
func matchBrace(s string, i int) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '/':
			j = skipComment(s, j)
		case '"', '\'', '`':
			j = skipQuoted(s, j)
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(s)
}

// stringLiteral reports whether expr is a single quoted string literal and
// returns its content.
func stringLiteral(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if len(expr) < 2 {
		return "", false
	}
	q := expr[0]
	if q != '"' && q != '\'' && q != '`' {
		return "", false
	}
	if skipQuoted(expr, 0) != len(expr)-1 {
		return "", false
	}
	body := expr[1 : len(expr)-1]
	if q == '`' && strings.Contains(body, "${") {
		return "", false
	}
	return unescapeJS(body), true
}

func unescapeJS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n', 't':
				sb.WriteByte(' ')
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// LineAt returns the 1-based line number of offset in src.
func LineAt(src string, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return strings.Count(src[:offset], "\n") + 1
}
