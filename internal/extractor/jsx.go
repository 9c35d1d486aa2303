package extractor

import (
	"sort"
	"strings"
)

// Block is one piece of text found in a source file.
type Block struct {
	// Offset is the byte offset in the source where the block starts.
	Offset int
	// Text is the cleaned text of the block.
	Text string
}

// ExtractJSX returns the text of every <tag>…</tag> element in src, in
// source order. Nested elements with the same tag are returned as blocks
// of their own and their text is left out of the enclosing block.
// Self-closing elements carry no text.
func ExtractJSX(src, tag string) []Block {
	var blocks []Block
	pos := 0
	for {
		start, contentStart, selfClosing, ok := findOpen(src, tag, pos)
		if !ok {
			break
		}
		if selfClosing {
			pos = contentStart
			continue
		}
		next := scanElement(src, tag, start, contentStart, &blocks)
		pos = next
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Offset < blocks[j].Offset
	})
	return blocks
}

// scanElement consumes the element whose opening tag spans [start,
// contentStart) and appends its block (and those of nested elements) to
// out. It returns the offset just after the closing tag. An element that is
// never closed runs to the end of src.
func scanElement(src, tag string, start, contentStart int, out *[]Block) int {
	var own strings.Builder
	pos := contentStart
	closeTag := "</" + tag

	for {
		nextOpen, openContent, selfClosing, hasOpen := findOpen(src, tag, pos)
		nextClose, closeEnd, hasClose := findClose(src, closeTag, pos)

		if hasOpen && (!hasClose || nextOpen < nextClose) {
			own.WriteString(src[pos:nextOpen])
			if selfClosing {
				pos = openContent
				continue
			}
			pos = scanElement(src, tag, nextOpen, openContent, out)
			continue
		}

		if !hasClose {
			own.WriteString(src[pos:])
			appendBlock(out, start, own.String())
			return len(src)
		}

		own.WriteString(src[pos:nextClose])
		appendBlock(out, start, own.String())
		return closeEnd
	}
}

func appendBlock(out *[]Block, offset int, raw string) {
	if text := Clean(raw); text != "" {
		*out = append(*out, Block{Offset: offset, Text: text})
	}
}

// findOpen locates the next opening tag named tag at or after pos. It
// returns the tag's start, the offset just past its '>', and whether it is
// self-closing.
func findOpen(src, tag string, pos int) (start, end int, selfClosing, ok bool) {
	needle := "<" + tag
	for pos < len(src) {
		i := strings.Index(src[pos:], needle)
		if i < 0 {
			return 0, 0, false, false
		}
		start = pos + i
		after := start + len(needle)
		if after < len(src) && !isTagBoundary(src[after]) {
			pos = after
			continue
		}
		end, selfClosing = skipTag(src, after)
		return start, end, selfClosing, true
	}
	return 0, 0, false, false
}

// findClose locates the next closing tag at or after pos.
func findClose(src, closeTag string, pos int) (start, end int, ok bool) {
	for pos < len(src) {
		i := strings.Index(src[pos:], closeTag)
		if i < 0 {
			return 0, 0, false
		}
		start = pos + i
		after := start + len(closeTag)
		if after < len(src) && !isTagBoundary(src[after]) {
			pos = after
			continue
		}
		gt := strings.IndexByte(src[after:], '>')
		if gt < 0 {
			return start, len(src), true
		}
		return start, after + gt + 1, true
	}
	return 0, 0, false
}

func isTagBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '>', '/':
		return true
	}
	return false
}

// skipTag scans the attributes of a tag starting at pos and returns the
// offset just past the closing '>'. Quoted strings and {…} expressions are
// skipped so a '>' inside them does not end the tag.
func skipTag(src string, pos int) (int, bool) {
	depth := 0
	for i := pos; i < len(src); i++ {
		switch c := src[i]; c {
		case '/':
			if depth > 0 {
				i = skipComment(src, i)
			}
		case '"', '\'', '`':
			i = skipQuoted(src, i)
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '>':
			if depth == 0 {
				return i + 1, i > pos && src[i-1] == '/'
			}
		}
	}
	return len(src), false
}

// skipQuoted returns the offset of the quote closing the string opened at
// i, or len(src) when the string is never closed.
func skipQuoted(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(src)
}

// skipComment returns the offset of the last byte of the /* */ or //
// comment starting at i, or i when no comment starts there.
func skipComment(src string, i int) int {
	if i+1 >= len(src) {
		return i
	}
	switch src[i+1] {
	case '*':
		if end := strings.Index(src[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 1
		}
		return len(src) - 1
	case '/':
		if end := strings.IndexByte(src[i+2:], '\n'); end >= 0 {
			return i + 2 + end
		}
		return len(src) - 1
	}
	return i
}
