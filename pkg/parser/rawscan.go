package parser

// The lexer tokenizes "(?..." group headers as an undifferentiated
// literal run (name/flag characters are all "ordinary" runes to it),
// so the parser reads the header directly off the raw source instead
// of trusting token boundaries there, then resyncs the token stream
// once it knows where the header ends. These helpers operate on byte
// offsets into that raw source.

// findMatchingParen returns the index of the ')' matching the '(' at
// source[openIdx], skipping backslash-escaped parens and parens inside
// "[...]" character classes.
func findMatchingParen(source string, openIdx int) int {
	depth := 0
	inClass := false
	i := openIdx
	for i < len(source) {
		c := source[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// scanName reads a run of [A-Za-z0-9_] starting at i, returning the
// name and the offset just past it.
func scanName(source string, i int) (string, int) {
	start := i
	for i < len(source) && isNameByte(source[i]) {
		i++
	}
	return source[start:i], i
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}
