// Package splitter implements the very first stage of the pipeline:
// turning a delimited source string such as "/foo\/bar/i" into a
// (body, flags, delimiter) triple the lexer and parser operate on.
package splitter

import (
	"fmt"
	"strings"

	"github.com/perbu/rxlint/pkg/rxerr"
)

// DefaultAllowedFlags is the flag alphabet accepted when a caller
// doesn't supply a narrower configured set.
const DefaultAllowedFlags = "imsxADSUXJunr"

var pairedDelimiters = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

// ClosingDelimiter returns the delimiter that closes open: the matching
// bracket for the four paired forms, open itself otherwise.
func ClosingDelimiter(open byte) byte {
	if close, paired := pairedDelimiters[open]; paired {
		return close
	}
	return open
}

// Result is the outcome of a successful split.
type Result struct {
	Pattern   string
	Flags     string
	Delimiter byte
}

// Split parses source into (pattern, flags, delimiter). allowedFlags
// is the configured flag alphabet; pass DefaultAllowedFlags absent a
// narrower configuration.
func Split(source string, allowedFlags string) (Result, error) {
	if len(source) < 2 {
		return Result{}, rxerr.At(rxerr.DelimiterError,
			"source too short to contain a delimited pattern", source, 0)
	}

	open := source[0]
	if isAlphaNumeric(open) {
		return Result{}, rxerr.At(rxerr.DelimiterError,
			fmt.Sprintf("delimiter %q must not be alphanumeric", open), source, 0)
	}

	closeDelim, paired := pairedDelimiters[open]
	if !paired {
		closeDelim = open
	}

	closeIdx := findClosingDelimiter(source, closeDelim)
	if closeIdx < 0 {
		return Result{}, rxerr.At(rxerr.DelimiterError,
			fmt.Sprintf("no unescaped closing delimiter %q found", closeDelim),
			source, len(source)-1)
	}

	pattern := source[1:closeIdx]
	flags := source[closeIdx+1:]

	if bad, off := firstInvalidFlagRun(flags, allowedFlags); bad != "" {
		return Result{}, rxerr.At(rxerr.FlagError,
			fmt.Sprintf("unsupported flag character(s) %q", bad),
			source, closeIdx+1+off)
	}

	return Result{Pattern: pattern, Flags: flags, Delimiter: open}, nil
}

// findClosingDelimiter scans source from the right for the rightmost
// unescaped occurrence of closeDelim, returning -1 if none exists
// (excluding the opening delimiter itself at index 0).
func findClosingDelimiter(source string, closeDelim byte) int {
	for i := len(source) - 1; i >= 1; i-- {
		if source[i] != closeDelim {
			continue
		}
		if !isEscaped(source, i) {
			return i
		}
	}
	return -1
}

// isEscaped reports whether source[i] is preceded by an odd number of
// consecutive backslashes.
func isEscaped(source string, i int) bool {
	count := 0
	for j := i - 1; j >= 0 && source[j] == '\\'; j-- {
		count++
	}
	return count%2 == 1
}

// firstInvalidFlagRun returns the first contiguous run of flags
// characters that fall outside allowedFlags, and its byte offset into
// flags. Returns ("", -1) if every character is allowed.
func firstInvalidFlagRun(flags, allowedFlags string) (string, int) {
	start := -1
	for i := 0; i < len(flags); i++ {
		bad := !strings.ContainsRune(allowedFlags, rune(flags[i]))
		switch {
		case bad && start < 0:
			start = i
		case !bad && start >= 0:
			return flags[start:i], start
		}
	}
	if start >= 0 {
		return flags[start:], start
	}
	return "", -1
}

func isAlphaNumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
