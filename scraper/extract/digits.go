package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// groupClass matches digits plus the white-space runes sites use as
// thousands separators. RE2's \s does not cover U+00A0 or U+202F.
const groupClass = `[\d\s\x{00a0}\x{202f}]`

// markerPattern builds a case-insensitive pattern capturing the digit run
// that directly precedes one of the marker words. The run must start with a
// digit, so a bare marker earlier in the text is not a match.
func markerPattern(markers ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\d` + groupClass + `*)(?:` + strings.Join(markers, "|") + `)`)
}

// ParseCount strips every white-space rune from s and parses what is left
// as a base-10 count. It never uses locale-aware separators: "4 169",
// "4\u00a0169" and "4169" all yield 4169. An empty or non-numeric
// remainder reports false.
func ParseCount(s string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// countBefore returns the first digit run in text matched by re that parses
// as a count.
func countBefore(re *regexp.Regexp, text string) (int, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		if n, ok := ParseCount(m[1]); ok {
			return n, true
		}
	}
	return 0, false
}
