// Package textmatch does whole-word phrase matching over chat text.
package textmatch

import (
	"strings"
	"unicode"
)

// Text is a normalized message: lower case, apostrophes dropped, every other
// non alphanumeric rune folded to a single space, padded with a leading and
// trailing space so phrase checks can anchor on word boundaries.
type Text string

func Normalize(raw string) Text {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(raw) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return Text(b.String())
}

// Contains reports whether phrase occurs as whole words. A trailing "*" turns
// the last word into a prefix match ("suicid*" matches "suicidal").
func (t Text) Contains(phrase string) bool {
	prefix := strings.HasSuffix(strings.TrimSpace(phrase), "*")
	p := strings.TrimSpace(string(Normalize(strings.TrimSuffix(strings.TrimSpace(phrase), "*"))))
	if p == "" {
		return false
	}
	if prefix {
		return strings.Contains(string(t), " "+p)
	}
	return strings.Contains(string(t), " "+p+" ")
}

// FirstMatch returns the first phrase that matches, or "".
func (t Text) FirstMatch(phrases []string) string {
	for _, p := range phrases {
		if t.Contains(p) {
			return p
		}
	}
	return ""
}

// CountMatches counts distinct phrases that match.
func (t Text) CountMatches(phrases []string) int {
	n := 0
	for _, p := range phrases {
		if t.Contains(p) {
			n++
		}
	}
	return n
}
