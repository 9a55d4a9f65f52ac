// Package transform implements the haiku text effects. Every transform is
// line-oriented: line breaks are preserved and each effect restarts its
// state on a new line.
package transform

import (
	"strings"
	"unicode"
)

// Louder upper-cases the whole text.
func Louder(text string) string {
	return strings.ToUpper(text)
}

// Quieter lower-cases the whole text.
func Quieter(text string) string {
	return strings.ToLower(text)
}

// SpookyCase alternates letter casing within each line, starting lowercase.
// Every rune advances the alternation, letter or not, and the counter
// resets at each line break.
func SpookyCase(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		var b strings.Builder
		b.Grow(len(line))
		for j, r := range []rune(line) {
			if j%2 == 0 {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// MakeChoppy appends a period to every whitespace-separated word, so each
// line reads as a series of abrupt fragments. Blank lines stay empty.
func MakeChoppy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		words := strings.Fields(line)
		for j, w := range words {
			words[j] = w + "."
		}
		lines[i] = strings.Join(words, " ")
	}
	return strings.Join(lines, "\n")
}
