// Package normalize cleans user-entered strings before they are stored.
package normalize

import (
	"strings"
	"unicode/utf8"
)

// MaxTitleLen bounds task titles and column names, in runes.
const MaxTitleLen = 200

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases a member role.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Title collapses runs of whitespace and truncates to MaxTitleLen runes.
func Title(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxTitleLen {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxTitleLen]))
}
