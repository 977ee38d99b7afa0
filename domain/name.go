package domain

import (
	"regexp"
	"unicode/utf8"
)

const maxNameLength = 64

// displayNamePattern accepts human-name-like identifiers:
// one or more letter groups (any script) joined by a single internal
// space, apostrophe, or hyphen. No digits, no symbols, no leading or
// trailing separator.
var displayNamePattern = regexp.MustCompile(`^\p{L}+(?:[ '-]\p{L}+)*$`)

// IsValidDisplayName reports whether name satisfies the display-name grammar.
func IsValidDisplayName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return false
	}
	return displayNamePattern.MatchString(name)
}
