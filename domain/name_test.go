package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple name", "Alice", true},
		{"two words", "Alice Smith", true},
		{"apostrophe", "O'Brien", true},
		{"hyphenated", "Jean-Luc", true},
		{"accents", "Érico Veríssimo", true},
		{"empty", "", false},
		{"digits", "Alice2", false},
		{"leading space", " Alice", false},
		{"trailing hyphen", "Alice-", false},
		{"double space", "Alice  Smith", false},
		{"symbols", "Alice!", false},
		{"control character", "Ali\tce", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.valid, IsValidDisplayName(tt.input), "input=%q", tt.input)
		})
	}
}
