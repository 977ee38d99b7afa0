// Package moderation censors forbidden words in posted text.
// Matching is resilient to casing, accents-as-noise, Leet speak, and
// punctuation inserted between letters.
package moderation

import (
	"bufio"
	"embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed wordlists/*.txt
var wordlistFS embed.FS

// leetTable maps common Leet speak substitutions back to plain letters
// before matching.
var leetTable = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// word list. Words that normalize to nothing (pure punctuation) are
// skipped so they cannot match everywhere.
func NewModerator(words []string, replacement rune) (Moderator, error) {
	var patterns [][]rune
	for _, word := range words {
		normalized, _ := normalize(word)
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{machine: machine, replacement: replacement}, nil
}

// NewDefaultModerator loads every embedded wordlist.
func NewDefaultModerator(replacement rune) (Moderator, error) {
	words, err := loadWordlists()
	if err != nil {
		return Moderator{}, err
	}
	return NewModerator(words, replacement)
}

// Censor masks every forbidden span in text and returns the masked text
// together with the normalized words that matched. Spacing and length
// of the original are preserved.
func (m *Moderator) Censor(text string) (string, []string) {
	normalized, origIdx := normalize(text)
	if len(normalized) == 0 {
		return text, nil
	}

	spans := m.machine.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return text, nil
	}

	runes := []rune(text)
	var matched []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		matched = append(matched, string(span.Word))
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes), matched
}

// normalize lowers the text, folds Leet characters, and drops noise
// runes. origIdx maps each normalized position back to the original
// rune index so matches can be masked in place.
func normalize(text string) ([]rune, []int) {
	var normalized []rune
	var origIdx []int
	for i, r := range []rune(text) {
		if folded, ok := leetTable[r]; ok {
			r = folded
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return normalized, origIdx
}

func loadWordlists() ([]string, error) {
	entries, err := wordlistFS.ReadDir("wordlists")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var words []string
	for _, entry := range entries {
		file, err := wordlistFS.Open("wordlists/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
		if err = scanner.Err(); err != nil {
			_ = file.Close()
			return nil, err
		}
		_ = file.Close()
	}
	return words, nil
}
