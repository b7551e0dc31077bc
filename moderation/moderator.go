// Package moderation censors configured words in display names before they
// are persisted. Matching is case-insensitive and ignores punctuation and
// spacing, so padded or dotted variants of a word are still caught.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"

	"github.com/henriquezago/poker-planning-be/errors"
)

type NameModerator struct {
	machine     *goahocorasick.Machine
	replacement rune
	hasPatterns bool
}

// NewNameModerator builds the Aho-Corasick automaton over the normalized
// word list. An empty list yields a pass-through moderator.
func NewNameModerator(words []string, replacement rune) (*NameModerator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if norm, _ := normalize(w); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}
	if len(patterns) == 0 {
		return &NameModerator{replacement: replacement}, nil
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &NameModerator{machine: machine, replacement: replacement, hasPatterns: true}, nil
}

// CensorName replaces every matched span with the replacement rune,
// preserving the original length and spacing.
func (m *NameModerator) CensorName(name string) string {
	if !m.hasPatterns {
		return name
	}

	normalized, origIdx := normalize(name)
	if len(normalized) == 0 {
		return name
	}

	spans := m.machine.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return name
	}

	runes := []rune(name)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes)
}

// normalize lowercases the input, drops punctuation, spacing and symbols,
// and records the original index of every kept rune so censored spans can be
// mapped back onto the source string.
func normalize(input string) ([]rune, []int) {
	src := []rune(input)
	norm := make([]rune, 0, len(src))
	origIdx := make([]int, 0, len(src))
	for i, r := range src {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

// ParseReplacement enforces the single-rune constraint of the
// MODERATION_CHARACTER_REPLACEMENT setting.
func ParseReplacement(s string) (rune, error) {
	r := []rune(s)
	if len(r) != 1 {
		return 0, errors.Validation("replacement must be a single character, got %q", s)
	}
	return r[0], nil
}
