// Package style implements the StyleName and TokenMap value objects used to
// render dry-run reports and escalation file preambles with a configurable
// voice.
package style

import (
	"strings"
	"time"

	"github.com/aad-go/aad/internal/errs"
)

// MaxNameLength is the longest a StyleName may be after trimming.
const MaxNameLength = 64

// StyleName is a validated, trimmed style identifier (e.g. "default",
// "minimal", "verbose").
type StyleName struct {
	value string
}

// NewStyleName trims name and rejects it if empty or over MaxNameLength.
func NewStyleName(name string) (StyleName, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return StyleName{}, errs.New(errs.KindValidation, "style name cannot be empty")
	}
	if len(trimmed) > MaxNameLength {
		return StyleName{}, errs.New(errs.KindValidation, "style name cannot exceed 64 characters")
	}
	return StyleName{value: trimmed}, nil
}

// String returns the underlying name.
func (s StyleName) String() string {
	return s.value
}

// maxReplaceDepth bounds recursive token expansion to catch circular
// references without an explicit cycle-detection pass on every call.
const maxReplaceDepth = 10

// TokenMap replaces `{{token}}` placeholders in a template string with
// configured values, recursively expanding nested tokens up to
// maxReplaceDepth.
type TokenMap struct {
	tokens map[string]string
}

// NewTokenMap creates an empty TokenMap.
func NewTokenMap() *TokenMap {
	return &TokenMap{tokens: make(map[string]string)}
}

// DefaultTokens creates a TokenMap seeded with "date" (today, UTC) and
// "author".
func DefaultTokens() *TokenMap {
	m := NewTokenMap()
	m.Insert("date", time.Now().UTC().Format("2006-01-02"))
	m.Insert("author", "aad")
	return m
}

// Insert sets a token's replacement value.
func (m *TokenMap) Insert(key, value string) {
	m.tokens[key] = value
}

// Get returns a token's value, if set.
func (m *TokenMap) Get(key string) (string, bool) {
	v, ok := m.tokens[key]
	return v, ok
}

// ReplaceTokens expands every `{{token}}` occurrence in input. Returns a
// KindValidation error if expansion recurses past maxReplaceDepth (a
// circular reference between tokens).
func (m *TokenMap) ReplaceTokens(input string) (string, error) {
	return m.replaceTokensWithDepth(input, 0, map[string]bool{})
}

func (m *TokenMap) replaceTokensWithDepth(input string, depth int, visited map[string]bool) (string, error) {
	if depth > maxReplaceDepth {
		return "", errs.New(errs.KindValidation, "maximum token replacement depth exceeded (possible circular reference)")
	}

	result := input
	for key, value := range m.tokens {
		token := "{{" + key + "}}"
		if !strings.Contains(result, token) {
			continue
		}
		if visited[key] {
			return "", errs.New(errs.KindValidation, "circular reference detected for token: "+key)
		}

		visited[key] = true
		replaced, err := m.replaceTokensWithDepth(value, depth+1, visited)
		if err != nil {
			return "", err
		}
		result = strings.ReplaceAll(result, token, replaced)
		delete(visited, key)
	}
	return result, nil
}
