// Package keywords turns free-form post text into a compact discussion search query.
package keywords

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// KeywordSeparator joins extracted keywords into a provider query
	KeywordSeparator = " AND "

	maxKeywords      = 3
	minKeywordLength = 4
)

var (
	urlPattern    = regexp.MustCompile(`(?:https?|ftp)://\S+`)
	symbolPattern = regexp.MustCompile(`[^\w\s]|_`)
)

// PhraseMapping replaces the whole query when Phrase occurs in the text
type PhraseMapping struct {
	Phrase string `yaml:"phrase"`
	Query  string `yaml:"query"`
}

// TaggedWords holds the nouns and verbs of a text in the order they appear
type TaggedWords struct {
	Nouns []string
	Verbs []string
}

// Tagger extracts nouns and verbs from text
type Tagger interface {
	Tag(text string) TaggedWords
}

// Extractor derives search queries from post content
type Extractor struct {
	tagger   Tagger
	mappings []PhraseMapping
}

// NewExtractor creates an extractor. Mappings are evaluated in order and the last match wins.
func NewExtractor(tagger Tagger, mappings []PhraseMapping) *Extractor {
	return &Extractor{
		tagger:   tagger,
		mappings: append([]PhraseMapping(nil), mappings...),
	}
}

// Extract returns the search query for text, or "" when nothing usable remains.
func (e *Extractor) Extract(text string) string {
	withoutURLs := StripURLs(text)

	if query, ok := e.matchPhrase(withoutURLs); ok {
		return query
	}

	cleaned := StripSymbols(withoutURLs)
	if e.tagger == nil || strings.TrimSpace(cleaned) == "" {
		return ""
	}

	return strings.Join(SelectKeywords(e.tagger.Tag(cleaned)), KeywordSeparator)
}

// matchPhrase checks every mapping; a later match overwrites an earlier one.
func (e *Extractor) matchPhrase(text string) (string, bool) {
	query, matched := "", false

	for _, m := range e.mappings {
		if m.Phrase == "" {
			continue
		}
		if strings.Contains(text, m.Phrase) {
			query, matched = m.Query, true
		}
	}

	return query, matched
}

// SelectKeywords orders nouns before verbs, drops duplicates and short words,
// and keeps at most three keywords.
func SelectKeywords(tagged TaggedWords) []string {
	seen := make(map[string]bool)
	var selected []string

	candidates := make([]string, 0, len(tagged.Nouns)+len(tagged.Verbs))
	candidates = append(candidates, tagged.Nouns...)
	candidates = append(candidates, tagged.Verbs...)

	for _, word := range candidates {
		if seen[word] {
			continue
		}
		seen[word] = true

		if utf8.RuneCountInString(word) < minKeywordLength {
			continue
		}

		selected = append(selected, word)
		if len(selected) == maxKeywords {
			break
		}
	}

	return selected
}

// StripURLs removes http, https and ftp links
func StripURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

// StripSymbols removes everything except ASCII word characters and whitespace
func StripSymbols(text string) string {
	return symbolPattern.ReplaceAllString(text, "")
}
