package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minKeywordRunes is the shortest token length kept (tokens must be longer)
const minKeywordRunes = 3

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// KeywordExtractor derives matchable keywords from provision text
type KeywordExtractor struct {
	stopWords map[string]bool
}

// NewKeywordExtractor creates an extractor with the default stop-word set
func NewKeywordExtractor() *KeywordExtractor {
	return NewKeywordExtractorWithStopWords(DefaultStopWords())
}

// NewKeywordExtractorWithStopWords creates an extractor with a custom stop-word set
func NewKeywordExtractorWithStopWords(stopWords []string) *KeywordExtractor {
	set := make(map[string]bool, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = true
	}
	return &KeywordExtractor{stopWords: set}
}

// DefaultStopWords returns articles, conjunctions, prepositions and modal verbs
func DefaultStopWords() []string {
	return []string{
		"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
		"shall", "should", "must", "may", "can", "will", "would", "could",
	}
}

// Extract returns the lower-case word tokens of text longer than three characters,
// minus stop words, in first-occurrence order without duplicates.
func (e *KeywordExtractor) Extract(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	seen := make(map[string]bool, len(words))
	var keywords []string
	for _, w := range words {
		if utf8.RuneCountInString(w) <= minKeywordRunes || e.stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}

// MergeKeywords lower-cases and concatenates keyword lists, dropping blanks and duplicates.
// Earlier lists win the position of a shared keyword.
func MergeKeywords(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, kw := range list {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, key)
		}
	}
	return merged
}
