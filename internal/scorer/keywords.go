package scorer

import (
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// keywordSet wraps an Aho-Corasick matcher over one keyword category so a
// scoring pass through the text is O(n+m) regardless of list size.
type keywordSet struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

func newKeywordSet(keywords []string) *keywordSet {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = normalizeKeyword(kw)
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	ks := &keywordSet{keywords: normalized}
	if len(normalized) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(normalized)
	}
	return ks
}

// hits returns the number of distinct keywords present in the normalized
// text.
func (k *keywordSet) hits(text string) int {
	if k.matcher == nil {
		return 0
	}
	return len(k.matcher.Match([]byte(text)))
}

// present reports whether any keyword in the category appears in the text.
func (k *keywordSet) present(text string) bool {
	return k.hits(text) > 0
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// normalizeText lowercases and replaces non-alphanumeric runes with spaces,
// preserving word boundaries for substring matching.
func normalizeText(text string) string {
	text = strings.ToLower(text)

	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		} else {
			result.WriteByte(' ')
		}
	}

	return result.String()
}
