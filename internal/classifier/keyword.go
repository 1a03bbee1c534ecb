package classifier

import (
	"context"
	"strings"

	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

// KeywordClassifier maps candidates to categories by substring matching against
// the configured keyword table. It never rejects.
type KeywordClassifier struct {
	categories      []domain.Category
	defaultCategory string
	summaryChars    int
}

var _ ports.Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier keeps the category order: the first matching category wins.
func NewKeywordClassifier(categories []domain.Category, defaultCategory string, summaryChars int) *KeywordClassifier {
	return &KeywordClassifier{
		categories:      categories,
		defaultCategory: resolveDefault(categories, defaultCategory),
		summaryChars:    summaryChars,
	}
}

// Name identifies the strategy in logs.
func (k *KeywordClassifier) Name() string {
	return "keyword"
}

// Classify always accepts the candidate.
func (k *KeywordClassifier) Classify(_ context.Context, candidate domain.Candidate) (domain.Verdict, error) {
	return domain.Verdict{
		Candidate:    candidate,
		Category:     k.Match(candidate.Title + " " + candidate.Content),
		DisplayTitle: collapse(candidate.Title),
		Summary:      Summarize(candidate.Content, k.summaryChars),
		Accepted:     true,
	}, nil
}

// Match returns the slug of the first category whose keywords occur in text.
func (k *KeywordClassifier) Match(text string) string {
	text = strings.ToLower(text)
	for _, cat := range k.categories {
		for _, kw := range cat.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				return cat.Slug
			}
		}
	}
	return k.defaultCategory
}

// Summarize collapses whitespace and truncates to limit runes with an ellipsis.
func Summarize(content string, limit int) string {
	collapsed := collapse(content)
	if limit <= 0 {
		return collapsed
	}
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// collapse joins all whitespace runs into single spaces; titles must stay on one line.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// resolveDefault falls back to the first configured category when the default is not registered.
func resolveDefault(categories []domain.Category, slug string) string {
	for _, cat := range categories {
		if cat.Slug == slug {
			return slug
		}
	}
	if len(categories) > 0 {
		return categories[0].Slug
	}
	return slug
}

func known(categories []domain.Category, slug string) bool {
	for _, cat := range categories {
		if cat.Slug == slug {
			return true
		}
	}
	return false
}
