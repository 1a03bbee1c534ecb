package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

// DefaultMinQuality is the lowest model quality score that is accepted.
const DefaultMinQuality = 7

const maxPromptContent = 2000

const systemPrompt = `You review social media posts about a developer tool and decide whether they contain a genuinely useful, actionable tip.

Rules:
1. A valid tip teaches a concrete technique, command, flag, configuration or workflow.
2. Announcements, complaints, questions without answers and memes are not tips.
3. Rewrite the title as a short imperative phrase (max 80 characters).
4. Write a 1-3 sentence summary that keeps commands and flags verbatim.
5. Pick exactly one category from the list you are given.

Output as JSON only, no other text:
{
  "is_valid": true,
  "quality": 1-10,
  "category": "one of the listed category slugs",
  "title": "short imperative title",
  "summary": "1-3 sentence summary"
}`

// ModelClassifier asks a generative API for a strict JSON verdict.
//
// Failed calls and malformed responses reject the candidate; nothing unvalidated
// reaches the corpus.
type ModelClassifier struct {
	completer       ports.Completer
	name            string
	categories      []domain.Category
	defaultCategory string
	minQuality      int
	logger          *slog.Logger
}

var _ ports.Classifier = (*ModelClassifier)(nil)

// ModelOptions tunes the model classifier.
type ModelOptions struct {
	Name            string
	Categories      []domain.Category
	DefaultCategory string
	MinQuality      int
	Logger          *slog.Logger
}

// NewModelClassifier wires a completer with the configured category set.
func NewModelClassifier(completer ports.Completer, opts ModelOptions) *ModelClassifier {
	minQuality := opts.MinQuality
	if minQuality <= 0 {
		minQuality = DefaultMinQuality
	}
	name := opts.Name
	if name == "" {
		name = "model"
	}
	return &ModelClassifier{
		completer:       completer,
		name:            name,
		categories:      opts.Categories,
		defaultCategory: resolveDefault(opts.Categories, opts.DefaultCategory),
		minQuality:      minQuality,
		logger:          opts.Logger,
	}
}

// Name identifies the strategy in logs.
func (m *ModelClassifier) Name() string {
	return m.name
}

type modelVerdict struct {
	IsValid  bool   `json:"is_valid"`
	Quality  int    `json:"quality"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
}

// Classify returns a rejected verdict together with the error when the call or parsing fails.
func (m *ModelClassifier) Classify(ctx context.Context, candidate domain.Candidate) (domain.Verdict, error) {
	rejected := domain.Verdict{Candidate: candidate}

	if m.completer == nil {
		return rejected, fmt.Errorf("model classifier has no completer")
	}

	content, err := m.completer.Complete(ctx, systemPrompt, m.buildPrompt(candidate))
	if err != nil {
		return rejected, fmt.Errorf("classify %q: %w", candidate.URL, err)
	}

	parsed, err := parseVerdict(content)
	if err != nil {
		return rejected, fmt.Errorf("classify %q: %w", candidate.URL, err)
	}

	category := strings.ToLower(strings.TrimSpace(parsed.Category))
	if !known(m.categories, category) {
		m.debug("model returned unknown category, falling back to default",
			"category", parsed.Category, "default", m.defaultCategory)
		category = m.defaultCategory
	}

	title := collapse(parsed.Title)
	if title == "" {
		title = collapse(candidate.Title)
	}

	return domain.Verdict{
		Candidate:    candidate,
		Category:     category,
		DisplayTitle: title,
		Summary:      strings.TrimSpace(parsed.Summary),
		Quality:      parsed.Quality,
		Accepted:     parsed.IsValid && parsed.Quality >= m.minQuality,
	}, nil
}

func (m *ModelClassifier) buildPrompt(candidate domain.Candidate) string {
	var sb strings.Builder
	sb.WriteString("Categories:\n")
	for _, cat := range m.categories {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", cat.Slug, cat.Name))
	}
	sb.WriteString(fmt.Sprintf("\nSource: %s\n", candidate.Attribution()))
	sb.WriteString(fmt.Sprintf("Title: %s\n", candidate.Title))
	sb.WriteString(fmt.Sprintf("Content: %s\n", Summarize(candidate.Content, maxPromptContent)))
	return sb.String()
}

func parseVerdict(content string) (modelVerdict, error) {
	content = cleanJSONResponse(content)

	var parsed modelVerdict
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return modelVerdict{}, fmt.Errorf("failed to parse response: %w, content: %s", err, content)
	}
	if parsed.IsValid && (parsed.Quality < 1 || parsed.Quality > 10) {
		return modelVerdict{}, fmt.Errorf("quality %d out of range", parsed.Quality)
	}
	return parsed, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func (m *ModelClassifier) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
