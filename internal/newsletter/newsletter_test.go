package newsletter

import (
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"TipCurator/internal/domain"
)

var testCategories = []domain.Category{
	{Slug: "workflow", Name: "Workflow", Icon: "⚡"},
	{Slug: "tooling", Name: "Tooling", Icon: "🔧"},
	{Slug: "subagents", Name: "Subagents", Icon: "🤖"},
}

func corpusEntries() []domain.Entry {
	return []domain.Entry{
		{Number: 1, Category: "workflow", Title: "w1"},
		{Number: 2, Category: "workflow", Title: "w2"},
		{Number: 3, Category: "workflow", Title: "w3"},
		{Number: 4, Category: "tooling", Title: "t1"},
		{Number: 5, Category: "subagents", Title: "s1"},
	}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestSelectorSpreadsAcrossCategories(t *testing.T) {
	t.Parallel()

	for seed := uint64(0); seed < 20; seed++ {
		got := NewSelector(seeded(seed)).Select(corpusEntries(), 3)
		assert.Equal(t, 3, len(got))

		seen := map[string]bool{}
		for _, e := range got {
			if seen[e.Category] {
				t.Fatalf("seed %d: category %s picked twice before others were exhausted", seed, e.Category)
			}
			seen[e.Category] = true
		}
	}
}

func TestSelectorExhaustsSmallCorpus(t *testing.T) {
	t.Parallel()

	entries := corpusEntries()
	got := NewSelector(seeded(7)).Select(entries, 10)
	assert.Equal(t, len(entries), len(got))

	numbers := map[int]bool{}
	for _, e := range got {
		numbers[e.Number] = true
	}
	assert.Equal(t, len(entries), len(numbers))
	assert.Equal(t, "w1", entries[0].Title)
}

func TestSelectorIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a := NewSelector(seeded(42)).Select(corpusEntries(), 4)
	b := NewSelector(seeded(42)).Select(corpusEntries(), 4)
	assert.Equal(t, a, b)

	if got := NewSelector(nil).Select(nil, 5); len(got) != 0 {
		t.Fatalf("empty corpus should select nothing")
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()

	got := Subject("Claude Code Daily #{issue}: {count} Pro Tips This Week", 12, 5)
	assert.Equal(t, "Claude Code Daily #12: 5 Pro Tips This Week", got)
}

func TestRendererBuildsSanitizedIssue(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer("Claude Code Daily", "Issue #{issue} ({count})", testCategories)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	entries := []domain.Entry{
		{Number: 3, Category: "tooling", Title: "Hooks <b>rock</b>", Source: "Twitter @dev",
			Summary: "Run `claude --resume`<script>alert(1)</script>", URL: "https://x.com/dev/status/3"},
		{Number: 8, Category: "unknown", Title: "Mystery", Source: "Reddit r/ClaudeAI", Summary: "Line one\nLine two",
			URL: "https://reddit.com/r/ClaudeAI/8"},
	}
	date := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	issue, err := r.Render(7, date, entries)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	assert.Equal(t, 7, issue.Number)
	assert.Equal(t, "Issue #7 (2)", issue.Subject)
	assert.Equal(t, 2, len(issue.Entries))

	html := issue.HTML
	for _, want := range []string{
		"Issue #7",
		"June 13, 2025",
		"🔧 Tooling",
		"💡 unknown",
		"Hooks &lt;b&gt;rock&lt;/b&gt;",
		"<code>claude --resume</code>",
		"Line one<br>Line two",
		`href="https://x.com/dev/status/3"`,
		UnsubscribePlaceholder,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered html missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("summary was not sanitized")
	}

	text := issue.Text
	for _, want := range []string{"Claude Code Daily", "Mystery", "[https://x.com/dev/status/3]", "Line one\nLine two"} {
		if !strings.Contains(text, want) {
			t.Fatalf("plain text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "<code>") || strings.Contains(text, "<br>") {
		t.Fatalf("plain text should not contain markup:\n%s", text)
	}
}

func TestSaveDraft(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "automation", "draft.json")
	issue := domain.Issue{
		Number:  4,
		Subject: "s",
		Entries: []domain.Entry{{Number: 9, Category: "workflow", Title: "t"}},
	}
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	icons := func(slug string) string {
		if slug == "workflow" {
			return "⚡"
		}
		return defaultIcon
	}

	if err := SaveDraft(path, NewDraft(issue, icons, created)); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.Equal(t, float64(4), decoded["issue_number"])
	assert.Equal(t, "2025-06-01T00:00:00Z", decoded["created_at"])
	tips := decoded["tips"].([]any)
	assert.Equal(t, "⚡", tips[0].(map[string]any)["icon"])
}
