package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"TipCurator/internal/dedup"
	"TipCurator/internal/domain"
	"TipCurator/internal/infrastructure/storage"
)

const footer = "<!-- END TIPS -->"

var categories = []domain.Category{
	{Slug: "workflow", Name: "Workflow", Icon: "⚡"},
	{Slug: "tooling", Name: "Tooling", Icon: "🔧"},
}

var fixedNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Writer, *storage.SQLiteRepository, Options) {
	t.Helper()

	root := t.TempDir()
	repo, err := storage.OpenSQLite(filepath.Join(root, "corpus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	opts := Options{
		CategoriesDir: filepath.Join(root, "categories"),
		IndexPath:     filepath.Join(root, "index.json"),
		FooterMarker:  footer,
		Categories:    categories,
		Now:           func() time.Time { return fixedNow },
	}
	return NewWriter(repo, opts), repo, opts
}

func unique(category, title, body string) dedup.Unique {
	return dedup.Unique{
		Verdict: domain.Verdict{
			Candidate: domain.Candidate{
				Title:   title,
				Content: body,
				Author:  "dev",
				URL:     "https://x.com/dev/status/1",
				Source:  domain.PlatformTwitter,
			},
			Category:     category,
			DisplayTitle: title,
			Summary:      body,
			Accepted:     true,
		},
		Fingerprint: dedup.Compute(title, body, 200),
	}
}

func TestWriterFirstTipOnEmptyCorpus(t *testing.T) {
	t.Parallel()

	w, _, opts := setup(t)
	written, err := w.Write(context.Background(), []dedup.Unique{unique("workflow", "Resume sessions", "Use --resume.")})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	assert.Equal(t, 1, len(written))
	assert.Equal(t, 1, written[0].Number)

	raw, err := os.ReadFile(filepath.Join(opts.CategoriesDir, "workflow.md"))
	if err != nil {
		t.Fatalf("read category file: %v", err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "# Workflow\n\n") {
		t.Fatalf("missing heading:\n%s", content)
	}
	for _, want := range []string{
		"## 1. Resume sessions",
		"**Source:** Twitter @dev",
		"**Added:** 2025-06-10",
		"Use --resume.",
		"**Link:** https://x.com/dev/status/1",
		"---",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("category file missing %q:\n%s", want, content)
		}
	}

	idx, err := LoadIndex(opts.IndexPath, nil)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	assert.Equal(t, 1, idx.TotalTips)
	assert.Equal(t, 1, idx.Categories[0].Count)
	assert.Equal(t, 0, idx.Categories[1].Count)
	assert.Equal(t, true, idx.LastUpdated.Equal(fixedNow))
}

func TestWriterNumbersContinueAcrossRunsAndCategories(t *testing.T) {
	t.Parallel()

	w, repo, _ := setup(t)
	ctx := context.Background()

	if _, err := w.Write(ctx, []dedup.Unique{
		unique("workflow", "One", "a"),
		unique("tooling", "Two", "b"),
	}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	written, err := w.Write(ctx, []dedup.Unique{unique("tooling", "Three", "c")})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	assert.Equal(t, 3, written[0].Number)

	highest, err := repo.MaxNumber(ctx)
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	assert.Equal(t, 3, highest)
}

func TestWriterInsertsBeforeFooter(t *testing.T) {
	t.Parallel()

	w, _, opts := setup(t)
	if err := os.MkdirAll(opts.CategoriesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(opts.CategoriesDir, "tooling.md")
	seed := "# Tooling\n\nIntro text.\n\n" + footer + "\nFooter links\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := w.Write(context.Background(), []dedup.Unique{unique("tooling", "Write hooks", "Hooks fire on events.")}); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, _ := os.ReadFile(path)
	content := string(raw)
	entryAt := strings.Index(content, "## 1. Write hooks")
	footerAt := strings.Index(content, footer)
	if entryAt < 0 || footerAt < entryAt {
		t.Fatalf("entry should precede footer:\n%s", content)
	}
	if !strings.HasSuffix(content, footer+"\nFooter links\n") {
		t.Fatalf("footer content should be preserved:\n%s", content)
	}
}

func TestWriterUnknownCategoryOnlyCountsTotal(t *testing.T) {
	t.Parallel()

	w, _, opts := setup(t)
	if _, err := w.Write(context.Background(), []dedup.Unique{unique("legacy-bucket", "Orphan", "x")}); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx, err := LoadIndex(opts.IndexPath, nil)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	assert.Equal(t, 1, idx.TotalTips)
	for _, c := range idx.Categories {
		assert.Equal(t, 0, c.Count)
	}

	raw, err := os.ReadFile(filepath.Join(opts.CategoriesDir, "legacy-bucket.md"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.HasPrefix(string(raw), "# Legacy Bucket\n") {
		t.Fatalf("unexpected heading: %s", raw)
	}
}

func TestParseMarkdownReadsRenderedEntries(t *testing.T) {
	t.Parallel()

	doc := CategoryHeader(categories[0]) +
		RenderEntry(domain.Entry{Number: 4, Title: "Plan first", Source: "Reddit r/ClaudeAI (u/alice)",
			Summary: "Press shift+tab twice.\nThen review.", URL: "https://reddit.com/x", AddedAt: fixedNow}) +
		"\n" +
		RenderEntry(domain.Entry{Number: 9, Title: "Hooks", Source: "Twitter @bob", URL: "https://x.com/b", AddedAt: fixedNow}) +
		"\n" + footer + "\n"

	entries, err := ParseMarkdown(strings.NewReader(doc), "workflow")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assert.Equal(t, 2, len(entries))

	first := entries[0]
	assert.Equal(t, 4, first.Number)
	assert.Equal(t, "Plan first", first.Title)
	assert.Equal(t, "alice", first.Author)
	assert.Equal(t, "Press shift+tab twice.\nThen review.", first.Summary)
	assert.Equal(t, "https://reddit.com/x", first.URL)
	assert.Equal(t, "workflow", first.Category)
	assert.Equal(t, "2025-06-10", first.AddedAt.Format("2006-01-02"))

	assert.Equal(t, "bob", entries[1].Author)
	assert.Equal(t, "", entries[1].Summary)
}

func TestRenderEntryKeepsHeadingOnOneLine(t *testing.T) {
	t.Parallel()

	doc := RenderEntry(domain.Entry{Number: 3, Title: "Use hooks\nfor linting", Source: "Twitter @a",
		Summary: "body text", URL: "u", AddedAt: fixedNow})
	entries, err := ParseMarkdown(strings.NewReader(doc), "tooling")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "Use hooks for linting", entries[0].Title)
	assert.Equal(t, "body text", entries[0].Summary)
}

func TestImportIsRepeatable(t *testing.T) {
	t.Parallel()

	_, repo, opts := setup(t)
	if err := os.MkdirAll(opts.CategoriesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := CategoryHeader(categories[1]) +
		RenderEntry(domain.Entry{Number: 1, Title: "Use MCP", Source: "Twitter @a", Summary: "s", URL: "u", AddedAt: fixedNow}) + "\n" +
		RenderEntry(domain.Entry{Number: 2, Title: "Use hooks", Source: "Twitter @b", Summary: "t", URL: "v", AddedAt: fixedNow})
	if err := os.WriteFile(filepath.Join(opts.CategoriesDir, "tooling.md"), []byte(doc), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx := context.Background()
	first, err := Import(ctx, repo, opts, 200)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	assert.Equal(t, ImportResult{Imported: 2}, first)

	second, err := Import(ctx, repo, opts, 200)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	assert.Equal(t, ImportResult{Skipped: 2}, second)

	fps, err := repo.Fingerprints(ctx)
	if err != nil {
		t.Fatalf("fingerprints: %v", err)
	}
	assert.Equal(t, 4, len(fps))

	idx, err := LoadIndex(opts.IndexPath, nil)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	assert.Equal(t, 2, idx.TotalTips)
	assert.Equal(t, 2, idx.Categories[1].Count)
}

func TestInsertEntryWithoutFooterAppends(t *testing.T) {
	t.Parallel()

	got := InsertEntry("# Workflow\n", "BLOCK\n", footer)
	assert.Equal(t, "# Workflow\n\nBLOCK\n", got)
}

func TestWriterSyncContinuesFromCategoryFiles(t *testing.T) {
	t.Parallel()

	w, repo, opts := setup(t)
	if err := os.MkdirAll(opts.CategoriesDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := CategoryHeader(categories[0]) +
		RenderEntry(domain.Entry{Number: 7, Title: "Use --resume flag to continue sessions", Source: "Twitter @a",
			Summary: "Run claude --resume.", URL: "https://x.com/a/status/7", AddedAt: fixedNow}) +
		"\n" + footer + "\n"
	path := filepath.Join(opts.CategoriesDir, "workflow.md")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx := context.Background()
	result, err := w.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	assert.Equal(t, 1, result.Imported)

	written, err := w.Write(ctx, []dedup.Unique{unique("workflow", "Brand new tip", "fresh body")})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	assert.Equal(t, 8, written[0].Number)

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "## 8. Brand new tip") || strings.Contains(string(raw), "## 1. ") {
		t.Fatalf("numbering should continue from the file:\n%s", raw)
	}

	again, err := w.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	assert.Equal(t, ImportResult{}, again)

	stored, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assert.Equal(t, 2, len(stored))
}

func TestWriterSyncWithoutCategoryFiles(t *testing.T) {
	t.Parallel()

	w, _, opts := setup(t)
	result, err := w.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	assert.Equal(t, ImportResult{}, result)
	if _, err := os.Stat(opts.IndexPath); !os.IsNotExist(err) {
		t.Fatalf("index should not be written when nothing was imported")
	}
}
