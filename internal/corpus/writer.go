// Package corpus persists accepted tips: the structured store is authoritative,
// the per-category markdown files and the JSON index are rendered views.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TipCurator/internal/dedup"
	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

// Options configures where the writer renders its views.
type Options struct {
	CategoriesDir string
	IndexPath     string
	FooterMarker  string
	BodyChars     int
	Categories    []domain.Category
	Now           func() time.Time
	Logger        *slog.Logger
}

// Writer appends accepted tips to the corpus. Runs must not overlap.
type Writer struct {
	repo       ports.TipRepository
	dir        string
	indexPath  string
	footer     string
	categories map[string]domain.Category
	ordered    []domain.Category
	opts       Options
	now        func() time.Time
	logger     *slog.Logger
}

// NewWriter wires the store with the on-disk layout.
func NewWriter(repo ports.TipRepository, opts Options) *Writer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	byslug := make(map[string]domain.Category, len(opts.Categories))
	for _, c := range opts.Categories {
		byslug[c.Slug] = c
	}
	return &Writer{
		repo:       repo,
		dir:        opts.CategoriesDir,
		indexPath:  opts.IndexPath,
		footer:     opts.FooterMarker,
		categories: byslug,
		ordered:    opts.Categories,
		opts:       opts,
		now:        now,
		logger:     opts.Logger,
	}
}

// Sync imports numbered entries from the category files when the store is
// still empty, so numbering and dedup continue from a corpus that predates it.
func (w *Writer) Sync(ctx context.Context) (ImportResult, error) {
	if w.repo == nil {
		return ImportResult{}, fmt.Errorf("tip repository is not configured")
	}

	last, err := w.repo.MaxNumber(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("next tip number: %w", err)
	}
	if last > 0 {
		return ImportResult{}, nil
	}

	legacy, err := w.hasLegacyEntries()
	if err != nil || !legacy {
		return ImportResult{}, err
	}

	opts := w.opts
	opts.Now = w.now
	result, err := Import(ctx, w.repo, opts, w.opts.BodyChars)
	if err != nil {
		return result, fmt.Errorf("import category files: %w", err)
	}
	w.info("category files imported into empty store", "imported", result.Imported)
	return result, nil
}

func (w *Writer) hasLegacyEntries() (bool, error) {
	for _, cat := range w.ordered {
		entries, err := readCategoryFile(filepath.Join(w.dir, cat.Slug+".md"), cat.Slug)
		if err != nil {
			return false, err
		}
		if len(entries) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Write numbers and persists every item, renders it into its category file
// and then updates the index. It stops at the first failure; entries written
// before that stay in place.
func (w *Writer) Write(ctx context.Context, items []dedup.Unique) ([]domain.Entry, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if w.repo == nil {
		return nil, fmt.Errorf("tip repository is not configured")
	}

	last, err := w.repo.MaxNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("next tip number: %w", err)
	}

	idx, err := LoadIndex(w.indexPath, w.ordered)
	if err != nil {
		return nil, err
	}

	written := make([]domain.Entry, 0, len(items))
	for _, item := range items {
		now := w.now()
		entry := domain.Entry{
			Number:    last + 1,
			Category:  item.Verdict.Category,
			Title:     item.Verdict.DisplayTitle,
			Author:    item.Verdict.Candidate.Author,
			Source:    item.Verdict.Candidate.Attribution(),
			Summary:   item.Verdict.Summary,
			URL:       item.Verdict.Candidate.URL,
			AddedAt:   now,
			TitleHash: item.Fingerprint.TitleHash,
			BodyHash:  item.Fingerprint.BodyHash,
		}

		if err := w.repo.Save(ctx, entry); err != nil {
			return written, fmt.Errorf("save tip: %w", err)
		}
		if err := w.appendMarkdown(entry); err != nil {
			return written, err
		}
		last = entry.Number
		Record(&idx, entry.Category, now)
		written = append(written, entry)

		w.debug("tip written", "number", entry.Number, "category", entry.Category, "title", entry.Title)
	}

	if err := SaveIndex(w.indexPath, idx); err != nil {
		return written, err
	}
	return written, nil
}

func (w *Writer) appendMarkdown(entry domain.Entry) error {
	path := filepath.Join(w.dir, entry.Category+".md")

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		raw = []byte(CategoryHeader(w.category(entry.Category)))
	case err != nil:
		return fmt.Errorf("read category file: %w", err)
	}

	content := InsertEntry(string(raw), RenderEntry(entry), w.footer)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create categories dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write category file: %w", err)
	}
	return nil
}

func (w *Writer) category(slug string) domain.Category {
	if c, ok := w.categories[slug]; ok {
		return c
	}
	return domain.Category{Slug: slug, Name: titleFromSlug(slug)}
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func (w *Writer) info(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Writer) debug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}
