package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"TipCurator/internal/dedup"
	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

// ImportResult summarizes a markdown migration.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Import loads legacy category files into the store. Entries whose number is
// already stored are skipped, so the import can be re-run safely. The index is
// rebuilt from the store afterwards.
func Import(ctx context.Context, repo ports.TipRepository, opts Options, bodyChars int) (ImportResult, error) {
	var result ImportResult

	existing, err := repo.List(ctx, "")
	if err != nil {
		return result, fmt.Errorf("list stored tips: %w", err)
	}
	stored := make(map[int]struct{}, len(existing))
	for _, e := range existing {
		stored[e.Number] = struct{}{}
	}

	for _, cat := range opts.Categories {
		entries, err := readCategoryFile(filepath.Join(opts.CategoriesDir, cat.Slug+".md"), cat.Slug)
		if err != nil {
			return result, err
		}
		for _, e := range entries {
			if _, ok := stored[e.Number]; ok {
				result.Skipped++
				continue
			}
			fp := dedup.Compute(e.Title, e.Summary, bodyChars)
			e.TitleHash, e.BodyHash = fp.TitleHash, fp.BodyHash
			if err := repo.Save(ctx, e); err != nil {
				return result, fmt.Errorf("import tip #%d: %w", e.Number, err)
			}
			stored[e.Number] = struct{}{}
			result.Imported++
		}
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if err := RebuildIndex(ctx, repo, opts.Categories, opts.IndexPath, now()); err != nil {
		return result, err
	}
	return result, nil
}

// RebuildIndex recounts the index from the store.
func RebuildIndex(ctx context.Context, repo ports.TipRepository, categories []domain.Category, path string, at time.Time) error {
	entries, err := repo.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list stored tips: %w", err)
	}

	idx := NewIndex(categories)
	for _, e := range entries {
		Record(&idx, e.Category, at)
	}
	idx.LastUpdated = at.UTC()
	return SaveIndex(path, idx)
}

func readCategoryFile(path, slug string) ([]domain.Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := ParseMarkdown(f, slug)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}
