package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"TipCurator/internal/domain"
)

// NewIndex registers every configured category with a zero count.
func NewIndex(categories []domain.Category) domain.Index {
	idx := domain.Index{Categories: make([]domain.CategoryCount, 0, len(categories))}
	for _, c := range categories {
		idx.Categories = append(idx.Categories, domain.CategoryCount{Name: c.Name, Slug: c.Slug})
	}
	return idx
}

// LoadIndex reads the index file, starting a fresh index from categories when it does not exist.
func LoadIndex(path string, categories []domain.Category) (domain.Index, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewIndex(categories), nil
	}
	if err != nil {
		return domain.Index{}, fmt.Errorf("read index: %w", err)
	}

	var idx domain.Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return domain.Index{}, fmt.Errorf("parse index %s: %w", path, err)
	}
	return idx, nil
}

// SaveIndex writes the index as indented JSON.
func SaveIndex(path string, idx domain.Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	raw, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Record counts one added tip. Categories not registered in the index only bump the total.
func Record(idx *domain.Index, category string, at time.Time) {
	for i := range idx.Categories {
		if idx.Categories[i].Slug == category {
			idx.Categories[i].Count++
			break
		}
	}
	idx.TotalTips++
	idx.LastUpdated = at.UTC()
}
