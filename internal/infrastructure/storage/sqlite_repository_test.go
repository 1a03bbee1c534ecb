package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"TipCurator/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "corpus.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	highest, err := repo.MaxNumber(ctx)
	if err != nil {
		t.Fatalf("max on empty store: %v", err)
	}
	assert.Equal(t, 0, highest)

	added := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	entries := []domain.Entry{
		{Number: 1, Category: "workflow", Title: "Resume sessions", TitleHash: "aaa", BodyHash: "bbb", AddedAt: added},
		{Number: 2, Category: "tooling", Title: "Write hooks", TitleHash: "ccc", AddedAt: added},
		{Number: 3, Category: "workflow", Title: "Use plan mode", TitleHash: "ddd", BodyHash: "eee", AddedAt: added},
	}
	for _, e := range entries {
		if err := repo.Save(ctx, e); err != nil {
			t.Fatalf("save %d: %v", e.Number, err)
		}
	}

	highest, err = repo.MaxNumber(ctx)
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	assert.Equal(t, 3, highest)

	fps, err := repo.Fingerprints(ctx)
	if err != nil {
		t.Fatalf("fingerprints: %v", err)
	}
	assert.Equal(t, []string{"aaa", "bbb", "ccc", "ddd", "eee"}, fps)

	workflow, err := repo.List(ctx, "workflow")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assert.Equal(t, 2, len(workflow))
	assert.Equal(t, "Use plan mode", workflow[1].Title)
	assert.Equal(t, true, workflow[0].AddedAt.Equal(added))

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	assert.Equal(t, 3, len(all))
}

func TestSQLiteRepositoryRejectsDuplicateNumber(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	entry := domain.Entry{Number: 7, Category: "workflow", Title: "x", TitleHash: "h", AddedAt: time.Now()}
	if err := repo.Save(ctx, entry); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, entry); err == nil {
		t.Fatalf("expected primary key violation")
	}
}

func TestSQLiteRepositoryByNumbersKeepsOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepo(t)

	for i := 1; i <= 4; i++ {
		if err := repo.Save(ctx, domain.Entry{Number: i, Category: "workflow", Title: "t", TitleHash: "h", AddedAt: time.Now()}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.ByNumbers(ctx, []int{4, 1, 3})
	if err != nil {
		t.Fatalf("by numbers: %v", err)
	}
	assert.Equal(t, 4, got[0].Number)
	assert.Equal(t, 1, got[1].Number)
	assert.Equal(t, 3, got[2].Number)

	if _, err := repo.ByNumbers(ctx, []int{1, 99}); err == nil {
		t.Fatalf("expected error for unknown number")
	}
}

func TestSQLiteRepositoryReopenKeepsMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corpus.db")
	repo, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.Save(context.Background(), domain.Entry{Number: 1, Category: "c", Title: "t", TitleHash: "h", AddedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = repo.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	highest, err := reopened.MaxNumber(context.Background())
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	assert.Equal(t, 1, highest)
}
