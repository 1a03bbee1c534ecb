package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const tipsTable = "tips"

var tipColumns = []string{
	"number", "category", "title", "author", "source", "summary", "url", "title_hash", "body_hash", "added_at",
}

// SQLiteRepository persists corpus entries into a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.TipRepository = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		if err := r.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := r.db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
		if _, err := r.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			return fmt.Errorf("record migration %s: %w", f, err)
		}
	}
	return nil
}

// MaxNumber returns the highest entry number, or 0 for an empty corpus.
func (r *SQLiteRepository) MaxNumber(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COALESCE(MAX(number), 0)").From(tipsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build max query: %w", err)
	}

	var highest int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&highest); err != nil {
		return 0, fmt.Errorf("query max number: %w", err)
	}
	return highest, nil
}

// Fingerprints returns every non-empty title and body hash in the corpus.
func (r *SQLiteRepository) Fingerprints(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("title_hash", "body_hash").From(tipsTable).OrderBy("number").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fingerprint query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var titleHash, bodyHash string
		if err := rows.Scan(&titleHash, &bodyHash); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		for _, h := range []string{titleHash, bodyHash} {
			if h != "" {
				result = append(result, h)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// Save inserts a new entry. Entry numbers are never reused.
func (r *SQLiteRepository) Save(ctx context.Context, entry domain.Entry) error {
	query, args, err := sq.Insert(tipsTable).
		Columns(tipColumns...).
		Values(
			entry.Number,
			entry.Category,
			entry.Title,
			entry.Author,
			entry.Source,
			entry.Summary,
			entry.URL,
			entry.TitleHash,
			entry.BodyHash,
			entry.AddedAt.UTC().Format(time.RFC3339),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert tip %d: %w", entry.Number, err)
	}
	return nil
}

// List returns entries ordered by number, optionally restricted to one category.
func (r *SQLiteRepository) List(ctx context.Context, category string) ([]domain.Entry, error) {
	builder := sq.Select(tipColumns...).From(tipsTable).OrderBy("number")
	if category != "" {
		builder = builder.Where(sq.Eq{"category": category})
	}
	return r.query(ctx, builder)
}

// ByNumbers returns the requested entries in the order given. Unknown numbers are an error.
func (r *SQLiteRepository) ByNumbers(ctx context.Context, numbers []int) ([]domain.Entry, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	entries, err := r.query(ctx, sq.Select(tipColumns...).From(tipsTable).Where(sq.Eq{"number": numbers}))
	if err != nil {
		return nil, err
	}

	byNumber := make(map[int]domain.Entry, len(entries))
	for _, e := range entries {
		byNumber[e.Number] = e
	}

	ordered := make([]domain.Entry, 0, len(numbers))
	for _, n := range numbers {
		e, ok := byNumber[n]
		if !ok {
			return nil, fmt.Errorf("tip #%d not found", n)
		}
		ordered = append(ordered, e)
	}
	return ordered, nil
}

func (r *SQLiteRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]domain.Entry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tips: %w", err)
	}
	defer rows.Close()

	var result []domain.Entry
	for rows.Next() {
		var (
			e       domain.Entry
			addedAt string
		)
		if err := rows.Scan(&e.Number, &e.Category, &e.Title, &e.Author, &e.Source,
			&e.Summary, &e.URL, &e.TitleHash, &e.BodyHash, &addedAt); err != nil {
			return nil, fmt.Errorf("scan tip: %w", err)
		}
		if e.AddedAt, err = time.Parse(time.RFC3339, addedAt); err != nil {
			return nil, fmt.Errorf("parse added_at of tip %d: %w", e.Number, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}
