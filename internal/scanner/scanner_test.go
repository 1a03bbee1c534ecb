package scanner

import (
	"context"
	"testing"
	"time"

	"TipCurator/internal/domain"
)

type stubScanner struct{ name string }

func (s stubScanner) Name() string { return s.name }

func (s stubScanner) Scan(context.Context, Request) ([]domain.Candidate, error) { return nil, nil }

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubScanner{name: "twitter"})

	if _, err := reg.Resolve("twitter"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := reg.Resolve("mastodon"); err == nil {
		t.Fatalf("expected error for unregistered scanner")
	}
}

func TestRequestFresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	req := Request{Now: now, MaxAge: 7 * 24 * time.Hour}

	if !req.Fresh(now.Add(-6 * 24 * time.Hour)) {
		t.Fatalf("6 days old should be fresh")
	}
	if req.Fresh(now.Add(-8 * 24 * time.Hour)) {
		t.Fatalf("8 days old should be stale")
	}
	if !(Request{Now: now}).Fresh(now.Add(-365 * 24 * time.Hour)) {
		t.Fatalf("no max age accepts everything")
	}
}

func TestRequestMatchesKeywords(t *testing.T) {
	t.Parallel()

	req := Request{Keywords: []string{"Claude Code", "trick"}}
	if !req.MatchesKeywords("my favourite claude code workflow") {
		t.Fatalf("expected keyword match")
	}
	if req.MatchesKeywords("unrelated post") {
		t.Fatalf("unexpected keyword match")
	}
	if !(Request{}).MatchesKeywords("anything") {
		t.Fatalf("empty keyword list should match")
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := FirstLine("\n  Use /compact often \nmore text", 0); got != "Use /compact often" {
		t.Fatalf("unexpected first line %q", got)
	}
	if got := FirstLine("abcdefghij", 4); got != "abcd…" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
