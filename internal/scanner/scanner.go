package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TipCurator/internal/domain"
)

// ErrMissingCredentials is returned by scanners that cannot authenticate and have no fallback.
var ErrMissingCredentials = errors.New("scanner credentials are not configured")

// Request carries all parameters required to execute a scan.
type Request struct {
	Now           time.Time
	SourceName    string
	Queries       []string
	Accounts      []string
	Keywords      []string
	MinEngagement int
	MaxAge        time.Duration
	Limit         int
	Options       map[string]string
}

// Since is the oldest publication time the request accepts.
func (r Request) Since() time.Time {
	if r.MaxAge <= 0 {
		return time.Time{}
	}
	return r.Now.Add(-r.MaxAge)
}

// Fresh reports whether a post published at t is inside the age window.
func (r Request) Fresh(t time.Time) bool {
	since := r.Since()
	return since.IsZero() || t.IsZero() || !t.Before(since)
}

// MatchesKeywords reports whether text contains one of the request keywords.
// A request without keywords matches everything.
func (r Request) MatchesKeywords(text string) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	text = strings.ToLower(text)
	for _, kw := range r.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Option returns an option value or the fallback when absent.
func (r Request) Option(key, fallback string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Scanner captures a single platform strategy (Twitter, Reddit, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Candidate, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// FirstLine returns the first non-empty line of text, cut to limit runes.
func FirstLine(text string, limit int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if limit > 0 && len(runes) > limit {
			return strings.TrimSpace(string(runes[:limit])) + "…"
		}
		return line
	}
	return ""
}
