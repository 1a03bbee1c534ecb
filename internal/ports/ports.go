package ports

import (
	"context"
	"time"

	"TipCurator/internal/domain"
)

// TipSource pulls fresh candidates from upstream platforms.
type TipSource interface {
	FetchRecent(ctx context.Context, now time.Time) ([]domain.Candidate, error)
}

// Classifier decides whether a candidate is a tip and which category it belongs to.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, candidate domain.Candidate) (domain.Verdict, error)
}

// Completer is the narrow capability the model classifier needs from an LLM provider.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TipRepository is the authoritative, structured corpus store.
type TipRepository interface {
	MaxNumber(ctx context.Context) (int, error)
	Fingerprints(ctx context.Context) ([]string, error)
	Save(ctx context.Context, entry domain.Entry) error
	List(ctx context.Context, category string) ([]domain.Entry, error)
	ByNumbers(ctx context.Context, numbers []int) ([]domain.Entry, error)
}

// NewsletterAPI is the external mailing service. This repository is only a client.
type NewsletterAPI interface {
	Stats(ctx context.Context) (domain.Stats, error)
	CreateIssue(ctx context.Context, subject, html, text string) (string, error)
	SendIssue(ctx context.Context, issueID string) (int, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
