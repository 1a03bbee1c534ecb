package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"TipCurator/internal/corpus"
	"TipCurator/internal/dedup"
	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

// TipWriter persists deduplicated tips and returns the numbered entries.
// Sync brings entries that exist only in the rendered view into the store.
type TipWriter interface {
	Sync(ctx context.Context) (corpus.ImportResult, error)
	Write(ctx context.Context, items []dedup.Unique) ([]domain.Entry, error)
}

// PipelineDeps wires all driven adapters into the daily update pipeline.
type PipelineDeps struct {
	Source     ports.TipSource
	Classifier ports.Classifier
	Repository ports.TipRepository
	Writer     TipWriter
	Notifier   ports.Notifier
	BodyChars  int
	Logger     *slog.Logger
}

// Pipeline implements the tip-ingestion workflow: fetch, classify, dedupe, write.
type Pipeline struct {
	source     ports.TipSource
	classifier ports.Classifier
	repository ports.TipRepository
	writer     TipWriter
	notifier   ports.Notifier
	bodyChars  int
	logger     *slog.Logger
}

// Report summarizes one daily run.
type Report struct {
	Fetched    int
	Accepted   int
	Rejected   int
	Failed     int
	Duplicates int
	Added      []domain.Entry
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		classifier: deps.Classifier,
		repository: deps.Repository,
		writer:     deps.Writer,
		notifier:   deps.Notifier,
		bodyChars:  deps.BodyChars,
		logger:     deps.Logger,
	}
}

// ProcessDay runs one pass. Source and classifier failures degrade; store and
// file failures abort.
func (p *Pipeline) ProcessDay(ctx context.Context, now time.Time) (Report, error) {
	var report Report
	if p.source == nil || p.classifier == nil || p.repository == nil || p.writer == nil {
		return report, fmt.Errorf("pipeline is not fully configured")
	}

	candidates, err := p.source.FetchRecent(ctx, now)
	if err != nil {
		return report, fmt.Errorf("fetch candidates: %w", err)
	}
	report.Fetched = len(candidates)
	p.info("candidates fetched", "count", len(candidates), "classifier", p.classifier.Name())

	accepted := make([]domain.Verdict, 0, len(candidates))
	for _, candidate := range candidates {
		verdict, err := p.classifier.Classify(ctx, candidate)
		if err != nil {
			report.Failed++
			p.warn("classification failed, candidate rejected", "url", candidate.URL, "error", err)
			continue
		}
		if !verdict.Accepted {
			report.Rejected++
			p.debug("candidate rejected", "url", candidate.URL, "quality", verdict.Quality)
			continue
		}
		accepted = append(accepted, verdict)
	}
	report.Accepted = len(accepted)

	if _, err := p.writer.Sync(ctx); err != nil {
		return report, fmt.Errorf("sync corpus: %w", err)
	}

	existing, err := p.repository.Fingerprints(ctx)
	if err != nil {
		return report, fmt.Errorf("load fingerprints: %w", err)
	}
	unique := dedup.New(existing, p.bodyChars).Filter(accepted)
	report.Duplicates = len(accepted) - len(unique)

	added, err := p.writer.Write(ctx, unique)
	report.Added = added
	if err != nil {
		return report, fmt.Errorf("write corpus: %w", err)
	}

	p.info("daily update finished",
		"fetched", report.Fetched,
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"failed", report.Failed,
		"duplicates", report.Duplicates,
		"added", len(report.Added),
	)

	if p.notifier != nil && len(added) > 0 {
		if err := p.notifier.PublishDigest(ctx, buildDigestMessage(added)); err != nil {
			p.warn("notification failed", "error", err)
		}
	}

	return report, nil
}

func buildDigestMessage(entries []domain.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d new tip(s) added\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "#%d [%s] %s\n%s\n%s\n\n", e.Number, e.Category, e.Title, e.Source, e.URL)
	}
	return strings.TrimSpace(sb.String())
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
