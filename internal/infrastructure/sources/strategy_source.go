package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"TipCurator/internal/config"
	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
	"TipCurator/internal/scanner"
)

// StrategySource implements TipSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.TipSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchRecent runs every configured source. A failing source is logged and
// contributes nothing; the run carries on with the rest.
func (s *StrategySource) FetchRecent(ctx context.Context, now time.Time) ([]domain.Candidate, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch recent", "sources", len(s.sources), "now", now.Format(time.RFC3339))

	var aggregated []domain.Candidate
	for _, src := range s.sources {
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			s.warn("source skipped", "source", src.Name, "error", err)
			continue
		}

		req := scanner.Request{
			Now:           now,
			SourceName:    src.Name,
			Queries:       src.Queries,
			Accounts:      src.Accounts,
			Keywords:      src.Keywords,
			MinEngagement: src.MinEngagement,
			MaxAge:        time.Duration(src.MaxAgeDays) * 24 * time.Hour,
			Limit:         src.Limit,
			Options:       src.Options,
		}

		results, err := strategy.Scan(ctx, req)
		switch {
		case errors.Is(err, scanner.ErrMissingCredentials):
			s.info("source skipped", "source", src.Name, "reason", err.Error())
			continue
		case err != nil:
			s.warn("source failed", "source", src.Name, "scanner", src.Scanner, "error", err)
			continue
		}

		s.debug("source produced candidates", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_candidates", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
