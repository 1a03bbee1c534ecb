package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TipCurator/internal/domain"
	"TipCurator/internal/newsletter"
	"TipCurator/internal/ports"
)

// NewsletterDeps wires the newsletter use case.
type NewsletterDeps struct {
	Repository   ports.TipRepository
	API          ports.NewsletterAPI
	Selector     *newsletter.Selector
	Renderer     *newsletter.Renderer
	Notifier     ports.Notifier
	TipsPerIssue int
	MinTips      int
	DryRun       bool
	PreviewPath  string
	Now          func() time.Time
	Logger       *slog.Logger
}

// Newsletter compiles issues from the corpus and hands them to the delivery API.
type Newsletter struct {
	repository   ports.TipRepository
	api          ports.NewsletterAPI
	selector     *newsletter.Selector
	renderer     *newsletter.Renderer
	notifier     ports.Notifier
	tipsPerIssue int
	minTips      int
	dryRun       bool
	previewPath  string
	now          func() time.Time
	logger       *slog.Logger
}

// Delivery describes what a newsletter run did.
type Delivery struct {
	Issue       domain.Issue
	DryRun      bool
	PreviewPath string
	IssueID     string
	Recipients  int
}

// NewNewsletter constructs the use case.
func NewNewsletter(deps NewsletterDeps) *Newsletter {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	selector := deps.Selector
	if selector == nil {
		selector = newsletter.NewSelector(nil)
	}
	return &Newsletter{
		repository:   deps.Repository,
		api:          deps.API,
		selector:     selector,
		renderer:     deps.Renderer,
		notifier:     deps.Notifier,
		tipsPerIssue: deps.TipsPerIssue,
		minTips:      deps.MinTips,
		dryRun:       deps.DryRun,
		previewPath:  deps.PreviewPath,
		now:          now,
		logger:       deps.Logger,
	}
}

// Compile selects tips from the corpus and renders the next issue.
func (n *Newsletter) Compile(ctx context.Context) (domain.Issue, error) {
	if n.repository == nil || n.renderer == nil {
		return domain.Issue{}, fmt.Errorf("newsletter is not fully configured")
	}

	entries, err := n.repository.List(ctx, "")
	if err != nil {
		return domain.Issue{}, fmt.Errorf("load corpus: %w", err)
	}
	if len(entries) < n.minTips {
		return domain.Issue{}, fmt.Errorf("%w: corpus has %d, need %d", newsletter.ErrInsufficientTips, len(entries), n.minTips)
	}

	selected := n.selector.Select(entries, n.tipsPerIssue)
	n.debug("tips selected", "corpus", len(entries), "selected", len(selected))

	return n.render(ctx, selected)
}

// CompileNumbers renders an issue from hand-picked tip numbers, in the given order.
func (n *Newsletter) CompileNumbers(ctx context.Context, numbers []int) (domain.Issue, error) {
	if n.repository == nil || n.renderer == nil {
		return domain.Issue{}, fmt.Errorf("newsletter is not fully configured")
	}

	entries, err := n.repository.ByNumbers(ctx, numbers)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("load tips: %w", err)
	}
	if len(entries) == 0 {
		return domain.Issue{}, fmt.Errorf("%w: no tips selected", newsletter.ErrInsufficientTips)
	}
	return n.render(ctx, entries)
}

// Publish compiles the next issue and hands it to PublishIssue.
func (n *Newsletter) Publish(ctx context.Context) (Delivery, error) {
	issue, err := n.Compile(ctx)
	if err != nil {
		return Delivery{}, err
	}
	return n.PublishIssue(ctx, issue)
}

// PublishIssue either writes a preview (dry run) or creates and sends the
// issue. Any delivery failure aborts the run.
func (n *Newsletter) PublishIssue(ctx context.Context, issue domain.Issue) (Delivery, error) {
	if n.dryRun {
		if err := newsletter.SavePreview(n.previewPath, issue); err != nil {
			return Delivery{}, err
		}
		n.info("dry run, preview written", "issue", issue.Number, "path", n.previewPath, "subject", issue.Subject)
		return Delivery{Issue: issue, DryRun: true, PreviewPath: n.previewPath}, nil
	}

	if n.api == nil {
		return Delivery{}, fmt.Errorf("newsletter api is not configured")
	}

	issueID, err := n.api.CreateIssue(ctx, issue.Subject, issue.HTML, issue.Text)
	if err != nil {
		return Delivery{}, fmt.Errorf("create issue: %w", err)
	}
	n.info("issue created", "issue", issue.Number, "id", issueID)

	recipients, err := n.api.SendIssue(ctx, issueID)
	if err != nil {
		return Delivery{}, fmt.Errorf("send issue %s: %w", issueID, err)
	}
	n.info("issue sent", "issue", issue.Number, "id", issueID, "recipients", recipients)

	delivery := Delivery{Issue: issue, IssueID: issueID, Recipients: recipients}
	if n.notifier != nil {
		msg := fmt.Sprintf("Newsletter #%d sent to %d subscriber(s)\n%s", issue.Number, recipients, issue.Subject)
		if err := n.notifier.PublishDigest(ctx, msg); err != nil {
			n.warn("notification failed", "error", err)
		}
	}
	return delivery, nil
}

// Icon exposes the renderer's category icons for drafts.
func (n *Newsletter) Icon(slug string) string {
	return n.renderer.Icon(slug)
}

func (n *Newsletter) render(ctx context.Context, entries []domain.Entry) (domain.Issue, error) {
	issue, err := n.renderer.Render(n.nextIssueNumber(ctx), n.now(), entries)
	if err != nil {
		return domain.Issue{}, err
	}
	return issue, nil
}

// nextIssueNumber asks the delivery API for the issue count and falls back to 1.
func (n *Newsletter) nextIssueNumber(ctx context.Context) int {
	if n.api == nil {
		return 1
	}
	stats, err := n.api.Stats(ctx)
	if err != nil {
		n.warn("stats unavailable, using issue number 1", "error", err)
		return 1
	}
	return stats.TotalIssues + 1
}

func (n *Newsletter) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}

func (n *Newsletter) info(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Info(msg, args...)
	}
}

func (n *Newsletter) warn(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}
