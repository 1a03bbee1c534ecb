package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TipCurator/internal/classifier"
	"TipCurator/internal/config"
	"TipCurator/internal/corpus"
	"TipCurator/internal/domain"
	"TipCurator/internal/infrastructure/llm"
	"TipCurator/internal/infrastructure/sources"
	"TipCurator/internal/infrastructure/storage"
	"TipCurator/internal/infrastructure/telegram"
	"TipCurator/internal/infrastructure/waitlist"
	"TipCurator/internal/logging"
	"TipCurator/internal/newsletter"
	"TipCurator/internal/ports"
	"TipCurator/internal/scanner"
	"TipCurator/internal/usecase"
)

// Application wires configs to use cases.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	categories []domain.Category
	repo       *storage.SQLiteRepository
	api        *waitlist.Client
	pipeline   *usecase.Pipeline
	newsletter *usecase.Newsletter
}

// New opens the corpus store and builds both use cases. Close releases the store.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.OpenSQLite(cfg.Corpus.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open corpus store: %w", err)
	}

	categories := cfg.DomainCategories()

	registry := scanner.NewRegistry()
	registry.Register(sources.NewTwitterScanner(cfg.Credentials.TwitterBearerToken, nil))
	registry.Register(sources.NewRedditScanner(cfg.Credentials.RedditClientID, cfg.Credentials.RedditClientSecret, nil,
		baseLogger.With("component", "reddit")))

	source := sources.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	writer := corpus.NewWriter(repo, corpus.Options{
		CategoriesDir: cfg.Corpus.CategoriesDir(),
		IndexPath:     cfg.Corpus.IndexPath(),
		FooterMarker:  cfg.Corpus.FooterMarker,
		BodyChars:     cfg.Corpus.BodyHashChars,
		Categories:    categories,
		Logger:        baseLogger.With("component", "corpus"),
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Classifier: buildClassifier(cfg, categories, baseLogger),
		Repository: repo,
		Writer:     writer,
		Notifier:   notifier,
		BodyChars:  cfg.Corpus.BodyHashChars,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	renderer, err := newsletter.NewRenderer(cfg.Newsletter.Title, cfg.Newsletter.SubjectTemplate, categories)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	api := waitlist.NewClient(cfg.Newsletter.APIURL, cfg.Newsletter.ProjectID, cfg.Newsletter.APIKey)

	issues := usecase.NewNewsletter(usecase.NewsletterDeps{
		Repository:   repo,
		API:          api,
		Renderer:     renderer,
		Notifier:     notifier,
		TipsPerIssue: cfg.Newsletter.TipsPerIssue,
		MinTips:      cfg.Newsletter.MinTips,
		DryRun:       cfg.Newsletter.DryRun,
		PreviewPath:  cfg.Newsletter.PreviewPath,
		Logger:       baseLogger.With("component", "newsletter"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		categories: categories,
		repo:       repo,
		api:        api,
		pipeline:   pipeline,
		newsletter: issues,
	}, nil
}

// buildClassifier picks the first provider with a key, unless one is forced by config.
func buildClassifier(cfg config.Config, categories []domain.Category, logger *slog.Logger) ports.Classifier {
	keyword := classifier.NewKeywordClassifier(categories, cfg.Classifier.DefaultCategory, cfg.Classifier.SummaryChars)

	model := func(name string, completer ports.Completer) ports.Classifier {
		return classifier.NewModelClassifier(completer, classifier.ModelOptions{
			Name:            name,
			Categories:      categories,
			DefaultCategory: cfg.Classifier.DefaultCategory,
			MinQuality:      cfg.Classifier.MinQuality,
			Logger:          logger.With("component", "classifier."+name),
		})
	}

	var chosen ports.Classifier
	switch provider := cfg.Classifier.Provider; {
	case provider == config.ProviderKeyword:
		chosen = keyword
	case (provider == config.ProviderGemini || provider == config.ProviderAuto) && cfg.LLM.Gemini.APIKey != "":
		chosen = model(config.ProviderGemini, llm.NewOpenAICompleter(cfg.LLM.Gemini))
	case (provider == config.ProviderOpenAI || provider == config.ProviderAuto) && cfg.LLM.OpenAI.APIKey != "":
		chosen = model(config.ProviderOpenAI, llm.NewOpenAICompleter(cfg.LLM.OpenAI))
	case (provider == config.ProviderAnthropic || provider == config.ProviderAuto) && cfg.LLM.Anthropic.APIKey != "":
		chosen = model(config.ProviderAnthropic, llm.NewAnthropicCompleter(cfg.LLM.Anthropic))
	default:
		if provider != config.ProviderAuto {
			logger.Warn("classifier provider has no api key, using keyword classifier", "provider", provider)
		}
		chosen = keyword
	}

	logger.Info("classifier selected", "classifier", chosen.Name())
	return chosen
}

// Close releases the corpus store.
func (a *Application) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

// RunDaily performs one daily update pass.
func (a *Application) RunDaily(ctx context.Context) (usecase.Report, error) {
	return a.pipeline.ProcessDay(ctx, time.Now().UTC())
}

// RunNewsletter compiles and delivers (or previews) the next issue.
func (a *Application) RunNewsletter(ctx context.Context) (usecase.Delivery, error) {
	return a.newsletter.Publish(ctx)
}

// Newsletter exposes the newsletter use case to operator commands.
func (a *Application) Newsletter() *usecase.Newsletter {
	return a.newsletter
}

// Repository exposes the corpus store to operator commands.
func (a *Application) Repository() ports.TipRepository {
	return a.repo
}

// API exposes the newsletter service client.
func (a *Application) API() ports.NewsletterAPI {
	return a.api
}

// Config returns the loaded configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Index reads the corpus index.
func (a *Application) Index() (domain.Index, error) {
	return corpus.LoadIndex(a.cfg.Corpus.IndexPath(), a.categories)
}

// Import migrates the markdown corpus into the store.
func (a *Application) Import(ctx context.Context) (corpus.ImportResult, error) {
	return corpus.Import(ctx, a.repo, corpus.Options{
		CategoriesDir: a.cfg.Corpus.CategoriesDir(),
		IndexPath:     a.cfg.Corpus.IndexPath(),
		Categories:    a.categories,
	}, a.cfg.Corpus.BodyHashChars)
}
