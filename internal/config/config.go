package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"TipCurator/internal/domain"
)

const (
	configPathEnv         = "TIP_CURATOR_CONFIG"
	tipsDirEnv            = "TIPS_DIR"
	logLevelEnv           = "LOG_LEVEL"
	twitterTokenEnv       = "TWITTER_BEARER_TOKEN"
	redditClientIDEnv     = "REDDIT_CLIENT_ID"
	redditClientSecretEnv = "REDDIT_CLIENT_SECRET"
	geminiAPIKeyEnv       = "GEMINI_API_KEY"
	openAIAPIKeyEnv       = "OPENAI_API_KEY"
	anthropicAPIKeyEnv    = "ANTHROPIC_API_KEY"
	classifierProviderEnv = "CLASSIFIER_PROVIDER"
	waitlistURLEnv        = "WAITLIST_API_URL"
	waitlistProjectEnv    = "WAITLIST_PROJECT_ID"
	waitlistAPIKeyEnv     = "WAITLIST_API_KEY"
	dryRunEnv             = "DRY_RUN"
	telegramTokenEnv      = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv     = "TELEGRAM_CHAT_ID"
)

// Classifier providers.
const (
	ProviderAuto      = "auto"
	ProviderKeyword   = "keyword"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Corpus        CorpusConfig       `yaml:"corpus"`
	Categories    []CategoryConfig   `yaml:"categories"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	LLM           LLMConfig          `yaml:"llm"`
	Credentials   CredentialsConfig  `yaml:"credentials"`
	Sources       []SourceConfig     `yaml:"sources"`
	Newsletter    NewsletterConfig   `yaml:"newsletter"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CorpusConfig locates the corpus on disk.
type CorpusConfig struct {
	Dir           string `yaml:"dir"`
	FooterMarker  string `yaml:"footerMarker"`
	BodyHashChars int    `yaml:"bodyHashChars"`
}

// CategoriesDir is where the per-category markdown files live.
func (c CorpusConfig) CategoriesDir() string {
	return filepath.Join(c.Dir, "categories")
}

// IndexPath is the JSON index record.
func (c CorpusConfig) IndexPath() string {
	return filepath.Join(c.Dir, "index.json")
}

// DatabasePath is the structured corpus store.
func (c CorpusConfig) DatabasePath() string {
	return filepath.Join(c.Dir, "corpus.db")
}

// CategoryConfig describes a category and the keywords the keyword classifier matches.
type CategoryConfig struct {
	Slug     string   `yaml:"slug"`
	Name     string   `yaml:"name"`
	Icon     string   `yaml:"icon"`
	Keywords []string `yaml:"keywords"`
}

// ClassifierConfig selects and tunes the classifier strategy.
type ClassifierConfig struct {
	Provider        string `yaml:"provider"`
	DefaultCategory string `yaml:"defaultCategory"`
	MinQuality      int    `yaml:"minQuality"`
	SummaryChars    int    `yaml:"summaryChars"`
}

// LLMConfig groups the generative API providers.
type LLMConfig struct {
	Gemini    ProviderConfig `yaml:"gemini"`
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig defines how to contact one LLM API.
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// CredentialsConfig holds platform credentials. Usually supplied through the environment.
type CredentialsConfig struct {
	TwitterBearerToken string `yaml:"twitterBearerToken"`
	RedditClientID     string `yaml:"redditClientId"`
	RedditClientSecret string `yaml:"redditClientSecret"`
}

// SourceConfig describes a single platform source with its scanner strategy.
type SourceConfig struct {
	Name          string            `yaml:"name"`
	Scanner       string            `yaml:"scanner"`
	Queries       []string          `yaml:"queries"`
	Accounts      []string          `yaml:"accounts"`
	Keywords      []string          `yaml:"keywords"`
	MinEngagement int               `yaml:"minEngagement"`
	MaxAgeDays    int               `yaml:"maxAgeDays"`
	Limit         int               `yaml:"limit"`
	Options       map[string]string `yaml:"options"`
}

// NewsletterConfig configures issue compilation and the delivery API.
type NewsletterConfig struct {
	APIURL          string `yaml:"apiUrl"`
	ProjectID       string `yaml:"projectId"`
	APIKey          string `yaml:"apiKey"`
	Title           string `yaml:"title"`
	TipsPerIssue    int    `yaml:"tipsPerIssue"`
	MinTips         int    `yaml:"minTips"`
	SubjectTemplate string `yaml:"subjectTemplate"`
	PreviewPath     string `yaml:"previewPath"`
	DraftPath       string `yaml:"draftPath"`
	DryRun          bool   `yaml:"dryRun"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// DomainCategories converts the configured categories into domain values, keeping order.
func (c Config) DomainCategories() []domain.Category {
	out := make([]domain.Category, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, domain.Category{
			Slug:     cat.Slug,
			Name:     cat.Name,
			Icon:     cat.Icon,
			Keywords: append([]string(nil), cat.Keywords...),
		})
	}
	return out
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultConfig().Categories
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(tipsDirEnv); v != "" {
		c.Corpus.Dir = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(twitterTokenEnv); v != "" {
		c.Credentials.TwitterBearerToken = v
	}
	if v := os.Getenv(redditClientIDEnv); v != "" {
		c.Credentials.RedditClientID = v
	}
	if v := os.Getenv(redditClientSecretEnv); v != "" {
		c.Credentials.RedditClientSecret = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.LLM.Anthropic.APIKey = v
	}
	if v := os.Getenv(classifierProviderEnv); v != "" {
		c.Classifier.Provider = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(waitlistURLEnv); v != "" {
		c.Newsletter.APIURL = v
	}
	if v := os.Getenv(waitlistProjectEnv); v != "" {
		c.Newsletter.ProjectID = v
	}
	if v := os.Getenv(waitlistAPIKeyEnv); v != "" {
		c.Newsletter.APIKey = v
	}
	if v := os.Getenv(dryRunEnv); v != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Newsletter.DryRun = parsed
		} else {
			log.Printf("config: ignoring %s=%q: %v", dryRunEnv, v, err)
		}
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Corpus.Dir != "" {
		base.Corpus.Dir = override.Corpus.Dir
	}
	if override.Corpus.FooterMarker != "" {
		base.Corpus.FooterMarker = override.Corpus.FooterMarker
	}
	if override.Corpus.BodyHashChars > 0 {
		base.Corpus.BodyHashChars = override.Corpus.BodyHashChars
	}

	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	if override.Classifier.Provider != "" {
		base.Classifier.Provider = override.Classifier.Provider
	}
	if override.Classifier.DefaultCategory != "" {
		base.Classifier.DefaultCategory = override.Classifier.DefaultCategory
	}
	if override.Classifier.MinQuality > 0 {
		base.Classifier.MinQuality = override.Classifier.MinQuality
	}
	if override.Classifier.SummaryChars > 0 {
		base.Classifier.SummaryChars = override.Classifier.SummaryChars
	}

	base.LLM.Gemini = mergeProvider(base.LLM.Gemini, override.LLM.Gemini)
	base.LLM.OpenAI = mergeProvider(base.LLM.OpenAI, override.LLM.OpenAI)
	base.LLM.Anthropic = mergeProvider(base.LLM.Anthropic, override.LLM.Anthropic)

	if override.Credentials.TwitterBearerToken != "" {
		base.Credentials.TwitterBearerToken = override.Credentials.TwitterBearerToken
	}
	if override.Credentials.RedditClientID != "" {
		base.Credentials.RedditClientID = override.Credentials.RedditClientID
	}
	if override.Credentials.RedditClientSecret != "" {
		base.Credentials.RedditClientSecret = override.Credentials.RedditClientSecret
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	n := override.Newsletter
	if n.APIURL != "" {
		base.Newsletter.APIURL = n.APIURL
	}
	if n.ProjectID != "" {
		base.Newsletter.ProjectID = n.ProjectID
	}
	if n.APIKey != "" {
		base.Newsletter.APIKey = n.APIKey
	}
	if n.Title != "" {
		base.Newsletter.Title = n.Title
	}
	if n.TipsPerIssue > 0 {
		base.Newsletter.TipsPerIssue = n.TipsPerIssue
	}
	if n.MinTips > 0 {
		base.Newsletter.MinTips = n.MinTips
	}
	if n.SubjectTemplate != "" {
		base.Newsletter.SubjectTemplate = n.SubjectTemplate
	}
	if n.PreviewPath != "" {
		base.Newsletter.PreviewPath = n.PreviewPath
	}
	if n.DraftPath != "" {
		base.Newsletter.DraftPath = n.DraftPath
	}
	if n.DryRun {
		base.Newsletter.DryRun = true
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func mergeProvider(base, override ProviderConfig) ProviderConfig {
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Corpus: CorpusConfig{
			Dir:           "tips",
			FooterMarker:  "<!-- END TIPS -->",
			BodyHashChars: 200,
		},
		Categories: []CategoryConfig{
			{
				Slug:     "orchestration",
				Name:     "Orchestration",
				Icon:     "🎭",
				Keywords: []string{"orchestrat", "parallel", "multi-agent", "coordinate", "pipeline"},
			},
			{
				Slug:     "context-management",
				Name:     "Context Management",
				Icon:     "📝",
				Keywords: []string{"context", "claude.md", "memory", "compact", "token"},
			},
			{
				Slug:     "workflow",
				Name:     "Workflow",
				Icon:     "⚡",
				Keywords: []string{"workflow", "shortcut", "resume", "flag", "tip", "trick"},
			},
			{
				Slug:     "subagents",
				Name:     "Subagents",
				Icon:     "🤖",
				Keywords: []string{"subagent", "sub-agent", "agent", "task tool"},
			},
			{
				Slug:     "tooling",
				Name:     "Tooling",
				Icon:     "🔧",
				Keywords: []string{"mcp", "hook", "plugin", "extension", "tool", "cli"},
			},
		},
		Classifier: ClassifierConfig{
			Provider:        ProviderAuto,
			DefaultCategory: "workflow",
			MinQuality:      7,
			SummaryChars:    300,
		},
		LLM: LLMConfig{
			Gemini: ProviderConfig{
				Model:   "gemini-2.0-flash",
				BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
			},
			OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
			Anthropic: ProviderConfig{Model: "claude-haiku-4-5"},
		},
		Sources: []SourceConfig{
			{
				Name:          "twitter",
				Scanner:       "twitter",
				Queries:       []string{"#ClaudeCode", "#ClaudeDev"},
				Accounts:      []string{"@anthropic", "@alexalbert__", "@AmandaAskell"},
				MinEngagement: 10,
				MaxAgeDays:    7,
				Limit:         50,
			},
			{
				Name:          "reddit",
				Scanner:       "reddit",
				Queries:       []string{"ClaudeAI"},
				Keywords:      []string{"claude code", "tip", "trick", "workflow", "how i"},
				MinEngagement: 20,
				MaxAgeDays:    7,
				Limit:         50,
				Options:       map[string]string{"rssFallback": "true"},
			},
		},
		Newsletter: NewsletterConfig{
			APIURL:          "https://waitlist.neurabytelabs.com",
			ProjectID:       "claudecodedaily",
			Title:           "Claude Code Daily",
			TipsPerIssue:    5,
			MinTips:         5,
			SubjectTemplate: "Claude Code Daily #{issue}: {count} Pro Tips This Week",
			PreviewPath:     filepath.Join("automation", "preview.html"),
			DraftPath:       filepath.Join("automation", "draft.json"),
		},
	}
}
