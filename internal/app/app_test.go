package app

import (
	"bytes"
	"log/slog"
	"testing"

	"TipCurator/internal/config"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Classifier = config.ClassifierConfig{Provider: config.ProviderAuto, DefaultCategory: "workflow", MinQuality: 7, SummaryChars: 300}
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestBuildClassifierSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "no keys", mutate: func(*config.Config) {}, want: "keyword"},
		{name: "gemini first", mutate: func(c *config.Config) {
			c.LLM.Gemini.APIKey = "g"
			c.LLM.OpenAI.APIKey = "o"
		}, want: "gemini"},
		{name: "openai next", mutate: func(c *config.Config) {
			c.LLM.OpenAI.APIKey = "o"
			c.LLM.Anthropic.APIKey = "a"
		}, want: "openai"},
		{name: "anthropic last", mutate: func(c *config.Config) { c.LLM.Anthropic.APIKey = "a" }, want: "anthropic"},
		{name: "forced keyword", mutate: func(c *config.Config) {
			c.Classifier.Provider = config.ProviderKeyword
			c.LLM.Gemini.APIKey = "g"
		}, want: "keyword"},
		{name: "forced provider without key", mutate: func(c *config.Config) {
			c.Classifier.Provider = config.ProviderAnthropic
			c.LLM.Gemini.APIKey = "g"
		}, want: "keyword"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tc.mutate(&cfg)
			got := buildClassifier(cfg, cfg.DomainCategories(), quietLogger())
			if got.Name() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.Name())
			}
		})
	}
}
