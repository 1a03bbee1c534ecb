package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(dryRunEnv, "")

	cfg := Load()
	if cfg.Corpus.Dir != "tips" || cfg.Corpus.FooterMarker != "<!-- END TIPS -->" {
		t.Fatalf("unexpected corpus defaults %+v", cfg.Corpus)
	}
	if len(cfg.Categories) != 5 || cfg.Categories[0].Slug != "orchestration" {
		t.Fatalf("unexpected categories %+v", cfg.Categories)
	}
	if cfg.Classifier.MinQuality != 7 || cfg.Classifier.Provider != ProviderAuto {
		t.Fatalf("unexpected classifier defaults %+v", cfg.Classifier)
	}
	if cfg.Newsletter.TipsPerIssue != 5 || cfg.Newsletter.DryRun {
		t.Fatalf("unexpected newsletter defaults %+v", cfg.Newsletter)
	}
	if cfg.Corpus.IndexPath() != filepath.Join("tips", "index.json") {
		t.Fatalf("unexpected index path %s", cfg.Corpus.IndexPath())
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
corpus:
  dir: /srv/tips
categories:
  - slug: prompts
    name: Prompts
    icon: "✍️"
    keywords: [prompt]
classifier:
  minQuality: 8
newsletter:
  tipsPerIssue: 8
  subjectTemplate: "Daily #{issue}: {count} Real Use Cases"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(tipsDirEnv, "/override/tips")
	t.Setenv(dryRunEnv, "true")
	t.Setenv(geminiAPIKeyEnv, "g-key")
	t.Setenv(classifierProviderEnv, " Keyword ")

	cfg := Load()
	if cfg.Corpus.Dir != "/override/tips" {
		t.Fatalf("env should win over file, got %s", cfg.Corpus.Dir)
	}
	if len(cfg.Categories) != 1 || cfg.Categories[0].Slug != "prompts" {
		t.Fatalf("file categories should replace defaults, got %+v", cfg.Categories)
	}
	if cfg.Classifier.MinQuality != 8 || cfg.Classifier.DefaultCategory != "workflow" {
		t.Fatalf("unexpected classifier %+v", cfg.Classifier)
	}
	if cfg.Classifier.Provider != ProviderKeyword {
		t.Fatalf("provider env not normalized: %q", cfg.Classifier.Provider)
	}
	if cfg.Newsletter.TipsPerIssue != 8 || cfg.Newsletter.MinTips != 5 || !cfg.Newsletter.DryRun {
		t.Fatalf("unexpected newsletter %+v", cfg.Newsletter)
	}
	if cfg.LLM.Gemini.APIKey != "g-key" || cfg.LLM.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected gemini config %+v", cfg.LLM.Gemini)
	}

	domainCats := cfg.DomainCategories()
	if domainCats[0].Icon != "✍️" || domainCats[0].Keywords[0] != "prompt" {
		t.Fatalf("unexpected domain categories %+v", domainCats)
	}
}

func TestLoadIgnoresInvalidDryRun(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(dryRunEnv, "maybe")

	if Load().Newsletter.DryRun {
		t.Fatalf("invalid DRY_RUN must not enable dry run")
	}
}
