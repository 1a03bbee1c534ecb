package newsletter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"TipCurator/internal/domain"
)

// Draft is an issue saved for later review instead of being sent.
type Draft struct {
	IssueNumber int        `json:"issue_number"`
	Subject     string     `json:"subject"`
	CreatedAt   time.Time  `json:"created_at"`
	Tips        []DraftTip `json:"tips"`
}

// DraftTip is one selected entry in a draft.
type DraftTip struct {
	Number   int    `json:"number"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// NewDraft captures the issue content with icons resolved through the renderer.
func NewDraft(issue domain.Issue, icons func(string) string, createdAt time.Time) Draft {
	d := Draft{
		IssueNumber: issue.Number,
		Subject:     issue.Subject,
		CreatedAt:   createdAt.UTC(),
		Tips:        make([]DraftTip, 0, len(issue.Entries)),
	}
	for _, e := range issue.Entries {
		var icon string
		if icons != nil {
			icon = icons(e.Category)
		}
		d.Tips = append(d.Tips, DraftTip{
			Number:   e.Number,
			Category: e.Category,
			Icon:     icon,
			Title:    e.Title,
			Source:   e.Source,
			Summary:  e.Summary,
			URL:      e.URL,
		})
	}
	return d
}

// SaveDraft writes the draft as indented JSON.
func SaveDraft(path string, d Draft) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

// SavePreview writes the rendered HTML for a dry run.
func SavePreview(path string, issue domain.Issue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(issue.HTML), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}
