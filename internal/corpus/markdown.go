package corpus

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"TipCurator/internal/domain"
)

const (
	addedLayout   = "2006-01-02"
	entrySep      = "---"
	sourcePrefix  = "**Source:**"
	addedPrefix   = "**Added:**"
	linkPrefix    = "**Link:**"
	headingPrefix = "## "
)

var headingExpr = regexp.MustCompile(`^## (\d+)\. (.+)$`)

// RenderEntry renders one corpus entry in the category file format.
func RenderEntry(e domain.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %d. %s\n\n", e.Number, strings.Join(strings.Fields(e.Title), " "))
	fmt.Fprintf(&sb, "%s %s\n", sourcePrefix, e.Source)
	fmt.Fprintf(&sb, "%s %s\n\n", addedPrefix, e.AddedAt.Format(addedLayout))
	if summary := strings.TrimSpace(e.Summary); summary != "" {
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "%s %s\n\n", linkPrefix, e.URL)
	sb.WriteString(entrySep)
	sb.WriteString("\n")
	return sb.String()
}

// CategoryHeader is the first line of a freshly created category file.
func CategoryHeader(c domain.Category) string {
	return fmt.Sprintf("# %s\n\n", c.Name)
}

// InsertEntry places block before the footer marker when present, else appends it.
func InsertEntry(content, block, footer string) string {
	if footer != "" {
		if idx := strings.Index(content, footer); idx >= 0 {
			head := content[:idx]
			if head != "" && !strings.HasSuffix(head, "\n\n") {
				head = strings.TrimRight(head, "\n") + "\n\n"
			}
			return head + block + "\n" + content[idx:]
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n\n") {
		content = strings.TrimRight(content, "\n") + "\n\n"
	}
	return content + block
}

// ParseMarkdown reads entries back from a category file. It is lenient:
// anything that is not a numbered heading or a known field becomes summary text.
func ParseMarkdown(r io.Reader, category string) ([]domain.Entry, error) {
	var (
		entries []domain.Entry
		current *domain.Entry
		summary []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
		entries = append(entries, *current)
		current = nil
		summary = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		trimmed := strings.TrimSpace(line)

		if m := headingExpr.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("parse tip number %q: %w", m[1], err)
			}
			current = &domain.Entry{Number: number, Category: category, Title: strings.TrimSpace(m[2])}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case trimmed == entrySep:
			flush()
		case strings.HasPrefix(trimmed, headingPrefix), strings.HasPrefix(trimmed, "<!--"):
			flush()
		case strings.HasPrefix(trimmed, sourcePrefix):
			current.Source = strings.TrimSpace(strings.TrimPrefix(trimmed, sourcePrefix))
			current.Author = authorFromSource(current.Source)
		case strings.HasPrefix(trimmed, addedPrefix):
			raw := strings.TrimSpace(strings.TrimPrefix(trimmed, addedPrefix))
			if added, err := time.Parse(addedLayout, raw); err == nil {
				current.AddedAt = added
			}
		case strings.HasPrefix(trimmed, linkPrefix):
			current.URL = strings.TrimSpace(strings.TrimPrefix(trimmed, linkPrefix))
		default:
			summary = append(summary, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	flush()

	return entries, nil
}

// authorFromSource recovers the handle from attribution lines such as
// "Twitter @dev" or "Reddit r/ClaudeAI (u/dev)".
func authorFromSource(source string) string {
	if start := strings.Index(source, "(u/"); start >= 0 {
		rest := source[start+3:]
		if end := strings.Index(rest, ")"); end >= 0 {
			return rest[:end]
		}
	}
	if at := strings.LastIndex(source, "@"); at >= 0 {
		if fields := strings.Fields(source[at+1:]); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}
