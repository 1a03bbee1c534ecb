package newsletter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"TipCurator/internal/domain"
)

//go:embed templates/issue.html.tmpl
var templatesFS embed.FS

// UnsubscribePlaceholder is substituted per recipient by the delivery service.
const UnsubscribePlaceholder = "{{unsubscribe_url}}"

const defaultIcon = "💡"

var inlineCode = regexp.MustCompile("`([^`\n]+)`")

// Renderer turns selected entries into the HTML and plain-text bodies of an issue.
type Renderer struct {
	title           string
	subjectTemplate string
	categories      map[string]domain.Category
	tmpl            *template.Template
	sanitizer       *bluemonday.Policy
}

// NewRenderer parses the embedded issue template.
func NewRenderer(title, subjectTemplate string, categories []domain.Category) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/issue.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse issue template: %w", err)
	}

	sanitizer := bluemonday.StrictPolicy()
	sanitizer.AllowElements("p", "br", "strong", "em", "code", "pre")
	sanitizer.AllowAttrs("href").OnElements("a")
	sanitizer.RequireParseableURLs(true)
	sanitizer.RequireNoFollowOnLinks(true)

	byslug := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		byslug[c.Slug] = c
	}

	return &Renderer{
		title:           title,
		subjectTemplate: subjectTemplate,
		categories:      byslug,
		tmpl:            tmpl,
		sanitizer:       sanitizer,
	}, nil
}

type issueView struct {
	Title       string
	Number      int
	Date        string
	Entries     []entryView
	Unsubscribe template.HTML
}

type entryView struct {
	Number   int
	Icon     string
	Category string
	Title    string
	Source   string
	Summary  template.HTML
	URL      string
}

// Render builds a complete issue.
func (r *Renderer) Render(number int, date time.Time, entries []domain.Entry) (domain.Issue, error) {
	view := issueView{
		Title:       r.title,
		Number:      number,
		Date:        date.Format("January 2, 2006"),
		Unsubscribe: template.HTML(`<a href="` + UnsubscribePlaceholder + `" style="color:#888888;">Unsubscribe</a>`),
	}
	for _, e := range entries {
		cat := r.category(e.Category)
		view.Entries = append(view.Entries, entryView{
			Number:   e.Number,
			Icon:     cat.Icon,
			Category: cat.Name,
			Title:    e.Title,
			Source:   e.Source,
			Summary:  r.summaryHTML(e.Summary),
			URL:      e.URL,
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return domain.Issue{}, fmt.Errorf("render issue: %w", err)
	}

	html := buf.String()
	text, err := PlainText(html)
	if err != nil {
		return domain.Issue{}, err
	}

	return domain.Issue{
		Number:  number,
		Subject: Subject(r.subjectTemplate, number, len(entries)),
		HTML:    html,
		Text:    text,
		Entries: entries,
	}, nil
}

// Icon returns the configured icon for a category slug.
func (r *Renderer) Icon(slug string) string {
	return r.category(slug).Icon
}

func (r *Renderer) category(slug string) domain.Category {
	cat, ok := r.categories[slug]
	if !ok {
		cat = domain.Category{Slug: slug, Name: slug}
	}
	if cat.Icon == "" {
		cat.Icon = defaultIcon
	}
	return cat
}

// summaryHTML sanitizes scraped text and keeps inline code and line breaks readable.
func (r *Renderer) summaryHTML(summary string) template.HTML {
	clean := r.sanitizer.Sanitize(strings.TrimSpace(summary))
	clean = inlineCode.ReplaceAllString(clean, "<code>$1</code>")
	clean = strings.ReplaceAll(clean, "\n", "<br>")
	return template.HTML(clean)
}

// Subject fills the {issue} and {count} placeholders.
func Subject(tmpl string, issue, count int) string {
	return strings.NewReplacer(
		"{issue}", strconv.Itoa(issue),
		"{count}", strconv.Itoa(count),
	).Replace(tmpl)
}
