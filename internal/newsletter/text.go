package newsletter

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText derives the text/plain alternative from the rendered HTML.
// Links keep their target in brackets so the text part stays usable.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse rendered issue: %w", err)
	}

	body := doc.Find("body")
	body.Find("a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			a.AppendHtml(" [" + href + "]")
		}
	})
	body.Find("br").ReplaceWithHtml("\n")
	body.Find("h1, h2, p, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var (
		lines []string
		blank bool
	)
	for _, line := range strings.Split(body.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(lines) > 0 && !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n", nil
}
