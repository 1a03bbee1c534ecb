package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"TipCurator/internal/domain"
	"TipCurator/internal/scanner"
)

const (
	redditTokenURL     = "https://www.reddit.com/api/v1/access_token"
	redditAPIBaseURL   = "https://oauth.reddit.com"
	redditPublicURL    = "https://www.reddit.com"
	redditUserAgent    = "TipCurator/1.0"
	redditDefaultLimit = 25
)

// RedditScanner reads the weekly top listing of each configured subreddit.
// With client credentials it uses the OAuth API; otherwise it can fall back to
// the public RSS feed, which carries no score.
type RedditScanner struct {
	client       *http.Client
	clientID     string
	clientSecret string
	tokenURL     string
	apiBaseURL   string
	publicURL    string
	logger       *slog.Logger
}

// NewRedditScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewRedditScanner(clientID, clientSecret string, client *http.Client, log *slog.Logger) *RedditScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RedditScanner{
		client:       withUserAgent(client, redditUserAgent),
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     redditTokenURL,
		apiBaseURL:   redditAPIBaseURL,
		publicURL:    redditPublicURL,
		logger:       log,
	}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

// Scan walks through each subreddit of the request. A failing subreddit is
// logged and skipped; the scan fails only when every subreddit failed.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if len(req.Queries) == 0 {
		return nil, fmt.Errorf("no subreddits provided for source %s", req.SourceName)
	}

	fetch := r.fetchListing
	if r.clientID == "" || r.clientSecret == "" {
		if !rssFallbackEnabled(req) {
			return nil, fmt.Errorf("reddit: %w", scanner.ErrMissingCredentials)
		}
		fetch = r.fetchFeed
	}

	var (
		results  []domain.Candidate
		failures []error
		scanned  int
	)
	for _, sub := range req.Queries {
		sub = strings.TrimPrefix(strings.TrimSpace(sub), "r/")
		if sub == "" {
			continue
		}
		scanned++
		posts, err := fetch(ctx, sub, req)
		if err != nil {
			failures = append(failures, fmt.Errorf("subreddit %s: %w", sub, err))
			if r.logger != nil {
				r.logger.Warn("subreddit skipped", "source", req.SourceName, "subreddit", sub, "error", err)
			}
			continue
		}
		results = append(results, posts...)
	}

	if scanned > 0 && len(failures) == scanned {
		return nil, errors.Join(failures...)
	}
	return results, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	Author       string  `json:"author"`
	Permalink    string  `json:"permalink"`
	URL          string  `json:"url"`
	Score        int     `json:"score"`
	CreatedUTC   float64 `json:"created_utc"`
	Stickied     bool    `json:"stickied"`
	Over18       bool    `json:"over_18"`
	Subreddit    string  `json:"subreddit"`
}

func (r *RedditScanner) fetchListing(ctx context.Context, sub string, req scanner.Request) ([]domain.Candidate, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = redditDefaultLimit
	}
	endpoint := fmt.Sprintf("%s/r/%s/top?t=week&raw_json=1&limit=%s",
		strings.TrimRight(r.apiBaseURL, "/"), url.PathEscape(sub), strconv.Itoa(limit))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.oauthClient(ctx).Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("reddit returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	var results []domain.Candidate
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied || post.Over18 || post.Score < req.MinEngagement {
			continue
		}
		publishedAt := time.Unix(int64(post.CreatedUTC), 0).UTC()
		if !req.Fresh(publishedAt) {
			continue
		}

		content := strings.TrimSpace(post.Selftext)
		if content == "" && post.SelftextHTML != "" {
			content = htmlToText(post.SelftextHTML)
		}
		if content == "" {
			content = post.URL
		}
		if !req.MatchesKeywords(post.Title + " " + content) {
			continue
		}

		channel := post.Subreddit
		if channel == "" {
			channel = sub
		}
		results = append(results, domain.Candidate{
			Title:       strings.TrimSpace(post.Title),
			Content:     content,
			Author:      post.Author,
			URL:         strings.TrimRight(r.publicURL, "/") + post.Permalink,
			Source:      domain.PlatformReddit,
			Channel:     channel,
			Engagement:  post.Score,
			PublishedAt: publishedAt,
		})
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

func (r *RedditScanner) fetchFeed(ctx context.Context, sub string, req scanner.Request) ([]domain.Candidate, error) {
	endpoint := fmt.Sprintf("%s/r/%s/top/.rss?t=week", strings.TrimRight(r.publicURL, "/"), url.PathEscape(sub))

	fp := gofeed.NewParser()
	fp.Client = r.client
	feed, err := fp.ParseURLWithContext(endpoint, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = redditDefaultLimit
	}

	var results []domain.Candidate
	for _, item := range feed.Items {
		publishedAt := feedItemTime(item)
		if !req.Fresh(publishedAt) {
			continue
		}

		content := htmlToText(item.Content)
		if content == "" {
			content = htmlToText(item.Description)
		}
		if !req.MatchesKeywords(item.Title + " " + content) {
			continue
		}

		var author string
		if item.Author != nil {
			author = strings.TrimPrefix(strings.TrimSpace(item.Author.Name), "/u/")
		}
		results = append(results, domain.Candidate{
			Title:       strings.TrimSpace(item.Title),
			Content:     content,
			Author:      author,
			URL:         item.Link,
			Source:      domain.PlatformReddit,
			Channel:     sub,
			PublishedAt: publishedAt,
		})
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

func (r *RedditScanner) oauthClient(ctx context.Context) *http.Client {
	cfg := clientcredentials.Config{
		ClientID:     r.clientID,
		ClientSecret: r.clientSecret,
		TokenURL:     r.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	client := cfg.Client(context.WithValue(ctx, oauth2.HTTPClient, r.client))
	client.Timeout = r.client.Timeout
	return client
}

func rssFallbackEnabled(req scanner.Request) bool {
	enabled, err := strconv.ParseBool(req.Option("rssFallback", "false"))
	return err == nil && enabled
}

func feedItemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	default:
		return time.Time{}
	}
}

// htmlToText strips markup and collapses whitespace line by line.
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, pre").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

func withUserAgent(client *http.Client, userAgent string) *http.Client {
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &userAgentTransport{base: base, userAgent: userAgent}
	return &wrapped
}
