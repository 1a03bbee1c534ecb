package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TipCurator/internal/domain"
	"TipCurator/internal/scanner"
)

const (
	twitterAPIBaseURL = "https://api.twitter.com"
	twitterTitleRunes = 120
	twitterMinResults = 10
	twitterMaxResults = 100
)

// TwitterScanner queries the v2 recent search endpoint with an app bearer token.
type TwitterScanner struct {
	client      *http.Client
	bearerToken string
	baseURL     string
}

// NewTwitterScanner wires an HTTP client; a nil client gets a 20s timeout.
func NewTwitterScanner(bearerToken string, client *http.Client) *TwitterScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TwitterScanner{client: client, bearerToken: bearerToken, baseURL: twitterAPIBaseURL}
}

// Name identifies the strategy inside the registry.
func (t *TwitterScanner) Name() string {
	return "twitter"
}

type tweetSearchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// Scan runs one search covering all hashtags and accounts of the request.
func (t *TwitterScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Candidate, error) {
	if strings.TrimSpace(t.bearerToken) == "" {
		return nil, fmt.Errorf("twitter: %w", scanner.ErrMissingCredentials)
	}

	query := buildTweetQuery(req.Queries, req.Accounts)
	if query == "" {
		return nil, fmt.Errorf("no queries or accounts provided for source %s", req.SourceName)
	}

	endpoint, err := t.searchURL(query, req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.bearerToken)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search tweets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("twitter returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed tweetSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	usernames := make(map[string]string, len(parsed.Includes.Users))
	for _, u := range parsed.Includes.Users {
		usernames[u.ID] = u.Username
	}

	var results []domain.Candidate
	for _, tweet := range parsed.Data {
		if tweet.PublicMetrics.LikeCount < req.MinEngagement || !req.Fresh(tweet.CreatedAt) {
			continue
		}
		username := usernames[tweet.AuthorID]
		results = append(results, domain.Candidate{
			Title:       scanner.FirstLine(tweet.Text, twitterTitleRunes),
			Content:     strings.TrimSpace(tweet.Text),
			Author:      username,
			URL:         tweetURL(username, tweet.ID),
			Source:      domain.PlatformTwitter,
			Engagement:  tweet.PublicMetrics.LikeCount,
			PublishedAt: tweet.CreatedAt,
		})
		if req.Limit > 0 && len(results) >= req.Limit {
			break
		}
	}

	return results, nil
}

func (t *TwitterScanner) searchURL(query string, req scanner.Request) (string, error) {
	u, err := url.Parse(strings.TrimRight(t.baseURL, "/") + "/2/tweets/search/recent")
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}

	maxResults := req.Limit
	if maxResults < twitterMinResults {
		maxResults = twitterMinResults
	}
	if maxResults > twitterMaxResults {
		maxResults = twitterMaxResults
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("tweet.fields", "public_metrics,created_at,author_id")
	q.Set("expansions", "author_id")
	q.Set("user.fields", "username")
	if since := req.Since(); !since.IsZero() {
		// recent search rejects a start_time older than seven days
		floor := req.Now.Add(-7*24*time.Hour + time.Minute)
		if since.Before(floor) {
			since = floor
		}
		q.Set("start_time", since.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func buildTweetQuery(hashtags, accounts []string) string {
	var terms []string
	for _, tag := range hashtags {
		if tag = strings.TrimSpace(tag); tag != "" {
			terms = append(terms, tag)
		}
	}
	for _, account := range accounts {
		if account = strings.TrimPrefix(strings.TrimSpace(account), "@"); account != "" {
			terms = append(terms, "from:"+account)
		}
	}
	if len(terms) == 0 {
		return ""
	}
	return "(" + strings.Join(terms, " OR ") + ") -is:retweet"
}

func tweetURL(username, id string) string {
	if username == "" {
		return "https://x.com/i/status/" + id
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", username, id)
}
