package waitlist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TipCurator/internal/domain"
	"TipCurator/internal/ports"
)

// ErrAPI marks a response the newsletter service reported as failed.
var ErrAPI = errors.New("newsletter api error")

// Client talks to the hosted newsletter service of one project.
type Client struct {
	baseURL   string
	projectID string
	apiKey    string
	http      *http.Client
}

var _ ports.NewsletterAPI = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(baseURL, projectID, apiKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type statsResponse struct {
	envelope
	Data struct {
		Subscribers struct {
			Total     int `json:"total"`
			Confirmed int `json:"confirmed"`
			Pending   int `json:"pending"`
		} `json:"subscribers"`
		Issues struct {
			TotalIssues int `json:"total_issues"`
		} `json:"issues"`
	} `json:"data"`
}

// Stats returns subscriber and issue counters.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var resp statsResponse
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &resp); err != nil {
		return domain.Stats{}, err
	}
	if err := resp.check(); err != nil {
		return domain.Stats{}, err
	}

	return domain.Stats{
		TotalSubscribers:     resp.Data.Subscribers.Total,
		ConfirmedSubscribers: resp.Data.Subscribers.Confirmed,
		PendingSubscribers:   resp.Data.Subscribers.Pending,
		TotalIssues:          resp.Data.Issues.TotalIssues,
	}, nil
}

type createResponse struct {
	envelope
	ID    json.RawMessage `json:"id"`
	Issue struct {
		ID json.RawMessage `json:"id"`
	} `json:"issue"`
}

// CreateIssue stores a new issue and returns its identifier.
func (c *Client) CreateIssue(ctx context.Context, subject, html, text string) (string, error) {
	payload := map[string]any{
		"subject":      subject,
		"html_content": html,
		"text_content": text,
	}

	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/issues", payload, &resp); err != nil {
		return "", err
	}
	if err := resp.check(); err != nil {
		return "", err
	}

	raw := resp.Issue.ID
	if len(raw) == 0 {
		raw = resp.ID
	}
	id, err := parseID(raw)
	if err != nil {
		return "", fmt.Errorf("%w: create issue: %v", ErrAPI, err)
	}
	return id, nil
}

type sendResponse struct {
	envelope
	RecipientCount int `json:"recipientCount"`
}

// SendIssue triggers delivery and returns the number of recipients.
func (c *Client) SendIssue(ctx context.Context, issueID string) (int, error) {
	var resp sendResponse
	path := "/issues/" + url.PathEscape(issueID) + "/send"
	if err := c.do(ctx, http.MethodPost, path, map[string]any{}, &resp); err != nil {
		return 0, err
	}
	if err := resp.check(); err != nil {
		return 0, err
	}
	return resp.RecipientCount, nil
}

func (e envelope) check() error {
	if e.Success {
		return nil
	}
	if e.Error != "" {
		return fmt.Errorf("%w: %s", ErrAPI, e.Error)
	}
	return fmt.Errorf("%w: request was not successful", ErrAPI)
}

func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("response has no issue id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", errors.New("response has an empty issue id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}
	return "", fmt.Errorf("unexpected issue id %s", string(raw))
}

func (c *Client) do(ctx context.Context, method, path string, payload any, v any) error {
	endpoint := fmt.Sprintf("%s/api/%s/newsletter%s", c.baseURL, url.PathEscape(c.projectID), path)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure envelope
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("%w: unexpected status %s: %s", ErrAPI, resp.Status, failure.Error)
		}
		return fmt.Errorf("%w: unexpected status %s", ErrAPI, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
