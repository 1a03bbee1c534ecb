package domain

import "time"

// Platform names the social network a candidate was scraped from.
type Platform string

const (
	PlatformTwitter Platform = "twitter"
	PlatformReddit  Platform = "reddit"
)

// Candidate is an unvalidated tip fetched from a platform. It lives for one run only.
type Candidate struct {
	Title       string
	Content     string
	Author      string
	URL         string
	Source      Platform
	Channel     string
	Engagement  int
	PublishedAt time.Time
}

// Verdict is the classifier output for a single candidate.
type Verdict struct {
	Candidate    Candidate
	Category     string
	DisplayTitle string
	Summary      string
	Quality      int
	Accepted     bool
}

// Attribution renders the "where did this come from" line used in the corpus and newsletter.
func (c Candidate) Attribution() string {
	switch c.Source {
	case PlatformTwitter:
		if c.Author != "" {
			return "Twitter @" + c.Author
		}
		return "Twitter"
	case PlatformReddit:
		label := "Reddit"
		if c.Channel != "" {
			label += " r/" + c.Channel
		}
		if c.Author != "" {
			label += " (u/" + c.Author + ")"
		}
		return label
	default:
		if c.Author != "" {
			return string(c.Source) + " " + c.Author
		}
		return string(c.Source)
	}
}

// Entry is a persisted corpus tip. Entries are append-only.
type Entry struct {
	Number    int
	Category  string
	Title     string
	Author    string
	Source    string
	Summary   string
	URL       string
	AddedAt   time.Time
	TitleHash string
	BodyHash  string
}

// Category is a configured tip category. The slug doubles as the markdown file name.
type Category struct {
	Slug     string
	Name     string
	Icon     string
	Keywords []string
}

// Index is the aggregate record stored next to the category files.
type Index struct {
	Categories  []CategoryCount `json:"categories"`
	TotalTips   int             `json:"totalTips"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// CategoryCount is one row of the index.
type CategoryCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Issue is a rendered newsletter ready for delivery.
type Issue struct {
	Number  int
	Subject string
	HTML    string
	Text    string
	Entries []Entry
}

// Stats mirrors the newsletter API statistics.
type Stats struct {
	TotalSubscribers     int
	ConfirmedSubscribers int
	PendingSubscribers   int
	TotalIssues          int
}
