// Package jobs looks up job listings that mention a technology, using The
// Muse public API.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/logging"
)

// Experience levels accepted by the API.
const (
	LevelInternship = "Internship"
	LevelEntry      = "Entry Level"
	LevelMid        = "Mid Level"
	LevelSenior     = "Senior Level"
)

// Levels lists every experience level filter.
var Levels = []string{LevelInternship, LevelEntry, LevelMid, LevelSenior}

// PopularLocations are suggested values for the location filter.
var PopularLocations = []string{
	"New York, NY",
	"San Francisco, CA",
	"London, UK",
	"Berlin, Germany",
	"Remote",
}

const summaryLength = 200

// Job is a single listing.
type Job struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Company     string   `json:"company"`
	Locations   []string `json:"locations"`
	Levels      []string `json:"levels"`
	Tags        []string `json:"tags,omitempty"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"publishedAt"`
	Summary     string   `json:"summary"`
}

type named struct {
	Name string `json:"name"`
}

type museJob struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Contents        string  `json:"contents"`
	PublicationDate string  `json:"publication_date"`
	Locations       []named `json:"locations"`
	Levels          []named `json:"levels"`
	Tags            []named `json:"tags"`
	Company         named   `json:"company"`
	Refs            struct {
		LandingPage string `json:"landing_page"`
	} `json:"refs"`
}

type museResponse struct {
	Page      int       `json:"page"`
	PageCount int       `json:"page_count"`
	Results   []museJob `json:"results"`
}

// Query describes a job search.
type Query struct {
	Technology string
	Location   string
	Level      string
}

// Client queries the jobs API.
type Client struct {
	cfg    config.JobsConfig
	http   *http.Client
	policy *bluemonday.Policy
	log    zerolog.Logger
}

// New creates a client.
func New(cfg config.JobsConfig, log zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		policy: bluemonday.StrictPolicy(),
		log:    logging.Component(log, "jobs"),
	}
}

var displayQueries = map[string]string{
	"react":      "React",
	"vue":        "Vue",
	"angular":    "Angular",
	"node":       "Node.js",
	"express":    "Express",
	"typescript": "TypeScript",
	"javascript": "JavaScript",
	"python":     "Python",
	"django":     "Django",
	"flask":      "Flask",
	"java":       "Java",
	"spring":     "Spring",
	"go":         "Go",
	"golang":     "Go",
	"rust":       "Rust",
	"php":        "PHP",
	"laravel":    "Laravel",
	"ruby":       "Ruby",
	"rails":      "Rails",
	"sql":        "SQL",
	"mongodb":    "MongoDB",
	"postgresql": "PostgreSQL",
	"docker":     "Docker",
	"kubernetes": "Kubernetes",
	"aws":        "AWS",
	"azure":      "Azure",
}

const (
	categorySoftware = "Software Engineering"
	categoryData     = "Data & Analytics"
)

var jobCategories = map[string]string{
	"react":      categorySoftware,
	"vue":        categorySoftware,
	"angular":    categorySoftware,
	"node":       categorySoftware,
	"typescript": categorySoftware,
	"javascript": categorySoftware,
	"python":     categorySoftware,
	"java":       categorySoftware,
	"go":         categorySoftware,
	"rust":       categorySoftware,
	"php":        categorySoftware,
	"ruby":       categorySoftware,
	"docker":     categorySoftware,
	"kubernetes": categorySoftware,
	"aws":        categorySoftware,
	"azure":      categorySoftware,
	"sql":        categoryData,
	"mongodb":    categoryData,
	"postgresql": categoryData,
}

// DisplayQuery maps a technology keyword to the term matched against
// listings. Unknown keywords are used as given.
func DisplayQuery(technology string) string {
	if q, ok := displayQueries[strings.ToLower(strings.TrimSpace(technology))]; ok {
		return q
	}
	return strings.TrimSpace(technology)
}

// Category maps a technology keyword to a job category, or "" when there is
// no mapping.
func Category(technology string) string {
	return jobCategories[strings.ToLower(strings.TrimSpace(technology))]
}

// ValidLevel reports whether level is empty or a known experience level.
func ValidLevel(level string) bool {
	if level == "" {
		return true
	}
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Search returns up to the configured limit of listings mentioning the
// technology in their name, contents, or tags.
func (c *Client) Search(ctx context.Context, q Query) ([]Job, error) {
	if strings.TrimSpace(q.Technology) == "" {
		return nil, fmt.Errorf("search jobs: technology is required")
	}
	if !ValidLevel(q.Level) {
		return nil, fmt.Errorf("search jobs: unknown level %q", q.Level)
	}

	params := url.Values{}
	params.Set("page", "0")
	params.Set("descending", "true")
	if cat := Category(q.Technology); cat != "" {
		params.Set("category", cat)
	}
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Level != "" {
		params.Set("level", q.Level)
	}

	body, err := c.get(ctx, "/jobs?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp museResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode jobs response: %w", err)
	}

	needle := strings.ToLower(DisplayQuery(q.Technology))
	out := []Job{}
	for _, mj := range resp.Results {
		if c.cfg.Limit > 0 && len(out) >= c.cfg.Limit {
			break
		}
		if !mentions(mj, needle) {
			continue
		}
		out = append(out, c.convert(mj))
	}

	c.log.Debug().
		Str("technology", q.Technology).
		Int("fetched", len(resp.Results)).
		Int("matched", len(out)).
		Msg("job search")

	return out, nil
}

func mentions(j museJob, needle string) bool {
	if strings.Contains(strings.ToLower(j.Name), needle) ||
		strings.Contains(strings.ToLower(j.Contents), needle) {
		return true
	}
	for _, t := range j.Tags {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			return true
		}
	}
	return false
}

func (c *Client) convert(mj museJob) Job {
	return Job{
		ID:          mj.ID,
		Name:        mj.Name,
		Company:     mj.Company.Name,
		Locations:   names(mj.Locations),
		Levels:      names(mj.Levels),
		Tags:        names(mj.Tags),
		URL:         mj.Refs.LandingPage,
		PublishedAt: mj.PublicationDate,
		Summary:     c.summarize(mj.Contents),
	}
}

func names(in []named) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.Name)
	}
	return out
}

// summarize strips markup and collapses the listing body to a short line.
func (c *Client) summarize(contents string) string {
	text := html.UnescapeString(c.policy.Sanitize(contents))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= summaryLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:summaryLength])) + "…"
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.APIURL, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "techtrack")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close jobs response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search jobs: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read jobs response: %w", err)
	}
	return body, nil
}
