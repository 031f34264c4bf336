// Package github searches public repositories and turns them into candidate
// items that can be added to the tracker.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/kv"
	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/core/tech"
)

const (
	cacheNamespace = "github"

	// DefaultQuery is searched when the caller gives no keywords.
	DefaultQuery = "topic:javascript react node"
	// NoDescription replaces blank repository descriptions.
	NoDescription = "No description"

	resourcesPerPage = 3
	userAgent        = "techtrack"
)

// ErrRateLimited is returned when GitHub refuses a request because the
// caller has used up its quota.
var ErrRateLimited = errors.New("github: rate limit exceeded")

// Repository is the subset of the search API's repository object we use.
type Repository struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	HTMLURL         string `json:"html_url"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	UpdatedAt       string `json:"updated_at"`
}

type searchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}

// Resource is a learning resource found for an existing item.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Stars       int    `json:"stars"`
}

// Client talks to the GitHub search API. Results are cached in the KV store
// when one is configured.
type Client struct {
	cfg    config.GitHubConfig
	http   *http.Client
	cache  *kv.TypedKV[[]Repository]
	policy *bluemonday.Policy
	log    zerolog.Logger
}

// New creates a client. store may be nil to disable caching.
func New(cfg config.GitHubConfig, store kv.KV, log zerolog.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		policy: bluemonday.StrictPolicy(),
		log:    logging.Component(log, "github"),
	}
	if store != nil && cfg.CacheTTL > 0 {
		c.cache = kv.Scoped[[]Repository](store, cacheNamespace)
	}
	return c
}

// SearchRepos finds repositories matching query, most starred first, and
// maps each to a candidate item. An empty query searches DefaultQuery;
// otherwise the configured language qualifier is appended.
func (c *Client) SearchRepos(ctx context.Context, query, language string) ([]tech.Item, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		q = DefaultQuery
	} else {
		if language == "" {
			language = c.cfg.Language
		}
		if language != "" {
			q += " language:" + language
		}
	}

	repos, err := c.search(ctx, q, c.cfg.PerPage)
	if err != nil {
		return nil, err
	}

	items := make([]tech.Item, 0, len(repos))
	for _, r := range repos {
		items = append(items, c.Candidate(r))
	}
	return items, nil
}

// Resources looks up documentation and tutorial repositories for title.
func (c *Client) Resources(ctx context.Context, title string) ([]Resource, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return []Resource{}, nil
	}

	repos, err := c.search(ctx, title+" documentation tutorial", resourcesPerPage)
	if err != nil {
		return nil, err
	}

	out := make([]Resource, 0, len(repos))
	for _, r := range repos {
		out = append(out, Resource{
			Title:       r.Name,
			URL:         r.HTMLURL,
			Description: c.sanitize(r.Description),
			Type:        "github",
			Stars:       r.StargazersCount,
		})
	}
	return out, nil
}

// Candidate converts a repository into an item ready to be added.
func (c *Client) Candidate(r Repository) tech.Item {
	desc := c.sanitize(r.Description)
	if desc == "" {
		desc = NoDescription
	}

	it := tech.Item{
		ID:          tech.ID("api-" + strconv.FormatInt(r.ID, 10)),
		Title:       r.Name,
		Description: desc,
		Category:    CategoryForLanguage(r.Language),
		Difficulty:  DifficultyForStars(r.StargazersCount),
		Status:      tech.StatusNotStarted,
		Notes:       []tech.Note{},
		Language:    r.Language,
		Stars:       r.StargazersCount,
		Extra: map[string]json.RawMessage{
			"forks":     rawJSON(r.ForksCount),
			"isFromApi": rawJSON(true),
			"apiSource": rawJSON("GitHub"),
		},
	}
	if r.HTMLURL != "" {
		it.Resources = []string{r.HTMLURL}
	}
	if r.UpdatedAt != "" {
		it.Extra["lastUpdated"] = rawJSON(r.UpdatedAt)
	}
	return it
}

func rawJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

// sanitize strips markup from text returned by the API.
func (c *Client) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}

var languageCategories = map[string]string{
	"JavaScript": "Frontend",
	"HTML":       "Frontend",
	"CSS":        "Frontend",
	"Vue":        "Frontend",
	"Angular":    "Frontend",
	"Python":     "Backend",
	"Java":       "Backend",
	"Go":         "Backend",
	"TypeScript": "Language",
	"Rust":       "Language",
	"C++":        "Language",
}

// CategoryForLanguage maps a repository language to an item category.
func CategoryForLanguage(language string) string {
	if c, ok := languageCategories[language]; ok {
		return c
	}
	return tech.DefaultCategory
}

// DifficultyForStars guesses difficulty from popularity: widely starred
// projects tend to have more learning material.
func DifficultyForStars(stars int) tech.Difficulty {
	switch {
	case stars >= 50_000:
		return tech.DifficultyBeginner
	case stars >= 5_000:
		return tech.DifficultyIntermediate
	default:
		return tech.DifficultyAdvanced
	}
}

func (c *Client) search(ctx context.Context, q string, perPage int) ([]Repository, error) {
	key := fmt.Sprintf("search:%d:%s", perPage, q)

	if c.cache != nil {
		cached, ok, err := c.cache.Lookup(ctx, key)
		if err != nil {
			c.log.Debug().Err(err).Msg("read search cache")
		}
		if ok {
			c.log.Debug().Str("q", q).Msg("search cache hit")
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("sort", "stars")
	params.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, "/search/repositories?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if resp.Items == nil {
		resp.Items = []Repository{}
	}

	if c.cache != nil {
		if err := c.cache.SetTTL(ctx, key, resp.Items, c.cfg.CacheTTL); err != nil {
			c.log.Debug().Err(err).Msg("write search cache")
		}
	}

	return resp.Items, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.APIURL, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close search response body")
		}
	}()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("search repositories")

	switch {
	case isRateLimited(resp):
		return nil, fmt.Errorf("search repositories: %w", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("search repositories: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	return body, nil
}

func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}
