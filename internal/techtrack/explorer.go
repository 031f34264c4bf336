package techtrack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/enrich/github"
	"github.com/colonyops/techtrack/internal/enrich/jobs"
)

// RepoSearcher finds candidate items and learning resources.
type RepoSearcher interface {
	SearchRepos(ctx context.Context, query, language string) ([]tech.Item, error)
	Resources(ctx context.Context, title string) ([]github.Resource, error)
}

// JobSearcher finds job listings.
type JobSearcher interface {
	Search(ctx context.Context, q jobs.Query) ([]jobs.Job, error)
}

// Exploration is the combined result of looking a technology up everywhere.
// A failed lookup leaves its slice empty and records the error message;
// the other lookup is unaffected.
type Exploration struct {
	Technology string      `json:"technology"`
	Repos      []tech.Item `json:"repos"`
	Jobs       []jobs.Job  `json:"jobs"`
	RepoError  string      `json:"repoError,omitempty"`
	JobError   string      `json:"jobError,omitempty"`
}

// Explorer runs enrichment lookups. It never touches the tracker; results
// enter the collection only through Tracker.Add or Tracker.ImportAll.
type Explorer struct {
	repos RepoSearcher
	jobs  JobSearcher
	log   zerolog.Logger
}

// NewExplorer creates an Explorer.
func NewExplorer(repos RepoSearcher, jobs JobSearcher, log zerolog.Logger) *Explorer {
	return &Explorer{
		repos: repos,
		jobs:  jobs,
		log:   logging.Component(log, "explorer"),
	}
}

// Repos searches for candidate items.
func (e *Explorer) Repos(ctx context.Context, query, language string) ([]tech.Item, error) {
	return e.repos.SearchRepos(ctx, query, language)
}

// Resources finds learning resources for an item.
func (e *Explorer) Resources(ctx context.Context, it tech.Item) ([]github.Resource, error) {
	return e.repos.Resources(ctx, it.Title)
}

// Jobs searches job listings.
func (e *Explorer) Jobs(ctx context.Context, q jobs.Query) ([]jobs.Job, error) {
	return e.jobs.Search(ctx, q)
}

// All runs the repository and job lookups for technology concurrently.
// Lookups are best-effort: individual failures are logged and reported in
// the result, and an error is returned only when both fail.
func (e *Explorer) All(ctx context.Context, technology string) (Exploration, error) {
	out := Exploration{
		Technology: technology,
		Repos:      []tech.Item{},
		Jobs:       []jobs.Job{},
	}

	var g errgroup.Group

	g.Go(func() error {
		items, err := e.repos.SearchRepos(ctx, technology, "")
		if err != nil {
			e.log.Warn().Err(err).Str("technology", technology).Msg("repository lookup failed")
			out.RepoError = err.Error()
			return nil
		}
		out.Repos = items
		return nil
	})

	g.Go(func() error {
		found, err := e.jobs.Search(ctx, jobs.Query{Technology: technology})
		if err != nil {
			e.log.Warn().Err(err).Str("technology", technology).Msg("job lookup failed")
			out.JobError = err.Error()
			return nil
		}
		out.Jobs = found
		return nil
	})

	_ = g.Wait()

	if out.RepoError != "" && out.JobError != "" {
		return out, fmt.Errorf("explore %q: repositories: %s; jobs: %s", technology, out.RepoError, out.JobError)
	}
	return out, nil
}

// CandidateFields returns the fields used to add a candidate to the
// collection. The candidate's id and enrichment-only keys are dropped.
func CandidateFields(it tech.Item) tech.NewItem {
	return tech.NewItem{
		Title:       it.Title,
		Description: it.Description,
		Category:    it.Category,
		Difficulty:  it.Difficulty,
		Resources:   it.Resources,
		Language:    it.Language,
		Stars:       it.Stars,
	}
}
