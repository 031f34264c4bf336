// Package stats derives aggregate progress figures from a snapshot of
// tracked technologies. Nothing is cached; every call recomputes from the
// items it is given.
package stats

import (
	"math"
	"sort"

	"github.com/colonyops/techtrack/internal/core/tech"
)

// Category is the per-category breakdown.
type Category struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Progress  int    `json:"progress"`
}

// Stats is the aggregated view of a collection.
type Stats struct {
	TotalTechnologies      int        `json:"totalTechnologies"`
	CompletedTechnologies  int        `json:"completedTechnologies"`
	InProgressTechnologies int        `json:"inProgressTechnologies"`
	NotStartedTechnologies int        `json:"notStartedTechnologies"`
	TotalNotes             int        `json:"totalNotes"`
	CompletedNotes         int        `json:"completedNotes"`
	ProgressPercent        int        `json:"progressPercent"`
	Categories             []Category `json:"categories"`
}

// Compute aggregates items. Statuses outside the known set count toward the
// total only.
func Compute(items []tech.Item) Stats {
	s := Stats{
		TotalTechnologies: len(items),
		Categories:        []Category{},
	}

	byCategory := map[string]*Category{}

	for _, it := range items {
		switch it.Status {
		case tech.StatusCompleted:
			s.CompletedTechnologies++
		case tech.StatusInProgress:
			s.InProgressTechnologies++
		case tech.StatusNotStarted:
			s.NotStartedTechnologies++
		}

		s.TotalNotes += len(it.Notes)
		s.CompletedNotes += it.CompletedNotes()

		label := it.CategoryLabel()
		c, ok := byCategory[label]
		if !ok {
			c = &Category{Category: label}
			byCategory[label] = c
		}
		c.Total++
		if it.Status == tech.StatusCompleted {
			c.Completed++
		}
	}

	s.ProgressPercent = Percent(s.CompletedTechnologies, s.TotalTechnologies)

	for _, c := range byCategory {
		c.Progress = Percent(c.Completed, c.Total)
		s.Categories = append(s.Categories, *c)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return s.Categories[i].Category < s.Categories[j].Category
	})

	return s
}

// Percent returns round(100 * part / whole), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
