package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/colonyops/techtrack/internal/core/stats"
	"github.com/colonyops/techtrack/internal/core/styles"
	"github.com/colonyops/techtrack/internal/core/tech"
)

const (
	renderWidth = 80
	barWidth    = 24
)

// itemMarkdown describes an item as a markdown document with its notes as a
// task list.
func itemMarkdown(it tech.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", it.Title)
	if it.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", it.Description)
	}

	fmt.Fprintf(&b, "- **ID:** `%s`\n", it.ID)
	fmt.Fprintf(&b, "- **Status:** %s\n", it.Status)
	fmt.Fprintf(&b, "- **Category:** %s\n", it.CategoryLabel())
	if it.Difficulty != "" {
		fmt.Fprintf(&b, "- **Difficulty:** %s\n", it.Difficulty)
	}
	if it.EstimatedHours > 0 {
		fmt.Fprintf(&b, "- **Estimated hours:** %s\n", humanize.FormatFloat("#,###.#", it.EstimatedHours))
	}
	if it.Language != "" {
		fmt.Fprintf(&b, "- **Language:** %s\n", it.Language)
	}
	if it.Stars > 0 {
		fmt.Fprintf(&b, "- **Stars:** %s %s\n", styles.IconStar, humanize.Comma(int64(it.Stars)))
	}

	writeList(&b, "Prerequisites", it.Prerequisites)
	writeList(&b, "Learning goals", it.LearningGoals)
	writeList(&b, "Resources", it.Resources)

	if len(it.Notes) > 0 {
		fmt.Fprintf(&b, "\n## Notes (%d/%d)\n\n", it.CompletedNotes(), len(it.Notes))
		for _, n := range it.Notes {
			mark := " "
			if n.Completed {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s `%s`\n", mark, n.Text, n.ID)
		}
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, e := range entries {
		fmt.Fprintf(b, "- %s\n", e)
	}
}

// renderMarkdown renders md for the terminal using the active theme.
func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	return r.Render(md)
}

// renderStats draws the overall and per-category progress.
func renderStats(s stats.Stats) string {
	var b strings.Builder

	b.WriteString(styles.HeaderStyle.Render("Progress"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %3d%%\n\n", styles.ProgressBar(s.ProgressPercent, barWidth), s.ProgressPercent)

	counts := lipgloss.JoinHorizontal(lipgloss.Top,
		countBlock(styles.Status(tech.StatusCompleted), s.CompletedTechnologies),
		countBlock(styles.Status(tech.StatusInProgress), s.InProgressTechnologies),
		countBlock(styles.Status(tech.StatusNotStarted), s.NotStartedTechnologies),
	)
	b.WriteString(counts)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d   %s %d/%d\n",
		styles.MutedStyle.Render("technologies"), s.TotalTechnologies,
		styles.MutedStyle.Render("notes done"), s.CompletedNotes, s.TotalNotes)

	if len(s.Categories) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.HeaderStyle.Render("By category"))
		b.WriteString("\n")

		width := 0
		for _, c := range s.Categories {
			width = max(width, lipgloss.Width(c.Category))
		}
		for _, c := range s.Categories {
			fmt.Fprintf(&b, "%-*s %s %3d%%  %s\n",
				width, c.Category,
				styles.ProgressBar(c.Progress, barWidth/2), c.Progress,
				styles.MutedStyle.Render(fmt.Sprintf("%d/%d", c.Completed, c.Total)))
		}
	}

	return styles.PanelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func countBlock(label string, n int) string {
	return lipgloss.NewStyle().PaddingRight(3).Render(fmt.Sprintf("%s %d", label, n))
}
