package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type ListCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	filter     listFilter
	jsonOutput bool
}

// listFilter narrows the collection. Patterns are doublestar globs matched
// case-insensitively; an empty field matches everything.
type listFilter struct {
	Status   string
	Category string
	Match    string
	Search   string
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags, app *techtrack.App) *ListCmd {
	return &ListCmd{flags: flags, app: app}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List tracked technologies",
		UsageText: "techtrack list [--status S] [--category PATTERN] [--match PATTERN] [--search TERM] [--json]",
		Description: `Displays a table of technologies with their status and note progress.

--category and --match take glob patterns ("React*", "*{Go,Rust}*") matched
against the category and title. --search matches title, description,
category and note text. Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "only items with this status",
				Destination: &cmd.filter.Status,
			},
			&cli.StringFlag{
				Name:        "category",
				Usage:       "glob pattern for the category",
				Destination: &cmd.filter.Category,
			},
			&cli.StringFlag{
				Name:        "match",
				Aliases:     []string{"m"},
				Usage:       "glob pattern for the title",
				Destination: &cmd.filter.Match,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"q"},
				Usage:       "free-text search term",
				Destination: &cmd.filter.Search,
			},
			jsonFlag(&cmd.jsonOutput),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	items, err := cmd.filter.apply(cmd.app.Tracker.Search(cmd.filter.Search))
	if err != nil {
		return err
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, it := range items {
			if err := iojson.WriteLine(out, it); err != nil {
				return fmt.Errorf("encode item: %w", err)
			}
		}
		return nil
	}

	if len(items) == 0 {
		fmt.Fprintf(os.Stderr, "No technologies found\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tCATEGORY\tNOTES")
	for _, it := range items {
		notes := "-"
		if len(it.Notes) > 0 {
			notes = fmt.Sprintf("%d/%d", it.CompletedNotes(), len(it.Notes))
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Status, it.Title, it.CategoryLabel(), notes)
	}
	return w.Flush()
}

func (f listFilter) validate() error {
	if f.Status != "" {
		if err := tech.ValidateStatus(tech.Status(f.Status)); err != nil {
			return describe(err)
		}
	}
	for _, pattern := range []string{f.Category, f.Match} {
		if pattern != "" && !doublestar.ValidatePattern(strings.ToLower(pattern)) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
	}
	return nil
}

func (f listFilter) apply(items []tech.Item) ([]tech.Item, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	out := []tech.Item{}
	for _, it := range items {
		if f.Status != "" && string(it.Status) != f.Status {
			continue
		}
		if !globMatch(f.Category, it.CategoryLabel()) || !globMatch(f.Match, it.Title) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func globMatch(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(value))
	return err == nil && ok
}
