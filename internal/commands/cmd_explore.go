package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/enrich/github"
	"github.com/colonyops/techtrack/internal/enrich/jobs"
	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type ExploreCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	language   string
	add        []string
	attach     bool
	location   string
	level      string
	jsonOutput bool
}

// NewExploreCmd creates a new explore command
func NewExploreCmd(flags *Flags, app *techtrack.App) *ExploreCmd {
	return &ExploreCmd{flags: flags, app: app}
}

// Register adds the explore command to the application
func (cmd *ExploreCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "explore",
		Usage: "Discover technologies, learning resources and jobs",
		Description: `Looks technologies up in GitHub repository search and The Muse job
listings. Results are suggestions: nothing is added to your collection
unless you ask for it with --add or --attach.

Set github.token in the config (or GITHUB_TOKEN) to raise the GitHub rate limit.`,
		Commands: []*cli.Command{
			{
				Name:      "repos",
				Usage:     "Search repositories as candidate technologies",
				UsageText: "techtrack explore repos [QUERY] [--language L] [--add N...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "language",
						Aliases:     []string{"l"},
						Usage:       "restrict to a language (defaults to github.language)",
						Destination: &cmd.language,
					},
					&cli.StringSliceFlag{
						Name:        "add",
						Aliases:     []string{"a"},
						Usage:       "add the result with this number to your collection (repeatable)",
						Destination: &cmd.add,
					},
					jsonFlag(&cmd.jsonOutput),
				},
				Action: cmd.runRepos,
			},
			{
				Name:          "resources",
				Usage:         "Find documentation and tutorials for a tracked technology",
				UsageText:     "techtrack explore resources <id> [--attach]",
				ShellComplete: ItemIDCompleter(cmd.app),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "attach",
						Usage:       "append the found URLs to the technology's resources",
						Destination: &cmd.attach,
					},
					jsonFlag(&cmd.jsonOutput),
				},
				Action: cmd.runResources,
			},
			{
				Name:      "jobs",
				Usage:     "Find job listings mentioning a technology",
				UsageText: "techtrack explore jobs <tech> [--location L] [--level L]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "location",
						Usage:       "e.g. " + strings.Join(jobs.PopularLocations, ", "),
						Destination: &cmd.location,
					},
					&cli.StringFlag{
						Name:        "level",
						Usage:       strings.Join(jobs.Levels, ", "),
						Destination: &cmd.level,
					},
					jsonFlag(&cmd.jsonOutput),
				},
				Action: cmd.runJobs,
			},
			{
				Name:      "all",
				Usage:     "Search repositories and jobs at once",
				UsageText: "techtrack explore all <tech>",
				Flags:     []cli.Flag{jsonFlag(&cmd.jsonOutput)},
				Action:    cmd.runAll,
			},
		},
	})

	return app
}

func (cmd *ExploreCmd) runRepos(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	query := strings.Join(c.Args().Slice(), " ")
	candidates, err := cmd.app.Explorer.Repos(ctx, query, cmd.language)
	if err != nil {
		return fmt.Errorf("search repositories: %w", err)
	}

	picks, err := parseIndexes(cmd.add, len(candidates))
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, candidates); err != nil {
			return err
		}
	} else {
		cmd.printCandidates(c, candidates)
	}

	for _, i := range picks {
		candidate := candidates[i]
		if cmd.app.Tracker.Tracks(candidate) {
			p.Infof("%q is already tracked", candidate.Title)
			continue
		}
		it, err := cmd.app.Tracker.Add(ctx, techtrack.CandidateFields(candidate))
		if err != nil {
			return fmt.Errorf("add %q: %w", candidate.Title, describe(err))
		}
		p.Success(fmt.Sprintf("Added %q", it.Title), "id: "+it.ID.String())
	}

	return nil
}

func (cmd *ExploreCmd) printCandidates(c *cli.Command, candidates []tech.Item) {
	if len(candidates) == 0 {
		printer.New(c.Root().ErrWriter).Infof("No repositories found")
		return
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tTITLE\tSTARS\tLANGUAGE\tDIFFICULTY\tTRACKED")
	for i, it := range candidates {
		tracked := ""
		if cmd.app.Tracker.Tracks(it) {
			tracked = "yes"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, it.Title, humanize.Comma(int64(it.Stars)), it.Language, it.Difficulty, tracked)
	}
	_ = w.Flush()
}

func (cmd *ExploreCmd) runResources(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	a, err := args(c, "id")
	if err != nil {
		return err
	}

	it, err := lookupItem(cmd.app, a[0])
	if err != nil {
		return err
	}

	found, err := cmd.app.Explorer.Resources(ctx, it)
	if err != nil {
		return fmt.Errorf("find resources: %w", err)
	}

	if cmd.jsonOutput {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, found); err != nil {
			return err
		}
	} else {
		if len(found) == 0 {
			p.Infof("No resources found for %q", it.Title)
		}
		for _, r := range found {
			_, _ = fmt.Fprintf(c.Root().Writer, "%s  %s %s\n  %s\n", r.Title, humanize.Comma(int64(r.Stars)), "stars", r.URL)
		}
	}

	if !cmd.attach || len(found) == 0 {
		return nil
	}

	merged := mergeResources(it.Resources, found)
	added := len(merged) - len(it.Resources)
	if added == 0 {
		p.Infof("All resources already attached")
		return nil
	}

	if err := cmd.app.Tracker.Update(ctx, it.ID, tech.Patch{Resources: &merged}); err != nil {
		return fmt.Errorf("attach resources: %w", err)
	}
	p.Successf("Attached %d resource(s) to %q", added, it.Title)
	return nil
}

func (cmd *ExploreCmd) runJobs(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "tech")
	if err != nil {
		return err
	}

	if !jobs.ValidLevel(cmd.level) {
		return fmt.Errorf("unknown level %q (want one of %s)", cmd.level, strings.Join(jobs.Levels, ", "))
	}

	found, err := cmd.app.Explorer.Jobs(ctx, jobs.Query{
		Technology: a[0],
		Location:   cmd.location,
		Level:      cmd.level,
	})
	if err != nil {
		return fmt.Errorf("search jobs: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, found)
	}

	printJobs(c, a[0], found)
	return nil
}

func (cmd *ExploreCmd) runAll(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	a, err := args(c, "tech")
	if err != nil {
		return err
	}

	result, err := cmd.app.Explorer.All(ctx, a[0])
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, result)
	}

	p.Section("Repositories")
	if result.RepoError != "" {
		p.Warnf("repository search failed: %s", result.RepoError)
	} else {
		cmd.printCandidates(c, result.Repos)
	}

	p.Section("Jobs")
	if result.JobError != "" {
		p.Warnf("job search failed: %s", result.JobError)
	} else {
		printJobs(c, a[0], result.Jobs)
	}
	return nil
}

func printJobs(c *cli.Command, technology string, found []jobs.Job) {
	if len(found) == 0 {
		printer.New(c.Root().ErrWriter).Infof("No jobs found for %q", jobs.DisplayQuery(technology))
		return
	}

	out := c.Root().Writer
	for _, j := range found {
		_, _ = fmt.Fprintf(out, "%s - %s\n", j.Name, j.Company)
		if len(j.Locations) > 0 || len(j.Levels) > 0 {
			_, _ = fmt.Fprintf(out, "  %s  %s\n", strings.Join(j.Locations, "; "), strings.Join(j.Levels, ", "))
		}
		if j.URL != "" {
			_, _ = fmt.Fprintf(out, "  %s\n", j.URL)
		}
	}
}

// parseIndexes converts 1-based result numbers into slice indexes,
// dropping duplicates. Values may be repeated flags or comma separated.
func parseIndexes(raw []string, n int) ([]int, error) {
	out := []int{}
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			i, err := strconv.Atoi(part)
			if err != nil || i < 1 || i > n {
				return nil, fmt.Errorf("--add %q: want a result number between 1 and %d", part, n)
			}
			if !slices.Contains(out, i-1) {
				out = append(out, i-1)
			}
		}
	}
	return out, nil
}

// mergeResources appends the URLs of found that existing lacks.
func mergeResources(existing []string, found []github.Resource) []string {
	out := slices.Clone(existing)
	for _, r := range found {
		if r.URL != "" && !slices.Contains(out, r.URL) {
			out = append(out, r.URL)
		}
	}
	return out
}
