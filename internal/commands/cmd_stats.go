package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type StatsCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	jsonOutput bool
}

// NewStatsCmd creates a new stats command
func NewStatsCmd(flags *Flags, app *techtrack.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats and categories commands to the application
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "stats",
			Usage:     "Show learning progress",
			UsageText: "techtrack stats [--json]",
			Flags:     []cli.Flag{jsonFlag(&cmd.jsonOutput)},
			Action:    cmd.runStats,
		},
		&cli.Command{
			Name:      "categories",
			Usage:     "List categories in use",
			UsageText: "techtrack categories",
			Action:    cmd.runCategories,
		},
	)

	return app
}

func (cmd *StatsCmd) runStats(ctx context.Context, c *cli.Command) error {
	s := cmd.app.Tracker.Stats()

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, s)
	}

	_, err := fmt.Fprintln(c.Root().Writer, renderStats(s))
	return err
}

func (cmd *StatsCmd) runCategories(ctx context.Context, c *cli.Command) error {
	for _, category := range cmd.app.Tracker.Categories() {
		_, _ = fmt.Fprintln(c.Root().Writer, category)
	}
	return nil
}
