package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
)

type BulkCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	yes bool
}

// NewBulkCmd creates a new bulk command
func NewBulkCmd(flags *Flags, app *techtrack.App) *BulkCmd {
	return &BulkCmd{flags: flags, app: app}
}

type bulkAction struct {
	name    string
	usage   string
	confirm string
	done    string
	run     func(*techtrack.Tracker, context.Context) error
}

var bulkActions = []bulkAction{
	{
		name:    "complete",
		usage:   "Mark every technology and every note completed",
		confirm: "Mark everything completed?",
		done:    "Marked all technologies completed",
		run:     (*techtrack.Tracker).MarkAllCompleted,
	},
	{
		name:    "reset",
		usage:   "Reset every technology to not-started and reopen every note",
		confirm: "Reset all progress?",
		done:    "Reset all progress",
		run:     (*techtrack.Tracker).ResetAll,
	},
	{
		name:    "clear",
		usage:   "Replace the collection with the default technologies",
		confirm: "Replace your technologies with the defaults?",
		done:    "Restored the default technologies",
		run:     (*techtrack.Tracker).Clear,
	},
}

// Register adds the bulk command to the application
func (cmd *BulkCmd) Register(app *cli.Command) *cli.Command {
	sub := make([]*cli.Command, 0, len(bulkActions))
	for _, a := range bulkActions {
		sub = append(sub, &cli.Command{
			Name:      a.name,
			Usage:     a.usage,
			UsageText: "techtrack bulk " + a.name + " [--yes]",
			Flags:     []cli.Flag{yesFlag(&cmd.yes)},
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.run(ctx, a)
			},
		})
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:     "bulk",
		Usage:    "Change every technology at once",
		Commands: sub,
	})

	return app
}

func (cmd *BulkCmd) run(ctx context.Context, a bulkAction) error {
	p := printer.Ctx(ctx)

	n := len(cmd.app.Tracker.Items())
	if err := confirm(a.confirm, fmt.Sprintf("This affects %d technologies.", n), cmd.yes); err != nil {
		if errors.Is(err, errAborted) {
			p.Infof("Cancelled")
			return nil
		}
		return err
	}

	if err := a.run(cmd.app.Tracker, ctx); err != nil {
		return fmt.Errorf("bulk %s: %w", a.name, err)
	}

	p.Successf("%s (%d%% complete)", a.done, cmd.app.Tracker.Stats().ProgressPercent)
	return nil
}
