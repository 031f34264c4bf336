package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/core/styles"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
)

type StatusCmd struct {
	flags *Flags
	app   *techtrack.App
}

// NewStatusCmd creates a new status command
func NewStatusCmd(flags *Flags, app *techtrack.App) *StatusCmd {
	return &StatusCmd{flags: flags, app: app}
}

// Register adds the status command to the application
func (cmd *StatusCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "status",
		Usage: "Change the study status of a technology",
		Description: `Status normally follows the notes: all done means completed, some done
means in-progress. These commands set it directly.`,
		Commands: []*cli.Command{
			{
				Name:          "cycle",
				Usage:         "Advance not-started -> in-progress -> completed -> not-started",
				UsageText:     "techtrack status cycle <id>",
				ShellComplete: ItemIDCompleter(cmd.app),
				Action:        cmd.runCycle,
			},
			{
				Name:          "set",
				Usage:         "Set the status directly",
				UsageText:     "techtrack status set <id> <not-started|in-progress|completed>",
				ShellComplete: ItemIDCompleter(cmd.app),
				Action:        cmd.runSet,
			},
		},
	})

	return app
}

func (cmd *StatusCmd) runCycle(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id")
	if err != nil {
		return err
	}

	it, err := lookupItem(cmd.app, a[0])
	if err != nil {
		return err
	}

	if err := cmd.app.Tracker.CycleStatus(ctx, it.ID); err != nil {
		return fmt.Errorf("cycle status: %w", err)
	}
	return cmd.report(ctx, it.ID)
}

func (cmd *StatusCmd) runSet(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id", "status")
	if err != nil {
		return err
	}

	it, err := lookupItem(cmd.app, a[0])
	if err != nil {
		return err
	}

	if err := cmd.app.Tracker.SetStatus(ctx, it.ID, tech.Status(a[1])); err != nil {
		return fmt.Errorf("set status: %w", describe(err))
	}
	return cmd.report(ctx, it.ID)
}

func (cmd *StatusCmd) report(ctx context.Context, id tech.ID) error {
	it, err := cmd.app.Tracker.ByID(id)
	if err != nil {
		return err
	}
	printer.Ctx(ctx).Successf("%s is now %s", it.Title, styles.Status(it.Status))
	return nil
}
