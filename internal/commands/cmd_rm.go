package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
)

type RmCmd struct {
	flags *Flags
	app   *techtrack.App
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags, app *techtrack.App) *RmCmd {
	return &RmCmd{flags: flags, app: app}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "rm",
		Usage:         "Stop tracking a technology",
		UsageText:     "techtrack rm <id>...",
		Description:   "Deletes the technologies and their notes.",
		ShellComplete: ItemIDCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if _, err := args(c, "id"); err != nil {
		return err
	}

	for _, id := range c.Args().Slice() {
		it, err := lookupItem(cmd.app, id)
		if err != nil {
			return err
		}
		if err := cmd.app.Tracker.Remove(ctx, it.ID); err != nil {
			return fmt.Errorf("remove %s: %w", it.ID, err)
		}
		p.Successf("Removed %q", it.Title)
	}

	return nil
}
