package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
)

type UpdateCmd struct {
	flags *Flags
	app   *techtrack.App
}

// NewUpdateCmd creates a new update command
func NewUpdateCmd(flags *Flags, app *techtrack.App) *UpdateCmd {
	return &UpdateCmd{flags: flags, app: app}
}

// Register adds the update command to the application
func (cmd *UpdateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "update",
		Usage:     "Change fields of a technology",
		UsageText: "techtrack update <id> [--title T] [--description D] [--category C] [--difficulty D] [--status S]",
		Description: `Only the flags that are given are changed. Notes are not touched; use
'techtrack note' for those.`,
		ShellComplete: ItemIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "new title"},
			&cli.StringFlag{Name: "description", Usage: "new description"},
			&cli.StringFlag{Name: "category", Usage: "new category"},
			&cli.StringFlag{Name: "difficulty", Usage: "beginner, intermediate or advanced"},
			&cli.StringFlag{Name: "status", Usage: "not-started, in-progress or completed"},
			&cli.FloatFlag{Name: "hours", Usage: "estimated study hours"},
			&cli.StringFlag{Name: "language", Usage: "primary language"},
		},
		Action: cmd.run,
	})

	return app
}

// patchFromFlags builds a patch from the flags the user actually set.
func patchFromFlags(c *cli.Command) tech.Patch {
	var p tech.Patch

	str := func(name string) *string {
		if !c.IsSet(name) {
			return nil
		}
		v := c.String(name)
		return &v
	}

	p.Title = str("title")
	p.Description = str("description")
	p.Category = str("category")
	p.Language = str("language")
	if v := str("difficulty"); v != nil {
		d := tech.Difficulty(*v)
		p.Difficulty = &d
	}
	if v := str("status"); v != nil {
		s := tech.Status(*v)
		p.Status = &s
	}
	if c.IsSet("hours") {
		h := c.Float("hours")
		p.EstimatedHours = &h
	}

	return p
}

func (cmd *UpdateCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	a, err := args(c, "id")
	if err != nil {
		return err
	}

	it, err := lookupItem(cmd.app, a[0])
	if err != nil {
		return err
	}

	patch := patchFromFlags(c)
	if patch.IsZero() {
		p.Infof("Nothing to update")
		return nil
	}

	if err := cmd.app.Tracker.Update(ctx, it.ID, patch); err != nil {
		return fmt.Errorf("update %s: %w", it.ID, describe(err))
	}

	p.Successf("Updated %q", it.Title)
	return nil
}
