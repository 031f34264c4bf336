package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	raw bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, app *techtrack.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "show",
		Usage:         "Show one technology with its notes",
		UsageText:     "techtrack show <id> [--raw]",
		ShellComplete: ItemIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print the stored JSON instead of rendered markdown",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id")
	if err != nil {
		return err
	}

	it, err := lookupItem(cmd.app, a[0])
	if err != nil {
		return err
	}

	if cmd.raw {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, it)
	}

	out, err := renderMarkdown(itemMarkdown(it))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.Root().Writer, out)
	return err
}
