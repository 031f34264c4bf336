package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/core/validate"
	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type AddCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	fields     tech.NewItem
	difficulty string
	jsonOutput bool
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, app *techtrack.App) *AddCmd {
	return &AddCmd{flags: flags, app: app}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Track a new technology",
		UsageText: "techtrack add --title TITLE [options]",
		Description: `Adds a technology with status not-started and no notes.

Without --title in an interactive terminal, a form asks for the fields.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "technology title (required)",
				Destination: &cmd.fields.Title,
			},
			&cli.StringFlag{
				Name:        "description",
				Aliases:     []string{"d"},
				Usage:       "short description",
				Destination: &cmd.fields.Description,
			},
			&cli.StringFlag{
				Name:        "category",
				Usage:       "category (defaults to " + tech.DefaultCategory + ")",
				Destination: &cmd.fields.Category,
			},
			&cli.StringFlag{
				Name:        "difficulty",
				Usage:       "beginner, intermediate or advanced",
				Destination: &cmd.difficulty,
			},
			&cli.FloatFlag{
				Name:        "hours",
				Usage:       "estimated study hours",
				Destination: &cmd.fields.EstimatedHours,
			},
			&cli.StringSliceFlag{
				Name:        "resource",
				Usage:       "learning resource URL (repeatable)",
				Destination: &cmd.fields.Resources,
			},
			jsonFlag(&cmd.jsonOutput),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	cmd.fields.Difficulty = tech.Difficulty(cmd.difficulty)

	if cmd.fields.Title == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		if err := cmd.runForm(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	it, err := cmd.app.Tracker.Add(ctx, cmd.fields)
	if err != nil {
		return fmt.Errorf("add technology: %w", describe(err))
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, it)
	}

	p.Success(fmt.Sprintf("Added %q", it.Title), "id: "+it.ID.String())
	return nil
}

func (cmd *AddCmd) runForm() error {
	difficulty := tech.DifficultyBeginner

	options := make([]huh.Option[tech.Difficulty], 0, len(tech.Difficulties))
	for _, d := range tech.Difficulties {
		options = append(options, huh.NewOption(string(d), d))
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(validate.Title).
				Value(&cmd.fields.Title),
			huh.NewText().
				Title("Description").
				Value(&cmd.fields.Description),
			huh.NewInput().
				Title("Category").
				Placeholder(tech.DefaultCategory).
				Value(&cmd.fields.Category),
			huh.NewSelect[tech.Difficulty]().
				Title("Difficulty").
				Options(options...).
				Value(&difficulty),
		),
	).Run()
	if err != nil {
		return err
	}

	cmd.fields.Difficulty = difficulty
	return nil
}
