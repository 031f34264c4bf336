package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/core/validate"
	"github.com/colonyops/techtrack/internal/techtrack"
)

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// args returns the first n positional arguments, or a usage error naming
// the missing ones.
func args(c *cli.Command, names ...string) ([]string, error) {
	if c.Args().Len() < len(names) {
		missing := names[c.Args().Len():]
		return nil, fmt.Errorf("missing argument(s): %s\n\nUsage: %s", strings.Join(missing, ", "), c.UsageText)
	}
	return c.Args().Slice()[:len(names)], nil
}

// lookupItem resolves id against the tracker so commands can report unknown
// ids instead of silently doing nothing.
func lookupItem(app *techtrack.App, id string) (tech.Item, error) {
	return app.Tracker.ByID(tech.ID(id))
}

// lookupNote resolves an item and one of its notes.
func lookupNote(app *techtrack.App, itemID, noteID string) (tech.Item, tech.Note, error) {
	it, err := lookupItem(app, itemID)
	if err != nil {
		return tech.Item{}, tech.Note{}, err
	}
	n, ok := it.Note(tech.ID(noteID))
	if !ok {
		return tech.Item{}, tech.Note{}, fmt.Errorf("note %q on item %q: %w", noteID, itemID, tech.ErrNotFound)
	}
	return it, n, nil
}

// describe expands validation failures into one line per field.
func describe(err error) error {
	fields := validate.Fields(err)
	if len(fields) == 0 {
		return err
	}

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Field, f.Message)
	}
	return errors.New(b.String())
}

// confirm asks a yes/no question. It succeeds without asking when yes is
// set and refuses to guess when stdin is not a terminal.
func confirm(title, description string, yes bool) error {
	if yes {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%s: confirmation required; rerun with --yes", strings.TrimSuffix(title, "?"))
	}

	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		return errAborted
	}
	return nil
}

func yesFlag(dest *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "yes",
		Aliases:     []string{"y"},
		Usage:       "skip the confirmation prompt",
		Destination: dest,
	}
}

func jsonFlag(dest *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON",
		Destination: dest,
	}
}
