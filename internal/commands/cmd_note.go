package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/core/styles"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
)

type NoteCmd struct {
	flags *Flags
	app   *techtrack.App
}

// NewNoteCmd creates a new note command
func NewNoteCmd(flags *Flags, app *techtrack.App) *NoteCmd {
	return &NoteCmd{flags: flags, app: app}
}

// Register adds the note command to the application
func (cmd *NoteCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "note",
		Usage: "Manage the checklist notes of a technology",
		Description: `Notes drive the status of their technology: completing every note
completes it, completing some marks it in-progress, and removing the last
note resets it to not-started.`,
		Commands: []*cli.Command{
			{
				Name:          "add",
				Usage:         "Append an open note",
				UsageText:     "techtrack note add <id> <text>",
				ShellComplete: ItemIDCompleter(cmd.app),
				Action:        cmd.runAdd,
			},
			{
				Name:      "toggle",
				Usage:     "Flip a note between done and open",
				UsageText: "techtrack note toggle <id> <note-id>",
				Action:    cmd.runToggle,
			},
			{
				Name:      "edit",
				Usage:     "Replace the text of a note",
				UsageText: "techtrack note edit <id> <note-id> <text>",
				Action:    cmd.runEdit,
			},
			{
				Name:      "rm",
				Usage:     "Remove a note",
				UsageText: "techtrack note rm <id> <note-id>",
				Action:    cmd.runRemove,
			},
		},
	})

	return app
}

// text joins every argument from index i on, so quoting is optional.
func text(c *cli.Command, i int) string {
	return strings.Join(c.Args().Slice()[i:], " ")
}

func (cmd *NoteCmd) runAdd(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id", "text")
	if err != nil {
		return err
	}

	it, err := lookupItem(cmd.app, a[0])
	if err != nil {
		return err
	}

	n, err := cmd.app.Tracker.AddNote(ctx, it.ID, text(c, 1))
	if err != nil {
		return fmt.Errorf("add note: %w", describe(err))
	}

	printer.Ctx(ctx).Success(fmt.Sprintf("Added note to %q", it.Title), "note id: "+n.ID.String())
	return cmd.reportStatus(ctx, it)
}

func (cmd *NoteCmd) runToggle(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id", "note-id")
	if err != nil {
		return err
	}

	it, n, err := lookupNote(cmd.app, a[0], a[1])
	if err != nil {
		return err
	}

	if err := cmd.app.Tracker.ToggleNote(ctx, it.ID, n.ID); err != nil {
		return fmt.Errorf("toggle note: %w", err)
	}

	mark := styles.IconNoteDone
	if n.Completed {
		mark = styles.IconNoteOpen
	}
	printer.Ctx(ctx).Successf("%s %s", mark, n.Text)
	return cmd.reportStatus(ctx, it)
}

func (cmd *NoteCmd) runEdit(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id", "note-id", "text")
	if err != nil {
		return err
	}

	it, n, err := lookupNote(cmd.app, a[0], a[1])
	if err != nil {
		return err
	}

	if err := cmd.app.Tracker.EditNote(ctx, it.ID, n.ID, text(c, 2)); err != nil {
		return fmt.Errorf("edit note: %w", describe(err))
	}

	printer.Ctx(ctx).Successf("Updated note %s", n.ID)
	return nil
}

func (cmd *NoteCmd) runRemove(ctx context.Context, c *cli.Command) error {
	a, err := args(c, "id", "note-id")
	if err != nil {
		return err
	}

	it, n, err := lookupNote(cmd.app, a[0], a[1])
	if err != nil {
		return err
	}

	if err := cmd.app.Tracker.RemoveNote(ctx, it.ID, n.ID); err != nil {
		return fmt.Errorf("remove note: %w", err)
	}

	printer.Ctx(ctx).Successf("Removed note %q", n.Text)
	return cmd.reportStatus(ctx, it)
}

// reportStatus mentions the item status when a note change moved it.
func (cmd *NoteCmd) reportStatus(ctx context.Context, before tech.Item) error {
	after, err := cmd.app.Tracker.ByID(before.ID)
	if err != nil {
		return err
	}
	if after.Status != before.Status {
		printer.Ctx(ctx).Infof("%s is now %s", after.Title, styles.Status(after.Status))
	}
	return nil
}
