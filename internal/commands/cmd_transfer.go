package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type TransferCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	output string
	yes    bool
	reader iojson.FileReader
}

// NewTransferCmd creates the export and import commands
func NewTransferCmd(flags *Flags, app *techtrack.App) *TransferCmd {
	return &TransferCmd{flags: flags, app: app}
}

// Register adds the export and import commands to the application
func (cmd *TransferCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "export",
			Usage:     "Write a backup of all technologies",
			UsageText: "techtrack export [--output FILE]",
			Description: `Writes {"exportedAt", "technologies", "stats"} as indented JSON.

Without --output the file is named technologies-backup-YYYY-MM-DD.json in the
current directory. Use --output - to write to stdout.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "output",
					Aliases:     []string{"o"},
					Usage:       "destination file, or - for stdout",
					Destination: &cmd.output,
				},
			},
			Action: cmd.runExport,
		},
		&cli.Command{
			Name:      "import",
			Usage:     "Replace all technologies from a backup",
			UsageText: "techtrack import [-f FILE | FILE] [--yes]",
			Description: `Accepts a document written by 'techtrack export', read from a file or
stdin. It must be a JSON object whose "technologies" field is an array of
technologies; a bare array is rejected. The whole document is validated
before anything is replaced; an invalid document leaves the collection
untouched.`,
			Flags: []cli.Flag{
				cmd.reader.Flag(),
				yesFlag(&cmd.yes),
			},
			Action: cmd.runImport,
		},
	)

	return app
}

func (cmd *TransferCmd) runExport(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	now := time.Now()
	doc := cmd.app.Tracker.Export(now)
	data, err := doc.MarshalIndent()
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if cmd.output == "-" {
		_, err := fmt.Fprintln(c.Root().Writer, string(data))
		return err
	}

	path := cmd.output
	if path == "" {
		path = techtrack.ExportFileName(now)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	p.Success(
		fmt.Sprintf("Exported %d technologies", len(doc.Technologies)),
		fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(len(data)+1))),
	)
	return nil
}

func (cmd *TransferCmd) runImport(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if c.Args().Present() && cmd.reader.Path() == "" {
		cmd.reader.SetPath(c.Args().First())
	}

	data, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	items, err := techtrack.PreviewDocument(data)
	if err != nil {
		return fmt.Errorf("import: %w", describe(err))
	}

	current := len(cmd.app.Tracker.Items())
	prompt := fmt.Sprintf("Replace %d technologies with %d imported?", current, len(items))
	if err := confirm(prompt, "Current progress and notes will be overwritten.", cmd.yes); err != nil {
		if errors.Is(err, errAborted) {
			p.Infof("Import cancelled")
			return nil
		}
		return err
	}

	n, err := cmd.app.Tracker.ImportDocument(ctx, data)
	if err != nil {
		return fmt.Errorf("import: %w", describe(err))
	}

	p.Successf("Imported %d technologies", n)
	return nil
}
