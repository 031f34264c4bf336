package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/techtrack"
)

// ItemIDCompleter returns a ShellCompleteFunc that suggests item ids, with
// the title as the description, as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ItemIDCompleter(app *techtrack.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Tracker == nil {
			return
		}

		w := cmd.Root().Writer
		for _, it := range app.Tracker.Items() {
			_, _ = fmt.Fprintf(w, "%s:%s\n", it.ID, it.Title)
		}
	}
}
