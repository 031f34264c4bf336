package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/server"
	"github.com/colonyops/techtrack/internal/techtrack"
)

type ServeCmd struct {
	flags *Flags
	app   *techtrack.App

	// flags
	addr  string
	pprof bool
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *techtrack.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the JSON HTTP API",
		UsageText: "techtrack serve [--addr HOST:PORT] [--pprof]",
		Description: `Runs a local HTTP API over the same collection the CLI uses. With the json
storage driver, edits made to the data file by other processes are picked
up automatically. Stops on interrupt.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr)",
				Sources:     cli.EnvVars("TECHTRACK_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "mount /debug/pprof (defaults to server.pprof)",
				Destination: &cmd.pprof,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Config.Server
	if cmd.addr != "" {
		cfg.Addr = cmd.addr
	}
	if c.IsSet("pprof") {
		cfg.Pprof = cmd.pprof
	}

	srv := server.New(cfg, cmd.app.Tracker, cmd.app.Explorer, log.Logger)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	printer.Ctx(ctx).Success("Serving techtrack API", "http://"+srv.Addr()+"/api/technologies")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
