package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/techtrack/internal/commands"
	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/logging"
	"github.com/colonyops/techtrack/internal/core/styles"
	"github.com/colonyops/techtrack/internal/printer"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		logCloser func()
		appCancel context.CancelFunc
		ttApp     = &techtrack.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "techtrack",
		Usage:     "Track the technologies you are learning",
		UsageText: "techtrack [global options] command [command options]",
		Description: `Techtrack keeps a list of technologies you want to learn, each with a
checklist of notes. Completing notes moves a technology from not-started
through in-progress to completed, and 'techtrack stats' shows how far along
you are.

Run 'techtrack list' to see what you are tracking.
Run 'techtrack explore repos' to discover new technologies.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TECHTRACK_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/techtrack.log)",
				Sources:     cli.EnvVars("TECHTRACK_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TECHTRACK_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TECHTRACK_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.BoolFlag{
				Name:        "ephemeral",
				Usage:       "keep everything in memory for this run; nothing is saved",
				Sources:     cli.EnvVars("TECHTRACK_EPHEMERAL"),
				Destination: &flags.Ephemeral,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/techtrack.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "techtrack.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Ephemeral {
				cfg.Storage.Driver = config.DriverMemory
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.UI.Theme)
			styles.SetTheme(palette)

			opened, err := techtrack.Open(ctx, cfg, log.Logger)
			if err != nil {
				return ctx, err
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*ttApp = *opened

			appCtx, cancel := context.WithCancel(ctx)
			appCancel = cancel
			if err := ttApp.Start(appCtx); err != nil {
				return ctx, fmt.Errorf("start: %w", err)
			}

			ctx = logging.WithCommand(ctx, c.Args().First())
			return printer.NewContext(ctx, printer.New(os.Stderr)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if appCancel != nil {
				appCancel()
			}

			var closeErr error
			if ttApp.Store != nil {
				if err := ttApp.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close storage")
					closeErr = err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return closeErr
		},
	}

	app = commands.NewAddCmd(flags, ttApp).Register(app)
	app = commands.NewListCmd(flags, ttApp).Register(app)
	app = commands.NewShowCmd(flags, ttApp).Register(app)
	app = commands.NewUpdateCmd(flags, ttApp).Register(app)
	app = commands.NewRmCmd(flags, ttApp).Register(app)
	app = commands.NewStatusCmd(flags, ttApp).Register(app)
	app = commands.NewNoteCmd(flags, ttApp).Register(app)
	app = commands.NewBulkCmd(flags, ttApp).Register(app)
	app = commands.NewStatsCmd(flags, ttApp).Register(app)
	app = commands.NewTransferCmd(flags, ttApp).Register(app)
	app = commands.NewExploreCmd(flags, ttApp).Register(app)
	app = commands.NewServeCmd(flags, ttApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr.Error())
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
