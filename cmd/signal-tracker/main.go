package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/signal-tracker/internal/app"
	"github.com/rxtech-lab/signal-tracker/internal/config"
	"github.com/rxtech-lab/signal-tracker/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// newRootCommand builds the CLI writing its output to w. opts are passed to
// app.New by every command that needs the store.
func newRootCommand(w io.Writer, opts ...app.Option) *cli.Command {
	return &cli.Command{
		Name:    "signal-tracker",
		Usage:   "Evaluate Telegram trading signals against market data",
		Version: version.GetVersion(),
		Writer:  w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML `FILE`",
				Sources: cli.EnvVars("SIGNAL_TRACKER_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE` (default: ./.env when present)",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Store driver: postgres or duckdb",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "Postgres connection string or DuckDB file path",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			migrateCommand(opts),
			importCommand(opts),
			evaluateCommand(opts),
			batchCommand(opts),
			serveCommand(opts),
			channelsCommand(opts),
			signalsCommand(opts),
			ratesCommand(opts),
			exportCommand(),
			browseCommand(opts),
			schemaCommand(),
		},
	}
}

// loadConfig reads the configuration named by the global flags and applies
// the flag overrides on top.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	return config.Load(cmd.String("config"), cmd.String("env-file"), func(c *config.Config) {
		if cmd.IsSet("store") {
			c.Store.Driver = cmd.String("store")
		}

		if cmd.IsSet("dsn") {
			c.Store.DSN = cmd.String("dsn")
		}

		if cmd.IsSet("log-level") {
			c.Logging.Level = cmd.String("log-level")
		}
	})
}

// withApp runs fn with a fully wired application and closes it afterwards.
func withApp(ctx context.Context, cmd *cli.Command, opts []app.Option, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
