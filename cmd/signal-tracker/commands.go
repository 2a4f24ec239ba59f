package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/signal-tracker/internal/api"
	"github.com/rxtech-lab/signal-tracker/internal/app"
	"github.com/rxtech-lab/signal-tracker/internal/browser"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/export"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func migrateCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// app.New migrates
			return withApp(ctx, cmd, opts, func(_ context.Context, a *app.App) error {
				fmt.Fprintf(cmd.Root().Writer, "Schema is up to date (%s)\n", a.Config.Store.Driver)

				return nil
			})
		},
	}
}

// importFile is the YAML layout read by the import command.
type importFile struct {
	Channels []struct {
		Username string         `yaml:"username"`
		Title    string         `yaml:"title"`
		Signals  []importSignal `yaml:"signals"`
	} `yaml:"channels"`
}

// importSignal is one parsed signal of an import file. SignalTime stays a
// string so a naive time can be told apart from one carrying an offset.
type importSignal struct {
	MessageID   int64     `yaml:"message_id"`
	Symbol      string    `yaml:"symbol"`
	Direction   string    `yaml:"direction"`
	EntryPrices []float64 `yaml:"entry_prices"`
	StopLoss    float64   `yaml:"stop_loss"`
	TakeProfits []float64 `yaml:"take_profits"`
	Leverage    int       `yaml:"leverage"`
	MarginMode  string    `yaml:"margin_mode"`
	SignalTime  string    `yaml:"signal_time"`
}

// signal converts the entry. Naive times are read in loc, times with an
// offset keep it.
func (s importSignal) signal(channelID int64, loc *time.Location) (types.Signal, error) {
	direction, err := types.ParseDirection(s.Direction)
	if err != nil {
		return types.Signal{}, err
	}

	signalTime, err := marketdata.ParseTimeIn(s.SignalTime, loc)
	if err != nil {
		return types.Signal{}, errors.Wrapf(errors.ErrCodeMalformedSignal, err, "signal %d of %s", s.MessageID, s.Symbol)
	}

	leverage := s.Leverage
	if leverage == 0 {
		leverage = 1
	}

	//nolint:exhaustruct // imported signals are open
	return types.Signal{
		MessageID:   s.MessageID,
		ChannelID:   channelID,
		Symbol:      s.Symbol,
		Direction:   direction,
		EntryPrices: s.EntryPrices,
		StopLoss:    s.StopLoss,
		TakeProfits: s.TakeProfits,
		Leverage:    leverage,
		MarginMode:  s.MarginMode,
		SignalTime:  signalTime,
	}, nil
}

func importCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load channels and signals from a YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "YAML `FILE` with a channels list",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(cmd.String("file"))
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to read import file", err)
			}

			var file importFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to parse import file", err)
			}

			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				loc, err := a.Config.Location()
				if err != nil {
					return err
				}

				signals := 0

				for _, channel := range file.Channels {
					channelID, err := a.Store.SaveChannel(ctx, types.Channel{Username: channel.Username, Title: channel.Title})
					if err != nil {
						return err
					}

					for _, entry := range channel.Signals {
						sig, err := entry.signal(channelID, loc)
						if err != nil {
							return err
						}

						if _, err := a.Store.SaveSignal(ctx, sig); err != nil {
							return err
						}

						signals++
					}
				}

				fmt.Fprintf(cmd.Root().Writer, "Imported %d channels and %d signals\n", len(file.Channels), signals)

				return nil
			})
		},
	}
}

func evaluateCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:      "evaluate",
		Usage:     "Evaluate signals by id",
		ArgsUsage: "[ID...]",
		Flags: []cli.Flag{
			&cli.Int64SliceFlag{
				Name:  "id",
				Usage: "Signal `ID`, repeatable",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print outcomes as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids, err := signalIDs(cmd)
			if err != nil {
				return err
			}

			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				w := cmd.Root().Writer
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")

				for _, id := range ids {
					outcome, err := a.Processor.ProcessSignal(ctx, id)
					if err != nil {
						return err
					}

					if cmd.Bool("json") {
						if err := encoder.Encode(outcome); err != nil {
							return err
						}

						continue
					}

					fmt.Fprintln(w, formatOutcome(outcome))
				}

				return nil
			})
		},
	}
}

func signalIDs(cmd *cli.Command) ([]int64, error) {
	ids := cmd.Int64Slice("id")

	for _, arg := range cmd.Args().Slice() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid signal id %q", arg)
		}

		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "at least one signal id is required")
	}

	return ids, nil
}

func batchCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Evaluate open signals, oldest first, and refresh channel rates",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Open signals to evaluate; 0 evaluates all (default: evaluator.batch_limit)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw a progress bar",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				w := cmd.Root().Writer

				limit := a.Config.Evaluator.BatchLimit
				if cmd.IsSet("limit") {
					limit = int(cmd.Int("limit"))
				}

				var bar *progressbar.ProgressBar

				onProgress := func(done, total int) {
					if cmd.Bool("no-progress") {
						return
					}

					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetWriter(w),
							progressbar.OptionSetDescription("Evaluating signals"),
							progressbar.OptionShowCount(),
							progressbar.OptionClearOnFinish(),
						)
					}

					_ = bar.Set(done)
				}

				report, err := a.Processor.ProcessOpenSignals(ctx, limit, onProgress)
				if err != nil {
					return err
				}

				if err := a.Store.UpdateChannelRates(ctx); err != nil {
					return err
				}

				fmt.Fprintf(w, "Run %s: %d signals, %d closed, %d still open, %d cached, %d failed (%s)\n",
					report.RunID, report.Total, report.Closed, report.StillOpen, report.Cached, report.Failed,
					report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))

				for _, failure := range report.Errors {
					fmt.Fprintf(w, "  signal %d: [%d] %s\n", failure.SignalID, failure.Code, failure.Message)
				}

				return nil
			})
		},
	}
}

func serveCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				if cmd.IsSet("host") {
					a.Config.Server.Host = cmd.String("host")
				}

				if cmd.IsSet("port") {
					a.Config.Server.Port = int(cmd.Int("port"))
				}

				server := api.NewServer(a.Store, a.Processor, api.Config{
					Interval: a.Config.Interval(),
					Now:      a.Now,
				}, a.Logger)

				a.Logger.Info("Serving API", zap.String("address", a.Config.Address()))

				return server.ListenAndServe(ctx, a.Config.Address())
			})
		},
	}
}

func channelsCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "List channels with their success rate",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				channels, err := a.Store.ListChannels(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.Root().Writer, renderChannels(channels))

				return nil
			})
		},
	}
}

func signalsCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "signals",
		Usage: "List the latest signals of a channel",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "channel",
				Usage:    "Channel `ID`",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Signals to list",
				Value: 5,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				channelID := cmd.Int64("channel")

				signals, err := a.Store.ListSignalsByChannel(ctx, channelID, int(cmd.Int("limit")))
				if err != nil {
					return err
				}

				stats, err := a.Store.ChannelStats(ctx, channelID)
				if err != nil {
					return err
				}

				w := cmd.Root().Writer
				fmt.Fprintln(w, browser.FormatStats(stats))
				fmt.Fprintln(w, renderSignals(signals))

				return nil
			})
		},
	}
}

func ratesCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "rates",
		Usage: "Recompute the success rate of every channel",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				if err := a.Store.UpdateChannelRates(ctx); err != nil {
					return err
				}

				channels, err := a.Store.ListChannels(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.Root().Writer, renderChannels(channels))

				return nil
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Download a window of candles to a Parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Trading pair, e.g. BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Candle interval (default: evaluator.interval)",
			},
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Window start, RFC 3339 or `YYYY-MM-DD[ HH:MM]` in the reference timezone",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "Window end (default: now)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output `DIR`",
				Value: "data",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			interval := cfg.Interval()
			if cmd.IsSet("interval") {
				if interval, err = marketdata.ParseInterval(cmd.String("interval")); err != nil {
					return err
				}
			}

			start, err := marketdata.ParseTimeIn(cmd.String("start"), loc)
			if err != nil {
				return err
			}

			end := time.Now().UTC()
			if cmd.IsSet("end") {
				if end, err = marketdata.ParseTimeIn(cmd.String("end"), loc); err != nil {
					return err
				}
			}

			log, err := logger.New(cfg.Logger())
			if err != nil {
				return err
			}
			defer log.Sync()

			source, err := provider.NewCandleSource(cfg.Provider(), log.Named("provider"), time.Now)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			bar := progressbar.NewOptions(100,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Downloading "+cmd.String("symbol")),
				progressbar.OptionClearOnFinish(),
			)

			exporter := export.NewExporter(source, func(current, total float64, _ string) {
				if total > 0 {
					_ = bar.Set(int(current / total * 100))
				}
			})

			path, err := exporter.Export(ctx, export.Params{
				Symbol:   cmd.String("symbol"),
				Interval: interval,
				Start:    start,
				End:      end,
				DataPath: cmd.String("out"),
			})
			if err != nil {
				return err
			}

			_ = bar.Finish()
			fmt.Fprintf(w, "Wrote %s\n", path)

			return nil
		},
	}
}

func browseCommand(opts []app.Option) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse channels and signals in the terminal",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Signals listed per channel",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, opts, func(ctx context.Context, a *app.App) error {
				model := browser.NewModel(ctx, a.Store, a.Processor, int(cmd.Int("limit")))

				_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

				return err
			})
		},
	}
}
