package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/Harshad725250/Zero-Trust-Multi-Cloud-Framework/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "ztmc",
		Usage:   "Zero-trust multi-cloud access control: policy decisions, enforcement, auto-remediation, and a durable audit trail.",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("ZTMC_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to ztmc.json (defaults to searching parent directories)",
				Sources: cli.EnvVars("ZTMC_CONFIG"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl.Flags.LogLevel = c.String("log-level")
			ctrl.Flags.ConfigPath = c.String("config")
			ctrl.Logger = log.Logger

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the decision API server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "API port (overrides configuration)",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "hot-reload the policy file on change",
						Value: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Serve(ctx, commands.ServeOptions{
						Port:  int(c.Int("port")),
						Watch: c.Bool("watch"),
					})
				},
			},
			{
				Name:      "enforce",
				Usage:     "Enforce a single access request from the command line",
				ArgsUsage: "<user> <action> <resource> <source-ip> <device-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					args := c.Args().Slice()
					if len(args) != 5 {
						return fmt.Errorf("usage: ztmc enforce <user> <action> <resource> <source-ip> <device-id>")
					}
					return ctrl.Enforce(ctx, commands.EnforceOptions{
						User:     args[0],
						Action:   args[1],
						Resource: args[2],
						SourceIP: args[3],
						DeviceID: args[4],
					})
				},
			},
			{
				Name:  "metrics",
				Usage: "Print the current metrics snapshot",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Metrics(ctx)
				},
			},
			{
				Name:  "replay",
				Usage: "Rebuild the metrics file by replaying the audit log",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Replay(ctx)
				},
			},
			{
				Name:  "simulate",
				Usage: "Run synthetic access events through the pipeline",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "count",
						Usage: "number of synthetic requests",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "random seed (0 picks one from the clock)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Simulate(ctx, commands.SimulateOptions{
						Count: int(c.Int("count")),
						Seed:  int64(c.Int("seed")),
					})
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run ztmc")
	}
}
