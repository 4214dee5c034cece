package main

import (
	clts "botdash/clients"
	"botdash/config"
	"botdash/internal/app"
	"botdash/internal/ui"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "botdash",
		Usage: "Live dashboard for a trading bot's socket feed and stats endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (overrides BOTDASH_CONFIG)",
			},
			&cli.StringFlag{
				Name:  "socket-url",
				Usage: "Base URL of the bot's Socket.IO server",
			},
			&cli.StringFlag{
				Name:  "stats-url",
				Usage: "Base URL serving /api/stats",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Stats poll interval",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "Run without the terminal UI",
			},
		},
		Action: runAction,
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" {
		os.Setenv("BOTDASH_CONFIG", path)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd, cfg)

	if err := cfg.Validate().Err(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting botdash",
		zap.Bool("isProd", cfg.IsProd),
		zap.Bool("headless", cfg.UI.Headless),
	)

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)
	defer clients.Close()

	runner := app.NewRunner(clients, cfg)

	if cfg.UI.Headless {
		return runner.Run(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(runCtx) }()

	uiErr := ui.Run(runCtx, runner.Board(), runner.Refresh)
	cancel()

	if err := <-errCh; err != nil {
		return err
	}
	return uiErr
}

// applyFlags overrides loaded config with explicitly set flags.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("socket-url") {
		cfg.Socket.URL = cmd.String("socket-url")
	}
	if cmd.IsSet("stats-url") {
		cfg.Stats.BaseURL = cmd.String("stats-url")
	}
	if cmd.IsSet("interval") {
		cfg.Stats.PollInterval = cmd.Duration("interval")
	}
	if cmd.IsSet("headless") {
		cfg.UI.Headless = cmd.Bool("headless")
	}
}

// newLogger writes to stderr when headless and to the log file while the
// terminal UI owns the screen.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.UI.Headless || cfg.UI.LogFile == "" {
		return zap.NewProduction()
	}

	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{cfg.UI.LogFile}
	zc.ErrorOutputPaths = []string{cfg.UI.LogFile}
	return zc.Build()
}
