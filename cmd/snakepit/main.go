package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/snakepit/agent"
	"github.com/brensch/snakepit/config"
	"github.com/brensch/snakepit/logging"
	"github.com/brensch/snakepit/observer"
	"github.com/brensch/snakepit/replay"
	"github.com/brensch/snakepit/scheduler"
	"github.com/brensch/snakepit/tui"
)

const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
	exitSpawn  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to the YAML game config (built-in defaults when empty)")
	headless := flag.Bool("headless", false, "Run without the terminal UI")
	observe := flag.String("observe", "", "Serve the spectator websocket on this address, e.g. :8080")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "Log format: text, json, pretty")
	logFile := flag.String("log-file", "", "Log file (defaults to snakepit.log when the terminal UI is on)")
	frame := flag.Duration("frame", 16*time.Millisecond, "Interval between scheduler passes")
	flag.Parse()

	var out io.Writer = os.Stderr
	path := *logFile
	if path == "" && !*headless {
		path = "snakepit.log"
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			return exitError
		}
		defer f.Close()
		out = f
	}
	logger, err := logging.New(out, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfig
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return exitConfig
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = play(ctx, cfg, logger, *headless, *observe, *frame)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, agent.ErrSpawn):
		fmt.Fprintf(os.Stderr, "agents: %v\n", err)
		return exitSpawn
	case errors.Is(err, config.ErrInvalid):
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitConfig
	default:
		fmt.Fprintf(os.Stderr, "snakepit: %v\n", err)
		return exitError
	}
}

func play(ctx context.Context, cfg config.Config, logger *slog.Logger, headless bool, observe string, frame time.Duration) error {
	gameID := uuid.NewString()
	logger = logger.With("game", gameID)

	players, agents, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}

	opts := []scheduler.Option{scheduler.WithLogger(logger)}

	if cfg.Replay.Record {
		w, err := replay.Create(cfg.Replay.Dir, gameID, cfg.Replay.Compress,
			replay.HeaderFor(cfg.Grid(), cfg.Food.Lifetime, cfg.Food.Value, players))
		if err != nil {
			closeAgents(agents)
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("close replay", "err", err)
				return
			}
			logger.Info("replay written", "path", w.Path())
		}()
		opts = append(opts, scheduler.WithRecorder(w))
	}

	if observe != "" {
		hub := observer.NewHub(logger)
		obsCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := observer.Serve(obsCtx, observe, hub); err != nil {
				logger.Error("observer stopped", "err", err)
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
		opts = append(opts, scheduler.WithPublisher(hub))
	}

	sched, err := scheduler.New(scheduler.Config{
		GameID:      gameID,
		Rules:       cfg.Rules(),
		MaxTurns:    cfg.Turns,
		Timeout:     cfg.TurnTimeout(),
		Wait:        cfg.Wait,
		EndEarly:    cfg.EndEarly,
		StartPaused: cfg.StartPaused,
		Seed:        cfg.SeedValue(),
	}, cfg.Grid(), players, agents, opts...)
	if err != nil {
		closeAgents(agents)
		return err
	}
	defer sched.Close()

	if headless {
		if err := sched.Run(ctx, frame); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	return tui.Run(ctx, sched, frame)
}
