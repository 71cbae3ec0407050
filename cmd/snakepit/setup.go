package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/brensch/snakepit/agent"
	"github.com/brensch/snakepit/config"
	"github.com/brensch/snakepit/game"
)

// setup turns the configured player list into arena players and their
// agents. External agents are started concurrently; if any fails to start
// the others are shut down again.
func setup(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]*game.Player, []*agent.Agent, error) {
	players := make([]*game.Player, len(cfg.Players))
	agents := make([]*agent.Agent, len(cfg.Players))

	var cmds []agent.Command
	var external []int
	for i, pc := range cfg.Players {
		kind, err := agent.ParseKind(pc.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("player %q: %w", pc.Name, err)
		}
		players[i] = game.NewPlayer(pc.Name, cfg.Color(i), kind.String())

		switch kind {
		case agent.KindBuiltin:
			d, err := agent.ParseDifficulty(pc.Difficulty)
			if err != nil {
				return nil, nil, fmt.Errorf("player %q: %w", pc.Name, err)
			}
			agents[i] = agent.NewBuiltin(d)
		case agent.KindKeyboard:
			keys, err := pc.KeyBindings()
			if err != nil {
				return nil, nil, fmt.Errorf("player %q: %w", pc.Name, err)
			}
			agents[i] = agent.NewKeyboard(keys)
		case agent.KindRandom:
			agents[i] = agent.NewRandom(rand.New(rand.NewSource(cfg.PlayerSeed(i))))
		case agent.KindExternal:
			cmds = append(cmds, agent.Command{
				Name:       pc.Name,
				Executable: pc.Executable,
				Args:       pc.Args,
				Options: agent.Options{
					Silent: pc.Silent,
					Logger: logger.With("player", pc.Name),
				},
			})
			external = append(external, i)
		}
	}

	if len(cmds) > 0 {
		chans, err := agent.SpawnAll(ctx, cmds)
		if err != nil {
			return nil, nil, err
		}
		for j, i := range external {
			agents[i] = agent.NewExternal(chans[j])
		}
		logger.Info("external agents started", "count", len(chans))
	}
	return players, agents, nil
}

func closeAgents(agents []*agent.Agent) {
	var chans []*agent.Channel
	for _, ag := range agents {
		if ag != nil && ag.Channel != nil {
			chans = append(chans, ag.Channel)
		}
	}
	agent.CloseAll(chans)
}
