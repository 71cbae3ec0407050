// Package scheduler drives the arena one turn at a time. Each call to Pass
// evaluates turn readiness and then runs an ordered list of stages:
// pre-turn, request, post-request, simulate and post-simulate. The first two
// run while intents are being gathered; the last three only once the turn is
// ready.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/snakepit/agent"
	"github.com/brensch/snakepit/game"
	"github.com/brensch/snakepit/rules"
)

// Recorder persists each resolved turn.
type Recorder interface {
	Record(game.Snapshot) error
}

// Publisher receives each resolved turn for spectators. It must not block.
type Publisher interface {
	Publish(game.Snapshot)
}

type Config struct {
	GameID      string
	Rules       rules.Settings
	MaxTurns    int
	Timeout     time.Duration
	Wait        bool
	EndEarly    bool
	StartPaused bool
	Seed        int64
}

type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) { s.publishers = append(s.publishers, p) }
}

type stage struct {
	name string
	when func(*Turn) bool
	run  func(*Scheduler)
}

func always(*Turn) bool           { return true }
func whileGathering(t *Turn) bool { return !t.Requested }
func whenReady(t *Turn) bool      { return t.Ready }

var pipeline = []stage{
	{name: "pre-turn", when: whileGathering, run: (*Scheduler).preTurn},
	{name: "request", when: always, run: (*Scheduler).request},
	{name: "post-request", when: whenReady, run: (*Scheduler).postRequest},
	{name: "simulate", when: whenReady, run: (*Scheduler).simulate},
	{name: "post-simulate", when: whenReady, run: (*Scheduler).postSimulate},
}

// Scheduler owns the arena, the turn state and every agent. It is not safe
// for concurrent use: one goroutine calls Pass and the control methods.
type Scheduler struct {
	cfg        Config
	arena      *game.Arena
	agents     []*agent.Agent
	turn       *Turn
	intents    rules.Intents
	rng        *rand.Rand
	logger     *slog.Logger
	recorder   Recorder
	publishers []Publisher

	paused   bool
	stepping bool
	started  bool
	closed   bool
	last     game.Snapshot
	deaths   []rules.DeathEvent
}

// New builds a scheduler. agents[i] drives players[i]; both slices must be
// the same length.
func New(cfg Config, grid game.Grid, players []*game.Player, agents []*agent.Agent, opts ...Option) (*Scheduler, error) {
	if len(players) != len(agents) {
		return nil, fmt.Errorf("scheduler: %d players but %d agents", len(players), len(agents))
	}
	for i, ag := range agents {
		if ag == nil {
			return nil, fmt.Errorf("scheduler: player %d has no agent", i)
		}
		if ag.Kind == agent.KindExternal && ag.Channel == nil {
			return nil, fmt.Errorf("scheduler: external player %d has no channel", i)
		}
	}

	s := &Scheduler{
		cfg:     cfg,
		arena:   game.NewArena(grid, players),
		agents:  agents,
		turn:    NewTurn(cfg.MaxTurns, cfg.Timeout, PolicyFor(cfg.Timeout, cfg.Wait, cfg.EndEarly)),
		intents: make(rules.Intents, len(players)),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		paused:  cfg.StartPaused,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.last = s.snapshot()
	return s, nil
}

func (s *Scheduler) Arena() *game.Arena { return s.arena }
func (s *Scheduler) Turn() *Turn        { return s.turn }

// Snapshot is the arena as of the last resolved turn.
func (s *Scheduler) Snapshot() game.Snapshot { return s.last }

// LastDeaths are the deaths applied in the last resolved turn.
func (s *Scheduler) LastDeaths() []rules.DeathEvent { return s.deaths }

func (s *Scheduler) Finished() bool { return s.turn.Finished() }
func (s *Scheduler) Paused() bool   { return s.paused }
func (s *Scheduler) Pause()         { s.paused = true }

func (s *Scheduler) Resume() {
	s.paused = false
	s.stepping = false
}

// Step resolves exactly one more turn and then pauses again.
func (s *Scheduler) Step() {
	if s.paused {
		s.stepping = true
	}
}

// PressKey hands a terminal key to every keyboard agent bound to it.
func (s *Scheduler) PressKey(key string) bool {
	hit := false
	for _, ag := range s.agents {
		if ag.Kind == agent.KindKeyboard && ag.Press(key) {
			hit = true
		}
	}
	return hit
}

// Start sends the handshake to every external agent. It must be called
// once before the first Pass.
func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true
	for i, ag := range s.agents {
		if ag.Kind != agent.KindExternal {
			continue
		}
		ag.Channel.Send(agent.Handshake(agent.HandshakeInfo{
			Width:         s.arena.Grid.Width,
			Height:        s.arena.Grid.Height,
			FoodLifetime:  s.cfg.Rules.Food.Lifetime,
			FoodValue:     s.cfg.Rules.Food.Value,
			Players:       len(s.agents),
			ID:            game.PlayerID(i),
			MaxTurns:      s.cfg.MaxTurns,
			TimeoutMillis: s.turn.HandshakeTimeout(),
		}))
	}
	s.logger.Info("game started",
		"game", s.cfg.GameID,
		"players", len(s.agents),
		"policy", s.turn.Policy.String(),
		"timeout", s.turn.Timeout,
		"turns", s.cfg.MaxTurns)
}

// Pass advances the turn timer by dt and runs one pass of the stage
// pipeline. It reports whether a turn was resolved.
func (s *Scheduler) Pass(dt time.Duration) bool {
	if !s.started {
		s.Start()
	}
	if s.closed || s.turn.Finished() {
		return false
	}
	if s.paused && !s.stepping {
		return false
	}

	s.turn.Tick(dt)
	s.turn.Evaluate(s.allReady())
	for _, st := range pipeline {
		if st.when(s.turn) {
			st.run(s)
		}
	}
	if !s.turn.Ready {
		return false
	}

	s.endTurn()
	return true
}

// allReady reports whether every live snake has an intent. With no live
// snakes it is vacuously true so respawn timers keep running in lock-step.
func (s *Scheduler) allReady() bool {
	for _, sn := range s.arena.Snakes() {
		if _, ok := s.intents[sn.Owner]; !ok {
			return false
		}
	}
	return true
}

// preTurn spawns food first, then places every player whose respawn
// countdown has run out.
func (s *Scheduler) preTurn() {
	if ok, err := rules.SpawnFood(s.arena, s.rng, s.cfg.Rules.Food); err != nil {
		s.logger.Warn("food spawn failed", "err", err)
	} else if ok {
		s.logger.Debug("food spawned", "turn", s.turn.Current)
	}

	placed, err := rules.Respawn(s.arena, s.rng, s.cfg.Rules.SnakeLength)
	for _, id := range placed {
		s.logger.Debug("player spawned", "player", id, "turn", s.turn.Current)
	}
	if errors.Is(err, game.ErrGridFull) {
		s.logger.Warn("no free cell to respawn, retrying next turn", "turn", s.turn.Current)
	}
}

func (s *Scheduler) request() {
	if !s.turn.Requested {
		var encoded string
		for i, ag := range s.agents {
			id := game.PlayerID(i)
			switch ag.Kind {
			case agent.KindBuiltin:
				if sn, ok := s.arena.Snake(id); ok {
					s.intents[id] = agent.Builtin(s.arena, sn, ag.Difficulty)
				}
			case agent.KindRandom:
				if _, ok := s.arena.Snake(id); ok {
					s.intents[id] = ag.RandomDirection()
				}
			case agent.KindExternal:
				if encoded == "" {
					encoded = agent.EncodeSnapshot(s.arena.Snapshot(s.turn.Current))
				}
				if !ag.Channel.Send(encoded) {
					s.logger.Debug("snapshot not delivered", "player", id, "turn", s.turn.Current)
				}
			case agent.KindKeyboard:
			}
		}
		s.turn.Requested = true
	}

	for i, ag := range s.agents {
		id := game.PlayerID(i)
		var (
			d  game.Direction
			ok bool
		)
		switch ag.Kind {
		case agent.KindExternal:
			d, ok = ag.Channel.TryRecv()
		case agent.KindKeyboard:
			d, ok = ag.TakeKey()
		case agent.KindBuiltin, agent.KindRandom:
			continue
		}
		if !ok {
			continue
		}
		if _, alive := s.arena.Snake(id); alive {
			s.intents[id] = d
		}
	}
}

func (s *Scheduler) postRequest() {
	rules.FixupIntents(s.arena, s.intents)
}

func (s *Scheduler) simulate() {
	rules.Slither(s.arena, s.intents)
	clear(s.intents)
}

func (s *Scheduler) postSimulate() {
	s.deaths = rules.Resolve(s.arena, s.cfg.Rules)
	for _, d := range s.deaths {
		s.logger.Info("player died",
			"turn", s.turn.Current,
			"player", d.Target,
			"culprit", d.Culprit,
			"cause", d.Cause.String())
	}
}

func (s *Scheduler) snapshot() game.Snapshot {
	snap := s.arena.Snapshot(s.turn.Current)
	snap.GameID = s.cfg.GameID
	return snap
}

func (s *Scheduler) endTurn() {
	s.last = s.snapshot()
	if s.recorder != nil {
		if err := s.recorder.Record(s.last); err != nil {
			s.logger.Error("record turn", "turn", s.turn.Current, "err", err)
		}
	}
	for _, p := range s.publishers {
		p.Publish(s.last)
	}

	s.turn.End()
	if s.stepping {
		s.stepping = false
		s.paused = true
	}
	if s.turn.Finished() {
		s.logGameOver()
	}
}

func (s *Scheduler) logGameOver() {
	for rank, p := range rules.Ranking(s.arena) {
		s.logger.Info("final score",
			"rank", rank+1,
			"player", p.Name,
			"max_length", p.Score.MaxLength,
			"kills", p.Score.Kills,
			"deaths", p.Score.Deaths,
			"current_length", p.Score.CurrentLength)
	}
}

// Run drives Pass from a ticker until the game finishes or ctx is
// cancelled, then tears the agents down.
func (s *Scheduler) Run(ctx context.Context, frame time.Duration) error {
	if frame <= 0 {
		frame = 5 * time.Millisecond
	}
	defer s.Close()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for !s.turn.Finished() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Pass(now.Sub(last))
			last = now
		}
	}
	return nil
}

// Close tears down every external agent. Further passes do nothing.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var chans []*agent.Channel
	for _, ag := range s.agents {
		if ag.Kind == agent.KindExternal {
			chans = append(chans, ag.Channel)
		}
	}
	return agent.CloseAll(chans)
}
