// Package config loads the game settings from YAML. A document is first
// checked against an embedded JSON schema, then decoded over the defaults
// and validated semantically.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/brensch/snakepit/agent"
	"github.com/brensch/snakepit/game"
	"github.com/brensch/snakepit/rules"
)

// ErrInvalid wraps every schema and semantic validation failure.
var ErrInvalid = errors.New("invalid config")

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

type Config struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Seed        string `yaml:"seed"`
	Turns       int    `yaml:"turns"`
	Timeout     int    `yaml:"timeout"` // milliseconds, 0 = lock-step
	Wait        bool   `yaml:"wait"`
	EndEarly    bool   `yaml:"end_early"`
	StartPaused bool   `yaml:"start_paused"`
	Respawn     int    `yaml:"respawn"`
	SnakeLength int    `yaml:"snake_length"`
	Food        Food   `yaml:"food"`
	Replay      Replay `yaml:"replay"`

	Players []Player `yaml:"-"`
}

type Food struct {
	Lifetime int `yaml:"lifetime"`
	Value    int `yaml:"value"`
}

type Replay struct {
	Record   bool   `yaml:"record"`
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
}

// Player is one entry of the players list. Name comes from the entry's
// single key.
type Player struct {
	Name       string            `yaml:"-"`
	Type       string            `yaml:"type"`
	Difficulty string            `yaml:"difficulty"`
	Executable string            `yaml:"executable"`
	Args       []string          `yaml:"args"`
	Silent     bool              `yaml:"silent"`
	Color      string            `yaml:"color"`
	Keys       map[string]string `yaml:"keys"`
}

// document mirrors the YAML layout, where players is a list of single-key
// maps so the order is kept.
type document struct {
	Config  `yaml:",inline"`
	Players []map[string]Player `yaml:"players"`
}

func Default() Config {
	return Config{
		Width:       32,
		Height:      32,
		Turns:       1500,
		Timeout:     100,
		Respawn:     10,
		SnakeLength: 5,
		Food:        Food{Lifetime: 50, Value: 5},
		Replay:      Replay{Dir: "replays"},
		Players: []Player{
			{Name: "random", Type: "random"},
			{Name: "easy", Type: "builtin", Difficulty: "easy"},
			{Name: "medium", Type: "builtin", Difficulty: "medium"},
			{Name: "hard", Type: "builtin", Difficulty: "hard"},
		},
	}
}

func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates raw against the schema, decodes it over Default and runs
// Validate. An empty document yields the defaults.
func Parse(raw []byte) (Config, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Config{}, fmt.Errorf("%w: yaml: %w", ErrInvalid, err)
	}
	if generic == nil {
		generic = map[string]any{}
	}
	if err := validateSchema(generic); err != nil {
		return Config{}, err
	}

	doc := document{Config: Default()}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("%w: yaml: %w", ErrInvalid, err)
	}
	cfg := doc.Config
	if doc.Players != nil {
		cfg.Players = cfg.Players[:0:0]
		for _, entry := range doc.Players {
			for name, p := range entry {
				p.Name = name
				cfg.Players = append(cfg.Players, p)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validateSchema re-encodes the YAML tree as JSON so numbers reach the
// validator as json.Number.
func validateSchema(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Validate checks the rules the schema cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Width, c.Height))
	}
	if c.Turns < 1 {
		errs = append(errs, fmt.Errorf("turns must be at least 1, got %d", c.Turns))
	}
	if c.Timeout < 0 || c.Respawn < 0 {
		errs = append(errs, errors.New("timeout and respawn must not be negative"))
	}
	if c.SnakeLength < 1 {
		errs = append(errs, fmt.Errorf("snake_length must be at least 1, got %d", c.SnakeLength))
	}
	if c.Food.Lifetime < 0 || c.Food.Value < 0 {
		errs = append(errs, errors.New("food lifetime and value must not be negative"))
	}
	if len(c.Players) == 0 {
		errs = append(errs, errors.New("at least one player is required"))
	}
	if len(c.Players) > c.Width*c.Height-1 && c.Width > 0 && c.Height > 0 {
		errs = append(errs, fmt.Errorf("%d players do not fit on a %dx%d grid with food", len(c.Players), c.Width, c.Height))
	}

	seen := make(map[string]bool, len(c.Players))
	for i, p := range c.Players {
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("player %d: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
		if err := p.validate(); err != nil {
			errs = append(errs, fmt.Errorf("player %q: %w", p.Name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (p Player) validate() error {
	kind, err := agent.ParseKind(p.Type)
	if err != nil {
		return err
	}
	switch kind {
	case agent.KindBuiltin:
		_, err = agent.ParseDifficulty(p.Difficulty)
	case agent.KindKeyboard:
		_, err = p.KeyBindings()
	case agent.KindExternal:
		if p.Executable == "" {
			err = errors.New("custom player needs an executable")
		}
	case agent.KindRandom:
	}
	if err != nil {
		return err
	}
	if p.Color != "" {
		if _, err := ParseColor(p.Color); err != nil {
			return err
		}
	}
	return nil
}

// KeyBindings turns the keys table (direction -> key name) into the
// key -> direction map keyboard agents use. Missing entries fall back to
// the arrow keys.
func (p Player) KeyBindings() (map[string]game.Direction, error) {
	if len(p.Keys) == 0 {
		return agent.DefaultKeys, nil
	}
	bound := make(map[game.Direction]string, len(p.Keys))
	for name, key := range p.Keys {
		d, ok := game.ParseDirection(name)
		if !ok {
			return nil, fmt.Errorf("unknown direction %q in keys", name)
		}
		if _, dup := bound[d]; dup {
			return nil, fmt.Errorf("direction %v bound more than once in keys", d)
		}
		bound[d] = key
	}

	out := make(map[string]game.Direction, len(game.Cardinals))
	for _, d := range game.Cardinals {
		key, ok := bound[d]
		if !ok {
			for k, dd := range agent.DefaultKeys {
				if dd == d {
					key = k
				}
			}
		}
		if prev, dup := out[key]; dup {
			return nil, fmt.Errorf("key %q bound to both %v and %v", key, prev, d)
		}
		out[key] = d
	}
	return out, nil
}

func (c Config) Grid() game.Grid { return game.Grid{Width: c.Width, Height: c.Height} }

func (c Config) TurnTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

func (c Config) Rules() rules.Settings {
	return rules.Settings{
		Food:         rules.FoodSettings{Lifetime: c.Food.Lifetime, Value: c.Food.Value},
		RespawnDelay: c.Respawn,
		SnakeLength:  c.SnakeLength,
	}
}

// SeedValue hashes the seed string into the arena RNG seed. An empty seed
// uses the current time.
func (c Config) SeedValue() int64 {
	if c.Seed == "" {
		return time.Now().UnixNano()
	}
	return hashSeed(c.Seed)
}

// PlayerSeed derives an independent RNG seed for player i.
func (c Config) PlayerSeed(i int) int64 {
	if c.Seed == "" {
		return time.Now().UnixNano() + int64(i)
	}
	return hashSeed(c.Seed + ":" + strconv.Itoa(i))
}

func hashSeed(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

// Color returns player i's configured colour or the palette default.
func (c Config) Color(i int) string {
	if i < len(c.Players) && c.Players[i].Color != "" {
		return c.Players[i].Color
	}
	return Palette[i%len(Palette)]
}
