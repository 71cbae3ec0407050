// Package agent holds the sources of move intents: the builtin utility AI,
// keyboard bindings, uniform random moves, and external processes speaking
// the line protocol over stdin/stdout.
package agent

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/brensch/snakepit/game"
)

// Kind is the closed set of agent variants. Dispatch happens once per turn
// with a switch over Kind.
type Kind uint8

const (
	KindBuiltin Kind = iota
	KindKeyboard
	KindRandom
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindKeyboard:
		return "keyboard"
	case KindRandom:
		return "random"
	case KindExternal:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind accepts the config tags builtin, keyboard, random and custom
// (external is accepted as an alias of custom).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "builtin":
		return KindBuiltin, nil
	case "keyboard":
		return KindKeyboard, nil
	case "random":
		return KindRandom, nil
	case "custom", "external":
		return KindExternal, nil
	}
	return 0, fmt.Errorf("unknown agent type %q", s)
}

type Difficulty uint8

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", uint8(d))
	}
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// DefaultKeys are the arrow keys as reported by the terminal.
var DefaultKeys = map[string]game.Direction{
	"up":    game.North,
	"right": game.East,
	"down":  game.South,
	"left":  game.West,
}

// Agent is one player's intent source. Only the fields of its Kind are set.
type Agent struct {
	Kind Kind

	// KindBuiltin
	Difficulty Difficulty

	// KindKeyboard
	Keys    map[string]game.Direction
	pending *game.Direction

	// KindRandom
	rng *rand.Rand

	// KindExternal
	Channel *Channel
}

func NewBuiltin(d Difficulty) *Agent {
	return &Agent{Kind: KindBuiltin, Difficulty: d}
}

// NewKeyboard binds terminal key names to directions. A nil map uses
// DefaultKeys.
func NewKeyboard(keys map[string]game.Direction) *Agent {
	if keys == nil {
		keys = DefaultKeys
	}
	return &Agent{Kind: KindKeyboard, Keys: keys}
}

func NewRandom(rng *rand.Rand) *Agent {
	return &Agent{Kind: KindRandom, rng: rng}
}

func NewExternal(ch *Channel) *Agent {
	return &Agent{Kind: KindExternal, Channel: ch}
}

// Press records key if it is bound. Later presses in the same turn replace
// earlier ones.
func (a *Agent) Press(key string) bool {
	if a.Kind != KindKeyboard {
		return false
	}
	d, ok := a.Keys[key]
	if !ok {
		return false
	}
	a.pending = &d
	return true
}

// TakeKey returns and clears the pending key press.
func (a *Agent) TakeKey() (game.Direction, bool) {
	if a.pending == nil {
		return 0, false
	}
	d := *a.pending
	a.pending = nil
	return d, true
}

// RandomDirection picks any cardinal, legal or not; the fixup stage corrects
// reversals.
func (a *Agent) RandomDirection() game.Direction {
	return game.Cardinals[a.rng.Intn(len(game.Cardinals))]
}
