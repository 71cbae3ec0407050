package rules

import (
	"fmt"

	"github.com/brensch/snakepit/game"
)

type Cause uint8

const (
	CauseWall Cause = iota
	CauseSnake
	CauseSelf
	CauseStarved
)

func (c Cause) String() string {
	switch c {
	case CauseWall:
		return "wall"
	case CauseSnake:
		return "snake"
	case CauseSelf:
		return "self"
	case CauseStarved:
		return "starved"
	default:
		return fmt.Sprintf("cause(%d)", uint8(c))
	}
}

// DeathEvent records that Target must die this turn. Culprit is
// game.NoPlayer for walls, self collisions and starvation.
type DeathEvent struct {
	Target  game.PlayerID
	Culprit game.PlayerID
	Cause   Cause
}

// DetectCollisions checks every head against the grid bounds and every other
// non-food entity. It only reads the arena; events are applied later as a
// batch by ResolveDeaths, so the order of checks cannot change who dies.
func DetectCollisions(a *game.Arena) []DeathEvent {
	byCell := make(map[game.Point][]game.Entity)
	for _, e := range a.Entities() {
		if e.Kind == game.KindFood {
			continue
		}
		byCell[e.Pos] = append(byCell[e.Pos], e)
	}

	var events []DeathEvent
	for _, s := range a.Snakes() {
		head := a.HeadOf(s)
		if !a.Grid.Contains(head) {
			events = append(events, DeathEvent{Target: s.Owner, Culprit: game.NoPlayer, Cause: CauseWall})
			continue
		}
		for _, e := range byCell[head] {
			if e.ID == s.Head {
				continue
			}
			if e.Owner == s.Owner {
				events = append(events, DeathEvent{Target: s.Owner, Culprit: game.NoPlayer, Cause: CauseSelf})
			} else {
				events = append(events, DeathEvent{Target: s.Owner, Culprit: e.Owner, Cause: CauseSnake})
			}
			break
		}
	}
	return events
}
