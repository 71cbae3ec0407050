package rules

import (
	"errors"
	"math"
	"math/rand"

	"github.com/brensch/snakepit/game"
)

// FoodSettings are the food defaults shared with external agents in the
// handshake.
//   - Lifetime: turns a fresh food lasts before rotting away
//   - Value: growth for eating fresh food; fully rotten food shrinks by Value
type FoodSettings struct {
	Lifetime int
	Value    int
}

var DefaultFoodSettings = FoodSettings{Lifetime: 50, Value: 5}

// Despawned tracks entities removed during the current turn so a food that
// several snakes reach at once, or that is eaten and then rots, is removed
// exactly once.
type Despawned map[game.EntityID]struct{}

// Remove despawns id unless it was already removed this turn.
func (d Despawned) Remove(a *game.Arena, id game.EntityID) bool {
	if _, done := d[id]; done {
		return false
	}
	d[id] = struct{}{}
	return a.Despawn(id)
}

// Growth is the length change for eating f: Value scaled linearly from +1 on
// fresh food down to -1 on food that has fully rotted.
func Growth(f *game.Food, value int) int {
	factor := f.Fraction()*2 - 1
	return int(math.Round(float64(value) * factor))
}

// SpawnFood places one food on a random free cell if the arena has none.
// It reports whether food was placed. A full grid is not an error for the
// caller to act on; it simply means no food this turn.
func SpawnFood(a *game.Arena, rng *rand.Rand, settings FoodSettings) (bool, error) {
	if a.FoodCount() > 0 {
		return false, nil
	}
	pos, err := a.Grid.RandomUnoccupied(a.Occupied(), rng)
	if errors.Is(err, game.ErrGridFull) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	a.AddFood(pos, settings.Lifetime)
	return true, nil
}

// Feed applies food under each snake head. Every snake on a food cell gets
// the growth; the food itself is despawned once. A shrink larger than the
// snake's target length produces a starvation death instead of a negative
// length.
func Feed(a *game.Arena, settings FoodSettings, despawned Despawned) []DeathEvent {
	foodAt := make(map[game.Point]*game.Food, a.FoodCount())
	for _, f := range a.Food() {
		if e, ok := a.Entity(f.ID); ok {
			foodAt[e.Pos] = f
		}
	}

	var events []DeathEvent
	eaten := make([]*game.Food, 0, 1)
	for _, s := range a.Snakes() {
		f, ok := foodAt[a.HeadOf(s)]
		if !ok {
			continue
		}
		growth := Growth(f, settings.Value)
		if s.Length+growth < 0 {
			events = append(events, DeathEvent{Target: s.Owner, Culprit: game.NoPlayer, Cause: CauseStarved})
		} else {
			s.Length += growth
		}
		eaten = append(eaten, f)
	}
	for _, f := range eaten {
		despawned.Remove(a, f.ID)
	}
	return events
}

// Rot ages every food by one turn and despawns food whose remaining lifetime
// drops below zero. Food with a non-positive initial lifetime never rots.
func Rot(a *game.Arena, despawned Despawned) {
	for _, f := range a.Food() {
		if f.Initial <= 0 {
			continue
		}
		f.Remaining--
		if f.Remaining < 0 {
			despawned.Remove(a, f.ID)
		}
	}
}
