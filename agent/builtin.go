package agent

import (
	"math"
	"sort"

	"github.com/brensch/snakepit/game"
)

const (
	outOfBoundsPenalty = 500
	occupiedPenalty    = 1000
	neighbourPenalty   = 5
)

// Builtin picks s's next direction by utility. Every difficulty walks
// towards the nearest food. Medium and hard add a bonus for food with a lot
// of lifetime left and a heavy penalty for stepping off the grid or onto a
// snake. Hard also avoids cells whose neighbours are crowded.
//
// Candidates are the legal cardinals in N, E, S, W order, sorted stably by
// utility; the last of the best wins. A snake with no legal move goes east.
func Builtin(a *game.Arena, s *game.Snake, d Difficulty) game.Direction {
	snakeCells := make(map[game.Point]struct{})
	for _, e := range a.Entities() {
		if e.Kind != game.KindFood {
			snakeCells[e.Pos] = struct{}{}
		}
	}
	type food struct {
		pos       game.Point
		remaining int
	}
	var foods []food
	for _, f := range a.Food() {
		if e, ok := a.Entity(f.ID); ok {
			foods = append(foods, food{pos: e.Pos, remaining: f.Remaining})
		}
	}

	blocked := func(p game.Point) bool {
		_, taken := snakeCells[p]
		return taken
	}

	head := a.HeadOf(s)
	utility := func(dir game.Direction) int {
		next := head.Step(dir)
		u := 0

		best := -1
		bestDist := math.MaxInt
		for i, f := range foods {
			if dist := f.pos.Distance(next); dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best >= 0 {
			u -= bestDist
			if d >= Medium {
				u += foods[best].remaining/10 - bestDist
			}
		}

		if d >= Medium {
			if !a.Grid.Contains(next) {
				u -= outOfBoundsPenalty
			} else if blocked(next) {
				u -= occupiedPenalty
			}
		}

		if d >= Hard {
			crowd := 0.0
			for _, nd := range game.Cardinals {
				nn := next.Step(nd)
				switch {
				case !a.Grid.Contains(nn):
					crowd += 0.25
				case blocked(nn):
					crowd += 1
				default:
					crowd -= 0.25
				}
			}
			u -= neighbourPenalty * int(math.Round(crowd))
		}
		return u
	}

	options := make([]game.Direction, 0, len(game.Cardinals))
	scores := make(map[game.Direction]int, len(game.Cardinals))
	for _, dir := range game.Cardinals {
		if s.CanMove(dir) {
			options = append(options, dir)
			scores[dir] = utility(dir)
		}
	}
	if len(options) == 0 {
		return game.East
	}
	sort.SliceStable(options, func(i, j int) bool { return scores[options[i]] < scores[options[j]] })
	return options[len(options)-1]
}
