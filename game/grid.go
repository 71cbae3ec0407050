package game

import (
	"errors"
	"math/rand"
)

// ErrGridFull is returned when no unoccupied cell exists.
var ErrGridFull = errors.New("grid has no unoccupied cell")

// Grid is the size policy of the arena. It holds no entities.
type Grid struct {
	Width  int
	Height int
}

func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

func (g Grid) Cells() int {
	return g.Width * g.Height
}

// RandomUnoccupied draws cells uniformly until it finds one that is not in
// occupied. After 4*Cells() failed draws it falls back to scanning the whole
// grid, so a full grid yields ErrGridFull instead of spinning forever.
func (g Grid) RandomUnoccupied(occupied map[Point]struct{}, rng *rand.Rand) (Point, error) {
	if g.Width <= 0 || g.Height <= 0 {
		return Point{}, ErrGridFull
	}

	for attempt := 0; attempt < 4*g.Cells(); attempt++ {
		p := Point{X: rng.Intn(g.Width), Y: rng.Intn(g.Height)}
		if _, taken := occupied[p]; !taken {
			return p, nil
		}
	}

	free := make([]Point, 0, max(0, g.Cells()-len(occupied)))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p := Point{X: x, Y: y}
			if _, taken := occupied[p]; !taken {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return Point{}, ErrGridFull
	}
	return free[rng.Intn(len(free))], nil
}
