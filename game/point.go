// Package game defines the arena state for a multiplayer snake match.
//
// The Arena owns every entity on the board (snake heads, body segments and
// food) by stable integer id. Snakes refer to their segments by id only, so
// there are no pointer links between entities and no ownership cycles.
//
// Coordinates follow the usual board convention: (0,0) is bottom-left and
// North increases Y.
package game

// Point is a board coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the neighbouring point in direction d.
func (p Point) Step(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Distance is the Manhattan distance between two points.
func (p Point) Distance(o Point) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
