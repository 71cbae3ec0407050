package game

import "strings"

type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Cardinals lists the four directions in tie-break order.
var Cardinals = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	default:
		return East
	}
}

// Delta is the unit offset of one step in this direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, 1
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// ParseDirection parses a reply token. Accepted (case-insensitive):
// north|n|0, east|e|1, south|s|2, west|w|3.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "0":
		return North, true
	case "east", "e", "1":
		return East, true
	case "south", "s", "2":
		return South, true
	case "west", "w", "3":
		return West, true
	default:
		return North, false
	}
}
