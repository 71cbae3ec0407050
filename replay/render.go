package replay

import (
	"fmt"
	"strings"

	"github.com/brensch/snakepit/game"
)

// Render draws a frame as text with north at the top. Heads are the
// player's id digit (base 36), bodies are '#', food is '*'.
func Render(h Header, f Frame) string {
	cells := make([][]byte, h.Height)
	for y := range cells {
		cells[y] = []byte(strings.Repeat(".", h.Width))
	}
	set := func(p game.Point, c byte) {
		if p.X >= 0 && p.X < h.Width && p.Y >= 0 && p.Y < h.Height {
			cells[p.Y][p.X] = c
		}
	}
	for _, fd := range f.Food {
		set(fd.Pos, '*')
	}
	for _, s := range f.Snakes {
		for i, p := range s.Body {
			if i == 0 {
				set(p, headGlyph(s.ID))
			} else {
				set(p, '#')
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "turn %d  food=%d  snakes=%d\n", f.Turn, len(f.Food), len(f.Snakes))
	for y := h.Height - 1; y >= 0; y-- {
		b.Write(cells[y])
		b.WriteByte('\n')
	}
	return b.String()
}

func headGlyph(id game.PlayerID) byte {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if id >= 0 && int(id) < len(digits) {
		return digits[id]
	}
	return '@'
}
