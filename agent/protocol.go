package agent

import (
	"strconv"
	"strings"

	"github.com/brensch/snakepit/game"
)

// HandshakeInfo is what an external agent learns once, before its first
// snapshot.
type HandshakeInfo struct {
	Width, Height int
	FoodLifetime  int
	FoodValue     int
	Players       int
	ID            game.PlayerID
	MaxTurns      int
	// TimeoutMillis is -1 in lock-step mode.
	TimeoutMillis int64
}

// Handshake encodes
//
//	<width> <height>
//	<food lifetime> <food value>
//	<player count> <your id>
//	<max turns> <timeout ms>
func Handshake(h HandshakeInfo) string {
	var b strings.Builder
	writeInts(&b, h.Width, h.Height)
	writeInts(&b, h.FoodLifetime, h.FoodValue)
	writeInts(&b, h.Players, int(h.ID))
	b.WriteString(strconv.Itoa(h.MaxTurns))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(h.TimeoutMillis, 10))
	b.WriteByte('\n')
	return b.String()
}

// EncodeSnapshot encodes one turn as
//
//	<food count>
//	<lifetime> <x> <y>                        (per food)
//	<id> <kills> <deaths> <length> [<x> <y>]* (per player, ascending id, head first)
//
// Dead players are sent with length 0 and no cells.
func EncodeSnapshot(s game.Snapshot) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(s.Food)))
	b.WriteByte('\n')
	for _, f := range s.Food {
		writeInts(&b, f.Lifetime, f.Pos.X, f.Pos.Y)
	}
	for _, p := range s.Players {
		b.WriteString(strconv.Itoa(int(p.ID)))
		for _, v := range []int{p.Score.Kills, p.Score.Deaths, len(p.Body)} {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(v))
		}
		for _, c := range p.Body {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(c.X))
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(c.Y))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func writeInts(b *strings.Builder, vs ...int) {
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('\n')
}
