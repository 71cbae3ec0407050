package agent

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brensch/snakepit/game"
)

// Decoder reads the agent side of the protocol: one handshake, then one
// snapshot per turn.
type Decoder struct {
	sc   *bufio.Scanner
	info HandshakeInfo
	turn int
}

func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Decoder{sc: sc}
}

func (d *Decoder) ints(want int) ([]int64, error) {
	if !d.sc.Scan() {
		if err := d.sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	fields := strings.Fields(d.sc.Text())
	if want >= 0 && len(fields) != want {
		return nil, fmt.Errorf("protocol: want %d fields, got %q", want, d.sc.Text())
	}
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("protocol: %w", err)
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) Handshake() (HandshakeInfo, error) {
	var lines [4][]int64
	for i := range lines {
		v, err := d.ints(2)
		if err != nil {
			return HandshakeInfo{}, fmt.Errorf("handshake line %d: %w", i+1, err)
		}
		lines[i] = v
	}
	d.info = HandshakeInfo{
		Width:         int(lines[0][0]),
		Height:        int(lines[0][1]),
		FoodLifetime:  int(lines[1][0]),
		FoodValue:     int(lines[1][1]),
		Players:       int(lines[2][0]),
		ID:            game.PlayerID(lines[2][1]),
		MaxTurns:      int(lines[3][0]),
		TimeoutMillis: lines[3][1],
	}
	return d.info, nil
}

// Snapshot reads the next turn. It returns io.EOF when the server has
// closed the stream between turns.
func (d *Decoder) Snapshot() (game.Snapshot, error) {
	head, err := d.ints(1)
	if err != nil {
		return game.Snapshot{}, err
	}
	s := game.Snapshot{
		Turn:   d.turn,
		Width:  d.info.Width,
		Height: d.info.Height,
	}
	for range head[0] {
		v, err := d.ints(3)
		if err != nil {
			return game.Snapshot{}, truncated(err)
		}
		s.Food = append(s.Food, game.FoodState{
			Lifetime: int(v[0]),
			Pos:      game.Point{X: int(v[1]), Y: int(v[2])},
		})
	}
	for range d.info.Players {
		v, err := d.ints(-1)
		if err != nil {
			return game.Snapshot{}, truncated(err)
		}
		if len(v) < 4 || int64(len(v)) != 4+2*v[3] {
			return game.Snapshot{}, fmt.Errorf("protocol: bad player line %q", d.sc.Text())
		}
		p := game.PlayerState{
			ID:    game.PlayerID(v[0]),
			Score: game.Score{Kills: int(v[1]), Deaths: int(v[2]), CurrentLength: int(v[3])},
			Alive: v[3] > 0,
		}
		for i := 4; i < len(v); i += 2 {
			p.Body = append(p.Body, game.Point{X: int(v[i]), Y: int(v[i+1])})
		}
		s.Players = append(s.Players, p)
	}
	d.turn++
	return s, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Rebuild reconstructs an arena from a decoded snapshot so the builtin
// utility can run on the agent side. Food lifetimes are relative to
// lifetime, the configured initial value. Player ids must run 0..n-1 in
// order, as the server sends them.
func Rebuild(s game.Snapshot, lifetime int) (*game.Arena, error) {
	players := make([]*game.Player, len(s.Players))
	for i, ps := range s.Players {
		if ps.ID != game.PlayerID(i) {
			return nil, fmt.Errorf("protocol: player line %d has id %d", i, ps.ID)
		}
		players[i] = game.NewPlayer(strconv.Itoa(int(ps.ID)), "", "")
	}
	a := game.NewArena(game.Grid{Width: s.Width, Height: s.Height}, players)
	for _, ps := range s.Players {
		if len(ps.Body) == 0 {
			continue
		}
		dir := game.North
		if len(ps.Body) > 1 {
			dir = heading(ps.Body[1], ps.Body[0])
		}
		sn := a.SpawnSnake(ps.ID, ps.Body[0], len(ps.Body), dir)
		for _, c := range ps.Body[1:] {
			sn.Body = append(sn.Body, a.Spawn(game.KindSegment, c, ps.ID))
		}
		p := a.Player(ps.ID)
		p.Dead = false
		p.Respawning = false
		p.Score = ps.Score
	}
	for _, f := range s.Food {
		food := a.AddFood(f.Pos, lifetime)
		food.Remaining = f.Lifetime
	}
	return a, nil
}

func heading(from, to game.Point) game.Direction {
	for _, d := range game.Cardinals {
		if from.Step(d) == to {
			return d
		}
	}
	return game.North
}
