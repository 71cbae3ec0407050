package agent

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/brensch/snakepit/game"
)

func TestHandshake(t *testing.T) {
	got := Handshake(HandshakeInfo{
		Width: 32, Height: 24,
		FoodLifetime: 50, FoodValue: 5,
		Players: 4, ID: 2,
		MaxTurns: 1500, TimeoutMillis: -1,
	})
	want := "32 24\n50 5\n4 2\n1500 -1\n"
	if got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestEncodeSnapshot(t *testing.T) {
	snap := game.Snapshot{
		Food: []game.FoodState{{Lifetime: 7, Pos: game.Point{X: 1, Y: 2}}},
		Players: []game.PlayerState{
			{ID: 0, Score: game.Score{Kills: 1, Deaths: 2}, Alive: true,
				Body: []game.Point{{X: 3, Y: 3}, {X: 2, Y: 3}}},
			{ID: 1, Score: game.Score{Kills: -1, Deaths: 4}},
		},
	}
	want := "1\n7 1 2\n0 1 2 2 3 3 2 3\n1 -1 4 0\n"
	if got := EncodeSnapshot(snap); got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestDecoder_ReadsServerStream(t *testing.T) {
	stream := "8 6\n50 5\n2 1\n100 250\n" +
		"1\n7 1 2\n0 1 2 2 3 3 2 3\n1 -1 4 0\n" +
		"0\n0 1 2 0\n1 0 4 1 5 5\n"
	d := NewDecoder(strings.NewReader(stream))

	info, err := d.Handshake()
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if info.Width != 8 || info.Height != 6 || info.ID != 1 || info.Players != 2 || info.TimeoutMillis != 250 {
		t.Fatalf("info=%+v", info)
	}

	s, err := d.Snapshot()
	if err != nil {
		t.Fatalf("snapshot 0: %v", err)
	}
	if len(s.Food) != 1 || s.Food[0].Lifetime != 7 || s.Food[0].Pos != (game.Point{X: 1, Y: 2}) {
		t.Fatalf("food=%+v", s.Food)
	}
	if !s.Players[0].Alive || len(s.Players[0].Body) != 2 || s.Players[1].Alive {
		t.Fatalf("players=%+v", s.Players)
	}
	if s.Players[1].Score.Kills != -1 {
		t.Fatalf("kills=%d want=-1", s.Players[1].Score.Kills)
	}

	s, err = d.Snapshot()
	if err != nil {
		t.Fatalf("snapshot 1: %v", err)
	}
	if s.Turn != 1 || len(s.Food) != 0 || s.Players[1].Body[0] != (game.Point{X: 5, Y: 5}) {
		t.Fatalf("snapshot=%+v", s)
	}

	if _, err := d.Snapshot(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v want EOF", err)
	}
}

func TestDecoder_Malformed(t *testing.T) {
	d := NewDecoder(strings.NewReader("8 6\n50 5\n1 0\n100 -1\n0\n0 0 0 2 1 1\n"))
	if _, err := d.Handshake(); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if _, err := d.Snapshot(); err == nil {
		t.Fatalf("short body accepted")
	}

	d = NewDecoder(strings.NewReader("8 6\n50 5\n2 0\n100 -1\n0\n0 0 0 0\n"))
	d.Handshake()
	if _, err := d.Snapshot(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v want unexpected EOF", err)
	}
}

func TestRebuild_BuiltinAgrees(t *testing.T) {
	players := []*game.Player{game.NewPlayer("a", "", ""), game.NewPlayer("b", "", "")}
	a := game.NewArena(game.Grid{Width: 10, Height: 10}, players)
	sn := a.SpawnSnake(0, game.Point{X: 4, Y: 4}, 3, game.East)
	sn.Body = append(sn.Body, a.Spawn(game.KindSegment, game.Point{X: 3, Y: 4}, 0))
	other := a.SpawnSnake(1, game.Point{X: 5, Y: 5}, 3, game.South)
	other.Body = append(other.Body, a.Spawn(game.KindSegment, game.Point{X: 5, Y: 6}, 1))
	f := a.AddFood(game.Point{X: 8, Y: 4}, 50)
	f.Remaining = 20
	for _, p := range players {
		p.Dead, p.Respawning = false, false
	}

	d := NewDecoder(strings.NewReader(Handshake(HandshakeInfo{Width: 10, Height: 10, FoodLifetime: 50, Players: 2}) +
		EncodeSnapshot(a.Snapshot(0))))
	info, _ := d.Handshake()
	snap, err := d.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := Rebuild(snap, info.FoodLifetime)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	rsn, ok := b.Snake(0)
	if !ok {
		t.Fatalf("snake 0 missing after rebuild")
	}
	if rsn.Direction != game.East {
		t.Fatalf("direction=%v want=east", rsn.Direction)
	}
	if b.Food()[0].Remaining != 20 || b.Food()[0].Initial != 50 {
		t.Fatalf("food=%+v", b.Food()[0])
	}
	for _, diff := range []Difficulty{Easy, Medium, Hard} {
		if got, want := Builtin(b, rsn, diff), Builtin(a, sn, diff); got != want {
			t.Fatalf("%v: got=%v want=%v", diff, got, want)
		}
	}
}

func TestRebuild_RejectsOutOfOrderIDs(t *testing.T) {
	d := NewDecoder(strings.NewReader("8 6\n50 5\n2 0\n100 -1\n0\n0 0 0 1 1 1\n7 0 0 1 2 2\n"))
	d.Handshake()
	snap, err := d.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := Rebuild(snap, 50); err == nil {
		t.Fatalf("player id 7 of 2 accepted")
	}
}
