package game

import (
	"errors"
	"math/rand"
	"testing"
)

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"north", North, true},
		{"N", North, true},
		{"0", North, true},
		{"East", East, true},
		{"e", East, true},
		{"1", East, true},
		{" south\r", South, true},
		{"2", South, true},
		{"WEST", West, true},
		{"3", West, true},
		{"", North, false},
		{"up", North, false},
		{"4", North, false},
		{"northeast", North, false},
	}
	for _, c := range cases {
		got, ok := ParseDirection(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("ParseDirection(%q)=(%v,%v) want=(%v,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestDirection_OppositeAndDelta(t *testing.T) {
	for _, d := range Cardinals {
		if d.Opposite().Opposite() != d {
			t.Fatalf("%v opposite twice = %v", d, d.Opposite().Opposite())
		}
		p := Point{X: 3, Y: 3}.Step(d).Step(d.Opposite())
		if p != (Point{X: 3, Y: 3}) {
			t.Fatalf("step %v and back landed at %v", d, p)
		}
	}
	if got := (Point{X: 2, Y: 2}).Step(East); got != (Point{X: 3, Y: 2}) {
		t.Fatalf("east step=%v want=(3,2)", got)
	}
	if got := (Point{X: 2, Y: 2}).Step(North); got != (Point{X: 2, Y: 3}) {
		t.Fatalf("north step=%v want=(2,3)", got)
	}
}

func TestGrid_Contains(t *testing.T) {
	g := Grid{Width: 4, Height: 3}
	in := []Point{{0, 0}, {3, 2}, {1, 1}}
	out := []Point{{-1, 0}, {4, 0}, {0, 3}, {0, -1}}
	for _, p := range in {
		if !g.Contains(p) {
			t.Fatalf("%v should be inside %dx%d", p, g.Width, g.Height)
		}
	}
	for _, p := range out {
		if g.Contains(p) {
			t.Fatalf("%v should be outside %dx%d", p, g.Width, g.Height)
		}
	}
}

func TestGrid_RandomUnoccupied_FindsLastFreeCell(t *testing.T) {
	g := Grid{Width: 3, Height: 3}
	occupied := map[Point]struct{}{}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if x == 2 && y == 1 {
				continue
			}
			occupied[Point{X: x, Y: y}] = struct{}{}
		}
	}
	p, err := g.RandomUnoccupied(occupied, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (Point{X: 2, Y: 1}) {
		t.Fatalf("got=%v want=(2,1)", p)
	}
}

func TestGrid_RandomUnoccupied_FullGrid(t *testing.T) {
	g := Grid{Width: 2, Height: 2}
	occupied := map[Point]struct{}{
		{0, 0}: {}, {0, 1}: {}, {1, 0}: {}, {1, 1}: {},
	}
	_, err := g.RandomUnoccupied(occupied, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrGridFull) {
		t.Fatalf("err=%v want=%v", err, ErrGridFull)
	}
}

func TestArena_SnakeLifecycle(t *testing.T) {
	a := NewArena(Grid{Width: 5, Height: 5}, []*Player{
		NewPlayer("a", "", "builtin"),
		NewPlayer("b", "", "random"),
	})
	if a.Player(1).ID != 1 {
		t.Fatalf("player id=%d want=1", a.Player(1).ID)
	}

	s := a.SpawnSnake(0, Point{X: 1, Y: 1}, 4, East)
	s.Body = append(s.Body, a.Spawn(KindSegment, Point{X: 0, Y: 1}, 0))
	a.AddFood(Point{X: 3, Y: 3}, 10)

	if got := len(a.Entities()); got != 3 {
		t.Fatalf("entities=%d want=3", got)
	}
	body := a.BodyOf(s)
	if len(body) != 2 || body[0] != (Point{X: 1, Y: 1}) || body[1] != (Point{X: 0, Y: 1}) {
		t.Fatalf("body=%v", body)
	}
	if _, ok := a.Occupied()[Point{X: 3, Y: 3}]; !ok {
		t.Fatalf("food cell should be occupied")
	}

	a.RemoveSnake(0)
	if _, ok := a.Snake(0); ok {
		t.Fatalf("snake still present after removal")
	}
	if got := len(a.Entities()); got != 1 {
		t.Fatalf("entities after removal=%d want=1", got)
	}
}

func TestArena_DespawnIsOnce(t *testing.T) {
	a := NewArena(Grid{Width: 5, Height: 5}, nil)
	f := a.AddFood(Point{X: 1, Y: 1}, 5)
	if !a.Despawn(f.ID) {
		t.Fatalf("first despawn should succeed")
	}
	if a.Despawn(f.ID) {
		t.Fatalf("second despawn should report false")
	}
	if a.FoodCount() != 0 {
		t.Fatalf("food count=%d want=0", a.FoodCount())
	}
}

func TestArena_SnapshotOrdering(t *testing.T) {
	a := NewArena(Grid{Width: 6, Height: 6}, []*Player{
		NewPlayer("zed", "#ff0000", "builtin"),
		NewPlayer("amy", "#00ff00", "builtin"),
	})
	a.SpawnSnake(1, Point{X: 4, Y: 4}, 3, North)
	a.Player(1).Dead = false
	a.AddFood(Point{X: 2, Y: 2}, 9)
	a.AddFood(Point{X: 1, Y: 5}, 4)

	snap := a.Snapshot(12)
	if snap.Turn != 12 || snap.Width != 6 || snap.Height != 6 {
		t.Fatalf("header=%+v", snap)
	}
	if len(snap.Food) != 2 || snap.Food[0].Lifetime != 9 || snap.Food[1].Pos != (Point{X: 1, Y: 5}) {
		t.Fatalf("food=%+v", snap.Food)
	}
	if snap.Players[0].Name != "zed" || snap.Players[0].Alive || len(snap.Players[0].Body) != 0 {
		t.Fatalf("player0=%+v", snap.Players[0])
	}
	if !snap.Players[1].Alive || len(snap.Players[1].Body) != 1 {
		t.Fatalf("player1=%+v", snap.Players[1])
	}
}

func TestScore_Less(t *testing.T) {
	base := Score{Kills: 1, Deaths: 1, MaxLength: 5, CurrentLength: 3}
	better := []Score{
		{Kills: 0, Deaths: 9, MaxLength: 6},
		{Kills: 2, Deaths: 1, MaxLength: 5},
		{Kills: 1, Deaths: 0, MaxLength: 5},
		{Kills: 1, Deaths: 1, MaxLength: 5, CurrentLength: 4},
	}
	for _, b := range better {
		if !base.Less(b) || b.Less(base) {
			t.Fatalf("%+v should rank above %+v", b, base)
		}
	}
}
