package game

// Snapshot is an immutable copy of the arena at a turn boundary. It is what
// external agents, the replay log and spectators see.
type Snapshot struct {
	GameID  string        `json:"game_id,omitempty"`
	Turn    int           `json:"turn"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Food    []FoodState   `json:"food"`
	Players []PlayerState `json:"players"`
}

type FoodState struct {
	Lifetime int   `json:"lifetime"`
	Pos      Point `json:"pos"`
}

type PlayerState struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Color string   `json:"color,omitempty"`
	Score Score    `json:"score"`
	Alive bool     `json:"alive"`
	// Body is head first; empty while dead.
	Body []Point `json:"body"`
}

func (a *Arena) Snapshot(turn int) Snapshot {
	s := Snapshot{
		Turn:    turn,
		Width:   a.Grid.Width,
		Height:  a.Grid.Height,
		Food:    make([]FoodState, 0, len(a.food)),
		Players: make([]PlayerState, 0, len(a.players)),
	}
	for _, f := range a.Food() {
		s.Food = append(s.Food, FoodState{Lifetime: f.Remaining, Pos: a.entities[f.ID].Pos})
	}
	for _, p := range a.players {
		ps := PlayerState{
			ID:    p.ID,
			Name:  p.Name,
			Color: p.Color,
			Score: p.Score,
			Alive: !p.Dead,
		}
		if snake, ok := a.snakes[p.ID]; ok {
			ps.Body = a.BodyOf(snake)
		}
		s.Players = append(s.Players, ps)
	}
	return s
}
