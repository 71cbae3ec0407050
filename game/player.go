package game

// Score is a player's running tally. Kills can go negative: self-kills are
// penalised.
type Score struct {
	Kills         int `json:"kills"`
	Deaths        int `json:"deaths"`
	MaxLength     int `json:"max_length"`
	CurrentLength int `json:"current_length"`
}

// Less orders scores for ranking: max length, then kills, then fewer
// deaths, then current length.
func (s Score) Less(o Score) bool {
	if s.MaxLength != o.MaxLength {
		return s.MaxLength < o.MaxLength
	}
	if s.Kills != o.Kills {
		return s.Kills < o.Kills
	}
	if s.Deaths != o.Deaths {
		return s.Deaths > o.Deaths
	}
	return s.CurrentLength < o.CurrentLength
}

type Player struct {
	ID    PlayerID
	Name  string
	Color string
	// Agent is the agent-type tag ("builtin", "keyboard", "random", "custom").
	Agent string

	Score Score
	Dead  bool

	// RespawnIn counts down resolved turns while Dead. Once it has run out
	// the player is Respawning and is placed at the next Pre-Turn.
	RespawnIn  int
	Respawning bool
}

// NewPlayer returns a player that is waiting to be placed on the grid.
func NewPlayer(name, color, agent string) *Player {
	return &Player{
		Name:       name,
		Color:      color,
		Agent:      agent,
		Dead:       true,
		Respawning: true,
	}
}
