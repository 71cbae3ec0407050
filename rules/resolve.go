package rules

import "github.com/brensch/snakepit/game"

// Settings are the per-game knobs the resolution pipeline needs.
type Settings struct {
	Food         FoodSettings
	RespawnDelay int
	SnakeLength  int
}

var DefaultSettings = Settings{
	Food:         DefaultFoodSettings,
	RespawnDelay: 10,
	SnakeLength:  5,
}

// Resolve runs everything that follows movement in a turn: collisions are
// detected on the post-movement arena, food is eaten and rots, respawn
// timers of players already dead tick, this turn's deaths are applied as
// one batch and scores are refreshed. It returns the deaths that were
// applied.
func Resolve(a *game.Arena, settings Settings) []DeathEvent {
	despawned := make(Despawned)

	events := DetectCollisions(a)
	events = append(events, Feed(a, settings.Food, despawned)...)
	Rot(a, despawned)

	TickRespawns(a)
	applied := ResolveDeaths(a, events, settings.RespawnDelay)
	UpdateScores(a)
	return applied
}
