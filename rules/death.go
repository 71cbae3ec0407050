package rules

import (
	"math/rand"
	"sort"

	"github.com/brensch/snakepit/game"
)

// ResolveDeaths applies a batch of death events. Only the first event per
// target counts; the applied events are returned in target order.
//
// Dying removes the snake, marks the player dead, bumps its death counter and
// starts the respawn countdown. With no delay the player is Respawning at
// once and comes back in the next pre-turn. A culprit other than the victim is credited a
// kill. A self collision costs the victim a kill.
func ResolveDeaths(a *game.Arena, events []DeathEvent, respawnDelay int) []DeathEvent {
	seen := make(map[game.PlayerID]bool, len(events))
	applied := make([]DeathEvent, 0, len(events))
	for _, ev := range events {
		if seen[ev.Target] {
			continue
		}
		seen[ev.Target] = true
		applied = append(applied, ev)
	}
	sort.SliceStable(applied, func(i, j int) bool { return applied[i].Target < applied[j].Target })

	for _, ev := range applied {
		victim := a.Player(ev.Target)
		if victim == nil {
			continue
		}
		a.RemoveSnake(ev.Target)
		victim.Dead = true
		victim.RespawnIn = max(respawnDelay, 0)
		victim.Respawning = victim.RespawnIn == 0
		victim.Score.Deaths++
		victim.Score.CurrentLength = 0

		switch {
		case ev.Cause == CauseSelf:
			victim.Score.Kills--
		case ev.Culprit == ev.Target:
			victim.Score.Kills--
		case ev.Culprit != game.NoPlayer:
			if culprit := a.Player(ev.Culprit); culprit != nil {
				culprit.Score.Kills++
			}
		}
	}
	return applied
}

// TickRespawns counts down every dead player's timer by one resolved turn.
// A player whose timer has run out becomes Respawning.
func TickRespawns(a *game.Arena) {
	for _, p := range a.Players() {
		if !p.Dead || p.Respawning {
			continue
		}
		if p.RespawnIn > 0 {
			p.RespawnIn--
		}
		if p.RespawnIn == 0 {
			p.Respawning = true
		}
	}
}

// Respawn places a fresh head-only snake for every Respawning player on a
// random free cell. The snake grows to length over the following turns.
// On a full grid the remaining players stay Respawning and
// game.ErrGridFull is returned alongside the players that were placed.
func Respawn(a *game.Arena, rng *rand.Rand, length int) ([]game.PlayerID, error) {
	var placed []game.PlayerID
	for _, p := range a.Players() {
		if !p.Dead || !p.Respawning {
			continue
		}
		pos, err := a.Grid.RandomUnoccupied(a.Occupied(), rng)
		if err != nil {
			return placed, err
		}
		a.SpawnSnake(p.ID, pos, length, game.Cardinals[rng.Intn(len(game.Cardinals))])
		p.Dead = false
		p.Respawning = false
		placed = append(placed, p.ID)
	}
	UpdateScores(a)
	return placed, nil
}

// UpdateScores refreshes current and max length from the snakes on the grid.
func UpdateScores(a *game.Arena) {
	for _, s := range a.Snakes() {
		p := a.Player(s.Owner)
		if p == nil {
			continue
		}
		p.Score.CurrentLength = 1 + len(s.Body)
		p.Score.MaxLength = max(p.Score.MaxLength, p.Score.CurrentLength)
	}
}

// Ranking returns players ordered best first by Score.Less, ties broken by
// player id.
func Ranking(a *game.Arena) []*game.Player {
	out := append([]*game.Player(nil), a.Players()...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Score.Less(out[i].Score)
	})
	return out
}
