// Package rules resolves one turn of the arena: intent fixup, movement,
// collisions, feeding, rotting, deaths and respawns. Every function here
// mutates the Arena in place and is deterministic for a given RNG.
package rules

import "github.com/brensch/snakepit/game"

// Intents maps a player to the direction requested for the current turn.
type Intents map[game.PlayerID]game.Direction

// FixupIntents gives every live snake exactly one legal intent. A missing
// intent becomes the current heading, and so does a direct reversal.
func FixupIntents(a *game.Arena, intents Intents) {
	for _, s := range a.Snakes() {
		d, ok := intents[s.Owner]
		if !ok || !s.CanMove(d) {
			intents[s.Owner] = s.Direction
		}
	}
	// Intents for players without a snake cannot be applied.
	for owner := range intents {
		if _, ok := a.Snake(owner); !ok {
			delete(intents, owner)
		}
	}
}

// Slither advances every snake that has an intent by one cell. A segment is
// inserted where the head was, the tail is trimmed down to the target length,
// and then the head moves. Consumed intents are removed from the map.
func Slither(a *game.Arena, intents Intents) {
	for _, s := range a.Snakes() {
		d, ok := intents[s.Owner]
		if !ok {
			continue
		}
		delete(intents, s.Owner)

		head := a.HeadOf(s)
		seg := a.Spawn(game.KindSegment, head, s.Owner)
		s.Body = append([]game.EntityID{seg}, s.Body...)
		for len(s.Body) > 0 && len(s.Body) >= s.Length {
			last := len(s.Body) - 1
			a.Despawn(s.Body[last])
			s.Body = s.Body[:last]
		}

		a.MoveEntity(s.Head, head.Step(d))
		s.Direction = d
	}
}
