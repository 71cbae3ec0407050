package game

import "sort"

type PlayerID int

// NoPlayer marks entities without an owner, and death events without a culprit.
const NoPlayer PlayerID = -1

type EntityID uint32

type EntityKind uint8

const (
	KindHead EntityKind = iota
	KindSegment
	KindFood
)

// Entity is a single collidable occupying exactly one cell.
type Entity struct {
	ID    EntityID
	Kind  EntityKind
	Pos   Point
	Owner PlayerID
}

// Snake is a head entity plus an ordered list of segment ids (nearest the
// head first). Length is the target number of cells including the head.
type Snake struct {
	Owner     PlayerID
	Head      EntityID
	Body      []EntityID
	Length    int
	Direction Direction
}

// CanMove reports whether d is a legal heading. A snake with no body may
// turn freely; otherwise it may not reverse onto its own neck.
func (s *Snake) CanMove(d Direction) bool {
	return len(s.Body) == 0 || d != s.Direction.Opposite()
}

// Food rots from Initial down to zero. A food with Initial <= 0 never rots.
type Food struct {
	ID        EntityID
	Initial   int
	Remaining int
}

// Fraction is the share of lifetime left, in [0,1] for live food.
func (f *Food) Fraction() float64 {
	if f.Initial <= 0 {
		return 1
	}
	return float64(f.Remaining) / float64(f.Initial)
}

// Arena is the exclusive owner of players, snakes, food and every entity on
// the grid. It is not safe for concurrent use; the scheduler is its only
// mutator.
type Arena struct {
	Grid Grid

	players  []*Player
	snakes   map[PlayerID]*Snake
	food     map[EntityID]*Food
	entities map[EntityID]Entity
	nextID   EntityID
}

// NewArena creates an empty arena. Player ids are assigned by position in
// players, starting at 0.
func NewArena(grid Grid, players []*Player) *Arena {
	for i, p := range players {
		p.ID = PlayerID(i)
	}
	return &Arena{
		Grid:     grid,
		players:  players,
		snakes:   make(map[PlayerID]*Snake, len(players)),
		food:     make(map[EntityID]*Food),
		entities: make(map[EntityID]Entity),
		nextID:   1,
	}
}

// Players returns all players in ascending id order.
func (a *Arena) Players() []*Player { return a.players }

func (a *Arena) Player(id PlayerID) *Player {
	if id < 0 || int(id) >= len(a.players) {
		return nil
	}
	return a.players[id]
}

func (a *Arena) Spawn(kind EntityKind, pos Point, owner PlayerID) EntityID {
	id := a.nextID
	a.nextID++
	a.entities[id] = Entity{ID: id, Kind: kind, Pos: pos, Owner: owner}
	return id
}

// Despawn removes an entity. It reports false if the entity was already gone.
func (a *Arena) Despawn(id EntityID) bool {
	if _, ok := a.entities[id]; !ok {
		return false
	}
	delete(a.entities, id)
	delete(a.food, id)
	return true
}

func (a *Arena) Entity(id EntityID) (Entity, bool) {
	e, ok := a.entities[id]
	return e, ok
}

func (a *Arena) MoveEntity(id EntityID, pos Point) {
	if e, ok := a.entities[id]; ok {
		e.Pos = pos
		a.entities[id] = e
	}
}

// Entities returns every entity in ascending id order.
func (a *Arena) Entities() []Entity {
	out := make([]Entity, 0, len(a.entities))
	for _, e := range a.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Occupied returns the set of cells holding any entity, food included.
func (a *Arena) Occupied() map[Point]struct{} {
	out := make(map[Point]struct{}, len(a.entities))
	for _, e := range a.entities {
		out[e.Pos] = struct{}{}
	}
	return out
}

// SpawnSnake places a fresh head-only snake for owner at pos.
func (a *Arena) SpawnSnake(owner PlayerID, pos Point, length int, dir Direction) *Snake {
	a.RemoveSnake(owner)
	s := &Snake{
		Owner:     owner,
		Head:      a.Spawn(KindHead, pos, owner),
		Length:    length,
		Direction: dir,
	}
	a.snakes[owner] = s
	return s
}

// RemoveSnake despawns the head and every segment of owner's snake.
func (a *Arena) RemoveSnake(owner PlayerID) {
	s, ok := a.snakes[owner]
	if !ok {
		return
	}
	for _, seg := range s.Body {
		a.Despawn(seg)
	}
	a.Despawn(s.Head)
	delete(a.snakes, owner)
}

func (a *Arena) Snake(owner PlayerID) (*Snake, bool) {
	s, ok := a.snakes[owner]
	return s, ok
}

// Snakes returns live snakes in ascending owner order.
func (a *Arena) Snakes() []*Snake {
	out := make([]*Snake, 0, len(a.snakes))
	for _, s := range a.snakes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out
}

func (a *Arena) HeadOf(s *Snake) Point {
	return a.entities[s.Head].Pos
}

// BodyOf returns the snake's cells, head first.
func (a *Arena) BodyOf(s *Snake) []Point {
	out := make([]Point, 0, len(s.Body)+1)
	out = append(out, a.entities[s.Head].Pos)
	for _, seg := range s.Body {
		if e, ok := a.entities[seg]; ok {
			out = append(out, e.Pos)
		}
	}
	return out
}

func (a *Arena) AddFood(pos Point, lifetime int) *Food {
	id := a.Spawn(KindFood, pos, NoPlayer)
	f := &Food{ID: id, Initial: lifetime, Remaining: lifetime}
	a.food[id] = f
	return f
}

// Food returns food items in ascending id order.
func (a *Arena) Food() []*Food {
	out := make([]*Food, 0, len(a.food))
	for _, f := range a.food {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (a *Arena) FoodCount() int { return len(a.food) }
