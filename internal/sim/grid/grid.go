package grid

import (
	"errors"
	"fmt"
)

// Placement errors. All locally recoverable; surfaced to the caller as a
// declined command, never fatal.
var (
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	ErrOccupied    = errors.New("tile occupied")
	ErrInUse       = errors.New("tile has nonzero agent load")
)

type Kind uint8

const (
	KindEmpty Kind = iota
	KindRoad
	KindResidential
	KindCommercial
	KindIndustrial
	KindBuilding
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindRoad:
		return "ROAD"
	case KindResidential:
		return "RESIDENTIAL"
	case KindCommercial:
		return "COMMERCIAL"
	case KindIndustrial:
		return "INDUSTRIAL"
	case KindBuilding:
		return "BUILDING"
	}
	return fmt.Sprintf("KIND_%d", uint8(k))
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "EMPTY":
		return KindEmpty, true
	case "ROAD":
		return KindRoad, true
	case "RESIDENTIAL":
		return KindResidential, true
	case "COMMERCIAL":
		return KindCommercial, true
	case "INDUSTRIAL":
		return KindIndustrial, true
	case "BUILDING":
		return KindBuilding, true
	}
	return KindEmpty, false
}

// IsZone reports whether the kind generates agent demand.
func (k Kind) IsZone() bool {
	return k == KindResidential || k == KindCommercial || k == KindIndustrial
}

type Occupancy uint8

const (
	OccVacant Occupancy = iota
	OccUnderConstruction
	OccActive
)

func (o Occupancy) String() string {
	switch o {
	case OccVacant:
		return "VACANT"
	case OccUnderConstruction:
		return "UNDER_CONSTRUCTION"
	case OccActive:
		return "ACTIVE"
	}
	return fmt.Sprintf("OCC_%d", uint8(o))
}

type Coord struct {
	X, Y int
}

func (c Coord) Add(dx, dy int) Coord { return Coord{X: c.X + dx, Y: c.Y + dy} }

// Less orders coordinates row-major, matching grid iteration order.
func (c Coord) Less(o Coord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// dirs4 is the fixed expansion order used everywhere a neighbor sequence is
// produced: north, east, south, west. North is -Y.
var dirs4 = [4]Coord{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Tile is one cell of the grid. Kind and occupancy are mutated only through
// the Grid placement API; simulation counters are open to the owning world.
type Tile struct {
	kind    Kind
	occ     Occupancy
	variant uint8

	// Capacity is the number of agents the tile can house/employ.
	Capacity int
	// Load is the committed occupancy count.
	Load int

	// Economy counters (residential population, industrial goods).
	Population  float64
	Production  int
	StoredGoods int
}

func (t *Tile) Kind() Kind           { return t.kind }
func (t *Tile) Occupancy() Occupancy { return t.occ }
func (t *Tile) Variant() uint8       { return t.variant }

// TileView is a read-only snapshot of one tile.
type TileView struct {
	Coord       Coord
	Kind        Kind
	Occupancy   Occupancy
	Variant     uint8
	Capacity    int
	Load        int
	Population  float64
	Production  int
	StoredGoods int
}

// RoadChanged is emitted on every successful placement that adds or removes
// a road tile. It is the sole coupling between the grid and the road network.
type RoadChanged struct {
	Coord Coord
	Added bool
}

type RoadObserver interface {
	OnRoadChanged(RoadChanged)
}

// Grid is the fixed-size tile array owning all placement state.
type Grid struct {
	w, h  int
	tiles []Tile

	zoneCapacity int

	observers []RoadObserver
}

func New(w, h, zoneCapacity int) *Grid {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("grid: invalid extent %dx%d", w, h))
	}
	return &Grid{
		w:            w,
		h:            h,
		tiles:        make([]Tile, w*h),
		zoneCapacity: zoneCapacity,
	}
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.w && c.Y >= 0 && c.Y < g.h
}

// Subscribe registers an observer for road change events. Observers are
// notified synchronously, in registration order, after the tile mutation.
func (g *Grid) Subscribe(o RoadObserver) {
	g.observers = append(g.observers, o)
}

func (g *Grid) tile(c Coord) *Tile { return &g.tiles[c.Y*g.w+c.X] }

// Tile returns the mutable simulation counters for an in-bounds coordinate.
// Kind and occupancy remain read-only through it.
func (g *Grid) Tile(c Coord) (*Tile, bool) {
	if !g.InBounds(c) {
		return nil, false
	}
	return g.tile(c), true
}

// Query returns a read-only snapshot, or false if out of bounds.
func (g *Grid) Query(c Coord) (TileView, bool) {
	if !g.InBounds(c) {
		return TileView{}, false
	}
	t := g.tile(c)
	return TileView{
		Coord:       c,
		Kind:        t.kind,
		Occupancy:   t.occ,
		Variant:     t.variant,
		Capacity:    t.Capacity,
		Load:        t.Load,
		Population:  t.Population,
		Production:  t.Production,
		StoredGoods: t.StoredGoods,
	}, true
}

// Neighbors4 appends the in-bounds 4-neighbors of c in N, E, S, W order.
func (g *Grid) Neighbors4(c Coord) []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range dirs4 {
		n := c.Add(d.X, d.Y)
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Place mutates the tile at c to the given kind. kind == KindEmpty is a
// removal and is always allowed regardless of occupancy, unless the tile
// still carries agent load. Success resets occupancy, load and counters.
func (g *Grid) Place(c Coord, kind Kind) error {
	if !g.InBounds(c) {
		return ErrOutOfBounds
	}
	t := g.tile(c)

	if kind == KindEmpty {
		if t.Load > 0 {
			return ErrInUse
		}
		wasRoad := t.kind == KindRoad
		*t = Tile{}
		if wasRoad {
			g.refreshVariantsAround(c)
			g.emit(RoadChanged{Coord: c, Added: false})
		}
		return nil
	}

	if t.kind != KindEmpty {
		return ErrOccupied
	}

	*t = Tile{kind: kind}
	switch {
	case kind.IsZone():
		t.occ = OccUnderConstruction
		t.Capacity = g.zoneCapacity
	case kind == KindBuilding:
		t.occ = OccActive
	}
	if kind == KindRoad {
		g.refreshVariantsAround(c)
		g.emit(RoadChanged{Coord: c, Added: true})
	}
	return nil
}

// Activate marks an under-construction tile as active. The world calls this
// once a placed zone gains road access.
func (g *Grid) Activate(c Coord) bool {
	if !g.InBounds(c) {
		return false
	}
	t := g.tile(c)
	if t.occ != OccUnderConstruction {
		return false
	}
	t.occ = OccActive
	return true
}

// AddLoad adjusts the committed occupancy count, clamped to [0, Capacity].
func (g *Grid) AddLoad(c Coord, delta int) {
	if !g.InBounds(c) {
		return
	}
	t := g.tile(c)
	t.Load += delta
	if t.Load < 0 {
		t.Load = 0
	}
	if t.Capacity > 0 && t.Load > t.Capacity {
		t.Load = t.Capacity
	}
}

// Each visits every tile in row-major order.
func (g *Grid) Each(fn func(Coord, *Tile)) {
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			fn(Coord{X: x, Y: y}, &g.tiles[y*g.w+x])
		}
	}
}

// Restore rewrites a tile wholesale during snapshot load. No events are
// emitted; the loader regenerates the road network afterwards.
func (g *Grid) Restore(c Coord, v TileView) bool {
	if !g.InBounds(c) {
		return false
	}
	t := g.tile(c)
	*t = Tile{
		kind:        v.Kind,
		occ:         v.Occupancy,
		variant:     v.Variant,
		Capacity:    v.Capacity,
		Load:        v.Load,
		Population:  v.Population,
		Production:  v.Production,
		StoredGoods: v.StoredGoods,
	}
	return true
}

func (g *Grid) emit(ev RoadChanged) {
	for _, o := range g.observers {
		o.OnRoadChanged(ev)
	}
}

func (g *Grid) roadAt(c Coord) bool {
	return g.InBounds(c) && g.tile(c).kind == KindRoad
}

// refreshVariantsAround recomputes the sprite variant of c and its neighbors.
// Variants follow the road connection shape and exist purely for renderers.
func (g *Grid) refreshVariantsAround(c Coord) {
	g.refreshVariant(c)
	for _, d := range dirs4 {
		g.refreshVariant(c.Add(d.X, d.Y))
	}
}

func (g *Grid) refreshVariant(c Coord) {
	if !g.roadAt(c) {
		return
	}
	n := g.roadAt(c.Add(0, -1))
	e := g.roadAt(c.Add(1, 0))
	s := g.roadAt(c.Add(0, 1))
	w := g.roadAt(c.Add(-1, 0))
	g.tile(c).variant = roadVariant(n, e, s, w)
}

// roadVariant maps the 4-neighbor connection shape to a tileset variant.
// The numbering matches the road tileset: 0/1 straights, 2 cross,
// 3-6 corners, 7-10 tees.
func roadVariant(n, e, s, w bool) uint8 {
	switch {
	case w && e && n && s:
		return 2
	case w && e && n:
		return 7
	case w && e && s:
		return 8
	case n && s && w:
		return 9
	case n && s && e:
		return 10
	case w && e:
		return 0
	case n && s:
		return 1
	case s && w:
		return 3
	case n && e:
		return 4
	case w && n:
		return 5
	case s && e:
		return 6
	case w || e:
		return 0
	case n || s:
		return 1
	}
	return 0
}
