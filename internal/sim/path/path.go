// Package path computes routes for simulated agents over the road network.
package path

import (
	"container/heap"
	"errors"

	"tilecity.ai/internal/sim/grid"
	"tilecity.ai/internal/sim/roadnet"
)

// Route errors. Expected, frequent outcomes of normal simulation, handled by
// the clock as "no trip" or "stranded".
var (
	ErrNoRoadAccess = errors.New("no adjacent road tile")
	ErrUnreachable  = errors.New("access roads not connected")
)

// Path is an ordered sequence of road tile coordinates. The first element is
// the origin's access road, the last the destination's. Generation stamps the
// network state the path was computed against; a mismatch with the network's
// current generation marks the path stale.
type Path struct {
	Coords     []grid.Coord
	Generation uint64
}

// Valid reports whether the path is non-empty and fresh against net.
func (p Path) Valid(net *roadnet.Network) bool {
	return len(p.Coords) > 0 && p.Generation == net.Generation()
}

// GridView is the read-only grid surface the finder needs.
type GridView interface {
	Neighbors4(grid.Coord) []grid.Coord
}

type Finder struct {
	grid GridView
	net  *roadnet.Network
}

func NewFinder(g GridView, net *roadnet.Network) *Finder {
	return &Finder{grid: g, net: net}
}

// AccessNode resolves the road tile serving c: c itself if it is a road,
// otherwise the first road among its 4-neighbors in N, E, S, W order.
func (f *Finder) AccessNode(c grid.Coord) (grid.Coord, bool) {
	if f.net.Contains(c) {
		return c, true
	}
	for _, nb := range f.grid.Neighbors4(c) {
		if f.net.Contains(nb) {
			return nb, true
		}
	}
	return grid.Coord{}, false
}

// FindPath returns the cheapest route between the road tiles serving origin
// and destination. A* with a Manhattan heuristic; on the unit-cost grid this
// expands like BFS but goal-directed. Among equal-cost candidates, expansion
// follows the fixed N, E, S, W priority so repeated queries against an
// unchanged network reproduce byte-identical paths.
func (f *Finder) FindPath(origin, dest grid.Coord) (Path, error) {
	start, ok := f.AccessNode(origin)
	if !ok {
		return Path{}, ErrNoRoadAccess
	}
	goal, ok := f.AccessNode(dest)
	if !ok {
		return Path{}, ErrNoRoadAccess
	}
	// Fast-fail before running the full search.
	if !f.net.IsConnected(start, goal) {
		return Path{}, ErrUnreachable
	}

	coords := f.astar(start, goal)
	if coords == nil {
		// IsConnected said yes, so this cannot happen on a consistent graph.
		return Path{}, ErrUnreachable
	}
	return Path{Coords: coords, Generation: f.net.Generation()}, nil
}

func manhattan(a, b grid.Coord) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func (f *Finder) astar(start, goal grid.Coord) []grid.Coord {
	open := &openHeap{}
	heap.Init(open)

	gScore := map[grid.Coord]int{start: 0}
	cameFrom := map[grid.Coord]grid.Coord{}
	closed := map[grid.Coord]bool{}

	seq := 0
	heap.Push(open, &openItem{c: start, f: manhattan(start, goal), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openItem)
		if closed[cur.c] {
			continue
		}
		if cur.c == goal {
			return reconstruct(cameFrom, start, goal)
		}
		closed[cur.c] = true

		g := gScore[cur.c]
		for _, nb := range f.net.Neighbors(cur.c) {
			if closed[nb] {
				continue
			}
			ng := g + f.net.Cost(cur.c, nb)
			if old, ok := gScore[nb]; ok && ng >= old {
				continue
			}
			gScore[nb] = ng
			cameFrom[nb] = cur.c
			seq++
			heap.Push(open, &openItem{c: nb, f: ng + manhattan(nb, goal), seq: seq})
		}
	}
	return nil
}

func reconstruct(cameFrom map[grid.Coord]grid.Coord, start, goal grid.Coord) []grid.Coord {
	var rev []grid.Coord
	for c := goal; ; c = cameFrom[c] {
		rev = append(rev, c)
		if c == start {
			break
		}
	}
	out := make([]grid.Coord, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}

type openItem struct {
	c grid.Coord
	f int
	// seq breaks ties: earlier insertion wins, and pushes happen in
	// N, E, S, W order, which pins the expansion order.
	seq int

	index int
}

type openHeap []*openItem

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}

func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openHeap) Push(x any) {
	it := x.(*openItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
