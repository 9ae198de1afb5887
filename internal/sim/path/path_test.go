package path

import (
	"math/rand"
	"testing"

	"tilecity.ai/internal/sim/grid"
	"tilecity.ai/internal/sim/roadnet"
)

func buildWorld(t *testing.T, w, h int, roads []grid.Coord) (*grid.Grid, *roadnet.Network, *Finder) {
	t.Helper()
	g := grid.New(w, h, 50)
	net := roadnet.New()
	g.Subscribe(net)
	for _, c := range roads {
		if err := g.Place(c, grid.KindRoad); err != nil {
			t.Fatalf("place road %+v: %v", c, err)
		}
	}
	return g, net, NewFinder(g, net)
}

func coords(pairs ...int) []grid.Coord {
	out := make([]grid.Coord, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, grid.Coord{X: pairs[i], Y: pairs[i+1]})
	}
	return out
}

func TestFindPath_LShape(t *testing.T) {
	// Vertical run meeting a horizontal run at the corner (1,3).
	_, _, f := buildWorld(t, 6, 6, coords(
		1, 1, 1, 2, 1, 3,
		2, 3, 3, 3, 4, 3,
	))

	p, err := f.FindPath(grid.Coord{X: 1, Y: 1}, grid.Coord{X: 4, Y: 3})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := coords(1, 1, 1, 2, 1, 3, 2, 3, 3, 3, 4, 3)
	if len(p.Coords) != len(want) {
		t.Fatalf("path = %+v", p.Coords)
	}
	for i := range want {
		if p.Coords[i] != want[i] {
			t.Fatalf("step[%d] = %+v want %+v", i, p.Coords[i], want[i])
		}
	}
}

func TestFindPath_DisconnectedComponents(t *testing.T) {
	_, _, f := buildWorld(t, 8, 8, coords(
		0, 0, 1, 0, // component 1
		5, 5, 6, 5, // component 2
	))

	_, err := f.FindPath(grid.Coord{X: 0, Y: 0}, grid.Coord{X: 6, Y: 5})
	if err != ErrUnreachable {
		t.Fatalf("err = %v want ErrUnreachable", err)
	}
}

func TestFindPath_NoRoadAccess(t *testing.T) {
	g, _, f := buildWorld(t, 8, 8, coords(0, 0, 1, 0))
	if err := g.Place(grid.Coord{X: 5, Y: 5}, grid.KindResidential); err != nil {
		t.Fatalf("place zone: %v", err)
	}

	_, err := f.FindPath(grid.Coord{X: 5, Y: 5}, grid.Coord{X: 0, Y: 0})
	if err != ErrNoRoadAccess {
		t.Fatalf("err = %v want ErrNoRoadAccess", err)
	}
}

func TestAccessNode_PrefersNorth(t *testing.T) {
	// Zone at (2,2) with roads both north and east; N wins.
	g, _, f := buildWorld(t, 6, 6, coords(2, 1, 3, 2))
	if err := g.Place(grid.Coord{X: 2, Y: 2}, grid.KindCommercial); err != nil {
		t.Fatalf("place zone: %v", err)
	}

	n, ok := f.AccessNode(grid.Coord{X: 2, Y: 2})
	if !ok || n != (grid.Coord{X: 2, Y: 1}) {
		t.Fatalf("access = %+v ok=%v", n, ok)
	}

	// A road tile is its own access node.
	n, ok = f.AccessNode(grid.Coord{X: 3, Y: 2})
	if !ok || n != (grid.Coord{X: 3, Y: 2}) {
		t.Fatalf("road access = %+v ok=%v", n, ok)
	}
}

func TestFindPath_Deterministic(t *testing.T) {
	// A dense block offers many equal-cost routes; repeated queries must
	// produce the identical one.
	var roads []grid.Coord
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			roads = append(roads, grid.Coord{X: x, Y: y})
		}
	}
	_, _, f := buildWorld(t, 6, 6, roads)

	first, err := f.FindPath(grid.Coord{X: 0, Y: 0}, grid.Coord{X: 5, Y: 5})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	for i := 0; i < 10; i++ {
		p, err := f.FindPath(grid.Coord{X: 0, Y: 0}, grid.Coord{X: 5, Y: 5})
		if err != nil {
			t.Fatalf("find %d: %v", i, err)
		}
		if len(p.Coords) != len(first.Coords) {
			t.Fatalf("run %d: len %d want %d", i, len(p.Coords), len(first.Coords))
		}
		for j := range first.Coords {
			if p.Coords[j] != first.Coords[j] {
				t.Fatalf("run %d diverges at %d: %+v vs %+v", i, j, p.Coords[j], first.Coords[j])
			}
		}
	}
}

func TestPath_StaleAfterMutation(t *testing.T) {
	g, net, f := buildWorld(t, 6, 6, coords(0, 0, 1, 0, 2, 0))

	p, err := f.FindPath(grid.Coord{X: 0, Y: 0}, grid.Coord{X: 2, Y: 0})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !p.Valid(net) {
		t.Fatalf("fresh path reported stale")
	}

	if err := g.Place(grid.Coord{X: 3, Y: 0}, grid.KindRoad); err != nil {
		t.Fatalf("place: %v", err)
	}
	if p.Valid(net) {
		t.Fatalf("path still valid after network mutation")
	}
}

// TestFindPath_Properties checks path validity on random road sets: every
// step is a road tile, consecutive steps are 4-adjacent, endpoints serve the
// requested tiles, and cost is optimal per BFS.
func TestFindPath_Properties(t *testing.T) {
	const extent = 10
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))

		var roads []grid.Coord
		present := map[grid.Coord]bool{}
		for i := 0; i < 45; i++ {
			c := grid.Coord{X: rng.Intn(extent), Y: rng.Intn(extent)}
			if !present[c] {
				present[c] = true
				roads = append(roads, c)
			}
		}
		_, net, f := buildWorld(t, extent, extent, roads)

		for trial := 0; trial < 40; trial++ {
			a := roads[rng.Intn(len(roads))]
			b := roads[rng.Intn(len(roads))]

			p, err := f.FindPath(a, b)
			if err == ErrUnreachable {
				if bfsDist(present, a, b) >= 0 {
					t.Fatalf("seed %d: %+v->%+v reported unreachable", seed, a, b)
				}
				continue
			}
			if err != nil {
				t.Fatalf("seed %d: find %+v->%+v: %v", seed, a, b, err)
			}
			if p.Coords[0] != a || p.Coords[len(p.Coords)-1] != b {
				t.Fatalf("seed %d: endpoints %+v..%+v want %+v..%+v", seed, p.Coords[0], p.Coords[len(p.Coords)-1], a, b)
			}
			for i, c := range p.Coords {
				if !present[c] {
					t.Fatalf("seed %d: step %+v not a road", seed, c)
				}
				if i > 0 && manhattan(p.Coords[i-1], c) != 1 {
					t.Fatalf("seed %d: steps %+v -> %+v not adjacent", seed, p.Coords[i-1], c)
				}
			}
			if want := bfsDist(present, a, b); len(p.Coords)-1 != want {
				t.Fatalf("seed %d: %+v->%+v cost %d want %d", seed, a, b, len(p.Coords)-1, want)
			}
			if !p.Valid(net) {
				t.Fatalf("seed %d: fresh path stale", seed)
			}
		}
	}
}

// bfsDist is the oracle: hop count over the tile set, -1 when unreachable.
func bfsDist(present map[grid.Coord]bool, a, b grid.Coord) int {
	if !present[a] || !present[b] {
		return -1
	}
	dist := map[grid.Coord]int{a: 0}
	queue := []grid.Coord{a}
	dirs := [4]grid.Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == b {
			return dist[cur]
		}
		for _, d := range dirs {
			nb := cur.Add(d.X, d.Y)
			if _, seen := dist[nb]; !seen && present[nb] {
				dist[nb] = dist[cur] + 1
				queue = append(queue, nb)
			}
		}
	}
	return -1
}
