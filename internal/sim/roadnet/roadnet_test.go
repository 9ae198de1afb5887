package roadnet

import (
	"math/rand"
	"sort"
	"testing"

	"tilecity.ai/internal/sim/grid"
)

func TestNetwork_AddRemove(t *testing.T) {
	n := New()

	a := grid.Coord{X: 1, Y: 1}
	b := grid.Coord{X: 2, Y: 1}
	c := grid.Coord{X: 3, Y: 1}

	n.OnRoadChanged(grid.RoadChanged{Coord: a, Added: true})
	n.OnRoadChanged(grid.RoadChanged{Coord: b, Added: true})
	n.OnRoadChanged(grid.RoadChanged{Coord: c, Added: true})

	if n.NodeCount() != 3 {
		t.Fatalf("nodes = %d", n.NodeCount())
	}
	if !n.IsConnected(a, c) {
		t.Fatalf("a-c should be connected")
	}
	if n.Cost(a, b) != 1 || n.Cost(a, c) != 0 {
		t.Fatalf("costs: a-b=%d a-c=%d", n.Cost(a, b), n.Cost(a, c))
	}

	// Removing the middle splits the component.
	n.OnRoadChanged(grid.RoadChanged{Coord: b, Added: false})
	if n.Contains(b) {
		t.Fatalf("b still present")
	}
	if n.IsConnected(a, c) {
		t.Fatalf("a-c should be split")
	}
	if !n.IsConnected(a, a) {
		t.Fatalf("self reachability")
	}
}

func TestNetwork_NeighborOrder(t *testing.T) {
	n := New()
	center := grid.Coord{X: 2, Y: 2}
	for _, c := range []grid.Coord{center, {X: 2, Y: 1}, {X: 3, Y: 2}, {X: 2, Y: 3}, {X: 1, Y: 2}} {
		n.OnRoadChanged(grid.RoadChanged{Coord: c, Added: true})
	}
	got := n.Neighbors(center)
	want := []grid.Coord{{X: 2, Y: 1}, {X: 3, Y: 2}, {X: 2, Y: 3}, {X: 1, Y: 2}} // N, E, S, W
	if len(got) != len(want) {
		t.Fatalf("neighbors = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbor[%d] = %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestNetwork_GenerationCounts(t *testing.T) {
	n := New()
	if n.Generation() != 0 {
		t.Fatalf("fresh generation = %d", n.Generation())
	}
	c := grid.Coord{X: 0, Y: 0}
	n.OnRoadChanged(grid.RoadChanged{Coord: c, Added: true})
	n.OnRoadChanged(grid.RoadChanged{Coord: c, Added: false})
	if n.Generation() != 2 {
		t.Fatalf("generation = %d", n.Generation())
	}

	n.RestoreGeneration(42)
	if n.Generation() != 42 {
		t.Fatalf("restored generation = %d", n.Generation())
	}
}

// TestNetwork_ClosureOracle drives random add/remove sequences and checks the
// incrementally maintained edge set against a from-scratch rebuild.
func TestNetwork_ClosureOracle(t *testing.T) {
	const (
		extent = 8
		ops    = 400
	)
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))

		n := New()
		present := map[grid.Coord]bool{}

		for i := 0; i < ops; i++ {
			c := grid.Coord{X: rng.Intn(extent), Y: rng.Intn(extent)}
			if present[c] {
				n.OnRoadChanged(grid.RoadChanged{Coord: c, Added: false})
				delete(present, c)
			} else {
				n.OnRoadChanged(grid.RoadChanged{Coord: c, Added: true})
				present[c] = true
			}
		}

		if n.NodeCount() != len(present) {
			t.Fatalf("seed %d: nodes = %d want %d", seed, n.NodeCount(), len(present))
		}

		got := n.Edges()
		want := closureEdges(present)
		if len(got) != len(want) {
			t.Fatalf("seed %d: edges = %d want %d", seed, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("seed %d: edge[%d] = %+v want %+v", seed, i, got[i], want[i])
			}
		}

		// Reachability must agree with a flood fill over the rebuilt graph.
		labels := floodLabels(present)
		coords := make([]grid.Coord, 0, len(present))
		for c := range present {
			coords = append(coords, c)
		}
		sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
		for i := 0; i < len(coords); i++ {
			for j := i + 1; j < len(coords); j++ {
				want := labels[coords[i]] == labels[coords[j]]
				if got := n.IsConnected(coords[i], coords[j]); got != want {
					t.Fatalf("seed %d: connected(%+v,%+v) = %v want %v", seed, coords[i], coords[j], got, want)
				}
			}
		}
	}
}

// closureEdges builds the expected edge set directly from the tile set.
func closureEdges(present map[grid.Coord]bool) [][2]grid.Coord {
	var out [][2]grid.Coord
	for c := range present {
		for _, d := range dirs4 {
			nb := c.Add(d.X, d.Y)
			if present[nb] && c.Less(nb) {
				out = append(out, [2]grid.Coord{c, nb})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0].Less(out[j][0])
		}
		return out[i][1].Less(out[j][1])
	})
	return out
}

func floodLabels(present map[grid.Coord]bool) map[grid.Coord]int {
	labels := map[grid.Coord]int{}
	next := 0
	for c := range present {
		if labels[c] != 0 {
			continue
		}
		next++
		stack := []grid.Coord{c}
		labels[c] = next
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, d := range dirs4 {
				nb := cur.Add(d.X, d.Y)
				if present[nb] && labels[nb] == 0 {
					labels[nb] = next
					stack = append(stack, nb)
				}
			}
		}
	}
	return labels
}
