// Package roadnet maintains the derived connectivity graph over road tiles.
//
// The graph is always exactly the 4-adjacency closure of current road tiles:
// nodes correspond 1:1 to road coordinates and an edge exists iff two road
// tiles are grid-adjacent. It is updated incrementally from RoadChanged
// events, never rebuilt from scratch after initialization.
package roadnet

import (
	"sort"

	"tilecity.ai/internal/sim/grid"
)

type edge struct {
	To grid.Coord
	// Weight is the traversal cost, default 1. The field is the extension
	// point for future terrain/congestion weighting.
	Weight int
}

type node struct {
	// Edges are unordered; Neighbors derives the fixed N, E, S, W order.
	edges []edge
}

// Network is an arena of nodes with adjacency lists, indexed by coordinate.
type Network struct {
	nodes map[grid.Coord]*node

	// generation counts mutations; paths stamped with an older generation
	// are stale.
	generation uint64

	// Lazy connected-component labels, recomputed on the first reachability
	// query after a mutation.
	comp      map[grid.Coord]int
	compDirty bool
}

func New() *Network {
	return &Network{
		nodes: make(map[grid.Coord]*node),
		comp:  make(map[grid.Coord]int),
	}
}

// Generation returns the mutation counter.
func (n *Network) Generation() uint64 { return n.generation }

// RestoreGeneration overwrites the mutation counter during snapshot load, so
// path staleness checks behave identically after a resume.
func (n *Network) RestoreGeneration(g uint64) { n.generation = g }

// Contains reports whether c is a road node.
func (n *Network) Contains(c grid.Coord) bool {
	_, ok := n.nodes[c]
	return ok
}

func (n *Network) NodeCount() int { return len(n.nodes) }

// OnRoadChanged applies one road addition or removal. Cost is bounded by the
// constant neighbor fan-out, never by grid size.
func (n *Network) OnRoadChanged(ev grid.RoadChanged) {
	if ev.Added {
		n.add(ev.Coord)
	} else {
		n.remove(ev.Coord)
	}
	n.generation++
	n.compDirty = true
}

func (n *Network) add(c grid.Coord) {
	if _, ok := n.nodes[c]; ok {
		return
	}
	nd := &node{}
	n.nodes[c] = nd
	for _, d := range dirs4 {
		nb := c.Add(d.X, d.Y)
		other, ok := n.nodes[nb]
		if !ok {
			continue
		}
		nd.edges = append(nd.edges, edge{To: nb, Weight: 1})
		other.insertEdge(edge{To: c, Weight: 1})
	}
}

func (n *Network) remove(c grid.Coord) {
	nd, ok := n.nodes[c]
	if !ok {
		return
	}
	for _, e := range nd.edges {
		if other, ok := n.nodes[e.To]; ok {
			other.dropEdge(c)
		}
	}
	delete(n.nodes, c)
}

// dirs4 mirrors the grid's fixed N, E, S, W ordering.
var dirs4 = [4]grid.Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

func (nd *node) insertEdge(e edge) {
	for i, ex := range nd.edges {
		if ex.To == e.To {
			nd.edges[i] = e
			return
		}
	}
	nd.edges = append(nd.edges, e)
}

func (nd *node) dropEdge(to grid.Coord) {
	for i, e := range nd.edges {
		if e.To == to {
			nd.edges = append(nd.edges[:i], nd.edges[i+1:]...)
			return
		}
	}
}

// Neighbors appends the adjacent road nodes of c in N, E, S, W order.
func (n *Network) Neighbors(c grid.Coord) []grid.Coord {
	nd, ok := n.nodes[c]
	if !ok {
		return nil
	}
	out := make([]grid.Coord, 0, len(nd.edges))
	for _, d := range dirs4 {
		nb := c.Add(d.X, d.Y)
		for _, e := range nd.edges {
			if e.To == nb {
				out = append(out, nb)
				break
			}
		}
	}
	return out
}

// Cost returns the edge weight between two adjacent nodes, or 0 if absent.
func (n *Network) Cost(a, b grid.Coord) int {
	nd, ok := n.nodes[a]
	if !ok {
		return 0
	}
	for _, e := range nd.edges {
		if e.To == b {
			return e.Weight
		}
	}
	return 0
}

// IsConnected reports whether two road nodes are reachable from each other.
// Component labels are recomputed lazily after mutations, so bursts of edits
// cost a single relabel on the next query.
func (n *Network) IsConnected(a, b grid.Coord) bool {
	if !n.Contains(a) || !n.Contains(b) {
		return false
	}
	if a == b {
		return true
	}
	if n.compDirty {
		n.relabel()
	}
	return n.comp[a] == n.comp[b]
}

// Component returns the component label of a road node. Labels are only
// comparable between queries with no intervening mutation; 0 means "not a
// road node".
func (n *Network) Component(c grid.Coord) int {
	if !n.Contains(c) {
		return 0
	}
	if n.compDirty {
		n.relabel()
	}
	return n.comp[c]
}

func (n *Network) relabel() {
	for k := range n.comp {
		delete(n.comp, k)
	}
	label := 0
	var stack []grid.Coord
	for _, c := range n.sortedNodes() {
		if n.comp[c] != 0 {
			continue
		}
		label++
		stack = append(stack[:0], c)
		n.comp[c] = label
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range n.nodes[cur].edges {
				if n.comp[e.To] == 0 {
					n.comp[e.To] = label
					stack = append(stack, e.To)
				}
			}
		}
	}
	n.compDirty = false
}

func (n *Network) sortedNodes() []grid.Coord {
	out := make([]grid.Coord, 0, len(n.nodes))
	for c := range n.nodes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Edges returns every edge as an ordered pair (a < b), sorted. Used by the
// closure oracle in tests.
func (n *Network) Edges() [][2]grid.Coord {
	var out [][2]grid.Coord
	for _, c := range n.sortedNodes() {
		for _, e := range n.nodes[c].edges {
			if c.Less(e.To) {
				out = append(out, [2]grid.Coord{c, e.To})
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
