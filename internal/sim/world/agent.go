package world

import (
	"fmt"
	"sort"

	"tilecity.ai/internal/sim/grid"
	"tilecity.ai/internal/sim/path"
)

type AgentState uint8

const (
	StateSpawned AgentState = iota
	StateTraveling
	StateArrived
	StateStranded
)

func (s AgentState) String() string {
	switch s {
	case StateSpawned:
		return "SPAWNED"
	case StateTraveling:
		return "TRAVELING"
	case StateArrived:
		return "ARRIVED"
	case StateStranded:
		return "STRANDED"
	}
	return fmt.Sprintf("STATE_%d", uint8(s))
}

type AgentKind uint8

const (
	AgentCommuter AgentKind = iota
	AgentFreight
)

func (k AgentKind) String() string {
	if k == AgentFreight {
		return "FREIGHT"
	}
	return "COMMUTER"
}

// Agent is a mobile entity representing a commuter or good in transit. It
// holds plain coordinates, never tile or graph references; all lookups are
// re-resolved against current grid state each tick.
type Agent struct {
	ID   string
	Num  uint64
	Kind AgentKind

	State  AgentState
	Origin grid.Coord
	Dest   grid.Coord
	Pos    grid.Coord

	Route      path.Path
	RouteIndex int

	SpawnedTick   uint64
	StrandedSince uint64
}

func (w *World) newAgentID() string {
	w.nextAgentNum++
	return fmt.Sprintf("A%06d", w.nextAgentNum)
}

// sortedAgents returns agents in spawn order. Every per-tick iteration over
// agents goes through this to keep the simulation deterministic.
func (w *World) sortedAgents() []*Agent {
	out := make([]*Agent, 0, len(w.agents))
	for _, a := range w.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Num < out[j].Num })
	return out
}
