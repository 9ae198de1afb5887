package world

import (
	"tilecity.ai/internal/protocol"
	"tilecity.ai/internal/sim/grid"
)

// buildFrame assembles the read-only world view exposed to the rendering/UI
// collaborator. Built only between phases, so it is always self-consistent
// as of the last completed tick.
func (w *World) buildFrame(nowTick uint64) protocol.FrameMsg {
	gw, gh := w.grid.Width(), w.grid.Height()
	f := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		Day:             w.day,
		Width:           gw,
		Height:          gh,
		Kinds:           make([]uint8, 0, gw*gh),
		Occupancy:       make([]uint8, 0, gw*gh),
		Variants:        make([]uint8, 0, gw*gh),
		Capacities:      make([]int, 0, gw*gh),
		Loads:           make([]int, 0, gw*gh),
		Agents:          make([]protocol.AgentView, 0, len(w.agents)),
		Zones:           make(map[string]protocol.ZoneStats, len(w.zones)),
	}

	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		f.Kinds = append(f.Kinds, uint8(t.Kind()))
		f.Occupancy = append(f.Occupancy, uint8(t.Occupancy()))
		f.Variants = append(f.Variants, t.Variant())
		f.Capacities = append(f.Capacities, t.Capacity)
		f.Loads = append(f.Loads, t.Load)
	})

	for _, a := range w.sortedAgents() {
		f.Agents = append(f.Agents, protocol.AgentView{
			ID:    a.ID,
			X:     a.Pos.X,
			Y:     a.Pos.Y,
			State: a.State.String(),
		})
	}

	for k, z := range w.zones {
		f.Zones[k.String()] = protocol.ZoneStats{
			Tiles:       z.Tiles,
			Capacity:    z.Capacity,
			Load:        z.Load,
			UnmetDemand: z.UnmetDemand,
			Population:  z.Population,
		}
	}

	f.City = protocol.CityStats{
		Population: w.population,
		Employable: w.employable,
		Homeless:   w.populationPool,
		Unemployed: w.employmentPool,
		Earnings:   w.earnings,
		Funds:      w.funds,
		Agents:     len(w.agents),
	}
	return f
}
