package world

import "tilecity.ai/internal/sim/grid"

// destKinds lists the compatible destination kinds for trips originating in
// a zone kind: residential demand sends commuters to job zones, industrial
// demand ships freight to commerce.
func destKinds(k grid.Kind) []grid.Kind {
	switch k {
	case grid.KindResidential:
		return []grid.Kind{grid.KindCommercial, grid.KindIndustrial}
	case grid.KindIndustrial:
		return []grid.Kind{grid.KindCommercial}
	}
	return nil
}

// spawnAgents is the SpawningAgents phase. Each active zone with unmet
// demand rolls against a demand-scaled probability; on success a trip is
// committed (one unit of origin load) and routed. A routing failure is a
// legitimate "no valid trip today": the attempt is discarded silently and
// zone demand stays untouched.
func (w *World) spawnAgents(nowTick uint64) {
	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		if len(w.agents) >= w.cfg.MaxAgents {
			return
		}
		if !t.Kind().IsZone() || t.Occupancy() != grid.OccActive {
			return
		}
		demand := t.Capacity - t.Load
		if demand <= 0 {
			return
		}
		compatible := destKinds(t.Kind())
		if compatible == nil {
			return
		}
		if w.rng.Float64() >= w.cfg.SpawnScale*float64(demand) {
			return
		}

		dest, ok := w.pickDestination(c, compatible)
		if !ok {
			return
		}
		route, err := w.finder.FindPath(c, dest)
		if err != nil {
			return
		}

		kind := AgentCommuter
		if t.Kind() == grid.KindIndustrial {
			kind = AgentFreight
		}
		a := &Agent{
			ID:          w.newAgentID(),
			Num:         w.nextAgentNum,
			Kind:        kind,
			State:       StateSpawned,
			Origin:      c,
			Dest:        dest,
			Pos:         route.Coords[0],
			Route:       route,
			SpawnedTick: nowTick,
		}
		w.agents[a.ID] = a

		// Committing the trip services one unit of origin demand.
		w.grid.AddLoad(c, 1)
	})
}

// pickDestination chooses uniformly among active compatible zones with
// available capacity. Candidate order is row-major, so the draw is
// deterministic under the tick RNG.
func (w *World) pickDestination(origin grid.Coord, kinds []grid.Kind) (grid.Coord, bool) {
	var candidates []grid.Coord
	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		if c == origin || t.Occupancy() != grid.OccActive {
			return
		}
		for _, k := range kinds {
			if t.Kind() == k && t.Capacity-t.Load > 0 {
				candidates = append(candidates, c)
				return
			}
		}
	})
	if len(candidates) == 0 {
		return grid.Coord{}, false
	}
	return candidates[w.rng.Intn(len(candidates))], true
}
