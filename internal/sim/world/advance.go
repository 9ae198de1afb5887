package world

import "tilecity.ai/internal/sim/grid"

// advanceAgents is the AdvancingAgents phase: stale paths are detected by
// generation stamp and re-routed, traveling agents move one tile, arrivals
// commit destination load, and stranded agents either recover or time out.
func (w *World) advanceAgents(nowTick uint64) {
	for _, a := range w.sortedAgents() {
		switch a.State {
		case StateArrived:
			// Arrived last tick; retire now.
			delete(w.agents, a.ID)

		case StateSpawned:
			a.State = StateTraveling

		case StateStranded:
			if !w.destinationLive(a.Dest) {
				w.abortTrip(a)
				continue
			}
			if route, err := w.finder.FindPath(a.Pos, a.Dest); err == nil {
				a.Route = route
				a.RouteIndex = 0
				a.Pos = route.Coords[0]
				a.State = StateTraveling
				continue
			}
			if nowTick-a.StrandedSince >= uint64(w.cfg.StrandedTimeoutTicks) {
				// The trip never happened; restore origin demand.
				w.abortTrip(a)
			}

		case StateTraveling:
			if !a.Route.Valid(w.roads) {
				route, err := w.finder.FindPath(a.Pos, a.Dest)
				if err != nil {
					a.State = StateStranded
					a.StrandedSince = nowTick
					continue
				}
				a.Route = route
				a.RouteIndex = 0
				a.Pos = route.Coords[0]
			}
			if a.RouteIndex+1 < len(a.Route.Coords) {
				a.RouteIndex++
				a.Pos = a.Route.Coords[a.RouteIndex]
			}
			if a.RouteIndex == len(a.Route.Coords)-1 {
				if !w.destinationLive(a.Dest) {
					w.abortTrip(a)
					continue
				}
				a.State = StateArrived
				w.grid.AddLoad(a.Dest, 1)
			}
		}
	}
}

// destinationLive re-resolves a trip target against the current grid. Zones
// carry no load until arrival, so a destination can be bulldozed or rebuilt
// while trips toward it are in flight; only a still-active zone may receive
// the arrival.
func (w *World) destinationLive(c grid.Coord) bool {
	v, ok := w.grid.Query(c)
	return ok && v.Kind.IsZone() && v.Occupancy == grid.OccActive
}

// abortTrip retires an agent whose trip can no longer complete and hands the
// origin back the demand unit committed at spawn.
func (w *World) abortTrip(a *Agent) {
	w.grid.AddLoad(a.Origin, -1)
	delete(w.agents, a.ID)
}
