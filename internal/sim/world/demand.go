package world

import "tilecity.ai/internal/sim/grid"

// computeDemand is the ComputingDemand phase: activate zones that gained
// road access, recompute the per-kind zone aggregates from grid occupancy,
// then run the day-boundary economy passes. The day passes read the fresh
// aggregates for their stats row and move pool population into tiles, so
// they are followed by a second aggregate pass on day ticks.
func (w *World) computeDemand(nowTick uint64) {
	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		if t.Kind().IsZone() && t.Occupancy() == grid.OccUnderConstruction {
			if _, ok := w.finder.AccessNode(c); ok {
				w.grid.Activate(c)
			}
		}
	})

	w.recomputeZoneAggregates()

	if nowTick != 0 && nowTick%uint64(w.cfg.DayTicks) == 0 {
		w.advanceDay(nowTick)
		w.recomputeZoneAggregates()
	}
}

func (w *World) recomputeZoneAggregates() {
	zones := emptyZones()
	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		z, ok := zones[t.Kind()]
		if !ok {
			return
		}
		z.Tiles++
		if t.Occupancy() != grid.OccActive {
			return
		}
		z.Capacity += t.Capacity
		z.Load += t.Load
		z.Population += t.Population
	})
	for _, z := range zones {
		z.UnmetDemand = z.Capacity - z.Load
		if z.UnmetDemand < 0 {
			z.UnmetDemand = 0
		}
	}
	w.zones = zones
}
