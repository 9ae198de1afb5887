package world

import (
	"fmt"

	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/sim/grid"
	"tilecity.ai/internal/sim/path"
	"tilecity.ai/internal/sim/roadnet"
)

func (w *World) exportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, WorldID: w.cfg.ID, Tick: nowTick},

		Seed:                 w.cfg.Seed,
		Width:                w.cfg.Width,
		Height:               w.cfg.Height,
		TickRateHz:           w.cfg.TickRateHz,
		DayTicks:             w.cfg.DayTicks,
		ZoneCapacity:         w.cfg.ZoneCapacity,
		MaxAgents:            w.cfg.MaxAgents,
		SpawnScale:           w.cfg.SpawnScale,
		StrandedTimeoutTicks: w.cfg.StrandedTimeoutTicks,
		SnapshotEveryTicks:   w.cfg.SnapshotEveryTicks,
		Economy: snapshot.EconomyV1{
			BirthRate:      w.cfg.BirthRate,
			DeathRate:      w.cfg.DeathRate,
			PropCanWork:    w.cfg.PropCanWork,
			ResidentialTax: w.cfg.ResidentialTax,
			CommercialTax:  w.cfg.CommercialTax,
			IndustrialTax:  w.cfg.IndustrialTax,
		},

		RoadGeneration: w.roads.Generation(),

		Pools: snapshot.PoolsV1{
			PopulationPool: w.populationPool,
			EmploymentPool: w.employmentPool,
			Population:     w.population,
			Employable:     w.employable,
			Earnings:       w.earnings,
			Funds:          w.funds,
			Day:            w.day,
		},
		Counters: snapshot.CountersV1{NextAgent: w.nextAgentNum},
	}

	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		if t.Kind() == grid.KindEmpty {
			return
		}
		snap.Tiles = append(snap.Tiles, snapshot.TileV1{
			X: c.X, Y: c.Y,
			Kind:        uint8(t.Kind()),
			Occupancy:   uint8(t.Occupancy()),
			Variant:     t.Variant(),
			Capacity:    t.Capacity,
			Load:        t.Load,
			Population:  t.Population,
			Production:  t.Production,
			StoredGoods: t.StoredGoods,
		})
	})

	for _, a := range w.sortedAgents() {
		av := snapshot.AgentV1{
			ID:            a.ID,
			Num:           a.Num,
			Kind:          uint8(a.Kind),
			State:         uint8(a.State),
			Origin:        [2]int{a.Origin.X, a.Origin.Y},
			Dest:          [2]int{a.Dest.X, a.Dest.Y},
			Pos:           [2]int{a.Pos.X, a.Pos.Y},
			RouteGen:      a.Route.Generation,
			RouteIndex:    a.RouteIndex,
			SpawnedTick:   a.SpawnedTick,
			StrandedSince: a.StrandedSince,
		}
		for _, c := range a.Route.Coords {
			av.Route = append(av.Route, [2]int{c.X, c.Y})
		}
		snap.Agents = append(snap.Agents, av)
	}
	return snap
}

// importSnapshotV1 replaces the in-memory state with the snapshot and sets
// the tick to snapshotTick+1. The road network is rebuilt by replaying a
// RoadChanged event per road tile, then its generation counter is restored.
func (w *World) importSnapshotV1(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != 1 {
		return fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}

	cfg := Config{
		ID:                   snap.Header.WorldID,
		Width:                snap.Width,
		Height:               snap.Height,
		TickRateHz:           snap.TickRateHz,
		DayTicks:             snap.DayTicks,
		Seed:                 snap.Seed,
		ZoneCapacity:         snap.ZoneCapacity,
		MaxAgents:            snap.MaxAgents,
		SpawnScale:           snap.SpawnScale,
		StrandedTimeoutTicks: snap.StrandedTimeoutTicks,
		SnapshotEveryTicks:   snap.SnapshotEveryTicks,
		BirthRate:            snap.Economy.BirthRate,
		DeathRate:            snap.Economy.DeathRate,
		PropCanWork:          snap.Economy.PropCanWork,
		ResidentialTax:       snap.Economy.ResidentialTax,
		CommercialTax:        snap.Economy.CommercialTax,
		IndustrialTax:        snap.Economy.IndustrialTax,
	}
	cfg.applyDefaults()
	w.cfg = cfg

	g := grid.New(cfg.Width, cfg.Height, cfg.ZoneCapacity)
	net := roadnet.New()
	g.Subscribe(net)

	var roads []grid.Coord
	for _, tv := range snap.Tiles {
		c := grid.Coord{X: tv.X, Y: tv.Y}
		ok := g.Restore(c, grid.TileView{
			Coord:       c,
			Kind:        grid.Kind(tv.Kind),
			Occupancy:   grid.Occupancy(tv.Occupancy),
			Variant:     tv.Variant,
			Capacity:    tv.Capacity,
			Load:        tv.Load,
			Population:  tv.Population,
			Production:  tv.Production,
			StoredGoods: tv.StoredGoods,
		})
		if !ok {
			return fmt.Errorf("tile (%d,%d) outside %dx%d", tv.X, tv.Y, cfg.Width, cfg.Height)
		}
		if grid.Kind(tv.Kind) == grid.KindRoad {
			roads = append(roads, c)
		}
	}
	for _, c := range roads {
		net.OnRoadChanged(grid.RoadChanged{Coord: c, Added: true})
	}
	net.RestoreGeneration(snap.RoadGeneration)

	w.grid = g
	w.roads = net
	w.finder = path.NewFinder(g, net)

	w.agents = make(map[string]*Agent, len(snap.Agents))
	for _, av := range snap.Agents {
		a := &Agent{
			ID:            av.ID,
			Num:           av.Num,
			Kind:          AgentKind(av.Kind),
			State:         AgentState(av.State),
			Origin:        grid.Coord{X: av.Origin[0], Y: av.Origin[1]},
			Dest:          grid.Coord{X: av.Dest[0], Y: av.Dest[1]},
			Pos:           grid.Coord{X: av.Pos[0], Y: av.Pos[1]},
			RouteIndex:    av.RouteIndex,
			SpawnedTick:   av.SpawnedTick,
			StrandedSince: av.StrandedSince,
		}
		a.Route.Generation = av.RouteGen
		for _, rc := range av.Route {
			a.Route.Coords = append(a.Route.Coords, grid.Coord{X: rc[0], Y: rc[1]})
		}
		w.agents[a.ID] = a
	}
	w.nextAgentNum = snap.Counters.NextAgent

	w.populationPool = snap.Pools.PopulationPool
	w.employmentPool = snap.Pools.EmploymentPool
	w.population = snap.Pools.Population
	w.employable = snap.Pools.Employable
	w.earnings = snap.Pools.Earnings
	w.funds = snap.Pools.Funds
	w.day = snap.Pools.Day

	w.zones = emptyZones()
	w.tick.Store(snap.Header.Tick + 1)
	return nil
}
