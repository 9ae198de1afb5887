package world

import (
	"math"

	"tilecity.ai/internal/sim/grid"
)

// advanceDay runs the slow economy passes at each day rollover: pool
// distribution into zones, goods manufacture and distribution over the road
// network, migration, and tax accounting. All iteration is row-major and all
// randomness comes from the tick RNG, keeping days replayable.
func (w *World) advanceDay(nowTick uint64) {
	w.day++
	if w.day%30 == 0 {
		w.funds += w.earnings
		w.earnings = 0
	}

	var popTotal, commercialRevenue, industrialRevenue float64
	var emptyHomes, freeJobs float64
	var stores, industries int

	type zoneRef struct {
		c      grid.Coord
		region int
	}
	var commercial, industrial []zoneRef
	resPopByRegion := map[int]float64{}

	regionOf := func(c grid.Coord) int {
		access, ok := w.finder.AccessNode(c)
		if !ok {
			return 0
		}
		return w.roads.Component(access)
	}

	// Population and employment distribution pass.
	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		if t.Occupancy() != grid.OccActive {
			return
		}
		maxPop := float64(t.Capacity)
		switch t.Kind() {
		case grid.KindResidential:
			w.populationPool, t.Population = distributePool(
				w.populationPool, t.Population, maxPop, w.cfg.BirthRate-w.cfg.DeathRate)
			emptyHomes += maxPop - t.Population
			popTotal += t.Population
			if r := regionOf(c); r != 0 {
				resPopByRegion[r] += t.Population
			}
		case grid.KindCommercial:
			if (1-w.cfg.CommercialTax)*0.15 > w.rng.Float64() {
				w.employmentPool, t.Population = distributePool(
					w.employmentPool, t.Population, maxPop, 0)
			}
			stores++
			freeJobs += maxPop - t.Population
			commercial = append(commercial, zoneRef{c: c, region: regionOf(c)})
		case grid.KindIndustrial:
			if t.Population*0.01 > w.rng.Float64() {
				t.Production++
			}
			if (1-w.cfg.IndustrialTax)*0.15 > w.rng.Float64() {
				w.employmentPool, t.Population = distributePool(
					w.employmentPool, t.Population, maxPop, 0)
			}
			industries++
			freeJobs += maxPop - t.Population
			industrial = append(industrial, zoneRef{c: c, region: regionOf(c)})
		}
	})

	// Manufacture pass: each industrial tile pulls one unit of raw
	// production from industrial peers on the same road component.
	for _, ref := range industrial {
		if ref.region == 0 {
			continue
		}
		received := 0
		for _, peer := range industrial {
			if peer.region != ref.region {
				continue
			}
			pt, _ := w.grid.Tile(peer.c)
			if pt.Production > 0 {
				pt.Production--
				received++
			}
			if received >= 1 {
				break
			}
		}
		t, _ := w.grid.Tile(ref.c)
		t.StoredGoods += received
	}

	// Goods distribution pass: commercial tiles buy stored goods from
	// industrial tiles on the same road component; revenue scales with the
	// residential customers that component can deliver.
	for _, ref := range commercial {
		if ref.region == 0 {
			continue
		}
		received := 0
		for _, src := range industrial {
			if src.region != ref.region {
				continue
			}
			st, _ := w.grid.Tile(src.c)
			for st.StoredGoods > 0 && received < 1 {
				st.StoredGoods--
				received++
				industrialRevenue += 100 * (1 - w.cfg.IndustrialTax)
			}
			if received >= 1 {
				break
			}
		}
		t, _ := w.grid.Tile(ref.c)
		production := (float64(received)*100 + 20*w.rng.Float64()) * (1 - w.cfg.CommercialTax)
		commercialRevenue += production * resPopByRegion[ref.region] * t.Population / 100
	}

	// Migration.
	w.populationPool += w.populationPool * (w.cfg.BirthRate - w.cfg.DeathRate)

	attract := math.Max(emptyHomes-w.populationPool, 0) *
		math.Max(freeJobs-w.employmentPool, 0) * (1 - w.cfg.ResidentialTax)
	immigrants := 1 + attract*0.0001
	if stores > 0 && industries > 0 && attract*0.00001 > w.rng.Float64() {
		w.populationPool += immigrants
	}
	if (w.populationPool > emptyHomes || w.employmentPool > freeJobs) &&
		(w.populationPool+w.employmentPool)*0.01 > w.rng.Float64() {
		w.populationPool -= (w.populationPool+w.employmentPool)*0.05 + 1
		if w.populationPool < 0 {
			w.populationPool = 0
		}
	}

	popTotal += w.populationPool

	newWorkers := math.Abs(popTotal-w.population) * w.cfg.PropCanWork
	w.employmentPool += newWorkers
	w.employable += newWorkers
	if w.employmentPool < 0 {
		w.employmentPool = 0
	}
	if w.employable < 0 {
		w.employable = 0
	}
	w.population = popTotal

	w.earnings += (w.population - w.populationPool) * 15 * w.cfg.ResidentialTax
	w.earnings += commercialRevenue * w.cfg.CommercialTax
	w.earnings += industrialRevenue * w.cfg.IndustrialTax

	if w.daySink != nil {
		row := w.dayStats(nowTick)
		select {
		case w.daySink <- row:
		default:
		}
	}
}

func (w *World) dayStats(nowTick uint64) DayStats {
	return DayStats{
		Day:               w.day,
		Tick:              nowTick,
		Population:        w.population,
		Employable:        w.employable,
		Homeless:          w.populationPool,
		Unemployed:        w.employmentPool,
		Earnings:          w.earnings,
		Funds:             w.funds,
		DemandResidential: w.zones[grid.KindResidential].UnmetDemand,
		DemandCommercial:  w.zones[grid.KindCommercial].UnmetDemand,
		DemandIndustrial:  w.zones[grid.KindIndustrial].UnmetDemand,
		Agents:            len(w.agents),
	}
}

// distributePool moves at most four occupants per day from a city pool into
// a zone tile, then applies the growth rate, spilling overflow back.
func distributePool(pool, population, maxPop, changeRate float64) (float64, float64) {
	if pool > 0 {
		moving := math.Min(math.Min(maxPop-population, 4), pool)
		if moving > 0 {
			pool -= moving
			population += moving
		}
	}
	population += population * changeRate
	if population > maxPop {
		pool += population - maxPop
		population = maxPop
	}
	return pool, population
}
