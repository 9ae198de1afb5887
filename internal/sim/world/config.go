package world

import "tilecity.ai/internal/sim/tuning"

type Config struct {
	ID     string
	Width  int
	Height int

	TickRateHz int
	DayTicks   int
	Seed       int64

	ZoneCapacity         int
	MaxAgents            int
	SpawnScale           float64
	StrandedTimeoutTicks int

	// Operational parameters. Included in snapshots for deterministic resume.
	SnapshotEveryTicks int

	BirthRate   float64
	DeathRate   float64
	PropCanWork float64

	ResidentialTax float64
	CommercialTax  float64
	IndustrialTax  float64
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "city_1"
	}
	if c.Width <= 0 {
		c.Width = 64
	}
	if c.Height <= 0 {
		c.Height = 64
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 10
	}
	if c.DayTicks <= 0 {
		c.DayTicks = 100
	}
	if c.ZoneCapacity <= 0 {
		c.ZoneCapacity = 50
	}
	if c.MaxAgents <= 0 {
		c.MaxAgents = 512
	}
	if c.SpawnScale <= 0 {
		c.SpawnScale = 0.02
	}
	if c.StrandedTimeoutTicks <= 0 {
		c.StrandedTimeoutTicks = 30
	}
	if c.PropCanWork <= 0 {
		c.PropCanWork = 0.5
	}
	if c.BirthRate == 0 {
		c.BirthRate = 0.00055
	}
	if c.DeathRate == 0 {
		c.DeathRate = 0.00023
	}
}

// FromTuning maps the YAML tunables onto a world config.
func FromTuning(t tuning.Tuning, id string, seed int64) Config {
	return Config{
		ID:                   id,
		Width:                t.GridWidth,
		Height:               t.GridHeight,
		TickRateHz:           t.TickRateHz,
		DayTicks:             t.DayTicks,
		Seed:                 seed,
		ZoneCapacity:         t.ZoneCapacity,
		MaxAgents:            t.MaxAgents,
		SpawnScale:           t.SpawnScale,
		StrandedTimeoutTicks: t.StrandedTimeoutTicks,
		SnapshotEveryTicks:   t.SnapshotEveryTicks,
		BirthRate:            t.Economy.BirthRate,
		DeathRate:            t.Economy.DeathRate,
		PropCanWork:          t.Economy.PropCanWork,
		ResidentialTax:       t.Economy.ResidentialTax,
		CommercialTax:        t.Economy.CommercialTax,
		IndustrialTax:        t.Economy.IndustrialTax,
	}
}
