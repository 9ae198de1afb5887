package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`
	DayTicks   int `yaml:"day_ticks"`

	GridWidth  int `yaml:"grid_width"`
	GridHeight int `yaml:"grid_height"`

	ZoneCapacity         int     `yaml:"zone_capacity"`
	MaxAgents            int     `yaml:"max_agents"`
	SpawnScale           float64 `yaml:"spawn_scale"`
	StrandedTimeoutTicks int     `yaml:"stranded_timeout_ticks"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Economy Economy `yaml:"economy"`
}

type Economy struct {
	BirthRate   float64 `yaml:"birth_rate"`
	DeathRate   float64 `yaml:"death_rate"`
	PropCanWork float64 `yaml:"prop_can_work"`

	ResidentialTax float64 `yaml:"residential_tax"`
	CommercialTax  float64 `yaml:"commercial_tax"`
	IndustrialTax  float64 `yaml:"industrial_tax"`
}

// Load reads a YAML tuning file. Fields absent from the file keep their
// Defaults() values, so partial files are fine.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:      "1.0",
		TickRateHz:           10,
		DayTicks:             100,
		GridWidth:            64,
		GridHeight:           64,
		ZoneCapacity:         50,
		MaxAgents:            512,
		SpawnScale:           0.02,
		StrandedTimeoutTicks: 30,
		SnapshotEveryTicks:   3000,
		Economy: Economy{
			BirthRate:      0.00055,
			DeathRate:      0.00023,
			PropCanWork:    0.50,
			ResidentialTax: 0.05,
			CommercialTax:  0.05,
			IndustrialTax:  0.05,
		},
	}
}
