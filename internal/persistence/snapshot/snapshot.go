// Package snapshot defines the versioned on-disk world snapshot. The road
// network is never persisted: it is regenerated from the tile array on load,
// the grid being the canonical source of truth.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed   int64 `json:"seed"`
	Width  int   `json:"width"`
	Height int   `json:"height"`

	TickRateHz int `json:"tick_rate_hz"`
	DayTicks   int `json:"day_ticks"`

	ZoneCapacity         int     `json:"zone_capacity"`
	MaxAgents            int     `json:"max_agents"`
	SpawnScale           float64 `json:"spawn_scale"`
	StrandedTimeoutTicks int     `json:"stranded_timeout_ticks"`
	SnapshotEveryTicks   int     `json:"snapshot_every_ticks,omitempty"`

	Economy EconomyV1 `json:"economy"`

	// RoadGeneration restores the network's mutation counter so that path
	// staleness checks behave identically after a resume.
	RoadGeneration uint64 `json:"road_generation"`

	// Tiles holds every non-empty tile; empty tiles are implicit.
	Tiles  []TileV1  `json:"tiles"`
	Agents []AgentV1 `json:"agents"`

	Pools    PoolsV1    `json:"pools"`
	Counters CountersV1 `json:"counters"`
}

type EconomyV1 struct {
	BirthRate   float64 `json:"birth_rate"`
	DeathRate   float64 `json:"death_rate"`
	PropCanWork float64 `json:"prop_can_work"`

	ResidentialTax float64 `json:"residential_tax"`
	CommercialTax  float64 `json:"commercial_tax"`
	IndustrialTax  float64 `json:"industrial_tax"`
}

type TileV1 struct {
	X int `json:"x"`
	Y int `json:"y"`

	Kind      uint8 `json:"kind"`
	Occupancy uint8 `json:"occupancy"`
	Variant   uint8 `json:"variant"`

	Capacity    int     `json:"capacity"`
	Load        int     `json:"load"`
	Population  float64 `json:"population,omitempty"`
	Production  int     `json:"production,omitempty"`
	StoredGoods int     `json:"stored_goods,omitempty"`
}

type AgentV1 struct {
	ID   string `json:"id"`
	Num  uint64 `json:"num"`
	Kind uint8  `json:"kind"`

	State  uint8  `json:"state"`
	Origin [2]int `json:"origin"`
	Dest   [2]int `json:"dest"`
	Pos    [2]int `json:"pos"`

	Route      [][2]int `json:"route,omitempty"`
	RouteGen   uint64   `json:"route_gen,omitempty"`
	RouteIndex int      `json:"route_index,omitempty"`

	SpawnedTick   uint64 `json:"spawned_tick"`
	StrandedSince uint64 `json:"stranded_since,omitempty"`
}

type PoolsV1 struct {
	PopulationPool float64 `json:"population_pool"`
	EmploymentPool float64 `json:"employment_pool"`
	Population     float64 `json:"population"`
	Employable     float64 `json:"employable"`
	Earnings       float64 `json:"earnings"`
	Funds          float64 `json:"funds"`
	Day            int     `json:"day"`
}

type CountersV1 struct {
	NextAgent uint64 `json:"next_agent"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; gob carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
