package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/sim/world"
)

func TestSQLiteIndex_WritesRows(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "world.sqlite")

	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := idx.WriteTick(world.TickLogEntry{Tick: 7, Digest: "abc123"}); err != nil {
		t.Fatalf("write tick: %v", err)
	}
	idx.WriteDay(world.DayStats{
		Day:               3,
		Tick:              300,
		Population:        120.5,
		Employable:        60.25,
		DemandResidential: 40,
		DemandCommercial:  12,
		Agents:            5,
	})
	idx.RecordSnapshot(filepath.Join(dir, "snap-300.zst"), snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, WorldID: "w1", Tick: 300},
		Seed:   42,
		Width:  64,
		Height: 64,
		Tiles:  []snapshot.TileV1{{X: 1, Y: 1}},
	})

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var digest string
	if err := db.QueryRow(`SELECT digest FROM ticks WHERE tick=7`).Scan(&digest); err != nil {
		t.Fatalf("query tick: %v", err)
	}
	if digest != "abc123" {
		t.Fatalf("digest = %q", digest)
	}

	var pop float64
	var demandRes int
	if err := db.QueryRow(`SELECT population, demand_residential FROM days WHERE day=3`).Scan(&pop, &demandRes); err != nil {
		t.Fatalf("query day: %v", err)
	}
	if pop != 120.5 || demandRes != 40 {
		t.Fatalf("day row: pop=%v demand=%d", pop, demandRes)
	}

	var path string
	var tiles int
	if err := db.QueryRow(`SELECT path, tiles FROM snapshots WHERE tick=300`).Scan(&path, &tiles); err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if tiles != 1 {
		t.Fatalf("tiles = %d", tiles)
	}
}

func TestSQLiteIndex_LatestSnapshotPath(t *testing.T) {
	dir := t.TempDir()
	idx, err := OpenSQLite(filepath.Join(dir, "world.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	idx.RecordSnapshot("a.zst", snapshot.SnapshotV1{Header: snapshot.Header{Tick: 100}})
	idx.RecordSnapshot("b.zst", snapshot.SnapshotV1{Header: snapshot.Header{Tick: 200}})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx2, err := OpenSQLite(filepath.Join(dir, "world.sqlite"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	path, tick, err := idx2.LatestSnapshotPath()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if path != "b.zst" || tick != 200 {
		t.Fatalf("latest = %q @ %d", path, tick)
	}
}
