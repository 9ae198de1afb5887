// Package indexdb maintains an async SQLite read model next to the
// authoritative tick log. Writes are fire-and-forget from the sim loop's
// perspective; a single writer goroutine batches them into transactions.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/sim/world"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqDay
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	day      world.DayStats
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick   uint64
	Path   string
	Seed   int64
	Width  int
	Height int
	Tiles  int
	Agents int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	if err := s.initPragmas(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.loop()
	return s, nil
}

func (s *SQLiteIndex) initPragmas() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA foreign_keys=ON;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA temp_store=MEMORY;`,
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteIndex) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta(
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks(
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS days(
			day INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			population REAL NOT NULL,
			employable REAL NOT NULL,
			homeless REAL NOT NULL,
			unemployed REAL NOT NULL,
			earnings REAL NOT NULL,
			funds REAL NOT NULL,
			demand_residential INTEGER NOT NULL,
			demand_commercial INTEGER NOT NULL,
			demand_industrial INTEGER NOT NULL,
			agents INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots(
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			tiles INTEGER NOT NULL,
			agents INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_days_tick ON days(tick);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteTick indexes one tick record. Drops the row if the indexer falls
// behind; the tick log remains the durable record.
func (s *SQLiteIndex) WriteTick(e world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: e}:
	default:
	}
	return nil
}

// WriteDay records the day rollover stats row. Drop if behind.
func (s *SQLiteIndex) WriteDay(d world.DayStats) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqDay, day: d}:
	default:
	}
}

// RecordSnapshot notes where a snapshot landed on disk so operators can find
// the latest resume point with a single query.
func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	if path == "" {
		return
	}
	r := snapshotRow{
		Tick:   snap.Header.Tick,
		Path:   path,
		Seed:   snap.Seed,
		Width:  snap.Width,
		Height: snap.Height,
		Tiles:  len(snap.Tiles),
		Agents: len(snap.Agents),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	defer s.wg.Done()
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,commands,raw_json) VALUES(?,?,?,?)`)
	insertDay, _ := s.db.Prepare(`INSERT OR REPLACE INTO days(day,tick,population,employable,homeless,unemployed,earnings,funds,demand_residential,demand_commercial,demand_industrial,agents) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,width,height,tiles,agents) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertDay != nil {
			_ = insertDay.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			if insertTick == nil {
				break
			}
			b, _ := json.Marshal(r.tick)
			if _, err := tx.Stmt(insertTick).Exec(
				int64(r.tick.Tick),
				r.tick.Digest,
				len(r.tick.Commands),
				string(b),
			); err != nil {
				rollback()
				continue
			}
			opCount++
		case reqDay:
			if insertDay == nil {
				break
			}
			if _, err := tx.Stmt(insertDay).Exec(
				r.day.Day,
				int64(r.day.Tick),
				r.day.Population,
				r.day.Employable,
				r.day.Homeless,
				r.day.Unemployed,
				r.day.Earnings,
				r.day.Funds,
				r.day.DemandResidential,
				r.day.DemandCommercial,
				r.day.DemandIndustrial,
				r.day.Agents,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		case reqSnapshot:
			if insertSnapshot == nil {
				break
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(
				int64(r.snapshot.Tick),
				r.snapshot.Path,
				r.snapshot.Seed,
				r.snapshot.Width,
				r.snapshot.Height,
				r.snapshot.Tiles,
				r.snapshot.Agents,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}
	commit()
}

// LatestSnapshotPath returns the path of the snapshot with the highest tick,
// or "" when none have been recorded.
func (s *SQLiteIndex) LatestSnapshotPath() (string, uint64, error) {
	if s == nil {
		return "", 0, nil
	}
	row := s.db.QueryRow(`SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`)
	var path string
	var tick int64
	if err := row.Scan(&path, &tick); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, nil
		}
		return "", 0, err
	}
	return path, uint64(tick), nil
}
