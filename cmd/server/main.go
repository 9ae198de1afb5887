package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tilecity.ai/internal/persistence/indexdb"
	persistlog "tilecity.ai/internal/persistence/log"
	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/sim/tuning"
	"tilecity.ai/internal/sim/world"
	"tilecity.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "city_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(worldDir)
	}

	// Tuning is required for a fresh world; a snapshot resume carries its own
	// effective config, so a missing file falls back to defaults.
	tune, tuneErr := tuning.Load(tp)
	if tuneErr != nil {
		if snapshotToLoad == "" || !os.IsNotExist(tuneErr) {
			logger.Fatalf("load tuning: %v", tuneErr)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	// Read-model index (does not affect sim determinism).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		var err error
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	w, err := world.New(world.FromTuning(tune, *worldID, *seed))
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.WorldID != "" && snap.Header.WorldID != *worldID {
			logger.Fatalf("snapshot world id mismatch: flag=%s snap=%s", *worldID, snap.Header.WorldID)
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	}

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	// Day stats writer.
	dayCh := make(chan world.DayStats, 8)
	w.SetDaySink(dayCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-dayCh:
				if idx != nil {
					idx.WriteDay(d)
				}
				logger.Printf("day=%d pop=%.1f funds=%.1f agents=%d", d.Day, d.Population, d.Funds, d.Agents)
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()
		tick := w.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP tilecity_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_tick gauge\n")
		fmt.Fprintf(rw, "tilecity_world_tick{world=%q} %d\n", *worldID, tick)

		fmt.Fprintf(rw, "# HELP tilecity_world_day Current simulation day.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_day gauge\n")
		fmt.Fprintf(rw, "tilecity_world_day{world=%q} %d\n", *worldID, m.Day)

		fmt.Fprintf(rw, "# HELP tilecity_world_agents Current number of traveling agents.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_agents gauge\n")
		fmt.Fprintf(rw, "tilecity_world_agents{world=%q} %d\n", *worldID, m.Agents)

		fmt.Fprintf(rw, "# HELP tilecity_world_observers Connected observer sessions.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_observers gauge\n")
		fmt.Fprintf(rw, "tilecity_world_observers{world=%q} %d\n", *worldID, m.Observers)

		fmt.Fprintf(rw, "# HELP tilecity_world_population City population.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_population gauge\n")
		fmt.Fprintf(rw, "tilecity_world_population{world=%q} %.2f\n", *worldID, m.Population)

		fmt.Fprintf(rw, "# HELP tilecity_world_funds City treasury.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_funds gauge\n")
		fmt.Fprintf(rw, "tilecity_world_funds{world=%q} %.2f\n", *worldID, m.Funds)

		fmt.Fprintf(rw, "# HELP tilecity_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "tilecity_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "inbox", m.InboxDepth)

		fmt.Fprintf(rw, "# HELP tilecity_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE tilecity_world_step_ms gauge\n")
		fmt.Fprintf(rw, "tilecity_world_step_ms{world=%q} %.3f\n", *worldID, m.StepMS)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// multiTickLogger fans a tick record out to the durable jsonl log and the
// best-effort sqlite index.
type multiTickLogger struct {
	a *persistlog.TickLogger
	b *indexdb.SQLiteIndex
}

func (m multiTickLogger) WriteTick(e world.TickLogEntry) error {
	err := m.a.WriteTick(e)
	if m.b != nil {
		_ = m.b.WriteTick(e)
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
