package world

import (
	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/protocol"
	"tilecity.ai/internal/sim/grid"
)

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetDaySink(ch chan<- DayStats)                 { w.daySink = ch }

func (w *World) Inbox() chan<- CommandEnvelope            { return w.inbox }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- int                { return w.observerLeave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }
func (w *World) Metrics() Metrics    { return w.metrics.Load().(Metrics) }

func (w *World) Params() protocol.WorldParams {
	return protocol.WorldParams{
		WorldID:    w.cfg.ID,
		TickRateHz: w.cfg.TickRateHz,
		Width:      w.cfg.Width,
		Height:     w.cfg.Height,
		DayTicks:   w.cfg.DayTicks,
		Seed:       w.cfg.Seed,
	}
}

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	return w.exportSnapshot(nowTick)
}

// ImportSnapshot replaces the current in-memory world state with the
// snapshot. It sets the tick to snapshotTick+1 (the next tick to simulate).
//
// Must be called only when the world is stopped or from the loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	return w.importSnapshotV1(s)
}

// StepOnce runs a single tick synchronously with the given command stream
// and returns the tick stepped plus the post-tick digest. Used by replay and
// tests; never call concurrently with Run.
func (w *World) StepOnce(commands []protocol.CommandMsg) (uint64, string) {
	envs := make([]CommandEnvelope, 0, len(commands))
	for _, cmd := range commands {
		envs = append(envs, CommandEnvelope{Cmd: cmd})
	}
	return w.stepInternal(envs)
}

// QueryTile re-exports the grid's read-only tile snapshot.
func (w *World) QueryTile(c grid.Coord) (grid.TileView, bool) { return w.grid.Query(c) }

// ZoneStats returns the aggregate for a zone kind as of the last completed
// ComputingDemand phase.
func (w *World) ZoneStats(k grid.Kind) ZoneAggregate {
	if z, ok := w.zones[k]; ok {
		return *z
	}
	return ZoneAggregate{}
}

// AgentCount reports the live agent population.
func (w *World) AgentCount() int { return len(w.agents) }
