package world

import (
	"encoding/json"
	"time"

	"tilecity.ai/internal/protocol"
)

func (w *World) stepInternal(commands []CommandEnvelope) (uint64, string) {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	w.rng = w.tickRNG(nowTick)

	// Apply placement commands in inbox order, before the phases run, so a
	// tick observes a stable grid.
	recorded := make([]protocol.CommandMsg, 0, len(commands))
	for _, env := range commands {
		ack := w.applyCommand(env.Cmd, nowTick)
		if ack.Accepted {
			recorded = append(recorded, env.Cmd)
		}
		if env.Resp != nil {
			select {
			case env.Resp <- ack:
			default:
			}
		}
	}

	w.runTickPhases(nowTick)

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Commands: recorded, Digest: digest})
	}

	// Broadcast the frame to observers.
	if len(w.observers) > 0 {
		if b, err := json.Marshal(w.buildFrame(nowTick)); err == nil {
			for _, ch := range w.observers {
				sendLatest(ch, b)
			}
		}
	}

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 &&
		nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
		snap := w.exportSnapshot(nowTick)
		select {
		case w.snapshotSink <- snap:
		default:
			// Drop snapshot if the sink is backed up.
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	next := w.tick.Add(1)
	w.metrics.Store(Metrics{
		Tick:       next,
		Day:        w.day,
		Agents:     len(w.agents),
		Observers:  len(w.observers),
		StepMS:     stepMS,
		Population: w.population,
		Funds:      w.funds,
		InboxDepth: len(w.inbox),
	})
	return nowTick, digest
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
