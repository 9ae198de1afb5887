package world

import (
	"path/filepath"
	"testing"

	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/protocol"
)

func TestSnapshot_ResumeMatchesContinuousRun(t *testing.T) {
	cfg := testConfig()
	cfg.DayTicks = 20

	w1 := mustWorld(t, cfg)
	for tick := uint64(0); tick < 30; tick++ {
		var cmds []protocol.CommandMsg
		if tick == 0 {
			cmds = cityCommands()
		}
		w1.StepOnce(cmds)
	}

	snap := w1.ExportSnapshot(w1.CurrentTick() - 1)
	if snap.Header.Tick != 29 {
		t.Fatalf("snapshot tick = %d", snap.Header.Tick)
	}

	w2 := mustWorld(t, cfg)
	if err := w2.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if w2.CurrentTick() != 30 {
		t.Fatalf("resumed tick = %d", w2.CurrentTick())
	}

	// Both worlds must now walk the identical digest sequence.
	for i := 0; i < 40; i++ {
		var cmds []protocol.CommandMsg
		if i == 5 {
			cmds = []protocol.CommandMsg{placeCmd("REMOVE", "", 6, 2)}
		}
		t1, d1 := w1.StepOnce(cmds)
		t2, d2 := w2.StepOnce(cmds)
		if t1 != t2 {
			t.Fatalf("tick drift: %d vs %d", t1, t2)
		}
		if d1 != d2 {
			t.Fatalf("digest mismatch at tick %d:\n  continuous %s\n  resumed    %s", t1, d1, d2)
		}
	}
}

func TestSnapshot_FileRoundTrip(t *testing.T) {
	cfg := testConfig()
	w1 := mustWorld(t, cfg)
	for tick := uint64(0); tick < 12; tick++ {
		var cmds []protocol.CommandMsg
		if tick == 0 {
			cmds = cityCommands()
		}
		w1.StepOnce(cmds)
	}

	snap := w1.ExportSnapshot(w1.CurrentTick() - 1)
	p := filepath.Join(t.TempDir(), "snapshots", "11.snap.zst")
	if err := snapshot.WriteSnapshot(p, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := snapshot.ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if loaded.Header.Tick != snap.Header.Tick || loaded.Header.WorldID != snap.Header.WorldID {
		t.Fatalf("header = %+v", loaded.Header)
	}
	if len(loaded.Tiles) != len(snap.Tiles) || len(loaded.Agents) != len(snap.Agents) {
		t.Fatalf("payload: tiles %d/%d agents %d/%d",
			len(loaded.Tiles), len(snap.Tiles), len(loaded.Agents), len(snap.Agents))
	}

	w2 := mustWorld(t, cfg)
	if err := w2.ImportSnapshot(loaded); err != nil {
		t.Fatalf("import: %v", err)
	}
	_, d1 := w1.StepOnce(nil)
	_, d2 := w2.StepOnce(nil)
	if d1 != d2 {
		t.Fatalf("digest mismatch after file round trip")
	}
}
