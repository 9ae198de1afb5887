package world

import (
	"testing"

	"tilecity.ai/internal/protocol"
)

// cityCommands lays down a small town: a road ring with residential,
// commercial and industrial zones hanging off it.
func cityCommands() []protocol.CommandMsg {
	var cmds []protocol.CommandMsg
	for x := 2; x <= 10; x++ {
		cmds = append(cmds, placeCmd("PLACE", "ROAD", x, 2), placeCmd("PLACE", "ROAD", x, 8))
	}
	for y := 3; y <= 7; y++ {
		cmds = append(cmds, placeCmd("PLACE", "ROAD", 2, y), placeCmd("PLACE", "ROAD", 10, y))
	}
	cmds = append(cmds,
		placeCmd("PLACE", "RESIDENTIAL", 3, 1),
		placeCmd("PLACE", "RESIDENTIAL", 5, 1),
		placeCmd("PLACE", "RESIDENTIAL", 7, 1),
		placeCmd("PLACE", "COMMERCIAL", 3, 9),
		placeCmd("PLACE", "COMMERCIAL", 6, 9),
		placeCmd("PLACE", "INDUSTRIAL", 11, 4),
		placeCmd("PLACE", "INDUSTRIAL", 11, 6),
		placeCmd("PLACE", "BUILDING", 5, 5),
	)
	return cmds
}

func TestDeterminism_FixedCommandsSameDigest(t *testing.T) {
	cfg := testConfig()
	cfg.DayTicks = 20 // cross several day boundaries

	w1 := mustWorld(t, cfg)
	w2 := mustWorld(t, cfg)

	for tick := uint64(0); tick < 100; tick++ {
		var cmds []protocol.CommandMsg
		switch tick {
		case 0:
			cmds = cityCommands()
		case 45:
			cmds = []protocol.CommandMsg{placeCmd("REMOVE", "", 6, 2)}
		case 60:
			cmds = []protocol.CommandMsg{placeCmd("PLACE", "ROAD", 6, 2)}
		}

		t1, d1 := w1.StepOnce(cmds)
		t2, d2 := w2.StepOnce(cmds)
		if t1 != tick || t2 != tick {
			t.Fatalf("tick drift: %d / %d want %d", t1, t2, tick)
		}
		if d1 != d2 {
			t.Fatalf("digest mismatch at tick %d: %s vs %s", tick, d1, d2)
		}
	}
}

func TestDeterminism_SeedChangesDigest(t *testing.T) {
	cfg1 := testConfig()
	cfg2 := testConfig()
	cfg2.Seed = 43

	w1 := mustWorld(t, cfg1)
	w2 := mustWorld(t, cfg2)

	diverged := false
	for tick := uint64(0); tick < 60; tick++ {
		var cmds []protocol.CommandMsg
		if tick == 0 {
			cmds = cityCommands()
		}
		_, d1 := w1.StepOnce(cmds)
		_, d2 := w2.StepOnce(cmds)
		if d1 != d2 {
			diverged = true
			break
		}
	}
	if !diverged {
		t.Fatalf("different seeds never diverged")
	}
}
