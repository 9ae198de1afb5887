package world

import "fmt"

// Phase is the per-tick state machine. Each tick runs
// ComputingDemand -> SpawningAgents -> AdvancingAgents and returns to Idle;
// the explicit enum keeps the per-tick ordering auditable and lets tests
// drive single phases in isolation.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseComputingDemand
	PhaseSpawningAgents
	PhaseAdvancingAgents
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseComputingDemand:
		return "COMPUTING_DEMAND"
	case PhaseSpawningAgents:
		return "SPAWNING_AGENTS"
	case PhaseAdvancingAgents:
		return "ADVANCING_AGENTS"
	}
	return fmt.Sprintf("PHASE_%d", uint8(p))
}

func (w *World) runTickPhases(nowTick uint64) {
	w.phase = PhaseComputingDemand
	for w.phase != PhaseIdle {
		w.phase = w.runPhase(w.phase, nowTick)
	}
}

func (w *World) runPhase(p Phase, nowTick uint64) Phase {
	switch p {
	case PhaseComputingDemand:
		w.computeDemand(nowTick)
		return PhaseSpawningAgents
	case PhaseSpawningAgents:
		w.spawnAgents(nowTick)
		return PhaseAdvancingAgents
	case PhaseAdvancingAgents:
		w.advanceAgents(nowTick)
		return PhaseIdle
	}
	return PhaseIdle
}
