package world

import (
	"errors"

	"tilecity.ai/internal/protocol"
	"tilecity.ai/internal/sim/grid"
)

// applyCommand validates and applies one placement command. Failures are
// declined commands, surfaced to the caller for user feedback; they never
// mutate state.
func (w *World) applyCommand(cmd protocol.CommandMsg, nowTick uint64) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          cmd.ID,
		ServerTick:      nowTick,
	}

	c := grid.Coord{X: cmd.X, Y: cmd.Y}
	var kind grid.Kind
	switch cmd.Action {
	case protocol.ActionRemove:
		kind = grid.KindEmpty
	case protocol.ActionPlace:
		k, ok := grid.ParseKind(cmd.Kind)
		if !ok || k == grid.KindEmpty {
			ack.Code = protocol.ErrBadRequest
			ack.Message = "unknown tile kind"
			return ack
		}
		kind = k
	default:
		ack.Code = protocol.ErrBadRequest
		ack.Message = "unknown action"
		return ack
	}

	// Bulldozing a populated zone returns its occupants to the pools.
	var reclaimKind grid.Kind
	var reclaimPop float64
	if kind == grid.KindEmpty {
		if v, ok := w.grid.Query(c); ok && v.Kind.IsZone() {
			reclaimKind = v.Kind
			reclaimPop = v.Population
		}
	}

	if err := w.grid.Place(c, kind); err != nil {
		ack.Code = placeCode(err)
		ack.Message = err.Error()
		return ack
	}

	switch reclaimKind {
	case grid.KindResidential:
		w.populationPool += reclaimPop
	case grid.KindCommercial, grid.KindIndustrial:
		w.employmentPool += reclaimPop
	}

	ack.Accepted = true
	return ack
}

func placeCode(err error) string {
	switch {
	case errors.Is(err, grid.ErrOutOfBounds):
		return protocol.ErrOutOfBounds
	case errors.Is(err, grid.ErrOccupied):
		return protocol.ErrOccupied
	case errors.Is(err, grid.ErrInUse):
		return protocol.ErrInUse
	}
	return protocol.ErrInternal
}
