package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"tilecity.ai/internal/sim/grid"
)

// stateDigest hashes the full simulation state after a tick. Equal digests
// across runs are the determinism contract verified by replay.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var buf [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeF64 := func(v float64) { writeU64(math.Float64bits(v)) }
	writeCoord := func(c grid.Coord) {
		writeU64(uint64(int64(c.X)))
		writeU64(uint64(int64(c.Y)))
	}

	writeU64(nowTick)

	w.grid.Each(func(c grid.Coord, t *grid.Tile) {
		h.Write([]byte{byte(t.Kind()), byte(t.Occupancy()), t.Variant()})
		writeU64(uint64(int64(t.Capacity)))
		writeU64(uint64(int64(t.Load)))
		writeF64(t.Population)
		writeU64(uint64(int64(t.Production)))
		writeU64(uint64(int64(t.StoredGoods)))
	})

	for _, a := range w.sortedAgents() {
		h.Write([]byte(a.ID))
		h.Write([]byte{byte(a.State), byte(a.Kind)})
		writeCoord(a.Origin)
		writeCoord(a.Dest)
		writeCoord(a.Pos)
		writeU64(uint64(int64(a.RouteIndex)))
		writeU64(uint64(len(a.Route.Coords)))
		for _, c := range a.Route.Coords {
			writeCoord(c)
		}
		writeU64(a.SpawnedTick)
		writeU64(a.StrandedSince)
	}

	writeF64(w.populationPool)
	writeF64(w.employmentPool)
	writeF64(w.population)
	writeF64(w.employable)
	writeF64(w.earnings)
	writeF64(w.funds)
	writeU64(uint64(int64(w.day)))
	writeU64(w.nextAgentNum)

	return hex.EncodeToString(h.Sum(nil))
}
