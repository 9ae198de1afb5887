// Package world owns the simulation clock: zone demand, agent spawning and
// agent advancement, driven one deterministic tick at a time over the tile
// grid and its derived road network.
package world

import (
	"math/rand"
	"sync/atomic"

	"tilecity.ai/internal/persistence/snapshot"
	"tilecity.ai/internal/protocol"
	"tilecity.ai/internal/sim/grid"
	"tilecity.ai/internal/sim/path"
	"tilecity.ai/internal/sim/roadnet"
)

// ZoneAggregate is the per-zone-kind statistic recomputed each tick from
// grid occupancy; it is derived state, never independently mutated.
type ZoneAggregate struct {
	Tiles       int
	Capacity    int
	Load        int
	Population  float64
	UnmetDemand int
}

// CommandEnvelope carries one placement command into the tick loop. Resp, if
// non-nil, receives the ack; it must be buffered.
type CommandEnvelope struct {
	Cmd  protocol.CommandMsg
	Resp chan protocol.AckMsg
}

// TickLogEntry is one replayable tick record: the accepted commands plus the
// post-tick state digest.
type TickLogEntry struct {
	Tick     uint64                `json:"tick"`
	Commands []protocol.CommandMsg `json:"commands,omitempty"`
	Digest   string                `json:"digest"`
}

type TickLogger interface {
	WriteTick(TickLogEntry) error
}

// DayStats is the per-day read-model row emitted at each day rollover.
type DayStats struct {
	Day  int    `json:"day"`
	Tick uint64 `json:"tick"`

	Population float64 `json:"population"`
	Employable float64 `json:"employable"`
	Homeless   float64 `json:"homeless"`
	Unemployed float64 `json:"unemployed"`
	Earnings   float64 `json:"earnings"`
	Funds      float64 `json:"funds"`

	DemandResidential int `json:"demand_residential"`
	DemandCommercial  int `json:"demand_commercial"`
	DemandIndustrial  int `json:"demand_industrial"`

	Agents int `json:"agents"`
}

type Metrics struct {
	Tick      uint64
	Day       int
	Agents    int
	Observers int
	StepMS    float64

	Population float64
	Funds      float64

	InboxDepth int
}

type ObserverJoinRequest struct {
	Out  chan []byte
	Resp chan int
}

type World struct {
	cfg Config

	grid   *grid.Grid
	roads  *roadnet.Network
	finder *path.Finder

	agents       map[string]*Agent
	nextAgentNum uint64

	// Zone statistics as of the last ComputingDemand phase.
	zones map[grid.Kind]*ZoneAggregate
	phase Phase

	// City-wide economy pools (homeless population, unfilled labor).
	populationPool float64
	employmentPool float64
	population     float64
	employable     float64
	earnings       float64
	funds          float64
	day            int

	rng  *rand.Rand
	tick atomic.Uint64

	inbox         chan CommandEnvelope
	observerJoin  chan ObserverJoinRequest
	observerLeave chan int
	stop          chan struct{}
	done          chan struct{}

	observers    map[int]chan []byte
	nextObserver int

	tickLogger   TickLogger
	snapshotSink chan<- snapshot.SnapshotV1
	daySink      chan<- DayStats

	metrics atomic.Value // Metrics
}

func New(cfg Config) (*World, error) {
	cfg.applyDefaults()

	g := grid.New(cfg.Width, cfg.Height, cfg.ZoneCapacity)
	net := roadnet.New()
	g.Subscribe(net)

	w := &World{
		cfg:           cfg,
		grid:          g,
		roads:         net,
		finder:        path.NewFinder(g, net),
		agents:        make(map[string]*Agent),
		zones:         emptyZones(),
		inbox:         make(chan CommandEnvelope, 256),
		observerJoin:  make(chan ObserverJoinRequest, 8),
		observerLeave: make(chan int, 8),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		observers:     make(map[int]chan []byte),
	}
	w.metrics.Store(Metrics{})
	return w, nil
}

func emptyZones() map[grid.Kind]*ZoneAggregate {
	return map[grid.Kind]*ZoneAggregate{
		grid.KindResidential: {},
		grid.KindCommercial:  {},
		grid.KindIndustrial:  {},
	}
}

// tickRNG reseeds the tick's randomness from (seed, tick) alone, so both
// replay and snapshot resume reproduce the exact stream.
func (w *World) tickRNG(nowTick uint64) *rand.Rand {
	return rand.New(rand.NewSource(w.cfg.Seed ^ int64(nowTick*0x9e3779b97f4a7c15)))
}
