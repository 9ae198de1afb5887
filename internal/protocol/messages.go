package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	Mode            string `json:"mode,omitempty"` // "builder" (default) or "observer"
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id,omitempty"`
	Mode            string      `json:"mode"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	WorldID    string `json:"world_id"`
	TickRateHz int    `json:"tick_rate_hz"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	DayTicks   int    `json:"day_ticks"`
	Seed       int64  `json:"seed"`
}

// COMMAND (client -> server): a placement intent.
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"` // echoed in the ACK
	Action          string `json:"action"`       // PLACE or REMOVE
	Kind            string `json:"kind,omitempty"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
}

// ACK (server -> client): per-command outcome, consumed for user feedback.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for,omitempty"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

// FRAME (server -> client): the read-only world view, one per tick.
// Self-consistent as of the last completed tick, never mid-tick.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Day             int    `json:"day"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Row-major tile arrays, len = width*height.
	Kinds      []uint8 `json:"kinds"`
	Occupancy  []uint8 `json:"occupancy"`
	Variants   []uint8 `json:"variants"`
	Capacities []int   `json:"capacities"`
	Loads      []int   `json:"loads"`

	Agents []AgentView          `json:"agents"`
	Zones  map[string]ZoneStats `json:"zones"`
	City   CityStats            `json:"city"`
}

// AgentView is the visual state of one agent: coordinate plus state tag.
type AgentView struct {
	ID    string `json:"id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	State string `json:"state"`
}

// ZoneStats is the per-zone-kind aggregate, recomputed each tick.
type ZoneStats struct {
	Tiles       int     `json:"tiles"`
	Capacity    int     `json:"capacity"`
	Load        int     `json:"load"`
	UnmetDemand int     `json:"unmet_demand"`
	Population  float64 `json:"population"`
}

type CityStats struct {
	Population float64 `json:"population"`
	Employable float64 `json:"employable"`
	Homeless   float64 `json:"homeless"`
	Unemployed float64 `json:"unemployed"`
	Earnings   float64 `json:"earnings"`
	Funds      float64 `json:"funds"`
	Agents     int     `json:"agents"`
}
