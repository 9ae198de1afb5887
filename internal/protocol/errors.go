package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Placement layer.
	ErrBadRequest  = "E_BAD_REQUEST"
	ErrOutOfBounds = "E_OUT_OF_BOUNDS"
	ErrOccupied    = "E_OCCUPIED"
	ErrInUse       = "E_IN_USE"

	// Routing layer. Expected, frequent outcomes of normal simulation;
	// surfaced only on explicit route probes, never as crashes.
	ErrNoRoadAccess = "E_NO_ROAD_ACCESS"
	ErrUnreachable  = "E_UNREACHABLE"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrOutOfBounds:     {},
	ErrOccupied:        {},
	ErrInUse:           {},
	ErrNoRoadAccess:    {},
	ErrUnreachable:     {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
