package gameview

// State is the lifecycle phase of a View
type State int

const (
	// StateIdle means no game is bound
	StateIdle State = iota
	// StateStarting means a new-game request is in flight
	StateStarting
	// StatePolling means a game is bound and refreshed on every tick
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

// Stats counts polling outcomes for one View
type Stats struct {
	Fetches    int // fetches issued
	Applied    int // snapshots that replaced the displayed one
	Suppressed int // failed fetches, silently ignored
	Discarded  int // results that arrived after their binding ended
	Failed     int // refreshes that returned an error to the caller
}
