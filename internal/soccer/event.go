package soccer

// Side identifies one of the two teams on the pitch.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Left {
		return Right
	}
	return Left
}

// PlayMode is the referee state of the match.
type PlayMode string

const (
	PlayBeforeKickOff PlayMode = "before_kick_off"
	PlayOn            PlayMode = "play_on"
	PlayKickOffLeft   PlayMode = "kick_off_left"
	PlayKickOffRight  PlayMode = "kick_off_right"
)

// kickOffFor returns the kick-off mode for side.
func kickOffFor(s Side) PlayMode {
	if s == Left {
		return PlayKickOffLeft
	}
	return PlayKickOffRight
}

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeKick              // Effective kick, updates touch tracking
	EventTypeContact           // Player body pushed the ball
	EventTypeGoal
)

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeKick:
		return "kick"
	case EventTypeContact:
		return "contact"
	case EventTypeGoal:
		return "goal"
	default:
		return "unknown"
	}
}

// MarshalText encodes the event type by name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Event is something that happened during one cycle.
type Event struct {
	Type     EventType `json:"type"`
	Cycle    int       `json:"cycle"`
	PlayerID string    `json:"playerId,omitempty"`
	Team     Side      `json:"team,omitempty"`
	Goal     *Goal     `json:"goal,omitempty"`
}

// Goal contains goal attribution details.
type Goal struct {
	ScoringTeam Side   `json:"scoringTeam"`
	ScorerID    string `json:"scorerId,omitempty"`
	AssistID    string `json:"assistId,omitempty"`
	OwnGoal     bool   `json:"ownGoal"`
}

// Score is the running result.
type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// For returns the goals scored by side.
func (s Score) For(side Side) int {
	if side == Left {
		return s.Left
	}
	return s.Right
}

// TouchInfo records who last played the ball. An empty PlayerID means none.
type TouchInfo struct {
	PlayerID string `json:"playerId"`
	Team     Side   `json:"team"`
	Cycle    int    `json:"cycle"`
}

// StepResult is what one cycle produced.
type StepResult struct {
	Events []Event
	Score  Score
}
