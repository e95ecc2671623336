package league

// FixtureStatus tracks a fixture through a season.
type FixtureStatus string

const (
	FixturePending FixtureStatus = "pending"
	FixturePlayed  FixtureStatus = "played"
	FixtureSkipped FixtureStatus = "skipped"
)

// Fixture is one scheduled pairing.
type Fixture struct {
	Round   int           `json:"round"`
	Home    string        `json:"home"`
	Away    string        `json:"away"`
	Status  FixtureStatus `json:"status"`
	MatchID string        `json:"match_id,omitempty"`
}

// RoundRobin builds a single round-robin with the circle method. teams
// should already be sorted; an odd count gets a bye each round.
func RoundRobin(teams []string) []Fixture {
	if len(teams) < 2 {
		return nil
	}
	const bye = ""
	ring := append([]string(nil), teams...)
	if len(ring)%2 == 1 {
		ring = append(ring, bye)
	}
	n := len(ring)

	var fixtures []Fixture
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			home, away := ring[i], ring[n-1-i]
			if home == bye || away == bye {
				continue
			}
			// Alternate the fixed team's side so it is not always home.
			if i == 0 && round%2 == 1 {
				home, away = away, home
			}
			fixtures = append(fixtures, Fixture{Round: round, Home: home, Away: away, Status: FixturePending})
		}
		// Rotate everything but the first slot.
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}
	return fixtures
}
