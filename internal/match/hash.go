package match

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"soccer-arena/internal/soccer"
)

// EpisodeHash fingerprints an episode from its goal log and final player
// positions. Floats are rounded to 6 decimals before hashing so only
// physically meaningful differences change the hash.
func EpisodeHash(goals []soccer.Event, players []soccer.PlayerState) string {
	h := sha256.New()
	for _, ev := range goals {
		g := ev.Goal
		if g == nil {
			continue
		}
		fmt.Fprintf(h, "goal|%d|%s|%s|%s|%t\n", ev.Cycle, g.ScoringTeam, g.ScorerID, g.AssistID, g.OwnGoal)
	}
	for _, p := range players {
		fmt.Fprintf(h, "pos|%s|%s|%s\n", p.ID, fixed6(p.Pos.X), fixed6(p.Pos.Y))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func fixed6(v float64) string {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', 6, 64)
}
