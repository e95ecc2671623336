package selection

import (
	"fmt"
	"testing"

	"soccer-arena/internal/participant"
)

func pool(n int) []participant.Participant {
	out := make([]participant.Participant, n)
	for i := range out {
		out[i] = participant.NewAgent(fmt.Sprintf("p%02d", i), "t", float64(10*(i+1)), 1000, nil)
	}
	return out
}

func ids(ps []participant.Participant) string {
	return fmt.Sprint(participant.IDs(ps))
}

var allStrategies = []Strategy{TopEnergy, WeightedEnergy, Stratified, RandomEligible}

// TestSelectDeterministic verifies identical inputs give identical picks
func TestSelectDeterministic(t *testing.T) {
	candidates := pool(20)
	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			req := Request{NumPlayers: 6, Strategy: s, Seed: 42}
			a, b := Select(candidates, req), Select(candidates, req)
			if len(a) != 6 {
				t.Fatalf("Expected 6 picks, got %d", len(a))
			}
			if ids(a) != ids(b) {
				t.Errorf("Expected identical selections, got %s and %s", ids(a), ids(b))
			}
			seen := make(map[string]bool)
			for _, p := range a {
				if seen[p.ID()] {
					t.Errorf("Duplicate pick %s without repeat", p.ID())
				}
				seen[p.ID()] = true
			}
		})
	}
}

// TestSelectSeedSensitivity verifies only the random strategies depend on the seed
func TestSelectSeedSensitivity(t *testing.T) {
	candidates := pool(20)
	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			base := ids(Select(candidates, Request{NumPlayers: 6, Strategy: s, Seed: 42}))
			changed := false
			for seed := int64(1); seed <= 10; seed++ {
				if ids(Select(candidates, Request{NumPlayers: 6, Strategy: s, Seed: seed})) != base {
					changed = true
				}
			}
			if s == TopEnergy && changed {
				t.Error("Expected top_energy to ignore the seed")
			}
			if s != TopEnergy && !changed {
				t.Errorf("Expected %s to vary with the seed", s)
			}
		})
	}
}

// TestTopEnergyOrder verifies sorting by energy then id
func TestTopEnergyOrder(t *testing.T) {
	candidates := []participant.Participant{
		participant.NewAgent("b", "t", 50, 100, nil),
		participant.NewAgent("a", "t", 50, 100, nil),
		participant.NewAgent("c", "t", 90, 100, nil),
		participant.NewAgent("d", "t", 10, 100, nil),
	}
	got := ids(Select(candidates, Request{NumPlayers: 3, Strategy: TopEnergy}))
	if got != "[c a b]" {
		t.Errorf("Expected [c a b], got %s", got)
	}
}

// TestEligibility verifies cooldown and entry fee filtering
func TestEligibility(t *testing.T) {
	candidates := []participant.Participant{
		participant.NewAgent("rich", "t", 100, 100, nil),
		participant.NewAgent("poor", "t", 5, 100, nil),
		participant.NewAgent("exact", "t", 10, 100, nil),
		participant.NewAgent("tired", "t", 100, 100, nil),
		participant.NewBot("bot", "t", nil),
	}
	cooldown := map[string]bool{"tired": true}

	got := ids(Eligible(candidates, cooldown, 10))
	if got != "[rich]" {
		t.Errorf("Expected [rich], got %s", got)
	}
	got = ids(Eligible(candidates, cooldown, 0))
	if got != "[rich poor exact bot]" {
		t.Errorf("Expected everyone but tired, got %s", got)
	}
}

// TestSelectInfeasible verifies empty results when the pool is too small
func TestSelectInfeasible(t *testing.T) {
	tests := []struct {
		name string
		pool int
		req  Request
	}{
		{"single candidate", 1, Request{NumPlayers: 1, Strategy: TopEnergy}},
		{"not enough without repeat", 3, Request{NumPlayers: 4, Strategy: RandomEligible}},
		{"fees exclude everyone", 4, Request{NumPlayers: 2, Strategy: Stratified, EntryFee: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(pool(tt.pool), tt.req); got != nil {
				t.Errorf("Expected nil, got %s", ids(got))
			}
		})
	}
}

// TestSelectAllowRepeat verifies sampling with replacement fills every slot
func TestSelectAllowRepeat(t *testing.T) {
	for _, s := range allStrategies {
		got := Select(pool(2), Request{NumPlayers: 5, Strategy: s, Seed: 3, AllowRepeat: true})
		if len(got) != 5 {
			t.Errorf("%s: expected 5 picks with repeat, got %d", s, len(got))
		}
	}
}

// TestStratifiedTiers verifies the 50/30/20 split
func TestStratifiedTiers(t *testing.T) {
	candidates := pool(9) // p08 has the most energy
	got := Select(candidates, Request{NumPlayers: 6, Strategy: Stratified, Seed: 11})
	if len(got) != 6 {
		t.Fatalf("Expected 6 picks, got %d", len(got))
	}

	top := map[string]bool{"p08": true, "p07": true, "p06": true}
	for _, p := range got[:3] {
		if !top[p.ID()] {
			t.Errorf("Expected first three picks from the top tier, got %s", ids(got))
		}
	}
	mid := map[string]bool{"p05": true, "p04": true, "p03": true}
	if !mid[got[3].ID()] {
		t.Errorf("Expected fourth pick from the mid tier, got %s", got[3].ID())
	}
	low := map[string]bool{"p02": true, "p01": true, "p00": true}
	if !low[got[4].ID()] {
		t.Errorf("Expected fifth pick from the low tier, got %s", got[4].ID())
	}
}

// TestParseStrategy verifies name validation
func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != Stratified {
		t.Errorf("Expected default stratified, got %s, %v", s, err)
	}
	if _, err := ParseStrategy("coin_flip"); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}
