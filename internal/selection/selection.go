// Package selection samples match participants from a candidate pool.
//
// Every strategy draws from an explicitly seeded generator. The same
// candidate order and seed always produce the same ordered selection.
package selection

import (
	"fmt"
	"math/rand"
	"sort"

	"soccer-arena/internal/participant"
	"soccer-arena/internal/seeding"
)

// Strategy names a sampling strategy.
type Strategy string

const (
	TopEnergy      Strategy = "top_energy"
	WeightedEnergy Strategy = "weighted_energy"
	Stratified     Strategy = "stratified"
	RandomEligible Strategy = "random_eligible"
)

// DefaultStrategy is used when none is given.
const DefaultStrategy = Stratified

// ParseStrategy validates a strategy name. An empty name yields the default.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case "":
		return DefaultStrategy, nil
	case TopEnergy, WeightedEnergy, Stratified, RandomEligible:
		return s, nil
	}
	return "", fmt.Errorf("unknown selection strategy %q", name)
}

// Tier shares of the requested slots for the stratified strategy.
var tierShares = [3]float64{0.5, 0.3, 0.2}

// Request describes one selection.
type Request struct {
	NumPlayers  int
	Strategy    Strategy
	Cooldown    map[string]bool
	Seed        int64
	AllowRepeat bool
	EntryFee    float64
}

// Eligible filters candidates by cooldown and, when a fee is due, by
// ability to pay it.
func Eligible(candidates []participant.Participant, cooldown map[string]bool, entryFee float64) []participant.Participant {
	out := make([]participant.Participant, 0, len(candidates))
	for _, c := range candidates {
		if cooldown[c.ID()] {
			continue
		}
		if entryFee > 0 {
			ledger := c.EnergyLedger()
			if ledger == nil || ledger.Energy() <= entryFee {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// Select returns the chosen participants in pick order, or nil when the
// request cannot be satisfied. Callers must treat nil as "skip the match".
func Select(candidates []participant.Participant, req Request) []participant.Participant {
	pool := Eligible(candidates, req.Cooldown, req.EntryFee)
	if len(pool) < 2 || req.NumPlayers <= 0 {
		return nil
	}
	if !req.AllowRepeat && len(pool) < req.NumPlayers {
		return nil
	}

	rng := seeding.New(req.Seed)
	n := req.NumPlayers
	switch req.Strategy {
	case TopEnergy:
		return topEnergy(pool, n, req.AllowRepeat)
	case WeightedEnergy:
		return weightedSample(pool, n, rng, req.AllowRepeat)
	case RandomEligible:
		return uniformSample(pool, n, rng, req.AllowRepeat)
	default:
		return stratified(pool, n, rng, req.AllowRepeat)
	}
}

// byEnergy sorts a copy of pool by descending energy, then id.
func byEnergy(pool []participant.Participant) []participant.Participant {
	sorted := append([]participant.Participant(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ei, ej := participant.EnergyOf(sorted[i]), participant.EnergyOf(sorted[j])
		if ei != ej {
			return ei > ej
		}
		return sorted[i].ID() < sorted[j].ID()
	})
	return sorted
}

func topEnergy(pool []participant.Participant, n int, allowRepeat bool) []participant.Participant {
	sorted := byEnergy(pool)
	if n <= len(sorted) {
		return sorted[:n]
	}
	if !allowRepeat {
		return nil
	}
	out := make([]participant.Participant, n)
	for i := range out {
		out[i] = sorted[i%len(sorted)]
	}
	return out
}

func weightOf(p participant.Participant) float64 {
	return participant.EnergyOf(p) + 1
}

// weightedSample is roulette-wheel sampling weighted by energy+1.
func weightedSample(pool []participant.Participant, k int, rng *rand.Rand, replace bool) []participant.Participant {
	remaining := append([]participant.Participant(nil), pool...)
	out := make([]participant.Participant, 0, k)
	for len(out) < k && len(remaining) > 0 {
		total := 0.0
		for _, p := range remaining {
			total += weightOf(p)
		}
		r := rng.Float64() * total
		idx := len(remaining) - 1
		acc := 0.0
		for i, p := range remaining {
			acc += weightOf(p)
			if r < acc {
				idx = i
				break
			}
		}
		out = append(out, remaining[idx])
		if !replace {
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
	}
	return out
}

func uniformSample(pool []participant.Participant, k int, rng *rand.Rand, replace bool) []participant.Participant {
	out := make([]participant.Participant, 0, k)
	if replace {
		for len(out) < k {
			out = append(out, pool[rng.Intn(len(pool))])
		}
		return out
	}
	shuffled := append([]participant.Participant(nil), pool...)
	for i := 0; i < k && i < len(shuffled); i++ {
		j := i + rng.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		out = append(out, shuffled[i])
	}
	return out
}

// stratified splits the energy-sorted pool into top, mid and low thirds and
// samples 50/30/20 percent of the slots from them, then fills any shortfall
// from whoever is left.
func stratified(pool []participant.Participant, n int, rng *rand.Rand, replace bool) []participant.Participant {
	sorted := byEnergy(pool)
	tiers := splitTiers(sorted)

	out := make([]participant.Participant, 0, n)
	taken := make(map[string]bool)
	for i, tier := range tiers {
		quota := max(1, int(tierShares[i]*float64(n)))
		quota = min(quota, n-len(out))
		if quota <= 0 || len(tier) == 0 {
			continue
		}
		for _, p := range weightedSample(tier, quota, rng, replace) {
			out = append(out, p)
			taken[p.ID()] = true
		}
	}

	if short := n - len(out); short > 0 {
		var rest []participant.Participant
		for _, p := range sorted {
			if replace || !taken[p.ID()] {
				rest = append(rest, p)
			}
		}
		out = append(out, weightedSample(rest, short, rng, replace)...)
	}
	return out
}

func splitTiers(sorted []participant.Participant) [3][]participant.Participant {
	m := len(sorted)
	top := (m + 2) / 3
	mid := (m - top + 1) / 2
	return [3][]participant.Participant{
		sorted[:top],
		sorted[top : top+mid],
		sorted[top+mid:],
	}
}
