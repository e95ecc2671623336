// Package participant defines who can take part in a match and the optional
// ledgers entry fees and rewards flow through.
package participant

import "soccer-arena/internal/policy"

// EnergyLedger is implemented by participants that pay entry fees and receive
// energy rewards. Participants without one are bots.
type EnergyLedger interface {
	Energy() float64
	MaxEnergy() float64
	// ModifyEnergy applies amount (clamped to the ledger bounds) and returns
	// what was actually applied.
	ModifyEnergy(amount float64, source string) float64
}

// CreditLedger is implemented by participants that collect reproduction
// credits.
type CreditLedger interface {
	AddReproCredits(amount float64) float64
}

// Participant is anything that can be put on the pitch. Capability accessors
// return nil when the capability is absent.
type Participant interface {
	ID() string
	Team() string
	EnergyLedger() EnergyLedger
	CreditLedger() CreditLedger
	Policy() policy.Executor
}

// World supplies the candidate pool for scheduled and league matches.
type World interface {
	Participants() []Participant
}

// IsBot reports whether p has no energy ledger.
func IsBot(p Participant) bool {
	return p.EnergyLedger() == nil
}

// EnergyOf returns the participant's energy, or 0 for bots.
func EnergyOf(p Participant) float64 {
	if l := p.EnergyLedger(); l != nil {
		return l.Energy()
	}
	return 0
}

// IDs returns the ids of ps in order.
func IDs(ps []Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID()
	}
	return out
}
