// Package rewards turns a finished match into energy and credit changes.
//
// All changes go through the participant's own ledger and the applied
// (possibly clamped) amounts are what gets recorded.
package rewards

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"soccer-arena/internal/participant"
)

// Mode selects how winners are paid.
type Mode string

const (
	PotPayout   Mode = "pot_payout"
	RefillToMax Mode = "refill_to_max"
	Credits     Mode = "credits"
	None        Mode = "none"
)

// ParseMode validates a reward mode name. Empty means pot_payout.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(name); m {
	case "":
		return PotPayout, nil
	case PotPayout, RefillToMax, Credits, None:
		return m, nil
	}
	return "", fmt.Errorf("unknown reward mode %q", name)
}

// Ledger sources recorded with every energy change.
const (
	SourcePot    = "soccer_pot"
	SourceRefill = "soccer_refill"
)

// Input is everything a reward function needs.
type Input struct {
	Mode        Mode
	Fees        map[string]float64 // entry fees actually collected, by participant id
	Winners     []participant.Participant
	Multiplier  float64
	CreditAward float64
}

// Result holds applied amounts by participant id.
type Result struct {
	Energy  map[string]float64
	Credits map[string]float64
}

// Apply pays winners according to in.Mode.
func Apply(in Input) Result {
	res := Result{Energy: map[string]float64{}, Credits: map[string]float64{}}
	switch in.Mode {
	case PotPayout:
		res.Energy = Pot(in.Fees, in.Winners, in.Multiplier)
	case RefillToMax:
		res.Energy = Refill(in.Fees, in.Winners)
	case Credits:
		res.Credits = AwardCredits(in.Winners, in.CreditAward)
	}
	return res
}

// TotalFees sums collected fees exactly.
func TotalFees(fees map[string]float64) decimal.Decimal {
	ids := make([]string, 0, len(fees))
	for id := range fees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	total := decimal.Zero
	for _, id := range ids {
		total = total.Add(decimal.NewFromFloat(fees[id]))
	}
	return total
}

// Pot splits fees*multiplier equally among energy-backed winners. Nothing
// happens when the pot is empty.
func Pot(fees map[string]float64, winners []participant.Participant, multiplier float64) map[string]float64 {
	applied := map[string]float64{}
	pot := TotalFees(fees).Mul(decimal.NewFromFloat(multiplier))
	if !pot.IsPositive() {
		return applied
	}

	var payees []participant.Participant
	for _, w := range winners {
		if w.EnergyLedger() != nil {
			payees = append(payees, w)
		}
	}
	if len(payees) == 0 {
		return applied
	}

	share, _ := pot.Div(decimal.NewFromInt(int64(len(payees)))).Float64()
	for _, w := range payees {
		applied[w.ID()] += w.EnergyLedger().ModifyEnergy(share, SourcePot)
	}
	return applied
}

// Refill tops every winner up to max energy. Nothing happens when no fees
// were collected, so free matches cannot inject energy.
func Refill(fees map[string]float64, winners []participant.Participant) map[string]float64 {
	applied := map[string]float64{}
	if !TotalFees(fees).IsPositive() {
		return applied
	}
	for _, w := range winners {
		ledger := w.EnergyLedger()
		if ledger == nil {
			continue
		}
		missing := ledger.MaxEnergy() - ledger.Energy()
		if missing <= 0 {
			continue
		}
		applied[w.ID()] += ledger.ModifyEnergy(missing, SourceRefill)
	}
	return applied
}

// AwardCredits gives a flat credit award to winners with a credit ledger.
func AwardCredits(winners []participant.Participant, amount float64) map[string]float64 {
	applied := map[string]float64{}
	if amount <= 0 {
		return applied
	}
	for _, w := range winners {
		if ledger := w.CreditLedger(); ledger != nil {
			applied[w.ID()] += ledger.AddReproCredits(amount)
		}
	}
	return applied
}
