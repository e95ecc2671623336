package participant

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"soccer-arena/internal/policy"
)

// Agent is an in-memory energy-backed participant.
type Agent struct {
	id     string
	team   string
	policy policy.Executor

	mu           sync.Mutex
	energy       float64
	maxEnergy    float64
	reproCredits float64
	history      []LedgerEntry
}

// LedgerEntry records one applied energy change.
type LedgerEntry struct {
	Source  string  `json:"source"`
	Applied float64 `json:"applied"`
}

const maxLedgerHistory = 64

// NewAgent creates an agent with energy clamped to [0, maxEnergy].
func NewAgent(id, team string, energy, maxEnergy float64, exec policy.Executor) *Agent {
	return &Agent{
		id:        id,
		team:      team,
		policy:    exec,
		energy:    math.Max(0, math.Min(energy, maxEnergy)),
		maxEnergy: maxEnergy,
	}
}

func (a *Agent) ID() string { return a.id }
func (a *Agent) Team() string { return a.team }
func (a *Agent) EnergyLedger() EnergyLedger { return a }
func (a *Agent) CreditLedger() CreditLedger { return a }
func (a *Agent) Policy() policy.Executor { return a.policy }

func (a *Agent) Energy() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.energy
}

func (a *Agent) MaxEnergy() float64 {
	return a.maxEnergy
}

// ModifyEnergy clamps the result to [0, max] and records the applied delta.
func (a *Agent) ModifyEnergy(amount float64, source string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := math.Max(0, math.Min(a.maxEnergy, a.energy+amount))
	applied := next - a.energy
	a.energy = next
	if len(a.history) >= maxLedgerHistory {
		a.history = a.history[1:]
	}
	a.history = append(a.history, LedgerEntry{Source: source, Applied: applied})
	return applied
}

// AddReproCredits adds non-negative credits.
func (a *Agent) AddReproCredits(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reproCredits += amount
	return amount
}

// ReproCredits returns the credits collected so far.
func (a *Agent) ReproCredits() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reproCredits
}

// History returns the recent applied energy changes, oldest first.
func (a *Agent) History() []LedgerEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]LedgerEntry(nil), a.history...)
}

// Bot is a participant without ledgers. It never pays and never earns.
type Bot struct {
	id     string
	team   string
	policy policy.Executor
}

// NewBot creates a bot. A nil executor leaves the choice of policy to the match.
func NewBot(id, team string, exec policy.Executor) *Bot {
	return &Bot{id: id, team: team, policy: exec}
}

func (b *Bot) ID() string { return b.id }
func (b *Bot) Team() string { return b.team }
func (b *Bot) EnergyLedger() EnergyLedger { return nil }
func (b *Bot) CreditLedger() CreditLedger { return nil }
func (b *Bot) Policy() policy.Executor { return b.policy }

// Roster is an in-memory World.
type Roster struct {
	mu      sync.RWMutex
	members map[string]Participant
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{members: make(map[string]Participant)}
}

// Add registers p. Ids must be unique.
func (r *Roster) Add(p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[p.ID()]; ok {
		return fmt.Errorf("participant %q already registered", p.ID())
	}
	r.members[p.ID()] = p
	return nil
}

// Remove drops a participant. Unknown ids are ignored.
func (r *Roster) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
}

// Get looks up one participant.
func (r *Roster) Get(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.members[id]
	return p, ok
}

// Participants returns all members sorted by id.
func (r *Roster) Participants() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.members))
	for _, p := range r.members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of members.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
