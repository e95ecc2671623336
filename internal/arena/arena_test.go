package arena

import (
	"fmt"
	"testing"
	"time"

	"soccer-arena/internal/evaluator"
	"soccer-arena/internal/league"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/scheduler"
)

type recordingSink struct {
	ids []string
}

func (s *recordingSink) RecordOutcome(o evaluator.Outcome) { s.ids = append(s.ids, o.MatchID()) }

type fakeScheduler struct {
	calls []int
}

func (f *fakeScheduler) Tick(_ participant.World, seedBase int64, cycle int) []evaluator.Outcome {
	f.calls = append(f.calls, cycle)
	return []evaluator.Outcome{evaluator.Skipped(evaluator.KindScheduled, seedBase, cycle, "test")}
}

func roster(n int) *participant.Roster {
	r := participant.NewRoster()
	for i := 0; i < n; i++ {
		_ = r.Add(participant.NewAgent(fmt.Sprintf("p%02d", i), fmt.Sprintf("team%d", i%2), 60, 100, nil))
	}
	return r
}

// TestFrameCallsPresentHooks verifies nil hooks are skipped
func TestFrameCallsPresentHooks(t *testing.T) {
	fs := &fakeScheduler{}
	sink := &recordingSink{}
	var ticks int
	o := New(roster(2), Hooks{Scheduler: fs}, Options{
		SeedBase: 5,
		Sinks:    []OutcomeSink{sink},
		OnFrame:  func(time.Duration) { ticks++ },
	})

	for i := 0; i < 3; i++ {
		o.Frame()
	}
	if fmt.Sprint(fs.calls) != "[0 1 2]" {
		t.Errorf("Expected frames [0 1 2], got %v", fs.calls)
	}
	if len(sink.ids) != 3 || ticks != 3 {
		t.Errorf("Expected 3 sink records and 3 frame callbacks, got %d and %d", len(sink.ids), ticks)
	}
	if st := o.Stats(); st.Skipped != 3 || st.Frames != 3 || st.Participants != 2 {
		t.Errorf("Unexpected stats %+v", st)
	}
	if _, ok := o.LeagueState(); ok {
		t.Error("Expected no league state without a league hook")
	}
	if _, ok := o.Outcome(sink.ids[1]); !ok {
		t.Error("Expected outcome lookup by id")
	}
}

// TestRecentRing verifies old outcomes are evicted
func TestRecentRing(t *testing.T) {
	o := New(roster(2), Hooks{Scheduler: &fakeScheduler{}}, Options{RecentLimit: 2})
	for i := 0; i < 5; i++ {
		o.Frame()
	}
	recent := o.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent outcomes, got %d", len(recent))
	}
	if recent[1].Counter() != 4 || recent[0].Counter() != 3 {
		t.Errorf("Expected counters 3 and 4, got %d and %d", recent[0].Counter(), recent[1].Counter())
	}
	if len(o.Recent(1)) != 1 {
		t.Error("Expected Recent(1) to return one outcome")
	}
}

// TestFrameWithRealHooks runs the scheduler and the league side by side
func TestFrameWithRealHooks(t *testing.T) {
	sc := scheduler.DefaultConfig()
	sc.MatchEveryFrames = 5
	sc.DurationFrames = 20
	sc.NumPlayers = 2

	lc := league.DefaultConfig()
	lc.MatchEveryFrames = 1
	lc.CyclesPerFrame = 20
	lc.DurationFrames = 40
	lc.PlayersPerSide = 1
	lc.Interactive = true

	o := New(roster(6), Hooks{Scheduler: scheduler.New(sc), League: league.New(lc)}, Options{SeedBase: 42})
	var all []evaluator.Outcome
	for i := 0; i < 10; i++ {
		all = append(all, o.Frame()...)
	}
	if len(all) == 0 {
		t.Fatal("Expected outcomes from the hooks")
	}
	kinds := map[string]int{}
	for _, out := range all {
		kinds[out.Kind()]++
	}
	if kinds[evaluator.KindScheduled] != 2 {
		t.Errorf("Expected 2 scheduled outcomes, got %d", kinds[evaluator.KindScheduled])
	}
	if kinds[evaluator.KindLeague] == 0 {
		t.Error("Expected league outcomes")
	}
	st, ok := o.LeagueState()
	if !ok || st.Season == 0 {
		t.Errorf("Expected a running league, got %+v", st)
	}
	if o.FrameCount() != 10 {
		t.Errorf("Expected 10 frames, got %d", o.FrameCount())
	}
}
