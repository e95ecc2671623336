package soccer

import (
	"math"
	"testing"
)

// TestTelemetryGoalSequence verifies kicks, shots and goals are counted
func TestTelemetryGoalSequence(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{48, 0}, 0)
	shootFrom(e, "a")
	c := NewCollector()
	c.Sync(e)

	for i := 0; i < 5; i++ {
		c.Observe(e, e.StepCycle())
	}

	pt := c.Player("a")
	if pt.Kicks != 1 || pt.Touches != 1 {
		t.Errorf("Expected 1 kick and 1 touch, got %+v", pt)
	}
	left := c.Team(Left)
	if left.Goals != 1 {
		t.Errorf("Expected 1 goal, got %d", left.Goals)
	}
	if left.Shots != 1 || left.ShotsOnTarget != 1 {
		t.Errorf("Expected 1 shot on target, got %+v", left)
	}
	if left.BallProgress <= 0 {
		t.Errorf("Expected positive ball progress, got %f", left.BallProgress)
	}
	if c.Snapshot().Frames != 5 {
		t.Errorf("Expected 5 frames, got %d", c.Snapshot().Frames)
	}
}

// TestTelemetryDistanceAndPossession verifies movement and possession tracking
func TestTelemetryDistanceAndPossession(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{-0.6, 0}, 0)
	_ = e.AddPlayer("b", Right, Vec2{10, 10}, math.Pi)
	c := NewCollector()
	c.Sync(e)

	for i := 0; i < 3; i++ {
		c.Observe(e, e.StepCycle())
	}
	if c.Player("a").PossessionFrames != 3 {
		t.Errorf("Expected 3 possession frames, got %d", c.Player("a").PossessionFrames)
	}
	if c.Team(Right).PossessionFrames != 0 {
		t.Errorf("Expected no right possession, got %d", c.Team(Right).PossessionFrames)
	}

	e.QueueCommand("b", Dash(100, 0))
	c.Observe(e, e.StepCycle())
	b, _ := e.Player("b")
	if d := c.Player("b").DistanceRun; math.Abs(d-b.Pos.Dist(Vec2{10, 10})) > 1e-12 || d == 0 {
		t.Errorf("Expected distance run to match displacement, got %f", d)
	}
}

// TestTelemetrySnapshotIsCopy verifies snapshots are detached
func TestTelemetrySnapshotIsCopy(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{-0.6, 0}, 0)
	c := NewCollector()
	c.Observe(e, e.StepCycle())

	snap := c.Snapshot()
	snap.Players["a"].PossessionFrames = 100
	snap.Teams[Left].Goals = 9
	if c.Player("a").PossessionFrames == 100 || c.Team(Left).Goals == 9 {
		t.Error("Snapshot leaked internal state")
	}
}
