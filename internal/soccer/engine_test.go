package soccer

import (
	"errors"
	"math"
	"testing"
)

func init() {
	Debug = true
}

func quietParams() Params {
	p := DefaultParams()
	p.Noise = false
	return p
}

func stepN(e *Engine, n int) []Event {
	var events []Event
	for i := 0; i < n; i++ {
		events = append(events, e.StepCycle().Events...)
	}
	return events
}

func goalEvents(events []Event) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == EventTypeGoal {
			out = append(out, ev)
		}
	}
	return out
}

// TestAddPlayer verifies roster handling
func TestAddPlayer(t *testing.T) {
	e := NewEngine(DefaultParams(), 1)

	if err := e.AddPlayer("a", Left, Vec2{-10, 0}, 0); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if err := e.AddPlayer("a", Right, Vec2{10, 0}, 0); !errors.Is(err, ErrDuplicatePlayer) {
		t.Errorf("Expected ErrDuplicatePlayer, got %v", err)
	}
	if err := e.AddPlayer("b", Side("middle"), Vec2{}, 0); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("Expected ErrInvalidSide, got %v", err)
	}

	// Out-of-field spawns are clamped
	if err := e.AddPlayer("c", Right, Vec2{500, -500}, 0); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	c, _ := e.Player("c")
	if c.Pos.X != e.params.HalfLength() || c.Pos.Y != -e.params.HalfWidth() {
		t.Errorf("Expected clamped spawn, got %+v", c.Pos)
	}

	ids := e.PlayerIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Errorf("Expected sorted ids [a c], got %v", ids)
	}
}

// TestQueueCommandUnknownPlayer verifies unknown ids are rejected without failing
func TestQueueCommandUnknownPlayer(t *testing.T) {
	e := NewEngine(DefaultParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{}, 0)

	if e.QueueCommand("ghost", Dash(100, 0)) {
		t.Error("Expected false for unknown player")
	}
	if !e.QueueCommand("a", Dash(100, 0)) {
		t.Error("Expected true for known player")
	}
}

// TestLastCommandWins verifies one command per player per cycle
func TestLastCommandWins(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{-10, 0}, 0)

	e.QueueCommand("a", Dash(100, 0))
	e.QueueCommand("a", Turn(math.Pi/2))
	e.StepCycle()

	a, _ := e.Player("a")
	if a.Vel.Len() != 0 {
		t.Errorf("Expected dash to be replaced by turn, got velocity %+v", a.Vel)
	}
	if math.Abs(a.Angle-math.Pi/2) > 1e-12 {
		t.Errorf("Expected angle pi/2, got %f", a.Angle)
	}

	// Queue is cleared after application
	e.StepCycle()
	a2, _ := e.Player("a")
	if a2.Angle != a.Angle {
		t.Errorf("Expected no second turn, got angle %f", a2.Angle)
	}
}

// TestTurnInertia verifies faster players turn less
func TestTurnInertia(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{-10, 0}, 0)

	e.QueueCommand("a", Dash(100, 0))
	e.StepCycle()
	a, _ := e.Player("a")
	speed := a.Vel.Len()

	e.QueueCommand("a", Turn(1.0))
	e.StepCycle()
	a, _ = e.Player("a")

	expected := 1.0 / (1 + e.params.InertiaMoment*speed)
	if math.Abs(a.Angle-expected) > 1e-12 {
		t.Errorf("Expected angle %f, got %f", expected, a.Angle)
	}
}

// TestDeterminism verifies identical seeds and commands give identical trajectories
func TestDeterminism(t *testing.T) {
	seeds := []int64{0, 1, 42, 987654321}

	build := func(seed int64) *Engine {
		e := NewEngine(DefaultParams(), seed)
		_ = e.AddPlayer("l1", Left, Vec2{-5, -3}, 0)
		_ = e.AddPlayer("l2", Left, Vec2{-5, 3}, 0)
		_ = e.AddPlayer("r1", Right, Vec2{5, -3}, math.Pi)
		_ = e.AddPlayer("r2", Right, Vec2{5, 3}, math.Pi)
		return e
	}
	commands := func(cycle int) map[string]Command {
		return map[string]Command{
			"l1": Dash(80, 0.1*float64(cycle%7)),
			"l2": Kick(100, 0.2),
			"r1": Dash(100, -0.3),
			"r2": Turn(0.05 * float64(cycle%5)),
		}
	}

	for _, seed := range seeds {
		a, b := build(seed), build(seed)
		for cycle := 0; cycle < 200; cycle++ {
			cmds := commands(cycle)
			for _, id := range []string{"l1", "l2", "r1", "r2"} {
				a.QueueCommand(id, cmds[id])
			}
			// reversed queue order must not matter
			for _, id := range []string{"r2", "r1", "l2", "l1"} {
				b.QueueCommand(id, cmds[id])
			}
			ra, rb := a.StepCycle(), b.StepCycle()
			if ra.Score != rb.Score || len(ra.Events) != len(rb.Events) {
				t.Fatalf("seed %d cycle %d: results diverged", seed, cycle)
			}
			pa, pb := a.Players(), b.Players()
			for i := range pa {
				if pa[i] != pb[i] {
					t.Fatalf("seed %d cycle %d: player %s diverged: %+v vs %+v", seed, cycle, pa[i].ID, pa[i], pb[i])
				}
			}
			if a.Ball() != b.Ball() {
				t.Fatalf("seed %d cycle %d: ball diverged", seed, cycle)
			}
		}
		if a.Cycle() != 200 || b.Cycle() != 200 {
			t.Errorf("Expected cycle 200, got %d and %d", a.Cycle(), b.Cycle())
		}
	}
}

// TestPlayerSpeedCap verifies repeated max dashes never exceed the decayed cap
func TestPlayerSpeedCap(t *testing.T) {
	e := NewEngine(DefaultParams(), 3)
	_ = e.AddPlayer("a", Left, Vec2{-40, 0}, 0)
	limit := e.params.PlayerSpeedMax*e.params.PlayerDecay + 1e-9

	for i := 0; i < 150; i++ {
		e.QueueCommand("a", Dash(100, 0))
		e.StepCycle()
		a, _ := e.Player("a")
		if a.Vel.Len() > limit {
			t.Fatalf("cycle %d: speed %f exceeds %f", i, a.Vel.Len(), limit)
		}
	}
}

// TestBallSpeedCap verifies repeated max kicks never exceed the decayed cap
func TestBallSpeedCap(t *testing.T) {
	e := NewEngine(DefaultParams(), 3)
	_ = e.AddPlayer("a", Left, Vec2{-40, 0}, 0)
	limit := e.params.BallSpeedMax*e.params.BallDecay + 1e-9

	for i := 0; i < 50; i++ {
		a, _ := e.Player("a")
		e.ball = BallState{Pos: a.Pos.Add(Vec2{0.4, 0}), Vel: e.ball.Vel}
		e.QueueCommand("a", Kick(100, 0))
		e.StepCycle()
		if v := e.Ball().Vel.Len(); v > limit {
			t.Fatalf("cycle %d: ball speed %f exceeds %f", i, v, limit)
		}
	}
}

// TestStaminaBounds verifies stamina, effort and recovery stay in range
func TestStaminaBounds(t *testing.T) {
	e := NewEngine(DefaultParams(), 5)
	_ = e.AddPlayer("a", Left, Vec2{-50, -30}, 0)
	p := e.params
	minStamina := p.StaminaMax

	for i := 0; i < 400; i++ {
		// alternate direction so the player is not pinned against a wall
		dir := 0.0
		if (i/40)%2 == 1 {
			dir = math.Pi
		}
		e.QueueCommand("a", Dash(100, dir))
		e.StepCycle()

		a, _ := e.Player("a")
		if a.Stamina < 0 || a.Stamina > p.StaminaMax {
			t.Fatalf("cycle %d: stamina %f out of range", i, a.Stamina)
		}
		if a.Effort < p.EffortMin || a.Effort > 1 {
			t.Fatalf("cycle %d: effort %f out of range", i, a.Effort)
		}
		if a.Recovery < p.RecoverMin || a.Recovery > 1 {
			t.Fatalf("cycle %d: recovery %f out of range", i, a.Recovery)
		}
		minStamina = math.Min(minStamina, a.Stamina)
	}

	if minStamina > p.RecoverDecThr*p.StaminaMax {
		t.Errorf("Expected stamina to drop below the decay threshold, min was %f", minStamina)
	}
	a, _ := e.Player("a")
	if a.Effort >= 1 {
		t.Errorf("Expected effort to decay under sustained dashing, got %f", a.Effort)
	}
}

// TestKickGating verifies out-of-range kicks have no effect
func TestKickGating(t *testing.T) {
	tests := []struct {
		name   string
		offset Vec2
		moves  bool
	}{
		{"touching", Vec2{0.4, 0}, true},
		{"edge of margin", Vec2{1.08, 0}, true},
		{"just outside", Vec2{1.09, 0}, false},
		{"far away", Vec2{0, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(quietParams(), 1)
			_ = e.AddPlayer("a", Left, Vec2{-10, 0}, 0)
			e.ball = BallState{Pos: Vec2{-10, 0}.Add(tt.offset)}

			e.QueueCommand("a", Kick(100, 0))
			res := e.StepCycle()

			moved := e.Ball().Vel.Len() > 0
			if moved != tt.moves {
				t.Errorf("Expected ball moved=%v, got velocity %+v", tt.moves, e.Ball().Vel)
			}
			kicked := len(res.Events) > 0 && res.Events[0].Type == EventTypeKick
			if kicked != tt.moves {
				t.Errorf("Expected kick event=%v, got %v", tt.moves, res.Events)
			}
			if last, _ := e.LastTouchInfo(); (last.PlayerID == "a") != tt.moves {
				t.Errorf("Expected touch tracking=%v, got %+v", tt.moves, last)
			}
		})
	}
}

// TestFirstKickStartsPlay verifies play mode transitions
func TestFirstKickStartsPlay(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{-1, 0}, 0)

	if e.PlayMode() != PlayBeforeKickOff {
		t.Fatalf("Expected before_kick_off, got %s", e.PlayMode())
	}

	// Move is honoured before kick off
	e.QueueCommand("a", Move(-0.5, 0))
	e.StepCycle()
	a, _ := e.Player("a")
	if a.Pos.X != -0.5 {
		t.Errorf("Expected move to x=-0.5, got %f", a.Pos.X)
	}

	e.QueueCommand("a", Kick(50, 0))
	e.StepCycle()
	if e.PlayMode() != PlayOn {
		t.Errorf("Expected play_on after kick, got %s", e.PlayMode())
	}

	// and ignored during play
	e.QueueCommand("a", Move(-20, 0))
	e.StepCycle()
	a, _ = e.Player("a")
	if a.Pos.X == -20 {
		t.Error("Expected move to be ignored during play_on")
	}
}

// TestBallBouncesOffSideLine verifies wall damping
func TestBallBouncesOffSideLine(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	hw := e.params.HalfWidth()
	e.ball = BallState{Pos: Vec2{0, hw - 0.5}, Vel: Vec2{0, 1}}

	e.StepCycle()
	b := e.Ball()
	if b.Pos.Y != hw {
		t.Errorf("Expected ball clamped to y=%f, got %f", hw, b.Pos.Y)
	}
	expected := -1 * e.params.BallDecay * e.params.WallDamping
	if math.Abs(b.Vel.Y-expected) > 1e-12 {
		t.Errorf("Expected velocity %f, got %f", expected, b.Vel.Y)
	}
}

// TestBallBouncesOffEndLineOutsideGoal verifies only the goal mouth is open
func TestBallBouncesOffEndLineOutsideGoal(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	hl := e.params.HalfLength()
	e.ball = BallState{Pos: Vec2{hl - 0.5, 20}, Vel: Vec2{1, 0}}

	res := e.StepCycle()
	if len(goalEvents(res.Events)) != 0 {
		t.Fatal("Expected no goal outside the goal mouth")
	}
	if e.Ball().Vel.X >= 0 {
		t.Errorf("Expected ball to bounce back, got vx=%f", e.Ball().Vel.X)
	}
}

// TestPlayerCollision verifies overlapping players are pushed apart
func TestPlayerCollision(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{0, 10}, 0)
	_ = e.AddPlayer("b", Right, Vec2{0.2, 10}, math.Pi)

	e.StepCycle()
	a, _ := e.Player("a")
	b, _ := e.Player("b")
	if d := a.Pos.Dist(b.Pos); math.Abs(d-2*e.params.PlayerSize) > 1e-9 {
		t.Errorf("Expected separation %f, got %f", 2*e.params.PlayerSize, d)
	}
}

// TestPlayerBallContact verifies the ball is pushed out without velocity change
func TestPlayerBallContact(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{0, 10}, 0)
	e.ball = BallState{Pos: Vec2{0.1, 10}}

	res := e.StepCycle()
	if len(res.Events) != 1 || res.Events[0].Type != EventTypeContact {
		t.Fatalf("Expected one contact event, got %v", res.Events)
	}
	b := e.Ball()
	if d := b.Pos.Dist(Vec2{0, 10}); math.Abs(d-(e.params.PlayerSize+e.params.BallSize)) > 1e-9 {
		t.Errorf("Expected ball at contact distance, got %f", d)
	}
	if b.Vel != (Vec2{}) {
		t.Errorf("Expected no velocity change, got %+v", b.Vel)
	}
}

// TestBallContactStaysOnPitch verifies a contact push never moves the ball
// past a touch line or an end line outside the goal mouth
func TestBallContactStaysOnPitch(t *testing.T) {
	hl, hw := DefaultParams().HalfLength(), DefaultParams().HalfWidth()
	tests := []struct {
		name   string
		player Vec2
		ball   Vec2
	}{
		{"touch line", Vec2{0, hw - 0.1}, Vec2{0, hw - 0.05}},
		{"far touch line", Vec2{10, -hw + 0.1}, Vec2{10, -hw + 0.05}},
		{"end line", Vec2{hl - 0.1, 20}, Vec2{hl - 0.05, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(quietParams(), 1)
			_ = e.AddPlayer("a", Left, tt.player, 0)
			e.ball = BallState{Pos: tt.ball}

			res := e.StepCycle()
			if len(res.Events) != 1 || res.Events[0].Type != EventTypeContact {
				t.Fatalf("Expected one contact event, got %v", res.Events)
			}
			b := e.Ball()
			if math.Abs(b.Pos.Y) > hw {
				t.Errorf("Expected |y| <= %f, got %f", hw, b.Pos.Y)
			}
			if math.Abs(b.Pos.X) > hl {
				t.Errorf("Expected |x| <= %f outside the goal mouth, got %f", hl, b.Pos.X)
			}
		})
	}
}

// shootFrom places the ball at the feet of id and kicks it towards +x.
func shootFrom(e *Engine, id string) {
	p, _ := e.Player(id)
	e.ball = BallState{Pos: p.Pos.Add(Vec2{0.5, 0})}
	e.QueueCommand(id, Kick(100, 0))
}

// TestGoalAttribution covers scorer and assist rules
func TestGoalAttribution(t *testing.T) {
	tests := []struct {
		name       string
		passerTeam Side
		gap        int
		pass       bool
		wantAssist string
	}{
		{"solo goal", Left, 0, false, ""},
		{"assisted by teammate", Left, 10, true, "b"},
		{"opponent touch is no assist", Right, 10, true, ""},
		{"assist window expired", Left, 60, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(quietParams(), 9)
			_ = e.AddPlayer("a", Left, Vec2{48, 0}, 0)
			_ = e.AddPlayer("b", tt.passerTeam, Vec2{30, 15}, 0)

			if tt.pass {
				p, _ := e.Player("b")
				e.ball = BallState{Pos: p.Pos.Add(Vec2{0.5, 0})}
				e.QueueCommand("b", Kick(10, 0))
				stepN(e, tt.gap)
			}

			shootFrom(e, "a")
			events := stepN(e, 5)
			goals := goalEvents(events)
			if len(goals) != 1 {
				t.Fatalf("Expected one goal, got %d (%v)", len(goals), events)
			}
			g := goals[0].Goal
			if g.ScoringTeam != Left {
				t.Errorf("Expected left to score, got %s", g.ScoringTeam)
			}
			if g.ScorerID != "a" {
				t.Errorf("Expected scorer 'a', got '%s'", g.ScorerID)
			}
			if g.AssistID != tt.wantAssist {
				t.Errorf("Expected assist '%s', got '%s'", tt.wantAssist, g.AssistID)
			}
			if e.Score() != (Score{Left: 1}) {
				t.Errorf("Expected score 1-0, got %+v", e.Score())
			}
		})
	}
}

// TestGoalResetsPlay verifies ball and touch reset after a goal
func TestGoalResetsPlay(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{48, 0}, 0)
	shootFrom(e, "a")
	stepN(e, 5)

	if e.Ball().Pos != (Vec2{}) {
		t.Errorf("Expected ball on the centre spot, got %+v", e.Ball().Pos)
	}
	if last, prev := e.LastTouchInfo(); last.PlayerID != "" || prev.PlayerID != "" {
		t.Errorf("Expected touches cleared, got %+v %+v", last, prev)
	}
	if e.PlayMode() != PlayKickOffRight {
		t.Errorf("Expected kick_off_right, got %s", e.PlayMode())
	}
}

// TestOwnGoal verifies the scorer is the last toucher and there is no assist
func TestOwnGoal(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("mate", Right, Vec2{30, 15}, 0)
	_ = e.AddPlayer("r", Right, Vec2{48, 0}, 0)

	p, _ := e.Player("mate")
	e.ball = BallState{Pos: p.Pos.Add(Vec2{0.5, 0})}
	e.QueueCommand("mate", Kick(10, 0))
	stepN(e, 5)

	shootFrom(e, "r")
	goals := goalEvents(stepN(e, 5))
	if len(goals) != 1 {
		t.Fatalf("Expected one goal, got %d", len(goals))
	}
	g := goals[0].Goal
	if !g.OwnGoal || g.ScoringTeam != Left || g.ScorerID != "r" || g.AssistID != "" {
		t.Errorf("Expected own goal by 'r' for left without assist, got %+v", g)
	}
}

// TestSwapSidesInvertsAttribution verifies half-time mirroring
func TestSwapSidesInvertsAttribution(t *testing.T) {
	e := NewEngine(quietParams(), 1)
	_ = e.AddPlayer("r", Right, Vec2{-48, 0}, math.Pi)

	e.SwapSides()
	r, _ := e.Player("r")
	if r.Pos.X != 48 || math.Abs(r.Angle) > 1e-12 {
		t.Fatalf("Expected mirrored player at x=48 facing 0, got %+v", r)
	}
	if !e.Swapped() || e.PlayMode() != PlayBeforeKickOff {
		t.Fatalf("Expected swapped before_kick_off, got %v %s", e.Swapped(), e.PlayMode())
	}
	if e.AttackDirection(Right) != 1 {
		t.Errorf("Expected right to attack +x after swap")
	}

	shootFrom(e, "r")
	goals := goalEvents(stepN(e, 5))
	if len(goals) != 1 {
		t.Fatalf("Expected one goal, got %d", len(goals))
	}
	if g := goals[0].Goal; g.ScoringTeam != Right || g.OwnGoal {
		t.Errorf("Expected right to score in the +x goal after swap, got %+v", g)
	}
}

// TestReset verifies spawn positions and counters are restored
func TestReset(t *testing.T) {
	e := NewEngine(DefaultParams(), 1)
	_ = e.AddPlayer("a", Left, Vec2{-10, 2}, 0.5)
	for i := 0; i < 20; i++ {
		e.QueueCommand("a", Dash(100, 0))
		e.StepCycle()
	}

	e.Reset(2)
	a, _ := e.Player("a")
	if a.Pos != (Vec2{-10, 2}) || a.Angle != 0.5 || a.Stamina != e.params.StaminaMax {
		t.Errorf("Expected spawn state, got %+v", a)
	}
	if e.Cycle() != 0 || e.Score() != (Score{}) || e.Seed() != 2 {
		t.Errorf("Expected cleared counters, got cycle=%d score=%+v seed=%d", e.Cycle(), e.Score(), e.Seed())
	}
}

// TestPlayersReturnsCopies verifies accessors cannot mutate engine state
func TestPlayersReturnsCopies(t *testing.T) {
	e := NewEngine(DefaultParams(), 1)
	_ = e.AddPlayer("b", Left, Vec2{-1, 0}, 0)
	_ = e.AddPlayer("a", Right, Vec2{1, 0}, 0)

	ps := e.Players()
	ps[0].Pos = Vec2{99, 99}
	a, _ := e.Player("a")
	if a.Pos == (Vec2{99, 99}) {
		t.Error("Players() leaked internal state")
	}

	var order []string
	for p := range e.IterPlayers() {
		order = append(order, p.ID)
	}
	if len(order) != 2 || order[0] != "a" {
		t.Errorf("Expected id order [a b], got %v", order)
	}
}

// TestCommandClamping verifies constructors sanitize input
func TestCommandClamping(t *testing.T) {
	tests := []struct {
		name  string
		cmd   Command
		power float64
	}{
		{"dash over", Dash(500, 0), 100},
		{"dash under", Dash(-500, 0), -100},
		{"dash nan", Dash(math.NaN(), 0), 0},
		{"kick negative", Kick(-5, 0), 0},
		{"kick over", Kick(1000, 0), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd.Power() != tt.power {
				t.Errorf("Expected power %f, got %f", tt.power, tt.cmd.Power())
			}
		})
	}

	if m := Turn(10).Moment(); m != math.Pi {
		t.Errorf("Expected moment pi, got %f", m)
	}
	if d := Dash(10, 3*math.Pi).Direction(); math.Abs(math.Abs(d)-math.Pi) > 1e-12 {
		t.Errorf("Expected direction wrapped to pi, got %f", d)
	}
}
