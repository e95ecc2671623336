package policy

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"soccer-arena/internal/soccer"
)

func testEngine(t *testing.T) *soccer.Engine {
	t.Helper()
	params := soccer.DefaultParams()
	params.Noise = false
	e := soccer.NewEngine(params, 1)
	if err := e.AddPlayer("l1", soccer.Left, soccer.Vec2{X: -10, Y: 5}, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.AddPlayer("r1", soccer.Right, soccer.Vec2{X: 10, Y: 5}, math.Pi); err != nil {
		t.Fatal(err)
	}
	return e
}

// TestObservationIsTeamNormalized verifies both sides see themselves attacking +x
func TestObservationIsTeamNormalized(t *testing.T) {
	e := testEngine(t)

	left, err := BuildSoccerV1(e, "l1")
	if err != nil {
		t.Fatalf("BuildSoccerV1 failed: %v", err)
	}
	right, err := BuildSoccerV1(e, "r1")
	if err != nil {
		t.Fatalf("BuildSoccerV1 failed: %v", err)
	}

	for _, key := range []string{"x", "y", "angle"} {
		if l, r := Number(left, "self", key), Number(right, "self", key); math.Abs(l-r) > 1e-9 {
			t.Errorf("self.%s: expected symmetric %f, got %f", key, l, r)
		}
	}
	if Number(right, "goal", "x") <= 0 {
		t.Errorf("Expected goal at +x, got %f", Number(right, "goal", "x"))
	}
	if Number(left, "ball", "dist") != Number(right, "ball", "dist") {
		t.Error("Expected equal ball distance for mirrored players")
	}

	opps, _ := right["opponents"].([]any)
	if len(opps) != 1 {
		t.Fatalf("Expected one opponent, got %d", len(opps))
	}

	if _, err := BuildSoccerV1(e, "ghost"); err == nil {
		t.Error("Expected error for unknown player")
	}
}

// TestToCommand verifies action conversion and mirroring
func TestToCommand(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		mirrored bool
		kind     soccer.CommandKind
		dir      float64
	}{
		{"dash", Action{Dash: []float64{50, 0.5}}, false, soccer.CommandDash, 0.5},
		{"dash mirrored", Action{Dash: []float64{50, 0.5}}, true, soccer.CommandDash, -0.5},
		{"kick wins", Action{Dash: []float64{50, 0.1}, Kick: []float64{80, 0.2}}, false, soccer.CommandKick, 0.2},
		{"turn mirrored", Action{Turn: []float64{0.3}}, true, soccer.CommandTurn, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ToCommand(tt.action, tt.mirrored)
			if err != nil {
				t.Fatalf("ToCommand failed: %v", err)
			}
			if cmd.Kind() != tt.kind {
				t.Errorf("Expected %s, got %s", tt.kind, cmd.Kind())
			}
			if cmd.Direction() != tt.dir {
				t.Errorf("Expected direction %f, got %f", tt.dir, cmd.Direction())
			}
		})
	}

	cmd, _ := ToCommand(Action{Turn: []float64{0.3}}, true)
	if cmd.Moment() != -0.3 {
		t.Errorf("Expected mirrored moment -0.3, got %f", cmd.Moment())
	}
	if _, err := ToCommand(Action{}, false); !errors.Is(err, ErrEmptyAction) {
		t.Errorf("Expected ErrEmptyAction, got %v", err)
	}
}

// TestMirroredDashMovesTowardsGoal verifies a normalized dash reaches the right world direction
func TestMirroredDashMovesTowardsGoal(t *testing.T) {
	e := testEngine(t)
	a := NewAdapter(nil, DefaultObservation, nil)

	forward := ExecutorFunc(func(Observation, *rand.Rand, float64) (Action, error) {
		return Action{Dash: []float64{100, 0.3}}, nil
	})
	cmd, ok := a.Decide(e, "r1", forward, nil)
	if !ok {
		t.Fatal("Expected a command")
	}
	e.QueueCommand("r1", cmd)
	e.StepCycle()

	r, _ := e.Player("r1")
	if r.Pos.X >= 10 {
		t.Errorf("Expected right player to move towards -x, got x=%f", r.Pos.X)
	}
	if r.Pos.Y <= 5 {
		t.Errorf("Expected positive normalized dir to stay on the +y side, got y=%f", r.Pos.Y)
	}
}

// TestAdapterAbsorbsFailures verifies errors and panics become no-ops
func TestAdapterAbsorbsFailures(t *testing.T) {
	e := testEngine(t)
	var reported []string
	a := NewAdapter(NewRegistry(), "missing-builder", nil)
	a.OnFailure = func(id string, err error) { reported = append(reported, id) }

	failing := ExecutorFunc(func(Observation, *rand.Rand, float64) (Action, error) {
		return Action{}, errors.New("boom")
	})
	panicking := ExecutorFunc(func(Observation, *rand.Rand, float64) (Action, error) {
		panic("bad policy")
	})

	if _, ok := a.Decide(e, "l1", failing, nil); ok {
		t.Error("Expected no command from failing executor")
	}
	if _, ok := a.Decide(e, "r1", panicking, nil); ok {
		t.Error("Expected no command from panicking executor")
	}
	if a.Failures("l1") != 1 || a.Failures("r1") != 1 || a.TotalFailures() != 2 {
		t.Errorf("Expected one failure each, got %d/%d", a.Failures("l1"), a.Failures("r1"))
	}
	if len(reported) != 2 {
		t.Errorf("Expected 2 failure reports, got %d", len(reported))
	}

	// nil executor uses the fallback
	if _, ok := a.Decide(e, "l1", nil, rand.New(rand.NewSource(1))); !ok {
		t.Error("Expected fallback policy to produce a command")
	}
	if _, ok := a.Decide(e, "ghost", nil, nil); ok {
		t.Error("Expected no command for unknown player")
	}
}

// TestChaseBall verifies the default policy
func TestChaseBall(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want string
	}{
		{
			"kick when kickable",
			Observation{"kickable": true, "self": map[string]any{"x": 0.0, "y": 0.0, "angle": 0.0}, "goal": map[string]any{"x": 52.5, "y": 0.0}},
			"kick",
		},
		{
			"dash when facing the ball",
			Observation{"kickable": false, "self": map[string]any{"angle": 0.0}, "ball": map[string]any{"angle": 0.1}},
			"dash",
		},
		{
			"turn when the ball is behind",
			Observation{"kickable": false, "self": map[string]any{"angle": 0.0}, "ball": map[string]any{"angle": 2.0}},
			"turn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ChaseBall{}.Execute(tt.obs, rand.New(rand.NewSource(7)), CycleDT)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			got := ""
			switch {
			case len(a.Kick) > 0:
				got = "kick"
			case len(a.Dash) > 0:
				got = "dash"
			case len(a.Turn) > 0:
				got = "turn"
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %+v", tt.want, a)
			}
		})
	}
}

// TestRegistryNamesSorted verifies deterministic iteration
func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("zeta", BuildSoccerV1)
	r.Register("alpha", BuildSoccerV1)

	names := r.Names()
	want := []string{"alpha", DefaultObservation, "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, names)
		}
	}
}
