package script

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"soccer-arena/internal/policy"
)

const chaseScript = `
function act(obs, rand, dt) {
	if (obs.kickable) {
		return {kick: [100, 0]};
	}
	if (Math.abs(obs.ball.angle) > 0.7) {
		return {turn: [obs.ball.angle]};
	}
	return {dash: [100, obs.ball.angle]};
}
`

// TestExecutorActions verifies act() results are decoded
func TestExecutorActions(t *testing.T) {
	exec, err := New(chaseScript)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name string
		obs  policy.Observation
		want string
	}{
		{"kick", policy.Observation{"kickable": true, "ball": map[string]any{"angle": 0.0}}, "kick"},
		{"turn", policy.Observation{"kickable": false, "ball": map[string]any{"angle": 2.0}}, "turn"},
		{"dash", policy.Observation{"kickable": false, "ball": map[string]any{"angle": 0.2}}, "dash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := exec.Execute(tt.obs, rand.New(rand.NewSource(1)), policy.CycleDT)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			switch tt.want {
			case "kick":
				if len(a.Kick) != 2 || a.Kick[0] != 100 {
					t.Errorf("Expected kick [100 0], got %+v", a)
				}
			case "turn":
				if len(a.Turn) != 1 || a.Turn[0] != 2.0 {
					t.Errorf("Expected turn [2], got %+v", a)
				}
			case "dash":
				if len(a.Dash) != 2 || a.Dash[1] != 0.2 {
					t.Errorf("Expected dash [100 0.2], got %+v", a)
				}
			}
		})
	}
}

// TestExecutorRandomIsSeeded verifies Math.random follows the supplied generator
func TestExecutorRandomIsSeeded(t *testing.T) {
	exec, err := New(`function act(obs, rand, dt) { return {turn: [Math.random() + rand.float()]}; }`)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := exec.Execute(policy.Observation{}, rand.New(rand.NewSource(42)), policy.CycleDT)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	second, err := exec.Execute(policy.Observation{}, rand.New(rand.NewSource(42)), policy.CycleDT)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if first.Turn[0] != second.Turn[0] {
		t.Errorf("Expected identical draws, got %f and %f", first.Turn[0], second.Turn[0])
	}
}

// TestExecutorErrors verifies failure modes
func TestExecutorErrors(t *testing.T) {
	if _, err := New(`var x = 1;`); !errors.Is(err, ErrNoActFunction) {
		t.Errorf("Expected ErrNoActFunction, got %v", err)
	}
	if _, err := New(`function act( {`); err == nil {
		t.Error("Expected syntax error")
	}

	throwing, err := New(`function act() { throw new Error("nope"); }`)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := throwing.Execute(policy.Observation{}, nil, policy.CycleDT); err == nil {
		t.Error("Expected error from throwing script")
	}

	bad, err := New(`function act() { return {dash: "fast"}; }`)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := bad.Execute(policy.Observation{}, nil, policy.CycleDT); err == nil {
		t.Error("Expected error for malformed action")
	}

	empty, err := New(`function act() { return null; }`)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if a, err := empty.Execute(policy.Observation{}, nil, policy.CycleDT); err != nil || !a.IsZero() {
		t.Errorf("Expected empty action, got %+v, %v", a, err)
	}
}

// TestExecutorTimeout verifies runaway scripts are interrupted
func TestExecutorTimeout(t *testing.T) {
	exec, err := New(`function act() { while (true) {} }`, WithCallTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = exec.Execute(policy.Observation{}, nil, policy.CycleDT)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}

	// a second call is interrupted the same way instead of hanging
	if _, err := exec.Execute(policy.Observation{}, nil, policy.CycleDT); !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout on second call, got %v", err)
	}
}
