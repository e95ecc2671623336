// Package script runs soccer policies written in JavaScript inside a
// sandboxed goja runtime.
//
// A script defines act(obs, rand, dt) and returns one of
// {dash:[power,dir]}, {turn:[moment]} or {kick:[power,dir]}. Math.random is
// bound to the per-call generator so scripted policies stay reproducible.
package script

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dop251/goja"

	"soccer-arena/internal/policy"
)

var (
	ErrNoActFunction = errors.New("script does not define act()")
	ErrTimeout       = errors.New("script timed out")
)

const (
	defaultInitTimeout = 2 * time.Second
	defaultCallTimeout = 50 * time.Millisecond
)

// Executor implements policy.Executor on top of a goja runtime. Calls are
// serialized; one Executor may be shared by several players.
type Executor struct {
	mu      sync.Mutex
	runtime *goja.Runtime
	act     goja.Callable
	rng     *rand.Rand

	callTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithCallTimeout bounds each act() call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Executor) { e.callTimeout = d }
}

// New compiles source and resolves its act function.
func New(source string, opts ...Option) (*Executor, error) {
	e := &Executor{
		runtime:     goja.New(),
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sandbox()

	err := e.runWithTimeout(defaultInitTimeout, func() error {
		if _, err := e.runtime.RunString(source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fn, ok := goja.AssertFunction(e.runtime.Get("act"))
	if !ok {
		return nil, ErrNoActFunction
	}
	e.act = fn
	return e, nil
}

func (e *Executor) sandbox() {
	e.runtime.Set("require", goja.Undefined())
	e.runtime.Set("fetch", goja.Undefined())
	e.runtime.Set("eval", goja.Undefined())
	e.runtime.Set("Function", goja.Undefined())
	e.runtime.SetRandSource(func() float64 {
		if e.rng == nil {
			return 0
		}
		return e.rng.Float64()
	})
}

// Execute calls act(obs, rand, dt).
func (e *Executor) Execute(obs policy.Observation, rng *rand.Rand, dt float64) (policy.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rng = rng
	defer func() { e.rng = nil }()

	var result goja.Value
	err := e.runWithTimeout(e.callTimeout, func() error {
		r := e.runtime
		randObj := r.NewObject()
		randObj.Set("float", func() float64 {
			if rng == nil {
				return 0
			}
			return rng.Float64()
		})
		randObj.Set("normal", func() float64 {
			if rng == nil {
				return 0
			}
			return rng.NormFloat64()
		})

		v, err := e.act(goja.Undefined(), r.ToValue(map[string]any(obs)), randObj, r.ToValue(dt))
		if err != nil {
			return fmt.Errorf("act() error: %w", err)
		}
		result = v
		return nil
	})
	if err != nil {
		return policy.Action{}, err
	}
	return decodeAction(result)
}

func decodeAction(v goja.Value) (policy.Action, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return policy.Action{}, nil
	}
	raw, ok := v.Export().(map[string]any)
	if !ok {
		return policy.Action{}, fmt.Errorf("act() returned %T, want object", v.Export())
	}
	var a policy.Action
	var err error
	if a.Dash, err = numbers(raw, "dash"); err != nil {
		return policy.Action{}, err
	}
	if a.Turn, err = numbers(raw, "turn"); err != nil {
		return policy.Action{}, err
	}
	if a.Kick, err = numbers(raw, "kick"); err != nil {
		return policy.Action{}, err
	}
	return a, nil
}

func numbers(raw map[string]any, key string) ([]float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array", key)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		switch n := item.(type) {
		case int64:
			out[i] = float64(n)
		case float64:
			out[i] = n
		default:
			return nil, fmt.Errorf("%s[%d] is not a number", key, i)
		}
	}
	return out, nil
}

func (e *Executor) runWithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("script panic: %v", r)
			}
		}()
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// Interrupt a runaway script execution.
		e.runtime.Interrupt("script execution timeout")
		err := <-done
		e.runtime.ClearInterrupt()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return ErrTimeout
	}
}
