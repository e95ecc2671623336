package soccer

import (
	"fmt"
	"math"
)

// Debug enables invariant assertions at the end of every StepCycle. A
// violation is a programming error and panics. Tests switch it on.
var Debug = false

const capEpsilon = 1e-9

func (e *Engine) assertInvariants() {
	if !Debug {
		return
	}
	p := e.params
	for _, id := range e.order {
		pl := e.players[id]
		if !pl.Pos.finite() || !pl.Vel.finite() || math.IsNaN(pl.Angle) {
			panic(fmt.Sprintf("soccer: player %s has non-finite state %+v", id, *pl))
		}
		if pl.Vel.Len() > p.PlayerSpeedMax*p.PlayerDecay+capEpsilon {
			panic(fmt.Sprintf("soccer: player %s speed %.6f above cap", id, pl.Vel.Len()))
		}
		if pl.Stamina < 0 || pl.Stamina > p.StaminaMax {
			panic(fmt.Sprintf("soccer: player %s stamina %.3f out of range", id, pl.Stamina))
		}
		if pl.Effort < p.EffortMin-capEpsilon || pl.Effort > 1+capEpsilon {
			panic(fmt.Sprintf("soccer: player %s effort %.4f out of range", id, pl.Effort))
		}
		if pl.Recovery < p.RecoverMin-capEpsilon || pl.Recovery > 1+capEpsilon {
			panic(fmt.Sprintf("soccer: player %s recovery %.4f out of range", id, pl.Recovery))
		}
	}
	if !e.ball.Pos.finite() || !e.ball.Vel.finite() {
		panic(fmt.Sprintf("soccer: ball has non-finite state %+v", e.ball))
	}
	if math.Abs(e.ball.Pos.Y) > p.HalfWidth()+capEpsilon {
		panic(fmt.Sprintf("soccer: ball y %.6f past the touch line", e.ball.Pos.Y))
	}
	if e.ball.Vel.Len() > p.BallSpeedMax*p.BallDecay+capEpsilon {
		panic(fmt.Sprintf("soccer: ball speed %.6f above cap", e.ball.Vel.Len()))
	}
}
