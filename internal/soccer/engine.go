// Package soccer implements a cycle-based 2D soccer simulation compatible
// with the RoboCup Soccer Server body model.
//
// An Engine is single-owner and single-threaded. StepCycle is one indivisible
// unit of work: it applies queued commands, integrates players and ball,
// resolves overlaps and checks for goals, in that order.
package soccer

import (
	"errors"
	"iter"
	"math"
	"math/rand"
	"sort"
)

var (
	ErrDuplicatePlayer = errors.New("player already on the pitch")
	ErrInvalidSide     = errors.New("side must be left or right")
)

// PlayerState is the body state of one player.
type PlayerState struct {
	ID        string  `json:"id"`
	Team      Side    `json:"team"`
	Pos       Vec2    `json:"pos"`
	Vel       Vec2    `json:"vel"`
	Accel     Vec2    `json:"accel"`
	Angle     float64 `json:"angle"`
	NeckAngle float64 `json:"neckAngle"`
	Stamina   float64 `json:"stamina"`
	Effort    float64 `json:"effort"`
	Recovery  float64 `json:"recovery"`
}

// BallState is the body state of the ball.
type BallState struct {
	Pos   Vec2 `json:"pos"`
	Vel   Vec2 `json:"vel"`
	Accel Vec2 `json:"accel"`
}

type spawn struct {
	pos   Vec2
	angle float64
}

// Engine is the physics core of one match.
type Engine struct {
	params Params
	rng    *rand.Rand
	seed   int64

	players map[string]*PlayerState
	spawns  map[string]spawn
	order   []string // player ids, sorted

	ball  BallState
	queue map[string]Command

	score    Score
	cycle    int
	playMode PlayMode
	swapped  bool

	lastTouch TouchInfo
	prevTouch TouchInfo
}

// NewEngine creates an empty pitch seeded for deterministic noise.
func NewEngine(params Params, seed int64) *Engine {
	e := &Engine{
		params:  params,
		players: make(map[string]*PlayerState),
		spawns:  make(map[string]spawn),
		queue:   make(map[string]Command),
	}
	e.Reset(seed)
	return e
}

// Reset restores the initial state of the current roster and reseeds noise.
func (e *Engine) Reset(seed int64) {
	e.seed = seed
	e.rng = rand.New(rand.NewSource(seed))
	e.ball = BallState{}
	e.score = Score{}
	e.cycle = 0
	e.playMode = PlayBeforeKickOff
	e.swapped = false
	e.lastTouch = TouchInfo{}
	e.prevTouch = TouchInfo{}
	clear(e.queue)
	for id, p := range e.players {
		s := e.spawns[id]
		*p = e.freshPlayer(id, p.Team, s.pos, s.angle)
	}
}

// AddPlayer places a player on the pitch.
func (e *Engine) AddPlayer(id string, team Side, pos Vec2, angle float64) error {
	if team != Left && team != Right {
		return ErrInvalidSide
	}
	if _, ok := e.players[id]; ok {
		return ErrDuplicatePlayer
	}
	pos = e.clampToField(pos)
	p := e.freshPlayer(id, team, pos, angle)
	e.players[id] = &p
	e.spawns[id] = spawn{pos: pos, angle: p.Angle}

	i := sort.SearchStrings(e.order, id)
	e.order = append(e.order, "")
	copy(e.order[i+1:], e.order[i:])
	e.order[i] = id
	return nil
}

func (e *Engine) freshPlayer(id string, team Side, pos Vec2, angle float64) PlayerState {
	return PlayerState{
		ID:       id,
		Team:     team,
		Pos:      pos,
		Angle:    NormalizeAngle(angle),
		Stamina:  e.params.StaminaMax,
		Effort:   1.0,
		Recovery: 1.0,
	}
}

// QueueCommand stores cmd for the next cycle. The last command queued for a
// player within a cycle wins. Returns false for unknown players.
func (e *Engine) QueueCommand(playerID string, cmd Command) bool {
	if _, ok := e.players[playerID]; !ok {
		return false
	}
	if cmd.Kind() == CommandNone {
		delete(e.queue, playerID)
		return true
	}
	e.queue[playerID] = cmd
	return true
}

// StepCycle advances the simulation by one cycle.
func (e *Engine) StepCycle() StepResult {
	var events []Event

	// 1. commands, in player id order so simultaneous kicks resolve stably
	for _, id := range e.order {
		cmd, ok := e.queue[id]
		if !ok {
			continue
		}
		if ev, kicked := e.apply(e.players[id], cmd); kicked {
			events = append(events, ev)
		}
	}
	clear(e.queue)

	// 2. players
	for _, id := range e.order {
		e.integratePlayer(e.players[id])
	}

	// 3. ball
	e.integrateBall()

	// 4. overlaps
	e.resolvePlayerCollisions()
	events = append(events, e.resolveBallCollisions()...)

	// 5. goals
	if ev, scored := e.checkGoal(); scored {
		events = append(events, ev)
	}

	e.assertInvariants()
	e.cycle++
	return StepResult{Events: events, Score: e.score}
}

func (e *Engine) apply(p *PlayerState, cmd Command) (Event, bool) {
	switch cmd.Kind() {
	case CommandDash:
		e.dash(p, cmd.Power(), cmd.Direction())
	case CommandTurn:
		moment := clamp(cmd.Moment(), e.params.MinMoment, e.params.MaxMoment)
		actual := moment / (1 + e.params.InertiaMoment*p.Vel.Len())
		p.Angle = NormalizeAngle(p.Angle + actual)
	case CommandTurnNeck:
		p.NeckAngle = clamp(p.NeckAngle+cmd.Moment(), e.params.MinNeckAngle, e.params.MaxNeckAngle)
	case CommandKick:
		return e.kick(p, cmd.Power(), cmd.Direction())
	case CommandMove:
		if e.playMode != PlayOn {
			p.Pos = e.clampToField(cmd.Target())
			p.Vel = Vec2{}
			p.Accel = Vec2{}
		}
	}
	return Event{}, false
}

func (e *Engine) dash(p *PlayerState, power, direction float64) {
	power = clamp(power, e.params.MinPower, e.params.MaxPower)
	consume := math.Abs(power) * e.params.DashConsumeRate
	if consume > p.Stamina {
		if e.params.DashConsumeRate > 0 {
			power = math.Copysign(p.Stamina/e.params.DashConsumeRate, power)
		} else {
			power = 0
		}
		consume = p.Stamina
	}
	p.Stamina = math.Max(0, p.Stamina-consume)

	accel := Polar(power*p.Effort*e.params.DashPowerRate, p.Angle+direction)
	p.Accel = p.Accel.Add(accel).ClampLen(e.params.PlayerAccelMax)
}

func (e *Engine) kick(p *PlayerState, power, direction float64) (Event, bool) {
	dist := p.Pos.Dist(e.ball.Pos)
	if dist > e.params.KickableDistance() {
		return Event{}, false
	}
	power = clamp(power, 0, e.params.MaxPower)

	// Balls behind the body or near the edge of the kickable area travel less.
	dirDiff := math.Abs(NormalizeAngle(e.ball.Pos.Sub(p.Pos).Angle() - p.Angle))
	gap := math.Max(0, dist-e.params.PlayerSize-e.params.BallSize)
	rate := e.params.KickPowerRate * (1 - 0.25*dirDiff/math.Pi - 0.25*gap/e.params.KickableMargin)

	heading := p.Angle + direction
	if e.params.Noise && e.params.KickRand > 0 {
		heading += e.rng.NormFloat64() * e.params.KickRand
	}
	accel := Polar(power*rate, heading)
	e.ball.Accel = e.ball.Accel.Add(accel).ClampLen(e.params.BallAccelMax)

	if e.lastTouch.PlayerID != p.ID {
		e.prevTouch = e.lastTouch
	}
	e.lastTouch = TouchInfo{PlayerID: p.ID, Team: p.Team, Cycle: e.cycle}
	if e.playMode != PlayOn {
		e.playMode = PlayOn
	}
	return Event{Type: EventTypeKick, Cycle: e.cycle, PlayerID: p.ID, Team: p.Team}, true
}

func (e *Engine) integratePlayer(p *PlayerState) {
	v := p.Vel.Add(p.Accel)
	if e.params.Noise && e.params.PlayerRand > 0 {
		v = e.addNoise(v, e.params.PlayerRand*v.Len())
	}
	v = v.ClampLen(e.params.PlayerSpeedMax)
	p.Pos = e.clampToField(p.Pos.Add(v))
	p.Vel = v.Scale(e.params.PlayerDecay)
	p.Accel = Vec2{}
	e.updateStamina(p)
}

func (e *Engine) updateStamina(p *PlayerState) {
	max := e.params.StaminaMax
	if p.Stamina <= e.params.RecoverDecThr*max {
		p.Recovery = math.Max(e.params.RecoverMin, p.Recovery-e.params.RecoverDec)
	}
	if p.Stamina <= e.params.EffortDecThr*max {
		p.Effort = math.Max(e.params.EffortMin, p.Effort-e.params.EffortDec)
	}
	p.Stamina = math.Min(max, p.Stamina+e.params.StaminaIncMax*p.Recovery)
	if p.Stamina >= e.params.EffortIncThr*max && p.Effort < 1.0 {
		p.Effort = math.Min(1.0, p.Effort+e.params.EffortInc)
	}
}

func (e *Engine) integrateBall() {
	b := &e.ball
	v := b.Vel.Add(b.Accel)
	if e.params.Noise && e.params.BallRand > 0 {
		v = e.addNoise(v, e.params.BallRand*v.Len())
	}
	v = v.ClampLen(e.params.BallSpeedMax)
	b.Pos = b.Pos.Add(v)
	b.Vel = v.Scale(e.params.BallDecay)
	b.Accel = Vec2{}

	hl, hw := e.params.HalfLength(), e.params.HalfWidth()
	if math.Abs(b.Pos.Y) > hw {
		b.Pos.Y = math.Copysign(hw, b.Pos.Y)
		b.Vel.Y = -b.Vel.Y * e.params.WallDamping
	}
	// End lines outside the goal mouth behave as walls.
	if math.Abs(b.Pos.X) > hl && math.Abs(b.Pos.Y) > e.params.GoalWidth/2 {
		b.Pos.X = math.Copysign(hl, b.Pos.X)
		b.Vel.X = -b.Vel.X * e.params.WallDamping
	}
	if limit := hl + e.params.GoalDepth; math.Abs(b.Pos.X) > limit {
		b.Pos.X = math.Copysign(limit, b.Pos.X)
		b.Vel.X = 0
	}
}

// clampBall keeps a ball position inside the touch lines, the end lines
// outside the goal mouth and the back of the goals.
func (e *Engine) clampBall(pos Vec2) Vec2 {
	hl, hw := e.params.HalfLength(), e.params.HalfWidth()
	if math.Abs(pos.Y) > hw {
		pos.Y = math.Copysign(hw, pos.Y)
	}
	if math.Abs(pos.X) > hl && math.Abs(pos.Y) > e.params.GoalWidth/2 {
		pos.X = math.Copysign(hl, pos.X)
	}
	if limit := hl + e.params.GoalDepth; math.Abs(pos.X) > limit {
		pos.X = math.Copysign(limit, pos.X)
	}
	return pos
}

func (e *Engine) addNoise(v Vec2, r float64) Vec2 {
	if r <= 0 {
		return v
	}
	v.X += (e.rng.Float64()*2 - 1) * r
	v.Y += (e.rng.Float64()*2 - 1) * r
	return v
}

func (e *Engine) resolvePlayerCollisions() {
	minDist := 2 * e.params.PlayerSize
	for i, idA := range e.order {
		a := e.players[idA]
		for _, idB := range e.order[i+1:] {
			b := e.players[idB]
			d := b.Pos.Sub(a.Pos)
			dist := d.Len()
			if dist >= minDist {
				continue
			}
			n := Vec2{X: 1}
			if dist > 0 {
				n = d.Scale(1 / dist)
			}
			push := n.Scale((minDist - dist) / 2)
			a.Pos = e.clampToField(a.Pos.Sub(push))
			b.Pos = e.clampToField(b.Pos.Add(push))
			a.Vel = a.Vel.Scale(e.params.CollisionDamping)
			b.Vel = b.Vel.Scale(e.params.CollisionDamping)
		}
	}
}

func (e *Engine) resolveBallCollisions() []Event {
	var events []Event
	minDist := e.params.PlayerSize + e.params.BallSize
	for _, id := range e.order {
		p := e.players[id]
		d := e.ball.Pos.Sub(p.Pos)
		dist := d.Len()
		if dist >= minDist {
			continue
		}
		n := Polar(1, p.Angle)
		if dist > 0 {
			n = d.Scale(1 / dist)
		}
		e.ball.Pos = e.clampBall(p.Pos.Add(n.Scale(minDist)))
		events = append(events, Event{Type: EventTypeContact, Cycle: e.cycle, PlayerID: p.ID, Team: p.Team})
	}
	return events
}

// attackerOf returns the side that scores when the ball enters the goal on
// the positive (rightGoal) or negative x end.
func (e *Engine) attackerOf(rightGoal bool) Side {
	side := Right
	if rightGoal {
		side = Left
	}
	if e.swapped {
		side = side.Opponent()
	}
	return side
}

// AttackDirection is +1 when side attacks the positive x goal, -1 otherwise.
func (e *Engine) AttackDirection(side Side) float64 {
	if e.attackerOf(true) == side {
		return 1
	}
	return -1
}

func (e *Engine) checkGoal() (Event, bool) {
	hl := e.params.HalfLength()
	bx, by := e.ball.Pos.X, e.ball.Pos.Y
	if math.Abs(bx) <= hl || math.Abs(by) > e.params.GoalWidth/2 {
		return Event{}, false
	}
	scoring := e.attackerOf(bx > 0)

	goal := &Goal{ScoringTeam: scoring}
	if last := e.lastTouch; last.PlayerID != "" {
		goal.ScorerID = last.PlayerID
		goal.OwnGoal = last.Team != scoring
		prev := e.prevTouch
		if !goal.OwnGoal && prev.PlayerID != "" && prev.PlayerID != last.PlayerID &&
			prev.Team == last.Team && e.cycle-prev.Cycle <= e.params.AssistWindow {
			goal.AssistID = prev.PlayerID
		}
	}

	if scoring == Left {
		e.score.Left++
	} else {
		e.score.Right++
	}
	e.ball = BallState{}
	e.lastTouch = TouchInfo{}
	e.prevTouch = TouchInfo{}
	e.playMode = kickOffFor(scoring.Opponent())

	return Event{Type: EventTypeGoal, Cycle: e.cycle, PlayerID: goal.ScorerID, Team: scoring, Goal: goal}, true
}

// SwapSides performs the half-time switch: players are mirrored about the
// centre line and turned around, the ball returns to the centre spot and goal
// attribution inverts.
func (e *Engine) SwapSides() {
	for _, id := range e.order {
		p := e.players[id]
		p.Pos.X = -p.Pos.X
		p.Angle = NormalizeAngle(p.Angle + math.Pi)
		p.Vel = Vec2{}
		p.Accel = Vec2{}
	}
	e.ball = BallState{}
	e.lastTouch = TouchInfo{}
	e.prevTouch = TouchInfo{}
	e.swapped = !e.swapped
	e.playMode = PlayBeforeKickOff
	clear(e.queue)
}

func (e *Engine) clampToField(p Vec2) Vec2 {
	return Vec2{
		X: clamp(p.X, -e.params.HalfLength(), e.params.HalfLength()),
		Y: clamp(p.Y, -e.params.HalfWidth(), e.params.HalfWidth()),
	}
}

// Players returns copies of all players sorted by id.
func (e *Engine) Players() []PlayerState {
	out := make([]PlayerState, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.players[id])
	}
	return out
}

// IterPlayers yields copies of all players in id order.
func (e *Engine) IterPlayers() iter.Seq[PlayerState] {
	return func(yield func(PlayerState) bool) {
		for _, id := range e.order {
			if !yield(*e.players[id]) {
				return
			}
		}
	}
}

// Player returns a copy of one player.
func (e *Engine) Player(id string) (PlayerState, bool) {
	p, ok := e.players[id]
	if !ok {
		return PlayerState{}, false
	}
	return *p, true
}

// PlayerIDs returns the sorted roster.
func (e *Engine) PlayerIDs() []string {
	return append([]string(nil), e.order...)
}

// LastTouchInfo returns the last and the previous distinct toucher.
func (e *Engine) LastTouchInfo() (last, prev TouchInfo) {
	return e.lastTouch, e.prevTouch
}

func (e *Engine) Ball() BallState { return e.ball }
func (e *Engine) Score() Score { return e.score }
func (e *Engine) Cycle() int { return e.cycle }
func (e *Engine) PlayMode() PlayMode { return e.playMode }
func (e *Engine) Swapped() bool { return e.swapped }
func (e *Engine) Params() Params { return e.params }
func (e *Engine) Seed() int64 { return e.seed }
