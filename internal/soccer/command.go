package soccer

import "math"

// CommandKind tags the variant held by a Command.
type CommandKind uint8

const (
	CommandNone CommandKind = iota
	CommandDash
	CommandTurn
	CommandTurnNeck
	CommandKick
	CommandMove
)

// String returns the wire name of the command kind
func (k CommandKind) String() string {
	switch k {
	case CommandDash:
		return "dash"
	case CommandTurn:
		return "turn"
	case CommandTurnNeck:
		return "turn_neck"
	case CommandKick:
		return "kick"
	case CommandMove:
		return "move"
	default:
		return "none"
	}
}

// Command is one player instruction for one cycle. Fields are unexported so
// every Command is built through a clamping constructor and is always
// well-formed.
type Command struct {
	kind      CommandKind
	power     float64
	direction float64
	moment    float64
	x, y      float64
}

// Dash accelerates along body_angle+direction. Power is clamped to
// [-100, 100] and direction is wrapped into [-pi, pi].
func Dash(power, direction float64) Command {
	return Command{
		kind:      CommandDash,
		power:     clamp(finiteOr(power, 0), -100, 100),
		direction: NormalizeAngle(finiteOr(direction, 0)),
	}
}

// Turn rotates the body by moment radians (reduced by the player's speed).
func Turn(moment float64) Command {
	return Command{kind: CommandTurn, moment: clamp(finiteOr(moment, 0), -math.Pi, math.Pi)}
}

// TurnNeck rotates the neck relative to the body.
func TurnNeck(moment float64) Command {
	return Command{kind: CommandTurnNeck, moment: clamp(finiteOr(moment, 0), -math.Pi, math.Pi)}
}

// Kick accelerates the ball along body_angle+direction. Power is clamped to
// [0, 100].
func Kick(power, direction float64) Command {
	return Command{
		kind:      CommandKick,
		power:     clamp(finiteOr(power, 0), 0, 100),
		direction: NormalizeAngle(finiteOr(direction, 0)),
	}
}

// Move teleports the player. Only honoured outside play_on.
func Move(x, y float64) Command {
	return Command{kind: CommandMove, x: finiteOr(x, 0), y: finiteOr(y, 0)}
}

func (c Command) Kind() CommandKind { return c.kind }
func (c Command) Power() float64 { return c.power }
func (c Command) Direction() float64 { return c.direction }
func (c Command) Moment() float64 { return c.moment }
func (c Command) Target() Vec2 { return Vec2{c.x, c.y} }

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
