package soccer

import "math"

// Params holds the physics constants of a match. Values are copied into the
// engine at construction and never change afterwards.
type Params struct {
	// Field geometry (meters, origin at the centre spot)
	FieldLength float64
	FieldWidth  float64
	GoalWidth   float64
	GoalDepth   float64

	// Ball
	BallSize     float64
	BallDecay    float64
	BallRand     float64
	BallSpeedMax float64
	BallAccelMax float64

	// Player body
	PlayerSize     float64
	PlayerDecay    float64
	PlayerRand     float64
	PlayerSpeedMax float64
	PlayerAccelMax float64
	InertiaMoment  float64

	// Stamina model
	StaminaMax       float64
	StaminaIncMax    float64
	RecoverDec       float64
	RecoverMin       float64
	EffortDec        float64
	EffortInc        float64
	EffortMin        float64
	RecoverDecThr    float64 // fraction of StaminaMax
	EffortDecThr     float64 // fraction of StaminaMax
	EffortIncThr     float64 // fraction of StaminaMax
	DashPowerRate    float64
	DashConsumeRate  float64
	KickPowerRate    float64
	KickableMargin   float64
	KickRand         float64 // stddev of kick direction noise, radians
	MinPower         float64
	MaxPower         float64
	MinMoment        float64
	MaxMoment        float64
	MinNeckAngle     float64
	MaxNeckAngle     float64
	WallDamping      float64
	CollisionDamping float64

	// Attribution
	AssistWindow int

	// Noise toggles the uniform movement noise and gaussian kick noise.
	Noise bool
}

// DefaultParams returns RoboCup Soccer Server compatible defaults.
func DefaultParams() Params {
	return Params{
		FieldLength: 105.0,
		FieldWidth:  68.0,
		GoalWidth:   14.02,
		GoalDepth:   2.44,

		BallSize:     0.085,
		BallDecay:    0.94,
		BallRand:     0.05,
		BallSpeedMax: 3.0,
		BallAccelMax: 2.7,

		PlayerSize:     0.3,
		PlayerDecay:    0.4,
		PlayerRand:     0.1,
		PlayerSpeedMax: 1.05,
		PlayerAccelMax: 1.0,
		InertiaMoment:  5.0,

		StaminaMax:       8000,
		StaminaIncMax:    45,
		RecoverDec:       0.002,
		RecoverMin:       0.5,
		EffortDec:        0.005,
		EffortInc:        0.01,
		EffortMin:        0.6,
		RecoverDecThr:    0.25,
		EffortDecThr:     0.25,
		EffortIncThr:     0.6,
		DashPowerRate:    0.006,
		DashConsumeRate:  1.0,
		KickPowerRate:    0.027,
		KickableMargin:   0.7,
		KickRand:         0.1,
		MinPower:         -100,
		MaxPower:         100,
		MinMoment:        -math.Pi,
		MaxMoment:        math.Pi,
		MinNeckAngle:     -math.Pi / 2,
		MaxNeckAngle:     math.Pi / 2,
		WallDamping:      0.8,
		CollisionDamping: 0.1,

		AssistWindow: 50,
		Noise:        true,
	}
}

// KickableDistance is the largest centre-to-centre player/ball distance at
// which a kick has any effect.
func (p Params) KickableDistance() float64 {
	return p.PlayerSize + p.BallSize + p.KickableMargin
}

// HalfLength returns half the field length.
func (p Params) HalfLength() float64 { return p.FieldLength / 2 }

// HalfWidth returns half the field width.
func (p Params) HalfWidth() float64 { return p.FieldWidth / 2 }
