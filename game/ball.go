package game

import (
	"math"
	"math/rand"

	"github.com/lguibr/pongduel/utils"
)

// Ball is the moving piece of a match. Speed is the scalar the velocity is
// normalized against; immediately after a paddle hit the stored (Vx, Vy) may
// exceed it for one tick, which the kernel accepts by design.
type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Vx     float64 `json:"vx"`
	Vy     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Speed  float64 `json:"speed"`
}

// ScoreResult reports which side scored on a tick, if any.
type ScoreResult int

const (
	NoScore ScoreResult = iota
	LeftScored
	RightScored
)

// NewBall returns a ball resting at field center. Call Reset to serve it.
func NewBall(cfg utils.Config) *Ball {
	return &Ball{
		X:      cfg.FieldWidth / 2,
		Y:      cfg.FieldHeight / 2,
		Radius: cfg.BallRadius,
		Speed:  cfg.InitialSpeed,
	}
}

// Advance moves the ball one tick along its velocity.
func (b *Ball) Advance() {
	b.X += b.Vx
	b.Y += b.Vy
}

// CollideWalls reflects the ball off the top and bottom edges, clamping the
// position onto the boundary so a ball sitting exactly on the wall reflects
// once per tick, not repeatedly.
func (b *Ball) CollideWalls(cfg utils.Config) {
	if b.Y-b.Radius <= 0 {
		b.Y = b.Radius
		b.Vy = -b.Vy
	} else if b.Y+b.Radius >= cfg.FieldHeight {
		b.Y = cfg.FieldHeight - b.Radius
		b.Vy = -b.Vy
	}
}

// DetectScore reports a score once the ball's leading edge crosses a goal
// wall. The left wall concedes to the right player and vice versa.
func (b *Ball) DetectScore(cfg utils.Config) ScoreResult {
	if b.X-b.Radius < 0 {
		return RightScored
	}
	if b.X+b.Radius > cfg.FieldWidth {
		return LeftScored
	}
	return NoScore
}

// Reset centers the ball and serves it toward the given side at initial
// speed, with a serve angle drawn uniformly from [-MaxServeAngle, +MaxServeAngle].
func (b *Ball) Reset(cfg utils.Config, toward Side, rng *rand.Rand) {
	b.X = cfg.FieldWidth / 2
	b.Y = cfg.FieldHeight / 2
	b.Speed = cfg.InitialSpeed

	angle := (rng.Float64()*2 - 1) * cfg.MaxServeAngle
	b.Vx = b.Speed * math.Cos(angle)
	b.Vy = b.Speed * math.Sin(angle)
	if toward == SideLeft {
		b.Vx = -b.Vx
	}
}
