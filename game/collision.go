package game

import (
	"github.com/lguibr/pongduel/utils"
)

// CollidePaddle tests AABB overlap between the ball's bounding box and the
// paddle rectangle and, on a hit, applies the full hit response:
//
//  1. hitPos in [0,1] along the paddle face steers the outgoing angle
//     (center hit leaves flat, edges deflect up to the full speed).
//  2. Horizontal reflect, then vertical component set from the pre-ramp
//     speed. The speed scalar then ramps by SpeedRamp up to MaxSpeed and the
//     horizontal component is renormalized to the ramped speed. The resulting
//     one-tick overshoot of the speed invariant is intentional.
//  3. The ball is repositioned just outside the struck face so it cannot
//     collide with the same paddle again next tick.
//
// Returns true when a hit was applied.
func (b *Ball) CollidePaddle(p *Paddle, cfg utils.Config) bool {
	if b.X+b.Radius < p.X || b.X-b.Radius > p.X+p.Width ||
		b.Y+b.Radius < p.Y || b.Y-b.Radius > p.Y+p.Height {
		return false
	}

	hitPos := utils.Clamp((b.Y-p.Y)/p.Height, 0, 1)
	angleMul := (hitPos - 0.5) * 2

	b.Vx = -b.Vx
	b.Vy = b.Speed * angleMul
	b.Speed = utils.Min(b.Speed*cfg.SpeedRamp, cfg.MaxSpeed)
	b.Vx = utils.Sign(b.Vx) * b.Speed

	// Reposition outside the struck face: left-half paddles push the ball
	// right, right-half paddles push it left.
	if p.X+p.Width/2 < cfg.FieldWidth/2 {
		b.X = p.X + p.Width + b.Radius
	} else {
		b.X = p.X - b.Radius
	}
	return true
}
