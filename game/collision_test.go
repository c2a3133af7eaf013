package game

import (
	"math"
	"testing"

	"github.com/lguibr/pongduel/utils"
)

func TestBall_CollidePaddle_Miss(t *testing.T) {
	cfg := utils.DefaultConfig()
	paddle := NewPaddle(cfg, SideLeft)

	ball := &Ball{X: 400, Y: 300, Vx: -5, Vy: 0, Radius: cfg.BallRadius, Speed: 5}
	if ball.CollidePaddle(paddle, cfg) {
		t.Fatal("Expected no collision for a ball at mid field")
	}
	if ball.Vx != -5 || ball.X != 400 {
		t.Fatalf("Miss must not mutate the ball, got X=%v Vx=%v", ball.X, ball.Vx)
	}
}

func TestBall_CollidePaddle_HitPosition(t *testing.T) {
	cfg := utils.DefaultConfig()

	testCases := []struct {
		name       string
		ballY      float64 // relative to paddle top
		expectedVy float64 // in units of pre-ramp speed
	}{
		{"TopEdge", 0, -1},
		{"Center", 50, 0},
		{"BottomEdge", 100, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			paddle := NewPaddle(cfg, SideLeft)
			ball := &Ball{
				X:      paddle.X + paddle.Width + 2,
				Y:      paddle.Y + tc.ballY,
				Vx:     -5,
				Vy:     1,
				Radius: cfg.BallRadius,
				Speed:  5,
			}

			if !ball.CollidePaddle(paddle, cfg) {
				t.Fatal("Expected a collision")
			}

			expectedSpeed := 5 * cfg.SpeedRamp
			if math.Abs(ball.Speed-expectedSpeed) > 1e-9 {
				t.Errorf("Expected ramped speed %v, got %v", expectedSpeed, ball.Speed)
			}
			// Vy uses the pre-ramp speed; Vx is renormalized to the ramped
			// speed. The one-tick overshoot is part of the contract.
			if math.Abs(ball.Vy-5*tc.expectedVy) > 1e-9 {
				t.Errorf("Expected Vy=%v, got %v", 5*tc.expectedVy, ball.Vy)
			}
			if ball.Vx != ball.Speed {
				t.Errorf("Expected Vx reflected and renormalized to %v, got %v", ball.Speed, ball.Vx)
			}
			// Repositioned just outside the struck face.
			if ball.X != paddle.X+paddle.Width+ball.Radius {
				t.Errorf("Expected ball pushed to %v, got %v", paddle.X+paddle.Width+ball.Radius, ball.X)
			}
		})
	}
}

func TestBall_CollidePaddle_RightPaddle(t *testing.T) {
	cfg := utils.DefaultConfig()
	paddle := NewPaddle(cfg, SideRight)

	ball := &Ball{
		X:      paddle.X - 2,
		Y:      paddle.Y + paddle.Height/2,
		Vx:     5,
		Vy:     0,
		Radius: cfg.BallRadius,
		Speed:  5,
	}

	if !ball.CollidePaddle(paddle, cfg) {
		t.Fatal("Expected a collision")
	}
	if ball.Vx >= 0 {
		t.Errorf("Expected ball reflected left, got Vx=%v", ball.Vx)
	}
	if ball.X != paddle.X-ball.Radius {
		t.Errorf("Expected ball pushed to %v, got %v", paddle.X-ball.Radius, ball.X)
	}
}

func TestBall_CollidePaddle_SpeedCap(t *testing.T) {
	cfg := utils.DefaultConfig()
	paddle := NewPaddle(cfg, SideLeft)

	ball := &Ball{
		X:      paddle.X + paddle.Width + 2,
		Y:      paddle.Y + paddle.Height/2,
		Vx:     -cfg.MaxSpeed,
		Vy:     0,
		Radius: cfg.BallRadius,
		Speed:  cfg.MaxSpeed,
	}

	if !ball.CollidePaddle(paddle, cfg) {
		t.Fatal("Expected a collision")
	}
	if ball.Speed != cfg.MaxSpeed {
		t.Errorf("Expected speed capped at %v, got %v", cfg.MaxSpeed, ball.Speed)
	}
}

func TestPaddle_MoveClamped(t *testing.T) {
	cfg := utils.DefaultConfig()

	t.Run("TopClamp", func(t *testing.T) {
		paddle := NewPaddle(cfg, SideLeft)
		paddle.Y = 2
		paddle.Move(DirUp, cfg.FieldHeight)
		if paddle.Y != 0 {
			t.Errorf("Expected paddle clamped to 0, got %v", paddle.Y)
		}
	})

	t.Run("BottomClamp", func(t *testing.T) {
		paddle := NewPaddle(cfg, SideRight)
		paddle.Y = cfg.FieldHeight - paddle.Height - 2
		paddle.Move(DirDown, cfg.FieldHeight)
		if paddle.Y != cfg.FieldHeight-paddle.Height {
			t.Errorf("Expected paddle clamped to %v, got %v", cfg.FieldHeight-paddle.Height, paddle.Y)
		}
	})

	t.Run("NoneHolds", func(t *testing.T) {
		paddle := NewPaddle(cfg, SideLeft)
		before := paddle.Y
		paddle.Move(DirNone, cfg.FieldHeight)
		if paddle.Y != before {
			t.Errorf("Expected paddle to hold at %v, got %v", before, paddle.Y)
		}
	})
}
