package game

import (
	"github.com/lguibr/pongduel/utils"
)

// Side identifies a paddle slot. Left is player 1, right is player 2.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) Other() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Direction is a player's movement intent for a tick.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	DirNone Direction = "none"
)

// ParseDirection validates a wire direction string.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirUp, DirDown, DirNone:
		return Direction(s), true
	}
	return DirNone, false
}

// Paddle occupies a fixed X per side and slides vertically in [0, H - Height].
type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Step   float64 `json:"-"`
}

// NewPaddle builds a paddle for the given side, vertically centered.
func NewPaddle(cfg utils.Config, side Side) *Paddle {
	x := cfg.PaddleOffset
	if side == SideRight {
		x = cfg.FieldWidth - cfg.PaddleOffset - cfg.PaddleWidth
	}
	return &Paddle{
		X:      x,
		Y:      (cfg.FieldHeight - cfg.PaddleHeight) / 2,
		Width:  cfg.PaddleWidth,
		Height: cfg.PaddleHeight,
		Step:   cfg.PaddleStep,
	}
}

// Move applies one tick of movement intent, clamped to the field.
func (p *Paddle) Move(dir Direction, fieldHeight float64) {
	switch dir {
	case DirUp:
		p.Y = utils.Clamp(p.Y-p.Step, 0, fieldHeight-p.Height)
	case DirDown:
		p.Y = utils.Clamp(p.Y+p.Step, 0, fieldHeight-p.Height)
	}
}
