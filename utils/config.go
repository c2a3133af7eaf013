package utils

import (
	"math"
	"time"
)

// Config holds all configurable match parameters. A single value is built in
// main and passed down explicitly; nothing in the codebase reads mutable
// package-level state.
type Config struct {
	// Field of play
	FieldWidth  float64 `json:"fieldWidth"`  // W
	FieldHeight float64 `json:"fieldHeight"` // H

	// Paddles
	PaddleWidth  float64 `json:"paddleWidth"`  // Thickness facing the ball
	PaddleHeight float64 `json:"paddleHeight"` // Length along the wall
	PaddleStep   float64 `json:"paddleStep"`   // Per-tick movement
	PaddleOffset float64 `json:"paddleOffset"` // Gap between wall and paddle face

	// Ball
	BallRadius    float64 `json:"ballRadius"`
	InitialSpeed  float64 `json:"initialSpeed"`  // Speed after every serve
	MaxSpeed      float64 `json:"maxSpeed"`      // Hard cap on the speed scalar
	SpeedRamp     float64 `json:"speedRamp"`     // Multiplier applied on paddle hits
	MaxServeAngle float64 `json:"maxServeAngle"` // Serve angle drawn from [-max, +max] radians

	// Rules
	MaxScore int `json:"maxScore"`

	// Timing
	TickRate         int           `json:"tickRate"`         // Simulation ticks per second
	CountdownSeconds int           `json:"countdownSeconds"` // Pre-start and pre-serve countdown
	ReconnectGrace   time.Duration `json:"reconnectGrace"`   // Window to reconnect before forfeit
	CleanupDelay     time.Duration `json:"cleanupDelay"`     // Terminal match lingers for late frames
	IdleTimeout      time.Duration `json:"idleTimeout"`      // Close connections silent this long
	PingInterval     time.Duration `json:"pingInterval"`     // Advisory heartbeat cadence for clients
	AskTimeout       time.Duration `json:"askTimeout"`       // Request/reply deadline against the manager

	// Transport
	OutboxSize int `json:"outboxSize"` // Bounded per-connection outbound queue
}

// TickPeriod returns the wall-clock duration of one simulation tick.
func (c Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// DefaultConfig returns a Config struct with the authoritative defaults.
func DefaultConfig() Config {
	return Config{
		FieldWidth:  800,
		FieldHeight: 600,

		PaddleWidth:  15,
		PaddleHeight: 100,
		PaddleStep:   6,
		PaddleOffset: 10,

		BallRadius:    8,
		InitialSpeed:  5,
		MaxSpeed:      12,
		SpeedRamp:     1.05,
		MaxServeAngle: math.Pi / 6, // 30 degrees

		MaxScore: 11,

		TickRate:         60,
		CountdownSeconds: 3,
		ReconnectGrace:   30 * time.Second,
		CleanupDelay:     5 * time.Second,
		IdleTimeout:      60 * time.Second,
		PingInterval:     25 * time.Second,
		AskTimeout:       2 * time.Second,

		OutboxSize: 64,
	}
}
