package game

import (
	"fmt"
	"math/rand"
	"runtime/debug"

	"github.com/lguibr/pongduel/utils"
)

// FrameHook receives every observable event the simulation produces, in
// emission order. EndHook fires exactly once, when the match finishes with a
// winner (not on cancellation).
type (
	FrameHook func(event string, data interface{})
	EndHook   func(winner Side, score1, score2 int)
)

// Simulation is the per-match state machine around the physics kernel. It is
// not safe for concurrent use; the owning match serializes access.
type Simulation struct {
	cfg   utils.Config
	state *MatchState
	rng   *rand.Rand

	inputs [2]Direction // latest intent per side, last write wins

	ticksUntilCount int // ticks left before the countdown decrements

	onFrame FrameHook
	onEnd   EndHook
}

// NewSimulation builds a Waiting simulation. rng drives serve angles and is
// injectable so tests can pin the trajectory.
func NewSimulation(cfg utils.Config, rng *rand.Rand, onFrame FrameHook, onEnd EndHook) *Simulation {
	s := &Simulation{
		cfg:     cfg,
		rng:     rng,
		onFrame: onFrame,
		onEnd:   onEnd,
	}
	s.state = &MatchState{
		Ball:    NewBall(cfg),
		Paddles: [2]*Paddle{NewPaddle(cfg, SideLeft), NewPaddle(cfg, SideRight)},
		Phase:   PhaseWaiting,
	}
	s.inputs = [2]Direction{DirNone, DirNone}

	// Opening serve toward a random side. The ball holds its velocity through
	// Waiting and Countdown; only Playing ticks advance it.
	s.state.Serve = Side(rng.Intn(2))
	s.state.Ball.Reset(cfg, s.state.Serve, rng)
	return s
}

// State exposes the live state for snapshotting. Callers must hold the
// match lock.
func (s *Simulation) State() *MatchState { return s.state }

// SetInput stores the latest movement intent for a side. DirNone halts the
// paddle on the next tick.
func (s *Simulation) SetInput(side Side, dir Direction) {
	if s.state.Phase.Terminal() {
		return
	}
	s.inputs[side] = dir
}

// BeginCountdown moves the match into the pre-(re)start countdown and emits
// the first countdown frame.
func (s *Simulation) BeginCountdown() {
	if s.state.Phase.Terminal() {
		return
	}
	s.state.Phase = PhaseCountdown
	s.state.Countdown = s.cfg.CountdownSeconds
	s.ticksUntilCount = s.cfg.TickRate
	s.emit(EventGameCountdown, CountdownData{Count: s.state.Countdown})
}

// Tick advances the simulation by one step. It only does work in Countdown
// and Playing; every other phase is a no-op. It never panics outward: a
// misbehaving frame hook is logged and skipped.
func (s *Simulation) Tick() {
	switch s.state.Phase {
	case PhaseCountdown:
		s.tickCountdown()
	case PhasePlaying:
		s.tickPlaying()
	}
}

// tickCountdown lets paddles reposition while the counter runs down.
func (s *Simulation) tickCountdown() {
	s.applyInputs()

	s.ticksUntilCount--
	if s.ticksUntilCount > 0 {
		s.emit(EventGameState, nil)
		return
	}
	s.ticksUntilCount = s.cfg.TickRate
	s.state.Countdown--
	if s.state.Countdown > 0 {
		s.emit(EventGameCountdown, CountdownData{Count: s.state.Countdown})
		s.emit(EventGameState, nil)
		return
	}
	s.state.Phase = PhasePlaying
	s.emit(EventGameStart, nil)
	s.emit(EventGameState, nil)
}

// tickPlaying runs one physics step: inputs, advance, wall, paddles, score.
// Score detection comes after collisions so a save on the scoring tick wins.
func (s *Simulation) tickPlaying() {
	s.applyInputs()

	ball := s.state.Ball
	ball.Advance()
	ball.CollideWalls(s.cfg)
	ball.CollidePaddle(s.state.Paddles[SideLeft], s.cfg)
	ball.CollidePaddle(s.state.Paddles[SideRight], s.cfg)

	switch ball.DetectScore(s.cfg) {
	case NoScore:
		s.emit(EventGameState, nil)
	case LeftScored:
		s.handleScore(SideLeft)
	case RightScored:
		s.handleScore(SideRight)
	}
}

func (s *Simulation) applyInputs() {
	s.state.Paddles[SideLeft].Move(s.inputs[SideLeft], s.cfg.FieldHeight)
	s.state.Paddles[SideRight].Move(s.inputs[SideRight], s.cfg.FieldHeight)
}

func (s *Simulation) handleScore(scorer Side) {
	s.state.Scores[scorer]++
	if s.state.Scores[scorer] >= s.cfg.MaxScore {
		s.finish(scorer)
		return
	}
	// Loser serves: the ball travels toward the side that conceded.
	loser := scorer.Other()
	s.state.Serve = loser
	s.state.Ball.Reset(s.cfg, loser, s.rng)
	s.BeginCountdown()
	s.emit(EventGameState, nil)
}

// Pause suspends ticking. Legal only from Playing or Countdown.
func (s *Simulation) Pause(reason string) {
	if s.state.Phase != PhasePlaying && s.state.Phase != PhaseCountdown {
		return
	}
	s.state.Phase = PhasePaused
	s.emit(EventGamePaused, GamePausedData{Reason: reason})
}

// Resume leaves Paused through a fresh countdown, scores intact.
func (s *Simulation) Resume() {
	if s.state.Phase != PhasePaused {
		return
	}
	s.emit(EventGameResumed, nil)
	s.BeginCountdown()
}

// ForceEnd finishes the match in favor of the given side regardless of
// scores. Used for forfeits and reconnect timeouts. No-op on terminal
// matches.
func (s *Simulation) ForceEnd(winner Side) {
	if s.state.Phase.Terminal() {
		return
	}
	s.finish(winner)
}

// Cancel terminates the match without a winner. No-op on terminal matches.
func (s *Simulation) Cancel() {
	if s.state.Phase.Terminal() {
		return
	}
	s.state.Phase = PhaseCancelled
}

func (s *Simulation) finish(winner Side) {
	s.state.Phase = PhaseFinished
	s.state.Winner = winner
	s.state.HasWinner = true
	s.emit(EventGameEnd, endEvent{
		Winner: winner,
		Score1: s.state.Scores[SideLeft],
		Score2: s.state.Scores[SideRight],
	})
	if s.onEnd != nil {
		s.onEnd(winner, s.state.Scores[SideLeft], s.state.Scores[SideRight])
	}
}

// emit guards the frame hook so a subscriber panic cannot take down the tick
// loop.
func (s *Simulation) emit(event string, data interface{}) {
	if s.onFrame == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in simulation frame hook (%s): %v\nStack trace:\n%s\n", event, r, string(debug.Stack()))
		}
	}()
	s.onFrame(event, data)
}
