package game

// Phase is the single lifecycle state of a match.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhasePaused    Phase = "paused"
	PhaseFinished  Phase = "finished"
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether the phase admits no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseCancelled
}

// MatchState is the authoritative simulation state of one match. It is only
// ever mutated under the owning match's lock.
type MatchState struct {
	Ball      *Ball       `json:"ball"`
	Paddles   [2]*Paddle  `json:"paddles"` // indexed by Side
	Scores    [2]int      `json:"scores"`  // indexed by Side
	Phase     Phase       `json:"phase"`
	Countdown int         `json:"countdown"` // seconds remaining while in PhaseCountdown
	Serve     Side        `json:"serve"`     // side the next serve travels toward
	Winner    Side        `json:"-"`         // meaningful only when PhaseFinished
	HasWinner bool        `json:"-"`
}
