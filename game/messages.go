package game

// ModeOneVsOne is the only supported match mode.
const ModeOneVsOne = "1v1"

// ValidMode reports whether the mode tag is supported.
func ValidMode(mode string) bool {
	return mode == ModeOneVsOne
}

// --- Messages for the MatchManagerActor, sent via Engine.Ask ---

// CreateMatchMsg asks the manager to create a Waiting match for the player.
type CreateMatchMsg struct {
	Player Identity
	Mode   string
}

// JoinMatchMsg asks the manager to seat the player in an existing match.
type JoinMatchMsg struct {
	Player  Identity
	MatchID string
}

// QuickmatchMsg asks the manager to find (or create) an available match.
type QuickmatchMsg struct {
	Player Identity
	Mode   string
}

// ListMatchesMsg asks for the available-match snapshot. Mode is optional.
type ListMatchesMsg struct {
	Mode string
}

// AttachConnMsg binds a live connection to the player's slot in a match.
type AttachConnMsg struct {
	PlayerID string
	MatchID  string
	Sink     FrameSink
}

// ReconnectMsg rebinds a returning player's connection to their match.
type ReconnectMsg struct {
	PlayerID string
	Sink     FrameSink
}

// LeaveMsg removes the player from their match voluntarily.
type LeaveMsg struct {
	PlayerID string
}

// --- Fire-and-forget messages for the MatchManagerActor ---

// DisconnectMsg reports a dropped connection. Sink identifies the session so
// a superseded connection's disconnect cannot hurt its replacement.
type DisconnectMsg struct {
	PlayerID string
	Sink     FrameSink
}

// MatchEndedMsg is sent by a match's terminal hook back to the manager.
type MatchEndedMsg struct {
	MatchID string
}

// cleanupMatchMsg retires a terminal match after the linger window.
type cleanupMatchMsg struct {
	MatchID string
}

// --- Replies ---

// MatchRef is the manager's reply carrying the live match. Sessions keep the
// pointer so the input hot path never goes through the manager again.
type MatchRef struct {
	Match        *Match
	PlayerNumber int
}

// MatchListResult is the reply to ListMatchesMsg.
type MatchListResult struct {
	Matches []MatchDescriptor
}

// --- Messages for the MatchActor ---

// matchTick drives one simulation step.
type matchTick struct{}

// armReconnectDeadlineMsg starts the reconnect grace timer for a player.
type armReconnectDeadlineMsg struct {
	PlayerID string
}

// cancelReconnectDeadlineMsg stops the grace timer after a reconnect.
type cancelReconnectDeadlineMsg struct {
	PlayerID string
}

// reconnectDeadlineMsg fires when the grace window expires.
type reconnectDeadlineMsg struct {
	PlayerID string
}
