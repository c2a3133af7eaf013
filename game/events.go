package game

// Wire protocol: every frame on the persistent channel is {event, data}.

// Frame is the envelope for both directions of the channel.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Server -> client events.
const (
	EventMatchCreated          = "match:created"
	EventMatchJoined           = "match:joined"
	EventMatchWaiting          = "match:waiting"
	EventOpponentJoined        = "match:opponent_joined"
	EventOpponentLeft          = "match:opponent_left"
	EventOpponentDisconnected  = "match:opponent_disconnected"
	EventOpponentReconnected   = "match:opponent_reconnected"
	EventMatchesUpdated        = "matches:updated"
	EventGameCountdown         = "game:countdown"
	EventGameStart             = "game:start"
	EventGameState             = "game:state"
	EventGamePaused            = "game:paused"
	EventGameResumed           = "game:resumed"
	EventGameEnd               = "game:end"
	EventError                 = "error"
	EventPong                  = "pong"
)

// Client -> server events.
const (
	EventPlayerInput    = "player:input"
	EventPlayerReady    = "player:ready"
	EventMatchJoin      = "match:join"
	EventMatchLeave     = "match:leave"
	EventMatchReconnect = "match:reconnect"
	EventPing           = "ping"
)

// PauseReasonOpponentDisconnected is the only pause reason the core emits.
const PauseReasonOpponentDisconnected = "opponent_disconnected"

type MatchCreatedData struct {
	MatchID string `json:"matchId"`
}

type MatchJoinedData struct {
	MatchID      string `json:"matchId"`
	Opponent     string `json:"opponent"`
	PlayerNumber int    `json:"playerNumber"`
}

type MatchWaitingData struct {
	MatchID string `json:"matchId"`
}

type OpponentJoinedData struct {
	Opponent string `json:"opponent"`
}

type OpponentDisconnectedData struct {
	ReconnectTimeout int `json:"reconnectTimeout"` // seconds
}

type MatchesUpdatedData struct {
	Matches []MatchDescriptor `json:"matches"`
}

type CountdownData struct {
	Count int `json:"count"`
}

type GamePausedData struct {
	Reason string `json:"reason"`
}

type GameEndData struct {
	Winner   string `json:"winner"` // display name
	WinnerID string `json:"winnerId"`
	Score1   int    `json:"score1"`
	Score2   int    `json:"score2"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerBrief is the projection of a player slot that is safe to put on the
// wire.
type PlayerBrief struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Connected bool   `json:"connected"`
}

// GameStateData is the full snapshot a client can render without history.
type GameStateData struct {
	MatchID   string       `json:"matchId"`
	Phase     Phase        `json:"phase"`
	Countdown int          `json:"countdown,omitempty"`
	Ball      Ball         `json:"ball"`
	Paddle1   Paddle       `json:"paddle1"`
	Paddle2   Paddle       `json:"paddle2"`
	Score1    int          `json:"score1"`
	Score2    int          `json:"score2"`
	Player1   *PlayerBrief `json:"player1"`
	Player2   *PlayerBrief `json:"player2"`
}

// PlayerInputData is the payload of player:input.
type PlayerInputData struct {
	Direction string `json:"direction"`
}

// MatchJoinData is the payload of match:join.
type MatchJoinData struct {
	MatchID string `json:"matchId"`
}

// endEvent is the internal payload the simulation hands to its frame hook on
// game:end; the match enriches it with player identity before broadcast.
type endEvent struct {
	Winner Side
	Score1 int
	Score2 int
}
