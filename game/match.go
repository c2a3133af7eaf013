package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lguibr/pongduel/utils"
)

// Identity is the authenticated player attached to every request.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PlayerSlot is one seat in a match. Sink is nil while the player has no live
// connection.
type PlayerSlot struct {
	Identity
	Sink          FrameSink
	Connected     bool
	everConnected bool
}

// MatchDescriptor is the lobby projection of a match.
type MatchDescriptor struct {
	ID        string       `json:"id"`
	Mode      string       `json:"mode"`
	Status    Phase        `json:"status"`
	Player1   *PlayerBrief `json:"player1"`
	Player2   *PlayerBrief `json:"player2"`
	Score1    int          `json:"score1"`
	Score2    int          `json:"score2"`
	WinnerID  *string      `json:"winnerId"`
	CreatedAt time.Time    `json:"createdAt"`
	StartedAt *time.Time   `json:"startedAt"`
}

// MatchResult is the record handed to the result recorder when a match
// finishes with a winner. Cancelled matches produce no result.
type MatchResult struct {
	MatchID   string    `json:"matchId"`
	Player1   string    `json:"player1"`
	Player2   string    `json:"player2"`
	Score1    int       `json:"score1"`
	Score2    int       `json:"score2"`
	WinnerID  string    `json:"winnerId"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
}

// ResultRecorder persists finished match outcomes.
type ResultRecorder interface {
	RecordMatchResult(result MatchResult) error
}

// DisconnectAction tells the caller what follow-up a disconnect requires.
type DisconnectAction int

const (
	// DisconnectIgnored means the disconnect was stale or irrelevant.
	DisconnectIgnored DisconnectAction = iota
	// DisconnectCancelled means the match was cancelled outright.
	DisconnectCancelled
	// DisconnectPaused means the match paused and a reconnect deadline
	// must be armed for the player.
	DisconnectPaused
)

// Match binds two player slots to one simulation. Every exported method takes
// the match lock, so the tick loop, the manager and websocket sessions can
// all call in concurrently.
type Match struct {
	mu sync.Mutex

	id        string
	mode      string
	cfg       utils.Config
	slots     [2]*PlayerSlot
	sim       *Simulation
	createdAt time.Time
	startedAt *time.Time
	endedAt   *time.Time
	result    *MatchResult

	onTerminal       func(matchID string)
	terminalNotified bool
}

// NewMatch creates a Waiting match with the creator in the left slot.
// onTerminal fires exactly once, on the transition into a terminal phase, and
// must not block.
func NewMatch(cfg utils.Config, id, mode string, creator Identity, rng *rand.Rand, onTerminal func(matchID string)) *Match {
	m := &Match{
		id:         id,
		mode:       mode,
		cfg:        cfg,
		createdAt:  time.Now(),
		onTerminal: onTerminal,
	}
	m.slots[SideLeft] = &PlayerSlot{Identity: creator}
	m.sim = NewSimulation(cfg, rng, m.handleSimFrame, m.handleSimEnd)
	fmt.Printf("Match %s: created by %s (%s), mode %s\n", id, creator.Username, creator.ID, mode)
	return m
}

func (m *Match) ID() string   { return m.id }
func (m *Match) Mode() string { return m.mode }

// Phase returns the current lifecycle phase.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.State().Phase
}

// Terminal reports whether the match has ended.
func (m *Match) Terminal() bool {
	return m.Phase().Terminal()
}

// PlayerIDs returns the ids occupying slots, creator first.
func (m *Match) PlayerIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{m.slots[SideLeft].ID}
	if m.slots[SideRight] != nil {
		ids = append(ids, m.slots[SideRight].ID)
	}
	return ids
}

// Result returns the recorded outcome, or nil if the match has not finished
// with a winner.
func (m *Match) Result() *MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// Join seats a second player and starts the countdown. The ticker holds the
// countdown until both players have live connections.
func (m *Match) Join(p Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sim.State().Phase != PhaseWaiting {
		return ErrNotJoinable
	}
	if m.slots[SideRight] != nil {
		return ErrMatchFull
	}
	if m.slots[SideLeft].ID == p.ID {
		return ErrOwnMatch
	}
	m.slots[SideRight] = &PlayerSlot{Identity: p}
	fmt.Printf("Match %s: %s (%s) joined\n", m.id, p.Username, p.ID)
	m.sim.BeginCountdown()
	return nil
}

// AttachConn binds a live connection to the player's slot and replays the
// frames a fresh client needs. Returns the player number (1 or 2).
func (m *Match) AttachConn(playerID string, sink FrameSink) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, side := m.slotOfLocked(playerID)
	if slot == nil {
		return 0, ErrNotInMatch
	}
	firstBind := !slot.everConnected
	m.bindLocked(slot, sink)
	m.announceBindLocked(slot, side, firstBind)
	m.push(sink, EventGameState, m.snapshotLocked())

	m.resumeIfWholeLocked()
	return int(side) + 1, nil
}

// announceBindLocked replays the lifecycle frames a freshly bound client
// needs ahead of its first snapshot, and tells the opponent about a first
// bind. Rebinds of an already-seen player announce only on their own side.
func (m *Match) announceBindLocked(slot *PlayerSlot, side Side, firstBind bool) {
	if side == SideLeft {
		m.push(slot.Sink, EventMatchCreated, MatchCreatedData{MatchID: m.id})
		if m.sim.State().Phase == PhaseWaiting {
			m.push(slot.Sink, EventMatchWaiting, MatchWaitingData{MatchID: m.id})
		}
		return
	}
	m.push(slot.Sink, EventMatchJoined, MatchJoinedData{
		MatchID:      m.id,
		Opponent:     m.slots[SideLeft].Username,
		PlayerNumber: int(side) + 1,
	})
	if firstBind {
		if other := m.otherSlotLocked(side); other != nil {
			m.pushToSlot(other, EventOpponentJoined, OpponentJoinedData{Opponent: slot.Username})
		}
	}
}

// HandleReconnect rebinds a returning player's connection within the grace
// window (or replaces a superseded session) and resumes if both sides are
// back.
func (m *Match) HandleReconnect(playerID string, sink FrameSink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sim.State().Phase.Terminal() {
		return ErrNotJoinable
	}
	slot, side := m.slotOfLocked(playerID)
	if slot == nil {
		return ErrNotInMatch
	}
	// Only a genuinely dropped player warrants notifying the opponent; a
	// session replacement rebinds silently. A player who seated over REST
	// and is connecting for the first time gets the full announcement.
	firstBind := !slot.everConnected
	wasDropped := slot.everConnected && !slot.Connected
	m.bindLocked(slot, sink)
	fmt.Printf("Match %s: player %s reconnected\n", m.id, playerID)

	if firstBind {
		m.announceBindLocked(slot, side, true)
	}
	m.push(sink, EventGameState, m.snapshotLocked())
	if wasDropped {
		if other := m.otherSlotLocked(side); other != nil {
			m.pushToSlot(other, EventOpponentReconnected, nil)
		}
	}
	m.resumeIfWholeLocked()
	return nil
}

// Input records the player's movement intent for the next tick.
func (m *Match) Input(playerID string, dir Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, side := m.slotOfLocked(playerID)
	if slot == nil {
		return
	}
	m.sim.SetInput(side, dir)
}

// Ready replays a fresh snapshot to the requesting player.
func (m *Match) Ready(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, _ := m.slotOfLocked(playerID)
	if slot == nil {
		return
	}
	m.pushToSlot(slot, EventGameState, m.snapshotLocked())
}

// Tick advances the simulation one step. While counting down it waits for
// both players to be connected so nobody misses the serve.
func (m *Match) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sim.State().Phase == PhaseCountdown && !m.bothConnectedLocked() {
		return
	}
	m.sim.Tick()
	m.maybeNotifyTerminalLocked()
}

// HandleDisconnect reacts to a dropped connection. sink, when non-nil, must
// match the slot's current sink; a stale session's disconnect is ignored.
func (m *Match) HandleDisconnect(playerID string, sink FrameSink) DisconnectAction {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, side := m.slotOfLocked(playerID)
	if slot == nil {
		return DisconnectIgnored
	}
	if sink != nil && slot.Sink != sink {
		return DisconnectIgnored
	}
	slot.Connected = false
	slot.Sink = nil

	switch m.sim.State().Phase {
	case PhaseWaiting:
		fmt.Printf("Match %s: creator disconnected while waiting, cancelling\n", m.id)
		m.sim.Cancel()
		m.maybeNotifyTerminalLocked()
		return DisconnectCancelled
	case PhaseCountdown, PhasePlaying, PhasePaused:
		// A drop while already Paused (the opponent left first) still needs
		// its own reconnect deadline, or the match would hang in Paused.
		fmt.Printf("Match %s: player %s disconnected, pausing for %s\n", m.id, playerID, m.cfg.ReconnectGrace)
		m.sim.Pause(PauseReasonOpponentDisconnected)
		if other := m.otherSlotLocked(side); other != nil {
			m.pushToSlot(other, EventOpponentDisconnected, OpponentDisconnectedData{
				ReconnectTimeout: int(m.cfg.ReconnectGrace / time.Second),
			})
		}
		return DisconnectPaused
	default:
		return DisconnectIgnored
	}
}

// HandleReconnectTimeout forfeits the match to the remaining player when the
// grace window expires. A no-op if the player made it back in time.
func (m *Match) HandleReconnectTimeout(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sim.State().Phase.Terminal() {
		return
	}
	slot, side := m.slotOfLocked(playerID)
	if slot == nil || slot.Connected {
		return
	}
	other := m.otherSlotLocked(side)
	if other != nil && other.Connected {
		fmt.Printf("Match %s: player %s never returned, forfeiting to %s\n", m.id, playerID, other.ID)
		m.sim.ForceEnd(side.Other())
	} else {
		fmt.Printf("Match %s: both players gone, cancelling\n", m.id)
		m.sim.Cancel()
	}
	m.maybeNotifyTerminalLocked()
}

// Leave removes the player voluntarily. A waiting match is cancelled; a live
// match is forfeited to a connected opponent.
func (m *Match) Leave(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sim.State().Phase.Terminal() {
		return
	}
	slot, side := m.slotOfLocked(playerID)
	if slot == nil {
		return
	}
	slot.Connected = false
	slot.Sink = nil

	other := m.otherSlotLocked(side)
	if m.sim.State().Phase == PhaseWaiting || other == nil || !other.Connected {
		fmt.Printf("Match %s: player %s left, cancelling\n", m.id, playerID)
		m.sim.Cancel()
	} else {
		fmt.Printf("Match %s: player %s left, forfeiting to %s\n", m.id, playerID, other.ID)
		m.pushToSlot(other, EventOpponentLeft, nil)
		m.sim.ForceEnd(side.Other())
	}
	m.maybeNotifyTerminalLocked()
}

// Descriptor builds the lobby projection.
func (m *Match) Descriptor() MatchDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.sim.State()
	d := MatchDescriptor{
		ID:        m.id,
		Mode:      m.mode,
		Status:    state.Phase,
		Player1:   briefOf(m.slots[SideLeft]),
		Player2:   briefOf(m.slots[SideRight]),
		Score1:    state.Scores[SideLeft],
		Score2:    state.Scores[SideRight],
		CreatedAt: m.createdAt,
		StartedAt: m.startedAt,
	}
	if state.HasWinner {
		id := m.slots[state.Winner].ID
		d.WinnerID = &id
	}
	return d
}

func briefOf(slot *PlayerSlot) *PlayerBrief {
	if slot == nil {
		return nil
	}
	return &PlayerBrief{ID: slot.ID, Username: slot.Username, Connected: slot.Connected}
}

func (m *Match) slotOfLocked(playerID string) (*PlayerSlot, Side) {
	for i, slot := range m.slots {
		if slot != nil && slot.ID == playerID {
			return slot, Side(i)
		}
	}
	return nil, SideLeft
}

func (m *Match) otherSlotLocked(side Side) *PlayerSlot {
	return m.slots[side.Other()]
}

func (m *Match) bothConnectedLocked() bool {
	return m.slots[SideLeft] != nil && m.slots[SideLeft].Connected &&
		m.slots[SideRight] != nil && m.slots[SideRight].Connected
}

func (m *Match) bindLocked(slot *PlayerSlot, sink FrameSink) {
	slot.Sink = sink
	slot.Connected = true
	slot.everConnected = true
}

// resumeIfWholeLocked restarts a paused match once both sides have live
// connections again.
func (m *Match) resumeIfWholeLocked() {
	if m.sim.State().Phase == PhasePaused && m.bothConnectedLocked() {
		fmt.Printf("Match %s: both players connected, resuming\n", m.id)
		m.sim.Resume()
	}
}

func (m *Match) push(sink FrameSink, event string, data interface{}) {
	if sink == nil {
		return
	}
	sink.Push(Frame{Event: event, Data: data})
}

func (m *Match) pushToSlot(slot *PlayerSlot, event string, data interface{}) {
	if slot == nil || !slot.Connected {
		return
	}
	m.push(slot.Sink, event, data)
}

func (m *Match) broadcastLocked(event string, data interface{}) {
	m.pushToSlot(m.slots[SideLeft], event, data)
	m.pushToSlot(m.slots[SideRight], event, data)
}

func (m *Match) snapshotLocked() GameStateData {
	state := m.sim.State()
	return GameStateData{
		MatchID:   m.id,
		Phase:     state.Phase,
		Countdown: state.Countdown,
		Ball:      *state.Ball,
		Paddle1:   *state.Paddles[SideLeft],
		Paddle2:   *state.Paddles[SideRight],
		Score1:    state.Scores[SideLeft],
		Score2:    state.Scores[SideRight],
		Player1:   briefOf(m.slots[SideLeft]),
		Player2:   briefOf(m.slots[SideRight]),
	}
}

// handleSimFrame translates raw simulation events into wire frames. Always
// called with the match lock held, because every simulation entry point is a
// locked method.
func (m *Match) handleSimFrame(event string, data interface{}) {
	switch event {
	case EventGameState:
		m.broadcastLocked(EventGameState, m.snapshotLocked())
	case EventGameStart:
		if m.startedAt == nil {
			now := time.Now()
			m.startedAt = &now
			fmt.Printf("Match %s: game started\n", m.id)
		}
		m.broadcastLocked(EventGameStart, nil)
	case EventGameEnd:
		end := data.(endEvent)
		winner := m.slots[end.Winner]
		m.broadcastLocked(EventGameEnd, GameEndData{
			Winner:   winner.Username,
			WinnerID: winner.ID,
			Score1:   end.Score1,
			Score2:   end.Score2,
		})
	default:
		m.broadcastLocked(event, data)
	}
}

// handleSimEnd captures the result for the recorder. Lock already held.
func (m *Match) handleSimEnd(winner Side, score1, score2 int) {
	now := time.Now()
	m.endedAt = &now
	started := m.createdAt
	if m.startedAt != nil {
		started = *m.startedAt
	}
	var p2 string
	if m.slots[SideRight] != nil {
		p2 = m.slots[SideRight].ID
	}
	m.result = &MatchResult{
		MatchID:   m.id,
		Player1:   m.slots[SideLeft].ID,
		Player2:   p2,
		Score1:    score1,
		Score2:    score2,
		WinnerID:  m.slots[winner].ID,
		StartedAt: started,
		EndedAt:   now,
	}
	fmt.Printf("Match %s: finished %d-%d, winner %s\n", m.id, score1, score2, m.result.WinnerID)
}

func (m *Match) maybeNotifyTerminalLocked() {
	if m.terminalNotified || !m.sim.State().Phase.Terminal() {
		return
	}
	m.terminalNotified = true
	if m.onTerminal != nil {
		m.onTerminal(m.id)
	}
}
