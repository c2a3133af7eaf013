package game

import (
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/lguibr/bollywood"
	"github.com/lguibr/pongduel/utils"
)

// managedMatch ties a match to its actor and lingering cleanup timer.
type managedMatch struct {
	match        *Match
	pid          *bollywood.PID
	cleanupTimer *time.Timer
}

// LobbyNotifier receives the available-match snapshot whenever it changes.
// Must not block; the server fans it out to lobby connections.
type LobbyNotifier func(matches []MatchDescriptor)

// MatchManagerActor owns the match registry and the player index. All
// registry access happens inside Receive, so no extra locking is needed
// here; per-match state is guarded by each Match's own lock.
type MatchManagerActor struct {
	engine   *bollywood.Engine
	cfg      utils.Config
	selfPID  *bollywood.PID
	rng      *rand.Rand
	recorder ResultRecorder
	notify   LobbyNotifier

	matches     map[string]*managedMatch
	order       []string          // match ids in creation order, for quickmatch scans
	playerIndex map[string]string // player id -> match id, non-terminal matches only
}

// NewMatchManagerProducer creates a producer for the MatchManagerActor.
// recorder and notify may be nil.
func NewMatchManagerProducer(engine *bollywood.Engine, cfg utils.Config, recorder ResultRecorder, notify LobbyNotifier) bollywood.Producer {
	return func() bollywood.Actor {
		return &MatchManagerActor{
			engine:      engine,
			cfg:         cfg,
			rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
			recorder:    recorder,
			notify:      notify,
			matches:     make(map[string]*managedMatch),
			playerIndex: make(map[string]string),
		}
	}
}

// Receive is the main message handler for the MatchManagerActor.
func (a *MatchManagerActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			pidStr := "unknown"
			if a.selfPID != nil {
				pidStr = a.selfPID.String()
			}
			fmt.Printf("PANIC recovered in MatchManagerActor %s Receive: %v\nStack trace:\n%s\n", pidStr, r, string(debug.Stack()))
			if ctx.RequestID() != "" {
				ctx.Reply(fmt.Errorf("match manager panicked: %v", r))
			}
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		fmt.Printf("MatchManagerActor %s: Started.\n", a.selfPID)

	case CreateMatchMsg:
		a.handleCreate(ctx, msg)

	case JoinMatchMsg:
		a.handleJoin(ctx, msg)

	case QuickmatchMsg:
		a.handleQuickmatch(ctx, msg)

	case ListMatchesMsg:
		ctx.Reply(MatchListResult{Matches: a.listAvailable(msg.Mode)})

	case AttachConnMsg:
		a.handleAttach(ctx, msg)

	case ReconnectMsg:
		a.handleReconnect(ctx, msg)

	case LeaveMsg:
		a.handleLeave(ctx, msg)

	case DisconnectMsg:
		a.handleDisconnect(msg)

	case MatchEndedMsg:
		a.handleMatchEnded(msg.MatchID)

	case cleanupMatchMsg:
		a.handleCleanup(msg.MatchID)

	case bollywood.Stopping:
		fmt.Printf("MatchManagerActor %s: Stopping. Shutting down %d matches.\n", a.selfPID, len(a.matches))
		for _, mm := range a.matches {
			if mm.cleanupTimer != nil {
				mm.cleanupTimer.Stop()
			}
			a.engine.Stop(mm.pid)
		}
		a.matches = make(map[string]*managedMatch)
		a.order = nil
		a.playerIndex = make(map[string]string)

	case bollywood.Stopped:
		fmt.Printf("MatchManagerActor %s: Stopped.\n", a.selfPID)

	default:
		fmt.Printf("MatchManagerActor %s: Received unknown message type: %T\n", a.selfPID, msg)
		if ctx.RequestID() != "" {
			ctx.Reply(fmt.Errorf("unknown message type: %T", msg))
		}
	}
}

// --- Handler methods ---

func (a *MatchManagerActor) handleCreate(ctx bollywood.Context, msg CreateMatchMsg) {
	if !ValidMode(msg.Mode) {
		ctx.Reply(ErrInvalidMode)
		return
	}
	if a.activeMatchOf(msg.Player.ID) != nil {
		ctx.Reply(ErrAlreadyInMatch)
		return
	}
	mm := a.createMatch(msg.Player, msg.Mode)
	if mm == nil {
		ctx.Reply(fmt.Errorf("failed to spawn match actor"))
		return
	}
	a.notifyLobby()
	ctx.Reply(MatchRef{Match: mm.match, PlayerNumber: 1})
}

func (a *MatchManagerActor) handleJoin(ctx bollywood.Context, msg JoinMatchMsg) {
	mm, ok := a.matches[msg.MatchID]
	if !ok {
		ctx.Reply(ErrMatchNotFound)
		return
	}
	// Covers re-joining the player's own live match too; that is a
	// conflict, not a joinability question.
	if a.activeMatchOf(msg.Player.ID) != nil {
		ctx.Reply(ErrAlreadyInMatch)
		return
	}
	if err := mm.match.Join(msg.Player); err != nil {
		ctx.Reply(err)
		return
	}
	a.playerIndex[msg.Player.ID] = msg.MatchID
	a.notifyLobby()
	ctx.Reply(MatchRef{Match: mm.match, PlayerNumber: 2})
}

// handleQuickmatch joins the oldest available match, or creates a fresh
// Waiting one when the scan comes up empty.
func (a *MatchManagerActor) handleQuickmatch(ctx bollywood.Context, msg QuickmatchMsg) {
	mode := msg.Mode
	if mode == "" {
		mode = ModeOneVsOne
	}
	if !ValidMode(mode) {
		ctx.Reply(ErrInvalidMode)
		return
	}
	if a.activeMatchOf(msg.Player.ID) != nil {
		ctx.Reply(ErrAlreadyInMatch)
		return
	}

	if mm := a.findAvailable(mode, msg.Player.ID); mm != nil {
		if err := mm.match.Join(msg.Player); err != nil {
			ctx.Reply(err)
			return
		}
		a.playerIndex[msg.Player.ID] = mm.match.ID()
		a.notifyLobby()
		ctx.Reply(MatchRef{Match: mm.match, PlayerNumber: 2})
		return
	}

	fmt.Printf("MatchManagerActor %s: No available match for quickmatch, creating one for %s.\n", a.selfPID, msg.Player.ID)
	mm := a.createMatch(msg.Player, mode)
	if mm == nil {
		ctx.Reply(fmt.Errorf("failed to spawn match actor"))
		return
	}
	a.notifyLobby()
	ctx.Reply(MatchRef{Match: mm.match, PlayerNumber: 1})
}

func (a *MatchManagerActor) handleAttach(ctx bollywood.Context, msg AttachConnMsg) {
	mm, ok := a.matches[msg.MatchID]
	if !ok {
		ctx.Reply(ErrMatchNotFound)
		return
	}
	if mm.match.Terminal() {
		ctx.Reply(ErrNotJoinable)
		return
	}
	playerNumber, err := mm.match.AttachConn(msg.PlayerID, msg.Sink)
	if err != nil {
		ctx.Reply(err)
		return
	}
	// Attach doubles as a reconnect when the player dropped earlier.
	a.engine.Send(mm.pid, cancelReconnectDeadlineMsg{PlayerID: msg.PlayerID}, a.selfPID)
	ctx.Reply(MatchRef{Match: mm.match, PlayerNumber: playerNumber})
}

func (a *MatchManagerActor) handleReconnect(ctx bollywood.Context, msg ReconnectMsg) {
	mm := a.activeMatchOf(msg.PlayerID)
	if mm == nil {
		ctx.Reply(ErrNotInMatch)
		return
	}
	if err := mm.match.HandleReconnect(msg.PlayerID, msg.Sink); err != nil {
		ctx.Reply(err)
		return
	}
	a.engine.Send(mm.pid, cancelReconnectDeadlineMsg{PlayerID: msg.PlayerID}, a.selfPID)
	ctx.Reply(MatchRef{Match: mm.match})
}

func (a *MatchManagerActor) handleLeave(ctx bollywood.Context, msg LeaveMsg) {
	mm := a.activeMatchOf(msg.PlayerID)
	if mm == nil {
		ctx.Reply(ErrNotInMatch)
		return
	}
	mm.match.Leave(msg.PlayerID)
	ctx.Reply(MatchRef{Match: mm.match})
}

func (a *MatchManagerActor) handleDisconnect(msg DisconnectMsg) {
	mm := a.activeMatchOf(msg.PlayerID)
	if mm == nil {
		return
	}
	switch mm.match.HandleDisconnect(msg.PlayerID, msg.Sink) {
	case DisconnectPaused:
		a.engine.Send(mm.pid, armReconnectDeadlineMsg{PlayerID: msg.PlayerID}, a.selfPID)
	case DisconnectCancelled:
		// Terminal hook already queued MatchEndedMsg.
	}
}

// handleMatchEnded runs once per match, when it enters a terminal phase. The
// player index is released immediately so both players can matchmake again;
// the registry entry lingers so late status reads still resolve.
func (a *MatchManagerActor) handleMatchEnded(matchID string) {
	mm, ok := a.matches[matchID]
	if !ok {
		return
	}
	fmt.Printf("MatchManagerActor %s: Match %s ended, releasing players, cleanup in %s.\n", a.selfPID, matchID, a.cfg.CleanupDelay)

	for _, playerID := range mm.match.PlayerIDs() {
		if a.playerIndex[playerID] == matchID {
			delete(a.playerIndex, playerID)
		}
	}

	if result := mm.match.Result(); result != nil && a.recorder != nil {
		go a.recordResult(*result)
	}

	a.notifyLobby()

	selfPID := a.selfPID
	mm.cleanupTimer = time.AfterFunc(a.cfg.CleanupDelay, func() {
		a.engine.Send(selfPID, cleanupMatchMsg{MatchID: matchID}, nil)
	})
}

func (a *MatchManagerActor) handleCleanup(matchID string) {
	mm, ok := a.matches[matchID]
	if !ok {
		return
	}
	fmt.Printf("MatchManagerActor %s: Retiring match %s.\n", a.selfPID, matchID)
	delete(a.matches, matchID)
	for i, id := range a.order {
		if id == matchID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.engine.Stop(mm.pid)
}

// --- Helpers ---

func (a *MatchManagerActor) createMatch(creator Identity, mode string) *managedMatch {
	matchID := uuid.NewString()
	engine := a.engine
	selfPID := a.selfPID
	match := NewMatch(a.cfg, matchID, mode, creator, a.rng, func(id string) {
		engine.Send(selfPID, MatchEndedMsg{MatchID: id}, nil)
	})

	pid := a.engine.Spawn(bollywood.NewProps(NewMatchActorProducer(a.engine, a.cfg, match)))
	if pid == nil {
		fmt.Printf("ERROR: MatchManagerActor %s: Failed to spawn MatchActor for match %s.\n", a.selfPID, matchID)
		return nil
	}

	mm := &managedMatch{match: match, pid: pid}
	a.matches[matchID] = mm
	a.order = append(a.order, matchID)
	a.playerIndex[creator.ID] = matchID
	return mm
}

// activeMatchOf resolves the player's current non-terminal match. Stale index
// entries pointing at terminal matches are cleaned lazily.
func (a *MatchManagerActor) activeMatchOf(playerID string) *managedMatch {
	matchID, ok := a.playerIndex[playerID]
	if !ok {
		return nil
	}
	mm, ok := a.matches[matchID]
	if !ok || mm.match.Terminal() {
		delete(a.playerIndex, playerID)
		return nil
	}
	return mm
}

// findAvailable scans in creation order for the oldest Waiting match of the
// mode that the player did not create.
func (a *MatchManagerActor) findAvailable(mode, excludePlayerID string) *managedMatch {
	for _, matchID := range a.order {
		mm, ok := a.matches[matchID]
		if !ok {
			continue
		}
		d := mm.match.Descriptor()
		if d.Status != PhaseWaiting || d.Mode != mode {
			continue
		}
		if d.Player1 != nil && d.Player1.ID == excludePlayerID {
			continue
		}
		return mm
	}
	return nil
}

func (a *MatchManagerActor) listAvailable(mode string) []MatchDescriptor {
	matches := make([]MatchDescriptor, 0, len(a.order))
	for _, matchID := range a.order {
		mm, ok := a.matches[matchID]
		if !ok {
			continue
		}
		d := mm.match.Descriptor()
		if d.Status != PhaseWaiting {
			continue
		}
		if mode != "" && d.Mode != mode {
			continue
		}
		matches = append(matches, d)
	}
	return matches
}

func (a *MatchManagerActor) notifyLobby() {
	if a.notify == nil {
		return
	}
	a.notify(a.listAvailable(""))
}

func (a *MatchManagerActor) recordResult(result MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in result recorder for match %s: %v\n", result.MatchID, r)
		}
	}()
	if err := a.recorder.RecordMatchResult(result); err != nil {
		fmt.Printf("ERROR: Recording result for match %s failed: %v\n", result.MatchID, err)
	}
}
