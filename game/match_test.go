package game

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/pongduel/utils"
)

// fakeSink collects frames pushed to one player.
type fakeSink struct {
	mu     sync.Mutex
	frames []Frame
}

func (f *fakeSink) Push(frame Frame) {
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
}

func (f *fakeSink) countOf(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		if fr.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeSink) indexOf(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fr := range f.frames {
		if fr.Event == event {
			return i
		}
	}
	return -1
}

func (f *fakeSink) last(event string) (Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].Event == event {
			return f.frames[i], true
		}
	}
	return Frame{}, false
}

func matchConfig() utils.Config {
	cfg := utils.DefaultConfig()
	cfg.TickRate = 1
	cfg.CountdownSeconds = 1
	cfg.ReconnectGrace = 30 * time.Second
	return cfg
}

var (
	alice = Identity{ID: "p1", Username: "alice"}
	bob   = Identity{ID: "p2", Username: "bob"}
)

type matchFixture struct {
	match         *Match
	sink1, sink2  *fakeSink
	terminalCalls int
}

func newMatchFixture(t *testing.T, cfg utils.Config) *matchFixture {
	t.Helper()
	f := &matchFixture{sink1: &fakeSink{}, sink2: &fakeSink{}}
	f.match = NewMatch(cfg, "match-1", ModeOneVsOne, alice, rand.New(rand.NewSource(7)), func(string) {
		f.terminalCalls++
	})
	return f
}

// seated joins bob and attaches both connections.
func (f *matchFixture) seated(t *testing.T) {
	t.Helper()
	require.NoError(t, f.match.Join(bob))
	_, err := f.match.AttachConn(alice.ID, f.sink1)
	require.NoError(t, err)
	_, err = f.match.AttachConn(bob.ID, f.sink2)
	require.NoError(t, err)
}

// playing drives a seated match into the Playing phase (one countdown step
// with the shortened test config).
func (f *matchFixture) playing(t *testing.T) {
	t.Helper()
	f.seated(t)
	f.match.Tick()
	require.Equal(t, PhasePlaying, f.match.Phase())
}

func TestMatch_CreatorAttachWhileWaiting(t *testing.T) {
	f := newMatchFixture(t, matchConfig())

	playerNumber, err := f.match.AttachConn(alice.ID, f.sink1)
	require.NoError(t, err)
	assert.Equal(t, 1, playerNumber)
	assert.Equal(t, 1, f.sink1.countOf(EventMatchCreated))
	assert.Equal(t, 1, f.sink1.countOf(EventMatchWaiting))
	assert.Equal(t, 1, f.sink1.countOf(EventGameState))

	_, err = f.match.AttachConn(bob.ID, f.sink2)
	assert.ErrorIs(t, err, ErrNotInMatch)
}

func TestMatch_JoinSeatsAndNotifies(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	_, err := f.match.AttachConn(alice.ID, f.sink1)
	require.NoError(t, err)

	require.NoError(t, f.match.Join(bob))
	assert.Equal(t, PhaseCountdown, f.match.Phase())

	playerNumber, err := f.match.AttachConn(bob.ID, f.sink2)
	require.NoError(t, err)
	assert.Equal(t, 2, playerNumber)

	joined, ok := f.sink2.last(EventMatchJoined)
	require.True(t, ok)
	assert.Equal(t, MatchJoinedData{MatchID: "match-1", Opponent: "alice", PlayerNumber: 2}, joined.Data)
	assert.Equal(t, 1, f.sink1.countOf(EventOpponentJoined))

	// Join rejections.
	assert.ErrorIs(t, f.match.Join(Identity{ID: "p3", Username: "carol"}), ErrNotJoinable)
}

func TestMatch_JoinRejections(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	assert.ErrorIs(t, f.match.Join(alice), ErrOwnMatch)
	require.NoError(t, f.match.Join(bob))
	assert.ErrorIs(t, f.match.Join(Identity{ID: "p3"}), ErrNotJoinable)
}

func TestMatch_CountdownHoldsUntilBothConnected(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	_, err := f.match.AttachConn(alice.ID, f.sink1)
	require.NoError(t, err)
	require.NoError(t, f.match.Join(bob))

	// Bob has not attached yet: ticks must not advance the countdown.
	for i := 0; i < 5; i++ {
		f.match.Tick()
	}
	assert.Equal(t, PhaseCountdown, f.match.Phase())
	assert.Equal(t, 0, f.sink1.countOf(EventGameStart))

	_, err = f.match.AttachConn(bob.ID, f.sink2)
	require.NoError(t, err)
	f.match.Tick()
	assert.Equal(t, PhasePlaying, f.match.Phase())
	assert.Equal(t, 1, f.sink1.countOf(EventGameStart))
	assert.Equal(t, 1, f.sink2.countOf(EventGameStart))
}

func TestMatch_DisconnectPausesAndNotifies(t *testing.T) {
	cfg := matchConfig()
	f := newMatchFixture(t, cfg)
	f.playing(t)

	action := f.match.HandleDisconnect(bob.ID, f.sink2)
	assert.Equal(t, DisconnectPaused, action)
	assert.Equal(t, PhasePaused, f.match.Phase())

	frame, ok := f.sink1.last(EventOpponentDisconnected)
	require.True(t, ok)
	assert.Equal(t, OpponentDisconnectedData{ReconnectTimeout: 30}, frame.Data)

	// Paused ticks are no-ops.
	before := f.sink1.countOf(EventGameState)
	f.match.Tick()
	assert.Equal(t, before, f.sink1.countOf(EventGameState))
}

func TestMatch_StaleDisconnectIgnored(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.playing(t)

	staleSink := &fakeSink{}
	assert.Equal(t, DisconnectIgnored, f.match.HandleDisconnect(bob.ID, staleSink))
	assert.Equal(t, PhasePlaying, f.match.Phase())
}

func TestMatch_FirstBindViaReconnectAnnounces(t *testing.T) {
	f := newMatchFixture(t, matchConfig())

	// A creator whose socket binds through the reconnect path must still get
	// the lifecycle frames ahead of the first snapshot.
	require.NoError(t, f.match.HandleReconnect(alice.ID, f.sink1))
	assert.Equal(t, 1, f.sink1.countOf(EventMatchCreated))
	assert.Equal(t, 1, f.sink1.countOf(EventMatchWaiting))
	created, state := f.sink1.indexOf(EventMatchCreated), f.sink1.indexOf(EventGameState)
	require.NotEqual(t, -1, state)
	assert.Less(t, created, state, "match:created must precede the first game:state")

	// A joiner seated over REST who then simply connects announces too, and
	// the creator hears about it.
	require.NoError(t, f.match.Join(bob))
	require.NoError(t, f.match.HandleReconnect(bob.ID, f.sink2))
	joined, ok := f.sink2.last(EventMatchJoined)
	require.True(t, ok)
	assert.Equal(t, MatchJoinedData{MatchID: "match-1", Opponent: "alice", PlayerNumber: 2}, joined.Data)
	assert.Equal(t, 1, f.sink1.countOf(EventOpponentJoined))
	assert.Equal(t, 0, f.sink1.countOf(EventOpponentReconnected), "a first bind is not a reconnect")

	// A session replacement rebinds without re-announcing.
	require.NoError(t, f.match.HandleReconnect(bob.ID, &fakeSink{}))
	assert.Equal(t, 1, f.sink1.countOf(EventOpponentJoined))
}

func TestMatch_DisconnectWhilePausedArmsDeadline(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.playing(t)

	require.Equal(t, DisconnectPaused, f.match.HandleDisconnect(bob.ID, f.sink2))
	require.Equal(t, PhasePaused, f.match.Phase())

	// The second drop, while already Paused, must also demand a deadline or
	// the match would hang once only one player returns.
	assert.Equal(t, DisconnectPaused, f.match.HandleDisconnect(alice.ID, f.sink1))
	assert.Equal(t, PhasePaused, f.match.Phase())

	// Bob returns alone; alice's deadline then expires and forfeits to him.
	sink3 := &fakeSink{}
	require.NoError(t, f.match.HandleReconnect(bob.ID, sink3))
	require.Equal(t, PhasePaused, f.match.Phase(), "one player back does not resume")

	f.match.HandleReconnectTimeout(alice.ID)
	require.Equal(t, PhaseFinished, f.match.Phase())
	end, ok := sink3.last(EventGameEnd)
	require.True(t, ok)
	assert.Equal(t, bob.ID, end.Data.(GameEndData).WinnerID)
}

func TestMatch_ReconnectResumes(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.playing(t)
	f.match.HandleDisconnect(bob.ID, f.sink2)
	require.Equal(t, PhasePaused, f.match.Phase())

	sink3 := &fakeSink{}
	require.NoError(t, f.match.HandleReconnect(bob.ID, sink3))

	assert.Equal(t, PhaseCountdown, f.match.Phase(), "resume re-enters countdown")
	assert.Equal(t, 1, f.sink1.countOf(EventOpponentReconnected))
	assert.Equal(t, 1, sink3.countOf(EventGameState), "reconnecting player gets a fresh snapshot")
	assert.Equal(t, 1, f.sink1.countOf(EventGameResumed))
}

func TestMatch_ReconnectTimeoutForfeits(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.playing(t)
	f.match.HandleDisconnect(bob.ID, f.sink2)

	f.match.HandleReconnectTimeout(bob.ID)

	require.Equal(t, PhaseFinished, f.match.Phase())
	assert.Equal(t, 1, f.terminalCalls)

	end, ok := f.sink1.last(EventGameEnd)
	require.True(t, ok)
	assert.Equal(t, alice.ID, end.Data.(GameEndData).WinnerID)

	result := f.match.Result()
	require.NotNil(t, result)
	assert.Equal(t, alice.ID, result.WinnerID)

	// Idempotent afterwards.
	f.match.HandleReconnectTimeout(bob.ID)
	assert.Equal(t, 1, f.terminalCalls)
}

func TestMatch_ReconnectTimeoutAfterReturnIsNoop(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.playing(t)
	f.match.HandleDisconnect(bob.ID, f.sink2)
	require.NoError(t, f.match.HandleReconnect(bob.ID, &fakeSink{}))

	f.match.HandleReconnectTimeout(bob.ID)
	assert.False(t, f.match.Terminal())
	assert.Equal(t, 0, f.terminalCalls)
}

func TestMatch_LeaveWhileWaitingCancels(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	_, err := f.match.AttachConn(alice.ID, f.sink1)
	require.NoError(t, err)

	f.match.Leave(alice.ID)

	assert.Equal(t, PhaseCancelled, f.match.Phase())
	assert.Equal(t, 1, f.terminalCalls)
	assert.Nil(t, f.match.Result(), "cancelled matches produce no result")

	// Duplicate leave is a no-op.
	f.match.Leave(alice.ID)
	assert.Equal(t, 1, f.terminalCalls)
}

func TestMatch_LeaveMidGameForfeits(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.playing(t)

	f.match.Leave(bob.ID)

	require.Equal(t, PhaseFinished, f.match.Phase())
	assert.Equal(t, 1, f.sink1.countOf(EventOpponentLeft))

	end, ok := f.sink1.last(EventGameEnd)
	require.True(t, ok)
	assert.Equal(t, alice.ID, end.Data.(GameEndData).WinnerID)
}

func TestMatch_Descriptor(t *testing.T) {
	f := newMatchFixture(t, matchConfig())
	f.seated(t)

	d := f.match.Descriptor()
	assert.Equal(t, "match-1", d.ID)
	assert.Equal(t, ModeOneVsOne, d.Mode)
	assert.Equal(t, PhaseCountdown, d.Status)
	require.NotNil(t, d.Player1)
	require.NotNil(t, d.Player2)
	assert.Equal(t, "alice", d.Player1.Username)
	assert.True(t, d.Player1.Connected)
	assert.Nil(t, d.WinnerID)
	assert.Nil(t, d.StartedAt)

	f.match.Tick() // into Playing
	d = f.match.Descriptor()
	assert.NotNil(t, d.StartedAt)
}
