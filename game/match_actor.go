package game

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/lguibr/bollywood"
	"github.com/lguibr/pongduel/utils"
)

// MatchActor owns the time-driven side of one match: the 60 Hz ticker and
// the reconnect-deadline timers. All state mutation happens inside the Match
// itself; this actor only decides when to poke it.
type MatchActor struct {
	engine       *bollywood.Engine
	cfg          utils.Config
	match        *Match
	ticker       *time.Ticker
	stopTickerCh chan struct{}
	selfPID      *bollywood.PID

	// reconnect deadlines by player id, touched only from Receive
	deadlines map[string]*time.Timer
}

// NewMatchActorProducer creates a producer for a MatchActor bound to one
// match.
func NewMatchActorProducer(engine *bollywood.Engine, cfg utils.Config, match *Match) bollywood.Producer {
	return func() bollywood.Actor {
		return &MatchActor{
			engine:       engine,
			cfg:          cfg,
			match:        match,
			stopTickerCh: make(chan struct{}),
			deadlines:    make(map[string]*time.Timer),
		}
	}
}

// Receive is the main message handler for the MatchActor.
func (a *MatchActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			pidStr := "unknown"
			if a.selfPID != nil {
				pidStr = a.selfPID.String()
			}
			fmt.Printf("PANIC recovered in MatchActor %s Receive: %v\nStack trace:\n%s\n", pidStr, r, string(debug.Stack()))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		fmt.Printf("MatchActor %s: Started for match %s.\n", a.selfPID, a.match.ID())
		a.ticker = time.NewTicker(a.cfg.TickPeriod())
		go a.runTickerLoop()

	case matchTick:
		a.match.Tick()

	case armReconnectDeadlineMsg:
		a.armDeadline(msg.PlayerID)

	case cancelReconnectDeadlineMsg:
		a.cancelDeadline(msg.PlayerID)

	case reconnectDeadlineMsg:
		delete(a.deadlines, msg.PlayerID)
		a.match.HandleReconnectTimeout(msg.PlayerID)

	case bollywood.Stopping:
		fmt.Printf("MatchActor %s: Stopping for match %s.\n", a.selfPID, a.match.ID())
		if a.ticker != nil {
			a.ticker.Stop()
			select {
			case <-a.stopTickerCh:
			default:
				close(a.stopTickerCh)
			}
		}
		for id, timer := range a.deadlines {
			timer.Stop()
			delete(a.deadlines, id)
		}

	case bollywood.Stopped:
		fmt.Printf("MatchActor %s: Stopped.\n", a.selfPID)

	default:
		fmt.Printf("MatchActor %s: Received unknown message type: %T\n", a.selfPID, msg)
	}
}

func (a *MatchActor) armDeadline(playerID string) {
	a.cancelDeadline(playerID)
	fmt.Printf("MatchActor %s: Arming %s reconnect deadline for player %s.\n", a.selfPID, a.cfg.ReconnectGrace, playerID)
	pid := a.selfPID
	a.deadlines[playerID] = time.AfterFunc(a.cfg.ReconnectGrace, func() {
		a.engine.Send(pid, reconnectDeadlineMsg{PlayerID: playerID}, nil)
	})
}

func (a *MatchActor) cancelDeadline(playerID string) {
	if timer, ok := a.deadlines[playerID]; ok {
		timer.Stop()
		delete(a.deadlines, playerID)
	}
}

// runTickerLoop sends matchTick messages to the actor's own mailbox at the
// configured rate.
func (a *MatchActor) runTickerLoop() {
	defer func() {
		if r := recover(); r != nil {
			pidStr := "unknown"
			if a.selfPID != nil {
				pidStr = a.selfPID.String()
			}
			fmt.Printf("PANIC recovered in MatchActor %s Ticker Loop: %v\nStack trace:\n%s\n", pidStr, r, string(debug.Stack()))
			select {
			case <-a.stopTickerCh:
			default:
				close(a.stopTickerCh)
			}
		}
	}()

	actorPID := a.selfPID
	if actorPID == nil {
		fmt.Println("ERROR: MatchActor ticker loop cannot start, self PID not set.")
		return
	}
	fmt.Printf("MatchActor %s: Ticker loop started.\n", actorPID)
	defer fmt.Printf("MatchActor %s: Ticker loop stopped.\n", actorPID)

	tick := matchTick{}
	for {
		select {
		case <-a.stopTickerCh:
			return
		case _, ok := <-a.ticker.C:
			if !ok {
				return
			}
			select {
			case <-a.stopTickerCh:
				return
			default:
				a.engine.Send(actorPID, tick, nil)
			}
		}
	}
}
