package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lguibr/pongduel/game"
	"golang.org/x/net/websocket"
)

// closeCodeSuperseded is sent when a newer connection replaces this one.
const closeCodeSuperseded = 4001

// session is one live websocket bound to one authenticated player.
type session struct {
	identity game.Identity
	ws       *websocket.Conn
	outbox   *game.Outbox
	addr     string

	mu         sync.Mutex
	match      *game.Match
	superseded bool
}

func (sess *session) currentMatch() *game.Match {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.match
}

func (sess *session) setMatch(m *game.Match) {
	sess.mu.Lock()
	sess.match = m
	sess.mu.Unlock()
}

func (sess *session) isSuperseded() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.superseded
}

// supersede retires this session in favor of a newer one for the same
// player. The read loop sees the closed socket and exits without sending a
// disconnect.
func (sess *session) supersede() {
	sess.mu.Lock()
	sess.superseded = true
	sess.mu.Unlock()

	sess.outbox.Close()
	_ = sess.ws.WriteClose(closeCodeSuperseded)
	_ = sess.ws.Close()
}

// inboundFrame defers data decoding until the event is known.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleWebSocket upgrades the authenticated request and runs the session.
func (s *Server) handleWebSocket(c *gin.Context) {
	identity := identityFrom(c)
	wsServer := websocket.Server{
		Handshake: func(cfg *websocket.Config, r *http.Request) error { return nil },
		Handler: func(ws *websocket.Conn) {
			s.runSession(identity, ws)
		},
	}
	wsServer.ServeHTTP(c.Writer, c.Request)
}

// runSession owns the connection from upgrade to close: registers it,
// rebinds any live match, then reads frames until the socket dies.
func (s *Server) runSession(identity game.Identity, ws *websocket.Conn) {
	addr := ws.Request().RemoteAddr
	fmt.Printf("Session %s: connected as %s (%s)\n", addr, identity.Username, identity.ID)

	sess := &session{
		identity: identity,
		ws:       ws,
		outbox:   game.NewOutbox(ws, s.cfg.OutboxSize),
		addr:     addr,
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC recovered in session %s: %v\nStack trace:\n%s\n", addr, r, string(debug.Stack()))
		}
		s.unregisterSession(sess)
		if !sess.isSuperseded() {
			s.engine.Send(s.managerPID, game.DisconnectMsg{PlayerID: identity.ID, Sink: sess.outbox}, nil)
		}
		sess.outbox.Close()
		_ = ws.Close()
		fmt.Printf("Session %s: closed\n", addr)
	}()

	s.registerSession(sess)

	// If the player already has a live match (fresh page load mid-game or a
	// replaced session), rebind its frames to this socket right away.
	reply, err := s.engine.Ask(s.managerPID, game.ReconnectMsg{PlayerID: identity.ID, Sink: sess.outbox}, s.cfg.AskTimeout)
	if err == nil {
		sess.setMatch(reply.(game.MatchRef).Match)
	} else if !errors.Is(err, game.ErrNotInMatch) && !errors.Is(err, game.ErrNotJoinable) {
		fmt.Printf("Session %s: rebind failed: %v\n", addr, err)
	}

	s.readLoop(sess)
}

func (s *Server) readLoop(sess *session) {
	for {
		_ = sess.ws.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))

		var frame inboundFrame
		err := websocket.JSON.Receive(sess.ws, &frame)
		if err != nil {
			if isConnectionOver(err) {
				return
			}
			// Malformed frame on a live socket; tell the client and keep
			// reading.
			sess.outbox.Push(game.Frame{Event: game.EventError, Data: game.ErrorData{
				Code:    "bad_frame",
				Message: "could not parse frame",
			}})
			continue
		}
		s.dispatch(sess, frame)
	}
}

func isConnectionOver(err error) bool {
	if err == io.EOF {
		return true
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "closed")
}

// dispatch routes one client frame. Input and ready hit the match directly;
// everything that changes registry state goes through the manager.
func (s *Server) dispatch(sess *session, frame inboundFrame) {
	playerID := sess.identity.ID

	switch frame.Event {
	case game.EventPing:
		sess.outbox.Push(game.Frame{Event: game.EventPong})

	case game.EventPlayerInput:
		var data game.PlayerInputData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			s.pushError(sess, "bad_frame", "invalid input payload")
			return
		}
		dir, ok := game.ParseDirection(data.Direction)
		if !ok {
			s.pushError(sess, "bad_frame", "unknown direction")
			return
		}
		if match := sess.currentMatch(); match != nil {
			match.Input(playerID, dir)
		}

	case game.EventPlayerReady:
		if match := sess.currentMatch(); match != nil {
			match.Ready(playerID)
		}

	case game.EventMatchJoin:
		var data game.MatchJoinData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.MatchID == "" {
			s.pushError(sess, "bad_frame", "matchId is required")
			return
		}
		reply, err := s.engine.Ask(s.managerPID, game.AttachConnMsg{
			PlayerID: playerID,
			MatchID:  data.MatchID,
			Sink:     sess.outbox,
		}, s.cfg.AskTimeout)
		if err != nil {
			s.pushError(sess, errorCode(err), err.Error())
			return
		}
		sess.setMatch(reply.(game.MatchRef).Match)

	case game.EventMatchLeave:
		_, err := s.engine.Ask(s.managerPID, game.LeaveMsg{PlayerID: playerID}, s.cfg.AskTimeout)
		if err != nil && !errors.Is(err, game.ErrNotInMatch) {
			s.pushError(sess, errorCode(err), err.Error())
			return
		}
		sess.setMatch(nil)

	case game.EventMatchReconnect:
		reply, err := s.engine.Ask(s.managerPID, game.ReconnectMsg{PlayerID: playerID, Sink: sess.outbox}, s.cfg.AskTimeout)
		if err != nil {
			s.pushError(sess, errorCode(err), err.Error())
			return
		}
		sess.setMatch(reply.(game.MatchRef).Match)

	default:
		s.pushError(sess, "unknown_event", fmt.Sprintf("unknown event %q", frame.Event))
	}
}

func (s *Server) pushError(sess *session, code, message string) {
	sess.outbox.Push(game.Frame{Event: game.EventError, Data: game.ErrorData{
		Code:    code,
		Message: message,
	}})
}

// errorCode translates manager errors into wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrMatchNotFound):
		return "match_not_found"
	case errors.Is(err, game.ErrNotInMatch):
		return "not_in_match"
	case errors.Is(err, game.ErrMatchFull):
		return "match_full"
	case errors.Is(err, game.ErrOwnMatch):
		return "own_match"
	case errors.Is(err, game.ErrNotJoinable):
		return "match_not_joinable"
	case errors.Is(err, game.ErrAlreadyInMatch):
		return "already_in_match"
	default:
		return "internal"
	}
}
