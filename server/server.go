package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lguibr/bollywood"
	"github.com/lguibr/pongduel/game"
	"github.com/lguibr/pongduel/utils"
)

const identityKey = "identity"

// Server is the HTTP and WebSocket surface in front of the match manager.
type Server struct {
	cfg      utils.Config
	engine   *bollywood.Engine
	verifier IdentityVerifier
	wsURL    string

	managerPID *bollywood.PID

	mu       sync.Mutex
	sessions map[string]*session // by player id, newest session wins
}

// NewServer builds the endpoint. SetManagerPID must be called before serving;
// the manager producer needs the server's lobby notifier first.
func NewServer(cfg utils.Config, engine *bollywood.Engine, verifier IdentityVerifier, wsURL string) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		verifier: verifier,
		wsURL:    wsURL,
		sessions: make(map[string]*session),
	}
}

// SetManagerPID wires the match manager after it has been spawned.
func (s *Server) SetManagerPID(pid *bollywood.PID) {
	s.managerPID = pid
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api", s.authMiddleware())
	{
		api.POST("/matches", s.handleCreateMatch)
		api.POST("/matches/quickmatch", s.handleQuickmatch)
		api.POST("/matches/:id/join", s.handleJoinMatch)
		api.POST("/matches/leave", s.handleLeaveMatch)
		api.GET("/matches", s.handleListMatches)
	}

	router.GET("/ws", s.authMiddleware(), s.handleWebSocket)
	return router
}

// authMiddleware resolves the caller's identity before any match operation
// or upgrade.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.verifier.Verify(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) game.Identity {
	return c.MustGet(identityKey).(game.Identity)
}

// BroadcastLobby pushes the available-match snapshot to every session that
// is not inside a match. Wired as the manager's lobby notifier; must not
// block.
func (s *Server) BroadcastLobby(matches []game.MatchDescriptor) {
	frame := game.Frame{
		Event: game.EventMatchesUpdated,
		Data:  game.MatchesUpdatedData{Matches: matches},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.currentMatch() == nil {
			sess.outbox.Push(frame)
		}
	}
}

// registerSession installs the session for its player, telling any older
// session for the same player to stand down.
func (s *Server) registerSession(sess *session) {
	s.mu.Lock()
	old := s.sessions[sess.identity.ID]
	s.sessions[sess.identity.ID] = sess
	s.mu.Unlock()

	if old != nil {
		fmt.Printf("Session %s: superseded by a newer connection for player %s\n", old.addr, sess.identity.ID)
		old.supersede()
	}
}

// unregisterSession removes the session unless a newer one replaced it.
func (s *Server) unregisterSession(sess *session) {
	s.mu.Lock()
	if s.sessions[sess.identity.ID] == sess {
		delete(s.sessions, sess.identity.ID)
	}
	s.mu.Unlock()
}
