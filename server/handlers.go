package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lguibr/bollywood"
	"github.com/lguibr/pongduel/game"
)

type createMatchRequest struct {
	Mode string `json:"mode"`
}

// handleCreateMatch creates a Waiting match owned by the caller.
func (s *Server) handleCreateMatch(c *gin.Context) {
	identity := identityFrom(c)

	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Mode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}

	reply, err := s.engine.Ask(s.managerPID, game.CreateMatchMsg{Player: identity, Mode: req.Mode}, s.cfg.AskTimeout)
	if err != nil {
		s.replyError(c, err)
		return
	}
	d := reply.(game.MatchRef).Match.Descriptor()
	c.JSON(http.StatusCreated, gin.H{
		"matchId":      d.ID,
		"mode":         d.Mode,
		"creatorAlias": identity.Username,
		"websocketUrl": s.wsURL,
	})
}

// handleJoinMatch seats the caller as the second player of a match.
func (s *Server) handleJoinMatch(c *gin.Context) {
	identity := identityFrom(c)
	matchID := c.Param("id")

	reply, err := s.engine.Ask(s.managerPID, game.JoinMatchMsg{Player: identity, MatchID: matchID}, s.cfg.AskTimeout)
	if err != nil {
		s.replyError(c, err)
		return
	}
	d := reply.(game.MatchRef).Match.Descriptor()
	c.JSON(http.StatusOK, gin.H{
		"matchId":      d.ID,
		"mode":         d.Mode,
		"creatorAlias": d.Player1.Username,
		"joinerAlias":  identity.Username,
		"websocketUrl": s.wsURL,
	})
}

// handleQuickmatch joins the oldest available match, or creates one.
func (s *Server) handleQuickmatch(c *gin.Context) {
	identity := identityFrom(c)

	reply, err := s.engine.Ask(s.managerPID, game.QuickmatchMsg{Player: identity, Mode: game.ModeOneVsOne}, s.cfg.AskTimeout)
	if err != nil {
		s.replyError(c, err)
		return
	}
	ref := reply.(game.MatchRef)
	d := ref.Match.Descriptor()

	opponentAlias := ""
	if ref.PlayerNumber == 2 && d.Player1 != nil {
		opponentAlias = d.Player1.Username
	}
	c.JSON(http.StatusOK, gin.H{
		"matchId":       d.ID,
		"mode":          d.Mode,
		"playerAlias":   identity.Username,
		"opponentAlias": opponentAlias,
		"websocketUrl":  s.wsURL,
	})
}

// handleListMatches returns the available-match snapshot.
func (s *Server) handleListMatches(c *gin.Context) {
	mode := c.Query("mode")

	reply, err := s.engine.Ask(s.managerPID, game.ListMatchesMsg{Mode: mode}, s.cfg.AskTimeout)
	if err != nil {
		s.replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": reply.(game.MatchListResult).Matches})
}

// handleLeaveMatch removes the caller from their match. Leaving without a
// match is a successful no-op.
func (s *Server) handleLeaveMatch(c *gin.Context) {
	identity := identityFrom(c)

	_, err := s.engine.Ask(s.managerPID, game.LeaveMsg{PlayerID: identity.ID}, s.cfg.AskTimeout)
	if err != nil && !errors.Is(err, game.ErrNotInMatch) {
		s.replyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// replyError maps manager errors onto HTTP statuses.
func (s *Server) replyError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrInvalidMode):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrAlreadyInMatch),
		errors.Is(err, game.ErrMatchFull),
		errors.Is(err, game.ErrOwnMatch):
		status = http.StatusConflict
	case errors.Is(err, game.ErrMatchNotFound),
		errors.Is(err, game.ErrNotInMatch):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrNotJoinable):
		status = http.StatusGone
	case errors.Is(err, bollywood.ErrTimeout):
		status = http.StatusServiceUnavailable
	default:
		fmt.Printf("ERROR: Server: unmapped manager error: %v\n", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
