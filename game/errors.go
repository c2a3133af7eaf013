package game

import "errors"

// Sentinel errors for manager operations. The HTTP adapter maps these onto
// status codes; the websocket endpoint maps them onto error frames.
var (
	// ErrInvalidMode rejects requests naming an unsupported match mode.
	ErrInvalidMode = errors.New("unknown or missing match mode")
	// ErrAlreadyInMatch enforces the one-active-match-per-player rule.
	ErrAlreadyInMatch = errors.New("player already in an active match")
	// ErrMatchNotFound reports an unknown match id.
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchFull rejects joining a match with both slots taken.
	ErrMatchFull = errors.New("match already has two players")
	// ErrOwnMatch rejects a creator joining their own match.
	ErrOwnMatch = errors.New("cannot join own match")
	// ErrNotJoinable rejects joining a match outside the Waiting phase.
	ErrNotJoinable = errors.New("match is not joinable")
	// ErrNotInMatch reports an operation for a player with no bound match.
	ErrNotInMatch = errors.New("player is not in a match")
)
