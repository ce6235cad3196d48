package session

import "errors"

// Validation errors. Rejected locally, nothing is sent.
var (
	ErrEmptyName       = errors.New("player name is required")
	ErrInvalidRoomCode = errors.New("room code must be 4 letters")
	ErrEmptySubmission = errors.New("write at least one text")
	ErrInvalidVote     = errors.New("vote must be -1, 0 or 1")
)

// Resource exhaustion. Local guards, never fatal.
var (
	ErrNoRerollsLeft = errors.New("no meme changes left this round")
	ErrSuperVoteUsed = errors.New("super vote already used this game")
)

// State guards
var (
	ErrWrongPhase        = errors.New("action not available in this phase")
	ErrNotHost           = errors.New("only the host can do that")
	ErrNotEnoughPlayers  = errors.New("at least 2 players are needed to start")
	ErrAlreadySubmitted  = errors.New("meme already submitted")
	ErrAlreadyVoted      = errors.New("already voted on this meme")
	ErrOwnItem           = errors.New("cannot vote on your own meme")
	ErrNoSession         = errors.New("not in a room")
	ErrNoCachedIdentity  = errors.New("no saved session to rejoin")
	ErrInvalidGameOption = errors.New("invalid game option")
)
