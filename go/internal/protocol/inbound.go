package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound is the closed set of server events the session consumes.
// Only types in this package implement it.
type Inbound interface {
	inbound()
}

// SessionOpened is game_created or game_joined
type SessionOpened struct {
	Created  bool
	RoomCode string
	PlayerID string
	IsHost   bool
	Config   GameConfig
	Players  []Player
}

// RosterReason tells why the roster was pushed
type RosterReason string

const (
	RosterJoined       RosterReason = "joined"
	RosterLeft         RosterReason = "left"
	RosterDisconnected RosterReason = "disconnected"
	RosterReconnected  RosterReason = "reconnected"
)

// RosterChanged replaces the whole player list
type RosterChanged struct {
	Reason     RosterReason
	PlayerID   string
	PlayerName string
	Players    []Player
}

// HostChanged announces the new host
type HostChanged struct {
	HostID string
}

// RoundStarted opens the composing phase of a round
type RoundStarted struct {
	Round         int
	TotalRounds   int
	Template      Template
	Theme         string
	Mode          string
	TimerDuration int
}

// ItemChanged confirms a reroll with the authoritative remaining count
type ItemChanged struct {
	Template    Template
	ChangesLeft int
}

// SubmissionCountChanged is advisory progress during composing
type SubmissionCountChanged struct {
	PlayerID string
	Count    int
	Total    int
}

// VotingItem opens voting (First) or advances the cursor to the next meme
type VotingItem struct {
	First bool
	Meme  Meme
}

// VoteCountChanged is advisory progress during voting
type VoteCountChanged struct {
	PlayerID string
	Count    int
	Total    int
}

// RoundConcluded carries round or final results
type RoundConcluded struct {
	Results     []RoundResult
	Leaderboard []Standing
	IsFinal     bool
	Winner      *Standing
}

// ReturnedToLobby ends a finished game
type ReturnedToLobby struct {
	Players []Player
}

// RejoinSucceeded restores an in-flight game
type RejoinSucceeded struct {
	Snapshot Snapshot
}

// RejoinReason classifies a rejoin failure
type RejoinReason string

const (
	RejoinRoomNotFound   RejoinReason = "room_not_found"
	RejoinPlayerNotFound RejoinReason = "player_not_found"
	RejoinUseNormalJoin  RejoinReason = "use_normal_join"
)

// RejoinFailed reports why a rejoin was refused
type RejoinFailed struct {
	Reason  RejoinReason
	Message string
}

// ErrorCodeAlreadyStarted is sent with join/create errors when the room is mid-game
const ErrorCodeAlreadyStarted = "game_already_started"

// ServerError is a generic error pushed by the server
type ServerError struct {
	Code    string
	Message string
}

// AlreadyStarted reports whether the error means the room has already started a game.
// Servers that predate error codes only send the message text.
func (e ServerError) AlreadyStarted() bool {
	if e.Code == ErrorCodeAlreadyStarted {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "already started") || strings.Contains(msg, "già iniziata")
}

func (SessionOpened) inbound()          {}
func (RosterChanged) inbound()          {}
func (HostChanged) inbound()            {}
func (RoundStarted) inbound()           {}
func (ItemChanged) inbound()            {}
func (SubmissionCountChanged) inbound() {}
func (VotingItem) inbound()             {}
func (VoteCountChanged) inbound()       {}
func (RoundConcluded) inbound()         {}
func (ReturnedToLobby) inbound()        {}
func (RejoinSucceeded) inbound()        {}
func (RejoinFailed) inbound()           {}
func (ServerError) inbound()            {}

// Decode parses a server frame into its inbound event
func Decode(env *Envelope) (Inbound, error) {
	switch env.Type {
	case EventGameCreated, EventGameJoined:
		var p sessionPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return SessionOpened{
			Created:  env.Type == EventGameCreated,
			RoomCode: p.RoomCode,
			PlayerID: p.PlayerID,
			IsHost:   p.IsHost,
			Config:   p.GameConfig,
			Players:  p.Players,
		}, nil

	case EventPlayerJoined, EventPlayerLeft, EventPlayerDisconnected, EventPlayerReconnected:
		var p rosterPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return RosterChanged{
			Reason:     rosterReasons[env.Type],
			PlayerID:   p.PlayerID,
			PlayerName: p.PlayerName,
			Players:    p.Players,
		}, nil

	case EventNewHost:
		var p newHostPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return HostChanged{HostID: p.HostID}, nil

	case EventRoundStart:
		var p roundStartPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		ev := RoundStarted{
			Round:         p.Round,
			TotalRounds:   p.TotalRounds,
			Template:      p.Template,
			Mode:          p.Mode,
			TimerDuration: p.TimerDuration,
		}
		if p.Theme != nil {
			ev.Theme = *p.Theme
		}
		return ev, nil

	case EventNewMeme:
		var p newMemePayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return ItemChanged{Template: p.Template, ChangesLeft: p.ChangesLeft}, nil

	case EventPlayerReady:
		var p playerReadyPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return SubmissionCountChanged{PlayerID: p.PlayerID, Count: p.ReadyCount, Total: p.TotalPlayers}, nil

	case EventVotingStart, EventNextMemeToVote:
		var p votingPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		if p.CurrentMeme == nil {
			return nil, fmt.Errorf("%s: missing current_meme", env.Type)
		}
		return VotingItem{First: env.Type == EventVotingStart, Meme: *p.CurrentMeme}, nil

	case EventPlayerVoted:
		var p playerVotedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return VoteCountChanged{PlayerID: p.PlayerID, Count: p.VoteCount, Total: p.TotalPlayers}, nil

	case EventRoundResults:
		var p roundResultsPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return RoundConcluded{
			Results:     p.Results,
			Leaderboard: p.Leaderboard,
			IsFinal:     p.IsFinal,
			Winner:      p.Winner,
		}, nil

	case EventBackToLobby:
		var p backToLobbyPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return ReturnedToLobby{Players: p.Players}, nil

	case EventRejoinSuccess:
		var p Snapshot
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return RejoinSucceeded{Snapshot: p}, nil

	case EventRejoinFailed:
		var p rejoinFailedPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return RejoinFailed{Reason: RejoinReason(p.Reason), Message: p.Message}, nil

	case EventError:
		var p errorPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return ServerError{Code: p.Code, Message: p.Message}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, env.Type)
	}
}

var rosterReasons = map[EventType]RosterReason{
	EventPlayerJoined:       RosterJoined,
	EventPlayerLeft:         RosterLeft,
	EventPlayerDisconnected: RosterDisconnected,
	EventPlayerReconnected:  RosterReconnected,
}

func unmarshal(env *Envelope, v interface{}) error {
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", env.Type, err)
	}
	return nil
}
