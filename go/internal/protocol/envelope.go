package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownEvent is returned by Decode for event types the client does not handle
var ErrUnknownEvent = errors.New("unknown event type")

// Envelope is the frame exchanged with the game server in both directions
type Envelope struct {
	ID        string          `json:"id"`        // Frame UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Frame creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType names a server push or a client command
type EventType string

// Server → client events
const (
	EventGameCreated        EventType = "game_created"
	EventGameJoined         EventType = "game_joined"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventNewHost            EventType = "new_host"
	EventRoundStart         EventType = "round_start"
	EventNewMeme            EventType = "new_meme"
	EventPlayerReady        EventType = "player_ready"
	EventVotingStart        EventType = "voting_start"
	EventNextMemeToVote     EventType = "next_meme_to_vote"
	EventPlayerVoted        EventType = "player_voted"
	EventRoundResults       EventType = "round_results"
	EventBackToLobby        EventType = "back_to_lobby"
	EventRejoinSuccess      EventType = "rejoin_success"
	EventRejoinFailed       EventType = "rejoin_failed"
	EventError              EventType = "error"
)

// Client → server commands
const (
	CommandCreateGame     EventType = "create_game"
	CommandJoinGame       EventType = "join_game"
	CommandStartGame      EventType = "start_game"
	CommandSubmitMeme     EventType = "submit_meme"
	CommandRequestNewMeme EventType = "request_new_meme"
	CommandSubmitVote     EventType = "submit_vote"
	CommandNextRound      EventType = "next_round"
	CommandForceNext      EventType = "force_next"
	CommandRejoinGame     EventType = "rejoin_game"
)

// NewEnvelope wraps an outbound command into a frame ready to be written
func NewEnvelope(cmd Command) (*Envelope, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd.Type(), err)
	}

	return &Envelope{
		ID:        uuid.NewString(),
		Type:      cmd.Type(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}
