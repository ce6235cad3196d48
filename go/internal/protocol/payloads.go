package protocol

// Wire payloads shared by the decoder and the commands

// Player is one entry of the room roster, in join order
type Player struct {
	ID           string `json:"player_id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	IsHost       bool   `json:"is_host"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

// Template describes the image a caption is written against
type Template struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// GameConfig is fixed for the lifetime of a room once created
type GameConfig struct {
	Mode          string `json:"mode"`
	ImageType     string `json:"image_type"`
	NumRounds     int    `json:"num_rounds"`
	TimerDuration int    `json:"timer_duration"`
}

// Meme is the item currently up for a vote
type Meme struct {
	CreatorID   string   `json:"creator_id"`
	CreatorName string   `json:"creator_name"`
	Text1       string   `json:"text1"`
	Text2       string   `json:"text2"`
	Caption     string   `json:"caption"`
	Template    Template `json:"template"`
	Index       int      `json:"index"`
	Total       int      `json:"total"`
}

// RoundResult is one player's outcome for a finished round
type RoundResult struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name"`
	Text1      string   `json:"text1"`
	Text2      string   `json:"text2"`
	Caption    string   `json:"caption"`
	Template   Template `json:"template"`
	RoundScore int      `json:"round_score"`
	TotalScore int      `json:"total_score"`
}

// Standing is a leaderboard row
type Standing struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// sessionPayload is the body of game_created and game_joined
type sessionPayload struct {
	RoomCode string   `json:"room_code"`
	PlayerID string   `json:"player_id"`
	IsHost   bool     `json:"is_host"`
	Players  []Player `json:"players"`
	GameConfig
}

// rosterPayload is the body of player_joined/left/disconnected/reconnected
type rosterPayload struct {
	PlayerID   string   `json:"player_id"`
	PlayerName string   `json:"player_name"`
	Players    []Player `json:"players"`
}

type newHostPayload struct {
	HostID string `json:"host_id"`
}

type roundStartPayload struct {
	Round         int      `json:"round"`
	TotalRounds   int      `json:"total_rounds"`
	Template      Template `json:"template"`
	Theme         *string  `json:"theme"`
	Mode          string   `json:"mode"`
	TimerDuration int      `json:"timer_duration"`
}

type newMemePayload struct {
	Template    Template `json:"template"`
	ChangesLeft int      `json:"changes_left"`
}

type playerReadyPayload struct {
	PlayerID     string `json:"player_id"`
	ReadyCount   int    `json:"ready_count"`
	TotalPlayers int    `json:"total_players"`
}

type votingPayload struct {
	CurrentMeme *Meme `json:"current_meme"`
}

type playerVotedPayload struct {
	PlayerID     string `json:"player_id"`
	VoteCount    int    `json:"vote_count"`
	TotalPlayers int    `json:"total_players"`
}

type roundResultsPayload struct {
	Results     []RoundResult `json:"results"`
	IsFinal     bool          `json:"is_final"`
	Winner      *Standing     `json:"winner"`
	Leaderboard []Standing    `json:"leaderboard"`
}

type backToLobbyPayload struct {
	Players []Player `json:"players"`
}

// Snapshot is the full session state returned by a successful rejoin
type Snapshot struct {
	RoomCode      string   `json:"room_code"`
	PlayerID      string   `json:"player_id"`
	PlayerName    string   `json:"player_name"`
	IsHost        bool     `json:"is_host"`
	Players       []Player `json:"players"`
	CurrentRound  int      `json:"current_round"`
	Phase         string   `json:"phase"`
	SuperVoteUsed bool     `json:"super_vote_used"`
	GameConfig

	// creating
	Template         *Template `json:"template,omitempty"`
	Theme            *string   `json:"theme,omitempty"`
	ChangesLeft      *int      `json:"changes_left,omitempty"`
	HasSubmitted     bool      `json:"has_submitted"`
	TimeRemainingSec int       `json:"time_remaining,omitempty"`

	// voting
	CurrentMeme *Meme `json:"current_meme,omitempty"`
	HasVoted    bool  `json:"has_voted"`

	// results / final
	Results     []RoundResult `json:"results,omitempty"`
	Leaderboard []Standing    `json:"leaderboard,omitempty"`
	Winner      *Standing     `json:"winner,omitempty"`
}

// Snapshot phase tags
const (
	SnapshotPhaseLobby    = "lobby"
	SnapshotPhaseCreating = "creating"
	SnapshotPhaseVoting   = "voting"
	SnapshotPhaseResults  = "results"
	SnapshotPhaseFinal    = "final"
)

type rejoinFailedPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
