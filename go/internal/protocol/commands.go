package protocol

// Command is an outbound client request; the value itself is the payload
type Command interface {
	Type() EventType
}

// CreateGame asks the server for a new room with this client as host
type CreateGame struct {
	PlayerName    string `json:"player_name"`
	Mode          string `json:"mode"`
	ImageType     string `json:"image_type"`
	NumRounds     int    `json:"num_rounds"`
	TimerDuration int    `json:"timer_duration"`
}

// JoinGame asks to enter a room that is still in its lobby
type JoinGame struct {
	PlayerName string `json:"player_name"`
	RoomCode   string `json:"room_code"`
}

// StartGame is sent by the host to begin round 1
type StartGame struct {
	RoomCode string `json:"room_code"`
}

// SubmitMeme sends the composed caption for the current round
type SubmitMeme struct {
	RoomCode string `json:"room_code"`
	Caption  string `json:"caption"`
	Text1    string `json:"text1"`
	Text2    string `json:"text2"`
}

// RequestNewMeme asks for a different template (a reroll)
type RequestNewMeme struct {
	RoomCode string `json:"room_code"`
}

// SubmitVote rates the meme currently under vote
type SubmitVote struct {
	RoomCode  string `json:"room_code"`
	VoteValue int    `json:"vote_value"`
	SuperVote bool   `json:"super_vote"`
}

// NextRound is sent by the host from the results screen
type NextRound struct {
	RoomCode string `json:"room_code"`
}

// ForceNext lets the host skip players that stopped responding
type ForceNext struct {
	RoomCode string `json:"room_code"`
}

// RejoinGame re-enters an in-progress game. An empty OldPlayerID asks the
// server to match by name.
type RejoinGame struct {
	RoomCode    string `json:"room_code"`
	PlayerName  string `json:"player_name"`
	OldPlayerID string `json:"old_player_id"`
}

func (CreateGame) Type() EventType     { return CommandCreateGame }
func (JoinGame) Type() EventType       { return CommandJoinGame }
func (StartGame) Type() EventType      { return CommandStartGame }
func (SubmitMeme) Type() EventType     { return CommandSubmitMeme }
func (RequestNewMeme) Type() EventType { return CommandRequestNewMeme }
func (SubmitVote) Type() EventType     { return CommandSubmitVote }
func (NextRound) Type() EventType      { return CommandNextRound }
func (ForceNext) Type() EventType      { return CommandForceNext }
func (RejoinGame) Type() EventType     { return CommandRejoinGame }
