package session

import "github.com/mcdev12/makeitmeme/go/internal/protocol"

// Renderer draws views. It is an output sink: nothing it does feeds back
// into the session.
type Renderer interface {
	Render(v View)
}

// View is one render instruction
type View interface {
	ViewName() string
}

// View names
const (
	ViewEntry        = "entry"
	ViewRejoinPrompt = "rejoin_prompt"
	ViewLobby        = "lobby"
	ViewComposing    = "composing"
	ViewTimer        = "timer"
	ViewProgress     = "progress"
	ViewVoting       = "voting"
	ViewWaiting      = "waiting"
	ViewResults      = "results"
	ViewNotice       = "notice"
)

// EntryView is the create/join screen, optionally prefilled
type EntryView struct {
	PlayerName string `json:"player_name,omitempty"`
	RoomCode   string `json:"room_code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// RejoinPromptView offers to resume a cached session. Non-blocking.
type RejoinPromptView struct {
	RoomCode   string `json:"room_code"`
	PlayerName string `json:"player_name"`
}

type LobbyView struct {
	RoomCode   string              `json:"room_code"`
	Config     protocol.GameConfig `json:"config"`
	Players    []protocol.Player   `json:"players"`
	MaxPlayers int                 `json:"max_players"`
	IsHost     bool                `json:"is_host"`
	CanStart   bool                `json:"can_start"`
}

type ComposingView struct {
	Round         int               `json:"round"`
	TotalRounds   int               `json:"total_rounds"`
	Template      protocol.Template `json:"template"`
	Theme         string            `json:"theme,omitempty"`
	Text1         string            `json:"text1"`
	Text2         string            `json:"text2"`
	InputsEnabled bool              `json:"inputs_enabled"`
	RerollsLeft   int               `json:"rerolls_left"`
	CanReroll     bool              `json:"can_reroll"`
	IsHost        bool              `json:"is_host"`
}

type TimerView struct {
	Remaining int     `json:"remaining"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
	Level     Level   `json:"level"`
}

// ProgressView is advisory submission or vote progress
type ProgressView struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

// Progress stages
const (
	StageSubmissions = "submissions"
	StageVotes       = "votes"
)

type VotingView struct {
	Meme               protocol.Meme `json:"meme"`
	Index              int           `json:"index"`
	Total              int           `json:"total"`
	OwnItem            bool          `json:"own_item"`
	ControlsVisible    bool          `json:"controls_visible"`
	SuperVoteArmed     bool          `json:"super_vote_armed"`
	SuperVoteAvailable bool          `json:"super_vote_available"`
	IsHost             bool          `json:"is_host"`
}

// WaitingView is the passive "waiting for others" indicator
type WaitingView struct {
	Reason string `json:"reason"`
}

// Waiting reasons
const (
	WaitingSubmitted = "submitted"
	WaitingVoted     = "voted"
	WaitingHost      = "host"
	WaitingCreate    = "creating_room"
	WaitingJoin      = "joining_room"
	WaitingRejoin    = "rejoining"
)

type ResultsView struct {
	Round        int                    `json:"round"`
	TotalRounds  int                    `json:"total_rounds"`
	Results      []protocol.RoundResult `json:"results"`
	Leaderboard  []protocol.Standing    `json:"leaderboard"`
	IsFinal      bool                   `json:"is_final"`
	Winner       *protocol.Standing     `json:"winner,omitempty"`
	HostControls bool                   `json:"host_controls"`
}

// NoticeLevel is the tone of a notice
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// NoticeView is a transient message (toast)
type NoticeView struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func (EntryView) ViewName() string        { return ViewEntry }
func (RejoinPromptView) ViewName() string { return ViewRejoinPrompt }
func (LobbyView) ViewName() string        { return ViewLobby }
func (ComposingView) ViewName() string    { return ViewComposing }
func (TimerView) ViewName() string        { return ViewTimer }
func (ProgressView) ViewName() string     { return ViewProgress }
func (VotingView) ViewName() string       { return ViewVoting }
func (WaitingView) ViewName() string      { return ViewWaiting }
func (ResultsView) ViewName() string      { return ViewResults }
func (NoticeView) ViewName() string       { return ViewNotice }
