package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
	"github.com/mcdev12/makeitmeme/go/internal/store"
)

// Emitter sends a command to the game server. Fire-and-forget: the
// outcome arrives later as an inbound event.
type Emitter interface {
	Emit(ctx context.Context, cmd protocol.Command) error
}

// Config holds the session tunables
type Config struct {
	RerollsPerRound    int           `yaml:"rerolls_per_round"`
	OwnItemSkipDelay   time.Duration `yaml:"own_item_skip_delay"`
	ResumeTimerSeconds int           `yaml:"resume_timer_seconds"`
	DefaultTimer       int           `yaml:"default_timer"`
	PlaceholderText    string        `yaml:"placeholder_text"`
}

func DefaultConfig() Config {
	return Config{
		RerollsPerRound:    DefaultRerolls,
		OwnItemSkipDelay:   2 * time.Second,
		ResumeTimerSeconds: 30,
		DefaultTimer:       60,
		PlaceholderText:    "...",
	}
}

// Deps are the session's collaborators
type Deps struct {
	Emitter    Emitter
	Renderer   Renderer
	Store      store.Store
	Clock      clockwork.Clock
	Dispatcher Dispatcher
}

// PendingJoin is held between a join request and its outcome
type PendingJoin struct {
	PlayerName string
	RoomCode   string
}

// VotingCursor is the position of the meme under vote. Moved only by the server.
type VotingCursor struct {
	Index int
	Total int
}

// Session is the client-side state machine for one player.
// Not safe for concurrent use: every method must run on the Dispatcher's goroutine.
type Session struct {
	emitter    Emitter
	renderer   Renderer
	store      store.Store
	clock      clockwork.Clock
	dispatcher Dispatcher
	cfg        Config

	phase Phase
	epoch uint64 // bumped on every transition and every new voting item

	// identity
	roomCode   string
	playerID   string
	playerName string
	isHost     bool
	game       protocol.GameConfig
	players    []protocol.Player

	// round
	round       int
	totalRounds int
	template    protocol.Template
	theme       string
	text1       string
	text2       string
	inputsOn    bool
	submitted   bool
	rerolls     RerollCounter
	timer       *RoundTimer
	superVote   SuperVote
	cursor      VotingCursor
	item        *protocol.Meme
	ownItem     bool
	voted       bool
	skipTimer   clockwork.Timer
	results     []protocol.RoundResult
	leaderboard []protocol.Standing
	winner      *protocol.Standing

	// reconnection
	pendingJoin  *PendingJoin
	cached       *store.Identity
	rejoinTarget *store.Identity
}

// New creates a disconnected session
func New(deps Deps, cfg Config) *Session {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if cfg.OwnItemSkipDelay <= 0 {
		cfg.OwnItemSkipDelay = 2 * time.Second
	}
	if cfg.ResumeTimerSeconds <= 0 {
		cfg.ResumeTimerSeconds = 30
	}
	if cfg.DefaultTimer <= 0 {
		cfg.DefaultTimer = 60
	}
	if cfg.PlaceholderText == "" {
		cfg.PlaceholderText = "..."
	}

	s := &Session{
		emitter:    deps.Emitter,
		renderer:   deps.Renderer,
		store:      deps.Store,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		cfg:        cfg,
		phase:      PhaseDisconnected,
		rerolls:    NewRerollCounter(cfg.RerollsPerRound),
	}
	s.timer = NewRoundTimer(deps.Clock, deps.Dispatcher, s.onTimerTick)
	return s
}

// Phase returns the current phase
func (s *Session) Phase() Phase { return s.phase }

// Epoch returns the transition counter
func (s *Session) Epoch() uint64 { return s.epoch }

// Identity returns who and where this player is
func (s *Session) Identity() store.Identity {
	return store.Identity{RoomCode: s.roomCode, PlayerName: s.playerName, PlayerID: s.playerID}
}

func (s *Session) IsHost() bool { return s.isHost }

// Players returns a copy of the roster in join order
func (s *Session) Players() []protocol.Player {
	return append([]protocol.Player(nil), s.players...)
}

func (s *Session) Round() int { return s.round }

func (s *Session) RerollsLeft() int { return s.rerolls.Left() }

func (s *Session) SuperVoteUsed() bool { return s.superVote.Used() }

func (s *Session) SuperVoteArmed() bool { return s.superVote.Armed() }

func (s *Session) Submitted() bool { return s.submitted }

func (s *Session) Voted() bool { return s.voted }

func (s *Session) TimerActive() bool { return s.timer.Active() }

// Cursor returns the voting position
func (s *Session) Cursor() VotingCursor { return s.cursor }

// inRoom reports whether a server session exists
func (s *Session) inRoom() bool { return s.roomCode != "" && s.playerID != "" }

// transition moves to target. Every transition cancels the round timer and
// any pending own-item skip before anything else happens.
func (s *Session) transition(target Phase) {
	s.stopTimers()

	if !s.phase.CanTransitionTo(target) && s.phase != target {
		log.Warn().
			Str("from", s.phase.String()).
			Str("to", target.String()).
			Str("room_code", s.roomCode).
			Msg("unexpected phase transition, following server")
	}

	from := s.phase
	s.phase = target
	s.epoch++

	log.Info().
		Str("from", from.String()).
		Str("phase", target.String()).
		Int("round", s.round).
		Uint64("epoch", s.epoch).
		Str("room_code", s.roomCode).
		Msg("phase transition")
}

// Close cancels the round timer and any pending skip. The session stays usable.
func (s *Session) Close() { s.stopTimers() }

func (s *Session) stopTimers() {
	s.timer.Stop()
	s.cancelSkip()
}

func (s *Session) cancelSkip() {
	if s.skipTimer != nil {
		s.skipTimer.Stop()
		s.skipTimer = nil
	}
}

// clearRound drops all round-scoped state
func (s *Session) clearRound() {
	s.template = protocol.Template{}
	s.theme = ""
	s.text1, s.text2 = "", ""
	s.inputsOn = false
	s.submitted = false
	s.rerolls.Reset()
	s.superVote.Disarm()
	s.cursor = VotingCursor{}
	s.item = nil
	s.ownItem = false
	s.voted = false
	s.results = nil
	s.leaderboard = nil
	s.winner = nil
}

// reset forgets the room entirely
func (s *Session) reset() {
	s.stopTimers()
	s.clearRound()
	s.roomCode = ""
	s.playerID = ""
	s.isHost = false
	s.game = protocol.GameConfig{}
	s.players = nil
	s.round = 0
	s.totalRounds = 0
	s.superVote.ResetForGame()
	s.pendingJoin = nil
	if s.phase != PhaseDisconnected {
		s.transition(PhaseDisconnected)
	}
}

func (s *Session) saveIdentity(ctx context.Context) {
	if s.store == nil {
		return
	}
	id := s.Identity()
	if err := s.store.Save(ctx, id); err != nil {
		log.Error().Err(err).Str("room_code", id.RoomCode).Msg("failed to save session identity")
		return
	}
	s.cached = &id
}

func (s *Session) clearIdentity(ctx context.Context) {
	s.cached = nil
	if s.store == nil {
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear session identity")
	}
}

func (s *Session) emit(ctx context.Context, cmd protocol.Command) error {
	if err := s.emitter.Emit(ctx, cmd); err != nil {
		log.Warn().Err(err).Str("command", string(cmd.Type())).Msg("failed to send command")
		return err
	}
	log.Debug().Str("command", string(cmd.Type())).Str("room_code", s.roomCode).Msg("command sent")
	return nil
}

func (s *Session) render(v View) {
	if s.renderer != nil {
		s.renderer.Render(v)
	}
}

func (s *Session) notice(level NoticeLevel, msg string) {
	s.render(NoticeView{Level: level, Message: msg})
}

// reject surfaces a local guard failure without changing state
func (s *Session) reject(err error) error {
	log.Debug().Err(err).Str("phase", s.phase.String()).Msg("action rejected")
	s.notice(NoticeError, err.Error())
	return err
}

func (s *Session) renderLobby() {
	s.render(LobbyView{
		RoomCode:   s.roomCode,
		Config:     s.game,
		Players:    s.Players(),
		MaxPlayers: MaxPlayers,
		IsHost:     s.isHost,
		CanStart:   s.isHost && len(s.players) >= MinPlayers,
	})
}

func (s *Session) renderComposing() {
	s.render(ComposingView{
		Round:         s.round,
		TotalRounds:   s.totalRounds,
		Template:      s.template,
		Theme:         s.theme,
		Text1:         s.text1,
		Text2:         s.text2,
		InputsEnabled: s.inputsOn,
		RerollsLeft:   s.rerolls.Left(),
		CanReroll:     s.inputsOn && s.rerolls.CanReroll(),
		IsHost:        s.isHost,
	})
}

func (s *Session) renderVoting() {
	if s.item == nil {
		return
	}
	s.render(VotingView{
		Meme:               *s.item,
		Index:              s.cursor.Index,
		Total:              s.cursor.Total,
		OwnItem:            s.ownItem,
		ControlsVisible:    !s.ownItem && !s.voted,
		SuperVoteArmed:     s.superVote.Armed(),
		SuperVoteAvailable: s.superVote.Available() && !s.ownItem && !s.voted,
		IsHost:             s.isHost,
	})
}

func (s *Session) renderResults() {
	s.render(ResultsView{
		Round:        s.round,
		TotalRounds:  s.totalRounds,
		Results:      s.results,
		Leaderboard:  s.leaderboard,
		IsFinal:      s.phase == PhaseFinal,
		Winner:       s.winner,
		HostControls: s.isHost,
	})
	if !s.isHost {
		s.render(WaitingView{Reason: WaitingHost})
	}
}

// renderPhase redraws the view of the current phase
func (s *Session) renderPhase() {
	switch s.phase {
	case PhaseLobby:
		s.renderLobby()
	case PhaseComposing:
		s.renderComposing()
		if s.submitted {
			s.render(WaitingView{Reason: WaitingSubmitted})
		}
	case PhaseVoting:
		s.renderVoting()
		if s.voted {
			s.render(WaitingView{Reason: WaitingVoted})
		}
	case PhaseResults, PhaseFinal:
		s.renderResults()
	}
}
