package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
)

// Local user actions. Each validates first; a rejected action sends nothing
// and leaves state untouched.

// CreateGame asks for a new room hosted by this player
func (s *Session) CreateGame(ctx context.Context, name string, opts CreateOptions) error {
	if s.inRoom() {
		return s.reject(ErrWrongPhase)
	}
	name, err := NormalizeName(name)
	if err != nil {
		return s.reject(err)
	}
	opts, err = opts.normalize()
	if err != nil {
		return s.reject(err)
	}

	if err := s.emit(ctx, protocol.CreateGame{
		PlayerName:    name,
		Mode:          opts.Mode,
		ImageType:     opts.ImageType,
		NumRounds:     opts.NumRounds,
		TimerDuration: opts.TimerDuration,
	}); err != nil {
		return s.reject(err)
	}

	s.playerName = name
	s.render(WaitingView{Reason: WaitingCreate})
	return nil
}

// JoinGame asks to enter an existing room. The request is remembered so an
// "already started" answer can turn into a rejoin.
func (s *Session) JoinGame(ctx context.Context, name, roomCode string) error {
	if s.inRoom() {
		return s.reject(ErrWrongPhase)
	}
	name, err := NormalizeName(name)
	if err != nil {
		return s.reject(err)
	}
	code, err := NormalizeRoomCode(roomCode)
	if err != nil {
		return s.reject(err)
	}

	if err := s.emit(ctx, protocol.JoinGame{PlayerName: name, RoomCode: code}); err != nil {
		return s.reject(err)
	}

	s.playerName = name
	s.pendingJoin = &PendingJoin{PlayerName: name, RoomCode: code}
	s.render(WaitingView{Reason: WaitingJoin})
	return nil
}

// StartGame is the host's start button in the lobby
func (s *Session) StartGame(ctx context.Context) error {
	switch {
	case s.phase != PhaseLobby:
		return s.reject(ErrWrongPhase)
	case !s.isHost:
		return s.reject(ErrNotHost)
	case len(s.players) < MinPlayers:
		return s.reject(ErrNotEnoughPlayers)
	}
	if err := s.emit(ctx, protocol.StartGame{RoomCode: s.roomCode}); err != nil {
		return s.reject(err)
	}
	return nil
}

// SetText updates the caption inputs while they are enabled
func (s *Session) SetText(text1, text2 string) error {
	if s.phase != PhaseComposing {
		return s.reject(ErrWrongPhase)
	}
	if !s.inputsOn {
		return s.reject(ErrAlreadySubmitted)
	}
	s.text1 = text1
	s.text2 = text2
	return nil
}

// Submit sends the composed caption. At least one text must be non-empty.
func (s *Session) Submit(ctx context.Context) error {
	if s.phase != PhaseComposing {
		return s.reject(ErrWrongPhase)
	}
	if s.submitted {
		return s.reject(ErrAlreadySubmitted)
	}
	text1 := strings.TrimSpace(s.text1)
	text2 := strings.TrimSpace(s.text2)
	if text1 == "" && text2 == "" {
		return s.reject(ErrEmptySubmission)
	}
	if err := s.submit(ctx, text1, text2); err != nil {
		return s.reject(err)
	}
	return nil
}

// autoSubmit is the timer expiry path: same as Submit minus validation
func (s *Session) autoSubmit(ctx context.Context) {
	if s.phase != PhaseComposing || s.submitted {
		return
	}
	text1 := strings.TrimSpace(s.text1)
	text2 := strings.TrimSpace(s.text2)
	if text1 == "" {
		text1 = s.cfg.PlaceholderText
	}

	log.Info().Int("round", s.round).Msg("time is up, submitting automatically")

	if err := s.submit(ctx, text1, text2); err != nil {
		s.notice(NoticeError, err.Error())
	}
}

func (s *Session) submit(ctx context.Context, text1, text2 string) error {
	if err := s.emit(ctx, protocol.SubmitMeme{
		RoomCode: s.roomCode,
		Caption:  Caption(text1, text2),
		Text1:    text1,
		Text2:    text2,
	}); err != nil {
		return err
	}

	s.timer.Stop()
	s.text1, s.text2 = text1, text2
	s.submitted = true
	s.inputsOn = false

	s.renderComposing()
	s.render(WaitingView{Reason: WaitingSubmitted})
	return nil
}

// onTimerTick runs on the control goroutine for every second of countdown
func (s *Session) onTimerTick(ctx context.Context, token uint64) {
	if !s.timer.Owns(token) || s.phase != PhaseComposing {
		s.dropped("timer_tick", "stale token")
		return
	}
	tick, expired := s.timer.step()
	s.render(toTimerView(tick))
	if expired {
		s.autoSubmit(ctx)
	}
}

// Vote rates the current meme: 1 like, 0 meh, -1 dislike. An armed super
// vote travels with it and is then spent for the game.
func (s *Session) Vote(ctx context.Context, value int) error {
	if err := s.canVote(); err != nil {
		return s.reject(err)
	}
	if !validVote(value) {
		return s.reject(ErrInvalidVote)
	}

	if err := s.emit(ctx, protocol.SubmitVote{
		RoomCode:  s.roomCode,
		VoteValue: value,
		SuperVote: s.superVote.Armed(),
	}); err != nil {
		return s.reject(err)
	}

	if s.superVote.Consume() {
		log.Info().Int("index", s.cursor.Index).Msg("super vote used")
	}
	s.voted = true
	s.render(WaitingView{Reason: WaitingVoted})
	return nil
}

// ArmSuperVote attaches the bonus to the next vote. Local only.
func (s *Session) ArmSuperVote() error {
	if err := s.canVote(); err != nil {
		return s.reject(err)
	}
	if err := s.superVote.Arm(); err != nil {
		return s.reject(err)
	}
	s.renderVoting()
	return nil
}

// DisarmSuperVote takes the bonus back before voting
func (s *Session) DisarmSuperVote() error {
	if err := s.canVote(); err != nil {
		return s.reject(err)
	}
	s.superVote.Disarm()
	s.renderVoting()
	return nil
}

func (s *Session) canVote() error {
	switch {
	case s.phase != PhaseVoting || s.item == nil:
		return ErrWrongPhase
	case s.ownItem:
		return ErrOwnItem
	case s.voted:
		return ErrAlreadyVoted
	}
	return nil
}

// RequestReroll asks for a different template. The counter only moves
// when the server confirms with the new count.
func (s *Session) RequestReroll(ctx context.Context) error {
	switch {
	case s.phase != PhaseComposing:
		return s.reject(ErrWrongPhase)
	case s.submitted:
		return s.reject(ErrAlreadySubmitted)
	case !s.rerolls.CanReroll():
		return s.reject(ErrNoRerollsLeft)
	}
	if err := s.emit(ctx, protocol.RequestNewMeme{RoomCode: s.roomCode}); err != nil {
		return s.reject(err)
	}
	return nil
}

// AdvanceRound is the host's continue button on the results screen. From
// the final screen the server answers by returning everyone to the lobby.
func (s *Session) AdvanceRound(ctx context.Context) error {
	switch {
	case s.phase != PhaseResults && s.phase != PhaseFinal:
		return s.reject(ErrWrongPhase)
	case !s.isHost:
		return s.reject(ErrNotHost)
	}
	if err := s.emit(ctx, protocol.NextRound{RoomCode: s.roomCode}); err != nil {
		return s.reject(err)
	}
	return nil
}

// ForceAdvance lets the host skip players that stopped responding
func (s *Session) ForceAdvance(ctx context.Context) error {
	switch {
	case s.phase != PhaseComposing && s.phase != PhaseVoting:
		return s.reject(ErrWrongPhase)
	case !s.isHost:
		return s.reject(ErrNotHost)
	}
	if err := s.emit(ctx, protocol.ForceNext{RoomCode: s.roomCode}); err != nil {
		return s.reject(err)
	}
	return nil
}

// Leave abandons the room: the cached identity is dropped and the entry
// screen shown
func (s *Session) Leave(ctx context.Context) error {
	if !s.inRoom() && s.cached == nil && s.pendingJoin == nil {
		return s.reject(ErrNoSession)
	}
	log.Info().Str("room_code", s.roomCode).Msg("leaving room")

	name := s.playerName
	s.reset()
	s.clearIdentity(ctx)
	s.render(EntryView{PlayerName: name})
	return nil
}
