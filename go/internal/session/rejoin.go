package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
	"github.com/mcdev12/makeitmeme/go/internal/store"
)

// OnConnected runs when the transport (re)connects. A cached identity is
// offered as a rejoin prompt; the player decides.
func (s *Session) OnConnected(ctx context.Context) {
	id, ok := s.loadIdentity(ctx)
	if !ok {
		log.Info().Msg("connected, no saved session")
		s.render(EntryView{PlayerName: s.playerName})
		return
	}

	s.cached = &id
	log.Info().
		Str("room_code", id.RoomCode).
		Str("player_name", id.PlayerName).
		Msg("connected, saved session found")
	s.render(RejoinPromptView{RoomCode: id.RoomCode, PlayerName: id.PlayerName})
}

// OnDisconnected runs when the transport drops. Timers stop and the room is
// forgotten locally; the identity stays cached for the next connect.
func (s *Session) OnDisconnected(ctx context.Context) {
	if s.inRoom() {
		id := s.Identity()
		s.cached = &id
	}
	s.rejoinTarget = nil
	wasLive := s.phase != PhaseDisconnected
	s.reset()

	if wasLive {
		log.Warn().Msg("connection lost during session")
		s.notice(NoticeError, "Connection lost")
	}
}

// AcceptRejoin answers the prompt with yes
func (s *Session) AcceptRejoin(ctx context.Context) error {
	if s.inRoom() {
		return s.reject(ErrWrongPhase)
	}
	if s.rejoinTarget != nil {
		return s.reject(ErrWrongPhase)
	}
	if s.cached == nil || s.cached.Empty() {
		return s.reject(ErrNoCachedIdentity)
	}
	return s.sendRejoin(ctx, *s.cached)
}

// DeclineRejoin answers the prompt with no and forgets the saved session
func (s *Session) DeclineRejoin(ctx context.Context) error {
	if s.cached == nil {
		return s.reject(ErrNoCachedIdentity)
	}
	name := s.cached.PlayerName
	s.clearIdentity(ctx)
	s.render(EntryView{PlayerName: name})
	return nil
}

// sendRejoin asks to re-enter a running game. An empty PlayerID lets the
// server match by name.
func (s *Session) sendRejoin(ctx context.Context, id store.Identity) error {
	if err := s.emit(ctx, protocol.RejoinGame{
		RoomCode:    id.RoomCode,
		PlayerName:  id.PlayerName,
		OldPlayerID: id.PlayerID,
	}); err != nil {
		return s.reject(err)
	}
	s.playerName = id.PlayerName
	s.rejoinTarget = &id
	s.render(WaitingView{Reason: WaitingRejoin})
	return nil
}

func (s *Session) loadIdentity(ctx context.Context) (store.Identity, bool) {
	if s.store != nil {
		id, ok, err := s.store.Load(ctx)
		if err == nil {
			return id, ok && !id.Empty()
		}
		log.Error().Err(err).Msg("failed to load saved session")
	}
	if s.cached != nil && !s.cached.Empty() {
		return *s.cached, true
	}
	return store.Identity{}, false
}

// onRejoinSucceeded rebuilds the exact phase from the snapshot. Counters
// come only from the snapshot.
func (s *Session) onRejoinSucceeded(ctx context.Context, snap protocol.Snapshot) {
	s.pendingJoin = nil
	s.rejoinTarget = nil
	s.stopTimers()
	s.clearRound()

	s.roomCode = snap.RoomCode
	s.playerID = snap.PlayerID
	if snap.PlayerName != "" {
		s.playerName = snap.PlayerName
	}
	s.isHost = snap.IsHost
	s.game = snap.GameConfig
	s.players = clonePlayers(snap.Players)
	s.round = snap.CurrentRound
	s.totalRounds = snap.NumRounds

	s.superVote.Restore(snap.SuperVoteUsed)
	if snap.ChangesLeft != nil {
		s.rerolls.Sync(*snap.ChangesLeft)
	}

	s.saveIdentity(ctx)

	log.Info().
		Str("room_code", s.roomCode).
		Str("player_id", s.playerID).
		Str("snapshot_phase", snap.Phase).
		Int("round", s.round).
		Msg("rejoined game")

	switch snap.Phase {
	case protocol.SnapshotPhaseCreating:
		s.restoreComposing(snap)
	case protocol.SnapshotPhaseVoting:
		s.restoreVoting(snap)
	case protocol.SnapshotPhaseResults, protocol.SnapshotPhaseFinal:
		target := PhaseResults
		if snap.Phase == protocol.SnapshotPhaseFinal {
			target = PhaseFinal
		}
		s.transition(target)
		s.results = snap.Results
		s.leaderboard = snap.Leaderboard
		s.winner = snap.Winner
		s.renderResults()
	default:
		if snap.Phase != protocol.SnapshotPhaseLobby {
			log.Warn().Str("snapshot_phase", snap.Phase).Msg("unknown snapshot phase, showing lobby")
		}
		s.transition(PhaseLobby)
		s.renderLobby()
	}

	s.notice(NoticeSuccess, "Reconnected")
}

func (s *Session) restoreComposing(snap protocol.Snapshot) {
	if snap.Template != nil {
		s.template = *snap.Template
	}
	if snap.Theme != nil {
		s.theme = *snap.Theme
	}
	s.transition(PhaseComposing)

	if snap.HasSubmitted {
		s.submitted = true
		s.inputsOn = false
		s.renderComposing()
		s.render(WaitingView{Reason: WaitingSubmitted})
		return
	}

	s.inputsOn = true
	s.timer.Start(s.resumeSeconds(snap))
	s.renderComposing()
	s.render(toTimerView(s.timer.Current()))
}

// resumeSeconds picks the shortened countdown for a resumed round: the
// server's remaining time when it sends one, else the configured resume
// window, never more than the round's full duration
func (s *Session) resumeSeconds(snap protocol.Snapshot) int {
	secs := s.cfg.ResumeTimerSeconds
	if snap.TimeRemainingSec > 0 {
		secs = snap.TimeRemainingSec
	}
	if full := snap.TimerDuration; full > 0 && secs > full {
		secs = full
	}
	return secs
}

func (s *Session) restoreVoting(snap protocol.Snapshot) {
	s.transition(PhaseVoting)

	if snap.CurrentMeme == nil {
		s.render(WaitingView{Reason: WaitingVoted})
		return
	}

	if snap.HasVoted {
		meme := *snap.CurrentMeme
		s.item = &meme
		s.cursor = VotingCursor{Index: meme.Index, Total: meme.Total}
		s.ownItem = meme.CreatorID == s.playerID
		s.voted = true
		s.render(WaitingView{Reason: WaitingVoted})
		return
	}
	s.showVotingItem(*snap.CurrentMeme)
}

// onRejoinFailed routes the three failure outcomes. Only a room still in
// its lobby keeps the saved identity. A join sent after the rejoin stays
// pending and owns the screen.
func (s *Session) onRejoinFailed(ctx context.Context, e protocol.RejoinFailed) {
	if s.inRoom() {
		s.dropped("rejoin_failed", "already in a room")
		return
	}

	target := s.rejoinTarget
	if target == nil {
		target = s.cached
	}
	var prefill store.Identity
	if target != nil {
		prefill = *target
	}
	s.rejoinTarget = nil

	log.Warn().
		Str("reason", string(e.Reason)).
		Str("room_code", prefill.RoomCode).
		Msg("rejoin failed")

	pending := s.pendingJoin
	if pending != nil {
		if e.Reason != protocol.RejoinUseNormalJoin {
			s.clearIdentity(ctx)
		}
		log.Info().
			Str("room_code", pending.RoomCode).
			Msg("join in flight, keeping it over the failed rejoin")
		return
	}

	if e.Reason == protocol.RejoinUseNormalJoin {
		s.reset()
		s.render(EntryView{
			PlayerName: prefill.PlayerName,
			RoomCode:   prefill.RoomCode,
			Message:    rejoinMessage(e),
		})
		return
	}

	s.clearIdentity(ctx)
	s.reset()
	s.render(EntryView{PlayerName: prefill.PlayerName, Message: rejoinMessage(e)})
}

func rejoinMessage(e protocol.RejoinFailed) string {
	switch e.Reason {
	case protocol.RejoinUseNormalJoin:
		return "The game has not started yet, join the room normally"
	case protocol.RejoinRoomNotFound:
		return "The room no longer exists"
	case protocol.RejoinPlayerNotFound:
		return "You are no longer part of this game"
	}
	if e.Message != "" {
		return e.Message
	}
	return "Could not rejoin the game"
}
