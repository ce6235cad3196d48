package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
	"github.com/mcdev12/makeitmeme/go/internal/store"
)

// Handle applies one server event. Events that make no sense for the
// current state (duplicates, stale pushes after leaving) are dropped.
func (s *Session) Handle(ctx context.Context, ev protocol.Inbound) error {
	switch e := ev.(type) {
	case protocol.SessionOpened:
		s.onSessionOpened(ctx, e)
	case protocol.RosterChanged:
		s.onRosterChanged(e)
	case protocol.HostChanged:
		s.onHostChanged(e)
	case protocol.RoundStarted:
		s.onRoundStarted(e)
	case protocol.ItemChanged:
		s.onItemChanged(e)
	case protocol.SubmissionCountChanged:
		if s.phase == PhaseComposing {
			s.render(ProgressView{Stage: StageSubmissions, Count: e.Count, Total: e.Total})
		}
	case protocol.VotingItem:
		s.onVotingItem(e)
	case protocol.VoteCountChanged:
		if s.phase == PhaseVoting {
			s.render(ProgressView{Stage: StageVotes, Count: e.Count, Total: e.Total})
		}
	case protocol.RoundConcluded:
		s.onRoundConcluded(e)
	case protocol.ReturnedToLobby:
		s.onReturnedToLobby(ctx, e)
	case protocol.RejoinSucceeded:
		s.onRejoinSucceeded(ctx, e.Snapshot)
	case protocol.RejoinFailed:
		s.onRejoinFailed(ctx, e)
	case protocol.ServerError:
		return s.onServerError(ctx, e)
	default:
		return fmt.Errorf("%w: %T", protocol.ErrUnknownEvent, ev)
	}
	return nil
}

func (s *Session) dropped(event, reason string) {
	log.Debug().
		Str("event", event).
		Str("phase", s.phase.String()).
		Str("reason", reason).
		Msg("event dropped")
}

func (s *Session) onSessionOpened(ctx context.Context, e protocol.SessionOpened) {
	s.pendingJoin = nil
	s.stopTimers()
	s.clearRound()

	s.roomCode = e.RoomCode
	s.playerID = e.PlayerID
	s.isHost = e.IsHost
	s.game = e.Config
	s.players = clonePlayers(e.Players)
	s.round = 0
	s.totalRounds = e.Config.NumRounds
	s.superVote.ResetForGame()

	s.transition(PhaseLobby)
	s.saveIdentity(ctx)

	log.Info().
		Bool("created", e.Created).
		Str("room_code", s.roomCode).
		Str("player_id", s.playerID).
		Bool("is_host", s.isHost).
		Msg("entered room")

	s.renderLobby()
}

func (s *Session) onRosterChanged(e protocol.RosterChanged) {
	if !s.inRoom() {
		s.dropped("roster_changed", "not in a room")
		return
	}
	s.players = clonePlayers(e.Players)

	if e.PlayerID != s.playerID && e.PlayerName != "" {
		switch e.Reason {
		case protocol.RosterJoined:
			s.notice(NoticeInfo, e.PlayerName+" joined")
		case protocol.RosterLeft:
			s.notice(NoticeInfo, e.PlayerName+" left")
		case protocol.RosterDisconnected:
			s.notice(NoticeInfo, e.PlayerName+" disconnected")
		case protocol.RosterReconnected:
			s.notice(NoticeSuccess, e.PlayerName+" is back")
		}
	}

	if s.phase == PhaseLobby {
		s.renderLobby()
	}
}

func (s *Session) onHostChanged(e protocol.HostChanged) {
	if !s.inRoom() {
		s.dropped("host_changed", "not in a room")
		return
	}
	wasHost := s.isHost
	s.isHost = e.HostID == s.playerID
	for i := range s.players {
		s.players[i].IsHost = s.players[i].ID == e.HostID
	}

	log.Info().
		Str("host_id", e.HostID).
		Bool("is_host", s.isHost).
		Msg("host changed")

	if s.isHost && !wasHost {
		s.notice(NoticeSuccess, "You are now the host")
	}
	s.renderPhase()
}

func (s *Session) onRoundStarted(e protocol.RoundStarted) {
	if !s.inRoom() {
		s.dropped("round_started", "not in a room")
		return
	}
	if s.phase == PhaseComposing && s.round == e.Round {
		s.dropped("round_started", "duplicate round")
		return
	}

	s.stopTimers()
	s.clearRound()

	if e.Round == 1 {
		s.superVote.ResetForGame()
	}
	s.round = e.Round
	if e.TotalRounds > 0 {
		s.totalRounds = e.TotalRounds
	}
	s.template = e.Template
	s.theme = e.Theme
	s.inputsOn = true

	duration := e.TimerDuration
	if duration <= 0 {
		duration = s.game.TimerDuration
	}
	if duration <= 0 {
		duration = s.cfg.DefaultTimer
	}

	s.transition(PhaseComposing)
	s.timer.Start(duration)

	s.renderComposing()
	s.render(toTimerView(s.timer.Current()))
}

func (s *Session) onItemChanged(e protocol.ItemChanged) {
	if s.phase != PhaseComposing {
		s.dropped("item_changed", "not composing")
		return
	}
	s.template = e.Template
	s.rerolls.Sync(e.ChangesLeft)

	log.Debug().Int("changes_left", s.rerolls.Left()).Msg("meme changed")

	s.renderComposing()
}

func (s *Session) onVotingItem(e protocol.VotingItem) {
	if !s.inRoom() {
		s.dropped("voting_item", "not in a room")
		return
	}
	if s.phase == PhaseVoting && s.item != nil &&
		s.item.Index == e.Meme.Index && s.item.CreatorID == e.Meme.CreatorID {
		s.dropped("voting_item", "duplicate item")
		return
	}

	if s.phase != PhaseVoting {
		s.inputsOn = false
		s.transition(PhaseVoting)
	} else {
		s.cancelSkip()
		s.epoch++
	}
	s.showVotingItem(e.Meme)
}

// showVotingItem runs the per-item contract: fresh vote state, bonus
// disarmed, own items auto-skipped after a delay.
func (s *Session) showVotingItem(m protocol.Meme) {
	meme := m
	s.item = &meme
	s.cursor = VotingCursor{Index: m.Index, Total: m.Total}
	s.voted = false
	s.superVote.Disarm()
	s.ownItem = m.CreatorID == s.playerID

	if s.ownItem {
		s.scheduleSkip()
	}
	s.renderVoting()
}

// scheduleSkip casts a zero vote on the player's own meme after the delay
func (s *Session) scheduleSkip() {
	s.cancelSkip()
	epoch := s.epoch
	s.skipTimer = s.clock.AfterFunc(s.cfg.OwnItemSkipDelay, func() {
		s.dispatcher.Post(func(ctx context.Context) {
			s.skipOwnItem(ctx, epoch)
		})
	})
}

func (s *Session) skipOwnItem(ctx context.Context, epoch uint64) {
	if epoch != s.epoch || s.phase != PhaseVoting || !s.ownItem || s.voted {
		s.dropped("own_item_skip", "stale")
		return
	}
	s.skipTimer = nil
	if err := s.emit(ctx, protocol.SubmitVote{RoomCode: s.roomCode, VoteValue: VoteMeh}); err != nil {
		s.notice(NoticeError, err.Error())
		return
	}
	s.voted = true
	s.render(WaitingView{Reason: WaitingVoted})
}

func (s *Session) onRoundConcluded(e protocol.RoundConcluded) {
	if !s.inRoom() {
		s.dropped("round_concluded", "not in a room")
		return
	}
	target := PhaseResults
	if e.IsFinal {
		target = PhaseFinal
	}
	if s.phase == target {
		s.dropped("round_concluded", "duplicate results")
		return
	}

	s.transition(target)
	s.clearRound()
	s.results = e.Results
	s.leaderboard = e.Leaderboard
	s.winner = e.Winner
	s.applyScores(e.Leaderboard)

	s.renderResults()
}

// applyScores copies leaderboard totals onto the roster
func (s *Session) applyScores(board []protocol.Standing) {
	scores := make(map[string]int, len(board))
	for _, st := range board {
		scores[st.PlayerID] = st.Score
	}
	for i := range s.players {
		if score, ok := scores[s.players[i].ID]; ok {
			s.players[i].Score = score
		}
	}
}

func (s *Session) onReturnedToLobby(ctx context.Context, e protocol.ReturnedToLobby) {
	if !s.inRoom() {
		s.dropped("returned_to_lobby", "not in a room")
		return
	}
	s.transition(PhaseLobby)
	s.clearRound()
	s.round = 0
	if e.Players != nil {
		s.players = clonePlayers(e.Players)
	}
	s.saveIdentity(ctx)
	s.renderLobby()
}

func (s *Session) onServerError(ctx context.Context, e protocol.ServerError) error {
	pending := s.pendingJoin
	s.pendingJoin = nil

	if pending != nil && e.AlreadyStarted() {
		log.Info().
			Str("room_code", pending.RoomCode).
			Str("player_name", pending.PlayerName).
			Msg("room already started, trying to rejoin")
		// no pending join left, so a second failure cannot loop back here
		return s.sendRejoin(ctx, store.Identity{RoomCode: pending.RoomCode, PlayerName: pending.PlayerName})
	}

	log.Warn().Str("code", e.Code).Str("message", e.Message).Msg("server error")
	s.notice(NoticeError, e.Message)
	if pending != nil && s.phase == PhaseDisconnected {
		s.render(EntryView{PlayerName: pending.PlayerName, RoomCode: pending.RoomCode, Message: e.Message})
	}
	return nil
}

func clonePlayers(in []protocol.Player) []protocol.Player {
	if in == nil {
		return nil
	}
	return append([]protocol.Player(nil), in...)
}

func toTimerView(t Tick) TimerView {
	return TimerView{Remaining: t.Remaining, Total: t.Total, Ratio: t.Ratio, Level: t.Level}
}
