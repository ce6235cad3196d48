package session

// Phase is the local participant's position in the game lifecycle
type Phase string

const (
	PhaseDisconnected Phase = "disconnected" // No live session: not connected, or on the entry screen
	PhaseLobby        Phase = "lobby"        // In a room, waiting for the host to start
	PhaseComposing    Phase = "composing"    // Writing a caption against the round's template
	PhaseVoting       Phase = "voting"       // Rating other players' memes one at a time
	PhaseResults      Phase = "results"      // Round results and running leaderboard
	PhaseFinal        Phase = "final"        // Final leaderboard and winner
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// InGame reports whether the phase belongs to a running game
func (p Phase) InGame() bool {
	switch p {
	case PhaseComposing, PhaseVoting, PhaseResults, PhaseFinal:
		return true
	}
	return false
}

// CanTransitionTo checks if a transition from current phase to target phase is expected.
// The server stays authoritative: an unexpected transition is logged, not refused.
func (p Phase) CanTransitionTo(target Phase) bool {
	if target == PhaseDisconnected {
		return true
	}

	validTransitions := map[Phase][]Phase{
		// a rejoin can land in any phase
		PhaseDisconnected: {PhaseLobby, PhaseComposing, PhaseVoting, PhaseResults, PhaseFinal},
		PhaseLobby:        {PhaseComposing},
		PhaseComposing:    {PhaseVoting, PhaseResults},
		PhaseVoting:       {PhaseResults, PhaseFinal},
		PhaseResults:      {PhaseComposing, PhaseLobby},
		PhaseFinal:        {PhaseLobby},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
