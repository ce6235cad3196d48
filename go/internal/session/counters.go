package session

// DefaultRerolls is how many meme changes a player gets each round
const DefaultRerolls = 5

// RerollCounter counts the meme changes left in the current round.
// Reset once per round on entering composing; otherwise only the server's
// confirmed count moves it.
type RerollCounter struct {
	left int
	max  int
}

// NewRerollCounter returns a full counter
func NewRerollCounter(max int) RerollCounter {
	if max <= 0 {
		max = DefaultRerolls
	}
	return RerollCounter{left: max, max: max}
}

func (c *RerollCounter) Reset() { c.left = c.max }

// Sync adopts the server's authoritative count, clamped to [0, max]
func (c *RerollCounter) Sync(left int) {
	switch {
	case left < 0:
		c.left = 0
	case left > c.max:
		c.left = c.max
	default:
		c.left = left
	}
}

func (c RerollCounter) Left() int { return c.left }

func (c RerollCounter) Max() int { return c.max }

func (c RerollCounter) CanReroll() bool { return c.left > 0 }

// SuperVote tracks the once-per-game bonus vote.
// armed can only be set while usedForGame is false.
type SuperVote struct {
	usedForGame bool
	armed       bool
}

// ResetForGame re-arms the bonus for a new game
func (s *SuperVote) ResetForGame() {
	s.usedForGame = false
	s.armed = false
}

// Arm attaches the bonus to the next vote
func (s *SuperVote) Arm() error {
	if s.usedForGame {
		return ErrSuperVoteUsed
	}
	s.armed = true
	return nil
}

func (s *SuperVote) Disarm() { s.armed = false }

// Consume folds the armed flag into usedForGame and clears it.
// Returns whether the vote just cast carried the bonus.
func (s *SuperVote) Consume() bool {
	used := s.armed
	if used {
		s.usedForGame = true
	}
	s.armed = false
	return used
}

// Restore adopts the server's view after a rejoin
func (s *SuperVote) Restore(used bool) {
	s.usedForGame = used
	s.armed = false
}

func (s SuperVote) Used() bool { return s.usedForGame }

func (s SuperVote) Armed() bool { return s.armed }

// Available reports whether the bonus can still be armed
func (s SuperVote) Available() bool { return !s.usedForGame }
