package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Level is the advisory urgency of the countdown. Cosmetic only.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

const (
	warningThreshold  = 30
	criticalThreshold = 10
)

// Tick is one second of countdown
type Tick struct {
	Remaining int
	Total     int
	Ratio     float64 // remaining/total, 1 at start and 0 on expiry
	Level     Level
}

// Dispatcher runs fn on the session's single control goroutine
type Dispatcher interface {
	Post(fn func(ctx context.Context))
}

// RoundTimer is the composing countdown. At most one countdown is active:
// Start cancels the previous one first. The ticker goroutine never touches
// timer state; it only posts the generation token back to the control
// goroutine, where stale tokens are dropped.
type RoundTimer struct {
	clock      clockwork.Clock
	dispatcher Dispatcher
	onTick     func(ctx context.Context, token uint64)

	token     uint64
	active    bool
	remaining int
	total     int
	ticker    clockwork.Ticker
	done      chan struct{}
}

// NewRoundTimer creates an inactive timer. onTick runs on the dispatcher.
func NewRoundTimer(clock clockwork.Clock, dispatcher Dispatcher, onTick func(ctx context.Context, token uint64)) *RoundTimer {
	return &RoundTimer{
		clock:      clock,
		dispatcher: dispatcher,
		onTick:     onTick,
	}
}

// Start cancels any running countdown and starts a new one. Returns its token.
func (t *RoundTimer) Start(seconds int) uint64 {
	t.Stop()

	t.token++
	t.active = true
	t.remaining = seconds
	t.total = seconds
	t.ticker = t.clock.NewTicker(time.Second)
	t.done = make(chan struct{})

	go t.run(t.token, t.ticker, t.done)

	log.Debug().
		Uint64("token", t.token).
		Int("seconds", seconds).
		Msg("round timer started")

	return t.token
}

func (t *RoundTimer) run(token uint64, ticker clockwork.Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			t.dispatcher.Post(func(ctx context.Context) {
				t.onTick(ctx, token)
			})
		}
	}
}

// Stop cancels the countdown. No-op when inactive.
func (t *RoundTimer) Stop() {
	if !t.active {
		return
	}
	t.active = false
	t.ticker.Stop()
	close(t.done)
	t.ticker = nil
	t.done = nil

	log.Debug().Uint64("token", t.token).Msg("round timer stopped")
}

// Owns reports whether token belongs to the running countdown
func (t *RoundTimer) Owns(token uint64) bool {
	return t.active && token == t.token
}

func (t *RoundTimer) Active() bool { return t.active }

func (t *RoundTimer) Token() uint64 { return t.token }

// Current describes the countdown without advancing it
func (t *RoundTimer) Current() Tick {
	return makeTick(t.remaining, t.total)
}

// step consumes one second. On reaching zero the timer stops itself and
// expired is true.
func (t *RoundTimer) step() (tick Tick, expired bool) {
	if t.remaining > 0 {
		t.remaining--
	}
	tick = makeTick(t.remaining, t.total)
	if t.remaining == 0 {
		t.Stop()
		return tick, true
	}
	return tick, false
}

func makeTick(remaining, total int) Tick {
	tick := Tick{Remaining: remaining, Total: total, Level: LevelNormal}
	if total > 0 {
		tick.Ratio = float64(remaining) / float64(total)
	}
	switch {
	case remaining <= criticalThreshold:
		tick.Level = LevelCritical
	case remaining <= warningThreshold:
		tick.Level = LevelWarning
	}
	return tick
}
