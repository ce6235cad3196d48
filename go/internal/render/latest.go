package render

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/session"
)

// Latest keeps the most recent frame of every view. The status endpoint
// reads it from other goroutines.
type Latest struct {
	clock clockwork.Clock

	mu     sync.RWMutex
	frames map[string]Frame
}

func NewLatest(clock clockwork.Clock) *Latest {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Latest{clock: clock, frames: make(map[string]Frame)}
}

func (l *Latest) Render(v session.View) {
	frame, err := NewFrame(v, l.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode view frame")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames[frame.View] = frame
}

// Get returns the last frame rendered for view
func (l *Latest) Get(view string) (Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.frames[view]
	return f, ok
}

// Snapshot copies every frame keyed by view name
func (l *Latest) Snapshot() map[string]Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Frame, len(l.frames))
	for k, f := range l.frames {
		out[k] = f
	}
	return out
}
