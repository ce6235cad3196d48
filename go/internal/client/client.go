package client

import (
	"context"
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
	"github.com/mcdev12/makeitmeme/go/internal/session"
	"github.com/mcdev12/makeitmeme/go/internal/store"
	"github.com/mcdev12/makeitmeme/go/internal/transport"
)

// ErrStopped is returned by Do once Run has returned
var ErrStopped = errors.New("client stopped")

// Options wires a Client. Emitter is only set by tests; otherwise a
// websocket transport is dialed from Transport.
type Options struct {
	Transport transport.Config
	Session   session.Config
	Renderer  session.Renderer
	Store     store.Store
	Clock     clockwork.Clock
	Emitter   session.Emitter
	QueueSize int
}

// Client is the runtime loop of one player. Every session mutation happens
// on the goroutine running Run: transport callbacks, timer ticks and user
// actions are all posted to the same work queue.
type Client struct {
	session *session.Session
	conn    *transport.Client
	work    chan func(ctx context.Context)
	done    chan struct{}

	mu        sync.Mutex
	connected bool
}

// New builds the client and its session
func New(opts Options) *Client {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}

	c := &Client{
		work: make(chan func(ctx context.Context), opts.QueueSize),
		done: make(chan struct{}),
	}

	emitter := opts.Emitter
	if emitter == nil {
		c.conn = transport.New(opts.Transport, c, opts.Clock)
		emitter = c.conn
	}

	c.session = session.New(session.Deps{
		Emitter:    emitter,
		Renderer:   opts.Renderer,
		Store:      opts.Store,
		Clock:      opts.Clock,
		Dispatcher: c,
	}, opts.Session)

	return c
}

// Run executes posted work until ctx is cancelled. It also runs the
// transport when the client owns one.
func (c *Client) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if c.conn != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.conn.Run(ctx); err != nil {
				log.Error().Err(err).Msg("transport stopped")
			}
		}()
	}

	defer func() {
		c.session.Close()
		close(c.done)
		wg.Wait()
		log.Info().Msg("client stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-c.work:
			fn(ctx)
		}
	}
}

// Post queues fn for the control goroutine. After Run returns it is a no-op.
func (c *Client) Post(fn func(ctx context.Context)) {
	select {
	case c.work <- fn:
	case <-c.done:
	}
}

// Do runs fn against the session on the control goroutine and returns its error
func (c *Client) Do(ctx context.Context, fn func(ctx context.Context, s *session.Session) error) error {
	result := make(chan error, 1)
	task := func(ctx context.Context) {
		result <- fn(ctx, c.session)
	}

	select {
	case c.work <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// Leave returns to the start screen. The session forgets the room and the
// connection is dropped, which is how the server learns the player left.
// The next connect finds no saved identity and shows the entry screen.
func (c *Client) Leave(ctx context.Context) error {
	if err := c.Do(ctx, func(ctx context.Context, s *session.Session) error {
		return s.Leave(ctx)
	}); err != nil {
		return err
	}
	if c.conn != nil {
		c.conn.Drop()
	}
	return nil
}

// Status is a point-in-time summary of the session
type Status struct {
	Connected     bool   `json:"connected"`
	Phase         string `json:"phase"`
	RoomCode      string `json:"room_code,omitempty"`
	PlayerName    string `json:"player_name,omitempty"`
	PlayerID      string `json:"player_id,omitempty"`
	IsHost        bool   `json:"is_host"`
	Round         int    `json:"round"`
	Players       int    `json:"players"`
	RerollsLeft   int    `json:"rerolls_left"`
	SuperVoteUsed bool   `json:"super_vote_used"`
}

// Status reads the session on the control goroutine
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.Do(ctx, func(ctx context.Context, s *session.Session) error {
		id := s.Identity()
		st = Status{
			Connected:     c.isConnected(),
			Phase:         s.Phase().String(),
			RoomCode:      id.RoomCode,
			PlayerName:    id.PlayerName,
			PlayerID:      id.PlayerID,
			IsHost:        s.IsHost(),
			Round:         s.Round(),
			Players:       len(s.Players()),
			RerollsLeft:   s.RerollsLeft(),
			SuperVoteUsed: s.SuperVoteUsed(),
		}
		return nil
	})
	return st, err
}

func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = v
}

// OnConnected implements transport.Handler
func (c *Client) OnConnected(ctx context.Context) {
	c.setConnected(true)
	c.Post(func(ctx context.Context) {
		c.session.OnConnected(ctx)
	})
}

// OnDisconnected implements transport.Handler
func (c *Client) OnDisconnected(ctx context.Context, err error) {
	c.setConnected(false)
	c.Post(func(ctx context.Context) {
		c.session.OnDisconnected(ctx)
	})
}

// OnEvent implements transport.Handler. Frames are decoded on the
// transport goroutine; only the session update is posted.
func (c *Client) OnEvent(ctx context.Context, env *protocol.Envelope) {
	ev, err := protocol.Decode(env)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownEvent) {
			log.Debug().Str("type", string(env.Type)).Msg("dropping unknown event")
		} else {
			log.Warn().Err(err).Str("type", string(env.Type)).Msg("dropping undecodable event")
		}
		return
	}

	c.Post(func(ctx context.Context) {
		if err := c.session.Handle(ctx, ev); err != nil {
			log.Debug().Err(err).Str("type", string(env.Type)).Msg("event not applied")
		}
	})
}
