package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/protocol"
)

var (
	// ErrNotConnected is returned by Emit while there is no live connection
	ErrNotConnected = errors.New("not connected to game server")
	// ErrSendBufferFull is returned by Emit when the write pump is behind
	ErrSendBufferFull = errors.New("send buffer full")
)

// Handler receives connection lifecycle and inbound frames. Calls come from
// the transport's goroutines; implementations hand them off to their own loop.
type Handler interface {
	OnConnected(ctx context.Context)
	OnDisconnected(ctx context.Context, err error)
	OnEvent(ctx context.Context, env *protocol.Envelope)
}

// Config holds configuration for the game server connection
type Config struct {
	URL             string        `yaml:"url"`
	ClientID        string        `yaml:"client_id"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	SendBuffer      int           `yaml:"send_buffer"`
	MinBackoff      time.Duration `yaml:"min_backoff"`
	MaxBackoff      time.Duration `yaml:"max_backoff"`
}

// DefaultConfig returns default connection configuration
func DefaultConfig() Config {
	return Config{
		URL:             "ws://localhost:5000/ws",
		DialTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024, // snapshots carry the whole roster and results
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      64,
		MinBackoff:      500 * time.Millisecond,
		MaxBackoff:      15 * time.Second,
	}
}

// Client keeps one websocket connection to the game server alive,
// reconnecting with exponential backoff
type Client struct {
	cfg     Config
	dialer  *websocket.Dialer
	clock   clockwork.Clock
	handler Handler

	mu   sync.Mutex
	conn *connection
}

// connection is one dialed websocket and its pumps
type connection struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a client. Run starts connecting.
func New(cfg Config, handler Handler, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = cfg.MinBackoff
	}

	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.DialTimeout,
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
		},
		clock:   clock,
		handler: handler,
	}
}

// Run connects and keeps reconnecting until ctx is cancelled
func (c *Client) Run(ctx context.Context) error {
	log.Info().Str("url", c.cfg.URL).Str("client_id", c.cfg.ClientID).Msg("game server client started")

	backoff := c.cfg.MinBackoff
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to connect to game server")
			if !c.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
			continue
		}
		backoff = c.cfg.MinBackoff

		c.setConn(conn)
		c.handler.OnConnected(ctx)

		go conn.writePump(c.cfg, c.clock)
		err = conn.readPump(ctx, c.cfg, c.handler)

		conn.close()
		c.setConn(nil)
		c.handler.OnDisconnected(ctx, err)

		if ctx.Err() != nil {
			log.Info().Msg("game server client shutting down")
			return nil
		}
		log.Warn().Err(err).Str("connection_id", conn.id).Msg("connection to game server lost")
		if !c.sleep(ctx, backoff) {
			return nil
		}
	}
}

func (c *Client) dial(ctx context.Context) (*connection, error) {
	header := http.Header{}
	header.Set("X-Client-ID", c.cfg.ClientID)

	ws, _, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", c.cfg.URL, err)
	}

	conn := &connection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, c.cfg.SendBuffer),
		done: make(chan struct{}),
	}

	log.Info().
		Str("connection_id", conn.id).
		Str("url", c.cfg.URL).
		Msg("WebSocket connection established")

	return conn, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(d):
		return true
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func (c *Client) setConn(conn *connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

// Drop closes the current connection, if any. Run reconnects after the
// usual backoff, so the server sees this player leave.
func (c *Client) Drop() bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return false
	}

	log.Info().Str("connection_id", conn.id).Msg("dropping connection to game server")
	conn.close()
	return true
}

// Connected reports whether a connection is currently up
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Emit frames cmd and queues it for the write pump. It never blocks.
func (c *Client) Emit(ctx context.Context, cmd protocol.Command) error {
	env, err := protocol.NewEnvelope(cmd)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	select {
	case <-conn.done:
		return ErrNotConnected
	default:
	}

	select {
	case conn.send <- data:
		log.Debug().
			Str("connection_id", conn.id).
			Str("type", string(env.Type)).
			Str("frame_id", env.ID).
			Msg("frame queued")
		return nil
	default:
		log.Warn().Str("connection_id", conn.id).Msg("send buffer full, dropping frame")
		return ErrSendBufferFull
	}
}

// close asks the write pump to say goodbye and tear the socket down
func (conn *connection) close() {
	conn.closeOnce.Do(func() {
		close(conn.done)
	})
}

// writePump handles sending frames and pings to the server. It is the only
// writer, so it also sends the close frame and closes the socket.
func (conn *connection) writePump(cfg Config, clock clockwork.Clock) {
	ticker := clock.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.close()
		conn.ws.Close()
	}()

	for {
		select {
		case <-conn.done:
			conn.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", conn.id).
					Msg("failed to send close frame")
			}
			return

		case message := <-conn.send:
			conn.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", conn.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			conn.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", conn.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump reads frames until the connection fails or ctx is cancelled
func (conn *connection) readPump(ctx context.Context, cfg Config, handler Handler) error {
	go func() {
		select {
		case <-ctx.Done():
			conn.close()
		case <-conn.done:
		}
	}()

	conn.ws.SetReadLimit(cfg.MaxMessageSize)
	conn.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.ws.SetPongHandler(func(string) error {
		conn.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", conn.id).
					Msg("unexpected WebSocket close error")
			}
			return err
		}
		conn.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		var env protocol.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().
				Err(err).
				Str("connection_id", conn.id).
				Msg("dropping malformed frame")
			continue
		}
		handler.OnEvent(ctx, &env)
	}
}
