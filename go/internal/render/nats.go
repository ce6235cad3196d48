package render

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/session"
)

// NATSConfig holds configuration for publishing frames to NATS
type NATSConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// DefaultNATSConfig returns default NATS publishing configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "memeclient.view",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Publisher is the subset of *nats.Conn the renderer needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSRenderer publishes every view as a JSON frame on <prefix>.<view> so
// overlays and spectator screens can follow the local player
type NATSRenderer struct {
	pub    Publisher
	prefix string
	clock  clockwork.Clock
	nc     *nats.Conn
}

// NewNATSRenderer connects to NATS and returns a renderer publishing to it
func NewNATSRenderer(config NATSConfig) (*NATSRenderer, error) {
	opts := []nats.Option{
		nats.Name("memeclient"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	r := NewPublisherRenderer(nc, config.SubjectPrefix, nil)
	r.nc = nc

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject_prefix", r.prefix).
		Msg("publishing views to NATS")

	return r, nil
}

// NewPublisherRenderer publishes through an existing connection
func NewPublisherRenderer(pub Publisher, prefix string, clock clockwork.Clock) *NATSRenderer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if prefix == "" {
		prefix = DefaultNATSConfig().SubjectPrefix
	}
	return &NATSRenderer{pub: pub, prefix: prefix, clock: clock}
}

// Subject returns the subject a view is published on
func (r *NATSRenderer) Subject(view string) string {
	return r.prefix + "." + view
}

// Render never blocks the session on NATS; failures are logged and dropped
func (r *NATSRenderer) Render(v session.View) {
	frame, err := NewFrame(v, r.clock.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode view frame")
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Str("view", frame.View).Msg("failed to marshal view frame")
		return
	}
	if err := r.pub.Publish(r.Subject(frame.View), data); err != nil {
		log.Warn().Err(err).Str("view", frame.View).Msg("failed to publish view frame")
	}
}

// Close drains the connection opened by NewNATSRenderer
func (r *NATSRenderer) Close() error {
	if r.nc == nil {
		return nil
	}
	if err := r.nc.Drain(); err != nil {
		r.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
