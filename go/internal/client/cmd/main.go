package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/client"
	"github.com/mcdev12/makeitmeme/go/internal/config"
	"github.com/mcdev12/makeitmeme/go/internal/render"
	"github.com/mcdev12/makeitmeme/go/internal/session"
	"github.com/mcdev12/makeitmeme/go/internal/status"
	"github.com/mcdev12/makeitmeme/go/internal/store"
)

func main() {
	configPath := flag.String("config", "memeclient.yaml", "path to YAML config")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open session store")
	}
	defer sessions.Close()

	latest := render.NewLatest(nil)
	renderers := render.Multi{render.NewLogRenderer(nil), latest}

	if cfg.NATS.Enabled {
		nr, err := render.NewNATSRenderer(cfg.NATS.NATSConfig)
		if err != nil {
			log.Error().Err(err).Msg("NATS unavailable, views stay local")
		} else {
			defer nr.Close()
			renderers = append(renderers, nr)
		}
	}

	log.Info().
		Str("server_url", cfg.Server.URL).
		Str("store", cfg.Store.Backend).
		Str("status_addr", cfg.Status.Addr).
		Msg("starting memeclient")

	c := client.New(client.Options{
		Transport: cfg.Server,
		Session:   cfg.Session,
		Renderer:  renderers,
		Store:     sessions,
	})

	var statusServer *status.Server
	if cfg.Status.Addr != "" {
		statusServer = status.NewServer(cfg.Status.Addr, latest, c)
		go func() {
			if err := statusServer.ListenAndServe(); err != nil {
				log.Error().Err(err).Msg("status server failed")
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Run(ctx); err != nil {
			log.Error().Err(err).Msg("client failed")
		}
	}()

	repl := &repl{client: c, defaultName: cfg.PlayerName}
	go repl.run(ctx, bufio.NewScanner(os.Stdin), cancel)

	// Wait for interrupt signal or quit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if statusServer != nil {
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status server shutdown failed")
		}
	}

	cancel()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("client did not stop in time")
	}

	log.Info().Msg("memeclient shutdown complete")
}

// act runs a session action and logs a rejection. Rejections are also
// rendered as notices by the session itself.
func act(ctx context.Context, c *client.Client, name string, fn func(ctx context.Context, s *session.Session) error) {
	if err := c.Do(ctx, fn); err != nil {
		log.Debug().Err(err).Str("command", name).Msg("command rejected")
	}
}
