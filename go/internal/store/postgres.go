package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// PostgresStore shares cached identities between processes, e.g. a fleet of
// bot clients on one machine. One row per namespace.
type PostgresStore struct {
	pool      *pgxpool.Pool
	table     string
	namespace string
}

// NewPostgresStore connects and makes sure the table exists
func NewPostgresStore(ctx context.Context, databaseURL, table, namespace string) (*PostgresStore, error) {
	if table == "" {
		table = "client_sessions"
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{
		pool:      pool,
		table:     pq.QuoteIdentifier(table),
		namespace: namespace,
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Str("table", table).
		Str("namespace", namespace).
		Msg("postgres session store ready")

	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+s.table+` (
		  namespace   TEXT PRIMARY KEY,
		  room_code   TEXT NOT NULL,
		  player_name TEXT NOT NULL,
		  player_id   TEXT NOT NULL,
		  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create session table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Identity, bool, error) {
	var id Identity
	err := s.pool.QueryRow(ctx,
		`SELECT room_code, player_name, player_id FROM `+s.table+` WHERE namespace = $1`,
		s.namespace,
	).Scan(&id.RoomCode, &id.PlayerName, &id.PlayerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, false, nil
		}
		return Identity{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	return id, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, id Identity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table+` (namespace, room_code, player_name, player_id, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (namespace) DO UPDATE
		SET room_code = EXCLUDED.room_code,
		    player_name = EXCLUDED.player_name,
		    player_id = EXCLUDED.player_id,
		    updated_at = now()`,
		s.namespace, id.RoomCode, id.PlayerName, id.PlayerID,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE namespace = $1`, s.namespace); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
