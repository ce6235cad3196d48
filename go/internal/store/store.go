package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown store backend")

// Identity is the cached session identity used to attempt a rejoin
type Identity struct {
	RoomCode   string `yaml:"room_code"`
	PlayerName string `yaml:"player_name"`
	PlayerID   string `yaml:"player_id"`
}

// Empty reports whether there is nothing worth rejoining with
func (i Identity) Empty() bool {
	return i.RoomCode == "" || i.PlayerName == ""
}

// Store persists one Identity per namespace
type Store interface {
	Load(ctx context.Context) (Identity, bool, error)
	Save(ctx context.Context, id Identity) error
	Clear(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend
type Config struct {
	Backend     string `yaml:"backend"`
	Namespace   string `yaml:"namespace"`
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// DefaultConfig returns a file store under the working directory
func DefaultConfig() Config {
	return Config{
		Backend:   BackendFile,
		Namespace: "makeitmeme",
		Path:      ".makeitmeme-session.yaml",
		Table:     "client_sessions",
	}
}

// Open builds the configured backend
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(cfg.Path, cfg.Namespace), nil
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Table, cfg.Namespace)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// MemoryStore keeps the identity for the lifetime of the process
type MemoryStore struct {
	mu  sync.Mutex
	id  Identity
	set bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (Identity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.set, nil
}

func (m *MemoryStore) Save(ctx context.Context, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	m.set = true
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = Identity{}
	m.set = false
	return nil
}

func (m *MemoryStore) Close() error { return nil }
