package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps identities in a YAML document keyed by namespace, so
// several clients can share one file without clobbering each other.
type FileStore struct {
	path      string
	namespace string
	mu        sync.Mutex
}

type fileDocument struct {
	Sessions map[string]Identity `yaml:"sessions"`
}

// NewFileStore creates a store backed by the YAML file at path
func NewFileStore(path, namespace string) *FileStore {
	return &FileStore{path: path, namespace: namespace}
}

func (f *FileStore) Load(ctx context.Context) (Identity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return Identity{}, false, err
	}
	id, ok := doc.Sessions[f.namespace]
	return id, ok, nil
}

func (f *FileStore) Save(ctx context.Context, id Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Sessions[f.namespace] = id
	return f.write(doc)
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Sessions[f.namespace]; !ok {
		return nil
	}
	delete(doc.Sessions, f.namespace)
	return f.write(doc)
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) read() (*fileDocument, error) {
	doc := &fileDocument{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc.Sessions = make(map[string]Identity)
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]Identity)
	}
	return doc, nil
}

// write replaces the file atomically via a temp file in the same directory
func (f *FileStore) write(doc *fileDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
