package chatstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"wizdomai/pkg/domain"
)

// Namespace is the fixed key under which the whole project list is stored.
const Namespace = "wizdom-projects"

// ErrNotFound signals that no durable state exists yet.
var ErrNotFound = errors.New("chatstore: no durable state")

// Persister stores and reloads the entire project list as one JSON document.
type Persister interface {
	Save(projects []domain.Project) error
	Load() ([]domain.Project, error)
}

// FilePersister keeps the project list in a JSON file, the local-disk
// equivalent of browser local storage.
type FilePersister struct {
	path string
}

// NewFilePersister creates the parent directory if missing. An empty dir
// places the file in the current directory.
func NewFilePersister(dir string) (*FilePersister, error) {
	dir = strings.TrimSpace(dir)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	return &FilePersister{path: filepath.Join(dir, Namespace+".json")}, nil
}

// Save writes atomically via a temp file and rename, so a crash mid-write
// never corrupts the previous state.
func (f *FilePersister) Save(projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Load reads and decodes the project list. Timestamps come back as RFC 3339
// strings and reparse into time.Time through the standard JSON round trip.
func (f *FilePersister) Load() ([]domain.Project, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var projects []domain.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

// RedisPersister keeps the project list under a single Redis key, for setups
// where chat state should survive the local machine.
type RedisPersister struct {
	client *redis.Client
	key    string
}

// NewRedisPersister builds a Redis-backed persister.
func NewRedisPersister(addr, password string) *RedisPersister {
	return &RedisPersister{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		key: Namespace,
	}
}

// Save replaces the stored document. Last writer wins across processes.
func (r *RedisPersister) Save(projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write state key: %w", err)
	}
	return nil
}

// Load reads and decodes the stored document.
func (r *RedisPersister) Load() ([]domain.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read state key: %w", err)
	}
	var projects []domain.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}
