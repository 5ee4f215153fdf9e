package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Repository persists batch summaries. Implementations return summaries
// newest first.
type Repository interface {
	Save(ctx context.Context, s Summary) error
	Latest(ctx context.Context) (Summary, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}

const maxFileSummaries = 200

// FileRepository keeps summaries in a JSON file.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// DefaultPath returns name inside ~/.mgsim, creating the directory.
func DefaultPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".mgsim")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath("stats.json"); err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) load() ([]Summary, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Summary{}, nil
	}
	var out []Summary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FileRepository) Save(ctx context.Context, s Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return err
	}
	all = append([]Summary{s}, all...)
	if len(all) > maxFileSummaries {
		all = all[:maxFileSummaries]
	}
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRepository) Latest(ctx context.Context) (Summary, error) {
	list, err := r.List(ctx, 1)
	if err != nil {
		return Summary{}, err
	}
	if len(list) == 0 {
		return Summary{}, ErrNoSummary
	}
	return list[0], nil
}

func (r *FileRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *FileRepository) Close() error { return nil }

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// OpenRepository opens the repository for store. path is used by the file
// and sqlite stores, databaseURL by postgres.
func OpenRepository(ctx context.Context, store, path, databaseURL string) (Repository, error) {
	switch store {
	case "", StoreFile:
		return NewFileRepository(path)
	case StoreSQLite:
		return OpenSQLiteRepository(path)
	case StorePostgres:
		if databaseURL == "" {
			return nil, fmt.Errorf("%w: postgres store needs DATABASE_URL", ErrUnknownStore)
		}
		return OpenPostgresRepository(ctx, databaseURL)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStore, store)
}
