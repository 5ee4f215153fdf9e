package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"mgsim/internal/db"
)

type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLiteRepository opens (and if needed creates) the database at path.
func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath("stats.db"); err != nil {
			return nil, err
		}
	}
	conn, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: conn}, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO batch_summaries (id, created_at, games, failed, payload)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.CreatedAt, s.Games, s.Failed, string(payload))
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Latest(ctx context.Context) (Summary, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT payload FROM batch_summaries ORDER BY created_at DESC, rowid DESC LIMIT 1
	`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, ErrNoSummary
	}
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM batch_summaries ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var s Summary
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }
