package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mgsim/internal/db"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// OpenPostgresRepository connects to databaseURL and applies the schema.
func OpenPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Save(ctx context.Context, s Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO mg.batch_summaries (id, created_at, games, failed, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.CreatedAt, s.Games, s.Failed, payload)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Latest(ctx context.Context) (Summary, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT payload FROM mg.batch_summaries ORDER BY created_at DESC LIMIT 1
	`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrNoSummary
	}
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(payload, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT payload FROM mg.batch_summaries ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var s Summary
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
