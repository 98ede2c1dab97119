// Package archive persists workshop artifacts (reflections and completed
// session summaries) to Postgres when a database is configured. It is a
// write-only observability sink: live room state never touches storage.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/scopesprint/scopesprint/internal/workshop"
)

const schema = `
CREATE TABLE IF NOT EXISTS workshop_reflections (
	id         UUID PRIMARY KEY,
	role       TEXT NOT NULL,
	reflection TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workshop_summaries (
	id         UUID PRIMARY KEY,
	room_code  TEXT NOT NULL,
	snapshot   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Repository stores workshop artifacts in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to Postgres and ensures the archive tables exist.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}

	log.Info().Msg("workshop archive connected")
	return &Repository{pool: pool}, nil
}

// SaveReflection stores one participant reflection.
func (r *Repository) SaveReflection(ctx context.Context, role workshop.Role, reflection string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO workshop_reflections (id, role, reflection) VALUES ($1, $2, $3)`,
		uuid.New(), string(role), reflection,
	)
	if err != nil {
		return fmt.Errorf("insert reflection: %w", err)
	}
	return nil
}

// SaveSummary stores the final snapshot of a completed workshop.
func (r *Repository) SaveSummary(ctx context.Context, roomCode string, snap workshop.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO workshop_summaries (id, room_code, snapshot) VALUES ($1, $2, $3)`,
		uuid.New(), roomCode, payload,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}
