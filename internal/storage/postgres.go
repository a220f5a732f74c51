package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/holdings/pkg/config"
	"github.com/wonny/holdings/pkg/database"
)

// Postgres stores each key as one JSONB row of the collections table
type Postgres struct {
	db     *pgxpool.Pool
	prefix string
	owned  *database.DB
}

const createCollectionsTable = `
	CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// NewPostgres wraps an existing pool and makes sure the table exists
func NewPostgres(ctx context.Context, db *pgxpool.Pool, prefix string) (*Postgres, error) {
	if _, err := db.Exec(ctx, createCollectionsTable); err != nil {
		return nil, fmt.Errorf("create collections table: %w", err)
	}
	return &Postgres{db: db, prefix: prefix}, nil
}

// OpenPostgres connects using cfg.Database
func OpenPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p, err := NewPostgres(ctx, db.Pool, cfg.Storage.Prefix)
	if err != nil {
		db.Close()
		return nil, err
	}
	p.owned = db
	return p, nil
}

func (p *Postgres) rowKey(key string) string {
	return p.prefix + ":" + key
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	query := `SELECT payload FROM collections WHERE key = $1`

	var payload []byte
	err := p.db.QueryRow(ctx, query, p.rowKey(key)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query collection %s: %w", key, err)
	}
	return payload, true, nil
}

func (p *Postgres) Save(ctx context.Context, key string, blob []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	query := `
		INSERT INTO collections (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`

	if _, err := p.db.Exec(ctx, query, p.rowKey(key), string(blob)); err != nil {
		return fmt.Errorf("upsert collection %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Driver() string { return config.DriverPostgres }

func (p *Postgres) Close() error {
	if p.owned != nil {
		p.owned.Close()
	}
	return nil
}
