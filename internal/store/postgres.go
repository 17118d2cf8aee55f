package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/config"
)

// stateRowID keys the single document row.
const stateRowID = "tickets"

// PostgresStore keeps the ticket document in one JSONB row, upserted in
// full on every save.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and ensures the state table exists.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("POSTGRES_DSN required for postgres store backend")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	const schema = `
        CREATE TABLE IF NOT EXISTS ticket_state (
            id TEXT PRIMARY KEY,
            doc JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ticket_state table: %w", err)
	}

	logger.Info("connected to postgres store")
	return &PostgresStore{pool: pool}, nil
}

// Save upserts the whole document.
func (s *PostgresStore) Save(ctx context.Context, snapshot Snapshot) error {
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode ticket state: %w", err)
	}
	const query = `
        INSERT INTO ticket_state (id, doc, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`
	_, err = s.pool.Exec(ctx, query, stateRowID, doc)
	return err
}

// Load reads the document row; a missing row yields an empty snapshot.
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	const query = `SELECT doc FROM ticket_state WHERE id = $1`
	var doc []byte
	if err := s.pool.QueryRow(ctx, query, stateRowID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}

	snapshot := Snapshot{}
	if err := json.Unmarshal(doc, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode ticket state: %w", err)
	}
	return snapshot, nil
}

// Ping verifies connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases pool resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
