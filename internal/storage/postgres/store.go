package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ejspeight/fooswap-backend/internal/model"
	"github.com/ejspeight/fooswap-backend/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	pool_id      TEXT PRIMARY KEY,
	token_a      TEXT NOT NULL,
	token_b      TEXT NOT NULL,
	reserve_a    DOUBLE PRECISION NOT NULL DEFAULT 0,
	reserve_b    DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_updated BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_pools_last_updated ON pools (last_updated);

CREATE TABLE IF NOT EXISTS swaps (
	id         BIGSERIAL PRIMARY KEY,
	pool_id    TEXT NOT NULL,
	amount_in  DOUBLE PRECISION NOT NULL,
	amount_out DOUBLE PRECISION NOT NULL,
	timestamp  BIGINT NOT NULL,
	tx_digest  TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_swaps_pool_ts ON swaps (pool_id, timestamp);
`

// Store provides Postgres persistence for pools and swaps.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the pools and swaps tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertPool inserts or updates one pool row. On conflict only reserves and
// last_updated are overwritten; tokens keep the values from first insert.
func (s *Store) UpsertPool(ctx context.Context, pool model.Pool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (pool_id, token_a, token_b, reserve_a, reserve_b, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pool_id)
		DO UPDATE SET
			reserve_a = EXCLUDED.reserve_a,
			reserve_b = EXCLUDED.reserve_b,
			last_updated = EXCLUDED.last_updated
	`,
		pool.PoolID,
		pool.TokenA,
		pool.TokenB,
		pool.ReserveA,
		pool.ReserveB,
		pool.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert pool %s: %w", pool.PoolID, err)
	}
	return nil
}

// InsertSwap inserts one swap row. The unique constraint on tx_digest makes
// re-ingestion a no-op: a conflicting insert affects zero rows and is
// reported as storage.ErrAlreadyProcessed.
func (s *Store) InsertSwap(ctx context.Context, swap model.Swap) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO swaps (pool_id, amount_in, amount_out, timestamp, tx_digest)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tx_digest) DO NOTHING
	`,
		swap.PoolID,
		swap.AmountIn,
		swap.AmountOut,
		swap.Timestamp,
		swap.TxDigest,
	)
	if err != nil {
		return fmt.Errorf("insert swap %s: %w", swap.TxDigest, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAlreadyProcessed
	}
	return nil
}

func (s *Store) ListPools(ctx context.Context) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_id, token_a, token_b, reserve_a, reserve_b, last_updated
		FROM pools
	`)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	pools := make([]model.Pool, 0)
	for rows.Next() {
		var p model.Pool
		if err := rows.Scan(&p.PoolID, &p.TokenA, &p.TokenB, &p.ReserveA, &p.ReserveB, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	return pools, nil
}

func (s *Store) ListSwaps(ctx context.Context, poolID string) ([]model.Swap, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, pool_id, amount_in, amount_out, timestamp, tx_digest
		FROM swaps
		WHERE pool_id = $1
		ORDER BY timestamp ASC
	`, poolID)
	if err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}
	defer rows.Close()

	swaps := make([]model.Swap, 0)
	for rows.Next() {
		var sw model.Swap
		if err := rows.Scan(&sw.ID, &sw.PoolID, &sw.AmountIn, &sw.AmountOut, &sw.Timestamp, &sw.TxDigest); err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		swaps = append(swaps, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}
	return swaps, nil
}

// FindPoolByTokens matches the pair in either orientation and reports
// whether the match was reversed so price direction can be computed.
func (s *Store) FindPoolByTokens(ctx context.Context, tokenA, tokenB string) (model.Pool, bool, error) {
	var p model.Pool
	row := s.pool.QueryRow(ctx, `
		SELECT pool_id, token_a, token_b, reserve_a, reserve_b, last_updated
		FROM pools
		WHERE (token_a = $1 AND token_b = $2)
		   OR (token_a = $2 AND token_b = $1)
		LIMIT 1
	`, tokenA, tokenB)
	if err := row.Scan(&p.PoolID, &p.TokenA, &p.TokenB, &p.ReserveA, &p.ReserveB, &p.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, storage.ErrPoolNotFound
		}
		return model.Pool{}, false, fmt.Errorf("find pool by tokens: %w", err)
	}
	reversed := p.TokenA != tokenA
	return p, reversed, nil
}
