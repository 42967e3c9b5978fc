package storage

import (
	"context"
	"errors"

	"github.com/ejspeight/fooswap-backend/internal/model"
)

// ErrAlreadyProcessed reports that a swap with the same tx digest has
// already been ingested. It is the expected idempotency signal, not a
// failure.
var ErrAlreadyProcessed = errors.New("swap already processed")

// ErrPoolNotFound reports that no pool matches the requested token pair.
var ErrPoolNotFound = errors.New("pool not found")

// Store owns the pools and swaps tables. Writes are transactionally
// isolated per call; readers observe either the pre- or post-write state of
// a row, never a partial one.
type Store interface {
	// UpsertPool inserts the pool if absent, otherwise overwrites its
	// reserves and last_updated. Token identifiers are only set on first
	// insert. Callers present events in source order, so the overwrite is
	// last-writer-wins by event order.
	UpsertPool(ctx context.Context, pool model.Pool) error

	// InsertSwap inserts one swap row. If the tx digest already exists it
	// returns ErrAlreadyProcessed and leaves the table unchanged.
	InsertSwap(ctx context.Context, swap model.Swap) error

	// ListPools returns a snapshot of all pools. Order is not guaranteed.
	ListPools(ctx context.Context) ([]model.Pool, error)

	// ListSwaps returns all swaps for a pool, timestamp ascending. An
	// unknown pool yields an empty slice.
	ListSwaps(ctx context.Context, poolID string) ([]model.Swap, error)

	// FindPoolByTokens finds the pool holding the pair in either
	// orientation. reversed is true when the pool stores the pair as
	// (tokenB, tokenA). Returns ErrPoolNotFound when no pool matches.
	FindPoolByTokens(ctx context.Context, tokenA, tokenB string) (model.Pool, bool, error)

	// Ping verifies the storage connection is alive.
	Ping(ctx context.Context) error
}
