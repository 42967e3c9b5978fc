package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ejspeight/fooswap-backend/internal/dex"
	"github.com/ejspeight/fooswap-backend/internal/model"
	"github.com/ejspeight/fooswap-backend/internal/storage"
	"github.com/ejspeight/fooswap-backend/internal/sui"
)

const (
	// DefaultPollInterval is the fixed period between ticks. Polling is
	// cheap relative to the interval, so there is no backoff on failure.
	DefaultPollInterval = 5 * time.Second

	// DefaultPageSize bounds memory and request latency per fetch.
	DefaultPageSize = 100
)

// EventSource is the paginated event feed the runner consumes. *sui.Client
// satisfies it; tests inject a fake.
type EventSource interface {
	QueryEvents(ctx context.Context, eventType string, cursor *sui.EventID, limit int) (sui.EventPage, error)
}

// RunConfig holds runtime settings for the ingestion loop.
type RunConfig struct {
	PackageID    string
	PageSize     int
	PollInterval time.Duration
}

// Runner polls the ledger for fooswap events and applies them to storage.
// It is the single logical writer; ticks run one at a time and never
// overlap. Cursors live only in memory: after a restart the feed is
// replayed from the start and the tx digest uniqueness constraint makes
// re-ingestion a no-op.
type Runner struct {
	cfg     RunConfig
	source  EventSource
	store   storage.Store
	logger  *zap.Logger
	seen    map[string]struct{}
	cursors map[string]*sui.EventID
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source EventSource, store storage.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		store:   store,
		logger:  logger,
		seen:    make(map[string]struct{}),
		cursors: make(map[string]*sui.EventID),
	}
}

// Run executes the polling loop until the context is cancelled. A failed
// tick is logged and retried on the next interval; no error in the
// ingestion path terminates the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("event source is nil")
	}
	if r.store == nil {
		return fmt.Errorf("store is nil")
	}
	if r.cfg.PackageID == "" {
		return fmt.Errorf("package id is required")
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := r.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Warn("tick failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// PollOnce runs a single tick: for each event type, pages through the feed
// from the current cursor, applying entries as they arrive. A fetch or
// storage failure aborts the tick; everything already applied stays
// committed and the cursor is left on the last fully applied page.
func (r *Runner) PollOnce(ctx context.Context) error {
	for _, eventType := range sui.EventTypes(r.cfg.PackageID) {
		if err := r.drainEventType(ctx, eventType); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) drainEventType(ctx context.Context, eventType string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := r.source.QueryEvents(ctx, eventType, r.cursors[eventType], r.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", eventType, err)
		}

		for _, raw := range page.Data {
			if r.wasSeen(raw.ID) {
				continue
			}

			evt, err := dex.Decode(raw)
			if err != nil {
				// Best-effort forward progress: one malformed entry must
				// not abort the page.
				r.logger.Warn("skip malformed event",
					zap.String("tx_digest", raw.ID.TxDigest),
					zap.String("event_type", raw.Type),
					zap.Error(err),
				)
				r.markSeen(raw.ID)
				continue
			}

			if err := r.applyEvent(ctx, evt); err != nil {
				// Not marked seen: the aborted tick left the cursor on
				// this page, and the next tick must re-apply the entry.
				// The tx_digest constraint absorbs any already-committed
				// portion.
				return err
			}
			r.markSeen(raw.ID)
		}

		if page.NextCursor != nil {
			r.cursors[eventType] = page.NextCursor
		} else if page.HasNextPage {
			return fmt.Errorf("fetch %s: page reports more data but no cursor", eventType)
		}
		if !page.HasNextPage {
			return nil
		}
	}
}

// applyEvent persists one decoded event. For swaps the pool reserves are
// only advanced when the swap row was actually inserted, so replayed
// events cannot drag reserves backwards.
func (r *Runner) applyEvent(ctx context.Context, evt dex.Event) error {
	switch e := evt.(type) {
	case dex.PoolCreated:
		pool := model.Pool{
			PoolID:      e.PoolID,
			TokenA:      e.TokenA,
			TokenB:      e.TokenB,
			ReserveA:    e.ReserveA,
			ReserveB:    e.ReserveB,
			LastUpdated: e.Timestamp,
		}
		if err := r.store.UpsertPool(ctx, pool); err != nil {
			return fmt.Errorf("apply pool created %s: %w", e.PoolID, err)
		}
		r.logger.Info("pool created",
			zap.String("pool_id", e.PoolID),
			zap.String("token_a", e.TokenA),
			zap.String("token_b", e.TokenB),
		)
		return nil

	case dex.SwapOccurred:
		swap := model.Swap{
			PoolID:    e.PoolID,
			AmountIn:  e.AmountIn,
			AmountOut: e.AmountOut,
			Timestamp: e.Timestamp,
			TxDigest:  e.TxDigest,
		}
		err := r.store.InsertSwap(ctx, swap)
		if errors.Is(err, storage.ErrAlreadyProcessed) {
			r.logger.Debug("swap already processed", zap.String("tx_digest", e.TxDigest))
			return nil
		}
		if err != nil {
			return fmt.Errorf("apply swap %s: %w", e.TxDigest, err)
		}

		// The event carries the authoritative post-swap reserves.
		pool := model.Pool{
			PoolID:      e.PoolID,
			ReserveA:    e.ReserveA,
			ReserveB:    e.ReserveB,
			LastUpdated: e.Timestamp,
		}
		if err := r.store.UpsertPool(ctx, pool); err != nil {
			return fmt.Errorf("update reserves for %s: %w", e.PoolID, err)
		}
		r.logger.Info("swap ingested",
			zap.String("pool_id", e.PoolID),
			zap.String("tx_digest", e.TxDigest),
			zap.Float64("amount_in", e.AmountIn),
			zap.Float64("amount_out", e.AmountOut),
		)
		return nil

	default:
		return fmt.Errorf("unhandled event kind %T", evt)
	}
}

func (r *Runner) wasSeen(id sui.EventID) bool {
	_, ok := r.seen[id.TxDigest+":"+id.EventSeq]
	return ok
}

func (r *Runner) markSeen(id sui.EventID) {
	r.seen[id.TxDigest+":"+id.EventSeq] = struct{}{}
}
