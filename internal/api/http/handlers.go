package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ejspeight/fooswap-backend/internal/model"
	"github.com/ejspeight/fooswap-backend/internal/storage"
)

// Handler serves the read-only query API over the storage layer. Every
// handler is a pure function of storage state at call time.
type Handler struct {
	store  storage.Store
	logger *zap.Logger
}

func NewHandler(store storage.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Pools returns all pool rows.
func (h *Handler) Pools(w http.ResponseWriter, r *http.Request) {
	pools, err := h.store.ListPools(r.Context())
	if err != nil {
		h.serverError(w, "list pools", err)
		return
	}
	if err := respondData(w, pools); err != nil {
		h.logger.Error("write pools response", zap.Error(err))
	}
}

// Swaps returns the swap history for one pool, timestamp ascending. An
// unknown pool id yields an empty list, not an error.
func (h *Handler) Swaps(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "pool_id")

	swaps, err := h.store.ListSwaps(r.Context(), poolID)
	if err != nil {
		h.serverError(w, "list swaps", err)
		return
	}
	if err := respondData(w, swaps); err != nil {
		h.logger.Error("write swaps response", zap.Error(err))
	}
}

// Price computes the constant-product spot price for a token pair given as
// ?pair=TOKENA/TOKENB, matching either pool orientation.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		_ = respondError(w, http.StatusBadRequest, "missing `pair` query parameter")
		return
	}

	tokens := strings.Split(pair, "/")
	if len(tokens) != 2 || tokens[0] == "" || tokens[1] == "" {
		_ = respondError(w, http.StatusBadRequest, "query parameter `pair` must be in the form TOKENA/TOKENB")
		return
	}

	pool, reversed, err := h.store.FindPoolByTokens(r.Context(), tokens[0], tokens[1])
	if err != nil {
		if errors.Is(err, storage.ErrPoolNotFound) {
			_ = respondError(w, http.StatusNotFound, fmt.Sprintf("no pool found for %s", pair))
			return
		}
		h.serverError(w, "find pool", err)
		return
	}

	price, err := pool.SpotPrice(reversed)
	if err != nil {
		if errors.Is(err, model.ErrZeroReserve) {
			_ = respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("pool %s has a zero reserve, price undefined", pool.PoolID))
			return
		}
		h.serverError(w, "compute price", err)
		return
	}

	err = respondJSON(w, http.StatusOK, envelope{
		"status":  "ok",
		"pair":    pair,
		"pool_id": pool.PoolID,
		"price":   price,
	})
	if err != nil {
		h.logger.Error("write price response", zap.Error(err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	_ = respondError(w, http.StatusInternalServerError, "internal error")
}
