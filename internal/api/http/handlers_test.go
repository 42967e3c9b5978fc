package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejspeight/fooswap-backend/internal/model"
	"github.com/ejspeight/fooswap-backend/internal/storage"
)

type stubStore struct {
	pools []model.Pool
	swaps map[string][]model.Swap
}

func (s *stubStore) UpsertPool(context.Context, model.Pool) error { return nil }
func (s *stubStore) InsertSwap(context.Context, model.Swap) error { return nil }
func (s *stubStore) Ping(context.Context) error                   { return nil }

func (s *stubStore) ListPools(context.Context) ([]model.Pool, error) {
	return s.pools, nil
}

func (s *stubStore) ListSwaps(_ context.Context, poolID string) ([]model.Swap, error) {
	swaps, ok := s.swaps[poolID]
	if !ok {
		return []model.Swap{}, nil
	}
	return swaps, nil
}

func (s *stubStore) FindPoolByTokens(_ context.Context, tokenA, tokenB string) (model.Pool, bool, error) {
	for _, p := range s.pools {
		if p.TokenA == tokenA && p.TokenB == tokenB {
			return p, false, nil
		}
		if p.TokenA == tokenB && p.TokenB == tokenA {
			return p, true, nil
		}
	}
	return model.Pool{}, false, storage.ErrPoolNotFound
}

func newTestServer(store storage.Store) *httptest.Server {
	h := NewHandler(store, nil)
	return httptest.NewServer(BuildRouter(h, nil))
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubStore{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestPools(t *testing.T) {
	store := &stubStore{
		pools: []model.Pool{
			{PoolID: "0xpool", TokenA: "USDC", TokenB: "SUI", ReserveA: 1000, ReserveB: 500, LastUpdated: 42},
		},
	}
	srv := newTestServer(store)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/pools")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)

	pool := data[0].(map[string]any)
	assert.Equal(t, "0xpool", pool["pool_id"])
	assert.Equal(t, 1000.0, pool["reserve_a"])
	assert.Equal(t, 500.0, pool["reserve_b"])
}

func TestSwapsUnknownPoolReturnsEmptyList(t *testing.T) {
	srv := newTestServer(&stubStore{swaps: map[string][]model.Swap{}})
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/swaps/0xunknown")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Empty(t, data)
}

func TestSwapsHistory(t *testing.T) {
	store := &stubStore{
		swaps: map[string][]model.Swap{
			"0xpool": {
				{ID: 1, PoolID: "0xpool", AmountIn: 100, AmountOut: 48, Timestamp: 200, TxDigest: "S1"},
				{ID: 2, PoolID: "0xpool", AmountIn: 50, AmountOut: 23, Timestamp: 300, TxDigest: "S2"},
			},
		},
	}
	srv := newTestServer(store)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/swaps/0xpool")
	assert.Equal(t, http.StatusOK, status)

	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "S1", first["tx_digest"])
	assert.Equal(t, 100.0, first["amount_in"])
}

func TestPrice(t *testing.T) {
	store := &stubStore{
		pools: []model.Pool{
			{PoolID: "0xpool", TokenA: "USDC", TokenB: "SUI", ReserveA: 1000, ReserveB: 500},
		},
	}
	srv := newTestServer(store)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/price?pair=USDC/SUI")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "USDC/SUI", body["pair"])
	assert.Equal(t, "0xpool", body["pool_id"])
	assert.Equal(t, 0.5, body["price"])
}

func TestPriceReversedOrientation(t *testing.T) {
	store := &stubStore{
		pools: []model.Pool{
			{PoolID: "0xpool", TokenA: "USDC", TokenB: "SUI", ReserveA: 1000, ReserveB: 500},
		},
	}
	srv := newTestServer(store)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/price?pair=SUI/USDC")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, body["price"])
}

func TestPriceMissingPair(t *testing.T) {
	srv := newTestServer(&stubStore{})
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/price")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body["status"])
}

func TestPriceMalformedPair(t *testing.T) {
	srv := newTestServer(&stubStore{})
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/price?pair=USDCSUI")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body["status"])
}

func TestPriceUnknownPair(t *testing.T) {
	srv := newTestServer(&stubStore{})
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/price?pair=FOO/BAR")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "error", body["status"])
}

func TestPriceZeroReserve(t *testing.T) {
	store := &stubStore{
		pools: []model.Pool{
			{PoolID: "0xpool", TokenA: "USDC", TokenB: "SUI", ReserveA: 0, ReserveB: 500},
		},
	}
	srv := newTestServer(store)
	defer srv.Close()

	status, body := getJSON(t, srv.URL+"/api/price?pair=USDC/SUI")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "error", body["status"])
}
