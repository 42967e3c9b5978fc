package model

import "errors"

// ErrZeroReserve is returned when a spot price cannot be computed because
// the denominator reserve is zero.
var ErrZeroReserve = errors.New("pool has zero reserve")

// Pool is the current reserve state of one liquidity pool. There is at most
// one row per PoolID; reserves always reflect the most recently applied
// event in source order.
type Pool struct {
	PoolID      string  `json:"pool_id"`
	TokenA      string  `json:"token_a"`
	TokenB      string  `json:"token_b"`
	ReserveA    float64 `json:"reserve_a"`
	ReserveB    float64 `json:"reserve_b"`
	LastUpdated int64   `json:"last_updated"`
}

// Swap is one historical swap transaction. TxDigest is unique across all
// rows and is the sole deduplication key.
type Swap struct {
	ID        int64   `json:"id"`
	PoolID    string  `json:"pool_id"`
	AmountIn  float64 `json:"amount_in"`
	AmountOut float64 `json:"amount_out"`
	Timestamp int64   `json:"timestamp"`
	TxDigest  string  `json:"tx_digest"`
}

// SpotPrice returns the constant-product spot price of the pair as
// reserve_b/reserve_a. When reversed is true the pair was matched against
// the pool in B/A orientation and the inverse ratio is returned instead.
func (p Pool) SpotPrice(reversed bool) (float64, error) {
	num, den := p.ReserveB, p.ReserveA
	if reversed {
		num, den = p.ReserveA, p.ReserveB
	}
	if den == 0 {
		return 0, ErrZeroReserve
	}
	return num / den, nil
}
