package dex

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ejspeight/fooswap-backend/internal/sui"
)

func rawEvent(t *testing.T, eventType, digest, tsMs string, payload map[string]any) sui.RawEvent {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return sui.RawEvent{
		ID:          sui.EventID{TxDigest: digest, EventSeq: "0"},
		Type:        eventType,
		ParsedJSON:  data,
		TimestampMs: tsMs,
	}
}

func TestDecodePoolCreated(t *testing.T) {
	raw := rawEvent(t, "0xabc::fooswap::PoolCreatedEvent", "DigestP", "1751104133893", map[string]any{
		"creator":           "0xcafe",
		"pool_id":           "0xpool",
		"token_a":           "USDC",
		"token_b":           "SUI",
		"initial_reserve_a": "1000",
		"initial_reserve_b": "500",
	})

	evt, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created, ok := evt.(PoolCreated)
	if !ok {
		t.Fatalf("expected PoolCreated, got %T", evt)
	}
	if created.PoolID != "0xpool" || created.TokenA != "USDC" || created.TokenB != "SUI" {
		t.Fatalf("identity mismatch: %+v", created)
	}
	if created.ReserveA != 1000 || created.ReserveB != 500 {
		t.Fatalf("reserve mismatch: %+v", created)
	}
	if created.Timestamp != 1751104133893 {
		t.Fatalf("timestamp mismatch: %d", created.Timestamp)
	}
	if created.TxDigest != "DigestP" {
		t.Fatalf("digest mismatch: %s", created.TxDigest)
	}
}

func TestDecodePoolCreatedZeroReserves(t *testing.T) {
	raw := rawEvent(t, "0xabc::fooswap::PoolCreatedEvent", "DigestZ", "1", map[string]any{
		"pool_id":           "0xpool",
		"token_a":           "USDC",
		"token_b":           "SUI",
		"initial_reserve_a": "0",
		"initial_reserve_b": "0",
	})

	evt, err := Decode(raw)
	if err != nil {
		t.Fatalf("zero reserves must decode: %v", err)
	}
	created := evt.(PoolCreated)
	if created.ReserveA != 0 || created.ReserveB != 0 {
		t.Fatalf("reserve mismatch: %+v", created)
	}
}

func TestDecodeSwapOccurred(t *testing.T) {
	raw := rawEvent(t, "0xabc::fooswap::SwapEvent", "DigestS", "1751104259632", map[string]any{
		"pool_id":       "0xpool",
		"sender":        "0xsender",
		"amount_in":     "100",
		"amount_out":    "48.5",
		"new_reserve_a": "1100",
		"new_reserve_b": "451.5",
	})

	evt, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	swap, ok := evt.(SwapOccurred)
	if !ok {
		t.Fatalf("expected SwapOccurred, got %T", evt)
	}
	if swap.PoolID != "0xpool" || swap.Sender != "0xsender" {
		t.Fatalf("identity mismatch: %+v", swap)
	}
	if swap.AmountIn != 100 || swap.AmountOut != 48.5 {
		t.Fatalf("amount mismatch: %+v", swap)
	}
	if swap.ReserveA != 1100 || swap.ReserveB != 451.5 {
		t.Fatalf("reserve mismatch: %+v", swap)
	}
	if swap.TxDigest != "DigestS" {
		t.Fatalf("digest mismatch: %s", swap.TxDigest)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  sui.RawEvent
	}{
		{
			name: "unknown event type",
			raw: rawEvent(t, "0xabc::fooswap::LiquidityEvent", "D1", "1", map[string]any{
				"pool_id": "0xpool",
			}),
		},
		{
			name: "missing pool_id",
			raw: rawEvent(t, "0xabc::fooswap::SwapEvent", "D2", "1", map[string]any{
				"amount_in":     "1",
				"amount_out":    "1",
				"new_reserve_a": "1",
				"new_reserve_b": "1",
			}),
		},
		{
			name: "unparseable amount",
			raw: rawEvent(t, "0xabc::fooswap::SwapEvent", "D3", "1", map[string]any{
				"pool_id":       "0xpool",
				"amount_in":     "not-a-number",
				"amount_out":    "1",
				"new_reserve_a": "1",
				"new_reserve_b": "1",
			}),
		},
		{
			name: "missing reserve",
			raw: rawEvent(t, "0xabc::fooswap::PoolCreatedEvent", "D4", "1", map[string]any{
				"pool_id":           "0xpool",
				"token_a":           "USDC",
				"token_b":           "SUI",
				"initial_reserve_a": "10",
			}),
		},
		{
			name: "bad timestamp",
			raw: rawEvent(t, "0xabc::fooswap::SwapEvent", "D5", "not-ms", map[string]any{
				"pool_id":       "0xpool",
				"amount_in":     "1",
				"amount_out":    "1",
				"new_reserve_a": "1",
				"new_reserve_b": "1",
			}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			if err == nil {
				t.Fatalf("expected decode error")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
			if decodeErr.TxDigest != tc.raw.ID.TxDigest {
				t.Fatalf("digest mismatch: %s", decodeErr.TxDigest)
			}
		})
	}
}
