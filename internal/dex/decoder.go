package dex

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ejspeight/fooswap-backend/internal/sui"
)

// Event is a decoded fooswap event. Exactly two kinds exist: PoolCreated
// and SwapOccurred. Consumers switch on the concrete type; adding an event
// kind extends this union and every switch over it.
type Event interface {
	isEvent()
}

// PoolCreated is emitted once when a liquidity pool is created.
type PoolCreated struct {
	PoolID    string
	TokenA    string
	TokenB    string
	ReserveA  float64
	ReserveB  float64
	Timestamp int64
	TxDigest  string
}

// SwapOccurred is emitted for every swap against a pool. ReserveA/ReserveB
// are the post-swap reserves as reported by the emitting transaction; the
// contract owns the swap math and the indexer trusts the reported values.
type SwapOccurred struct {
	PoolID    string
	Sender    string
	AmountIn  float64
	AmountOut float64
	ReserveA  float64
	ReserveB  float64
	Timestamp int64
	TxDigest  string
}

func (PoolCreated) isEvent()  {}
func (SwapOccurred) isEvent() {}

// DecodeError records a decode failure for one raw event so operators can
// detect schema drift. Malformed entries are reported, never silently
// skipped.
type DecodeError struct {
	TxDigest  string
	EventType string
	Reason    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event %s (%s): %s", e.TxDigest, e.EventType, e.Reason)
}

type poolCreatedPayload struct {
	PoolID          *string `json:"pool_id"`
	TokenA          *string `json:"token_a"`
	TokenB          *string `json:"token_b"`
	InitialReserveA *string `json:"initial_reserve_a"`
	InitialReserveB *string `json:"initial_reserve_b"`
}

type swapPayload struct {
	PoolID      *string `json:"pool_id"`
	Sender      *string `json:"sender"`
	AmountIn    *string `json:"amount_in"`
	AmountOut   *string `json:"amount_out"`
	NewReserveA *string `json:"new_reserve_a"`
	NewReserveB *string `json:"new_reserve_b"`
}

// Decode converts a raw event envelope into its typed form. Unknown event
// types and malformed payloads fail with a *DecodeError.
func Decode(raw sui.RawEvent) (Event, error) {
	ts, err := parseTimestamp(raw.TimestampMs)
	if err != nil {
		return nil, decodeErr(raw, "bad timestampMs %q", raw.TimestampMs)
	}

	switch {
	case strings.HasSuffix(raw.Type, "::fooswap::PoolCreatedEvent"):
		var p poolCreatedPayload
		if err := json.Unmarshal(raw.ParsedJSON, &p); err != nil {
			return nil, decodeErr(raw, "parse payload: %v", err)
		}
		if p.PoolID == nil || p.TokenA == nil || p.TokenB == nil {
			return nil, decodeErr(raw, "missing pool or token field")
		}
		reserveA, err := parseAmount(p.InitialReserveA)
		if err != nil {
			return nil, decodeErr(raw, "initial_reserve_a: %v", err)
		}
		reserveB, err := parseAmount(p.InitialReserveB)
		if err != nil {
			return nil, decodeErr(raw, "initial_reserve_b: %v", err)
		}
		return PoolCreated{
			PoolID:    *p.PoolID,
			TokenA:    *p.TokenA,
			TokenB:    *p.TokenB,
			ReserveA:  reserveA,
			ReserveB:  reserveB,
			Timestamp: ts,
			TxDigest:  raw.ID.TxDigest,
		}, nil

	case strings.HasSuffix(raw.Type, "::fooswap::SwapEvent"):
		var p swapPayload
		if err := json.Unmarshal(raw.ParsedJSON, &p); err != nil {
			return nil, decodeErr(raw, "parse payload: %v", err)
		}
		if p.PoolID == nil {
			return nil, decodeErr(raw, "missing pool_id")
		}
		amountIn, err := parseAmount(p.AmountIn)
		if err != nil {
			return nil, decodeErr(raw, "amount_in: %v", err)
		}
		amountOut, err := parseAmount(p.AmountOut)
		if err != nil {
			return nil, decodeErr(raw, "amount_out: %v", err)
		}
		reserveA, err := parseAmount(p.NewReserveA)
		if err != nil {
			return nil, decodeErr(raw, "new_reserve_a: %v", err)
		}
		reserveB, err := parseAmount(p.NewReserveB)
		if err != nil {
			return nil, decodeErr(raw, "new_reserve_b: %v", err)
		}
		var sender string
		if p.Sender != nil {
			sender = *p.Sender
		}
		return SwapOccurred{
			PoolID:    *p.PoolID,
			Sender:    sender,
			AmountIn:  amountIn,
			AmountOut: amountOut,
			ReserveA:  reserveA,
			ReserveB:  reserveB,
			Timestamp: ts,
			TxDigest:  raw.ID.TxDigest,
		}, nil

	default:
		return nil, decodeErr(raw, "unknown event type")
	}
}

func decodeErr(raw sui.RawEvent, format string, args ...any) *DecodeError {
	return &DecodeError{
		TxDigest:  raw.ID.TxDigest,
		EventType: raw.Type,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func parseTimestamp(ms string) (int64, error) {
	return strconv.ParseInt(ms, 10, 64)
}

// parseAmount parses the string-encoded numeric fields Move events carry.
// Zero is a valid amount; a missing or unparseable field is not.
func parseAmount(s *string) (float64, error) {
	if s == nil {
		return 0, fmt.Errorf("field missing")
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", *s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %q", *s)
	}
	return v, nil
}
