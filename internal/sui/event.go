package sui

import (
	"encoding/json"
	"fmt"
)

// EventID identifies one event on the ledger and doubles as the pagination
// cursor for suix_queryEvents.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// RawEvent is the wire envelope returned for every event, before decoding.
// ParsedJSON carries the Move-event payload and is interpreted per event
// type by the decoder.
type RawEvent struct {
	ID          EventID         `json:"id"`
	Type        string          `json:"type"`
	ParsedJSON  json.RawMessage `json:"parsedJson"`
	TimestampMs string          `json:"timestampMs"`
}

// EventPage is one page of a paginated event query.
type EventPage struct {
	Data        []RawEvent `json:"data"`
	NextCursor  *EventID   `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}

// EventTypes returns the fully qualified Move event types emitted by the
// fooswap contract under the given package ID, in the order they are polled.
func EventTypes(packageID string) []string {
	return []string{
		fmt.Sprintf("%s::fooswap::PoolCreatedEvent", packageID),
		fmt.Sprintf("%s::fooswap::SwapEvent", packageID),
	}
}
