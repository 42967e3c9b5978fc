package sui

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps the ledger JSON-RPC endpoint and provides the paginated
// event query the indexer consumes.
type Client struct {
	rpcClient *rpc.Client
}

// NewClient creates a new ledger client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// QueryEvents fetches one page of events of the given Move event type.
// A nil cursor starts from the beginning of the feed; limit bounds the page
// size. Entries are returned in the order the ledger reports them.
func (c *Client) QueryEvents(ctx context.Context, eventType string, cursor *EventID, limit int) (EventPage, error) {
	filter := map[string]any{"MoveEventType": eventType}

	var page EventPage
	// Final param orders the feed ascending (descending=false).
	if err := c.rpcClient.CallContext(ctx, &page, "suix_queryEvents", filter, cursor, limit, false); err != nil {
		return EventPage{}, fmt.Errorf("query events %q: %w", eventType, err)
	}
	return page, nil
}
