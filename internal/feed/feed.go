package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/spabhijna/Attack-graph-reconstruction/internal/signals"
)

// fetchMethod is the collector's pull RPC. The payload is a struct-typed
// message on both sides, so no generated stubs are needed here.
const fetchMethod = "/telemetry.Collector/FetchEvents"

// #region invoker
// Invoker abstracts the RPC transport. *grpc.ClientConn satisfies it; tests
// inject their own.
type Invoker interface {
	Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error
}

// #endregion invoker

// #region client-struct
// Client pulls raw telemetry records from a collector service.
type Client struct {
	conn    *grpc.ClientConn
	invoker Invoker
}

// NewClient connects to the collector gRPC endpoint.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, invoker: conn}, nil
}

// NewClientWithInvoker creates a Client with an injected transport. Used for
// testing without a real gRPC connection.
func NewClientWithInvoker(inv Invoker) *Client {
	return &Client{invoker: inv}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion client-struct

// #region fetch
// FetchEvents pulls up to limit telemetry records observed since the given
// time. The collector returns them oldest first.
func (c *Client) FetchEvents(ctx context.Context, since time.Time, limit int) ([]signals.Record, error) {
	req, err := structpb.NewStruct(map[string]any{
		"since": since.Unix(),
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	reply := &structpb.Struct{}
	if err := c.invoker.Invoke(ctx, fetchMethod, req, reply); err != nil {
		return nil, fmt.Errorf("fetch events rpc: %w", err)
	}

	events, ok := reply.AsMap()["events"]
	if !ok {
		return nil, nil
	}
	// The struct payload decodes to generic maps; a JSON round-trip puts it
	// into typed records.
	raw, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode events payload: %w", err)
	}
	var records []signals.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode events payload: %w", err)
	}
	return records, nil
}

// #endregion fetch

// #region pull-batch
// PullBatch fetches records and runs extraction in one step.
func (c *Client) PullBatch(ctx context.Context, since time.Time, limit int) (signals.Batch, error) {
	records, err := c.FetchEvents(ctx, since, limit)
	if err != nil {
		return signals.Batch{}, err
	}
	return signals.Ingest(records), nil
}

// #endregion pull-batch
