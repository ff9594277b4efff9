package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/connect"
)

// Operation names shared by the HTTP routes and the NATS subjects.
const (
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpAddress    = "address"
)

// Handler is the request surface served by the relay; *connect.Coordinator
// implements it.
type Handler interface {
	Connect(ctx context.Context, req *connect.ConnectRequest) connect.Result
	Disconnect(ctx context.Context, req *connect.DisconnectRequest) connect.Result
	GetAddress(ctx context.Context, req *connect.AddressRequest) connect.Result
}

// Dispatch decodes body for op and runs it. An empty or null body reaches
// the handler as a nil request.
func Dispatch(ctx context.Context, h Handler, op string, body []byte) connect.Result {
	switch op {
	case OpConnect:
		return call(ctx, body, h.Connect)
	case OpDisconnect:
		return call(ctx, body, h.Disconnect)
	case OpAddress:
		return call(ctx, body, h.GetAddress)
	default:
		return connect.Fail(fmt.Errorf("unknown operation %q", op))
	}
}

func call[T any](ctx context.Context, body []byte, fn func(context.Context, *T) connect.Result) connect.Result {
	var req *T
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return connect.Fail(fmt.Errorf("decode request: %w", err))
		}
	}
	return fn(ctx, req)
}
