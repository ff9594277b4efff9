package relay

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/connect"
	"github.com/dmitrijs2005/gophwallet/internal/models"
)

// fakeHandler mirrors the coordinator's body checks and records calls.
type fakeHandler struct {
	mu      sync.Mutex
	connect []*connect.ConnectRequest
}

func (f *fakeHandler) Connect(_ context.Context, req *connect.ConnectRequest) connect.Result {
	if req == nil {
		return connect.Fail(common.ErrInvalidRequest)
	}
	f.mu.Lock()
	f.connect = append(f.connect, req)
	f.mu.Unlock()
	return connect.Ok(req.Origin == "https://good.example")
}

func (f *fakeHandler) Disconnect(_ context.Context, req *connect.DisconnectRequest) connect.Result {
	if req == nil {
		return connect.Fail(common.ErrInvalidRequest)
	}
	return connect.Ok(true)
}

func (f *fakeHandler) GetAddress(_ context.Context, req *connect.AddressRequest) connect.Result {
	if req == nil {
		return connect.Fail(common.ErrInvalidRequest)
	}
	if req.Chain == "" {
		return connect.Fail(common.ErrLocked)
	}
	return connect.Ok("0xabc")
}

type fakeSurface struct {
	setups, opens, closes int
}

func (s *fakeSurface) OpenSetup(context.Context) error            { s.setups++; return nil }
func (s *fakeSurface) IsOpen(context.Context) (bool, error)        { return s.opens > s.closes, nil }
func (s *fakeSurface) Open(context.Context, *models.Window) error { s.opens++; return nil }
func (s *fakeSurface) Close(context.Context) error                { s.closes++; return nil }

type publication struct {
	subject string
	data    string
}

type fakePublisher struct {
	sent []publication
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, publication{subject, string(data)})
	return nil
}
