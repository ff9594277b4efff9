package connect

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/models"
)

type fakeInit struct {
	initialized bool
	setupOpened atomic.Int32
}

func (f *fakeInit) IsInitialized(context.Context) (bool, error) { return f.initialized, nil }

type fakeWallet struct {
	mu       sync.Mutex
	locked   bool
	info     models.CurrentInfo
	apps     map[models.Chain][]models.ConnectedApp
	approved map[string]models.ApprovedState
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		info: models.CurrentInfo{
			IdentityID: "id-1",
			Address: models.IdentityAddress{
				IC:  &models.IcAddress{Owner: "aaaaa-aa"},
				EVM: &models.EvmAddress{Address: "0xabc"},
			},
			Chain: models.ChainIC,
			CurrentIdentityNetwork: models.CurrentIdentityNetwork{
				IC:  &models.IdentityNetwork{Family: "ic", Owner: "aaaaa-aa"},
				EVM: &models.IdentityNetwork{Family: "evm", Owner: "0xabc"},
			},
		},
		apps:     make(map[models.Chain][]models.ConnectedApp),
		approved: make(map[string]models.ApprovedState),
	}
}

func (w *fakeWallet) setLocked(v bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locked = v
}

func (w *fakeWallet) CurrentInfo(context.Context) (*models.CurrentInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.locked {
		return nil, common.ErrLocked
	}
	info := w.info
	return &info, nil
}

func (w *fakeWallet) CurrentAddress(ctx context.Context, chain models.Chain) (string, error) {
	info, err := w.CurrentInfo(ctx)
	if err != nil {
		return "", err
	}
	if chain == models.ChainIC {
		return info.Address.IC.Owner, nil
	}
	return info.Address.EVM.Address, nil
}

func (w *fakeWallet) GetConnectedApps(_ context.Context, chain models.Chain, _ models.CurrentIdentityNetwork) ([]models.ConnectedApp, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.locked {
		return nil, common.ErrLocked
	}
	return append([]models.ConnectedApp(nil), w.apps[chain]...), nil
}

func (w *fakeWallet) SetConnectedApps(_ context.Context, chain models.Chain, _ models.CurrentIdentityNetwork, apps []models.ConnectedApp) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.locked {
		return nil
	}
	w.apps[chain] = append([]models.ConnectedApp(nil), apps...)
	return nil
}

func (w *fakeWallet) SetApproved(_ context.Context, chain models.Chain, _ models.CurrentIdentityNetwork, origin, requestHash string, state models.ApprovedState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.approved[string(chain)+"|"+origin+"|"+requestHash] = state
	return nil
}

func (w *fakeWallet) app(chain models.Chain, origin string) (models.ConnectedApp, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	apps := w.apps[chain]
	if idx := models.FindApp(apps, origin); idx >= 0 {
		return apps[idx], true
	}
	return models.ConnectedApp{}, false
}

type fakeNotifier struct {
	init   *fakeInit
	open   atomic.Bool
	opened atomic.Int32
	closed atomic.Int32
	onOpen func()
}

func (n *fakeNotifier) OpenSetup(context.Context) error {
	n.init.setupOpened.Add(1)
	return nil
}

func (n *fakeNotifier) IsOpen(context.Context) (bool, error) { return n.open.Load(), nil }

func (n *fakeNotifier) Open(context.Context, *models.Window) error {
	n.open.Store(true)
	n.opened.Add(1)
	if n.onOpen != nil {
		n.onOpen()
	}
	return nil
}

func (n *fakeNotifier) Close(context.Context) error {
	n.open.Store(false)
	n.closed.Add(1)
	return nil
}
