package payments

import (
	"context"
	"sync"
	"time"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/wallets"
)

// Shared fakes for the payments service tests, in place of gorm repos and the
// real gateway.

type passthroughTxm struct{}

func (passthroughTxm) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- payment store fake ---

type fakeStore struct {
	mu      sync.Mutex
	intents map[string]PaymentIntent
	refunds map[string]RefundRecord
	events  map[string]GatewayEvent // keyed by gateway event id
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		intents: map[string]PaymentIntent{},
		refunds: map[string]RefundRecord{},
		events:  map[string]GatewayEvent{},
	}
}

func (f *fakeStore) CreateIntent(ctx context.Context, p *PaymentIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[p.ID] = *p
	return nil
}

func (f *fakeStore) GetIntent(ctx context.Context, id string) (PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.intents[id]
	if !ok {
		return PaymentIntent{}, ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeStore) GetIntentForUpdate(ctx context.Context, id string) (PaymentIntent, error) {
	return f.GetIntent(ctx, id)
}

func (f *fakeStore) GetIntentByExternalRefForUpdate(ctx context.Context, ref string) (PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.intents {
		if p.ExternalRef != nil && *p.ExternalRef == ref {
			return p, nil
		}
	}
	return PaymentIntent{}, ErrPaymentNotFound
}

func (f *fakeStore) GetIntentByOrderAndKey(ctx context.Context, orderID, key string) (PaymentIntent, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.intents {
		if p.OrderID == orderID && p.IdempotencyKey == key {
			return p, true, nil
		}
	}
	return PaymentIntent{}, false, nil
}

func (f *fakeStore) UpdateIntent(ctx context.Context, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.intents[id]
	if !ok {
		return ErrPaymentNotFound
	}
	for k, v := range updates {
		switch k {
		case "status":
			p.Status = v.(string)
		case "external_ref":
			s := v.(string)
			p.ExternalRef = &s
		case "refunded_minor":
			p.RefundedMinor = v.(int64)
		case "error_message":
			if v == nil {
				p.ErrorMessage = nil
			} else {
				s := v.(string)
				p.ErrorMessage = &s
			}
		case "updated_at":
			p.UpdatedAt = v.(time.Time)
		}
	}
	f.intents[id] = p
	return nil
}

func (f *fakeStore) CreateRefund(ctx context.Context, r *RefundRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds[r.ID] = *r
	return nil
}

func (f *fakeStore) UpdateRefund(ctx context.Context, id string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return ErrPaymentNotFound
	}
	for k, v := range updates {
		switch k {
		case "status":
			r.Status = v.(string)
		case "gateway_ref":
			s := v.(string)
			r.GatewayRef = &s
		case "updated_at":
			r.UpdatedAt = v.(time.Time)
		}
	}
	f.refunds[id] = r
	return nil
}

func (f *fakeStore) PendingRefundExists(ctx context.Context, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.refunds {
		if r.PaymentID == paymentID && r.Status == RefundStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertEvent(ctx context.Context, e *GatewayEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[e.EventID]; ok {
		return ErrDuplicateEvent
	}
	f.events[e.EventID] = *e
	return nil
}

func (f *fakeStore) GetEventByEventID(ctx context.Context, eventID string) (GatewayEvent, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	return e, ok, nil
}

func (f *fakeStore) MarkEventProcessed(ctx context.Context, id string, processedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, e := range f.events {
		if e.ID == id {
			e.ProcessedAt = &processedAt
			e.ProcessError = nil
			f.events[k] = e
		}
	}
	return nil
}

func (f *fakeStore) MarkEventFailed(ctx context.Context, id string, processErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, e := range f.events {
		if e.ID == id {
			e.ProcessError = &processErr
			f.events[k] = e
		}
	}
	return nil
}

// --- gateway fake ---

type fakeGateway struct {
	mu sync.Mutex

	createResp CreateIntentResponse
	// createErrs are returned in order before createResp succeeds; an entry
	// of nil means "succeed on this attempt".
	createErrs  []error
	createCalls int

	refundResp  RefundResponse
	refundErr   error
	refundCalls int
}

func (g *fakeGateway) Name() string { return "fakegw" }

func (g *fakeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (CreateIntentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.createCalls
	g.createCalls++
	if i < len(g.createErrs) && g.createErrs[i] != nil {
		return CreateIntentResponse{}, g.createErrs[i]
	}
	return g.createResp, nil
}

func (g *fakeGateway) Refund(ctx context.Context, req RefundRequest) (RefundResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if g.refundErr != nil {
		return RefundResponse{}, g.refundErr
	}
	return g.refundResp, nil
}

// --- wallet store fake (backs a real wallets.Service) ---

type fakeWalletStore struct {
	mu      sync.Mutex
	wallets map[string]wallets.Wallet
	entries []wallets.LedgerEntry
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{wallets: map[string]wallets.Wallet{}}
}

func (f *fakeWalletStore) CreateWallet(ctx context.Context, w *wallets.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets[w.ID] = *w
	return nil
}

func (f *fakeWalletStore) GetWallet(ctx context.Context, id string) (wallets.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[id]
	if !ok {
		return wallets.Wallet{}, wallets.ErrWalletNotFound
	}
	return w, nil
}

func (f *fakeWalletStore) GetWalletForUpdate(ctx context.Context, id string) (wallets.Wallet, error) {
	return f.GetWallet(ctx, id)
}

func (f *fakeWalletStore) GetWalletByOwner(ctx context.Context, ownerID, ownerType string) (wallets.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.OwnerID == ownerID && w.OwnerType == ownerType {
			return w, nil
		}
	}
	return wallets.Wallet{}, wallets.ErrWalletNotFound
}

func (f *fakeWalletStore) AppendEntry(ctx context.Context, e *wallets.LedgerEntry, newBalanceMinor int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[e.WalletID]
	if !ok {
		return wallets.ErrWalletNotFound
	}
	f.entries = append(f.entries, *e)
	w.BalanceMinor = newBalanceMinor
	f.wallets[e.WalletID] = w
	return nil
}

func (f *fakeWalletStore) CreateTransaction(ctx context.Context, t *wallets.WalletTransaction) error {
	return nil
}

func (f *fakeWalletStore) ListEntries(ctx context.Context, walletID string) ([]wallets.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []wallets.LedgerEntry
	for _, e := range f.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- common wiring ---

func testCommissionCalc() *commission.Calculator {
	return commission.NewCalculator(config.CommissionConfig{
		StandardRateBps:    250,
		PremiumRateBps:     150,
		ProcessingRateBps:  290,
		ProcessingFeeMinor: 30,
	})
}

func testWalletService(store wallets.Store) *wallets.Service {
	return wallets.NewService(store, passthroughTxm{}, config.WalletsConfig{WithdrawalFeeMinor: 500}, "EGP")
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }
