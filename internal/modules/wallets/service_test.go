package wallets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

// --- fakes ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStore struct {
	mu           sync.Mutex
	wallets      map[string]Wallet
	entries      []LedgerEntry
	transactions []WalletTransaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{wallets: map[string]Wallet{}}
}

func (f *fakeStore) CreateWallet(ctx context.Context, w *Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets[w.ID] = *w
	return nil
}

func (f *fakeStore) GetWallet(ctx context.Context, id string) (Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (f *fakeStore) GetWalletForUpdate(ctx context.Context, id string) (Wallet, error) {
	return f.GetWallet(ctx, id)
}

func (f *fakeStore) GetWalletByOwner(ctx context.Context, ownerID, ownerType string) (Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.OwnerID == ownerID && w.OwnerType == ownerType {
			return w, nil
		}
	}
	return Wallet{}, ErrWalletNotFound
}

func (f *fakeStore) AppendEntry(ctx context.Context, e *LedgerEntry, newBalanceMinor int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[e.WalletID]
	if !ok {
		return ErrWalletNotFound
	}
	f.entries = append(f.entries, *e)
	w.BalanceMinor = newBalanceMinor
	f.wallets[e.WalletID] = w
	return nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, t *WalletTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, *t)
	return nil
}

func (f *fakeStore) ListEntries(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LedgerEntry
	for _, e := range f.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService(store Store) *Service {
	return NewService(store, fakeTxManager{}, config.WalletsConfig{WithdrawalFeeMinor: 500}, "EGP")
}

func mustCreateWallet(t *testing.T, s *Service, ownerID, ownerType string) Wallet {
	t.Helper()
	w, err := s.CreateWallet(context.Background(), ownerID, ownerType)
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	return w
}

// --- tests ---

func TestCreateWallet_StartsAtZero(t *testing.T) {
	s := newTestService(newFakeStore())
	w := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)

	if w.BalanceMinor != 0 {
		t.Errorf("new wallet balance = %d, want 0", w.BalanceMinor)
	}
	if w.Currency != "EGP" {
		t.Errorf("currency = %s, want EGP", w.Currency)
	}
}

func TestCreateWallet_RejectsUnknownOwnerType(t *testing.T) {
	s := newTestService(newFakeStore())
	if _, err := s.CreateWallet(context.Background(), "x", "admin"); !errors.Is(err, ErrInvalidOwnerType) {
		t.Fatalf("expected ErrInvalidOwnerType, got %v", err)
	}
}

func TestCreditDebit_RunningBalance(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	w := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)
	ctx := context.Background()

	e1, err := s.Credit(ctx, w.ID, money.New(10000, "EGP"), "pay-1")
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if e1.RunningBalanceAfter != 10000 {
		t.Errorf("running balance after credit = %d, want 10000", e1.RunningBalanceAfter)
	}

	e2, err := s.Debit(ctx, w.ID, money.New(4000, "EGP"), "pay-2")
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if e2.RunningBalanceAfter != 6000 {
		t.Errorf("running balance after debit = %d, want 6000", e2.RunningBalanceAfter)
	}

	got, _ := s.GetWallet(ctx, w.ID)
	if got.BalanceMinor != 6000 {
		t.Errorf("cached balance = %d, want 6000", got.BalanceMinor)
	}

	// Balance must equal sum(credits) - sum(debits).
	entries, _ := s.Entries(ctx, w.ID)
	var derived int64
	for _, e := range entries {
		if e.Direction == DirectionCredit {
			derived += e.AmountMinor
		} else {
			derived -= e.AmountMinor
		}
	}
	if derived != got.BalanceMinor {
		t.Errorf("derived balance %d != cached balance %d", derived, got.BalanceMinor)
	}
}

func TestDebit_InsufficientBalance(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	w := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)
	ctx := context.Background()

	if _, err := s.Credit(ctx, w.ID, money.New(100, "EGP"), ""); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if _, err := s.Debit(ctx, w.ID, money.New(101, "EGP"), ""); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Failed debit must not leave a ledger entry behind.
	entries, _ := s.Entries(ctx, w.ID)
	if len(entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(entries))
	}
	got, _ := s.GetWallet(ctx, w.ID)
	if got.BalanceMinor != 100 {
		t.Errorf("balance = %d, want 100", got.BalanceMinor)
	}
}

func TestAddFunds_RoundsToTwoDecimals(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	w := mustCreateWallet(t, s, "cust-1", OwnerTypeCustomer)
	ctx := context.Background()

	tx, err := s.AddFunds(ctx, w.ID, "123.456", "card", "topup-1")
	if err != nil {
		t.Fatalf("AddFunds: %v", err)
	}
	if tx.AmountMinor != 12346 { // 123.46
		t.Errorf("credited amount = %d, want 12346", tx.AmountMinor)
	}
	if tx.Status != TxStatusCompleted {
		t.Errorf("status = %s, want %s", tx.Status, TxStatusCompleted)
	}

	got, _ := s.GetWallet(ctx, w.ID)
	if got.BalanceMinor != 12346 {
		t.Errorf("balance = %d, want 12346", got.BalanceMinor)
	}
}

func TestWithdraw_FlatFee(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	w := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)
	ctx := context.Background()

	if _, err := s.Credit(ctx, w.ID, money.New(20000, "EGP"), ""); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	res, err := s.Withdraw(ctx, w.ID, money.New(15000, "EGP"), "acct-9")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if res.GrossAmount.AmountMinor != 15000 {
		t.Errorf("gross = %d, want 15000", res.GrossAmount.AmountMinor)
	}
	if res.Fee.AmountMinor != 500 {
		t.Errorf("fee = %d, want 500", res.Fee.AmountMinor)
	}
	if res.NetAmount.AmountMinor != 14500 {
		t.Errorf("net = %d, want 14500", res.NetAmount.AmountMinor)
	}

	got, _ := s.GetWallet(ctx, w.ID)
	if got.BalanceMinor != 5000 {
		t.Errorf("balance = %d, want 5000", got.BalanceMinor)
	}
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	w := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)
	ctx := context.Background()

	if _, err := s.Credit(ctx, w.ID, money.New(10000, "EGP"), ""); err != nil { // 100.00
		t.Fatalf("Credit: %v", err)
	}

	_, err := s.Withdraw(ctx, w.ID, money.New(15000, "EGP"), "acct-9") // 150.00
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err.Error() != "Insufficient balance" {
		t.Errorf("error message = %q, want %q", err.Error(), "Insufficient balance")
	}
}

func TestSettle_CreditsBothWallets(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	vendor := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)
	platform := mustCreateWallet(t, s, "souk", OwnerTypePlatform)
	ctx := context.Background()

	err := s.Settle(ctx, SettleInput{
		PaymentID:          "pay-1",
		VendorWalletID:     vendor.ID,
		PlatformWalletID:   platform.ID,
		VendorNet:          money.New(94570, "EGP"),
		PlatformCommission: money.New(2500, "EGP"),
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	v, _ := s.GetWallet(ctx, vendor.ID)
	p, _ := s.GetWallet(ctx, platform.ID)
	if v.BalanceMinor != 94570 {
		t.Errorf("vendor balance = %d, want 94570", v.BalanceMinor)
	}
	if p.BalanceMinor != 2500 {
		t.Errorf("platform balance = %d, want 2500", p.BalanceMinor)
	}
}

func TestConcurrentCredits_Serialized(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store)
	w := mustCreateWallet(t, s, "vendor-1", OwnerTypeVendor)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.Credit(ctx, w.ID, money.New(100, "EGP"), ""); err != nil {
				t.Errorf("Credit: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetWallet(ctx, w.ID)
	if got.BalanceMinor != n*100 {
		t.Errorf("balance = %d, want %d", got.BalanceMinor, n*100)
	}

	// Running balances must form a strictly increasing chain ending at the
	// cached balance.
	entries, _ := s.Entries(ctx, w.ID)
	if len(entries) != n {
		t.Fatalf("entries = %d, want %d", len(entries), n)
	}
	var prev int64
	for i, e := range entries {
		if e.RunningBalanceAfter != prev+100 {
			t.Fatalf("entry %d running balance = %d, want %d", i, e.RunningBalanceAfter, prev+100)
		}
		prev = e.RunningBalanceAfter
	}
}
