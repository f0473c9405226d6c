package wallets

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

type Service struct {
	store    Store
	txm      db.TxManager
	cfg      config.WalletsConfig
	currency string
	logger   *slog.Logger

	// Serializes mutations per wallet; operations on different wallets run
	// in parallel.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store Store, txm db.TxManager, cfg config.WalletsConfig, currency string) *Service {
	return &Service{
		store:    store,
		txm:      txm,
		cfg:      cfg,
		currency: currency,
		logger:   slog.Default(),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *Service) lockWallet(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// lockWallets acquires multiple wallet locks in sorted order so concurrent
// settlements cannot deadlock.
func (s *Service) lockWallets(ids ...string) func() {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	seen := map[string]bool{}
	for _, id := range sorted {
		if seen[id] {
			continue
		}
		seen[id] = true
		unlocks = append(unlocks, s.lockWallet(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func (s *Service) CreateWallet(ctx context.Context, ownerID, ownerType string) (Wallet, error) {
	switch ownerType {
	case OwnerTypeCustomer, OwnerTypeVendor, OwnerTypePlatform:
	default:
		return Wallet{}, ErrInvalidOwnerType
	}

	now := time.Now()
	w := Wallet{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		OwnerType:    ownerType,
		BalanceMinor: 0,
		Currency:     s.currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateWallet(ctx, &w); err != nil {
		return Wallet{}, err
	}
	return w, nil
}

func (s *Service) GetWallet(ctx context.Context, id string) (Wallet, error) {
	return s.store.GetWallet(ctx, id)
}

func (s *Service) GetWalletByOwner(ctx context.Context, ownerID, ownerType string) (Wallet, error) {
	return s.store.GetWalletByOwner(ctx, ownerID, ownerType)
}

// EnsurePlatformWallet returns the platform wallet, creating it on first use.
func (s *Service) EnsurePlatformWallet(ctx context.Context) (Wallet, error) {
	w, err := s.store.GetWalletByOwner(ctx, PlatformOwnerID, OwnerTypePlatform)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return Wallet{}, err
	}
	return s.CreateWallet(ctx, PlatformOwnerID, OwnerTypePlatform)
}

func (s *Service) Entries(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	return s.store.ListEntries(ctx, walletID)
}

// Credit appends a credit entry and moves the cached balance atomically.
func (s *Service) Credit(ctx context.Context, walletID string, amount money.Money, relatedPaymentID string) (LedgerEntry, error) {
	if !amount.IsPositive() {
		return LedgerEntry{}, ErrNonPositiveAmount
	}

	unlock := s.lockWallet(walletID)
	defer unlock()

	var entry LedgerEntry
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.applyEntry(ctx, walletID, DirectionCredit, amount, relatedPaymentID, "")
		return err
	})
	return entry, err
}

// Debit fails with ErrInsufficientBalance when the amount exceeds the current
// balance; wallet balances never go negative.
func (s *Service) Debit(ctx context.Context, walletID string, amount money.Money, relatedPaymentID string) (LedgerEntry, error) {
	if !amount.IsPositive() {
		return LedgerEntry{}, ErrNonPositiveAmount
	}

	unlock := s.lockWallet(walletID)
	defer unlock()

	var entry LedgerEntry
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.applyEntry(ctx, walletID, DirectionDebit, amount, relatedPaymentID, "")
		return err
	})
	return entry, err
}

// applyEntry must run inside a transaction with the wallet lock held.
func (s *Service) applyEntry(ctx context.Context, walletID, direction string, amount money.Money, relatedPaymentID, reference string) (LedgerEntry, error) {
	w, err := s.store.GetWalletForUpdate(ctx, walletID)
	if err != nil {
		return LedgerEntry{}, err
	}

	newBalance := w.BalanceMinor
	switch direction {
	case DirectionCredit:
		newBalance += amount.AmountMinor
	case DirectionDebit:
		if amount.AmountMinor > w.BalanceMinor {
			return LedgerEntry{}, ErrInsufficientBalance
		}
		newBalance -= amount.AmountMinor
	}

	entry := LedgerEntry{
		ID:                  uuid.NewString(),
		WalletID:            walletID,
		Direction:           direction,
		AmountMinor:         amount.AmountMinor,
		Currency:            amount.Currency,
		RunningBalanceAfter: newBalance,
		CreatedAt:           time.Now(),
	}
	if relatedPaymentID != "" {
		entry.RelatedPaymentID = &relatedPaymentID
	}
	if reference != "" {
		entry.Reference = &reference
	}

	if err := s.store.AppendEntry(ctx, &entry, newBalance); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// AddFunds credits a wallet from an external top-up. The requested decimal
// amount is rounded half-up to two decimal places before crediting
// (123.456 becomes 123.46).
func (s *Service) AddFunds(ctx context.Context, walletID, amount, method, reference string) (WalletTransaction, error) {
	m, err := money.FromDecimalString(amount, s.currency)
	if err != nil {
		return WalletTransaction{}, err
	}
	if !m.IsPositive() {
		return WalletTransaction{}, ErrNonPositiveAmount
	}

	unlock := s.lockWallet(walletID)
	defer unlock()

	var tx WalletTransaction
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		entry, err := s.applyEntry(ctx, walletID, DirectionCredit, m, "", reference)
		if err != nil {
			return err
		}

		tx = WalletTransaction{
			ID:          uuid.NewString(),
			WalletID:    walletID,
			Type:        TxTypeAddFunds,
			AmountMinor: m.AmountMinor,
			FeeMinor:    0,
			Currency:    m.Currency,
			Method:      method,
			Reference:   reference,
			Status:      TxStatusCompleted,
			CreatedAt:   entry.CreatedAt,
		}
		return s.store.CreateTransaction(ctx, &tx)
	})
	if err != nil {
		return WalletTransaction{}, err
	}

	s.logger.InfoContext(ctx, "wallet funds added",
		"wallet_id", walletID, "amount", m.Display(), "method", method)
	return tx, nil
}

type WithdrawalResult struct {
	TransactionID string
	GrossAmount   money.Money
	Fee           money.Money
	NetAmount     money.Money
}

// Withdraw debits the gross amount and charges a flat fee; the vendor
// receives gross minus fee at the destination account.
func (s *Service) Withdraw(ctx context.Context, walletID string, amount money.Money, destinationAccountID string) (WithdrawalResult, error) {
	if !amount.IsPositive() {
		return WithdrawalResult{}, ErrNonPositiveAmount
	}
	fee := money.New(s.cfg.WithdrawalFeeMinor, amount.Currency)
	if amount.AmountMinor <= fee.AmountMinor {
		return WithdrawalResult{}, ErrNonPositiveAmount
	}

	unlock := s.lockWallet(walletID)
	defer unlock()

	var result WithdrawalResult
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		entry, err := s.applyEntry(ctx, walletID, DirectionDebit, amount, "", destinationAccountID)
		if err != nil {
			return err
		}

		net, err := amount.Sub(fee)
		if err != nil {
			return err
		}

		tx := WalletTransaction{
			ID:          uuid.NewString(),
			WalletID:    walletID,
			Type:        TxTypeWithdrawal,
			AmountMinor: amount.AmountMinor,
			FeeMinor:    fee.AmountMinor,
			Currency:    amount.Currency,
			Method:      "bank_transfer",
			Reference:   destinationAccountID,
			Status:      TxStatusCompleted,
			CreatedAt:   entry.CreatedAt,
		}
		if err := s.store.CreateTransaction(ctx, &tx); err != nil {
			return err
		}

		result = WithdrawalResult{
			TransactionID: tx.ID,
			GrossAmount:   amount,
			Fee:           fee,
			NetAmount:     net,
		}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}

	s.logger.InfoContext(ctx, "wallet withdrawal completed",
		"wallet_id", walletID, "gross", result.GrossAmount.Display(), "fee", result.Fee.Display())
	return result, nil
}

type SettleInput struct {
	PaymentID          string
	VendorWalletID     string
	PlatformWalletID   string
	VendorNet          money.Money
	PlatformCommission money.Money
}

// Settle credits the vendor's net share and the platform's commission for a
// captured payment in one atomic step. Called by the webhook processor inside
// its own transaction scope.
func (s *Service) Settle(ctx context.Context, in SettleInput) error {
	if !in.VendorNet.IsPositive() || !in.PlatformCommission.IsPositive() {
		return ErrNonPositiveAmount
	}

	unlock := s.lockWallets(in.VendorWalletID, in.PlatformWalletID)
	defer unlock()

	return s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.applyEntry(ctx, in.VendorWalletID, DirectionCredit, in.VendorNet, in.PaymentID, ""); err != nil {
			return err
		}
		_, err := s.applyEntry(ctx, in.PlatformWalletID, DirectionCredit, in.PlatformCommission, in.PaymentID, "")
		return err
	})
}

type ReverseInput struct {
	PaymentID        string
	RefundID         string
	VendorWalletID   string
	PlatformWalletID string
	VendorShare      money.Money
	PlatformShare    money.Money
}

// Reverse applies compensating debits for a refunded payment: the vendor
// gives back its net share and the platform its commission share. Shares of
// zero are skipped (fees are not returned by the gateway).
func (s *Service) Reverse(ctx context.Context, in ReverseInput) error {
	unlock := s.lockWallets(in.VendorWalletID, in.PlatformWalletID)
	defer unlock()

	return s.txm.RunInTx(ctx, func(ctx context.Context) error {
		if in.VendorShare.IsPositive() {
			if _, err := s.applyEntry(ctx, in.VendorWalletID, DirectionDebit, in.VendorShare, in.PaymentID, in.RefundID); err != nil {
				return err
			}
		}
		if in.PlatformShare.IsPositive() {
			if _, err := s.applyEntry(ctx, in.PlatformWalletID, DirectionDebit, in.PlatformShare, in.PaymentID, in.RefundID); err != nil {
				return err
			}
		}
		return nil
	})
}
