package wallets

import "context"

// Store is the persistence contract for the wallet ledger. AppendEntry must
// write the ledger row and move the cached balance in one atomic unit; the
// gorm implementation relies on the surrounding db.TxManager transaction.
type Store interface {
	CreateWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, id string) (Wallet, error)
	// GetWalletForUpdate takes a row lock so read-balance/write-entry pairs
	// on the same wallet cannot interleave.
	GetWalletForUpdate(ctx context.Context, id string) (Wallet, error)
	GetWalletByOwner(ctx context.Context, ownerID, ownerType string) (Wallet, error)
	AppendEntry(ctx context.Context, e *LedgerEntry, newBalanceMinor int64) error
	CreateTransaction(ctx context.Context, t *WalletTransaction) error
	ListEntries(ctx context.Context, walletID string) ([]LedgerEntry, error)
}
