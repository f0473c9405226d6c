package wallets

import "time"

const (
	OwnerTypeCustomer = "customer"
	OwnerTypeVendor   = "vendor"
	// Single platform wallet owner; commissions accumulate here.
	OwnerTypePlatform = "platform"
)

// PlatformOwnerID is the owner id of the one platform wallet.
const PlatformOwnerID = "souk-el-syarat"

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

const (
	TxTypeAddFunds   = "add_funds"
	TxTypeWithdrawal = "withdrawal"

	TxStatusCompleted = "completed"
)

// Wallet.BalanceMinor is a cached projection; the ledger entries are the
// source of truth. It is only ever updated in the same transaction as the
// entry that changes it.
type Wallet struct {
	ID           string    `gorm:"type:char(36);primaryKey"`
	OwnerID      string    `gorm:"type:char(36);not null;uniqueIndex:ux_wallets_owner,priority:1"`
	OwnerType    string    `gorm:"type:varchar(16);not null;uniqueIndex:ux_wallets_owner,priority:2"`
	BalanceMinor int64     `gorm:"not null"`
	Currency     string    `gorm:"type:char(3);not null"`
	CreatedAt    time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt    time.Time `gorm:"type:datetime(3);not null"`
}

func (Wallet) TableName() string { return "wallets" }

// LedgerEntry rows are append-only: written once, never updated or deleted.
type LedgerEntry struct {
	ID                  string    `gorm:"type:char(36);primaryKey"`
	WalletID            string    `gorm:"type:char(36);not null;index:ix_ledger_wallet_created,priority:1"`
	Direction           string    `gorm:"type:varchar(8);not null"`
	AmountMinor         int64     `gorm:"not null"`
	Currency            string    `gorm:"type:char(3);not null"`
	RelatedPaymentID    *string   `gorm:"type:char(36);index:ix_ledger_payment"`
	Reference           *string   `gorm:"type:varchar(128)"`
	RunningBalanceAfter int64     `gorm:"not null"`
	CreatedAt           time.Time `gorm:"type:datetime(3);not null;index:ix_ledger_wallet_created,priority:2"`
}

func (LedgerEntry) TableName() string { return "wallet_ledger_entries" }

type WalletTransaction struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	WalletID    string    `gorm:"type:char(36);not null;index:ix_wallet_tx_wallet"`
	Type        string    `gorm:"type:varchar(16);not null"`
	AmountMinor int64     `gorm:"not null"`
	FeeMinor    int64     `gorm:"not null"`
	Currency    string    `gorm:"type:char(3);not null"`
	Method      string    `gorm:"type:varchar(32)"`
	Reference   string    `gorm:"type:varchar(128)"`
	Status      string    `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time `gorm:"type:datetime(3);not null"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }
