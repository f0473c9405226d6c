package wallets

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
)

type Repo struct{ db *gorm.DB }

func NewRepo(gdb *gorm.DB) *Repo { return &Repo{db: gdb} }

func (r *Repo) CreateWallet(ctx context.Context, w *Wallet) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).Create(w).Error
}

func (r *Repo) GetWallet(ctx context.Context, id string) (Wallet, error) {
	var w Wallet
	err := db.FromContext(ctx, r.db).WithContext(ctx).First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wallet{}, ErrWalletNotFound
	}
	return w, err
}

func (r *Repo) GetWalletForUpdate(ctx context.Context, id string) (Wallet, error) {
	var w Wallet
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wallet{}, ErrWalletNotFound
	}
	return w, err
}

func (r *Repo) GetWalletByOwner(ctx context.Context, ownerID, ownerType string) (Wallet, error) {
	var w Wallet
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		First(&w, "owner_id = ? AND owner_type = ?", ownerID, ownerType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wallet{}, ErrWalletNotFound
	}
	return w, err
}

// AppendEntry writes the immutable ledger row and moves the cached balance.
// Callers wrap it in a TxManager transaction; both writes commit or roll back
// together.
func (r *Repo) AppendEntry(ctx context.Context, e *LedgerEntry, newBalanceMinor int64) error {
	tx := db.FromContext(ctx, r.db).WithContext(ctx)
	if err := tx.Create(e).Error; err != nil {
		return err
	}
	res := tx.Model(&Wallet{}).
		Where("id = ?", e.WalletID).
		Updates(map[string]any{
			"balance_minor": newBalanceMinor,
			"updated_at":    e.CreatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *Repo) CreateTransaction(ctx context.Context, t *WalletTransaction) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).Create(t).Error
}

func (r *Repo) ListEntries(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	var out []LedgerEntry
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Order("created_at ASC").
		Find(&out, "wallet_id = ?", walletID).Error
	return out, err
}
