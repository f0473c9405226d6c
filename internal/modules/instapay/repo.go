package instapay

import (
	"context"

	"gorm.io/gorm"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
)

type Repo struct{ db *gorm.DB }

func NewRepo(gdb *gorm.DB) *Repo { return &Repo{db: gdb} }

func (r *Repo) CreateProof(ctx context.Context, p *InstapayProof) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).Create(p).Error
}

func (r *Repo) ProofsByOrder(ctx context.Context, orderID string) ([]InstapayProof, error) {
	var out []InstapayProof
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Order("created_at DESC").
		Find(&out, "order_id = ?", orderID).Error
	return out, err
}
