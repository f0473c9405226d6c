package payments

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
)

type Repo struct{ db *gorm.DB }

func NewRepo(gdb *gorm.DB) *Repo { return &Repo{db: gdb} }

func (r *Repo) CreateIntent(ctx context.Context, p *PaymentIntent) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).Create(p).Error
}

func (r *Repo) GetIntent(ctx context.Context, id string) (PaymentIntent, error) {
	var p PaymentIntent
	err := db.FromContext(ctx, r.db).WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentIntent{}, ErrPaymentNotFound
	}
	return p, err
}

func (r *Repo) GetIntentForUpdate(ctx context.Context, id string) (PaymentIntent, error) {
	var p PaymentIntent
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentIntent{}, ErrPaymentNotFound
	}
	return p, err
}

func (r *Repo) GetIntentByExternalRefForUpdate(ctx context.Context, externalRef string) (PaymentIntent, error) {
	var p PaymentIntent
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "external_ref = ?", externalRef).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentIntent{}, ErrPaymentNotFound
	}
	return p, err
}

func (r *Repo) GetIntentByOrderAndKey(ctx context.Context, orderID, idempotencyKey string) (PaymentIntent, bool, error) {
	var p PaymentIntent
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		First(&p, "order_id = ? AND idempotency_key = ?", orderID, idempotencyKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentIntent{}, false, nil
	}
	if err != nil {
		return PaymentIntent{}, false, err
	}
	return p, true, nil
}

func (r *Repo) UpdateIntent(ctx context.Context, id string, updates map[string]any) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&PaymentIntent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repo) CreateRefund(ctx context.Context, rec *RefundRecord) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).Create(rec).Error
}

func (r *Repo) UpdateRefund(ctx context.Context, id string, updates map[string]any) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&RefundRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repo) PendingRefundExists(ctx context.Context, paymentID string) (bool, error) {
	var cnt int64
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&RefundRecord{}).
		Where("payment_id = ? AND status = ?", paymentID, RefundStatusPending).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *Repo) InsertEvent(ctx context.Context, e *GatewayEvent) error {
	err := db.FromContext(ctx, r.db).WithContext(ctx).Create(e).Error
	if isDup(err) {
		return ErrDuplicateEvent
	}
	return err
}

func (r *Repo) GetEventByEventID(ctx context.Context, eventID string) (GatewayEvent, bool, error) {
	var e GatewayEvent
	err := db.FromContext(ctx, r.db).WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GatewayEvent{}, false, nil
	}
	return e, err == nil, err
}

func (r *Repo) MarkEventProcessed(ctx context.Context, id string, processedAt time.Time) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&GatewayEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"processed_at": &processedAt, "process_error": nil}).Error
}

func (r *Repo) MarkEventFailed(ctx context.Context, id string, processErr string) error {
	return db.FromContext(ctx, r.db).WithContext(ctx).
		Model(&GatewayEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"process_error": truncate(processErr, 250)}).Error
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
