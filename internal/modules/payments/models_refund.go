package payments

import "time"

const (
	RefundStatusPending   = "pending"
	RefundStatusSucceeded = "succeeded"
	RefundStatusFailed    = "failed"
)

// RefundRecord is one full or partial refund against a payment intent. The
// sum of succeeded refund amounts never exceeds the captured amount, and at
// most one pending refund exists per intent at a time.
type RefundRecord struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	PaymentID string `gorm:"type:char(36);not null;index:ix_refunds_payment"`

	AmountMinor    int64  `gorm:"not null"`
	Currency       string `gorm:"type:char(3);not null"`
	IsPartial      bool   `gorm:"not null"`
	RemainingMinor int64  `gorm:"not null"`

	Status     string  `gorm:"type:varchar(16);not null"`
	GatewayRef *string `gorm:"type:varchar(128)"`
	Reason     *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (RefundRecord) TableName() string { return "refunds" }
