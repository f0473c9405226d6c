package payments

import "time"

const (
	StatusCreated              = "created"
	StatusRequiresConfirmation = "requires_confirmation"
	StatusSucceeded            = "succeeded"
	StatusFailed               = "failed"
	StatusRefunded             = "refunded"
	StatusPartiallyRefunded    = "partially_refunded"
)

// PaymentIntent tracks one attempted card charge through the external
// gateway. Status moves created -> requires_confirmation -> succeeded|failed
// via gateway responses or verified webhooks; succeeded -> refunded or
// partially_refunded only through the refund service.
type PaymentIntent struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	OrderID        string    `gorm:"type:char(36);not null;index:ix_payment_intents_order;uniqueIndex:ux_payment_intents_order_key,priority:1"`
	CustomerID     string    `gorm:"type:char(36);not null"`
	VendorID       string    `gorm:"type:char(36);not null;index:ix_payment_intents_vendor"`
	AmountMinor    int64     `gorm:"not null"`
	Currency       string    `gorm:"type:char(3);not null"`
	Status         string    `gorm:"type:varchar(32);not null"`
	VendorTier     string    `gorm:"type:varchar(16);not null"`
	ExternalRef    *string   `gorm:"type:varchar(128);uniqueIndex:ux_payment_intents_external_ref"`
	IdempotencyKey string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_payment_intents_order_key,priority:2"`
	RefundedMinor  int64     `gorm:"not null"`
	ErrorMessage   *string   `gorm:"type:varchar(255)"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt      time.Time `gorm:"type:datetime(3);not null"`
}

func (PaymentIntent) TableName() string { return "payment_intents" }
