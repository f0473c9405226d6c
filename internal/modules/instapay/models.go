package instapay

import "time"

// InstapayProof records a manually submitted bank-transfer proof. Unmatched
// proofs are kept for manual review rather than rejected outright.
type InstapayProof struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	OrderID        string    `gorm:"type:char(36);not null;index:ix_instapay_proofs_order"`
	ReferenceCode  string    `gorm:"type:varchar(64);not null"`
	ExpectedMinor  int64     `gorm:"not null"`
	SubmittedMinor int64     `gorm:"not null"`
	Currency       string    `gorm:"type:char(3);not null"`
	Matched        bool      `gorm:"not null"`
	AttachmentKey  *string   `gorm:"type:varchar(255)"`
	AttachmentURL  *string   `gorm:"type:varchar(255)"`
	CreatedAt      time.Time `gorm:"type:datetime(3);not null"`
}

func (InstapayProof) TableName() string { return "instapay_proofs" }
