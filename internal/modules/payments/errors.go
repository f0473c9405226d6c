package payments

import "errors"

var (
	ErrBelowMinimum          = errors.New("amount below minimum payment amount")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrNotRefundable         = errors.New("payment not refundable")
	ErrAlreadyRefunded       = errors.New("already refunded")
	ErrRefundPending         = errors.New("a refund is already pending for this payment")
	ErrRefundExceedsOriginal = errors.New("refund amount exceeds original payment")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrUnknownEventType      = errors.New("unknown webhook event type")
	ErrDuplicateEvent        = errors.New("event already received")
)
