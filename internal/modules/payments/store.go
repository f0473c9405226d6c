package payments

import (
	"context"
	"time"
)

// Store is the persistence contract for intents, refunds and the webhook
// dedupe table. Mutating calls participate in the transaction bound to ctx by
// db.TxManager.
type Store interface {
	CreateIntent(ctx context.Context, p *PaymentIntent) error
	GetIntent(ctx context.Context, id string) (PaymentIntent, error)
	// GetIntentForUpdate row-locks the intent so status checks and updates
	// cannot interleave across concurrent requests.
	GetIntentForUpdate(ctx context.Context, id string) (PaymentIntent, error)
	GetIntentByExternalRefForUpdate(ctx context.Context, externalRef string) (PaymentIntent, error)
	// GetIntentByOrderAndKey implements create idempotency; found=false when
	// no intent exists for the pair.
	GetIntentByOrderAndKey(ctx context.Context, orderID, idempotencyKey string) (PaymentIntent, bool, error)
	UpdateIntent(ctx context.Context, id string, updates map[string]any) error

	CreateRefund(ctx context.Context, r *RefundRecord) error
	UpdateRefund(ctx context.Context, id string, updates map[string]any) error
	PendingRefundExists(ctx context.Context, paymentID string) (bool, error)

	// InsertEvent returns ErrDuplicateEvent when the gateway event id was
	// already recorded; the caller treats that as an at-least-once redelivery.
	InsertEvent(ctx context.Context, e *GatewayEvent) error
	GetEventByEventID(ctx context.Context, eventID string) (GatewayEvent, bool, error)
	MarkEventProcessed(ctx context.Context, id string, processedAt time.Time) error
	MarkEventFailed(ctx context.Context, id string, processErr string) error
}
