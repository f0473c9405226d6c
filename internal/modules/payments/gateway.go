package payments

import (
	"context"
	"errors"
	"fmt"
)

// GatewayError classifies failures from the external card gateway. Transient
// failures (network, timeout, 5xx) may be retried with backoff; everything
// else (declines, validation) is permanent.
type GatewayError struct {
	Transient bool
	Code      string
	Err       error
}

func (e *GatewayError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway %s error (%s): %v", kind, e.Code, e.Err)
	}
	return fmt.Sprintf("gateway %s error (%s)", kind, e.Code)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsTransientGatewayError reports whether err is worth retrying.
func IsTransientGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Transient
}

type CreateIntentRequest struct {
	OrderID        string
	CustomerID     string
	VendorID       string
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	// Settlement metadata echoed back on webhook events: order, parties and
	// the commission breakdown attached at creation time.
	Metadata map[string]string
}

type CreateIntentResponse struct {
	ExternalRef string
	Status      string // created|requires_confirmation|succeeded|failed
}

type RefundRequest struct {
	PaymentID      string
	ExternalRef    string
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Reason         string
}

type RefundResponse struct {
	GatewayRef string
	Status     string // succeeded|failed
}

// Gateway is the contract this core expects from the external card-payment
// processor. Webhook events arrive separately, signed with the shared secret.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, req CreateIntentRequest) (CreateIntentResponse, error)
	Refund(ctx context.Context, req RefundRequest) (RefundResponse, error)
}
