// Package mockgateway is an in-process card gateway for local development
// and integration tests. It answers deterministically based on the amount so
// failure paths can be exercised without a real processor account.
package mockgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/payments"
)

// Magic amount suffixes (last three minor-unit digits):
//
//	999 -> permanent decline
//	503 -> transient failure on every attempt
//	502 -> transient failure on the first attempt only, then success
const (
	suffixDecline       = 999
	suffixTransient     = 503
	suffixTransientOnce = 502
)

type Gateway struct {
	logger *slog.Logger

	mu       sync.Mutex
	attempts map[string]int // by idempotency key
	refunded map[string]bool
}

func New(logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger:   logger,
		attempts: make(map[string]int),
		refunded: make(map[string]bool),
	}
}

func (g *Gateway) Name() string { return "mock" }

func (g *Gateway) CreateIntent(ctx context.Context, req payments.CreateIntentRequest) (payments.CreateIntentResponse, error) {
	g.mu.Lock()
	g.attempts[req.IdempotencyKey]++
	attempt := g.attempts[req.IdempotencyKey]
	g.mu.Unlock()

	switch req.AmountMinor % 1000 {
	case suffixDecline:
		return payments.CreateIntentResponse{}, &payments.GatewayError{
			Code: "card_declined",
			Err:  errors.New("your card was declined"),
		}
	case suffixTransient:
		return payments.CreateIntentResponse{}, &payments.GatewayError{
			Transient: true,
			Code:      "service_unavailable",
			Err:       errors.New("gateway temporarily unavailable"),
		}
	case suffixTransientOnce:
		if attempt == 1 {
			return payments.CreateIntentResponse{}, &payments.GatewayError{
				Transient: true,
				Code:      "timeout",
				Err:       errors.New("upstream timeout"),
			}
		}
	}

	ref := "pi_mock_" + uuid.NewString()
	g.logger.InfoContext(ctx, "mock intent created",
		"external_ref", ref, "order_id", req.OrderID, "amount_minor", req.AmountMinor)
	return payments.CreateIntentResponse{
		ExternalRef: ref,
		Status:      payments.StatusRequiresConfirmation,
	}, nil
}

func (g *Gateway) Refund(ctx context.Context, req payments.RefundRequest) (payments.RefundResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Replay of a processed refund returns the same outcome.
	if g.refunded[req.IdempotencyKey] {
		return payments.RefundResponse{
			GatewayRef: "re_mock_" + req.IdempotencyKey,
			Status:     payments.RefundStatusSucceeded,
		}, nil
	}

	if req.AmountMinor%1000 == suffixDecline {
		return payments.RefundResponse{}, &payments.GatewayError{
			Code: "refund_rejected",
			Err:  fmt.Errorf("refund rejected for %s", req.ExternalRef),
		}
	}

	g.refunded[req.IdempotencyKey] = true
	g.logger.InfoContext(ctx, "mock refund processed",
		"external_ref", req.ExternalRef, "amount_minor", req.AmountMinor)
	return payments.RefundResponse{
		GatewayRef: "re_mock_" + req.IdempotencyKey,
		Status:     payments.RefundStatusSucceeded,
	}, nil
}
