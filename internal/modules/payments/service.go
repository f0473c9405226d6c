package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

type Service struct {
	store   Store
	txm     db.TxManager
	gateway Gateway
	calc    *commission.Calculator
	cfg     config.PaymentsConfig
	gwCfg   config.GatewayConfig
	logger  *slog.Logger

	// Test hook; defaults to a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewService(store Store, txm db.TxManager, gateway Gateway, calc *commission.Calculator, cfg config.PaymentsConfig, gwCfg config.GatewayConfig) *Service {
	return &Service{
		store:   store,
		txm:     txm,
		gateway: gateway,
		calc:    calc,
		cfg:     cfg,
		gwCfg:   gwCfg,
		logger:  slog.Default(),
		sleep:   sleepCtx,
	}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

type CreatePaymentInput struct {
	OrderID        string
	CustomerID     string
	VendorID       string
	Amount         money.Money
	VendorTier     commission.Tier
	IdempotencyKey string
}

type CreatePaymentResult struct {
	Success     bool
	PaymentID   string
	Status      string
	Error       string
	ShouldRetry bool
	Idempotent  bool
}

// CreatePayment opens a payment intent with the gateway. Validation failures
// come back with ShouldRetry=false; transient gateway failures are retried
// locally with exponential backoff and, once exhausted, surface with
// ShouldRetry=true so the caller can try again later.
func (s *Service) CreatePayment(ctx context.Context, in CreatePaymentInput) (CreatePaymentResult, error) {
	if in.OrderID == "" || in.CustomerID == "" || in.VendorID == "" || in.IdempotencyKey == "" {
		return CreatePaymentResult{Error: "missing required fields"}, nil
	}
	if in.Amount.AmountMinor < s.cfg.MinAmountMinor {
		return CreatePaymentResult{Error: ErrBelowMinimum.Error()}, nil
	}
	tier := in.VendorTier
	if tier == "" {
		tier = commission.TierStandard
	}

	breakdown, err := s.calc.Calculate(in.Amount, tier)
	if err != nil {
		return CreatePaymentResult{Error: err.Error()}, nil
	}

	// Phase 1: idempotency check + create intent, inside a transaction.
	var intent PaymentIntent
	var idempotent bool
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		existing, found, err := s.store.GetIntentByOrderAndKey(ctx, in.OrderID, in.IdempotencyKey)
		if err != nil {
			return err
		}
		if found {
			intent = existing
			idempotent = true
			return nil
		}

		now := time.Now()
		intent = PaymentIntent{
			ID:             uuid.NewString(),
			OrderID:        in.OrderID,
			CustomerID:     in.CustomerID,
			VendorID:       in.VendorID,
			AmountMinor:    in.Amount.AmountMinor,
			Currency:       in.Amount.Currency,
			Status:         StatusCreated,
			VendorTier:     string(tier),
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.store.CreateIntent(ctx, &intent)
	})
	if err != nil {
		return CreatePaymentResult{}, err
	}
	if idempotent {
		return CreatePaymentResult{
			Success:    intent.Status != StatusFailed,
			PaymentID:  intent.ID,
			Status:     intent.Status,
			Idempotent: true,
		}, nil
	}

	// Phase 2: gateway call, outside the transaction.
	resp, gwErr := s.createWithRetry(ctx, CreateIntentRequest{
		OrderID:        in.OrderID,
		CustomerID:     in.CustomerID,
		VendorID:       in.VendorID,
		AmountMinor:    in.Amount.AmountMinor,
		Currency:       in.Amount.Currency,
		IdempotencyKey: in.IdempotencyKey,
		Metadata: map[string]string{
			"order_id":            in.OrderID,
			"customer_id":         in.CustomerID,
			"vendor_id":           in.VendorID,
			"vendor_tier":         string(tier),
			"platform_commission": breakdown.PlatformCommission.Display(),
			"processing_fee":      breakdown.ProcessingFee.Display(),
			"vendor_net":          breakdown.VendorNet.Display(),
		},
	})

	// Phase 3: finalize, re-validating the intent after the await.
	var result CreatePaymentResult
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.GetIntentForUpdate(ctx, intent.ID)
		if err != nil {
			return err
		}
		// A webhook may have raced us past created already; leave it alone.
		if current.Status != StatusCreated {
			result = CreatePaymentResult{Success: true, PaymentID: current.ID, Status: current.Status}
			return nil
		}

		now := time.Now()
		updates := map[string]any{"updated_at": now}

		if gwErr != nil {
			msg := gwErr.Error()
			updates["status"] = StatusFailed
			updates["error_message"] = msg
			if err := s.store.UpdateIntent(ctx, intent.ID, updates); err != nil {
				return err
			}
			result = CreatePaymentResult{
				PaymentID:   intent.ID,
				Status:      StatusFailed,
				Error:       msg,
				ShouldRetry: IsTransientGatewayError(gwErr),
			}
			return nil
		}

		status := resp.Status
		if status == "" || status == StatusCreated {
			status = StatusRequiresConfirmation
		}
		updates["status"] = status
		if resp.ExternalRef != "" {
			updates["external_ref"] = resp.ExternalRef
		}
		if err := s.store.UpdateIntent(ctx, intent.ID, updates); err != nil {
			return err
		}
		result = CreatePaymentResult{Success: true, PaymentID: intent.ID, Status: status}
		return nil
	})
	if err != nil {
		return CreatePaymentResult{}, err
	}

	s.logger.InfoContext(ctx, "payment intent created",
		"payment_id", result.PaymentID, "order_id", in.OrderID, "status", result.Status,
		"amount", in.Amount.Display(), "should_retry", result.ShouldRetry)
	return result, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (PaymentIntent, error) {
	return s.store.GetIntent(ctx, id)
}

// createWithRetry retries only transient gateway failures, with exponential
// backoff, each attempt under its own timeout.
func (s *Service) createWithRetry(ctx context.Context, req CreateIntentRequest) (CreateIntentResponse, error) {
	attempts := s.gwCfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := s.sleep(ctx, s.gwCfg.RetryBase<<(i-1)); err != nil {
				return CreateIntentResponse{}, lastErr
			}
		}

		callCtx := ctx
		if s.gwCfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.gwCfg.CallTimeout)
			resp, err := s.gateway.CreateIntent(callCtx, req)
			cancel()
			if err == nil {
				return resp, nil
			}
			lastErr = err
		} else {
			resp, err := s.gateway.CreateIntent(callCtx, req)
			if err == nil {
				return resp, nil
			}
			lastErr = err
		}

		if !IsTransientGatewayError(lastErr) {
			return CreateIntentResponse{}, lastErr
		}
	}
	return CreateIntentResponse{}, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
