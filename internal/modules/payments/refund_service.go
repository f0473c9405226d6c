package payments

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/wallets"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

type RefundService struct {
	store   Store
	txm     db.TxManager
	gateway Gateway
	wallets *wallets.Service
	calc    *commission.Calculator
	logger  *slog.Logger

	// Serializes refunds per payment so only one request can observe
	// "not yet refunded" and proceed.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRefundService(store Store, txm db.TxManager, gateway Gateway, walletSvc *wallets.Service, calc *commission.Calculator) *RefundService {
	return &RefundService{
		store:   store,
		txm:     txm,
		gateway: gateway,
		wallets: walletSvc,
		calc:    calc,
		logger:  slog.Default(),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *RefundService) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *RefundService) lockPayment(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

type RefundInput struct {
	PaymentID string
	// Zero amount means "refund the full remaining amount".
	Amount money.Money
	// OriginalAmount overrides the captured amount when the caller settles
	// against an external order total; nil uses the intent amount.
	OriginalAmount *money.Money
	Reason         string
}

type RefundResult struct {
	Success         bool
	RefundID        string
	Error           string
	IsPartial       bool
	RemainingAmount money.Money
}

// RefundPayment orchestrates an idempotent full or partial refund. A payment
// whose captured amount is already fully refunded yields a non-retryable
// "already refunded" error with no gateway or ledger side effects.
func (s *RefundService) RefundPayment(ctx context.Context, in RefundInput) (RefundResult, error) {
	if in.PaymentID == "" {
		return RefundResult{Error: ErrPaymentNotFound.Error()}, nil
	}

	unlock := s.lockPayment(in.PaymentID)
	defer unlock()

	// Phase 1: lock intent, gate on status, create pending refund record.
	var (
		intent    PaymentIntent
		record    RefundRecord
		original  int64
		remaining int64
		failEarly string
	)
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		intent, err = s.store.GetIntentForUpdate(ctx, in.PaymentID)
		if err != nil {
			if err == ErrPaymentNotFound {
				failEarly = ErrPaymentNotFound.Error()
				return nil
			}
			return err
		}

		switch intent.Status {
		case StatusSucceeded, StatusPartiallyRefunded:
		case StatusRefunded:
			failEarly = ErrAlreadyRefunded.Error()
			return nil
		default:
			failEarly = ErrNotRefundable.Error()
			return nil
		}

		original = intent.AmountMinor
		if in.OriginalAmount != nil {
			original = in.OriginalAmount.AmountMinor
		}
		remaining = original - intent.RefundedMinor
		if remaining <= 0 {
			failEarly = ErrAlreadyRefunded.Error()
			return nil
		}

		pending, err := s.store.PendingRefundExists(ctx, intent.ID)
		if err != nil {
			return err
		}
		if pending {
			failEarly = ErrRefundPending.Error()
			return nil
		}

		amount := in.Amount.AmountMinor
		if amount <= 0 {
			amount = remaining
		}
		if amount > remaining {
			failEarly = ErrRefundExceedsOriginal.Error()
			return nil
		}

		now := time.Now()
		record = RefundRecord{
			ID:             uuid.NewString(),
			PaymentID:      intent.ID,
			AmountMinor:    amount,
			Currency:       intent.Currency,
			IsPartial:      amount < original,
			RemainingMinor: remaining - amount,
			Status:         RefundStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if in.Reason != "" {
			r := in.Reason
			record.Reason = &r
		}
		return s.store.CreateRefund(ctx, &record)
	})
	if err != nil {
		return RefundResult{}, err
	}
	if failEarly != "" {
		return RefundResult{Error: failEarly}, nil
	}

	// Phase 2: gateway refund, outside the transaction.
	externalRef := ""
	if intent.ExternalRef != nil {
		externalRef = *intent.ExternalRef
	}
	resp, gwErr := s.gateway.Refund(ctx, RefundRequest{
		PaymentID:      intent.ID,
		ExternalRef:    externalRef,
		AmountMinor:    record.AmountMinor,
		Currency:       record.Currency,
		IdempotencyKey: record.ID,
		Reason:         in.Reason,
	})

	// Gateway failure: record it and stop; intent and ledger are untouched.
	if gwErr != nil || resp.Status == RefundStatusFailed {
		msg := "refund failed"
		if gwErr != nil {
			msg = gwErr.Error()
		}
		err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
			return s.store.UpdateRefund(ctx, record.ID, map[string]any{
				"status":     RefundStatusFailed,
				"updated_at": time.Now(),
			})
		})
		if err != nil {
			return RefundResult{}, err
		}
		s.logger.ErrorContext(ctx, "gateway refund failed",
			"payment_id", intent.ID, "refund_id", record.ID, "err", msg)
		return RefundResult{Error: msg}, nil
	}

	// Phase 3: finalize refund, move intent status and apply compensating
	// ledger debits in one atomic unit.
	err = s.txm.RunInTx(ctx, func(ctx context.Context) error {
		now := time.Now()

		upd := map[string]any{
			"status":     RefundStatusSucceeded,
			"updated_at": now,
		}
		if resp.GatewayRef != "" {
			upd["gateway_ref"] = resp.GatewayRef
		}
		if err := s.store.UpdateRefund(ctx, record.ID, upd); err != nil {
			return err
		}

		newRefunded := intent.RefundedMinor + record.AmountMinor
		newStatus := StatusPartiallyRefunded
		if newRefunded >= original {
			newStatus = StatusRefunded
		}
		if err := s.store.UpdateIntent(ctx, intent.ID, map[string]any{
			"refunded_minor": newRefunded,
			"status":         newStatus,
			"updated_at":     now,
		}); err != nil {
			return err
		}

		return s.reverseSettlement(ctx, intent, record, original)
	})
	if err != nil {
		return RefundResult{}, err
	}

	s.logger.InfoContext(ctx, "refund succeeded",
		"payment_id", intent.ID, "refund_id", record.ID,
		"amount", money.New(record.AmountMinor, record.Currency).Display(),
		"partial", record.IsPartial)

	return RefundResult{
		Success:         true,
		RefundID:        record.ID,
		IsPartial:       record.IsPartial,
		RemainingAmount: money.New(record.RemainingMinor, record.Currency),
	}, nil
}

// reverseSettlement gives back what settlement credited for the refunded
// portion: the vendor returns its net share and the platform its commission.
// The gateway keeps its processing fee, so that slice is not recovered.
// Shares are prorated from the original settlement breakdown, not recomputed
// per slice; the fixed processing fee was charged once on the payment, and a
// per-slice calculation would leave it stranded in the vendor wallet across
// partial refunds. Cumulative prorating makes the slices of a fully refunded
// payment sum exactly to the settled amounts.
func (s *RefundService) reverseSettlement(ctx context.Context, intent PaymentIntent, record RefundRecord, original int64) error {
	// Nothing was settled for intents that never succeeded via webhook.
	vendorWallet, err := s.wallets.GetWalletByOwner(ctx, intent.VendorID, wallets.OwnerTypeVendor)
	if err != nil {
		if err == wallets.ErrWalletNotFound {
			return nil
		}
		return err
	}
	platformWallet, err := s.wallets.GetWalletByOwner(ctx, wallets.PlatformOwnerID, wallets.OwnerTypePlatform)
	if err != nil {
		if err == wallets.ErrWalletNotFound {
			return nil
		}
		return err
	}

	breakdown, err := s.calc.Calculate(money.New(original, record.Currency), commission.Tier(intent.VendorTier))
	if err != nil {
		return err
	}

	// intent still carries the pre-refund RefundedMinor snapshot here.
	prev := intent.RefundedMinor
	cur := prev + record.AmountMinor
	vendorShare := prorate(breakdown.VendorNet.AmountMinor, cur, original) -
		prorate(breakdown.VendorNet.AmountMinor, prev, original)
	platformShare := prorate(breakdown.PlatformCommission.AmountMinor, cur, original) -
		prorate(breakdown.PlatformCommission.AmountMinor, prev, original)

	return s.wallets.Reverse(ctx, wallets.ReverseInput{
		PaymentID:        intent.ID,
		RefundID:         record.ID,
		VendorWalletID:   vendorWallet.ID,
		PlatformWalletID: platformWallet.ID,
		VendorShare:      money.New(vendorShare, record.Currency),
		PlatformShare:    money.New(platformShare, record.Currency),
	})
}

// prorate returns share scaled by part/total, rounded half up.
func prorate(share, part, total int64) int64 {
	if part >= total {
		return share
	}
	if part <= 0 {
		return 0
	}
	return (share*part + total/2) / total
}
