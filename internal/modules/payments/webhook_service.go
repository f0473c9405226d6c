package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/wallets"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// GatewayEvent is the persistent idempotency record for webhook deliveries.
// The unique event id makes at-least-once redelivery a no-op, surviving
// process restarts.
type GatewayEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_gateway_events_event_id"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime(3)"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (GatewayEvent) TableName() string { return "gateway_events" }

// WebhookEvent is the parsed gateway payload.
type WebhookEvent struct {
	EventID string `json:"id"`
	Type    string `json:"type"`
	Data    struct {
		ExternalRef    string `json:"external_ref"`
		OrderID        string `json:"order_id"`
		CustomerID     string `json:"customer_id"`
		VendorID       string `json:"vendor_id"`
		AmountMinor    int64  `json:"amount_minor"`
		Currency       string `json:"currency"`
		FailureMessage string `json:"failure_message"`
	} `json:"data"`
}

type WebhookService struct {
	store   Store
	txm     db.TxManager
	wallets *wallets.Service
	calc    *commission.Calculator
	cfg     config.GatewayConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewWebhookService(store Store, txm db.TxManager, walletSvc *wallets.Service, calc *commission.Calculator, cfg config.GatewayConfig) *WebhookService {
	return &WebhookService{
		store:   store,
		txm:     txm,
		wallets: walletSvc,
		calc:    calc,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
	}
}

func (s *WebhookService) SetLogger(logger *slog.Logger) { s.logger = logger }

// HandleWebhook verifies the signature, deduplicates by event id and applies
// the event. An invalid signature is rejected before any state change; a
// redelivered id of a processed event returns success without re-applying,
// while a redelivery of an event whose apply failed retries it. Any apply
// error propagates so the HTTP layer answers non-2xx and the gateway
// redelivers.
func (s *WebhookService) HandleWebhook(ctx context.Context, body []byte, sigHeader string) error {
	if err := VerifySignature([]byte(s.cfg.WebhookSecret), sigHeader, body, s.cfg.SignatureMaxAge, s.now()); err != nil {
		// Security boundary: log for audit, change nothing.
		s.logger.WarnContext(ctx, "webhook signature rejected", "err", err)
		return err
	}

	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("parse webhook payload: %w", err)
	}
	if ev.EventID == "" {
		return fmt.Errorf("%w: missing event id", ErrUnknownEventType)
	}

	// Record the delivery in its own transaction so the event row survives
	// a failed apply.
	var (
		rec    GatewayEvent
		dedupe bool
	)
	err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		rec = GatewayEvent{
			ID:          uuid.NewString(),
			EventID:     ev.EventID,
			EventType:   ev.Type,
			PayloadJSON: datatypes.JSON(body),
			ReceivedAt:  s.now(),
		}
		err := s.store.InsertEvent(ctx, &rec)
		if err != ErrDuplicateEvent {
			return err
		}
		existing, found, err := s.store.GetEventByEventID(ctx, ev.EventID)
		if err != nil {
			return err
		}
		if found && existing.ProcessedAt != nil {
			dedupe = true
			return nil
		}
		// Redelivery of an event that never finished: retry the apply
		// against the existing record.
		rec = existing
		return nil
	})
	if err != nil {
		return err
	}
	if dedupe {
		s.logger.InfoContext(ctx, "webhook event deduplicated",
			"event_id", ev.EventID, "type", ev.Type)
		return nil
	}

	// Apply and mark processed in one transaction.
	applyErr := s.txm.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		switch ev.Type {
		case EventPaymentSucceeded:
			err = s.applyPaymentSucceeded(ctx, ev)
		case EventPaymentFailed:
			err = s.applyPaymentFailed(ctx, ev)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
		}
		if err != nil {
			return err
		}
		return s.store.MarkEventProcessed(ctx, rec.ID, s.now())
	})
	if applyErr != nil {
		// The apply transaction rolled back; persist the reason separately.
		if err := s.txm.RunInTx(ctx, func(ctx context.Context) error {
			return s.store.MarkEventFailed(ctx, rec.ID, applyErr.Error())
		}); err != nil {
			s.logger.ErrorContext(ctx, "recording webhook failure failed",
				"event_id", ev.EventID, "err", err)
		}
		s.logger.ErrorContext(ctx, "webhook event apply failed",
			"event_id", ev.EventID, "type", ev.Type, "err", applyErr)
		return applyErr
	}

	s.logger.InfoContext(ctx, "webhook event processed",
		"event_id", ev.EventID, "type", ev.Type)
	return nil
}

// applyPaymentSucceeded settles the order in the surrounding transaction:
// vendor wallet gains the net amount, platform wallet gains the commission,
// intent becomes succeeded.
func (s *WebhookService) applyPaymentSucceeded(ctx context.Context, ev WebhookEvent) error {
	if ev.Data.ExternalRef == "" {
		return fmt.Errorf("missing external_ref")
	}

	intent, err := s.store.GetIntentByExternalRefForUpdate(ctx, ev.Data.ExternalRef)
	if err != nil {
		return err
	}

	// Redelivery after a processed-but-unrecorded event: already settled.
	if intent.Status == StatusSucceeded || intent.Status == StatusRefunded || intent.Status == StatusPartiallyRefunded {
		return nil
	}
	if intent.Status == StatusFailed {
		return fmt.Errorf("payment %s already failed", intent.ID)
	}

	amount := money.New(intent.AmountMinor, intent.Currency)
	breakdown, err := s.calc.Calculate(amount, commission.Tier(intent.VendorTier))
	if err != nil {
		return err
	}

	vendorWallet, err := s.wallets.GetWalletByOwner(ctx, intent.VendorID, wallets.OwnerTypeVendor)
	if err != nil {
		return fmt.Errorf("vendor wallet for %s: %w", intent.VendorID, err)
	}
	platformWallet, err := s.wallets.EnsurePlatformWallet(ctx)
	if err != nil {
		return err
	}

	if err := s.wallets.Settle(ctx, wallets.SettleInput{
		PaymentID:          intent.ID,
		VendorWalletID:     vendorWallet.ID,
		PlatformWalletID:   platformWallet.ID,
		VendorNet:          breakdown.VendorNet,
		PlatformCommission: breakdown.PlatformCommission,
	}); err != nil {
		return err
	}

	if err := s.store.UpdateIntent(ctx, intent.ID, map[string]any{
		"status":        StatusSucceeded,
		"error_message": nil,
		"updated_at":    s.now(),
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "payment settled",
		"payment_id", intent.ID, "order_id", intent.OrderID,
		"vendor_net", breakdown.VendorNet.Display(),
		"platform_commission", breakdown.PlatformCommission.Display())
	return nil
}

func (s *WebhookService) applyPaymentFailed(ctx context.Context, ev WebhookEvent) error {
	if ev.Data.ExternalRef == "" {
		return fmt.Errorf("missing external_ref")
	}

	intent, err := s.store.GetIntentByExternalRefForUpdate(ctx, ev.Data.ExternalRef)
	if err != nil {
		return err
	}
	if intent.Status == StatusFailed {
		return nil
	}
	// Never demote a settled payment on a late failure event.
	if intent.Status == StatusSucceeded || intent.Status == StatusRefunded || intent.Status == StatusPartiallyRefunded {
		return nil
	}

	msg := "gateway webhook: payment failed"
	if ev.Data.FailureMessage != "" {
		msg = ev.Data.FailureMessage
	}
	return s.store.UpdateIntent(ctx, intent.ID, map[string]any{
		"status":        StatusFailed,
		"error_message": msg,
		"updated_at":    s.now(),
	})
}
