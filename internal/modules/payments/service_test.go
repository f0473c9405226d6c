package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

func newTestService(store *fakeStore, gw *fakeGateway) *Service {
	svc := NewService(store, passthroughTxm{}, gw, testCommissionCalc(),
		config.PaymentsConfig{MinAmountMinor: 100},
		config.GatewayConfig{MaxRetries: 3, RetryBase: time.Millisecond})
	svc.sleep = noSleep
	return svc
}

func createInput() CreatePaymentInput {
	return CreatePaymentInput{
		OrderID:        "order-1",
		CustomerID:     "cust-1",
		VendorID:       "vendor-1",
		Amount:         money.New(100000, "EGP"),
		IdempotencyKey: "idem-1",
	}
}

func TestCreatePaymentBelowMinimum(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	svc := newTestService(store, gw)

	in := createInput()
	in.Amount = money.New(50, "EGP")
	res, err := svc.CreatePayment(context.Background(), in)
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure below minimum")
	}
	if res.ShouldRetry {
		t.Fatal("validation failure must not be retryable")
	}
	if gw.createCalls != 0 {
		t.Fatalf("gateway called %d times for invalid input", gw.createCalls)
	}
	if len(store.intents) != 0 {
		t.Fatal("no intent should be persisted for invalid input")
	}
}

func TestCreatePaymentSuccess(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{createResp: CreateIntentResponse{
		ExternalRef: "pi_abc123",
		Status:      StatusRequiresConfirmation,
	}}
	svc := newTestService(store, gw)

	res, err := svc.CreatePayment(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Status != StatusRequiresConfirmation {
		t.Fatalf("status = %q", res.Status)
	}

	intent, err := store.GetIntent(context.Background(), res.PaymentID)
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if intent.ExternalRef == nil || *intent.ExternalRef != "pi_abc123" {
		t.Fatal("external ref not recorded")
	}
	if intent.Status != StatusRequiresConfirmation {
		t.Fatalf("persisted status = %q", intent.Status)
	}
}

func TestCreatePaymentAttachesBreakdownMetadata(t *testing.T) {
	store := newFakeStore()
	var got CreateIntentRequest
	gw := &capturingGateway{resp: CreateIntentResponse{ExternalRef: "pi_x", Status: StatusRequiresConfirmation}, captured: &got}
	svc := NewService(store, passthroughTxm{}, gw, testCommissionCalc(),
		config.PaymentsConfig{MinAmountMinor: 100}, config.GatewayConfig{MaxRetries: 1})
	svc.sleep = noSleep

	if _, err := svc.CreatePayment(context.Background(), createInput()); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	// 1000.00 standard: 2.5% commission, 2.9% + 0.30 processing.
	if got.Metadata["platform_commission"] != "25.00" {
		t.Fatalf("platform_commission = %q", got.Metadata["platform_commission"])
	}
	if got.Metadata["processing_fee"] != "29.30" {
		t.Fatalf("processing_fee = %q", got.Metadata["processing_fee"])
	}
	if got.Metadata["vendor_net"] != "945.70" {
		t.Fatalf("vendor_net = %q", got.Metadata["vendor_net"])
	}
}

type capturingGateway struct {
	resp     CreateIntentResponse
	captured *CreateIntentRequest
}

func (g *capturingGateway) Name() string { return "capture" }

func (g *capturingGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (CreateIntentResponse, error) {
	*g.captured = req
	return g.resp, nil
}

func (g *capturingGateway) Refund(ctx context.Context, req RefundRequest) (RefundResponse, error) {
	return RefundResponse{}, errors.New("not implemented")
}

func TestCreatePaymentRetriesTransientThenSucceeds(t *testing.T) {
	store := newFakeStore()
	transient := &GatewayError{Transient: true, Code: "timeout", Err: errors.New("upstream timeout")}
	gw := &fakeGateway{
		createErrs: []error{transient, transient, nil},
		createResp: CreateIntentResponse{ExternalRef: "pi_retry", Status: StatusRequiresConfirmation},
	}
	svc := newTestService(store, gw)

	res, err := svc.CreatePayment(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success after retries, got %q", res.Error)
	}
	if gw.createCalls != 3 {
		t.Fatalf("gateway called %d times, want 3", gw.createCalls)
	}
}

func TestCreatePaymentTransientExhausted(t *testing.T) {
	store := newFakeStore()
	transient := &GatewayError{Transient: true, Code: "unavailable"}
	gw := &fakeGateway{createErrs: []error{transient, transient, transient}}
	svc := newTestService(store, gw)

	res, err := svc.CreatePayment(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if !res.ShouldRetry {
		t.Fatal("transient exhaustion must be retryable")
	}
	if res.Status != StatusFailed {
		t.Fatalf("status = %q", res.Status)
	}
	if gw.createCalls != 3 {
		t.Fatalf("gateway called %d times, want 3", gw.createCalls)
	}

	intent, _ := store.GetIntent(context.Background(), res.PaymentID)
	if intent.Status != StatusFailed {
		t.Fatalf("persisted status = %q", intent.Status)
	}
	if intent.ErrorMessage == nil {
		t.Fatal("error message not persisted")
	}
}

func TestCreatePaymentPermanentDeclineNoRetry(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{createErrs: []error{
		&GatewayError{Code: "card_declined", Err: errors.New("insufficient funds on card")},
	}}
	svc := newTestService(store, gw)

	res, err := svc.CreatePayment(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if res.Success {
		t.Fatal("expected decline")
	}
	if res.ShouldRetry {
		t.Fatal("permanent decline must not be retryable")
	}
	if gw.createCalls != 1 {
		t.Fatalf("gateway called %d times, want 1", gw.createCalls)
	}
	if !strings.Contains(res.Error, "card_declined") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestCreatePaymentIdempotent(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{createResp: CreateIntentResponse{ExternalRef: "pi_once", Status: StatusRequiresConfirmation}}
	svc := newTestService(store, gw)

	first, err := svc.CreatePayment(context.Background(), createInput())
	if err != nil {
		t.Fatalf("first CreatePayment: %v", err)
	}
	second, err := svc.CreatePayment(context.Background(), createInput())
	if err != nil {
		t.Fatalf("second CreatePayment: %v", err)
	}
	if !second.Idempotent {
		t.Fatal("second call should report idempotent hit")
	}
	if second.PaymentID != first.PaymentID {
		t.Fatalf("payment ids differ: %s vs %s", first.PaymentID, second.PaymentID)
	}
	if gw.createCalls != 1 {
		t.Fatalf("gateway called %d times, want 1", gw.createCalls)
	}
	if len(store.intents) != 1 {
		t.Fatalf("%d intents persisted, want 1", len(store.intents))
	}
}

func TestCreatePaymentNewKeyCreatesNewIntent(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{createResp: CreateIntentResponse{ExternalRef: "pi_1", Status: StatusRequiresConfirmation}}
	svc := newTestService(store, gw)

	if _, err := svc.CreatePayment(context.Background(), createInput()); err != nil {
		t.Fatalf("first CreatePayment: %v", err)
	}
	gw.createResp.ExternalRef = "pi_2"
	in := createInput()
	in.IdempotencyKey = "idem-2"
	res, err := svc.CreatePayment(context.Background(), in)
	if err != nil {
		t.Fatalf("second CreatePayment: %v", err)
	}
	if res.Idempotent {
		t.Fatal("different key must not hit the idempotency cache")
	}
	if len(store.intents) != 2 {
		t.Fatalf("%d intents persisted, want 2", len(store.intents))
	}
}
