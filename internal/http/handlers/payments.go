package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/middleware"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/payments"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/shared/apperr"
)

type PaymentHandler struct {
	payments *payments.Service
	refunds  *payments.RefundService
	currency string
	logger   *slog.Logger
}

func NewPaymentHandler(paySvc *payments.Service, refundSvc *payments.RefundService, currency string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: paySvc, refunds: refundSvc, currency: currency, logger: logger}
}

type createPaymentRequest struct {
	OrderID        string `json:"order_id" binding:"required"`
	CustomerID     string `json:"customer_id" binding:"required"`
	VendorID       string `json:"vendor_id" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency"`
	VendorTier     string `json:"vendor_tier" binding:"omitempty,oneof=standard premium"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// POST /api/v1/payments
//
// Gateway declines are a normal outcome, not an HTTP error: the response
// carries success=false with should_retry telling the client whether a later
// attempt can help.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req createPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.currency
	}
	amount, ok := parseAmount(c, "amount", req.Amount, currency)
	if !ok {
		return
	}

	res, err := h.payments.CreatePayment(c.Request.Context(), payments.CreatePaymentInput{
		OrderID:        req.OrderID,
		CustomerID:     req.CustomerID,
		VendorID:       req.VendorID,
		Amount:         amount,
		VendorTier:     commission.Tier(req.VendorTier),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	// Rejected before any intent existed: plain validation failure.
	if res.PaymentID == "" {
		middleware.Fail(c, apperr.InvalidErr(res.Error, nil))
		return
	}

	status := http.StatusCreated
	if res.Idempotent {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"success":      res.Success,
		"payment_id":   res.PaymentID,
		"status":       res.Status,
		"error":        res.Error,
		"should_retry": res.ShouldRetry,
		"idempotent":   res.Idempotent,
	})
}

// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == payments.ErrPaymentNotFound {
			middleware.Fail(c, apperr.NotFoundErr("Payment not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	resp := gin.H{
		"id":              p.ID,
		"order_id":        p.OrderID,
		"customer_id":     p.CustomerID,
		"vendor_id":       p.VendorID,
		"amount":          money.New(p.AmountMinor, p.Currency).Display(),
		"currency":        p.Currency,
		"status":          p.Status,
		"vendor_tier":     p.VendorTier,
		"refunded_amount": money.New(p.RefundedMinor, p.Currency).Display(),
		"created_at":      p.CreatedAt,
	}
	if p.ExternalRef != nil {
		resp["external_ref"] = *p.ExternalRef
	}
	if p.ErrorMessage != nil {
		resp["error_message"] = *p.ErrorMessage
	}
	c.JSON(http.StatusOK, resp)
}

type refundRequest struct {
	// Amount is optional; empty means refund the full remaining amount.
	Amount string `json:"amount"`
	// OriginalAmount optionally overrides the captured amount when refunds
	// reconcile against an external order total.
	OriginalAmount string `json:"original_amount"`
	Reason         string `json:"reason"`
}

// POST /api/v1/payments/:id/refunds
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req refundRequest
	if !bindJSON(c, &req) {
		return
	}

	in := payments.RefundInput{
		PaymentID: c.Param("id"),
		Reason:    req.Reason,
	}
	if req.Amount != "" {
		amount, ok := parseAmount(c, "amount", req.Amount, h.currency)
		if !ok {
			return
		}
		in.Amount = amount
	}
	if req.OriginalAmount != "" {
		orig, ok := parseAmount(c, "original_amount", req.OriginalAmount, h.currency)
		if !ok {
			return
		}
		in.OriginalAmount = &orig
	}

	res, err := h.refunds.RefundPayment(c.Request.Context(), in)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if !res.Success {
		middleware.Fail(c, refundFailure(res.Error))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"refund_id":        res.RefundID,
		"is_partial":       res.IsPartial,
		"remaining_amount": res.RemainingAmount.Display(),
	})
}

func refundFailure(msg string) error {
	switch msg {
	case payments.ErrPaymentNotFound.Error():
		return apperr.NotFoundErr("Payment not found.")
	case payments.ErrAlreadyRefunded.Error(),
		payments.ErrRefundPending.Error(),
		payments.ErrNotRefundable.Error():
		return apperr.ConflictErr(msg)
	case payments.ErrRefundExceedsOriginal.Error():
		return apperr.InvalidErr(msg, nil)
	default:
		return apperr.GatewayErr(msg, false, nil)
	}
}
