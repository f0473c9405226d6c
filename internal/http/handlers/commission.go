package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/middleware"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/shared/apperr"
)

type CommissionHandler struct {
	calc     *commission.Calculator
	currency string
}

func NewCommissionHandler(calc *commission.Calculator, currency string) *CommissionHandler {
	return &CommissionHandler{calc: calc, currency: currency}
}

type commissionPreviewRequest struct {
	Amount     string `json:"amount" binding:"required"`
	VendorTier string `json:"vendor_tier" binding:"omitempty,oneof=standard premium"`
}

// POST /api/v1/commission/preview
//
// Pure calculation, no persistence: vendors see the exact split they would
// get for a sale before listing.
func (h *CommissionHandler) Preview(c *gin.Context) {
	var req commissionPreviewRequest
	if !bindJSON(c, &req) {
		return
	}

	amount, ok := parseAmount(c, "amount", req.Amount, h.currency)
	if !ok {
		return
	}

	tier := commission.Tier(req.VendorTier)
	if tier == "" {
		tier = commission.TierStandard
	}

	b, err := h.calc.Calculate(amount, tier)
	if err != nil {
		if errors.Is(err, commission.ErrNonPositiveAmount) {
			middleware.Fail(c, apperr.InvalidErr(err.Error(), nil))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":               b.Total.Display(),
		"platform_commission": b.PlatformCommission.Display(),
		"processing_fee":      b.ProcessingFee.Display(),
		"vendor_net":          b.VendorNet.Display(),
		"vendor_tier":         string(tier),
		"currency":            amount.Currency,
	})
}
