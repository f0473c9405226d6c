package commission

import (
	"errors"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
)

var ErrNonPositiveAmount = errors.New("amount must be positive")

type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Breakdown splits an order amount between the platform, the card gateway and
// the vendor. The three parts always sum exactly to Total.
type Breakdown struct {
	Total              money.Money
	PlatformCommission money.Money
	ProcessingFee      money.Money
	VendorNet          money.Money
}

type Calculator struct {
	cfg config.CommissionConfig
}

func NewCalculator(cfg config.CommissionConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate is pure: same amount and tier always produce the same breakdown.
// VendorNet is computed as the remainder, so the conservation invariant
// PlatformCommission + ProcessingFee + VendorNet == Total holds by
// construction regardless of rounding.
func (c *Calculator) Calculate(amount money.Money, tier Tier) (Breakdown, error) {
	if !amount.IsPositive() {
		return Breakdown{}, ErrNonPositiveAmount
	}

	rate := c.cfg.StandardRateBps
	if tier == TierPremium {
		rate = c.cfg.PremiumRateBps
	}

	platform := amount.PercentBps(rate)

	fee := amount.PercentBps(c.cfg.ProcessingRateBps)
	fee.AmountMinor += c.cfg.ProcessingFeeMinor

	net := amount
	net.AmountMinor -= platform.AmountMinor + fee.AmountMinor

	return Breakdown{
		Total:              amount,
		PlatformCommission: platform,
		ProcessingFee:      fee,
		VendorNet:          net,
	}, nil
}
