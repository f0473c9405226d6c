package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the payment core needs at construction time.
// No package-level state; main loads it once and passes it down.
type Config struct {
	ListenAddr string
	DBDSN      string
	Currency   string

	Gateway    GatewayConfig
	Commission CommissionConfig
	Payments   PaymentsConfig
	Wallets    WalletsConfig
	Instapay   InstapayConfig
}

type GatewayConfig struct {
	// Shared secret used to verify webhook signatures.
	WebhookSecret string
	// Tolerance for the signed timestamp in webhook headers.
	SignatureMaxAge time.Duration

	CallTimeout time.Duration
	MaxRetries  int
	RetryBase   time.Duration
}

type CommissionConfig struct {
	// Rates in basis points (250 = 2.5%).
	StandardRateBps int64
	// Premium must be strictly lower than standard; the exact value is a
	// business setting, not a constant.
	PremiumRateBps int64

	ProcessingRateBps  int64
	ProcessingFeeMinor int64 // fixed per-transaction fee, minor units
}

type PaymentsConfig struct {
	MinAmountMinor int64
}

type WalletsConfig struct {
	WithdrawalFeeMinor int64
}

type InstapayConfig struct {
	MerchantID string
	// Accepted difference between submitted and expected amounts, minor units.
	ToleranceMinor int64
}

func Load() (Config, error) {
	cfg := Config{
		ListenAddr: envOr("LISTEN_ADDR", ":8080"),
		DBDSN:      os.Getenv("DB_DSN"),
		Currency:   envOr("CURRENCY", "EGP"),
		Gateway: GatewayConfig{
			WebhookSecret:   os.Getenv("GATEWAY_WEBHOOK_SECRET"),
			SignatureMaxAge: envDuration("GATEWAY_SIGNATURE_MAX_AGE", 5*time.Minute),
			CallTimeout:     envDuration("GATEWAY_CALL_TIMEOUT", 10*time.Second),
			MaxRetries:      int(envInt("GATEWAY_MAX_RETRIES", 3)),
			RetryBase:       envDuration("GATEWAY_RETRY_BASE", 200*time.Millisecond),
		},
		Commission: CommissionConfig{
			StandardRateBps:    envInt("COMMISSION_STANDARD_BPS", 250),
			PremiumRateBps:     envInt("COMMISSION_PREMIUM_BPS", 150),
			ProcessingRateBps:  envInt("PROCESSING_RATE_BPS", 290),
			ProcessingFeeMinor: envInt("PROCESSING_FEE_MINOR", 30),
		},
		Payments: PaymentsConfig{
			MinAmountMinor: envInt("PAYMENT_MIN_AMOUNT_MINOR", 100),
		},
		Wallets: WalletsConfig{
			WithdrawalFeeMinor: envInt("WITHDRAWAL_FEE_MINOR", 500),
		},
		Instapay: InstapayConfig{
			MerchantID:     envOr("INSTAPAY_MERCHANT_ID", "SOUK-EL-SYARAT"),
			ToleranceMinor: envInt("INSTAPAY_TOLERANCE_MINOR", 1),
		},
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("DB_DSN is required")
	}
	if cfg.Gateway.WebhookSecret == "" {
		return Config{}, fmt.Errorf("GATEWAY_WEBHOOK_SECRET is required")
	}
	if err := cfg.Commission.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c CommissionConfig) Validate() error {
	if c.StandardRateBps <= 0 {
		return fmt.Errorf("standard commission rate must be positive")
	}
	if c.PremiumRateBps <= 0 || c.PremiumRateBps >= c.StandardRateBps {
		return fmt.Errorf("premium commission rate must be positive and lower than standard")
	}
	if c.ProcessingRateBps < 0 || c.ProcessingFeeMinor < 0 {
		return fmt.Errorf("processing fee settings must not be negative")
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
