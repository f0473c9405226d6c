package apphttp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/handlers"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/middleware"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/instapay"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/payments"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/wallets"
)

type Deps struct {
	Logger *slog.Logger
	Cfg    config.Config

	Payments   *payments.Service
	Refunds    *payments.RefundService
	Webhooks   *payments.WebhookService
	Wallets    *wallets.Service
	Instapay   *instapay.Service
	Commission *commission.Calculator
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	paymentH := handlers.NewPaymentHandler(d.Payments, d.Refunds, d.Cfg.Currency, d.Logger)
	walletH := handlers.NewWalletHandler(d.Wallets, d.Cfg.Currency, d.Logger)
	instapayH := handlers.NewInstapayHandler(d.Instapay, d.Cfg.Currency, d.Logger)
	commissionH := handlers.NewCommissionHandler(d.Commission, d.Cfg.Currency)
	bankH := handlers.NewBankHandler()
	webhookH := handlers.NewWebhookHandler(d.Logger, d.Webhooks)

	api := r.Group("/api/v1")
	{
		api.POST("/payments", paymentH.Create)
		api.GET("/payments/:id", paymentH.Get)
		api.POST("/payments/:id/refunds", paymentH.Refund)

		api.POST("/wallets", walletH.Create)
		api.GET("/wallets/:id", walletH.Get)
		api.GET("/wallets/:id/entries", walletH.Entries)
		api.POST("/wallets/:id/funds", walletH.AddFunds)
		api.POST("/wallets/:id/withdrawals", walletH.Withdraw)

		api.POST("/instapay/references", instapayH.GenerateReference)
		api.POST("/instapay/proofs", instapayH.SubmitProof)
		api.GET("/instapay/orders/:orderID/proofs", instapayH.ProofsByOrder)

		api.POST("/commission/preview", commissionH.Preview)
		api.POST("/banks/validate", bankH.Validate)
	}

	// Webhooks live outside /api/v1: HMAC-signed, no other auth.
	r.POST("/webhooks/gateway", webhookH.Handle)

	return r
}
