package main

import (
	"context"
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/db"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/gateway/mockgateway"
	apphttp "github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/commission"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/instapay"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/payments"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/wallets"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/storage"
)

func main() {
	// .env is a dev convenience; prod uses real env vars.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	ctx := context.Background()

	uploads, err := storage.FromEnv(ctx)
	if err != nil {
		log.Fatalf("receipt storage: %v", err)
	}
	logger.Info("receipt storage ready", "driver", uploads.Driver)

	txm := db.NewGormTxManager(gdb)
	calc := commission.NewCalculator(cfg.Commission)

	walletSvc := wallets.NewService(wallets.NewRepo(gdb), txm, cfg.Wallets, cfg.Currency)
	walletSvc.SetLogger(logger)
	if _, err := walletSvc.EnsurePlatformWallet(ctx); err != nil {
		log.Fatalf("platform wallet: %v", err)
	}

	paymentStore := payments.NewRepo(gdb)
	gateway := mockgateway.New(logger)

	paymentSvc := payments.NewService(paymentStore, txm, gateway, calc, cfg.Payments, cfg.Gateway)
	paymentSvc.SetLogger(logger)

	refundSvc := payments.NewRefundService(paymentStore, txm, gateway, walletSvc, calc)
	refundSvc.SetLogger(logger)

	webhookSvc := payments.NewWebhookService(paymentStore, txm, walletSvc, calc, cfg.Gateway)
	webhookSvc.SetLogger(logger)

	instapaySvc := instapay.NewService(instapay.NewRepo(gdb), uploads.Storage, cfg.Instapay)
	instapaySvc.SetLogger(logger)

	r := apphttp.NewRouter(apphttp.Deps{
		Logger:     logger,
		Cfg:        cfg,
		Payments:   paymentSvc,
		Refunds:    refundSvc,
		Webhooks:   webhookSvc,
		Wallets:    walletSvc,
		Instapay:   instapaySvc,
		Commission: calc,
	})

	logger.Info("listening", "addr", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
