package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/middleware"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/banks"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/wallets"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/shared/apperr"
)

type WalletHandler struct {
	wallets  *wallets.Service
	currency string
	logger   *slog.Logger
}

func NewWalletHandler(walletSvc *wallets.Service, currency string, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{wallets: walletSvc, currency: currency, logger: logger}
}

type createWalletRequest struct {
	OwnerID   string `json:"owner_id" binding:"required"`
	OwnerType string `json:"owner_type" binding:"required,oneof=customer vendor"`
}

// POST /api/v1/wallets
func (h *WalletHandler) Create(c *gin.Context) {
	var req createWalletRequest
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.wallets.CreateWallet(c.Request.Context(), req.OwnerID, req.OwnerType)
	if err != nil {
		middleware.Fail(c, walletErr(err))
		return
	}
	c.JSON(http.StatusCreated, walletJSON(w))
}

// GET /api/v1/wallets/:id
func (h *WalletHandler) Get(c *gin.Context) {
	w, err := h.wallets.GetWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, walletErr(err))
		return
	}
	c.JSON(http.StatusOK, walletJSON(w))
}

// GET /api/v1/wallets/:id/entries
func (h *WalletHandler) Entries(c *gin.Context) {
	entries, err := h.wallets.Entries(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, walletErr(err))
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		item := gin.H{
			"id":            e.ID,
			"direction":     e.Direction,
			"amount":        money.New(e.AmountMinor, e.Currency).Display(),
			"currency":      e.Currency,
			"balance_after": money.New(e.RunningBalanceAfter, e.Currency).Display(),
			"created_at":    e.CreatedAt,
		}
		if e.RelatedPaymentID != nil {
			item["related_payment_id"] = *e.RelatedPaymentID
		}
		if e.Reference != nil {
			item["reference"] = *e.Reference
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

type addFundsRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference"`
}

// POST /api/v1/wallets/:id/funds
func (h *WalletHandler) AddFunds(c *gin.Context) {
	var req addFundsRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.wallets.AddFunds(c.Request.Context(), c.Param("id"), req.Amount, req.Method, req.Reference)
	if err != nil {
		middleware.Fail(c, walletErr(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": tx.ID,
		"amount":         money.New(tx.AmountMinor, tx.Currency).Display(),
		"method":         tx.Method,
		"status":         tx.Status,
	})
}

type withdrawRequest struct {
	Amount        string `json:"amount" binding:"required"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	IBAN          string `json:"iban" binding:"required"`
}

// POST /api/v1/wallets/:id/withdrawals
//
// The payout destination is validated before any money moves: allow-listed
// bank, numeric account number, IBAN checksum.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if !bindJSON(c, &req) {
		return
	}

	account := banks.BankAccount{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IBAN:          req.IBAN,
	}
	if !banks.ValidateBankAccount(account) {
		middleware.Fail(c, apperr.InvalidErr("Invalid bank account details.", nil))
		return
	}

	amount, ok := parseAmount(c, "amount", req.Amount, h.currency)
	if !ok {
		return
	}

	res, err := h.wallets.Withdraw(c.Request.Context(), c.Param("id"), amount, req.IBAN)
	if err != nil {
		middleware.Fail(c, walletErr(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_id": res.TransactionID,
		"gross_amount":   res.GrossAmount.Display(),
		"fee":            res.Fee.Display(),
		"net_amount":     res.NetAmount.Display(),
	})
}

func walletJSON(w wallets.Wallet) gin.H {
	return gin.H{
		"id":         w.ID,
		"owner_id":   w.OwnerID,
		"owner_type": w.OwnerType,
		"balance":    money.New(w.BalanceMinor, w.Currency).Display(),
		"currency":   w.Currency,
		"created_at": w.CreatedAt,
	}
}

func walletErr(err error) error {
	switch {
	case errors.Is(err, wallets.ErrWalletNotFound):
		return apperr.NotFoundErr("Wallet not found.")
	case errors.Is(err, wallets.ErrInsufficientBalance):
		return apperr.InsufficientFundsErr(wallets.ErrInsufficientBalance.Error())
	case errors.Is(err, wallets.ErrInvalidOwnerType), errors.Is(err, wallets.ErrNonPositiveAmount):
		return apperr.InvalidErr(err.Error(), nil)
	case errors.Is(err, money.ErrInvalidAmount):
		return apperr.InvalidErr("Must be a decimal amount.", nil)
	case errors.Is(err, money.ErrCurrencyMismatch):
		return apperr.InvalidErr("Currency mismatch.", nil)
	default:
		return apperr.Wrap(err)
	}
}
