package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/banks"
)

type BankHandler struct{}

func NewBankHandler() *BankHandler { return &BankHandler{} }

type validateBankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	IBAN          string `json:"iban" binding:"required"`
}

// POST /api/v1/banks/validate
//
// Validation-only endpoint so vendor onboarding can check payout details
// before a withdrawal is ever attempted. Always 200; the verdict is in the
// body.
func (h *BankHandler) Validate(c *gin.Context) {
	var req validateBankAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account := banks.BankAccount{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IBAN:          req.IBAN,
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      banks.ValidateBankAccount(account),
		"bank_known": banks.IsAllowedBank(req.BankName),
		"iban_valid": banks.ValidateIBAN(req.IBAN),
	})
}
