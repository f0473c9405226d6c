package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/middleware"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/validation"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/shared/apperr"
)

// bindJSON binds the request body into dst and answers the request itself on
// failure. Callers bail out when it returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fields := validation.FromBindError(err, dst)
		middleware.Fail(c, apperr.InvalidErr("Validation failed.", fields))
		return false
	}
	return true
}

// parseAmount turns a decimal string like "1000.00" into minor units,
// answering 400 itself on bad input.
func parseAmount(c *gin.Context, field, value, currency string) (money.Money, bool) {
	m, err := money.FromDecimalString(value, currency)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("Validation failed.", map[string]string{
			field: "Must be a decimal amount.",
		}))
		return money.Money{}, false
	}
	if !m.IsPositive() {
		middleware.Fail(c, apperr.InvalidErr("Validation failed.", map[string]string{
			field: "Must be greater than zero.",
		}))
		return money.Money{}, false
	}
	return m, true
}
