package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/http/middleware"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/modules/instapay"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/shared/apperr"
)

// Receipt uploads are screenshots from banking apps; anything else is noise.
const maxReceiptBytes = 8 << 20

type InstapayHandler struct {
	instapay *instapay.Service
	currency string
	logger   *slog.Logger
}

func NewInstapayHandler(svc *instapay.Service, currency string, logger *slog.Logger) *InstapayHandler {
	return &InstapayHandler{instapay: svc, currency: currency, logger: logger}
}

type generateReferenceRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// POST /api/v1/instapay/references
func (h *InstapayHandler) GenerateReference(c *gin.Context) {
	var req generateReferenceRequest
	if !bindJSON(c, &req) {
		return
	}

	amount, ok := parseAmount(c, "amount", req.Amount, h.currency)
	if !ok {
		return
	}

	ref, err := h.instapay.GenerateReference(amount, req.OrderID)
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr(err.Error(), nil))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reference_code": ref.Code,
		"qr_payload":     ref.Payload,
		"amount":         amount.Display(),
	})
}

// POST /api/v1/instapay/proofs (multipart form)
//
// Fields: order_id, reference_code, submitted_amount, expected_amount and an
// optional receipt file. A mismatched amount is accepted and stored
// unmatched for manual reconciliation; only a malformed reference is
// rejected.
func (h *InstapayHandler) SubmitProof(c *gin.Context) {
	orderID := c.PostForm("order_id")
	referenceCode := c.PostForm("reference_code")
	if orderID == "" || referenceCode == "" {
		middleware.Fail(c, apperr.InvalidErr("Validation failed.", map[string]string{
			"order_id":       "This field is required.",
			"reference_code": "This field is required.",
		}))
		return
	}

	submitted, ok := parseAmount(c, "submitted_amount", c.PostForm("submitted_amount"), h.currency)
	if !ok {
		return
	}
	expected, ok := parseAmount(c, "expected_amount", c.PostForm("expected_amount"), h.currency)
	if !ok {
		return
	}

	in := instapay.SubmitProofInput{
		OrderID:         orderID,
		ReferenceCode:   referenceCode,
		SubmittedAmount: submitted,
		ExpectedAmount:  expected,
	}

	if fh, err := c.FormFile("receipt"); err == nil {
		if fh.Size > maxReceiptBytes {
			middleware.Fail(c, apperr.InvalidErr("Receipt file too large.", nil))
			return
		}
		f, err := fh.Open()
		if err != nil {
			middleware.Fail(c, apperr.Wrap(err))
			return
		}
		defer f.Close()
		in.Attachment = &instapay.ProofAttachment{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	}

	proof, err := h.instapay.SubmitProof(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, instapay.ErrInvalidReference) {
			middleware.Fail(c, apperr.InvalidErr("Invalid reference code.", nil))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusCreated, proofJSON(proof))
}

// GET /api/v1/instapay/orders/:orderID/proofs
func (h *InstapayHandler) ProofsByOrder(c *gin.Context) {
	proofs, err := h.instapay.ProofsByOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]gin.H, 0, len(proofs))
	for _, p := range proofs {
		out = append(out, proofJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"proofs": out})
}

func proofJSON(p instapay.InstapayProof) gin.H {
	item := gin.H{
		"id":               p.ID,
		"order_id":         p.OrderID,
		"reference_code":   p.ReferenceCode,
		"expected_amount":  money.New(p.ExpectedMinor, p.Currency).Display(),
		"submitted_amount": money.New(p.SubmittedMinor, p.Currency).Display(),
		"currency":         p.Currency,
		"matched":          p.Matched,
		"created_at":       p.CreatedAt,
	}
	if p.AttachmentURL != nil {
		item["attachment_url"] = *p.AttachmentURL
	}
	return item
}
