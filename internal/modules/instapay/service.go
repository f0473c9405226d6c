package instapay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/config"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/money"
	"github.com/AmrNabih-hub/Souk-El-Syarat-sub014/internal/storage"
)

var (
	ErrInvalidReference  = errors.New("invalid instapay reference")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// Reference codes look like ORD-<orderId>-<timestamp>; anything else is
// rejected before amounts are even compared.
var referencePattern = regexp.MustCompile(`^ORD-[A-Za-z0-9]+-\d+$`)

type Store interface {
	CreateProof(ctx context.Context, p *InstapayProof) error
	ProofsByOrder(ctx context.Context, orderID string) ([]InstapayProof, error)
}

type Service struct {
	store   Store
	uploads storage.Storage
	cfg     config.InstapayConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, uploads storage.Storage, cfg config.InstapayConfig) *Service {
	return &Service{
		store:   store,
		uploads: uploads,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
	}
}

func (s *Service) SetLogger(logger *slog.Logger) { s.logger = logger }

type Reference struct {
	Code string
	// Payload is the QR-encodable string a buyer scans or copies into their
	// banking app: merchant id, reference code and 2-decimal amount.
	Payload string
}

// GenerateReference issues the reference a buyer must attach to the manual
// bank transfer for the given order.
func (s *Service) GenerateReference(amount money.Money, orderID string) (Reference, error) {
	if !amount.IsPositive() {
		return Reference{}, ErrNonPositiveAmount
	}
	if orderID == "" {
		return Reference{}, ErrInvalidReference
	}

	code := fmt.Sprintf("ORD-%s-%d", orderID, s.now().Unix())
	payload := fmt.Sprintf("%s|%s|%s", s.cfg.MerchantID, code, amount.Display())
	return Reference{Code: code, Payload: payload}, nil
}

// ValidateReference reports whether a submitted code has the expected shape.
func ValidateReference(code string) bool {
	return referencePattern.MatchString(code)
}

// VerifyAmount accepts a submitted amount within the configured tolerance of
// the expected one (one minor unit by default, absorbing manual-entry
// rounding). This is the only intentionally inexact comparison in the core.
func (s *Service) VerifyAmount(submitted, expected money.Money) bool {
	if submitted.Currency != expected.Currency {
		return false
	}
	return submitted.AbsDiffMinor(expected) <= s.cfg.ToleranceMinor
}

type ProofAttachment struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type SubmitProofInput struct {
	OrderID         string
	ReferenceCode   string
	SubmittedAmount money.Money
	ExpectedAmount  money.Money
	Attachment      *ProofAttachment
}

// SubmitProof validates and persists a manual-settlement proof. A mismatched
// amount is stored with Matched=false so operations can reconcile it by hand;
// only a malformed reference is an error.
func (s *Service) SubmitProof(ctx context.Context, in SubmitProofInput) (InstapayProof, error) {
	if !ValidateReference(in.ReferenceCode) {
		return InstapayProof{}, ErrInvalidReference
	}

	p := InstapayProof{
		ID:             uuid.NewString(),
		OrderID:        in.OrderID,
		ReferenceCode:  in.ReferenceCode,
		ExpectedMinor:  in.ExpectedAmount.AmountMinor,
		SubmittedMinor: in.SubmittedAmount.AmountMinor,
		Currency:       in.ExpectedAmount.Currency,
		Matched:        s.VerifyAmount(in.SubmittedAmount, in.ExpectedAmount),
		CreatedAt:      s.now(),
	}

	if in.Attachment != nil && s.uploads != nil {
		res, err := s.uploads.Put(ctx, in.Attachment.Body, storage.PutInput{
			Filename:    in.Attachment.Filename,
			ContentType: in.Attachment.ContentType,
			Size:        in.Attachment.Size,
		})
		if err != nil {
			return InstapayProof{}, fmt.Errorf("store proof attachment: %w", err)
		}
		p.AttachmentKey = &res.Key
		p.AttachmentURL = &res.URL
	}

	if err := s.store.CreateProof(ctx, &p); err != nil {
		return InstapayProof{}, err
	}

	s.logger.InfoContext(ctx, "instapay proof submitted",
		"order_id", in.OrderID, "reference", in.ReferenceCode, "matched", p.Matched)
	return p, nil
}

func (s *Service) ProofsByOrder(ctx context.Context, orderID string) ([]InstapayProof, error) {
	return s.store.ProofsByOrder(ctx, orderID)
}
