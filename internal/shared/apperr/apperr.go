package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	Invalid           Kind = "invalid"
	NotFound          Kind = "not_found"
	Unauthorized      Kind = "unauthorized"
	Forbidden         Kind = "forbidden"
	Conflict          Kind = "conflict"
	Duplicate         Kind = "duplicate"
	InsufficientFunds Kind = "insufficient_funds"
	Gateway           Kind = "gateway"
	Signature         Kind = "signature"
	Internal          Kind = "internal"
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

// Constructors (PublicMsg must stay short and safe to expose)
func InvalidErr(publicMsg string, fields map[string]string) *AppError {
	return &AppError{Kind: Invalid, PublicMsg: publicMsg, Fields: fields}
}
func NotFoundErr(publicMsg string) *AppError {
	return &AppError{Kind: NotFound, PublicMsg: publicMsg}
}
func UnauthorizedErr(publicMsg string) *AppError {
	return &AppError{Kind: Unauthorized, PublicMsg: publicMsg}
}
func ForbiddenErr(publicMsg string) *AppError {
	return &AppError{Kind: Forbidden, PublicMsg: publicMsg}
}
func ConflictErr(publicMsg string) *AppError {
	return &AppError{Kind: Conflict, PublicMsg: publicMsg}
}
func DuplicateErr(publicMsg string) *AppError {
	return &AppError{Kind: Duplicate, PublicMsg: publicMsg}
}
func InsufficientFundsErr(publicMsg string) *AppError {
	return &AppError{Kind: InsufficientFunds, PublicMsg: publicMsg}
}
func GatewayErr(publicMsg string, retryable bool, err error) *AppError {
	return &AppError{Kind: Gateway, PublicMsg: publicMsg, Err: err, Retryable: retryable}
}
func SignatureErr(err error) *AppError {
	return &AppError{Kind: Signature, PublicMsg: "invalid signature", Err: err}
}

// Wrap: internal error without a public message (default 500)
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, PublicMsg: "An unexpected error occurred.", Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case Unauthorized, Signature:
			return http.StatusUnauthorized
		case Forbidden:
			return http.StatusForbidden
		case NotFound:
			return http.StatusNotFound
		case Conflict, Duplicate:
			return http.StatusConflict
		case InsufficientFunds:
			return http.StatusUnprocessableEntity
		case Gateway:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "An unexpected error occurred."
}
