package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrCodeIntegrity означает нарушенный инвариант хранилища (дефект, а не ошибка пользователя).
	ErrCodeIntegrity ErrorCode = "INTEGRITY_ERROR"
	ErrCodeGateway   ErrorCode = "GATEWAY_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал и для обёрнутых копий.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или пустую строку, если это не AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeConflict
}

func IsIntegrity(err error) bool {
	return CodeOf(err) == ErrCodeIntegrity
}

var (
	ErrUnauthorized = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden    = New(ErrCodeForbidden, "недостаточно прав")

	ErrProjectNotFound = New(ErrCodeNotFound, "Project not found")
	ErrBidNotFound     = New(ErrCodeNotFound, "Bid not found")
	ErrOrderNotFound   = New(ErrCodeNotFound, "Order not found")
	ErrPaymentNotFound = New(ErrCodeNotFound, "Payment not found")
	ErrEscrowNotFound  = New(ErrCodeNotFound, "Escrow not found")
	ErrGigNotFound     = New(ErrCodeNotFound, "Gig not found")

	ErrNotSeller        = New(ErrCodeForbidden, "Only sellers can submit bids")
	ErrNotProjectClient = New(ErrCodeForbidden, "Only the project owner can perform this action")
	ErrNotOrderParty    = New(ErrCodeForbidden, "You are not a party to this order")
	ErrNotOrderBuyer    = New(ErrCodeForbidden, "Only the buyer can perform this action")
	ErrNotPaymentBuyer  = New(ErrCodeForbidden, "Only the buyer can verify this payment")
	ErrNotBidOwner      = New(ErrCodeForbidden, "Only the bidder can perform this action")
	ErrAdminOnly        = New(ErrCodeForbidden, "Admin privileges required")

	ErrProjectNotOpen      = New(ErrCodeConflict, "Project is not open for bidding")
	ErrProjectExpired      = New(ErrCodeConflict, "Project has expired")
	ErrOwnProject          = New(ErrCodeConflict, "You cannot bid on your own project")
	ErrDuplicateBid        = New(ErrCodeConflict, "You have already submitted a bid for this project")
	ErrBidAlreadyAccepted  = New(ErrCodeConflict, "A bid has already been accepted for this project")
	ErrBidNotPending       = New(ErrCodeConflict, "Bid is no longer pending")
	ErrBidExpired          = New(ErrCodeConflict, "Bid has expired")
	ErrBidProjectMismatch  = New(ErrCodeConflict, "Bid does not belong to this project")
	ErrInvalidTransition   = New(ErrCodeConflict, "Invalid status transition")
	ErrOrderNotPaid        = New(ErrCodeConflict, "Order payment is not completed")
	ErrOrderAlreadyPaid    = New(ErrCodeConflict, "Order is already paid")
	ErrOrderNotDeletable   = New(ErrCodeConflict, "Only unpaid orders without escrow can be deleted")
	ErrEscrowNotReleasable = New(ErrCodeConflict, "Escrow is not in waitingToRelease state")
	ErrEscrowLocked        = New(ErrCodeConflict, "Escrow is locked for release")
	ErrEscrowNotRefundable = New(ErrCodeConflict, "Escrow cannot be refunded in its current state")
	ErrPaymentFinalized    = New(ErrCodeConflict, "Payment is already finalized")
	ErrPaymentNotSuccess   = New(ErrCodeConflict, "Payment has not succeeded")
	ErrSelfPurchase        = New(ErrCodeConflict, "You cannot purchase your own gig")
	ErrDuplicatePayment    = New(ErrCodeConflict, "Payment with this correlation token already exists")

	ErrEscrowMissing = New(ErrCodeIntegrity, "Escrow record not found for this order")
	ErrEscrowExists  = New(ErrCodeIntegrity, "Escrow already exists for this order")
	ErrPayoutExists  = New(ErrCodeIntegrity, "Payout already recorded for this escrow")

	ErrUnknownGateway = New(ErrCodeValidation, "Unsupported payment gateway")
)
