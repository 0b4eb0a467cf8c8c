// Package apperrors defines the error taxonomy shared by every service layer
// and its mapping onto HTTP status codes.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicate
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindPaymentDeclined
)

// Error is a typed sentinel. Services wrap it with fmt.Errorf("%w: detail", ErrX)
// when the caller should see extra context.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrValidation        = New(KindValidation, "validation failed")
	ErrInvalidSchedule   = New(KindValidation, "invalid schedule")
	ErrInvalidAmount     = New(KindValidation, "amount must be a positive integer in minor units")
	ErrInvalidCurrency   = New(KindValidation, "currency must be a 3-letter ISO code")
	ErrInvalidRole       = New(KindValidation, "invalid role")
	ErrPasswordTooLong   = New(KindValidation, "password must be at most 72 bytes")
	ErrDuplicateIdentity = New(KindDuplicate, "username or email already registered")
	ErrDuplicateCategory = New(KindDuplicate, "category already exists")

	ErrUnauthorized       = New(KindUnauthorized, "authentication required")
	ErrInvalidCredentials = New(KindUnauthorized, "invalid credentials")
	ErrExpiredToken       = New(KindUnauthorized, "token expired")
	ErrInvalidToken       = New(KindUnauthorized, "invalid token")
	ErrForbidden          = New(KindForbidden, "forbidden")

	ErrAccountNotFound     = New(KindNotFound, "account not found")
	ErrServiceNotFound     = New(KindNotFound, "service not found")
	ErrCategoryNotFound    = New(KindNotFound, "category not found")
	ErrCompanyNotFound     = New(KindNotFound, "company not found")
	ErrBookingNotFound     = New(KindNotFound, "booking not found")
	ErrTransactionNotFound = New(KindNotFound, "transaction not found")
	ErrReviewNotFound      = New(KindNotFound, "review not found")
	ErrDisputeNotFound     = New(KindNotFound, "dispute not found")

	ErrInvalidTransition = New(KindConflict, "invalid status transition")
	ErrConcurrentUpdate  = New(KindConflict, "resource was modified concurrently")
	ErrCategoryInUse     = New(KindConflict, "category still has services")
	ErrServiceInUse      = New(KindConflict, "service still has bookings")
	ErrPaymentInProgress = New(KindConflict, "a payment for this booking is already in progress")

	ErrPaymentDeclined = New(KindPaymentDeclined, "payment declined")

	ErrInternal = New(KindInternal, "internal server error")
)

// KindOf reports the kind of the first *Error in err's chain.
// Anything outside the taxonomy is internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindPaymentDeclined:
		return http.StatusBadRequest
	case KindDuplicate, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message safe to show a client. Internal errors never
// leak their detail.
func Public(err error) string {
	if KindOf(err) == KindInternal {
		return ErrInternal.Message
	}
	return err.Error()
}
