package models

import "github.com/pkg/errors"

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindCapture      ErrorKind = "capture"
	KindConfirmation ErrorKind = "confirmation"
	KindSettlement   ErrorKind = "settlement"
	KindLifecycle    ErrorKind = "lifecycle"
)

// Error is a sentinel of the wallet error taxonomy. Callers wrap it with
// context and match it with errors.Is.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrEmptyRecipient    = &Error{Kind: KindValidation, Code: "empty_recipient", Message: "recipient is required"}
	ErrNonPositiveAmount = &Error{Kind: KindValidation, Code: "non_positive_amount", Message: "amount must be a positive value representable in the currency's smallest unit"}
	ErrInsufficientFunds = &Error{Kind: KindValidation, Code: "insufficient_funds", Message: "insufficient funds"}
	ErrCurrencyMismatch  = &Error{Kind: KindValidation, Code: "currency_mismatch", Message: "currency mismatch"}
	ErrRecipientTooLong  = &Error{Kind: KindValidation, Code: "recipient_too_long", Message: "recipient is too long"}

	ErrMalformedPayload   = &Error{Kind: KindCapture, Code: "malformed_payload", Message: "malformed payment payload"}
	ErrUnsupportedChannel = &Error{Kind: KindCapture, Code: "unsupported_channel", Message: "unsupported capture channel"}
	ErrDuplicateIntent    = &Error{Kind: KindCapture, Code: "duplicate_intent", Message: "payment intent already processed"}

	ErrConfirmationRejected  = &Error{Kind: KindConfirmation, Code: "confirmation_rejected", Message: "confirmation rejected"}
	ErrConfirmationCancelled = &Error{Kind: KindConfirmation, Code: "confirmation_cancelled", Message: "confirmation cancelled"}

	ErrSettlementFailed = &Error{Kind: KindSettlement, Code: "settlement_failed", Message: "settlement failed"}

	ErrInvalidTransition   = &Error{Kind: KindLifecycle, Code: "invalid_transition", Message: "invalid transaction state transition"}
	ErrNotConfirmed        = &Error{Kind: KindLifecycle, Code: "not_confirmed", Message: "transaction must be confirmed before settlement"}
	ErrTransactionNotFound = &Error{Kind: KindLifecycle, Code: "transaction_not_found", Message: "transaction not found"}
)

// AsError extracts the taxonomy sentinel from a wrapped error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
