package domain

import "errors"

// ErrorCode classifies failures of the booking flow. Recoverable codes
// (SLOT_TAKEN, INVALID_TIME) can be retried with fresh slots; INVALID_TOKEN
// requires a full restart of the flow.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeCSRFMismatch        ErrorCode = "CSRF_MISMATCH"
	CodeBotCheckFailed      ErrorCode = "BOT_CHECK_FAILED"
	CodeDisqualified        ErrorCode = "DISQUALIFIED"
	CodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	CodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	CodeSlotTaken           ErrorCode = "SLOT_TAKEN"
	CodeInvalidTime         ErrorCode = "INVALID_TIME"
	CodeProviderError       ErrorCode = "PROVIDER_ERROR"
)

// BookingError is a typed outcome for expected failure conditions. Detail
// holds the raw provider payload for operator diagnosis when present.
type BookingError struct {
	Code    ErrorCode
	Message string
	Detail  any
}

func (e *BookingError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func NewBookingError(code ErrorCode, message string) *BookingError {
	return &BookingError{Code: code, Message: message}
}

// CodeOf extracts the ErrorCode from err, or PROVIDER_ERROR when err is not
// a BookingError.
func CodeOf(err error) ErrorCode {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeProviderError
}

// Retryable reports whether the failure is recoverable by re-fetching slots
// and re-selecting.
func Retryable(code ErrorCode) bool {
	return code == CodeSlotTaken || code == CodeInvalidTime
}
