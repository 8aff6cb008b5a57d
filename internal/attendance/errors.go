package attendance

import (
	"errors"
	"net/http"
)

// Code identifies the failure class of a scan or issuance attempt.
type Code string

const (
	CodeForbidden      Code = "FORBIDDEN"
	CodeInvalidPayload Code = "INVALID_PAYLOAD"
	CodeTokenExpired   Code = "TOKEN_EXPIRED_OR_INVALID"
	CodeConflict       Code = "CONFLICT_RETRYABLE"
)

// Error is a typed failure surfaced to the HTTP layer. All failures are
// local to a single attempt; none leave partial writes behind.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

var (
	// ErrForbidden rejects issuance by a teacher who does not own the subject.
	ErrForbidden = &Error{Code: CodeForbidden, Message: "subject is not assigned to this teacher"}
	// ErrInvalidPayload means the scanned data does not decode into a
	// well-formed token payload.
	ErrInvalidPayload = &Error{Code: CodeInvalidPayload, Message: "invalid QR code data"}
	// ErrTokenExpired means the payload decoded but no matching active,
	// unexpired token exists.
	ErrTokenExpired = &Error{Code: CodeTokenExpired, Message: "QR code expired or invalid"}
	// ErrConflict is returned after the one-shot retry on a concurrent-write
	// race also fails.
	ErrConflict = &Error{Code: CodeConflict, Message: "transient write conflict, try again"}
)

// HTTPStatus maps a service error to a response status.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		switch e.Code {
		case CodeForbidden:
			return http.StatusForbidden
		case CodeInvalidPayload:
			return http.StatusBadRequest
		case CodeTokenExpired:
			return http.StatusGone
		case CodeConflict:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}
