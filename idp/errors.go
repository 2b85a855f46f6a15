package idp

import (
	"errors"
	"fmt"
)

// Canonical provider error codes.
const (
	CodeInvalidEmail         = "auth/invalid-email"
	CodeUserDisabled         = "auth/user-disabled"
	CodeUserNotFound         = "auth/user-not-found"
	CodeWrongPassword        = "auth/wrong-password"
	CodeInvalidCredential    = "auth/invalid-credential"
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodePopupClosedByUser    = "auth/popup-closed-by-user"
	CodeInternalError        = "auth/internal-error"
)

// Error is the failure half of a provider outcome.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the provider code and raw message from err. Errors that did
// not come from a provider map to CodeInternalError with err's text.
func CodeOf(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, pe.Message
	}
	return CodeInternalError, err.Error()
}
