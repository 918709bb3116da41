package service

import (
	"errors"
	"strings"
)

// Kind is the stable, machine-readable class of a service error.
type Kind string

// Error kinds returned by the service layer.
const (
	KindInvalidCredentials   Kind = "INVALID_CREDENTIALS"
	KindInvalidToken         Kind = "INVALID_TOKEN"
	KindUnauthenticated      Kind = "UNAUTHENTICATED"
	KindBadRequest           Kind = "BAD_REQUEST"
	KindQuotaExceeded        Kind = "QUOTA_EXCEEDED"
	KindInvalidOrderingField Kind = "INVALID_ORDERING_FIELD"
	KindNotFound             Kind = "NOT_FOUND"
	KindForbidden            Kind = "FORBIDDEN"
	KindNotificationFailed   Kind = "NOTIFICATION_FAILED"
)

// User-facing messages.
const (
	msgInvalidCredentials = "Unable to log in with provided credentials."
	msgInvalidToken       = "Token is invalid or expired."
	msgUnauthenticated    = "Authentication credentials were not provided."
	msgNotFound           = "No Company matches the given query."
	msgForbidden          = "You do not have permission to perform this action."
	msgNoData             = "No data provided."
	msgOnlyEmployeeCount  = "Only 'number_of_employees' can be updated."
	msgNotificationFailed = "Company was created but the notification email could not be sent."
	msgNotifyRolledBack   = "Company was not created because the notification email could not be sent."
)

// Error is the typed error every rejection path of the service layer returns.
type Error struct {
	Kind    Kind
	Message string

	// RecordID is set on NotificationFailed when the record stayed committed.
	RecordID string

	// ValidOptions is set on InvalidOrderingField.
	ValidOptions []string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return strings.ToLower(string(e.Kind))
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below can be used
// with errors.Is regardless of message or payload.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials}
	ErrInvalidToken         = &Error{Kind: KindInvalidToken}
	ErrUnauthenticated      = &Error{Kind: KindUnauthenticated}
	ErrBadRequest           = &Error{Kind: KindBadRequest}
	ErrQuotaExceeded        = &Error{Kind: KindQuotaExceeded}
	ErrInvalidOrderingField = &Error{Kind: KindInvalidOrderingField}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrNotificationFailed   = &Error{Kind: KindNotificationFailed}
)

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func badRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func notFound() *Error {
	return &Error{Kind: KindNotFound, Message: msgNotFound}
}

func invalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: msgInvalidCredentials}
}

func unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: msgUnauthenticated}
}
