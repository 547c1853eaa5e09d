package application

import (
	"context"
	"errors"

	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// Error kind names used in logs, metric labels and the status API.
const (
	KindLoginFailed         = "login_failed"
	KindMalformedCredential = "malformed_credential"
	KindAuthExpired         = "auth_expired"
	KindFetchFailed         = "fetch_failed"
	KindStorageFailure      = "storage_failure"
	KindCanceled            = "canceled"
	KindUnknown             = "unknown"
)

// ErrorKind classifies a cycle error. It returns "" for a nil error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, driven.ErrMalformedCredential):
		return KindMalformedCredential
	case errors.Is(err, driven.ErrLoginFailed):
		return KindLoginFailed
	case errors.Is(err, driven.ErrAuthExpired):
		return KindAuthExpired
	case errors.Is(err, driven.ErrFetchFailed):
		return KindFetchFailed
	case errors.Is(err, driven.ErrStorage):
		return KindStorageFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
