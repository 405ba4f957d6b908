package sheets

import (
	"context"
	"errors"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"

	applog "moodqueue/internal/log"
)

// ErrNotConfigured is returned by adapters used before initialization.
var ErrNotConfigured = errors.New("store not initialized")

// Classify maps a store error onto one of the log error types so callers
// can log a cause without branching on adapter internals.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return applog.ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return applog.ErrorTypeCanceled
	}
	if errors.Is(err, ErrNotConfigured) {
		return applog.ErrorTypeConfiguration
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized, gerr.Code == http.StatusForbidden:
			return applog.ErrorTypeAuth
		case gerr.Code == http.StatusNotFound:
			return applog.ErrorTypeNotFound
		case gerr.Code == http.StatusTooManyRequests, gerr.Code >= 500:
			return applog.ErrorTypeNetwork
		}
		return applog.ErrorTypeInternal
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return applog.ErrorTypeTimeout
		}
		return applog.ErrorTypeNetwork
	}
	return applog.ErrorTypeInternal
}
