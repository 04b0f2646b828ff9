package errors

import (
	"context"
	"errors"
	"net/http"
)

// Endpoint identifies which backend call produced a response, since the same
// status code means different things on login and on token-bearing calls.
type Endpoint int

const (
	EndpointLogin Endpoint = iota
	EndpointLogout
	EndpointRefresh
	EndpointProfile
)

// MapTransportError maps an error returned by the HTTP client (before any response
// was read) to an AppError.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "The helpdesk server did not respond in time.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	return NetworkFailure(err, "Unable to reach the helpdesk server.")
}

// MapStatus maps a non-2xx backend response to an AppError. message is the
// server-provided text, used when present.
func MapStatus(endpoint Endpoint, status int, message string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if endpoint == EndpointLogin {
			return InvalidCredentials(orDefault(message, "Invalid username or password."))
		}
		return TokenInvalid(orDefault(message, "Session expired. Please sign in again."))
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if endpoint == EndpointRefresh {
			return TokenInvalid(orDefault(message, "Session expired. Please sign in again."))
		}
		return Validation(orDefault(message, "Invalid request."))
	case status >= http.StatusInternalServerError:
		return &AppError{
			Code:    ErrCodeNetworkFailure,
			Message: orDefault(message, "The helpdesk server is unavailable. Please try again."),
		}
	default:
		return Internalf("%s", orDefault(message, http.StatusText(status)))
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
