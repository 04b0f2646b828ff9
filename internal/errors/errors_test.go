package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeInvalidCredentials,
				Message: "Invalid username or password.",
			},
			want: "Invalid username or password.",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeNetworkFailure,
				Message: "Unable to reach the helpdesk server.",
				Cause:   errors.New("dial tcp: connection refused"),
			},
			want: "Unable to reach the helpdesk server.: dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NetworkFailure(cause, "wrapped error")

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"invalid credentials", InvalidCredentials("bad"), ErrCodeInvalidCredentials},
		{"network failure", NetworkFailure(errors.New("x"), "down"), ErrCodeNetworkFailure},
		{"token invalid", TokenInvalid("expired"), ErrCodeTokenInvalid},
		{"validation", Validation("bad input"), ErrCodeValidation},
		{"internal", Internal("boom"), ErrCodeInternal},
		{"internalf", Internalf("boom %d", 1), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(cause, ErrCodeTokenInvalid, "refresh rejected")
	if err.Message != "refresh rejected" || !errors.Is(err, cause) {
		t.Errorf("unexpected wrap result: %+v", err)
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", InvalidCredentials("bad"))
	if !IsInvalidCredentials(wrapped) {
		t.Errorf("expected IsInvalidCredentials through wrapping")
	}
	if IsNetworkFailure(wrapped) || IsTokenInvalid(wrapped) {
		t.Errorf("unexpected predicate match")
	}
	if !IsTokenInvalid(TokenInvalid("x")) {
		t.Errorf("expected predicates to match")
	}
	if !IsValidation(Validation("x")) || !IsInternal(Internal("x")) {
		t.Errorf("expected predicates to match")
	}
	if IsInvalidCredentials(errors.New("plain")) || IsInvalidCredentials(nil) {
		t.Errorf("plain errors must not match")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(fmt.Errorf("x: %w", TokenInvalid("t"))); got != ErrCodeTokenInvalid {
		t.Errorf("GetCode() = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v", got)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("plain failure"), "plain failure"},
		{"app error", NetworkFailure(errors.New("dial"), "Server unreachable."), "Server unreachable."},
		{"wrapped app error", fmt.Errorf("login: %w", InvalidCredentials("Bad password.")), "Bad password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
