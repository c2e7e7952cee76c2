package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("APPLICATION_NOT_FOUND", "loan application not found", http.StatusNotFound),
			want: "APPLICATION_NOT_FOUND: loan application not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("connection reset"), "PERSISTENCE_FAILED", "storage operation failed", http.StatusServiceUnavailable),
			want: "PERSISTENCE_FAILED: storage operation failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestSentinelMatching(t *testing.T) {
	if !errors.Is(ErrApplicationNotFoundf("app-1"), ErrNotFound) {
		t.Error("application not found should match ErrNotFound sentinel")
	}
	if !errors.Is(ErrInvalidTransitionf("draft", "funded"), ErrInvalidTransition) {
		t.Error("transition error should match ErrInvalidTransition sentinel")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("APPLICATION_NOT_FOUND", "loan application not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != "APPLICATION_NOT_FOUND" {
		t.Errorf("Code = %q, want APPLICATION_NOT_FOUND", got.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
	}{
		{"NotFound", NotFound("NF", "not found"), http.StatusNotFound},
		{"BadRequest", BadRequest("BR", "bad request"), http.StatusBadRequest},
		{"Unauthorized", Unauthorized("UA", "unauthorized"), http.StatusUnauthorized},
		{"Forbidden", Forbidden("FB", "forbidden"), http.StatusForbidden},
		{"Conflict", Conflict("CF", "conflict"), http.StatusConflict},
		{"Internal", Internal("IE", "internal"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestErrInvalidTransitionf_Params(t *testing.T) {
	err := ErrInvalidTransitionf("draft", "funded")
	if err.Params["from"] != "draft" || err.Params["to"] != "funded" {
		t.Errorf("Params = %v, want from=draft to=funded", err.Params)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("HTTPStatus = %d, want 409", err.HTTPStatus)
	}
}
