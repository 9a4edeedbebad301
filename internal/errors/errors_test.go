package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"campusportal/internal/auth"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"duplicate", ErrDuplicateUser, http.StatusBadRequest, "DUPLICATE_USER", "User already exists"},
		{"wrapped duplicate", fmt.Errorf("register: %w", ErrDuplicateUser), http.StatusBadRequest, "DUPLICATE_USER", "User already exists"},
		{"invalid credentials", ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid credentials"},
		{"password too long", ErrPasswordTooLong, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid fields: password"},
		{"not found", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token"},
		{"unexpected", errors.New("dial tcp 10.0.0.5:3306: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR", "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, ErrorResponse{Message: tt.wantMsg, Code: tt.wantCode}, httpErr.ToErrorResponse())
			assert.Equal(t, tt.wantMsg, httpErr.Error())
		})
	}
}
