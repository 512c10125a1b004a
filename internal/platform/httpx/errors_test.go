package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("users: get 3: %w", shared.ErrNotFound), http.StatusNotFound},
		{"conflict", shared.ErrConflict, http.StatusConflict},
		{"backend rejection", fmt.Errorf("%w: %w", shared.ErrAPI, shared.ErrRejected), http.StatusUnprocessableEntity},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized},
		{"not authenticated", shared.ErrNotAuthenticated, http.StatusUnauthorized},
		{"refresh failed", shared.ErrRefreshFailed, http.StatusUnauthorized},
		{"bad credentials", fmt.Errorf("%w: wrong password", shared.ErrInvalidCredentials), http.StatusUnauthorized},
		{"upstream", fmt.Errorf("%w: boom", shared.ErrAPI), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Status)
		})
	}
}

func TestRespondErrorIncludesFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, shared.NewValidationError("email", "is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"email": "is required"}, body.Errors)
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dsn=secret"))

	assert.NotContains(t, rec.Body.String(), "secret")
}
