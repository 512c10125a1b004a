package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassword(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
		checks   PasswordChecks
	}{
		{"Abcdefgh1!", true, PasswordChecks{true, true, true, true}},
		{"abcdefgh1!", false, PasswordChecks{true, false, true, true}},
		{"Abcdefghi!", false, PasswordChecks{true, true, false, true}},
		{"Abcdefghi1", false, PasswordChecks{true, true, true, false}},
		{"Ab1!", false, PasswordChecks{false, true, true, true}},
		{"", false, PasswordChecks{}},
	}
	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			report := CheckPassword(tc.password)
			assert.Equal(t, tc.valid, report.Valid)
			assert.Equal(t, tc.checks, report.Checks)
			assert.Equal(t, tc.valid, len(report.Errors) == 0)
		})
	}
}

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_policy"`
	Accepted bool   `json:"accepted" validate:"eq=true"`
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	err := Validate(sample{Email: "nope", Password: "short"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "must be a valid email", verr.Fields["email"])
	assert.Contains(t, verr.Fields["password"], "at least 10 characters")
	assert.Equal(t, "must be true", verr.Fields["accepted"])
	assert.Contains(t, err.Error(), "accepted: must be true; email: must be a valid email")

	assert.NoError(t, Validate(sample{Email: "a@b.it", Password: "Valida!123", Accepted: true}))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("id", "must be greater than 0")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: id: must be greater than 0", err.Error())
}
