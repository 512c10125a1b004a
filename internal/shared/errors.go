package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileFetch indicates the profile could not be loaded while a token was held.
	ErrProfileFetch = errors.New("profile fetch failed")
	// ErrRefreshFailed indicates the refresh token was rejected or expired.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrNotAuthenticated occurs when an operation needs a session and none is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAPI marks any non-2xx backend response.
	ErrAPI = errors.New("api error")
	// ErrUnauthorized maps backend 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden maps backend 403 responses.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict maps backend 409 responses.
	ErrConflict = errors.New("conflict")
	// ErrRejected maps backend 400 and 422 responses.
	ErrRejected = errors.New("request rejected")
	// ErrValidation indicates client-side validation rejected the input.
	ErrValidation = errors.New("validation failed")
)
