package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalidated   = errors.New("token invalidated by backend")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Session errors
var (
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrSessionCorrupt    = errors.New("session data is corrupt")
	ErrSessionIncomplete = errors.New("session is missing identity or tokens")
)
