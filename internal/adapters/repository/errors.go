package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrPersist       = errors.New("persisting preferences failed")
	ErrNotConfigured = errors.New("repository not configured")
	ErrNotFound      = errors.New("not found")
)
