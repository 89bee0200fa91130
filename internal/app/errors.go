package service

import "errors"

var (
	// ErrNotStarted is returned for edits submitted before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("service stopped")
)
