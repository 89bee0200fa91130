package simulation

import "errors"

var (
	// ErrInvalidConfig is returned for unusable run parameters.
	ErrInvalidConfig = errors.New("invalid simulation config")
	// ErrDiverged is returned when a replay disagrees with the offline pass.
	ErrDiverged = errors.New("replay diverged")
)
