// Package repository persists preference lists keyed by candidate id.
package repository

import (
	"context"

	"github.com/okian/vacancy/internal/domain/model"
)

// Store is the durable side of the preference store. A list is considered
// committed only after SavePreferences returns nil.
type Store interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// SavePreferences replaces the list of candidateID. An empty list
	// removes it.
	SavePreferences(ctx context.Context, candidateID string, list model.PreferenceList) error

	// ClearPreferences removes every list.
	ClearPreferences(ctx context.Context) error

	// LoadPreferences returns every stored non-empty list.
	LoadPreferences(ctx context.Context) (map[string]model.PreferenceList, error)

	// Close releases the backend.
	Close() error
}
