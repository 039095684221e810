package repository

import (
	"context"

	"lims-assign/internal/domain"
)

// TestsRepository reads test definitions. Strong-typed domain models,
// no map[string]any.
type TestsRepository interface {
	GetTest(ctx context.Context, testID string) (*domain.Test, error)
	// ListActiveTestsByIDs returns the active tests among ids, in a stable
	// order. Unknown or inactive ids are silently absent from the result.
	ListActiveTestsByIDs(ctx context.Context, ids []string) ([]*domain.Test, error)
}
