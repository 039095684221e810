package repository

import (
	"context"

	"lims-assign/internal/domain"
)

// ResultsRepository owns the test_results table (1:1 with assignments).
type ResultsRepository interface {
	GetResult(ctx context.Context, resultID string) (*domain.TestResult, error)
	GetResultByAssignment(ctx context.Context, assignmentID string) (*domain.TestResult, error)
	ListResultsByAssignmentIDs(ctx context.Context, assignmentIDs []string) ([]*domain.TestResult, error)

	// InsertResult creates the row; a second result for the same assignment
	// returns a Conflict from the unique constraint.
	InsertResult(ctx context.Context, r *domain.TestResult) (*domain.TestResult, error)

	// AmendResult replaces values/notes and clears the verification flag,
	// verifier and timestamp in the same statement.
	AmendResult(ctx context.Context, resultID string, values map[string]any, notes *string) (*domain.TestResult, error)

	// VerifyResult marks the result verified by verifierID.
	VerifyResult(ctx context.Context, resultID, verifierID string) (*domain.TestResult, error)
}
