package repository

import (
	"context"

	"lims-assign/internal/domain"
)

// AssignmentFilters narrows assignment list queries.
type AssignmentFilters struct {
	PatientID    string
	TechnicianID string
	Status       domain.Status
}

// AssignmentsRepository owns the assignments table, the only shared mutable
// resource of this service. Every mutation is a single transaction; creation
// relies on the (patient_id, test_id) unique constraint instead of a prior
// existence read.
type AssignmentsRepository interface {
	GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error)
	ListAssignments(ctx context.Context, filters AssignmentFilters) ([]*domain.Assignment, error)

	// InsertAssignment creates the row, generating assignment_id and
	// accession_no. A duplicate (patient_id, test_id) pair returns a
	// Conflict; callers decide whether that is a skip (auto path) or a
	// hard error (manual path).
	InsertAssignment(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error)

	// ReassignTechnician rebinds the assignment to technicianID, resets the
	// status to ASSIGNED and clears started_at/completed_at. Returns a
	// Conflict when the assignment is already SUBMITTED.
	ReassignTechnician(ctx context.Context, assignmentID, technicianID, actorID string) (*domain.Assignment, error)

	// UpdateStatus applies a validated transition. The expected status is
	// re-checked in the UPDATE itself, so a concurrent transition surfaces
	// as a Conflict rather than a lost update.
	UpdateStatus(ctx context.Context, assignmentID string, expected, requested domain.Status, fx domain.TransitionEffects) (*domain.Assignment, error)
}
