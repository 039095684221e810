package repository

import (
	"context"

	"lims-assign/internal/domain"
)

// TechniciansRepository reads technicians and their live workload.
type TechniciansRepository interface {
	GetTechnician(ctx context.Context, technicianID string) (*domain.Technician, error)
	// ListEligible returns active technicians whose qualification matches
	// technicianType, each with their live (non-SUBMITTED) assignment count,
	// ordered by workload ascending then technician_id. Eligibility and
	// workload come from the same statement so ranking never uses a read
	// older than the filter. projectID == "" skips the scope filter; a
	// projectID with no eligible member yields an empty slice, never a
	// widened search.
	ListEligible(ctx context.Context, technicianType, projectID string) ([]*domain.TechnicianWorkload, error)
}
