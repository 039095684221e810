package service

import (
	"context"

	"lims-assign/internal/domain"
	"lims-assign/internal/repository"

	"go.uber.org/zap"
)

// SelectionService resolves eligible technicians for a test, ranked by live
// workload. The workload snapshot is taken in the same statement as the
// eligibility filter, but ranking across concurrent auto-assign bursts is
// still soft: two near-simultaneous calls can both pick the technician who
// was least loaded at read time. That is a tolerated balancing property;
// the (patient, test) unique constraint is the only hard invariant.
type SelectionService struct {
	tests       repository.TestsRepository
	technicians repository.TechniciansRepository
	logger      *zap.Logger
}

func NewSelectionService(tests repository.TestsRepository, technicians repository.TechniciansRepository, logger *zap.Logger) *SelectionService {
	return &SelectionService{
		tests:       tests,
		technicians: technicians,
		logger:      logger,
	}
}

// ResolveEligible returns eligible technicians for testID, ascending by
// workload, tie-broken by technician id. projectID restricts to members of
// that project; no in-scope match yields an empty slice, never a search
// outside the scope. An empty result is not an error.
func (s *SelectionService) ResolveEligible(ctx context.Context, testID, projectID string) ([]*domain.TechnicianWorkload, error) {
	test, err := s.tests.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	return s.ResolveForTest(ctx, test, projectID)
}

// ResolveForTest is ResolveEligible for callers that already hold the test.
func (s *SelectionService) ResolveForTest(ctx context.Context, test *domain.Test, projectID string) ([]*domain.TechnicianWorkload, error) {
	ranked, err := s.technicians.ListEligible(ctx, test.TechnicianType, projectID)
	if err != nil {
		return nil, err
	}
	if ranked == nil {
		ranked = []*domain.TechnicianWorkload{}
	}
	return ranked, nil
}

// PickLeastLoaded returns the top-ranked technician, or nil when nobody is
// eligible; the caller decides what unassignable means.
func (s *SelectionService) PickLeastLoaded(ctx context.Context, test *domain.Test, projectID string) (*domain.Technician, error) {
	ranked, err := s.ResolveForTest(ctx, test, projectID)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		s.logger.Debug("no eligible technician",
			zap.String("test_id", test.TestID),
			zap.String("technician_type", test.TechnicianType),
			zap.String("project_id", projectID),
		)
		return nil, nil
	}
	return &ranked[0].Technician, nil
}
