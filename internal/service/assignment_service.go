package service

import (
	"context"
	"time"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"
	"lims-assign/internal/repository"

	"go.uber.org/zap"
)

// AssignmentProposal is one line of an auto-assign preview: a test owed to
// the patient that has no assignment yet, plus the technician the resolver
// (or a caller override) picked for it.
type AssignmentProposal struct {
	TestID               string  `json:"testId"`
	TestName             string  `json:"testName"`
	ProposedTechnicianID *string `json:"proposedTechnicianId,omitempty"`
	TechnicianName       string  `json:"technicianName,omitempty"`
	Eligible             bool    `json:"eligible"`
	Overridden           bool    `json:"overridden"`
}

// ManualAssignRequest creates a single assignment directly.
type ManualAssignRequest struct {
	PatientID    string
	TestID       string
	TechnicianID string // optional; empty inserts an unassigned PENDING row
}

// AssignmentService is the planner: it computes the owed test set for a
// patient, proposes or commits technician assignments, and owns reassignment
// and status transitions. All uniqueness races resolve at the store's
// constraint, never through a separate existence read.
type AssignmentService struct {
	assignments repository.AssignmentsRepository
	technicians repository.TechniciansRepository
	tests       repository.TestsRepository
	selection   *SelectionService
	registry    WorkOrderResolver
	logger      *zap.Logger
}

func NewAssignmentService(
	assignments repository.AssignmentsRepository,
	technicians repository.TechniciansRepository,
	tests repository.TestsRepository,
	selection *SelectionService,
	registry WorkOrderResolver,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		technicians: technicians,
		tests:       tests,
		selection:   selection,
		registry:    registry,
		logger:      logger,
	}
}

// PreviewAutoAssign computes the full proposal for a patient without writing
// anything. overrides maps testId -> technicianId and replaces the resolver's
// pick for that single test; an override must itself be eligible.
func (s *AssignmentService) PreviewAutoAssign(ctx context.Context, patientID string, overrides map[string]string) ([]*AssignmentProposal, error) {
	proposals, _, err := s.planAutoAssign(ctx, patientID, overrides)
	return proposals, err
}

// CommitAutoAssign inserts an assignment for every proposal. The batch is
// additive, not all-or-nothing: an item whose (patient, test) pair gained an
// assignment since planning is skipped on the constraint Conflict, and the
// rest of the batch proceeds. Each insert is individually atomic.
func (s *AssignmentService) CommitAutoAssign(ctx context.Context, patientID string, overrides map[string]string, actor domain.Actor) ([]*domain.Assignment, error) {
	proposals, _, err := s.planAutoAssign(ctx, patientID, overrides)
	if err != nil {
		return nil, err
	}

	created := make([]*domain.Assignment, 0, len(proposals))
	for _, p := range proposals {
		a := s.buildAssignment(patientID, p.TestID, p.ProposedTechnicianID, actor.ID)

		inserted, err := s.assignments.InsertAssignment(ctx, a)
		if err != nil {
			if apperr.IsKind(err, apperr.KindConflict) {
				s.logger.Info("auto-assign skipped existing assignment",
					zap.String("patient_id", patientID),
					zap.String("test_id", p.TestID),
				)
				continue
			}
			return nil, err
		}

		s.logger.Info("assignment created",
			zap.String("assignment_id", inserted.AssignmentID),
			zap.String("accession_no", inserted.AccessionNo),
			zap.String("patient_id", patientID),
			zap.String("test_id", p.TestID),
			zap.String("status", string(inserted.Status)),
			zap.Bool("auto_assigned", true),
		)
		created = append(created, inserted)
	}
	return created, nil
}

// planAutoAssign shares the owed-set computation between preview and commit.
func (s *AssignmentService) planAutoAssign(ctx context.Context, patientID string, overrides map[string]string) ([]*AssignmentProposal, *PatientWorkOrder, error) {
	workOrder, err := s.registry.GetWorkOrder(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}

	owedIDs := dedupe(workOrder.TestIDs)
	if len(owedIDs) == 0 {
		return nil, nil, apperr.Validation("patient %s has no package or tests", patientID)
	}

	tests, err := s.tests.ListActiveTestsByIDs(ctx, owedIDs)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.assignments.ListAssignments(ctx, repository.AssignmentFilters{PatientID: patientID})
	if err != nil {
		return nil, nil, err
	}
	assignedTests := make(map[string]bool, len(existing))
	for _, a := range existing {
		assignedTests[a.TestID] = true
	}

	var proposals []*AssignmentProposal
	for _, test := range tests {
		if assignedTests[test.TestID] {
			continue
		}

		if overrideID, ok := overrides[test.TestID]; ok {
			technician, err := s.eligibleTechnician(ctx, overrideID, test)
			if err != nil {
				return nil, nil, err
			}
			proposals = append(proposals, &AssignmentProposal{
				TestID:               test.TestID,
				TestName:             test.Name,
				ProposedTechnicianID: &technician.TechnicianID,
				TechnicianName:       technician.FullName,
				Eligible:             true,
				Overridden:           true,
			})
			continue
		}

		pick, err := s.selection.PickLeastLoaded(ctx, test, workOrder.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		proposal := &AssignmentProposal{
			TestID:   test.TestID,
			TestName: test.Name,
		}
		if pick != nil {
			proposal.ProposedTechnicianID = &pick.TechnicianID
			proposal.TechnicianName = pick.FullName
			proposal.Eligible = true
		}
		proposals = append(proposals, proposal)
	}
	return proposals, workOrder, nil
}

// ManualAssign creates one assignment directly. Unlike the auto path, a
// duplicate pair here is a hard Conflict. An empty TechnicianID inserts an
// unassigned PENDING row; binding happens later through Reassign.
func (s *AssignmentService) ManualAssign(ctx context.Context, req ManualAssignRequest, actor domain.Actor) (*domain.Assignment, error) {
	workOrder, err := s.registry.GetWorkOrder(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	owed := false
	for _, id := range workOrder.TestIDs {
		if id == req.TestID {
			owed = true
			break
		}
	}
	if !owed {
		return nil, apperr.Validation("test %s is not in patient %s's package or selected tests", req.TestID, req.PatientID)
	}

	test, err := s.tests.GetTest(ctx, req.TestID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, apperr.NotFound("test %s not found or not active", req.TestID)
	}

	var technicianID *string
	if req.TechnicianID != "" {
		technician, err := s.eligibleTechnician(ctx, req.TechnicianID, test)
		if err != nil {
			return nil, err
		}
		technicianID = &technician.TechnicianID
	}

	a := s.buildAssignment(req.PatientID, req.TestID, technicianID, actor.ID)
	inserted, err := s.assignments.InsertAssignment(ctx, a)
	if err != nil {
		return nil, err
	}

	s.logger.Info("assignment created",
		zap.String("assignment_id", inserted.AssignmentID),
		zap.String("accession_no", inserted.AccessionNo),
		zap.String("patient_id", req.PatientID),
		zap.String("test_id", req.TestID),
		zap.String("status", string(inserted.Status)),
		zap.Bool("auto_assigned", false),
	)
	return inserted, nil
}

// Reassign rebinds an assignment to a new eligible technician. Allowed for
// any non-terminal status; the work restarts, so the status resets to
// ASSIGNED and started/completed timestamps clear.
func (s *AssignmentService) Reassign(ctx context.Context, assignmentID, technicianID string, actor domain.Actor) (*domain.Assignment, error) {
	current, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	test, err := s.tests.GetTest(ctx, current.TestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.eligibleTechnician(ctx, technicianID, test); err != nil {
		return nil, err
	}

	reassigned, err := s.assignments.ReassignTechnician(ctx, assignmentID, technicianID, actor.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("assignment reassigned",
		zap.String("assignment_id", assignmentID),
		zap.String("technician_id", technicianID),
		zap.String("actor_id", actor.ID),
	)
	return reassigned, nil
}

// UpdateStatus runs the pure transition machine and applies its side effects
// in a single status-guarded UPDATE. Technicians may only move their own
// assignments.
func (s *AssignmentService) UpdateStatus(ctx context.Context, assignmentID string, requested domain.Status, actor domain.Actor) (*domain.Assignment, error) {
	current, err := s.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if actor.IsTechnician() {
		if current.TechnicianID == nil || *current.TechnicianID != actor.ID {
			return nil, apperr.Forbidden("technicians can only update their own assignments")
		}
	}

	fx, err := domain.ValidateTransition(current.Status, requested)
	if err != nil {
		return nil, err
	}

	updated, err := s.assignments.UpdateStatus(ctx, assignmentID, current.Status, requested, fx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("assignment status updated",
		zap.String("assignment_id", assignmentID),
		zap.String("old_status", string(current.Status)),
		zap.String("new_status", string(requested)),
		zap.String("actor_id", actor.ID),
	)
	return updated, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	return s.assignments.GetAssignment(ctx, assignmentID)
}

func (s *AssignmentService) ListByPatient(ctx context.Context, patientID string) ([]*domain.Assignment, error) {
	return s.assignments.ListAssignments(ctx, repository.AssignmentFilters{PatientID: patientID})
}

func (s *AssignmentService) ListByTechnician(ctx context.Context, technicianID string, status domain.Status) ([]*domain.Assignment, error) {
	return s.assignments.ListAssignments(ctx, repository.AssignmentFilters{
		TechnicianID: technicianID,
		Status:       status,
	})
}

// eligibleTechnician loads technicianID and checks it can take work of this
// test's type: active and qualification tag match. Scope membership is a
// resolver concern; an explicitly chosen technician is not re-filtered by
// project.
func (s *AssignmentService) eligibleTechnician(ctx context.Context, technicianID string, test *domain.Test) (*domain.Technician, error) {
	technician, err := s.technicians.GetTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if !technician.IsActive {
		return nil, apperr.NotFound("technician %s not found or not active", technicianID)
	}
	if technician.TechnicianType != test.TechnicianType {
		return nil, apperr.Forbidden(
			"technician type %s does not match test's required type %s",
			technician.TechnicianType, test.TechnicianType,
		)
	}
	return technician, nil
}

func (s *AssignmentService) buildAssignment(patientID, testID string, technicianID *string, actorID string) *domain.Assignment {
	a := &domain.Assignment{
		PatientID:    patientID,
		TestID:       testID,
		TechnicianID: technicianID,
		Status:       domain.StatusPending,
		AssignedBy:   &actorID,
	}
	if technicianID != nil {
		now := time.Now().UTC()
		a.Status = domain.StatusAssigned
		a.AssignedAt = &now
	}
	return a
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
