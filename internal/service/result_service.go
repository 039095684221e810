package service

import (
	"context"
	"strings"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"
	"lims-assign/internal/repository"

	"go.uber.org/zap"
)

// SubmitResultRequest creates the single result for an assignment.
type SubmitResultRequest struct {
	AssignmentID string
	Values       map[string]any
	Notes        string
}

// SubmitResultResponse carries the stored result plus any non-blocking
// out-of-range warnings produced by validation.
type SubmitResultResponse struct {
	Result   *domain.TestResult
	Warnings []string
}

// ResultService validates and persists submitted outcomes. Validation
// failures are Validation errors and nothing is written; a wrong assignment
// state is a Conflict, not a validation problem.
type ResultService struct {
	results     repository.ResultsRepository
	assignments repository.AssignmentsRepository
	tests       repository.TestsRepository
	logger      *zap.Logger
}

func NewResultService(
	results repository.ResultsRepository,
	assignments repository.AssignmentsRepository,
	tests repository.TestsRepository,
	logger *zap.Logger,
) *ResultService {
	return &ResultService{
		results:     results,
		assignments: assignments,
		tests:       tests,
		logger:      logger,
	}
}

// SubmitResult creates the result for an assignment. The assignment must be
// ASSIGNED or IN_PROGRESS; technicians can only submit for their own work.
// Submission does not advance the assignment status; that stays with the
// normal transition path.
func (s *ResultService) SubmitResult(ctx context.Context, req SubmitResultRequest, actor domain.Actor) (*SubmitResultResponse, error) {
	assignment, err := s.assignments.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return nil, err
	}

	if actor.IsTechnician() {
		if assignment.TechnicianID == nil || *assignment.TechnicianID != actor.ID {
			return nil, apperr.Forbidden("technicians can only submit results for their own assignments")
		}
	}

	if !assignment.AcceptsResult() {
		return nil, apperr.Conflict(
			"cannot submit results while assignment is %s; it must be ASSIGNED or IN_PROGRESS",
			assignment.Status,
		)
	}

	test, err := s.tests.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, err
	}

	validationErrors, warnings := ValidateResultValues(test, req.Values)
	if len(validationErrors) > 0 {
		return nil, apperr.Validation("validation failed: %s", strings.Join(validationErrors, "; "))
	}

	created, err := s.results.InsertResult(ctx, &domain.TestResult{
		AssignmentID: req.AssignmentID,
		ResultValues: req.Values,
		Notes:        req.Notes,
		EnteredBy:    actor.ID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("result submitted",
		zap.String("result_id", created.ResultID),
		zap.String("assignment_id", req.AssignmentID),
		zap.String("entered_by", actor.ID),
		zap.Int("warnings", len(warnings)),
	)
	return &SubmitResultResponse{Result: created, Warnings: warnings}, nil
}

// AmendResult edits a stored result. The privileged-actor decision comes
// from the caller; this service only checks it. Amending re-runs the full
// structural and range validation and re-opens verification.
func (s *ResultService) AmendResult(ctx context.Context, resultID string, values map[string]any, notes *string, decision domain.AuthorizationDecision, actor domain.Actor) (*SubmitResultResponse, error) {
	if !decision.Allowed {
		return nil, apperr.Forbidden("%s", denialReason(decision))
	}

	existing, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignments.GetAssignment(ctx, existing.AssignmentID)
	if err != nil {
		return nil, err
	}
	test, err := s.tests.GetTest(ctx, assignment.TestID)
	if err != nil {
		return nil, err
	}

	validationErrors, warnings := ValidateResultValues(test, values)
	if len(validationErrors) > 0 {
		return nil, apperr.Validation("validation failed: %s", strings.Join(validationErrors, "; "))
	}

	amended, err := s.results.AmendResult(ctx, resultID, values, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("result amended",
		zap.String("result_id", resultID),
		zap.String("assignment_id", existing.AssignmentID),
		zap.String("actor_id", actor.ID),
	)
	return &SubmitResultResponse{Result: amended, Warnings: warnings}, nil
}

// VerifyResult marks a result verified on behalf of a privileged actor.
func (s *ResultService) VerifyResult(ctx context.Context, resultID string, decision domain.AuthorizationDecision, actor domain.Actor) (*domain.TestResult, error) {
	if !decision.Allowed {
		return nil, apperr.Forbidden("%s", denialReason(decision))
	}

	verified, err := s.results.VerifyResult(ctx, resultID, actor.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("result verified",
		zap.String("result_id", resultID),
		zap.String("verified_by", actor.ID),
	)
	return verified, nil
}

func (s *ResultService) GetResult(ctx context.Context, resultID string) (*domain.TestResult, error) {
	return s.results.GetResult(ctx, resultID)
}

func (s *ResultService) GetResultByAssignment(ctx context.Context, assignmentID string) (*domain.TestResult, error) {
	return s.results.GetResultByAssignment(ctx, assignmentID)
}

// ListResultsByPatient returns all results across the patient's assignments.
func (s *ResultService) ListResultsByPatient(ctx context.Context, patientID string) ([]*domain.TestResult, error) {
	assignments, err := s.assignments.ListAssignments(ctx, repository.AssignmentFilters{PatientID: patientID})
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []*domain.TestResult{}, nil
	}

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.AssignmentID
	}
	return s.results.ListResultsByAssignmentIDs(ctx, ids)
}

func denialReason(decision domain.AuthorizationDecision) string {
	if decision.Reason != "" {
		return decision.Reason
	}
	return "actor lacks the required role"
}
