package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"
	"lims-assign/internal/repository"

	"github.com/google/uuid"
)

// In-memory repositories that mirror the Postgres implementations' error
// contracts: constraint-style Conflicts on duplicate pairs, NotFound on
// missing rows, status guards enforced at the write.

type fakeAssignmentsRepo struct {
	byID        map[string]*domain.Assignment
	byPair      map[string]string // patientID+"/"+testID -> assignmentID
	seq         int
	insertCalls int
}

func newFakeAssignmentsRepo() *fakeAssignmentsRepo {
	return &fakeAssignmentsRepo{
		byID:   make(map[string]*domain.Assignment),
		byPair: make(map[string]string),
	}
}

func pairKey(patientID, testID string) string { return patientID + "/" + testID }

func (f *fakeAssignmentsRepo) GetAssignment(_ context.Context, assignmentID string) (*domain.Assignment, error) {
	a, ok := f.byID[assignmentID]
	if !ok {
		return nil, apperr.NotFound("assignment %s not found", assignmentID)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssignmentsRepo) ListAssignments(_ context.Context, filters repository.AssignmentFilters) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	for _, a := range f.byID {
		if filters.PatientID != "" && a.PatientID != filters.PatientID {
			continue
		}
		if filters.TechnicianID != "" && (a.TechnicianID == nil || *a.TechnicianID != filters.TechnicianID) {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignmentID < out[j].AssignmentID })
	return out, nil
}

func (f *fakeAssignmentsRepo) InsertAssignment(_ context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	f.insertCalls++
	key := pairKey(a.PatientID, a.TestID)
	if _, exists := f.byPair[key]; exists {
		return nil, apperr.Conflict("assignment already exists for patient %s and test %s", a.PatientID, a.TestID)
	}

	f.seq++
	cp := *a
	cp.AssignmentID = uuid.NewString()
	cp.AccessionNo = fmt.Sprintf("ASG-20260901-%04d", f.seq)
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt

	f.byID[cp.AssignmentID] = &cp
	f.byPair[key] = cp.AssignmentID

	out := cp
	return &out, nil
}

func (f *fakeAssignmentsRepo) ReassignTechnician(_ context.Context, assignmentID, technicianID, actorID string) (*domain.Assignment, error) {
	a, ok := f.byID[assignmentID]
	if !ok {
		return nil, apperr.NotFound("assignment %s not found", assignmentID)
	}
	if a.Status == domain.StatusSubmitted {
		return nil, apperr.Conflict("assignment %s is SUBMITTED and cannot be reassigned", assignmentID)
	}

	now := time.Now()
	a.TechnicianID = &technicianID
	a.Status = domain.StatusAssigned
	a.AssignedAt = &now
	a.StartedAt = nil
	a.CompletedAt = nil
	a.AssignedBy = &actorID
	a.UpdatedAt = now

	cp := *a
	return &cp, nil
}

func (f *fakeAssignmentsRepo) UpdateStatus(_ context.Context, assignmentID string, expected, requested domain.Status, fx domain.TransitionEffects) (*domain.Assignment, error) {
	a, ok := f.byID[assignmentID]
	if !ok {
		return nil, apperr.NotFound("assignment %s not found", assignmentID)
	}
	if a.Status != expected {
		return nil, apperr.Conflict("assignment %s changed concurrently, expected status %s", assignmentID, expected)
	}

	now := time.Now()
	a.Status = requested
	if fx.SetStartedAt && a.StartedAt == nil {
		a.StartedAt = &now
	}
	if fx.SetCompletedAt {
		a.CompletedAt = &now
	}
	a.UpdatedAt = now

	cp := *a
	return &cp, nil
}

type fakeTechniciansRepo struct {
	technicians map[string]*domain.Technician
	workloads   map[string]int
}

func newFakeTechniciansRepo(techs ...*domain.Technician) *fakeTechniciansRepo {
	f := &fakeTechniciansRepo{
		technicians: make(map[string]*domain.Technician),
		workloads:   make(map[string]int),
	}
	for _, t := range techs {
		f.technicians[t.TechnicianID] = t
	}
	return f
}

func (f *fakeTechniciansRepo) GetTechnician(_ context.Context, technicianID string) (*domain.Technician, error) {
	t, ok := f.technicians[technicianID]
	if !ok {
		return nil, apperr.NotFound("technician %s not found", technicianID)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTechniciansRepo) ListEligible(_ context.Context, technicianType, _ string) ([]*domain.TechnicianWorkload, error) {
	var out []*domain.TechnicianWorkload
	for _, t := range f.technicians {
		if !t.IsActive || t.TechnicianType != technicianType {
			continue
		}
		out = append(out, &domain.TechnicianWorkload{Technician: *t, Workload: f.workloads[t.TechnicianID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Workload != out[j].Workload {
			return out[i].Workload < out[j].Workload
		}
		return out[i].Technician.TechnicianID < out[j].Technician.TechnicianID
	})
	return out, nil
}

type fakeTestsRepo struct {
	tests map[string]*domain.Test
}

func newFakeTestsRepo(tests ...*domain.Test) *fakeTestsRepo {
	f := &fakeTestsRepo{tests: make(map[string]*domain.Test)}
	for _, test := range tests {
		f.tests[test.TestID] = test
	}
	return f
}

func (f *fakeTestsRepo) GetTest(_ context.Context, testID string) (*domain.Test, error) {
	t, ok := f.tests[testID]
	if !ok {
		return nil, apperr.NotFound("test %s not found", testID)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTestsRepo) ListActiveTestsByIDs(_ context.Context, ids []string) ([]*domain.Test, error) {
	var out []*domain.Test
	for _, id := range ids {
		if t, ok := f.tests[id]; ok && t.IsActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeResultsRepo struct {
	byID         map[string]*domain.TestResult
	byAssignment map[string]string
}

func newFakeResultsRepo() *fakeResultsRepo {
	return &fakeResultsRepo{
		byID:         make(map[string]*domain.TestResult),
		byAssignment: make(map[string]string),
	}
}

func (f *fakeResultsRepo) GetResult(_ context.Context, resultID string) (*domain.TestResult, error) {
	r, ok := f.byID[resultID]
	if !ok {
		return nil, apperr.NotFound("result %s not found", resultID)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResultsRepo) GetResultByAssignment(_ context.Context, assignmentID string) (*domain.TestResult, error) {
	id, ok := f.byAssignment[assignmentID]
	if !ok {
		return nil, apperr.NotFound("result for assignment %s not found", assignmentID)
	}
	return f.GetResult(context.Background(), id)
}

func (f *fakeResultsRepo) ListResultsByAssignmentIDs(_ context.Context, assignmentIDs []string) ([]*domain.TestResult, error) {
	var out []*domain.TestResult
	for _, aid := range assignmentIDs {
		if id, ok := f.byAssignment[aid]; ok {
			cp := *f.byID[id]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeResultsRepo) InsertResult(_ context.Context, r *domain.TestResult) (*domain.TestResult, error) {
	if _, exists := f.byAssignment[r.AssignmentID]; exists {
		return nil, apperr.Conflict("result already exists for assignment %s", r.AssignmentID)
	}

	cp := *r
	cp.ResultID = uuid.NewString()
	cp.EnteredAt = time.Now()
	cp.CreatedAt = cp.EnteredAt
	cp.UpdatedAt = cp.EnteredAt

	f.byID[cp.ResultID] = &cp
	f.byAssignment[cp.AssignmentID] = cp.ResultID

	out := cp
	return &out, nil
}

func (f *fakeResultsRepo) AmendResult(_ context.Context, resultID string, values map[string]any, notes *string) (*domain.TestResult, error) {
	r, ok := f.byID[resultID]
	if !ok {
		return nil, apperr.NotFound("result %s not found", resultID)
	}

	r.ResultValues = values
	if notes != nil {
		r.Notes = *notes
	}
	r.IsVerified = false
	r.VerifiedBy = nil
	r.VerifiedAt = nil
	r.UpdatedAt = time.Now()

	cp := *r
	return &cp, nil
}

func (f *fakeResultsRepo) VerifyResult(_ context.Context, resultID, verifierID string) (*domain.TestResult, error) {
	r, ok := f.byID[resultID]
	if !ok {
		return nil, apperr.NotFound("result %s not found", resultID)
	}

	now := time.Now()
	r.IsVerified = true
	r.VerifiedBy = &verifierID
	r.VerifiedAt = &now
	r.UpdatedAt = now

	cp := *r
	return &cp, nil
}

type fakeRegistry struct {
	workOrders map[string]*PatientWorkOrder
}

func newFakeRegistry(orders ...*PatientWorkOrder) *fakeRegistry {
	f := &fakeRegistry{workOrders: make(map[string]*PatientWorkOrder)}
	for _, wo := range orders {
		f.workOrders[wo.PatientID] = wo
	}
	return f
}

func (f *fakeRegistry) GetWorkOrder(_ context.Context, patientID string) (*PatientWorkOrder, error) {
	wo, ok := f.workOrders[patientID]
	if !ok {
		return nil, apperr.NotFound("patient %s not found", patientID)
	}
	return wo, nil
}

var (
	_ repository.AssignmentsRepository = (*fakeAssignmentsRepo)(nil)
	_ repository.TechniciansRepository = (*fakeTechniciansRepo)(nil)
	_ repository.TestsRepository       = (*fakeTestsRepo)(nil)
	_ repository.ResultsRepository     = (*fakeResultsRepo)(nil)
	_ WorkOrderResolver                = (*fakeRegistry)(nil)
)
