package httpapi

import (
	"time"

	"lims-assign/internal/domain"
)

// assignmentResponse is the wire shape of an assignment.
type assignmentResponse struct {
	ID           string     `json:"id"`
	AccessionNo  string     `json:"accessionNo"`
	PatientID    string     `json:"patientId"`
	TestID       string     `json:"testId"`
	TechnicianID *string    `json:"technicianId"`
	Status       string     `json:"status"`
	AssignedAt   *time.Time `json:"assignedAt"`
	StartedAt    *time.Time `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	AssignedBy   *string    `json:"assignedBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func toAssignmentResponse(a *domain.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:           a.AssignmentID,
		AccessionNo:  a.AccessionNo,
		PatientID:    a.PatientID,
		TestID:       a.TestID,
		TechnicianID: a.TechnicianID,
		Status:       string(a.Status),
		AssignedAt:   a.AssignedAt,
		StartedAt:    a.StartedAt,
		CompletedAt:  a.CompletedAt,
		AssignedBy:   a.AssignedBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAssignmentResponses(assignments []*domain.Assignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}

// resultResponse is the wire shape of a test result. Warnings only appear on
// submit/amend responses.
type resultResponse struct {
	ID           string         `json:"id"`
	AssignmentID string         `json:"assignmentId"`
	ResultValues map[string]any `json:"resultValues"`
	Notes        string         `json:"notes,omitempty"`
	EnteredBy    string         `json:"enteredBy"`
	EnteredAt    time.Time      `json:"enteredAt"`
	IsVerified   bool           `json:"isVerified"`
	VerifiedBy   *string        `json:"verifiedBy"`
	VerifiedAt   *time.Time     `json:"verifiedAt"`
	Warnings     []string       `json:"warnings,omitempty"`
}

func toResultResponse(r *domain.TestResult, warnings []string) resultResponse {
	return resultResponse{
		ID:           r.ResultID,
		AssignmentID: r.AssignmentID,
		ResultValues: r.ResultValues,
		Notes:        r.Notes,
		EnteredBy:    r.EnteredBy,
		EnteredAt:    r.EnteredAt,
		IsVerified:   r.IsVerified,
		VerifiedBy:   r.VerifiedBy,
		VerifiedAt:   r.VerifiedAt,
		Warnings:     warnings,
	}
}

func toResultResponses(results []*domain.TestResult) []resultResponse {
	out := make([]resultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toResultResponse(r, nil))
	}
	return out
}

// technicianWorkloadResponse is one row of the eligible-technician ranking.
type technicianWorkloadResponse struct {
	TechnicianID   string `json:"technicianId"`
	FullName       string `json:"fullName"`
	TechnicianType string `json:"technicianType"`
	Workload       int    `json:"workload"`
}

func toTechnicianWorkloadResponses(ranked []*domain.TechnicianWorkload) []technicianWorkloadResponse {
	out := make([]technicianWorkloadResponse, 0, len(ranked))
	for _, tw := range ranked {
		out = append(out, technicianWorkloadResponse{
			TechnicianID:   tw.Technician.TechnicianID,
			FullName:       tw.Technician.FullName,
			TechnicianType: tw.Technician.TechnicianType,
			Workload:       tw.Workload,
		})
	}
	return out
}
