package domain

import "time"

// Assignment binds one test to one patient and optionally one technician
// (assignments table). Rows are never deleted by this service; the unique
// (patient_id, test_id) constraint keeps at most one per pair.
type Assignment struct {
	AssignmentID string     `db:"assignment_id"`
	AccessionNo  string     `db:"accession_no"` // NOT NULL, UNIQUE, e.g. ASG-20260901-0001
	PatientID    string     `db:"patient_id"`   // reference into the registration service
	TestID       string     `db:"test_id"`
	TechnicianID *string    `db:"technician_id"` // NULL while PENDING
	Status       Status     `db:"status"`
	AssignedAt   *time.Time `db:"assigned_at"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	AssignedBy   *string    `db:"assigned_by"` // actor who created/last (re)assigned
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsTerminal reports whether the assignment can no longer be mutated.
func (a *Assignment) IsTerminal() bool { return a.Status == StatusSubmitted }

// AcceptsResult reports whether a result may be created for this assignment.
// Results are only accepted while a technician is actively on the work.
func (a *Assignment) AcceptsResult() bool {
	return a.Status == StatusAssigned || a.Status == StatusInProgress
}
