package domain

import "time"

// TestResult is the submitted outcome for one assignment (test_results table,
// 1:1 with assignments). Amending a result re-opens verification.
type TestResult struct {
	ResultID     string         `db:"result_id"`
	AssignmentID string         `db:"assignment_id"` // UNIQUE
	ResultValues map[string]any `db:"result_values"` // JSONB, field name -> submitted value
	Notes        string         `db:"notes"`         // nullable
	EnteredBy    string         `db:"entered_by"`
	EnteredAt    time.Time      `db:"entered_at"`
	IsVerified   bool           `db:"is_verified"`
	VerifiedBy   *string        `db:"verified_by"`
	VerifiedAt   *time.Time     `db:"verified_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
