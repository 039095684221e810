package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"

	"github.com/google/uuid"
)

// maxAccessionAttempts bounds accession-number allocation retries. A unique
// violation on accession_no means another insert claimed the same daily
// sequence first; after the cap we give up with a Conflict instead of
// recursing forever under pathological contention.
const maxAccessionAttempts = 5

// PostgresAssignmentsRepository AssignmentsRepository implementation.
// Creation and mutation go through single-statement, constraint-backed SQL;
// there is no check-then-write across statements anywhere in this file.
type PostgresAssignmentsRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentsRepository(db *sql.DB) *PostgresAssignmentsRepository {
	return &PostgresAssignmentsRepository{db: db}
}

var _ AssignmentsRepository = (*PostgresAssignmentsRepository)(nil)

const assignmentColumns = `
	assignment_id::text,
	accession_no,
	patient_id::text,
	test_id::text,
	technician_id::text,
	status,
	assigned_at,
	started_at,
	completed_at,
	assigned_by::text,
	created_at,
	updated_at
`

func (r *PostgresAssignmentsRepository) GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	if assignmentID == "" {
		return nil, apperr.NotFound("assignment not found")
	}

	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE assignment_id = $1`

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, assignmentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("assignment %s not found", assignmentID)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (r *PostgresAssignmentsRepository) ListAssignments(ctx context.Context, filters AssignmentFilters) ([]*domain.Assignment, error) {
	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if filters.PatientID != "" {
		where = append(where, fmt.Sprintf("patient_id = $%d", argN))
		args = append(args, filters.PatientID)
		argN++
	}
	if filters.TechnicianID != "" {
		where = append(where, fmt.Sprintf("technician_id = $%d", argN))
		args = append(args, filters.TechnicianID)
		argN++
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, string(filters.Status))
		argN++
	}

	query := `SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, assignment_id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return out, nil
}

// InsertAssignment inserts in one statement so the (patient_id, test_id)
// unique constraint is the existence check. Accession numbers are a daily
// sequence; collisions under concurrent inserts retry with the next number
// up to maxAccessionAttempts.
func (r *PostgresAssignmentsRepository) InsertAssignment(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	day := time.Now().UTC().Format("20060102")
	prefix := "ASG-" + day + "-"

	for attempt := 0; attempt < maxAccessionAttempts; attempt++ {
		seq, err := r.nextAccessionSeq(ctx, prefix)
		if err != nil {
			return nil, err
		}

		insert := *a
		insert.AssignmentID = uuid.NewString()
		insert.AccessionNo = fmt.Sprintf("%s%04d", prefix, seq)

		query := `
			INSERT INTO assignments (
				assignment_id, accession_no, patient_id, test_id,
				technician_id, status, assigned_at, assigned_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + assignmentColumns

		row := r.db.QueryRowContext(ctx, query,
			insert.AssignmentID,
			insert.AccessionNo,
			insert.PatientID,
			insert.TestID,
			insert.TechnicianID,
			string(insert.Status),
			insert.AssignedAt,
			insert.AssignedBy,
		)

		created, err := scanAssignment(row)
		if err == nil {
			return created, nil
		}
		if isUniqueViolation(err, "assignments_patient_test_key") {
			return nil, apperr.Conflict(
				"assignment already exists for patient %s and test %s", a.PatientID, a.TestID)
		}
		if isUniqueViolation(err, "assignments_accession_no_key") {
			continue
		}
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	return nil, apperr.Conflict(
		"could not allocate accession number after %d attempts", maxAccessionAttempts)
}

func (r *PostgresAssignmentsRepository) nextAccessionSeq(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE accession_no LIKE $1`,
		prefix+"%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accession numbers: %w", err)
	}
	return count + 1, nil
}

func (r *PostgresAssignmentsRepository) ReassignTechnician(ctx context.Context, assignmentID, technicianID, actorID string) (*domain.Assignment, error) {
	// A reassignment always restarts the work: status back to ASSIGNED,
	// start/completion timestamps cleared. The status guard lives in the
	// UPDATE itself.
	query := `
		UPDATE assignments
		SET technician_id = $2,
		    status = 'ASSIGNED',
		    assigned_at = CURRENT_TIMESTAMP,
		    started_at = NULL,
		    completed_at = NULL,
		    assigned_by = $3,
		    updated_at = CURRENT_TIMESTAMP
		WHERE assignment_id = $1 AND status <> 'SUBMITTED'
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, assignmentID, technicianID, actorID))
	if err == nil {
		return a, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to reassign assignment: %w", err)
	}

	// Zero rows: terminal status or missing row.
	if _, getErr := r.GetAssignment(ctx, assignmentID); getErr != nil {
		return nil, getErr
	}
	return nil, apperr.Conflict("assignment %s is SUBMITTED and cannot be reassigned", assignmentID)
}

func (r *PostgresAssignmentsRepository) UpdateStatus(ctx context.Context, assignmentID string, expected, requested domain.Status, fx domain.TransitionEffects) (*domain.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = $3,
		    started_at = CASE WHEN $4 AND started_at IS NULL THEN CURRENT_TIMESTAMP ELSE started_at END,
		    completed_at = CASE WHEN $5 THEN CURRENT_TIMESTAMP ELSE completed_at END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE assignment_id = $1 AND status = $2
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query,
		assignmentID, string(expected), string(requested),
		fx.SetStartedAt, fx.SetCompletedAt,
	))
	if err == nil {
		return a, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to update assignment status: %w", err)
	}

	if _, getErr := r.GetAssignment(ctx, assignmentID); getErr != nil {
		return nil, getErr
	}
	return nil, apperr.Conflict(
		"assignment %s changed concurrently, expected status %s", assignmentID, expected)
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	var technicianID, assignedBy sql.NullString
	var assignedAt, startedAt, completedAt sql.NullTime

	err := row.Scan(
		&a.AssignmentID,
		&a.AccessionNo,
		&a.PatientID,
		&a.TestID,
		&technicianID,
		&a.Status,
		&assignedAt,
		&startedAt,
		&completedAt,
		&assignedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if technicianID.Valid {
		a.TechnicianID = &technicianID.String
	}
	if assignedBy.Valid {
		a.AssignedBy = &assignedBy.String
	}
	if assignedAt.Valid {
		a.AssignedAt = &assignedAt.Time
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}
