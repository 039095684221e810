package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresResultsRepository ResultsRepository implementation.
type PostgresResultsRepository struct {
	db *sql.DB
}

func NewPostgresResultsRepository(db *sql.DB) *PostgresResultsRepository {
	return &PostgresResultsRepository{db: db}
}

var _ ResultsRepository = (*PostgresResultsRepository)(nil)

const resultColumns = `
	result_id::text,
	assignment_id::text,
	result_values::text,
	COALESCE(notes, ''),
	entered_by::text,
	entered_at,
	is_verified,
	verified_by::text,
	verified_at,
	created_at,
	updated_at
`

func (r *PostgresResultsRepository) GetResult(ctx context.Context, resultID string) (*domain.TestResult, error) {
	if resultID == "" {
		return nil, apperr.NotFound("result not found")
	}

	query := `SELECT ` + resultColumns + ` FROM test_results WHERE result_id = $1`

	res, err := scanResult(r.db.QueryRowContext(ctx, query, resultID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("result %s not found", resultID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return res, nil
}

func (r *PostgresResultsRepository) GetResultByAssignment(ctx context.Context, assignmentID string) (*domain.TestResult, error) {
	if assignmentID == "" {
		return nil, apperr.NotFound("result not found")
	}

	query := `SELECT ` + resultColumns + ` FROM test_results WHERE assignment_id = $1`

	res, err := scanResult(r.db.QueryRowContext(ctx, query, assignmentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("result for assignment %s not found", assignmentID)
		}
		return nil, fmt.Errorf("failed to get result by assignment: %w", err)
	}
	return res, nil
}

func (r *PostgresResultsRepository) ListResultsByAssignmentIDs(ctx context.Context, assignmentIDs []string) ([]*domain.TestResult, error) {
	if len(assignmentIDs) == 0 {
		return []*domain.TestResult{}, nil
	}

	query := `SELECT ` + resultColumns + `
		FROM test_results
		WHERE assignment_id = ANY($1)
		ORDER BY entered_at DESC, result_id DESC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(assignmentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []*domain.TestResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return out, nil
}

func (r *PostgresResultsRepository) InsertResult(ctx context.Context, res *domain.TestResult) (*domain.TestResult, error) {
	valuesJSON, err := json.Marshal(res.ResultValues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result values: %w", err)
	}

	query := `
		INSERT INTO test_results (result_id, assignment_id, result_values, notes, entered_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING ` + resultColumns

	created, err := scanResult(r.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		res.AssignmentID,
		string(valuesJSON),
		res.Notes,
		res.EnteredBy,
	))
	if err != nil {
		if isUniqueViolation(err, "test_results_assignment_key") {
			return nil, apperr.Conflict("result already exists for assignment %s", res.AssignmentID)
		}
		return nil, fmt.Errorf("failed to insert result: %w", err)
	}
	return created, nil
}

// AmendResult rewrites values/notes and re-opens verification in the same
// statement, so a verified result can never keep its flag across an edit.
func (r *PostgresResultsRepository) AmendResult(ctx context.Context, resultID string, values map[string]any, notes *string) (*domain.TestResult, error) {
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result values: %w", err)
	}

	// notes == nil keeps the stored note; an empty string clears it.
	query := `
		UPDATE test_results
		SET result_values = $2,
		    notes = CASE WHEN $4 THEN NULLIF($3, '') ELSE notes END,
		    is_verified = FALSE,
		    verified_by = NULL,
		    verified_at = NULL,
		    updated_at = CURRENT_TIMESTAMP
		WHERE result_id = $1
		RETURNING ` + resultColumns

	noteArg := ""
	if notes != nil {
		noteArg = *notes
	}

	amended, err := scanResult(r.db.QueryRowContext(ctx, query, resultID, string(valuesJSON), noteArg, notes != nil))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("result %s not found", resultID)
		}
		return nil, fmt.Errorf("failed to amend result: %w", err)
	}
	return amended, nil
}

func (r *PostgresResultsRepository) VerifyResult(ctx context.Context, resultID, verifierID string) (*domain.TestResult, error) {
	query := `
		UPDATE test_results
		SET is_verified = TRUE,
		    verified_by = $2,
		    verified_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE result_id = $1
		RETURNING ` + resultColumns

	verified, err := scanResult(r.db.QueryRowContext(ctx, query, resultID, verifierID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("result %s not found", resultID)
		}
		return nil, fmt.Errorf("failed to verify result: %w", err)
	}
	return verified, nil
}

func scanResult(row rowScanner) (*domain.TestResult, error) {
	var res domain.TestResult
	var valuesJSON string
	var verifiedBy sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(
		&res.ResultID,
		&res.AssignmentID,
		&valuesJSON,
		&res.Notes,
		&res.EnteredBy,
		&res.EnteredAt,
		&res.IsVerified,
		&verifiedBy,
		&verifiedAt,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if valuesJSON != "" {
		if err := json.Unmarshal([]byte(valuesJSON), &res.ResultValues); err != nil {
			return nil, fmt.Errorf("malformed result_values jsonb for result %s: %w", res.ResultID, err)
		}
	}
	if verifiedBy.Valid {
		res.VerifiedBy = &verifiedBy.String
	}
	if verifiedAt.Valid {
		res.VerifiedAt = &verifiedAt.Time
	}
	return &res, nil
}
