package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"

	"github.com/lib/pq"
)

// PostgresTestsRepository TestsRepository implementation over the tests table.
type PostgresTestsRepository struct {
	db *sql.DB
}

func NewPostgresTestsRepository(db *sql.DB) *PostgresTestsRepository {
	return &PostgresTestsRepository{db: db}
}

var _ TestsRepository = (*PostgresTestsRepository)(nil)

const testColumns = `
	test_id::text,
	name,
	COALESCE(description, ''),
	category,
	technician_type,
	normal_range_min,
	normal_range_max,
	COALESCE(unit, ''),
	fields::text,
	is_active,
	created_at,
	updated_at
`

func (r *PostgresTestsRepository) GetTest(ctx context.Context, testID string) (*domain.Test, error) {
	if testID == "" {
		return nil, apperr.NotFound("test not found")
	}

	query := `SELECT ` + testColumns + ` FROM tests WHERE test_id = $1`

	t, err := scanTest(r.db.QueryRowContext(ctx, query, testID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("test %s not found", testID)
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return t, nil
}

func (r *PostgresTestsRepository) ListActiveTestsByIDs(ctx context.Context, ids []string) ([]*domain.Test, error) {
	if len(ids) == 0 {
		return []*domain.Test{}, nil
	}

	query := `SELECT ` + testColumns + `
		FROM tests
		WHERE test_id = ANY($1) AND is_active
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	defer rows.Close()

	var tests []*domain.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (*domain.Test, error) {
	var t domain.Test
	var rangeMin, rangeMax sql.NullFloat64
	var fieldsJSON string

	err := row.Scan(
		&t.TestID,
		&t.Name,
		&t.Description,
		&t.Category,
		&t.TechnicianType,
		&rangeMin,
		&rangeMax,
		&t.Unit,
		&fieldsJSON,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rangeMin.Valid {
		t.NormalRangeMin = &rangeMin.Float64
	}
	if rangeMax.Valid {
		t.NormalRangeMax = &rangeMax.Float64
	}
	if fieldsJSON != "" {
		if err := json.Unmarshal([]byte(fieldsJSON), &t.Fields); err != nil {
			return nil, fmt.Errorf("malformed fields jsonb for test %s: %w", t.TestID, err)
		}
	}
	return &t, nil
}
