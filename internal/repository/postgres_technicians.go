package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"
)

// PostgresTechniciansRepository TechniciansRepository implementation.
type PostgresTechniciansRepository struct {
	db *sql.DB
}

func NewPostgresTechniciansRepository(db *sql.DB) *PostgresTechniciansRepository {
	return &PostgresTechniciansRepository{db: db}
}

var _ TechniciansRepository = (*PostgresTechniciansRepository)(nil)

func (r *PostgresTechniciansRepository) GetTechnician(ctx context.Context, technicianID string) (*domain.Technician, error) {
	if technicianID == "" {
		return nil, apperr.NotFound("technician not found")
	}

	query := `
		SELECT
			technician_id::text,
			full_name,
			email,
			technician_type,
			is_active,
			created_at
		FROM technicians
		WHERE technician_id = $1
	`

	var t domain.Technician
	err := r.db.QueryRowContext(ctx, query, technicianID).Scan(
		&t.TechnicianID,
		&t.FullName,
		&t.Email,
		&t.TechnicianType,
		&t.IsActive,
		&t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("technician %s not found", technicianID)
		}
		return nil, fmt.Errorf("failed to get technician: %w", err)
	}
	return &t, nil
}

// ListEligible ranks eligible technicians by live workload in one statement.
// The workload count in the JOIN uses the same snapshot as the eligibility
// filter. Ordering ties break on technician_id so repeated calls are
// reproducible regardless of insertion order.
func (r *PostgresTechniciansRepository) ListEligible(ctx context.Context, technicianType, projectID string) ([]*domain.TechnicianWorkload, error) {
	if technicianType == "" {
		return []*domain.TechnicianWorkload{}, nil
	}

	query := `
		SELECT
			t.technician_id::text,
			t.full_name,
			t.email,
			t.technician_type,
			t.is_active,
			t.created_at,
			COUNT(a.assignment_id) AS workload
		FROM technicians t
		LEFT JOIN assignments a
			ON a.technician_id = t.technician_id AND a.status <> 'SUBMITTED'
		WHERE t.is_active AND t.technician_type = $1
	`
	args := []any{technicianType}

	if projectID != "" {
		query += `
			AND EXISTS (
				SELECT 1 FROM project_members pm
				WHERE pm.technician_id = t.technician_id AND pm.project_id = $2
			)
		`
		args = append(args, projectID)
	}

	query += `
		GROUP BY t.technician_id, t.full_name, t.email, t.technician_type, t.is_active, t.created_at
		ORDER BY workload ASC, t.technician_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible technicians: %w", err)
	}
	defer rows.Close()

	var out []*domain.TechnicianWorkload
	for rows.Next() {
		var tw domain.TechnicianWorkload
		if err := rows.Scan(
			&tw.Technician.TechnicianID,
			&tw.Technician.FullName,
			&tw.Technician.Email,
			&tw.Technician.TechnicianType,
			&tw.Technician.IsActive,
			&tw.Technician.CreatedAt,
			&tw.Workload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan eligible technician: %w", err)
		}
		out = append(out, &tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list eligible technicians: %w", err)
	}
	return out, nil
}
