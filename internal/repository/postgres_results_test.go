package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lims-assign/internal/apperr"
	"lims-assign/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockResultsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresResultsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresResultsRepository(db)
}

var resultCols = []string{
	"result_id", "assignment_id", "result_values", "notes", "entered_by",
	"entered_at", "is_verified", "verified_by", "verified_at",
	"created_at", "updated_at",
}

func resultRow(resultID, assignmentID, valuesJSON string, verified bool, verifiedBy any) *sqlmock.Rows {
	now := time.Now()
	var verifiedAt any
	if verified {
		verifiedAt = now
	}
	return sqlmock.NewRows(resultCols).AddRow(
		resultID, assignmentID, valuesJSON, "", "tech-1",
		now, verified, verifiedBy, verifiedAt,
		now, now,
	)
}

func TestGetResult_Success(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	resultID := uuid.New().String()
	assignmentID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(resultID).
		WillReturnRows(resultRow(resultID, assignmentID, `{"glucose": 10.5}`, false, nil))

	res, err := repo.GetResult(context.Background(), resultID)

	require.NoError(t, err)
	assert.Equal(t, resultID, res.ResultID)
	assert.Equal(t, assignmentID, res.AssignmentID)
	assert.Equal(t, 10.5, res.ResultValues["glucose"])
	assert.False(t, res.IsVerified)
	assert.Nil(t, res.VerifiedBy)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetResultByAssignment_NotFound(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	assignmentID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(assignmentID).
		WillReturnError(sql.ErrNoRows)

	res, err := repo.GetResultByAssignment(context.Background(), assignmentID)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertResult_Success(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	assignmentID := uuid.New().String()

	mock.ExpectQuery(`INSERT INTO test_results`).
		WithArgs(sqlmock.AnyArg(), assignmentID, `{"glucose":10.5}`, "all good", "tech-1").
		WillReturnRows(resultRow(uuid.New().String(), assignmentID, `{"glucose": 10.5}`, false, nil))

	created, err := repo.InsertResult(context.Background(), &domain.TestResult{
		AssignmentID: assignmentID,
		ResultValues: map[string]any{"glucose": 10.5},
		Notes:        "all good",
		EnteredBy:    "tech-1",
	})

	require.NoError(t, err)
	assert.Equal(t, assignmentID, created.AssignmentID)
	assert.False(t, created.IsVerified)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertResult_DuplicateAssignmentIsConflict(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	assignmentID := uuid.New().String()

	mock.ExpectQuery(`INSERT INTO test_results`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "test_results_assignment_key"})

	_, err := repo.InsertResult(context.Background(), &domain.TestResult{
		AssignmentID: assignmentID,
		ResultValues: map[string]any{"glucose": 10.5},
		EnteredBy:    "tech-1",
	})

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendResult_KeepsNotesWhenNil(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	resultID := uuid.New().String()

	mock.ExpectQuery(`UPDATE test_results`).
		WithArgs(resultID, `{"glucose":12}`, "", false).
		WillReturnRows(resultRow(resultID, uuid.New().String(), `{"glucose": 12}`, false, nil))

	amended, err := repo.AmendResult(context.Background(), resultID, map[string]any{"glucose": 12}, nil)

	require.NoError(t, err)
	assert.False(t, amended.IsVerified)
	assert.Nil(t, amended.VerifiedBy)
	assert.Nil(t, amended.VerifiedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendResult_ReplacesNotesWhenProvided(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	resultID := uuid.New().String()
	notes := "corrected after recalibration"

	mock.ExpectQuery(`UPDATE test_results`).
		WithArgs(resultID, `{"glucose":12}`, notes, true).
		WillReturnRows(resultRow(resultID, uuid.New().String(), `{"glucose": 12}`, false, nil))

	_, err := repo.AmendResult(context.Background(), resultID, map[string]any{"glucose": 12}, &notes)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendResult_NotFound(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	resultID := uuid.New().String()

	mock.ExpectQuery(`UPDATE test_results`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.AmendResult(context.Background(), resultID, map[string]any{"glucose": 12}, nil)

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyResult_Success(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	resultID := uuid.New().String()

	mock.ExpectQuery(`UPDATE test_results`).
		WithArgs(resultID, "admin-1").
		WillReturnRows(resultRow(resultID, uuid.New().String(), `{"glucose": 12}`, true, "admin-1"))

	verified, err := repo.VerifyResult(context.Background(), resultID, "admin-1")

	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, "admin-1", *verified.VerifiedBy)
	assert.NotNil(t, verified.VerifiedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListResultsByAssignmentIDs_EmptyInput(t *testing.T) {
	db, mock, repo := setupMockResultsDB(t)
	defer db.Close()

	out, err := repo.ListResultsByAssignmentIDs(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, mock.ExpectationsWereMet())
}
