package service

import (
	"testing"

	"lims-assign/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func bloodGlucoseTest() *domain.Test {
	return &domain.Test{
		TestID:         "test-glucose",
		Name:           "Blood Glucose",
		TechnicianType: "LAB_TECHNICIAN",
		NormalRangeMin: floatPtr(5),
		NormalRangeMax: floatPtr(15),
		Unit:           "mmol/L",
		Fields: []domain.TestField{
			{Name: "glucose", Type: domain.FieldTypeNumber, Required: true},
			{Name: "method", Type: domain.FieldTypeSelect, Options: []string{"venous", "capillary"}},
			{Name: "fasting", Type: domain.FieldTypeBoolean},
			{Name: "comment", Type: domain.FieldTypeText},
		},
		IsActive: true,
	}
}

func TestValidateResultValues_CleanSubmission(t *testing.T) {
	errs, warnings := ValidateResultValues(bloodGlucoseTest(), map[string]any{
		"glucose": 10.5,
		"method":  "venous",
		"fasting": true,
		"comment": "ok",
	})
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestValidateResultValues_OutOfRangeWarnsButDoesNotBlock(t *testing.T) {
	errs, warnings := ValidateResultValues(bloodGlucoseTest(), map[string]any{
		"glucose": 20.0,
	})
	assert.Empty(t, errs)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "glucose")
	assert.Contains(t, warnings[0], "20")
	assert.Contains(t, warnings[0], "5")
	assert.Contains(t, warnings[0], "15")
}

func TestValidateResultValues_MissingRequiredField(t *testing.T) {
	errs, _ := ValidateResultValues(bloodGlucoseTest(), map[string]any{
		"comment": "no reading",
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "required field 'glucose' is missing")
}

func TestValidateResultValues_TypeMismatches(t *testing.T) {
	errs, warnings := ValidateResultValues(bloodGlucoseTest(), map[string]any{
		"glucose": "high", // strings are never numbers
		"fasting": "yes",
		"comment": 3,
	})
	assert.Empty(t, warnings)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "field 'glucose' must be a number")
	assert.Contains(t, errs[1], "field 'fasting' must be a boolean")
	assert.Contains(t, errs[2], "field 'comment' must be a string")
}

func TestValidateResultValues_SelectOptions(t *testing.T) {
	errs, _ := ValidateResultValues(bloodGlucoseTest(), map[string]any{
		"glucose": 8,
		"method":  "arterial",
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not in allowed options")
	assert.Contains(t, errs[0], "venous, capillary")
}

func TestValidateResultValues_UnknownFieldRejected(t *testing.T) {
	errs, _ := ValidateResultValues(bloodGlucoseTest(), map[string]any{
		"glucose": 8,
		"mystery": 1,
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "unknown field 'mystery'")
}

func TestValidateResultValues_NilValues(t *testing.T) {
	errs, warnings := ValidateResultValues(bloodGlucoseTest(), nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "must be an object")
	assert.Empty(t, warnings)
}

func TestValidateResultValues_DateField(t *testing.T) {
	test := &domain.Test{
		TestID: "test-culture",
		Name:   "Culture",
		Fields: []domain.TestField{
			{Name: "sampled_at", Type: domain.FieldTypeDate, Required: true},
		},
	}

	errs, _ := ValidateResultValues(test, map[string]any{"sampled_at": "2026-09-01"})
	assert.Empty(t, errs)

	errs, _ = ValidateResultValues(test, map[string]any{"sampled_at": "2026-09-01T10:30:00Z"})
	assert.Empty(t, errs)

	errs, _ = ValidateResultValues(test, map[string]any{"sampled_at": "yesterday"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "valid date string")
}

func TestValidateResultValues_NoRangeDeclaredNeverWarns(t *testing.T) {
	test := bloodGlucoseTest()
	test.NormalRangeMax = nil

	_, warnings := ValidateResultValues(test, map[string]any{"glucose": 500.0})
	assert.Empty(t, warnings)
}
