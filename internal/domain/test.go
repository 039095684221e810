package domain

import "time"

// TestCategory distinguishes where a test is performed.
type TestCategory string

const (
	TestCategoryOnsite TestCategory = "onsite"
	TestCategoryLab    TestCategory = "lab"
)

// FieldType enumerates the value types a result field may declare.
type FieldType string

const (
	FieldTypeNumber  FieldType = "number"
	FieldTypeText    FieldType = "text"
	FieldTypeSelect  FieldType = "select"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeFile    FieldType = "file"
)

// TestField is one entry of a test's ordered field schema (tests.fields jsonb).
type TestField struct {
	Name     string    `json:"field_name"`
	Type     FieldType `json:"field_type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"` // select only
}

// Test is a test definition (tests table). The schema part (TechnicianType,
// range, Fields) is read-mostly; administrative edits never retroactively
// invalidate existing assignments.
type Test struct {
	TestID         string       `db:"test_id"`
	Name           string       `db:"name"`            // NOT NULL, UNIQUE
	Description    string       `db:"description"`     // nullable
	Category       TestCategory `db:"category"`        // 'onsite'/'lab'
	TechnicianType string       `db:"technician_type"` // required technician qualification
	NormalRangeMin *float64     `db:"normal_range_min"`
	NormalRangeMax *float64     `db:"normal_range_max"`
	Unit           string       `db:"unit"`   // nullable
	Fields         []TestField  `db:"fields"` // JSONB, ordered
	IsActive       bool         `db:"is_active"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

// HasNormalRange reports whether both acceptance bounds are declared.
func (t *Test) HasNormalRange() bool {
	return t.NormalRangeMin != nil && t.NormalRangeMax != nil
}
