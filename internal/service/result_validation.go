package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lims-assign/internal/domain"
)

// isoDatePattern accepts YYYY-MM-DD with an optional time part.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2}(\.\d{3})?Z?)?$`)

// ValidateResultValues checks a submitted value map against a test's field
// schema and acceptance range. Errors block persistence: missing required
// fields, unknown fields, type mismatches. Warnings never block: a number
// outside the declared normal range is clinically significant but still
// valid data. Pure function, no I/O.
func ValidateResultValues(test *domain.Test, values map[string]any) (errors []string, warnings []string) {
	if values == nil {
		return []string{"result values must be an object"}, nil
	}

	fieldsByName := make(map[string]*domain.TestField, len(test.Fields))
	for i := range test.Fields {
		fieldsByName[test.Fields[i].Name] = &test.Fields[i]
	}

	for _, field := range test.Fields {
		if field.Required {
			if _, ok := values[field.Name]; !ok {
				errors = append(errors, fmt.Sprintf("required field '%s' is missing", field.Name))
			}
		}
	}

	// Iterate the schema order for deterministic messages, then catch
	// unknown names.
	for _, field := range test.Fields {
		value, ok := values[field.Name]
		if !ok {
			continue
		}

		if msg := validateFieldType(&field, value); msg != "" {
			errors = append(errors, msg)
			continue
		}

		if field.Type == domain.FieldTypeNumber && test.HasNormalRange() {
			if n, ok := numericValue(value); ok {
				if n < *test.NormalRangeMin || n > *test.NormalRangeMax {
					warnings = append(warnings, fmt.Sprintf(
						"field '%s' value %v is outside normal range (%v - %v)",
						field.Name, n, *test.NormalRangeMin, *test.NormalRangeMax,
					))
				}
			}
		}
	}

	for name := range values {
		if _, ok := fieldsByName[name]; !ok {
			errors = append(errors, fmt.Sprintf("unknown field '%s' - not defined in test fields", name))
		}
	}

	return errors, warnings
}

func validateFieldType(field *domain.TestField, value any) string {
	switch field.Type {
	case domain.FieldTypeNumber:
		if _, ok := numericValue(value); !ok {
			return fmt.Sprintf("field '%s' must be a number", field.Name)
		}

	case domain.FieldTypeText:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("field '%s' must be a string", field.Name)
		}

	case domain.FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("field '%s' must be a boolean", field.Name)
		}

	case domain.FieldTypeSelect:
		if len(field.Options) == 0 {
			return fmt.Sprintf("field '%s' is a select type but has no options defined", field.Name)
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("field '%s' must be a string for select type", field.Name)
		}
		for _, opt := range field.Options {
			if s == opt {
				return ""
			}
		}
		return fmt.Sprintf("field '%s' value '%s' is not in allowed options: %s",
			field.Name, s, strings.Join(field.Options, ", "))

	case domain.FieldTypeDate:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("field '%s' must be a string (ISO date format)", field.Name)
		}
		if !isoDatePattern.MatchString(s) && !parseableDate(s) {
			return fmt.Sprintf("field '%s' must be a valid date string (ISO format)", field.Name)
		}

	case domain.FieldTypeFile:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("field '%s' must be a string (file path/URL)", field.Name)
		}

	default:
		return fmt.Sprintf("unknown field type '%s' for field '%s'", field.Type, field.Name)
	}
	return ""
}

// numericValue normalizes the numeric shapes a decoded JSON payload can
// carry. Strings are never numbers here.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func parseableDate(s string) bool {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
