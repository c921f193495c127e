package cosmic

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// Schema parses a value into its validated form or fails with a
// *ValidationError describing every violation.
type Schema interface {
	Parse(value any) (any, error)
}

// SchemaFunc adapts a function to Schema.
type SchemaFunc func(value any) (any, error)

func (f SchemaFunc) Parse(value any) (any, error) { return f(value) }

type anySchema struct{}

func (anySchema) Parse(value any) (any, error) { return value, nil }

type noContentSchema struct{}

func (noContentSchema) Parse(any) (any, error) { return nil, nil }

var (
	// Any accepts every value unchanged.
	Any Schema = anySchema{}

	// NoContent declares a response without a body.
	NoContent Schema = noContentSchema{}
)

// Model returns a schema that converts a value to T and validates it with
// the `validate` struct tags of T.
func Model[T any]() Schema {
	return SchemaFunc(func(value any) (any, error) {
		out, err := convert[T](value)
		if err != nil {
			return nil, err
		}
		if err := validateValue(out, ""); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// List returns a schema that converts a value to []T and validates every
// element.
func List[T any]() Schema {
	return SchemaFunc(func(value any) (any, error) {
		out, err := convert[[]T](value)
		if err != nil {
			return nil, err
		}
		var violations []Violation
		for i, item := range out {
			err := validateValue(item, fmt.Sprintf("[%d]", i))
			var verr *ValidationError
			if errors.As(err, &verr) {
				violations = append(violations, verr.Violations...)
			} else if err != nil {
				return nil, err
			}
		}
		if len(violations) > 0 {
			return nil, newValidationError(value, violations)
		}
		return out, nil
	})
}

// Scalar returns a schema that converts a value to T without further
// constraints.
func Scalar[T any]() Schema {
	return SchemaFunc(func(value any) (any, error) {
		return convert[T](value)
	})
}

// Nullable wraps s so that nil passes through as nil.
func Nullable(s Schema) Schema {
	return SchemaFunc(func(value any) (any, error) {
		if isUnset(value) {
			return nil, nil
		}
		return s.Parse(value)
	})
}

// convert turns value into a T, directly when it already is one and through
// JSON otherwise.
func convert[T any](value any) (T, error) {
	var out T
	switch v := value.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(value); err != nil {
			return out, fmt.Errorf("cosmic: encode %T: %w", value, err)
		}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return out, newValidationError(value, []Violation{{
				Path:    typeErr.Field,
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}})
		}
		return out, newValidationError(value, []Violation{{Message: err.Error()}})
	}
	return out, nil
}

// validateValue runs struct validation when v is a struct or a pointer to
// one. Other values have no constraints.
func validateValue(v any, prefix string) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := validate.Struct(rv.Interface())
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return newValidationError(v, violationsFrom(verrs, prefix))
	}
	return err
}
