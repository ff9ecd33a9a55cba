package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Message string
	Path    []string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s at path %s", e.Message, strings.Join(e.Path, "."))
	}
	return e.Message
}

func (e *ValidationError) prefix(segment string) *ValidationError {
	e.Path = append([]string{segment}, e.Path...)
	return e
}

// Schema defines validation rules
type Schema interface {
	// Validate validates a value against the schema
	Validate(value any) (any, error)
}

// PlainSchema accepts map[string]any values whose nested values are plain
// data. Functions, channels and unsafe pointers are rejected at any depth.
type PlainSchema struct{}

// Validate returns the value as map[string]any
func (s *PlainSchema) Validate(value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok || m == nil {
		return nil, &ValidationError{
			Message: fmt.Sprintf("value of type %T is not a plain mapping", value),
		}
	}

	for key, item := range m {
		if err := ValidateValue(item); err != nil {
			return nil, err.prefix(key)
		}
	}

	return m, nil
}

// ValidateValue checks that v holds no executable behavior.
func ValidateValue(v any) *ValidationError {
	if v == nil {
		return nil
	}
	return validateValue(reflect.ValueOf(v), 0)
}

const maxDepth = 64

func validateValue(v reflect.Value, depth int) *ValidationError {
	if depth > maxDepth {
		return &ValidationError{Message: "value nests too deeply or is cyclic"}
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return &ValidationError{
			Message: fmt.Sprintf("value of kind %s is not plain data", v.Kind()),
		}
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return validateValue(v.Elem(), depth+1)
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := validateValue(iter.Value(), depth+1); err != nil {
				return err.prefix(fmt.Sprint(iter.Key().Interface()))
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validateValue(v.Index(i), depth+1); err != nil {
				return err.prefix(fmt.Sprintf("[%d]", i))
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := validateValue(v.Field(i), depth+1); err != nil {
				return err.prefix(v.Type().Field(i).Name)
			}
		}
	}

	return nil
}

// TypeSchema checks that a value has the Go type T
type TypeSchema[T any] struct{}

// Validate validates a value against T
func (s *TypeSchema[T]) Validate(value any) (any, error) {
	typed, ok := value.(T)
	if !ok {
		var zero T
		return nil, &ValidationError{
			Message: fmt.Sprintf("expected %T, got %T", zero, value),
		}
	}
	return typed, nil
}

// ObjectSchema validates named properties of a plain mapping
type ObjectSchema struct {
	Properties map[string]Schema
	Required   []string
}

// Validate validates an object
func (s *ObjectSchema) Validate(value any) (any, error) {
	validated, err := Plain().Validate(value)
	if err != nil {
		return nil, err
	}
	m := validated.(map[string]any)

	for _, req := range s.Required {
		if _, ok := m[req]; !ok {
			return nil, &ValidationError{
				Message: fmt.Sprintf("required property %s is missing", req),
			}
		}
	}

	for key, schema := range s.Properties {
		prop, ok := m[key]
		if !ok {
			continue
		}
		if _, err := schema.Validate(prop); err != nil {
			if valErr, ok := err.(*ValidationError); ok {
				return nil, valErr.prefix(key)
			}
			return nil, err
		}
	}

	return m, nil
}

// Require marks properties as required
func (s *ObjectSchema) Require(keys ...string) *ObjectSchema {
	s.Required = append(s.Required, keys...)
	return s
}

// Plain creates a new plain mapping schema
func Plain() *PlainSchema {
	return &PlainSchema{}
}

// Type creates a new schema accepting values of type T
func Type[T any]() *TypeSchema[T] {
	return &TypeSchema[T]{}
}

// Object creates a new object schema
func Object(properties map[string]Schema) *ObjectSchema {
	return &ObjectSchema{
		Properties: properties,
	}
}
