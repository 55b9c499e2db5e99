package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
)

// Type defines the contract for argument validation.
type Type interface {
	// Name returns the declared type name (e.g. "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value domain.Value) error
}

// StringType accepts any scalar.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value domain.Value) error {
	if value.Kind == domain.KindList {
		return fmt.Errorf("expected string, got %s", value.Kind)
	}
	return nil
}

// NumberType accepts numbers and numeric strings.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value domain.Value) error {
	switch value.Kind {
	case domain.KindNumber:
		return nil
	case domain.KindString:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64); err == nil {
			return nil
		}
		return fmt.Errorf("expected number, got %q", value.Str)
	default:
		return fmt.Errorf("expected number, got %s", value.Kind)
	}
}

// BoolType accepts booleans and "true"/"false" strings.
type BoolType struct{}

func (t *BoolType) Name() string { return "boolean" }

func (t *BoolType) Validate(value domain.Value) error {
	switch value.Kind {
	case domain.KindBool:
		return nil
	case domain.KindString:
		if _, err := strconv.ParseBool(value.Str); err == nil {
			return nil
		}
		return fmt.Errorf("expected boolean, got %q", value.Str)
	default:
		return fmt.Errorf("expected boolean, got %s", value.Kind)
	}
}

// ArrayType accepts lists and comma-separated strings.
type ArrayType struct{}

func (t *ArrayType) Name() string { return "array" }

func (t *ArrayType) Validate(value domain.Value) error {
	switch value.Kind {
	case domain.KindList, domain.KindString:
		return nil
	default:
		return fmt.Errorf("expected array, got %s", value.Kind)
	}
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(domain.Value) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value domain.Value) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a number type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Array creates an array type validator.
func Array() Type { return &ArrayType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(domain.Value) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a declared type name to a Type. An empty name accepts
// anything.
func ParseType(typeStr string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(typeStr)) {
	case "string":
		return String(), nil
	case "number", "integer", "int", "float":
		return Number(), nil
	case "boolean", "bool":
		return Bool(), nil
	case "array", "list":
		return Array(), nil
	case "", "any":
		return Custom("any", func(domain.Value) error { return nil }), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}
