package schema

import (
	"fmt"

	"github.com/aretw0/lobster/pkg/domain"
)

// Field is one compiled argument declaration.
type Field struct {
	Name     string
	Type     Type
	Required bool
}

// Schema is a compiled ArgSchema. Fields keep their declaration order so
// errors are reported deterministically.
type Schema struct {
	Fields []Field
	index  map[string]int
}

// Compile converts a declaration into a Schema.
func Compile(decl domain.ArgSchema) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(decl.Args))}
	for _, spec := range decl.Args {
		t, err := ParseType(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", spec.Name, err)
		}
		s.index[spec.Name] = len(s.Fields)
		s.Fields = append(s.Fields, Field{Name: spec.Name, Type: t, Required: spec.Required})
	}
	return s, nil
}

// Lookup returns the field declared under name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Validate checks args against the schema: required fields must be present
// and present fields must match their type. Undeclared arguments are ignored;
// see Undeclared.
func (s *Schema) Validate(args domain.Args) error {
	var errs []error
	for _, f := range s.Fields {
		value, exists := args[f.Name]
		if !exists {
			if f.Required {
				errs = append(errs, &ValidationError{Key: f.Name, Reason: "required"})
			}
			continue
		}
		if err := f.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: f.Name, Reason: err.Error(), Value: value.Interface()})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Undeclared returns the flag names in args the schema does not declare,
// in sorted order. Positional words are never reported.
func (s *Schema) Undeclared(args domain.Args) []string {
	var out []string
	for _, name := range sortedKeys(args) {
		if name == domain.PositionalKey {
			continue
		}
		if _, ok := s.index[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
