// Package schema validates command arguments against their declared ArgSchema.
//
// Declarations are informational to the runtime, which never rejects a call
// because of them. This package is used where checking is wanted: the
// workflow catalog before running a workflow, and pipeline linting.
//
// Basic usage:
//
//	s, err := schema.Compile(domain.ArgSchema{Args: []domain.ArgSpec{
//	    {Name: "repo", Type: "string", Required: true},
//	    {Name: "pr", Type: "number", Required: true},
//	}})
//
//	if err := s.Validate(args); err != nil {
//	    for _, e := range schema.ValidationErrors(err) { ... }
//	}
//
// Values arrive either typed (from JSON) or as strings (from pipeline text),
// so "number" and "boolean" also accept strings that parse as such.
package schema
