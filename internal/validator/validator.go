package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/lobster/internal/compiler"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/schema"
)

// Severity of a Problem.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Problem is one finding about a stage.
type Problem struct {
	Stage    int    `json:"stage"`
	Command  string `json:"command"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("stage %d (%s): %s: %s", p.Stage, p.Command, p.Severity, p.Message)
}

// ValidatePipeline checks pipeline text without running it. Syntax errors are
// returned as the error. Unknown commands, missing required arguments and
// mistyped values are errors; flags a command does not declare are warnings.
// Commands without a declared schema are only checked for existence.
func ValidatePipeline(text string, resolver ports.CommandResolver) ([]Problem, error) {
	stages, err := compiler.Parse(text)
	if err != nil {
		return nil, err
	}

	var problems []Problem
	for i, st := range stages {
		add := func(severity, msg string) {
			problems = append(problems, Problem{Stage: i + 1, Command: st.Name, Severity: severity, Message: msg})
		}

		cmd, err := resolver.Resolve(st.Name)
		if err != nil {
			if errors.Is(err, domain.ErrCommandNotFound) {
				add(SeverityError, "unknown command")
				continue
			}
			return nil, fmt.Errorf("failed to resolve stage %d (%s): %w", i+1, st.Name, err)
		}

		sp, ok := cmd.(ports.SchemaProvider)
		if !ok || len(sp.Schema().Args) == 0 {
			continue
		}
		s, err := schema.Compile(sp.Schema())
		if err != nil {
			add(SeverityWarning, err.Error())
			continue
		}

		for _, verr := range schema.ValidationErrors(s.Validate(st.Args)) {
			add(SeverityError, verr.Error())
		}
		if undeclared := s.Undeclared(st.Args); len(undeclared) > 0 {
			add(SeverityWarning, "undeclared flags: --"+strings.Join(undeclared, ", --"))
		}
	}
	return problems, nil
}

// HasErrors reports whether any problem is an error.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}
