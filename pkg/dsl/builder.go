package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/lobster/internal/compiler"
	"github.com/aretw0/lobster/pkg/domain"
)

// Builder manages the pipeline construction.
type Builder struct {
	stages []*StageBuilder
	err    error
}

// New creates a new pipeline builder.
func New() *Builder {
	return &Builder{}
}

// Stage appends a new stage running the named command.
func (b *Builder) Stage(name string) *StageBuilder {
	sb := &StageBuilder{
		stage:   domain.Stage{Name: name, Args: domain.Args{}},
		builder: b,
	}
	b.stages = append(b.stages, sb)
	return sb
}

// Build checks the pipeline and returns its stages. The result is what
// parsing String() yields, so Raw is populated for error reporting.
func (b *Builder) Build() ([]domain.Stage, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stages) == 0 {
		return nil, errors.New("pipeline has no stages")
	}
	for i, sb := range b.stages {
		if sb.stage.Name == "" {
			return nil, fmt.Errorf("stage %d has no command name", i+1)
		}
	}
	stages, err := compiler.Parse(b.String())
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return stages, nil
}

// String renders the pipeline text.
func (b *Builder) String() string {
	stages := make([]domain.Stage, len(b.stages))
	for i, sb := range b.stages {
		stages[i] = sb.stage
	}
	return compiler.Format(stages)
}

// StageBuilder provides a fluent API for configuring a stage.
type StageBuilder struct {
	stage   domain.Stage
	builder *Builder
}

// Flag sets --name to value. Strings, booleans, numbers and string slices
// are accepted; anything else fails Build.
func (s *StageBuilder) Flag(name string, value any) *StageBuilder {
	v, err := domain.ValueOf(value)
	if err == nil && !compiler.ValidFlagName(name) {
		err = errors.New("invalid flag name")
	}
	if err != nil {
		if s.builder.err == nil {
			s.builder.err = fmt.Errorf("stage %s: flag --%s: %w", s.stage.Name, name, err)
		}
		return s
	}
	s.stage.Args[name] = v
	return s
}

// Words appends positional words.
func (s *StageBuilder) Words(words ...string) *StageBuilder {
	s.stage.Args[domain.PositionalKey] = domain.ListValue(append(s.stage.Args.Positional(), words...)...)
	return s
}

// Then starts the next stage.
func (s *StageBuilder) Then(name string) *StageBuilder {
	return s.builder.Stage(name)
}

// Pipeline returns the builder the stage belongs to.
func (s *StageBuilder) Pipeline() *Builder {
	return s.builder
}
