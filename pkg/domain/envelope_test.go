package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type approval struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

func TestNewEnvelope(t *testing.T) {
	env := domain.NewEnvelope(&domain.Result{Items: []domain.Item{1}})
	assert.True(t, env.OK)
	assert.Equal(t, domain.StatusOK, env.Status)
	assert.Equal(t, []domain.Item{1}, env.Output)

	env = domain.NewEnvelope(&domain.Result{Halted: true, Items: []domain.Item{approval{Type: domain.ApprovalRequestType}}})
	assert.Equal(t, domain.StatusNeedsApproval, env.Status)

	env = domain.NewEnvelope(&domain.Result{Halted: true})
	assert.Equal(t, domain.StatusHalted, env.Status)
	assert.Equal(t, []domain.Item{}, env.Output)

	assert.Equal(t, []domain.Item{}, domain.NewEnvelope(nil).Output)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err     error
		typ     string
		stage   int
		command string
	}{
		{&domain.ParseError{Stage: 2, Msg: "empty stage"}, domain.ErrorTypeParse, 2, ""},
		{&domain.UnknownCommandError{Stage: 1, Name: "nope"}, domain.ErrorTypeUnknownCommand, 1, "nope"},
		{fmt.Errorf("run: %w", &domain.StageError{Stage: 3, Name: "exec", Err: errors.New("boom")}), domain.ErrorTypeStage, 3, "exec"},
		{errors.New("other"), domain.ErrorTypeInternal, 0, ""},
	}
	for _, tt := range tests {
		info := domain.ClassifyError(tt.err)
		assert.Equal(t, tt.typ, info.Type)
		assert.Equal(t, tt.stage, info.Stage)
		assert.Equal(t, tt.command, info.Command)
		assert.Equal(t, tt.err.Error(), info.Message)
	}

	env := domain.ErrorEnvelope(errors.New("x"))
	assert.False(t, env.OK)
	assert.Empty(t, env.Status)
}
