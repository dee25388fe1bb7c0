package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dwcli/pkg/contracts/domain"
)

func TestStepState_Lifecycle(t *testing.T) {
	s := NewStepState("conform", "Conform entities")
	assert.Equal(t, StepStatusPending, s.Status())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.Status())

	time.Sleep(time.Millisecond)
	s.Complete(42)
	assert.Equal(t, StepStatusCompleted, s.Status())
	assert.Greater(t, s.Duration(), time.Duration(0))

	result := s.Result()
	assert.Equal(t, "conform", result.ID)
	assert.Equal(t, "Conform entities", result.Name)
	assert.Equal(t, 42, result.Rows)
	assert.Empty(t, result.Error)
}

func TestStepState_Fail(t *testing.T) {
	s := NewStepState("extract", "Extract sources")
	s.Start()
	s.Fail(assert.AnError)

	assert.Equal(t, StepStatusFailed, s.Status())
	assert.Equal(t, assert.AnError.Error(), s.Result().Error)
}

func TestState_ResultSnapshot(t *testing.T) {
	state := NewState("run-1")
	extract := NewStepState(StepIDExtract, "Extract sources")
	conform := NewStepState(StepIDConform, "Conform entities")
	state.AddStep(extract)
	state.AddStep(conform)

	extract.Start()
	extract.Complete(10)

	result := state.Result()
	assert.Equal(t, "run-1", result.ID)
	assert.Equal(t, domain.RunStatusRunning, result.Status)
	assert.Equal(t, []string{StepIDExtract, StepIDConform},
		[]string{result.Stages[0].ID, result.Stages[1].ID}, "stage order preserved")
	assert.Nil(t, result.RowsPerTarget, "row counts only on terminal success")

	state.Finish(domain.RunStatusSucceeded, nil)
	final := state.Result()
	assert.Equal(t, domain.RunStatusSucceeded, final.Status)
	assert.NotNil(t, final.RowsPerTarget)
	assert.False(t, final.FinishedAt.IsZero())
}
