package operations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salesetl/internal/errors"
	"salesetl/internal/infrastructure"
	"salesetl/internal/operations"
	"salesetl/internal/operations/testutil"
)

func newTestManager(t *testing.T, config *operations.Config, steps ...*testutil.MockStage) (*operations.Manager, *testutil.MockSlogHandler) {
	t.Helper()
	logger, handler := testutil.CreateTestSlogLogger()
	manager := operations.NewManager(nil, config, logger)
	for _, s := range steps {
		require.NoError(t, manager.RegisterStage(s))
	}
	return manager, handler
}

func TestManagerExecuteSequential(t *testing.T) {
	var log testutil.ExecutionLog
	manager, handler := newTestManager(t, nil,
		log.Track(testutil.CreateSuccessfulStage("stage1", "Step 1")),
		log.Track(testutil.CreateSuccessfulStage("stage2", "Step 2", "stage1")),
		log.Track(testutil.CreateSuccessfulStage("stage3", "Step 3", "stage2")),
	)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.ID)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"stage1", "stage2", "stage3"}, log.IDs())
	for _, id := range []string{"stage1", "stage2", "stage3"} {
		require.Contains(t, resp.Steps, id)
		assert.Equal(t, operations.StepStatusCompleted, resp.Steps[id].Status)
	}
	assert.True(t, handler.HasMessage("operation_completed"))
	assert.Empty(t, manager.ListOperations())
}

func TestManagerGeneratesRunID(t *testing.T) {
	var seen string
	step := testutil.CreateSuccessfulStage("only", "Only")
	step.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		seen = infrastructure.GetTraceID(ctx)
		return nil
	}
	manager, _ := newTestManager(t, nil, step)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.ID, 36)
	assert.Equal(t, resp.ID, seen)
}

func TestManagerFailureSkipsDependents(t *testing.T) {
	cause := apperrors.NewSchemaError("sales.csv", []string{"qty"})
	independent := testutil.CreateSuccessfulStage("independent", "Independent")
	manager, handler := newTestManager(t, nil,
		testutil.CreateFailingStage("first", "First", cause),
		testutil.CreateSuccessfulStage("second", "Second", "first"),
		testutil.CreateSuccessfulStage("third", "Third", "second"),
		independent,
	)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)

	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Equal(t, operations.StepStatusFailed, resp.Steps["first"].Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["second"].Status)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["third"].Status)
	// The run stops at the first failure.
	assert.Equal(t, operations.StepStatusPending, resp.Steps["independent"].Status)
	assert.Equal(t, 0, independent.ExecuteCalls())

	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, resp.Error, "missing")
	assert.True(t, handler.HasMessage("stage_execution_failed"))
}

func TestManagerContinueOnError(t *testing.T) {
	independent := testutil.CreateSuccessfulStage("independent", "Independent")
	config := operations.NewConfigBuilder().WithContinueOnError(true).Build()
	manager, _ := newTestManager(t, config,
		testutil.CreateFailingStage("first", "First", nil),
		testutil.CreateSuccessfulStage("second", "Second", "first"),
		independent,
	)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["second"].Status)
	assert.Equal(t, operations.StepStatusCompleted, resp.Steps["independent"].Status)
	assert.Equal(t, 1, independent.ExecuteCalls())
}

func TestManagerValidationFailure(t *testing.T) {
	validationErr := apperrors.NewConfigError("invalid pipeline configuration", nil)
	stage := testutil.CreateValidationFailingStage("validate", "Validate", validationErr)
	manager, _ := newTestManager(t, nil, stage)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)

	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Equal(t, 0, stage.ExecuteCalls())
	assert.Equal(t, operations.StepStatusFailed, resp.Steps["validate"].Status)
}

func TestManagerStepTimeout(t *testing.T) {
	config := operations.NewConfigBuilder().
		WithStageTimeout("slow", 20*time.Millisecond).
		Build()
	manager, _ := newTestManager(t, config, testutil.CreateSlowStage("slow", "Slow", time.Second))

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
}

func TestManagerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := testutil.CreateSuccessfulStage("first", "First")
	first.ExecuteFunc = func(context.Context, *operations.OperationState) error {
		cancel()
		return nil
	}
	second := testutil.CreateSuccessfulStage("second", "Second", "first")
	manager, _ := newTestManager(t, nil, first, second)

	resp, err := manager.Execute(ctx, operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, operations.OperationStatusCancelled, resp.Status)
	assert.Equal(t, 0, second.ExecuteCalls())
	assert.Equal(t, operations.StepStatusSkipped, resp.Steps["second"].Status)
}

func TestManagerRunsEachStepOnce(t *testing.T) {
	stage := testutil.CreateFailingStage("flaky", "Flaky", errors.New("temporary"))
	manager, _ := newTestManager(t, nil, stage)

	_, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, stage.ExecuteCalls())
}

func TestManagerContextFlowsBetweenSteps(t *testing.T) {
	reader := testutil.CreateSuccessfulStage("reader", "Reader", "writer")
	var got int
	reader.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		v, err := operations.ContextValue[int](state, "answer")
		got = v
		return err
	}
	manager, _ := newTestManager(t, nil,
		reader,
		testutil.CreateContextWriterStage("writer", "Writer", "answer", 42),
	)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 42, resp.Context["answer"])
}

func TestManagerDependencyCycle(t *testing.T) {
	manager, _ := newTestManager(t, nil,
		testutil.CreateSuccessfulStage("a", "A", "b"),
		testutil.CreateSuccessfulStage("b", "B", "a"),
	)

	resp, err := manager.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeFatal, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
}
