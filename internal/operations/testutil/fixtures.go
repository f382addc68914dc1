package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"salesetl/internal/operations"
)

// CreateSuccessfulStage creates a step that always succeeds
func CreateSuccessfulStage(id, name string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
	}
}

// CreateFailingStage creates a step that always fails
func CreateFailingStage(id, name string, err error, deps ...string) *MockStage {
	if err == nil {
		err = errors.New("step failed")
	}
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			return err
		},
	}
}

// CreateSlowStage creates a step that takes the given duration unless its
// context ends first
func CreateSlowStage(id, name string, duration time.Duration, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			timer := time.NewTimer(duration)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// CreateValidationFailingStage creates a step that fails validation
func CreateValidationFailingStage(id, name string, validationErr error, deps ...string) *MockStage {
	if validationErr == nil {
		validationErr = errors.New("validation failed")
	}
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ValidateFunc: func(state *operations.OperationState) error {
			return validationErr
		},
	}
}

// CreateContextWriterStage creates a step that publishes one context value
func CreateContextWriterStage(id, name, key string, value interface{}, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			state.SetContext(key, value)
			return nil
		},
	}
}

// ExecutionLog records the order in which steps ran
type ExecutionLog struct {
	mu  sync.Mutex
	ids []string
}

// Track wraps a step so its executions are appended to the log
func (l *ExecutionLog) Track(step *MockStage) *MockStage {
	inner := step.ExecuteFunc
	step.ExecuteFunc = func(ctx context.Context, state *operations.OperationState) error {
		l.mu.Lock()
		l.ids = append(l.ids, step.IDValue)
		l.mu.Unlock()
		if inner != nil {
			return inner(ctx, state)
		}
		return nil
	}
	return step
}

// IDs returns the executed step IDs in order
func (l *ExecutionLog) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// CreateDiamondStages creates steps with a diamond dependency pattern:
// A before B and C, both before D.
func CreateDiamondStages() []*MockStage {
	return []*MockStage{
		CreateSuccessfulStage("A", "step A"),
		CreateSuccessfulStage("B", "step B", "A"),
		CreateSuccessfulStage("C", "step C", "A"),
		CreateSuccessfulStage("D", "step D", "B", "C"),
	}
}
