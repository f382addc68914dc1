package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/operations"
	"salesetl/internal/operations/testutil"
)

func stepIDs(steps []operations.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistryRegister(t *testing.T) {
	registry := operations.NewRegistry()
	assert.Equal(t, 0, registry.Count())

	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("stage1", "Step 1")))
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("stage2", "Step 2")))

	assert.Equal(t, 2, registry.Count())
	assert.True(t, registry.Has("stage1"))
	assert.False(t, registry.Has("missing"))
	assert.Equal(t, []string{"stage1", "stage2"}, registry.ListIDs())

	got, err := registry.Get("stage2")
	require.NoError(t, err)
	assert.Equal(t, "Step 2", got.Name())

	_, err = registry.Get("missing")
	assert.Error(t, err)
}

func TestRegistryRegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		step    operations.Step
		wantErr string
	}{
		{name: "nil step", step: nil, wantErr: "nil step"},
		{name: "empty id", step: testutil.CreateSuccessfulStage("", "No ID"), wantErr: "cannot be empty"},
		{name: "duplicate", step: testutil.CreateSuccessfulStage("dup", "Again"), wantErr: "already registered"},
	}

	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("dup", "First")))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.step)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistryDependencyOrder(t *testing.T) {
	t.Run("diamond", func(t *testing.T) {
		registry := operations.NewRegistry()
		stages := testutil.CreateDiamondStages()
		// Register out of dependency order.
		for _, i := range []int{3, 2, 1, 0} {
			require.NoError(t, registry.Register(stages[i]))
		}

		ordered, err := registry.GetDependencyOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "C", "B", "D"}, stepIDs(ordered))
	})

	t.Run("ties keep registration order", func(t *testing.T) {
		registry := operations.NewRegistry()
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage(operations.StageIDIngest, "ingest")))
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage(operations.StageIDCalendar, "calendar", operations.StageIDIngest)))
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage(operations.StageIDRates, "rates")))
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage(operations.StageIDNormalize, "normalize", operations.StageIDIngest, operations.StageIDRates)))
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage(operations.StageIDAggregate, "aggregate", operations.StageIDNormalize, operations.StageIDCalendar)))

		ordered, err := registry.GetDependencyOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"ingest", "calendar", "rates", "normalize", "aggregate"}, stepIDs(ordered))
	})

	t.Run("missing dependency", func(t *testing.T) {
		registry := operations.NewRegistry()
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("a", "A", "ghost")))

		err := registry.ValidateDependencies()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-existent step ghost")
	})

	t.Run("cycle", func(t *testing.T) {
		registry := operations.NewRegistry()
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("a", "A", "b")))
		require.NoError(t, registry.Register(testutil.CreateSuccessfulStage("b", "B", "a")))

		err := registry.ValidateDependencies()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})
}

func TestRegistryGetDependents(t *testing.T) {
	registry := operations.NewRegistry()
	for _, s := range testutil.CreateDiamondStages() {
		require.NoError(t, registry.Register(s))
	}

	assert.Equal(t, []string{"B", "C"}, stepIDs(registry.GetDependents("A")))
	assert.Equal(t, []string{"D"}, stepIDs(registry.GetDependents("B")))
	assert.Empty(t, registry.GetDependents("D"))
}
