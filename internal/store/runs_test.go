package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

func successfulRun(t *testing.T, id string) Run {
	t.Helper()
	rec := engine.NewRecordFrom(map[string]any{"income": 60000.0})
	require.NoError(t, rec.Set("tax", 7000.0))

	run, err := NewRun(id, "pipeline-hash", map[string]any{"income": 60000.0}, rec,
		map[string]any{"tax": 7000.0}, nil)
	require.NoError(t, err)
	return run
}

func TestNewRun_Success(t *testing.T) {
	run := successfulRun(t, "run-1")

	assert.False(t, run.Failed())
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)
	assert.Equal(t, map[string]any{"income": 60000.0, "tax": 7000.0}, run.Record)

	want, err := ir.RecordHash(run.Record)
	require.NoError(t, err)
	assert.Equal(t, want, run.RecordHash)
}

func TestNewRun_EngineFailure(t *testing.T) {
	rec := engine.NewRecordFrom(map[string]any{"income": "lots"})
	runErr := engine.NewNonNumericValueError("income", "lots")

	run, err := NewRun("run-1", "h", map[string]any{"income": "lots"}, rec, nil, runErr)
	require.NoError(t, err)

	assert.True(t, run.Failed())
	assert.Equal(t, string(engine.ErrCodeNonNumericValue), run.ErrorCode)
	assert.Equal(t, "income", run.ErrorKey)
	assert.Equal(t, runErr.Error(), run.ErrorMessage)
	assert.Equal(t, map[string]any{}, run.Outputs)
}

func TestNewRun_PlainFailureWithoutRecord(t *testing.T) {
	run, err := NewRun("run-1", "h", nil, nil, nil, errors.New("boom"))
	require.NoError(t, err)

	assert.Equal(t, ErrCodeInternal, run.ErrorCode)
	assert.Equal(t, map[string]any{}, run.Record)
	assert.Equal(t, map[string]any{}, run.Inputs)
}

func TestWriteRun_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	written, err := s.WriteRun(ctx, successfulRun(t, "run-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), written.Seq)

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, written, got)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.WriteRun(ctx, successfulRun(t, "run-1"))
	require.NoError(t, err)

	dup := successfulRun(t, "run-1")
	dup.PipelineHash = "other"
	second, err := s.WriteRun(ctx, dup)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWriteRun_RequiresID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteRun(context.Background(), Run{})
	assert.Error(t, err)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		run := successfulRun(t, fmt.Sprintf("run-%d", i))
		if i%2 == 0 {
			run.PipelineHash = "even"
			run.ErrorCode = string(engine.ErrCodeOutOfRange)
		}
		_, err := s.WriteRun(ctx, run)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter RunFilter
		want   []string
	}{
		{"all newest first", RunFilter{}, []string{"run-4", "run-3", "run-2", "run-1"}},
		{"limit", RunFilter{Limit: 2}, []string{"run-4", "run-3"}},
		{"by pipeline", RunFilter{PipelineHash: "pipeline-hash"}, []string{"run-3", "run-1"}},
		{"failed only", RunFilter{FailedOnly: true}, []string{"run-4", "run-2"}},
		{"no match", RunFilter{PipelineHash: "missing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.ListRuns(ctx, tt.filter)
			require.NoError(t, err)

			ids := []string{}
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
