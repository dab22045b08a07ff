package runlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "etl_runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.NoError(t, l.Migrate(context.Background()))
	return l
}

func TestStartFinish(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	id, err := l.Start(ctx, "artroyal_detailing", "normalize")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, l.Finish(ctx, id, 1250, nil))

	runs, err := l.Recent(ctx, "artroyal_detailing", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusComplete, runs[0].Status)
	assert.Equal(t, 1250, runs[0].Rows)
	assert.Empty(t, runs[0].Error)
	require.NotNil(t, runs[0].FinishedAt)
}

func TestFinishRecordsError(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	id, err := l.Start(ctx, "artroyal_detailing", "load")
	require.NoError(t, err)

	require.NoError(t, l.Finish(ctx, id, 0, eris.New("warehouse unreachable")))

	runs, err := l.Recent(ctx, "artroyal_detailing", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "warehouse unreachable")
}

func TestFinishUnknownRun(t *testing.T) {
	l := newTestLog(t)

	err := l.Finish(context.Background(), "does-not-exist", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRecentScopedToClient(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	_, err := l.Start(ctx, "artroyal_detailing", "export")
	require.NoError(t, err)
	_, err = l.Start(ctx, "other_client", "export")
	require.NoError(t, err)

	runs, err := l.Recent(ctx, "other_client", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "other_client", runs[0].ClientSlug)
	assert.Equal(t, StatusRunning, runs[0].Status)
}
