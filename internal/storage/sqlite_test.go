package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/shirabe/internal/model"
	"github.com/ashita-ai/shirabe/internal/storage"
)

func openTestLog(t *testing.T) *storage.SQLiteLog {
	t.Helper()
	log, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "events.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close(context.Background()) })
	return log
}

func TestSQLiteAppendAssignsGapFreeSequence(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	for i := 0; i < 5; i++ {
		seq, err := log.Append(ctx, "run-a", model.StepHypothesis, time.Now(), json.RawMessage(`{"i":`+fmt.Sprint(i)+`}`))
		require.NoError(t, err)
		assert.Equal(t, int64(i), seq)
	}

	events, err := log.Events(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, e := range events {
		assert.Equal(t, int64(i), e.Seq)
		assert.Equal(t, "run-a", e.RunID)
	}
}

func TestSQLiteEventsRoundTrip(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	payload := json.RawMessage(`{"id":"h1","statement":"x","candidates":["Li1Na2O3"],"assumptions":[]}`)
	_, err := log.Append(ctx, "run-a", model.StepHypothesis, ts, payload)
	require.NoError(t, err)

	events, err := log.Events(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.StepHypothesis, events[0].Step)
	assert.Equal(t, ts, events[0].OccurredAt)
	assert.JSONEq(t, string(payload), string(events[0].Payload))
}

func TestSQLiteUnknownRun(t *testing.T) {
	log := openTestLog(t)
	_, err := log.Events(context.Background(), "no-such-run")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteDurableAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	log, err := storage.OpenSQLite(ctx, path, slog.Default())
	require.NoError(t, err)
	_, err = log.Append(ctx, "run-a", model.StepHypothesis, time.Now(), json.RawMessage(`{"id":"h1"}`))
	require.NoError(t, err)
	require.NoError(t, log.Close(ctx))

	reopened, err := storage.OpenSQLite(ctx, path, slog.Default())
	require.NoError(t, err)
	defer reopened.Close(ctx) //nolint:errcheck

	events, err := reopened.Events(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestSQLiteConcurrentRunsKeepOrdering(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	const runs = 8
	const perRun = 20

	var g errgroup.Group
	for r := 0; r < runs; r++ {
		runID := fmt.Sprintf("run-%d", r)
		g.Go(func() error {
			for i := 0; i < perRun; i++ {
				seq, err := log.Append(ctx, runID, model.StepExecute, time.Now(), json.RawMessage(`{"tool":"t","property":"stability","results":{}}`))
				if err != nil {
					return err
				}
				if seq != int64(i) {
					return fmt.Errorf("%s: got seq %d, want %d", runID, seq, i)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for r := 0; r < runs; r++ {
		events, err := log.Events(ctx, fmt.Sprintf("run-%d", r))
		require.NoError(t, err)
		require.Len(t, events, perRun)
		for i, e := range events {
			assert.Equal(t, int64(i), e.Seq)
		}
	}

	ids, err := log.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, runs)
}

func TestSQLiteRunsListedInFirstAppendOrder(t *testing.T) {
	ctx := context.Background()
	log := openTestLog(t)

	for _, runID := range []string{"run-c", "run-a", "run-b"} {
		_, err := log.Append(ctx, runID, model.StepHypothesis, time.Now(), json.RawMessage(`{}`))
		require.NoError(t, err)
	}
	// Interleave a second event for the first run; first-append order must hold.
	_, err := log.Append(ctx, "run-c", model.StepDesign, time.Now(), json.RawMessage(`{}`))
	require.NoError(t, err)

	ids, err := log.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-c", "run-a", "run-b"}, ids)
}
