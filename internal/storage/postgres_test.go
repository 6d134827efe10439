package storage_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ashita-ai/shirabe/internal/model"
	"github.com/ashita-ai/shirabe/internal/storage"
	"github.com/ashita-ai/shirabe/internal/testutil"
)

func TestPostgresAppendAndRead(t *testing.T) {
	dsn := testutil.StartPostgres(t)
	ctx := context.Background()

	log, err := storage.OpenPostgres(ctx, dsn, testutil.TestLogger())
	require.NoError(t, err)
	defer log.Close(ctx) //nolint:errcheck

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seq, err := log.Append(ctx, "run-a", model.StepHypothesis, ts, json.RawMessage(`{"id":"h1"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(i), seq)
	}

	events, err := log.Events(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, ts, events[0].OccurredAt)
	assert.JSONEq(t, `{"id":"h1"}`, string(events[0].Payload))

	_, err = log.Events(ctx, "no-such-run")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPostgresConcurrentRuns(t *testing.T) {
	dsn := testutil.StartPostgres(t)
	ctx := context.Background()

	log, err := storage.OpenPostgres(ctx, dsn, testutil.TestLogger())
	require.NoError(t, err)
	defer log.Close(ctx) //nolint:errcheck

	const runs = 6
	const perRun = 15

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
	}
}
