package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedEventRepository_FirstWriterWins(t *testing.T) {
	db := newTestDB(t)
	createProcessedEventTable(t, db)
	repo := NewProcessedEventRepository(db)
	ctx := context.Background()

	acquired, err := repo.AttemptLock(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = repo.AttemptLock(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, acquired, "second writer must not acquire the lock")

	acquired, err = repo.AttemptLock(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestProcessedEventRepository_PruneOlderThan(t *testing.T) {
	db := newTestDB(t)
	createProcessedEventTable(t, db)
	repo := NewProcessedEventRepository(db)
	ctx := context.Background()

	_, err := repo.AttemptLock(ctx, "evt_old")
	require.NoError(t, err)
	_, err = repo.AttemptLock(ctx, "evt_new")
	require.NoError(t, err)
	mustExec(t, db, `UPDATE processed_events SET processed_at = ? WHERE event_id = 'evt_old'`,
		time.Now().Add(-8*24*time.Hour))

	pruned, err := repo.PruneOlderThan(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	// The pruned id can be locked again; retention exceeds the provider's
	// retry horizon so this only happens for long-dead events.
	acquired, err := repo.AttemptLock(ctx, "evt_old")
	require.NoError(t, err)
	assert.True(t, acquired)
}
