package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupRunOnce(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.SearchCache.Upsert(ctx, "expired", nil, testNow.Add(-7*time.Hour), testNow.Add(-time.Hour)))
	require.NoError(t, repos.SearchCache.Upsert(ctx, "fresh", nil, testNow, testNow.Add(time.Hour)))

	svc := NewCleanupService(repos, time.Hour)
	svc.now = func() time.Time { return testNow }

	assert.Equal(t, int64(1), svc.RunOnce(ctx))
	assert.Equal(t, int64(0), svc.RunOnce(ctx))

	count, err := repos.SearchCache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCleanupStartStop(t *testing.T) {
	repos := newTestRepos(t)
	svc := NewCleanupService(repos, 0)
	assert.Equal(t, time.Hour, svc.interval)

	svc.Start()
	svc.Stop()
}
