package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

func TestCacheRepositoryPrefix(t *testing.T) {
	assert.Equal(t, "records:dashboard:stats", NewCacheRepository(nil, "", nil).key("dashboard:stats"))
	assert.Equal(t, "school-a:reports:export:r-1:pdf", NewCacheRepository(nil, "school-a", nil).key("reports:export:r-1:pdf"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	ctx := context.Background()

	var out string
	err := repo.Get(ctx, "k", &out)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "reports:export:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
