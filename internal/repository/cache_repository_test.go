package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/homeschool-planner-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "planner:draft:plan-1:student-1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "key", map[string]string{"a": "b"}, 0))
	assert.NoError(t, repo.Delete(ctx, "key"))
	assert.NoError(t, repo.PingContext(ctx))
	assert.NoError(t, repo.Close())
}
