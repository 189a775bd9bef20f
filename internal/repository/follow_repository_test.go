package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilgram/feedsvc/internal/model"
)

func TestFollowCreateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "f1", "a1"))
	require.NoError(t, repo.Create(ctx, "f1", "a1"))

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)

	ok, err := repo.Exists(ctx, "f1", "a1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollowDelete(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "f1", "a1"))
	require.NoError(t, repo.Delete(ctx, "f1", "a1"))

	ok, err := repo.Exists(ctx, "f1", "a1")
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting a missing edge is not an error
	require.NoError(t, repo.Delete(ctx, "f1", "a1"))
}

func TestFollowerAndFollowingIDs(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "f1", "a1"))
	require.NoError(t, repo.Create(ctx, "f2", "a1"))
	require.NoError(t, repo.Create(ctx, "f1", "a2"))

	followers, err := repo.FollowerIDs(ctx, "a1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"f1", "f2"}, followers)

	following, err := repo.FollowingIDs(ctx, "f1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a2"}, following)

	none, err := repo.FollowerIDs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListFollowingsPaged(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, "f1", fmt.Sprintf("a%d", i)))
	}
	page, err := repo.ListFollowings(ctx, "f1", 0, 3)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	page, err = repo.ListFollowings(ctx, "f1", 3, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestFanCreateDeleteList(t *testing.T) {
	db := setupDB(t)
	repo := NewFanRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "a1", "f1"))
	require.NoError(t, repo.Create(ctx, "a1", "f1"))
	require.NoError(t, repo.Create(ctx, "a1", "f2"))

	fans, err := repo.ListFans(ctx, "a1", 0, 10)
	require.NoError(t, err)
	assert.Len(t, fans, 2)

	require.NoError(t, repo.Delete(ctx, "a1", "f1"))
	fans, err = repo.ListFans(ctx, "a1", 0, 10)
	require.NoError(t, err)
	require.Len(t, fans, 1)
	assert.Equal(t, "f2", fans[0].FanID)
}
