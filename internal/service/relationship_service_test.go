package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilgram/feedsvc/internal/repository"
)

func setupRelations(t *testing.T) (RelationshipService, *FanReplicator) {
	t.Helper()
	env := setupEnv(t)
	fanRepo := repository.NewFanRepository(env.db)
	rep := NewFanReplicator(fanRepo, 128)
	stop := rep.Start(2)
	t.Cleanup(func() { _ = stop(context.Background()) })
	return NewRelationshipService(env.follows, fanRepo, rep), rep
}

func waitDrained(t *testing.T, rep *FanReplicator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rep.QueueLen() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("replicator queue did not drain")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// queue empty does not mean the in-flight job committed yet
	time.Sleep(50 * time.Millisecond)
}

func TestFollowSelfRejected(t *testing.T) {
	svc, _ := setupRelations(t)
	assert.ErrorIs(t, svc.Follow(context.Background(), "u1", "u1"), ErrFollowSelf)
}

func TestFollowReplicatesFanEdge(t *testing.T) {
	svc, rep := setupRelations(t)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "f1", "a1"))
	waitDrained(t, rep)

	following, err := svc.ListFollowing(ctx, "f1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, following)

	fans, err := svc.ListFans(ctx, "a1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, fans)
}

func TestUnfollowRemovesBothEdges(t *testing.T) {
	svc, rep := setupRelations(t)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "f1", "a1"))
	waitDrained(t, rep)
	require.NoError(t, svc.Unfollow(ctx, "f1", "a1"))
	waitDrained(t, rep)

	following, err := svc.ListFollowing(ctx, "f1", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, following)

	fans, err := svc.ListFans(ctx, "a1", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, fans)
}

func TestListFansPaged(t *testing.T) {
	svc, rep := setupRelations(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Follow(ctx, fmt.Sprintf("f%d", i), "a1"))
	}
	waitDrained(t, rep)

	page1, err := svc.ListFans(ctx, "a1", 1, 3)
	require.NoError(t, err)
	assert.Len(t, page1, 3)

	page2, err := svc.ListFans(ctx, "a1", 2, 3)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	// out-of-range page normalizes instead of erroring
	page0, err := svc.ListFans(ctx, "a1", 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, page0)
}
