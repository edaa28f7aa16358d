package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/infrastructure/memory"
	"github.com/matrixnet/social-service/internal/service"
)

func TestTrackerDeduplicatesInOrder(t *testing.T) {
	var tr service.Tracker[*domain.UserAggregate]
	a := &domain.UserAggregate{User: domain.User{ID: 1}}
	b := &domain.UserAggregate{User: domain.User{ID: 2}}

	tr.Track(a)
	tr.Track(b, a)
	tr.Track(a)

	seen := tr.Seen()
	require.Len(t, seen, 2)
	assert.Same(t, a, seen[0])
	assert.Same(t, b, seen[1])
}

func TestCollectNewEventsDrainsSeenAggregates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	uow := store.NewUnitOfWork()

	user := &domain.UserAggregate{User: domain.User{Email: "neo@matrix.net", Username: "neo"}}
	require.NoError(t, uow.Users().Add(ctx, user))
	user.Record(domain.UserRegistered{UserID: user.User.ID, Email: "neo@matrix.net", Username: "neo"})

	post := &domain.PostAggregate{UserID: user.User.ID, Username: "neo", Body: "hello"}
	require.NoError(t, uow.Posts().Add(ctx, post))
	post.Record(domain.PostCreated{PostID: post.ID, UserID: user.User.ID, Username: "neo"})

	evts := service.CollectNewEvents(uow)
	require.Len(t, evts, 2)
	assert.Equal(t, "UserRegistered", evts[0].EventName(), "user events come before post events")
	assert.Equal(t, "PostCreated", evts[1].EventName())

	assert.Empty(t, service.CollectNewEvents(uow), "draining clears the pending lists")
}

func TestCollectNewEventsSkipsUntouchedAggregates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	seed := store.NewUnitOfWork()
	user := &domain.UserAggregate{User: domain.User{Email: "neo@matrix.net", Username: "neo"}}
	require.NoError(t, seed.Users().Add(ctx, user))
	user.Record(domain.UserRegistered{UserID: user.User.ID})

	// A fresh scope that never touched the user must not see its events.
	fresh := store.NewUnitOfWork()
	assert.Empty(t, service.CollectNewEvents(fresh))

	// Fetching through a scope makes the aggregate visible to it.
	loaded := store.NewUnitOfWork()
	_, err := loaded.Users().Get(ctx, user.User.ID)
	require.NoError(t, err)
	assert.Len(t, service.CollectNewEvents(loaded), 1)
}

func TestMemoryUnitOfWorkCommitAndRollbackFlags(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	uow := store.NewUnitOfWork()
	require.NoError(t, uow.Commit(ctx))
	require.NoError(t, uow.Close(ctx))
	assert.True(t, uow.Committed)
	assert.False(t, uow.RolledBack)

	uow = store.NewUnitOfWork()
	require.NoError(t, uow.Close(ctx))
	assert.False(t, uow.Committed)
	assert.True(t, uow.RolledBack, "closing without commit rolls back")
}
